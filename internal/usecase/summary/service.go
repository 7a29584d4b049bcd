package summary

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/medscribe-team/clinical-scribe/errors"
	pkgai "github.com/medscribe-team/clinical-scribe/pkg/ai"
)

// InferenceClient is the chat-style inference collaborator.
type InferenceClient interface {
	Available() bool
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts pkgai.CompleteOptions) (string, error)
}

const systemPrompt = "You are a medical consultant creating concise summaries. " +
	"Treat every request as independent and stateless. " +
	"Do not rely on prior runs or any memory from earlier inputs."

const taskInstructions = "You are a medical consultant creating concise, professional clinical summaries in plain text for doctors. " +
	"Treat every request as independent and stateless; do not use or reference prior inputs, outputs, or memories." +
	"OUTPUT FORMAT:" +
	"• Return exactly one cohesive paragraph in plain text." +
	"• No headings, lists, bullets, or labeled sections." +
	"• Target length ~60–130 words (may exceed slightly only to include critical safety information)." +
	"CONTENT TO COVER (prioritized):" +
	"• Chief complaint and onset/mechanism with clear chronology." +
	"• Key symptoms with severity, location/radiation, and functional impact." +
	"• Pertinent past medical history (and medications/allergies only if clinically relevant)." +
	"• Pertinent social factors that affect risk or management." +
	"• Critical exam or imaging findings and the most relevant working impression if implied by the data." +
	"• Current/initial treatment and practical next steps/plan." +
	"STYLE & SAFETY:" +
	"• Use precise medical terminology without unnecessary jargon; third-person, objective tone." +
	"• Do not invent or infer facts not present in the input; omit unspecified details." +
	"• Exclude normal/negative findings unless they materially change decisions." +
	"• Preserve units, dates, and timeframes as given."

// Service generates clinical summaries via the inference collaborator.
type Service struct {
	inference InferenceClient
	logger    *zap.Logger
}

// NewService constructs a summary service.
func NewService(inference InferenceClient, logger *zap.Logger) *Service {
	return &Service{inference: inference, logger: logger}
}

// SummarizeTranscript summarizes a role-labeled rendered transcript.
func (s *Service) SummarizeTranscript(ctx context.Context, rendered string) (string, error) {
	caseContext := fmt.Sprintf("MEDICAL CASE DATA:\n\n=== HPI / TRANSCRIPT ===\n%s\n", rendered)
	return s.generate(ctx, caseContext)
}

// SummarizeStructured parses structured Q&A input and summarizes it. Input
// that yields no sections is rejected.
func (s *Service) SummarizeStructured(ctx context.Context, userInput string) (string, error) {
	sections := ParseSections(userInput)
	if len(sections) == 0 {
		return "", errors.ErrInvalidArgument("Could not parse the input data")
	}
	return s.generate(ctx, BuildContext(sections))
}

func (s *Service) generate(ctx context.Context, caseContext string) (string, error) {
	if s.inference == nil || !s.inference.Available() {
		return "", fmt.Errorf("inference client not configured")
	}

	prompt := "You are a skilled medical professional creating a concise clinical summary for doctors.\n\n" +
		fmt.Sprintf("MEDICAL DATA:\n%s\n\n", caseContext) +
		taskInstructions +
		"Ensure the summary is concise, doctor-friendly, and highlights critical details."

	out, err := s.inference.Complete(ctx, systemPrompt, prompt, pkgai.CompleteOptions{
		Temperature: 0.1,
		MaxTokens:   300,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("summary generation failed", zap.Error(err))
		}
		return "", err
	}
	return CleanPlainText(out), nil
}

var (
	boldMarkdown   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicMarkdown = regexp.MustCompile(`\*([^*]+)\*`)
	headingPrefix  = regexp.MustCompile(`#+\s*`)
)

// CleanPlainText strips common markdown artifacts the model may emit.
func CleanPlainText(text string) string {
	text = boldMarkdown.ReplaceAllString(text, "$1")
	text = italicMarkdown.ReplaceAllString(text, "$1")
	text = headingPrefix.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
