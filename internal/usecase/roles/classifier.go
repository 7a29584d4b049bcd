package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	pkgai "github.com/medscribe-team/clinical-scribe/pkg/ai"
)

// excerptBudget caps the per-speaker utterance excerpt sent to inference.
const excerptBudget = 2000

// InferenceClient is the chat-style inference collaborator.
type InferenceClient interface {
	Available() bool
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts pkgai.CompleteOptions) (string, error)
}

// Source says which cascade level produced the mapping.
type Source string

const (
	SourceInference Source = "inference"
	SourceHeuristic Source = "heuristic"
)

// FallbackReason explains why the heuristic level was used. The pipeline
// outcome is identical either way, but the reasons are operationally
// distinguishable.
type FallbackReason string

const (
	FallbackNone         FallbackReason = ""
	FallbackUnconfigured FallbackReason = "inference_unconfigured"
	FallbackCallFailed   FallbackReason = "inference_call_failed"
	FallbackUnparsable   FallbackReason = "unparsable_response"
	FallbackEmpty        FallbackReason = "empty_mapping"
	FallbackDegenerate   FallbackReason = "degenerate_mapping"
)

// Outcome carries the role mapping together with its provenance.
type Outcome struct {
	Mapping entities.RoleMapping
	Source  Source
	Reason  FallbackReason
}

// Classifier assigns clinical roles to anonymous speaker labels through a
// cascade: inference-backed primary, degenerate-result guard, deterministic
// heuristic fallback.
type Classifier struct {
	inference InferenceClient
	logger    *zap.Logger
}

// NewClassifier constructs a role classifier.
func NewClassifier(inference InferenceClient, logger *zap.Logger) *Classifier {
	return &Classifier{inference: inference, logger: logger}
}

// Classify maps every speaker observed in turns to a role. Classification
// never fails: any primary-level problem degrades to the heuristic mapping.
func (c *Classifier) Classify(ctx context.Context, turns []entities.Turn) Outcome {
	if c.inference == nil || !c.inference.Available() {
		return c.fallback(turns, FallbackUnconfigured)
	}

	prompt := buildRolePrompt(turns)
	content, err := c.inference.Complete(ctx, "You are a careful, deterministic classifier.", prompt, pkgai.CompleteOptions{
		Temperature: 0,
		MaxTokens:   500,
		JSONMode:    true,
	})
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("role inference call failed, using heuristic", zap.Error(err))
		}
		return c.fallback(turns, FallbackCallFailed)
	}

	mapping, err := parseRoleMapping(content)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("role inference returned unparsable payload, using heuristic", zap.Error(err))
		}
		return c.fallback(turns, FallbackUnparsable)
	}
	if len(mapping) == 0 {
		return c.fallback(turns, FallbackEmpty)
	}

	// A non-empty mapping that labels everyone "other" carries no signal and
	// is presumed a classification failure.
	allOther := true
	for _, role := range mapping {
		if role != entities.RoleOther {
			allOther = false
			break
		}
	}
	if allOther {
		return c.fallback(turns, FallbackDegenerate)
	}

	// Speakers absent from the response default to "other".
	for _, spk := range speakersInOrder(turns) {
		if _, ok := mapping[spk]; !ok {
			mapping[spk] = entities.RoleOther
		}
	}

	return Outcome{Mapping: mapping, Source: SourceInference, Reason: FallbackNone}
}

func (c *Classifier) fallback(turns []entities.Turn, reason FallbackReason) Outcome {
	return Outcome{
		Mapping: HeuristicMapping(turns),
		Source:  SourceHeuristic,
		Reason:  reason,
	}
}

// buildRolePrompt builds one combined request covering every speaker, with a
// per-speaker excerpt of their concatenated utterances.
func buildRolePrompt(turns []entities.Turn) string {
	bySpeaker := make(map[string][]string)
	for _, t := range turns {
		if text := strings.TrimSpace(t.Text); text != "" {
			bySpeaker[t.Speaker] = append(bySpeaker[t.Speaker], text)
		}
	}

	var bullets []string
	for _, spk := range speakersInOrder(turns) {
		excerpt := strings.Join(bySpeaker[spk], " ")
		if len(excerpt) > excerptBudget {
			excerpt = excerpt[:excerptBudget]
		}
		excerpt = strings.ReplaceAll(excerpt, "\n", " ")
		bullets = append(bullets, fmt.Sprintf("- %q: %q", spk, excerpt))
	}

	return strings.TrimSpace(fmt.Sprintf(`
You are labeling speakers in a medical conversation.
Speakers are named like "Speaker 1", "Speaker 2", etc.
Assign exactly one role per speaker from: ["doctor","patient","nurse","other"].

Return ONLY JSON:
{
  "mapping": {
    "Speaker 1": "doctor|patient|nurse|other",
    "Speaker 2": "doctor|patient|nurse|other"
  }
}

Guidelines:
- "doctor": clinician assessing, ordering tests, counseling.
- "patient": symptoms/experience questions/answers.
- "nurse": triage/vitals/logistics.
- "other": family/admin/interpreter.

Speakers & excerpts:
%s`, strings.Join(bullets, "\n")))
}

// parseRoleMapping decodes the {"mapping": {...}} response, coercing any
// role outside the fixed set to "other".
func parseRoleMapping(content string) (entities.RoleMapping, error) {
	var parsed struct {
		Mapping map[string]string `json:"mapping"`
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse role mapping response: %w", err)
	}

	mapping := make(entities.RoleMapping, len(parsed.Mapping))
	for spk, raw := range parsed.Mapping {
		mapping[spk] = entities.ParseRole(raw)
	}
	return mapping, nil
}

// extractJSON strips markdown code fences the model may wrap around JSON.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	if idx := strings.LastIndex(content, "```"); idx != -1 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}

// speakersInOrder lists unique speakers by first appearance.
func speakersInOrder(turns []entities.Turn) []string {
	seen := make(map[string]bool)
	var speakers []string
	for _, t := range turns {
		if !seen[t.Speaker] {
			seen[t.Speaker] = true
			speakers = append(speakers, t.Speaker)
		}
	}
	return speakers
}

// RelabelTurns applies a role mapping to turns, deriving display names from
// the fixed enumeration. Speakers missing from the mapping become "other".
func RelabelTurns(turns []entities.Turn, mapping entities.RoleMapping) []entities.ClassifiedTurn {
	out := make([]entities.ClassifiedTurn, 0, len(turns))
	for _, t := range turns {
		role, ok := mapping[t.Speaker]
		if !ok {
			role = entities.RoleOther
		}
		out = append(out, entities.NewClassifiedTurn(t, role))
	}
	return out
}
