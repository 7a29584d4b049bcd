package refine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	pkgai "github.com/medscribe-team/clinical-scribe/pkg/ai"
)

// Strategy selects how the refiner reworks the dialogue.
type Strategy string

const (
	// StrategyCleanup corrects each turn's text in fixed-size batches while
	// preserving turn count, order, speaker and role.
	StrategyCleanup Strategy = "cleanup"
	// StrategyHolistic regenerates the whole turn sequence in one pass,
	// trading turn identity for global coherence.
	StrategyHolistic Strategy = "holistic"
)

// InferenceClient is the chat-style inference collaborator.
type InferenceClient interface {
	Available() bool
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts pkgai.CompleteOptions) (string, error)
}

// Refiner optionally re-orders, re-labels and cleans classified turns.
// Refinement is never a prerequisite for pipeline completion: any anomaly
// returns the input unchanged.
type Refiner struct {
	inference InferenceClient
	strategy  Strategy
	batchSize int
	logger    *zap.Logger
}

// NewRefiner constructs a dialogue refiner.
func NewRefiner(inference InferenceClient, strategy Strategy, batchSize int, logger *zap.Logger) *Refiner {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Refiner{inference: inference, strategy: strategy, batchSize: batchSize, logger: logger}
}

// Refine applies the configured strategy. It is a no-op when the inference
// capability is unavailable or the input is empty, and it absorbs every
// failure at this boundary, including panics, by returning the input.
func (r *Refiner) Refine(ctx context.Context, turns []entities.ClassifiedTurn) (out []entities.ClassifiedTurn) {
	out = turns

	if len(turns) == 0 || r.inference == nil || !r.inference.Available() {
		return out
	}

	defer func() {
		if p := recover(); p != nil {
			if r.logger != nil {
				r.logger.Error("refinement panicked, keeping original turns", zap.Any("panic", p))
			}
			out = turns
		}
	}()

	var (
		refined []entities.ClassifiedTurn
		err     error
	)
	switch r.strategy {
	case StrategyCleanup:
		refined, err = r.cleanup(ctx, turns)
	case StrategyHolistic:
		refined, err = r.holistic(ctx, turns)
	default:
		return out
	}

	if err != nil {
		if r.logger != nil {
			r.logger.Warn("refinement rejected, keeping original turns",
				zap.String("strategy", string(r.strategy)),
				zap.Error(err),
			)
		}
		return out
	}
	return refined
}

// cleanup processes turns in fixed-size batches, correcting grammar and
// recognition errors per turn. A batch whose response cannot be split back
// into the same number of segments is left untouched; alignment is never
// guessed.
func (r *Refiner) cleanup(ctx context.Context, turns []entities.ClassifiedTurn) ([]entities.ClassifiedTurn, error) {
	out := make([]entities.ClassifiedTurn, len(turns))
	copy(out, turns)

	for start := 0; start < len(out); start += r.batchSize {
		end := start + r.batchSize
		if end > len(out) {
			end = len(out)
		}
		batch := out[start:end]

		// Empty turns are carried through untouched and never sent out.
		var idx []int
		var lines []string
		for i, t := range batch {
			if strings.TrimSpace(t.Text) != "" {
				idx = append(idx, i)
				lines = append(lines, fmt.Sprintf("%d. %s", len(idx), t.Text))
			}
		}
		if len(idx) == 0 {
			continue
		}

		prompt := fmt.Sprintf(
			"Correct grammar and speech-recognition errors in the following numbered utterances from a medical conversation. "+
				"Return exactly %d numbered lines in the same order, one corrected utterance per line, with no commentary.\n\n%s",
			len(idx), strings.Join(lines, "\n"))

		content, err := r.inference.Complete(ctx, "You are a careful transcript editor.", prompt, pkgai.CompleteOptions{
			Temperature: 0.1,
			MaxTokens:   2000,
		})
		if err != nil {
			return nil, err
		}

		corrected, ok := splitNumbered(content, len(idx))
		if !ok {
			if r.logger != nil {
				r.logger.Warn("cleanup batch response did not align, keeping batch",
					zap.Int("batch_start", start),
					zap.Int("expected", len(idx)),
				)
			}
			continue
		}

		for j, i := range idx {
			text := strings.TrimSpace(corrected[j])
			if text == "" {
				continue
			}
			// Rebuild words from the corrected text so the turn text stays
			// derivable from its words.
			words := make([]entities.Word, 0, len(batch[i].Words))
			for _, w := range strings.Fields(text) {
				words = append(words, entities.Word{Text: w})
			}
			batch[i].Words = words
			batch[i].Text = batch[i].JoinWords()
		}
	}

	return out, nil
}

// splitNumbered splits a model response back into exactly want segments.
// Returns false when the count does not match.
func splitNumbered(content string, want int) ([]string, bool) {
	var segments []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		num, rest, ok := cutNumberPrefix(line)
		if !ok || num != len(segments)+1 {
			// Unnumbered or out-of-order line: treat as continuation of the
			// previous segment when one exists, otherwise misaligned.
			if len(segments) == 0 {
				return nil, false
			}
			segments[len(segments)-1] += " " + line
			continue
		}
		segments = append(segments, rest)
	}
	if len(segments) != want {
		return nil, false
	}
	return segments, true
}

// cutNumberPrefix parses "<n>. text" or "<n>) text".
func cutNumberPrefix(line string) (int, string, bool) {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) || (line[i] != '.' && line[i] != ')') {
		return 0, "", false
	}
	num, err := strconv.Atoi(line[:i])
	if err != nil {
		return 0, "", false
	}
	return num, strings.TrimSpace(line[i+1:]), true
}

// holistic sends the entire rendered dialogue in one request and expects a
// fully reformed turn sequence with explicit role tags. Partial adoption is
// disallowed: turn identity is not preserved across a holistic rewrite, so
// any parse failure discards the whole refinement.
func (r *Refiner) holistic(ctx context.Context, turns []entities.ClassifiedTurn) ([]entities.ClassifiedTurn, error) {
	var rendered []string
	for _, t := range turns {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		rendered = append(rendered, fmt.Sprintf("[%s] %s", t.DisplayName, t.Text))
	}
	if len(rendered) == 0 {
		return turns, nil
	}

	prompt := fmt.Sprintf(
		"Rewrite the following medical conversation so each line is a coherent, grammatical utterance. "+
			"Merge fragments and fix mis-attributed sentences where obvious. "+
			"Return ONLY dialogue lines in the form \"[Doctor] text\", \"[Patient] text\", \"[Nurse] text\" or \"[Other] text\".\n\n%s",
		strings.Join(rendered, "\n"))

	content, err := r.inference.Complete(ctx, "You are a careful transcript editor.", prompt, pkgai.CompleteOptions{
		Temperature: 0.1,
		MaxTokens:   4000,
	})
	if err != nil {
		return nil, err
	}

	refined, err := parseDialogue(content)
	if err != nil {
		return nil, err
	}
	return refined, nil
}

// roleTags maps recognized display-name tags back to roles.
var roleTags = map[string]entities.Role{
	"doctor":  entities.RoleDoctor,
	"patient": entities.RolePatient,
	"nurse":   entities.RoleNurse,
	"other":   entities.RoleOther,
}

// parseDialogue parses holistic output line by line. Each accepted line must
// begin with a recognized role tag, carry non-empty trailing text, and end
// with terminal punctuation or contain internal whitespace; any violation
// rejects the entire refinement.
func parseDialogue(content string) ([]entities.ClassifiedTurn, error) {
	var turns []entities.ClassifiedTurn
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		role, text, err := parseDialogueLine(line)
		if err != nil {
			return nil, err
		}

		turn := entities.Turn{Speaker: entities.RoleDisplayNames[role]}
		for _, w := range strings.Fields(text) {
			turn.Words = append(turn.Words, entities.Word{Text: w})
		}
		turn.Text = turn.JoinWords()
		turns = append(turns, entities.NewClassifiedTurn(turn, role))
	}
	if len(turns) == 0 {
		return nil, fmt.Errorf("holistic output contained no dialogue lines")
	}
	return turns, nil
}

// parseDialogueLine applies the explicit line grammar: "[Tag] text".
func parseDialogueLine(line string) (entities.Role, string, error) {
	if !strings.HasPrefix(line, "[") {
		return "", "", fmt.Errorf("line does not start with a role tag: %q", line)
	}
	end := strings.Index(line, "]")
	if end < 0 {
		return "", "", fmt.Errorf("unterminated role tag: %q", line)
	}

	tag := strings.ToLower(strings.TrimSpace(line[1:end]))
	role, ok := roleTags[tag]
	if !ok {
		return "", "", fmt.Errorf("unrecognized role tag %q", line[1:end])
	}

	text := strings.TrimSpace(line[end+1:])
	if text == "" {
		return "", "", fmt.Errorf("role tag with no text: %q", line)
	}
	if !endsWithTerminalPunct(text) && !strings.ContainsRune(text, ' ') {
		return "", "", fmt.Errorf("malformed dialogue line: %q", line)
	}
	return role, text, nil
}

func endsWithTerminalPunct(text string) bool {
	runes := []rune(text)
	last := runes[len(runes)-1]
	return last == '.' || last == '!' || last == '?'
}
