package refine

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	pkgai "github.com/medscribe-team/clinical-scribe/pkg/ai"
)

type fakeInference struct {
	available bool
	content   string
	err       error
	prompts   []string
}

func (f *fakeInference) Available() bool { return f.available }

func (f *fakeInference) Complete(ctx context.Context, systemPrompt, userPrompt string, opts pkgai.CompleteOptions) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	return f.content, f.err
}

func classified(role entities.Role, text string) entities.ClassifiedTurn {
	t := entities.Turn{Speaker: entities.RoleDisplayNames[role], Text: text}
	return entities.NewClassifiedTurn(t, role)
}

func sampleDialogue() []entities.ClassifiedTurn {
	return []entities.ClassifiedTurn{
		classified(entities.RoleDoctor, "what brings you in"),
		classified(entities.RolePatient, "i been dizzy since monday"),
	}
}

func TestRefine_UnavailableIsNoOp(t *testing.T) {
	r := NewRefiner(&fakeInference{available: false}, StrategyHolistic, 10, nil)
	in := sampleDialogue()
	out := r.Refine(context.Background(), in)
	if len(out) != len(in) || out[0].Text != in[0].Text {
		t.Fatalf("expected passthrough, got %+v", out)
	}
}

func TestRefine_EmptyInput(t *testing.T) {
	r := NewRefiner(&fakeInference{available: true}, StrategyHolistic, 10, nil)
	if out := r.Refine(context.Background(), nil); len(out) != 0 {
		t.Fatalf("expected empty output, got %d turns", len(out))
	}
}

func TestRefine_HolisticAccepted(t *testing.T) {
	inf := &fakeInference{
		available: true,
		content:   "[Doctor] What brings you in today?\n[Patient] I have been dizzy since Monday.",
	}
	r := NewRefiner(inf, StrategyHolistic, 10, nil)

	out := r.Refine(context.Background(), sampleDialogue())
	if len(out) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(out))
	}
	if out[0].Role != entities.RoleDoctor || out[0].Text != "What brings you in today?" {
		t.Fatalf("unexpected first turn: %+v", out[0])
	}
	if out[1].Role != entities.RolePatient || out[1].DisplayName != "Patient" {
		t.Fatalf("unexpected second turn: %+v", out[1])
	}
}

func TestRefine_HolisticRejectedOnUnknownTag(t *testing.T) {
	inf := &fakeInference{
		available: true,
		content:   "[Doctor] What brings you in today?\n[Unknown] I have been dizzy.",
	}
	r := NewRefiner(inf, StrategyHolistic, 10, nil)

	in := sampleDialogue()
	out := r.Refine(context.Background(), in)
	// All-or-nothing: one bad line discards the whole refinement.
	if len(out) != len(in) || out[1].Text != in[1].Text {
		t.Fatalf("expected original turns back, got %+v", out)
	}
}

func TestRefine_HolisticRejectedOnProseOutput(t *testing.T) {
	inf := &fakeInference{
		available: true,
		content:   "Here is the cleaned up conversation you asked for.",
	}
	r := NewRefiner(inf, StrategyHolistic, 10, nil)

	in := sampleDialogue()
	out := r.Refine(context.Background(), in)
	if out[0].Text != in[0].Text {
		t.Fatalf("expected original turns back, got %+v", out)
	}
}

func TestRefine_HolisticCallFailure(t *testing.T) {
	inf := &fakeInference{available: true, err: fmt.Errorf("boom")}
	r := NewRefiner(inf, StrategyHolistic, 10, nil)

	in := sampleDialogue()
	out := r.Refine(context.Background(), in)
	if len(out) != len(in) || out[0].Text != in[0].Text {
		t.Fatalf("expected original turns back, got %+v", out)
	}
}

func TestRefine_CleanupReplacesTextOnly(t *testing.T) {
	inf := &fakeInference{
		available: true,
		content:   "1. What brings you in?\n2. I have been dizzy since Monday.",
	}
	r := NewRefiner(inf, StrategyCleanup, 10, nil)

	out := r.Refine(context.Background(), sampleDialogue())
	if len(out) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(out))
	}
	if out[0].Text != "What brings you in?" {
		t.Fatalf("unexpected cleaned text %q", out[0].Text)
	}
	// Cleanup preserves identity: speaker, role and order never change.
	if out[0].Role != entities.RoleDoctor || out[1].Role != entities.RolePatient {
		t.Fatalf("cleanup changed roles: %+v", out)
	}
	// The corrected text must remain derivable from the turn's words.
	for i, turn := range out {
		if got := turn.JoinWords(); got != turn.Text {
			t.Fatalf("turn %d text %q not derivable from words, got %q", i, turn.Text, got)
		}
	}
}

func TestRefine_CleanupKeepsBatchOnCountMismatch(t *testing.T) {
	inf := &fakeInference{
		available: true,
		content:   "1. Only one line came back.",
	}
	r := NewRefiner(inf, StrategyCleanup, 10, nil)

	in := sampleDialogue()
	out := r.Refine(context.Background(), in)
	if out[0].Text != in[0].Text || out[1].Text != in[1].Text {
		t.Fatalf("misaligned batch must be kept verbatim, got %+v", out)
	}
}

func TestRefine_CleanupSkipsEmptyTurns(t *testing.T) {
	inf := &fakeInference{
		available: true,
		content:   "1. Hello there.",
	}
	r := NewRefiner(inf, StrategyCleanup, 10, nil)

	in := []entities.ClassifiedTurn{
		classified(entities.RoleOther, "   "),
		classified(entities.RoleDoctor, "hello there"),
	}
	out := r.Refine(context.Background(), in)
	if out[0].Text != "   " {
		t.Fatalf("empty turn must be carried through untouched, got %q", out[0].Text)
	}
	if out[1].Text != "Hello there." {
		t.Fatalf("unexpected cleaned text %q", out[1].Text)
	}
	if len(inf.prompts) != 1 || strings.Contains(inf.prompts[0], "2.") {
		t.Fatalf("empty turns must never be sent out: %q", inf.prompts)
	}
}

func TestSplitNumbered_ContinuationLines(t *testing.T) {
	content := "1. First segment\nthat wraps onto a second line\n2. Second segment"
	segments, ok := splitNumbered(content, 2)
	if !ok {
		t.Fatalf("expected alignment")
	}
	if segments[0] != "First segment that wraps onto a second line" {
		t.Fatalf("unexpected first segment %q", segments[0])
	}
}

func TestParseDialogueLine_Grammar(t *testing.T) {
	cases := []struct {
		line string
		ok   bool
	}{
		{"[Doctor] How are you feeling today?", true},
		{"[patient] better, thanks.", true},
		{"[Nurse] BP 120/80.", true},
		{"[Other] ok.", true},       // terminal punctuation
		{"[Other] all good", true},  // internal whitespace
		{"[Other] ok", false},       // single word, no terminal punctuation
		{"[Surgeon] Scalpel.", false},
		{"[Doctor]", false},
		{"[Doctor]    ", false},
		{"no tag here.", false},
		{"[Doctor unterminated text.", false},
	}
	for _, tc := range cases {
		_, _, err := parseDialogueLine(tc.line)
		if tc.ok && err != nil {
			t.Fatalf("expected %q to parse, got %v", tc.line, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("expected %q to be rejected", tc.line)
		}
	}
}
