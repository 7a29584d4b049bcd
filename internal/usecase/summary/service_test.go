package summary

import (
	"context"
	stdErrors "errors"
	"strings"
	"testing"

	"github.com/medscribe-team/clinical-scribe/errors"
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

func TestSummarizeTranscript(t *testing.T) {
	inf := &fakeInference{available: true, content: "Patient reports three days of dizziness."}
	s := NewService(inf, nil)

	out, err := s.SummarizeTranscript(context.Background(), "[Doctor] What brings you in?\n[Patient] Dizziness.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Patient reports three days of dizziness." {
		t.Fatalf("unexpected summary %q", out)
	}
	if len(inf.prompts) != 1 || !strings.Contains(inf.prompts[0], "=== HPI / TRANSCRIPT ===") {
		t.Fatalf("transcript was not wrapped in the case-context banner: %q", inf.prompts)
	}
}

func TestSummarizeStructured(t *testing.T) {
	inf := &fakeInference{available: true, content: "Summary."}
	s := NewService(inf, nil)

	out, err := s.SummarizeStructured(context.Background(), "1. Chief Complaint\nOnset: Monday")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Summary." {
		t.Fatalf("unexpected summary %q", out)
	}
	if !strings.Contains(inf.prompts[0], "=== 1. CHIEF COMPLAINT ===") {
		t.Fatalf("structured context missing: %q", inf.prompts[0])
	}
}

func TestSummarizeStructured_Unparsable(t *testing.T) {
	s := NewService(&fakeInference{available: true}, nil)

	_, err := s.SummarizeStructured(context.Background(), "free prose with no sections")
	var appErr errors.AppError
	if !stdErrors.As(err, &appErr) || appErr.Code != errors.ErrorCode_INVALID_ARGUMENT {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestSummarize_Unconfigured(t *testing.T) {
	s := NewService(&fakeInference{available: false}, nil)
	if _, err := s.SummarizeTranscript(context.Background(), "text"); err == nil {
		t.Fatalf("expected error with unavailable inference")
	}
}

func TestCleanPlainText(t *testing.T) {
	in := "## Summary\n**Patient** presented with *mild* dizziness."
	got := CleanPlainText(in)
	want := "Summary\nPatient presented with mild dizziness."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
