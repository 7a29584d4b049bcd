package summary

import (
	"strings"
	"testing"
)

const structuredInput = `
Patient intake, ignore this preamble: yes

1. Chief Complaint
What brings you in: Dizziness and fever
Duration: Three days
it started after a long flight

2. Medications
Current medications: None

Past Medical History:
Hypertension: Diagnosed 2019
`

func TestParseSections(t *testing.T) {
	sections := ParseSections(structuredInput)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(sections), sections)
	}

	first := sections[0]
	if first.Name != "1. Chief Complaint" {
		t.Fatalf("unexpected section name %q", first.Name)
	}
	if len(first.Pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(first.Pairs))
	}
	if first.Pairs[0].Question != "What brings you in" || first.Pairs[0].Answer != "Dizziness and fever" {
		t.Fatalf("unexpected first pair: %+v", first.Pairs[0])
	}
	// Bare line continues the previous answer.
	if first.Pairs[1].Answer != "Three days it started after a long flight" {
		t.Fatalf("continuation not applied: %q", first.Pairs[1].Answer)
	}

	if sections[2].Name != "Past Medical History:" {
		t.Fatalf("history heading not recognized: %q", sections[2].Name)
	}
}

func TestParseSections_IgnoresContentBeforeFirstHeader(t *testing.T) {
	sections := ParseSections("stray: line\nanother stray\n1. Section\nq: a")
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if len(sections[0].Pairs) != 1 || sections[0].Pairs[0].Question != "q" {
		t.Fatalf("unexpected pairs: %+v", sections[0].Pairs)
	}
}

func TestParseSections_EmptySectionsDropped(t *testing.T) {
	sections := ParseSections("1. Empty Section\n2. Filled\nq: a")
	if len(sections) != 1 {
		t.Fatalf("sections with no pairs must be dropped, got %+v", sections)
	}
	if sections[0].Name != "2. Filled" {
		t.Fatalf("unexpected section %q", sections[0].Name)
	}
}

func TestParseSections_NoSections(t *testing.T) {
	if got := ParseSections("just some prose\nwith no structure"); len(got) != 0 {
		t.Fatalf("expected no sections, got %+v", got)
	}
}

func TestIsSectionHeader(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"3. Social History", true},
		{"12. Review of Systems", true},
		{"Past Medical History: details", true},
		{"HPI: onset yesterday", true},
		{"3.Missing space", false},
		{"Duration: Three days", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isSectionHeader(tc.line); got != tc.want {
			t.Fatalf("isSectionHeader(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
}

func TestSplitQA(t *testing.T) {
	q, a, ok := splitQA("Allergy history: penicillin: rash")
	if !ok || q != "Allergy history" || a != "penicillin: rash" {
		t.Fatalf("split on first colon failed: %q / %q / %v", q, a, ok)
	}

	if _, _, ok := splitQA("no colon here"); ok {
		t.Fatalf("expected failure without colon")
	}
	if _, _, ok := splitQA("empty answer:   "); ok {
		t.Fatalf("expected failure on empty answer")
	}
	if _, _, ok := splitQA(": empty question"); ok {
		t.Fatalf("expected failure on empty question")
	}
}

func TestBuildContext(t *testing.T) {
	sections := []Section{
		{Name: "1. Chief Complaint", Pairs: []QA{{Question: "Onset", Answer: "Monday"}}},
	}
	got := BuildContext(sections)

	if !strings.HasPrefix(got, "MEDICAL CASE DATA:\n\n") {
		t.Fatalf("missing preamble: %q", got)
	}
	if !strings.Contains(got, "=== 1. CHIEF COMPLAINT ===") {
		t.Fatalf("missing uppercased section banner: %q", got)
	}
	if !strings.Contains(got, "• Onset: Monday") {
		t.Fatalf("missing bullet: %q", got)
	}

	if BuildContext(nil) != "" {
		t.Fatalf("expected empty context for no sections")
	}
}
