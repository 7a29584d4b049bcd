package summary

import (
	"strings"
)

// QA is one question/answer pair inside a section.
type QA struct {
	Question string
	Answer   string
}

// Section is one named block of structured clinical input.
type Section struct {
	Name  string
	Pairs []QA
}

// lineKind classifies one input line for the sectioner.
type lineKind int

const (
	lineBlank lineKind = iota
	lineSectionHeader
	lineQA
	lineContinuation
)

// sectionerState names the parser states. Continuation lines are only legal
// once a section has at least one answered question.
type sectionerState int

const (
	stateExpectSectionHeader sectionerState = iota
	stateExpectQALine
	stateContinuation
)

// ParseSections parses structured clinical Q&A text into ordered sections.
// The grammar is explicit: a section header opens a section, "question:
// answer" lines attach pairs, and bare lines continue the previous answer.
// Anything before the first header is ignored.
func ParseSections(input string) []Section {
	var (
		sections []Section
		current  *Section
		state    = stateExpectSectionHeader
	)

	for _, raw := range strings.Split(input, "\n") {
		line := strings.TrimSpace(raw)

		switch kind, q, a := classifyLine(line); kind {
		case lineBlank:
			continue
		case lineSectionHeader:
			if current != nil && len(current.Pairs) > 0 {
				sections = append(sections, *current)
			}
			current = &Section{Name: line}
			state = stateExpectQALine
		case lineQA:
			if state == stateExpectSectionHeader || current == nil {
				continue
			}
			current.Pairs = append(current.Pairs, QA{Question: q, Answer: a})
			state = stateContinuation
		case lineContinuation:
			if state != stateContinuation || len(current.Pairs) == 0 {
				continue
			}
			last := &current.Pairs[len(current.Pairs)-1]
			last.Answer += " " + line
		}
	}

	if current != nil && len(current.Pairs) > 0 {
		sections = append(sections, *current)
	}
	return sections
}

// classifyLine tokenizes one line. For lineQA it also returns the split
// question and answer.
func classifyLine(line string) (lineKind, string, string) {
	if line == "" {
		return lineBlank, "", ""
	}
	if isSectionHeader(line) {
		return lineSectionHeader, "", ""
	}
	if q, a, ok := splitQA(line); ok {
		return lineQA, q, a
	}
	return lineContinuation, "", ""
}

// isSectionHeader recognizes numbered headings ("3. Social History") and
// history/HPI headings carrying a colon.
func isSectionHeader(line string) bool {
	if i := numberedPrefixLen(line); i > 0 {
		return true
	}
	lower := strings.ToLower(line)
	if (strings.Contains(lower, "history") || strings.Contains(lower, "hpi")) && strings.Contains(line, ":") {
		return true
	}
	return false
}

// numberedPrefixLen returns the length of a "<digits>. " prefix, 0 if absent.
func numberedPrefixLen(line string) int {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(line) || line[i] != '.' || line[i+1] != ' ' {
		return 0
	}
	return i + 2
}

// splitQA splits "question: answer" on the first colon; both halves must be
// non-empty.
func splitQA(line string) (string, string, bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	q := strings.TrimSpace(line[:idx])
	a := strings.TrimSpace(line[idx+1:])
	if q == "" || a == "" {
		return "", "", false
	}
	return q, a, true
}

// BuildContext renders parsed sections into the prompt context block.
func BuildContext(sections []Section) string {
	if len(sections) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("MEDICAL CASE DATA:\n\n")
	for _, s := range sections {
		b.WriteString("=== " + strings.ToUpper(s.Name) + " ===\n")
		for _, p := range s.Pairs {
			b.WriteString("• " + p.Question + ": " + p.Answer + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
