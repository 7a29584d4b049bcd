package roles

import (
	"strings"

	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

// Keyword sets for the content-based overrides. Matching runs over the
// lower-cased concatenation of a speaker's utterances.
var (
	patientKeywords = []string{
		"i'm feeling", "i feel", "my ", "dizzy", "fever", "since ", "for the past",
	}
	doctorKeywords = []string{
		"i'll check", "we'll run", "let me examine", "bp", "tests", "rule out",
	}
)

// HeuristicMapping is the deterministic, non-inference role assignment used
// when primary classification is unavailable or degenerate. The first speaker
// encountered defaults to doctor and the second to patient; keyword scans
// then override per speaker. The doctor scan runs after the patient scan and
// can override it.
func HeuristicMapping(turns []entities.Turn) entities.RoleMapping {
	speakers := speakersInOrder(turns)

	mapping := make(entities.RoleMapping, len(speakers))
	for i, spk := range speakers {
		switch i {
		case 0:
			mapping[spk] = entities.RoleDoctor
		case 1:
			mapping[spk] = entities.RolePatient
		default:
			mapping[spk] = entities.RoleOther
		}
	}

	joined := make(map[string]string, len(speakers))
	for _, t := range turns {
		joined[t.Speaker] += " " + strings.ToLower(t.Text)
	}

	for _, spk := range speakers {
		text := joined[spk]
		if containsAny(text, patientKeywords) {
			mapping[spk] = entities.RolePatient
		}
		if containsAny(text, doctorKeywords) {
			mapping[spk] = entities.RoleDoctor
		}
	}

	return mapping
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
