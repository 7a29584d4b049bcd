package entities

import "strings"

// Role is the clinical role assigned to a speaker.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
	RoleNurse   Role = "nurse"
	RoleOther   Role = "other"
)

// RoleDisplayNames maps each role to its rendered display name.
var RoleDisplayNames = map[Role]string{
	RoleDoctor:  "Doctor",
	RolePatient: "Patient",
	RoleNurse:   "Nurse",
	RoleOther:   "Other",
}

// ParseRole normalizes a raw role string, coercing anything outside the fixed
// set to RoleOther.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleDoctor:
		return RoleDoctor
	case RolePatient:
		return RolePatient
	case RoleNurse:
		return RoleNurse
	default:
		return RoleOther
	}
}

// Word is one rendered word inside a turn. Punctuation is fused onto the
// preceding word's text, never stored as a separate word.
type Word struct {
	Text      string `json:"text"`
	StartTime string `json:"start_time,omitempty"`
}

// Turn is one uninterrupted span of speech attributed to a single speaker.
// Text is always derivable from Words and never authoritative on its own.
type Turn struct {
	Speaker string `json:"speaker"`
	Words   []Word `json:"words"`
	Text    string `json:"text"`
}

// JoinWords re-renders the turn text from its words.
func (t Turn) JoinWords() string {
	parts := make([]string, 0, len(t.Words))
	for _, w := range t.Words {
		if w.Text != "" {
			parts = append(parts, w.Text)
		}
	}
	return strings.Join(parts, " ")
}

// RoleMapping maps a speaker label to its assigned clinical role.
type RoleMapping map[string]Role

// ClassifiedTurn is a turn enriched with the speaker's role and display name.
type ClassifiedTurn struct {
	Turn
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
}

// NewClassifiedTurn builds a classified turn, deriving the display name from
// the fixed role enumeration.
func NewClassifiedTurn(t Turn, role Role) ClassifiedTurn {
	return ClassifiedTurn{
		Turn:        t,
		Role:        role,
		DisplayName: RoleDisplayNames[role],
	}
}
