package pipeline

import (
	"fmt"
	"strings"

	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

// RenderTranscript renders classified turns as plain text, one line per turn
// in the form "[<DisplayName>] <text>". Turns with no speaker or no text,
// like the leading punctuation-only turn the reconstructor preserves, are
// dropped here, at the rendering boundary.
func RenderTranscript(turns []entities.ClassifiedTurn, confidence float64, withHeader bool) string {
	var lines []string
	for _, t := range turns {
		if t.Speaker == "" || strings.TrimSpace(t.Text) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", t.DisplayName, t.Text))
	}

	body := strings.Join(lines, "\n")
	if withHeader {
		return fmt.Sprintf("Document confidence: %.4f (%.1f%%)\n\n%s", confidence, confidence*100, body)
	}
	return body
}
