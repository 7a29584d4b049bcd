package transcription

import (
	"fmt"
	"strings"

	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

// Reconstructor merges the flat token stream with diarization segments into
// ordered conversational turns and computes the document confidence.
type Reconstructor struct{}

// NewReconstructor constructs a Reconstructor.
func NewReconstructor() *Reconstructor {
	return &Reconstructor{}
}

// Reconstruct walks tokens in original order and groups them into turns.
// Diarization segments correlate to tokens only by start-time equality; a
// token whose timestamp resolves to no segment inherits the open turn's
// speaker, so diarization gaps never start a new turn.
//
// The returned confidence is the mean over confidence-bearing pronunciation
// tokens only; it is exactly 1.0 when no scored tokens exist.
func (r *Reconstructor) Reconstruct(tokens []entities.TranscriptToken, segments []entities.DiarizationSegment) ([]entities.Turn, float64) {
	confidence := documentConfidence(tokens)

	if len(segments) == 0 {
		// No diarization: degrade to a single synthetic-speaker turn holding
		// the whole token sequence.
		turn := buildSingleTurn(tokens)
		if len(turn.Words) == 0 {
			return nil, confidence
		}
		return []entities.Turn{turn}, confidence
	}

	speakerAt := make(map[string]string)
	for _, seg := range segments {
		for _, start := range seg.ItemStartTimes {
			speakerAt[start] = seg.SpeakerLabel
		}
	}

	// Display labels are numbered by first appearance in the token stream,
	// not by segment order.
	displayIndex := make(map[string]int)
	displayName := func(label string) string {
		if label == "" {
			return ""
		}
		if _, ok := displayIndex[label]; !ok {
			displayIndex[label] = len(displayIndex) + 1
		}
		return fmt.Sprintf("Speaker %d", displayIndex[label])
	}

	var (
		turns          []entities.Turn
		currentSpeaker string
		currentWords   []entities.Word
	)

	flush := func() {
		if len(currentWords) == 0 {
			return
		}
		turn := entities.Turn{Speaker: currentSpeaker, Words: currentWords}
		turn.Text = turn.JoinWords()
		turns = append(turns, turn)
		currentWords = nil
	}

	for _, tok := range tokens {
		switch tok.Kind {
		case entities.TokenKindPronunciation:
			speaker := displayName(speakerAt[tok.StartTime])
			if speaker == "" {
				speaker = currentSpeaker
			}
			if speaker == "" {
				speaker = "Speaker 1"
			}
			if speaker != currentSpeaker {
				flush()
				currentSpeaker = speaker
			}
			currentWords = append(currentWords, entities.Word{Text: tok.Text, StartTime: tok.StartTime})
		case entities.TokenKindPunctuation:
			if len(currentWords) > 0 {
				currentWords[len(currentWords)-1].Text += tok.Text
			} else {
				// Punctuation before any word: keep it as a standalone token
				// in a leading turn with no speaker. The renderer drops such
				// turns; the reconstructor preserves raw structure.
				currentWords = append(currentWords, entities.Word{Text: tok.Text})
			}
		}
	}
	flush()

	return turns, confidence
}

// BuildResult assembles the transcript result for one completed job. A
// payload can carry transcript text without any token stream; when
// reconstruction yields no turns and such text exists, it becomes a single
// synthetic-speaker turn so the dialogue is never silently dropped.
func (r *Reconstructor) BuildResult(job entities.TranscriptionJob, tokens []entities.TranscriptToken, segments []entities.DiarizationSegment, transcript string) entities.TranscriptResult {
	turns, confidence := r.Reconstruct(tokens, segments)
	if len(turns) == 0 {
		if text := strings.TrimSpace(transcript); text != "" {
			turn := entities.Turn{Speaker: "Speaker 1"}
			for _, w := range strings.Fields(text) {
				turn.Words = append(turn.Words, entities.Word{Text: w})
			}
			turn.Text = turn.JoinWords()
			turns = []entities.Turn{turn}
		}
	}
	return entities.TranscriptResult{
		Job:                job,
		DocumentConfidence: confidence,
		Turns:              turns,
	}
}

// buildSingleTurn renders the whole stream as one turn, fusing punctuation
// onto the preceding word exactly as in the diarized path.
func buildSingleTurn(tokens []entities.TranscriptToken) entities.Turn {
	var words []entities.Word
	for _, tok := range tokens {
		switch tok.Kind {
		case entities.TokenKindPronunciation:
			words = append(words, entities.Word{Text: tok.Text, StartTime: tok.StartTime})
		case entities.TokenKindPunctuation:
			if len(words) > 0 {
				words[len(words)-1].Text += tok.Text
			} else {
				words = append(words, entities.Word{Text: tok.Text})
			}
		}
	}
	turn := entities.Turn{Speaker: "Speaker 1", Words: words}
	turn.Text = turn.JoinWords()
	return turn
}

func documentConfidence(tokens []entities.TranscriptToken) float64 {
	var sum float64
	var n int
	for _, tok := range tokens {
		if tok.Kind == entities.TokenKindPronunciation && tok.Confidence != nil {
			sum += *tok.Confidence
			n++
		}
	}
	if n == 0 {
		return 1.0
	}
	return sum / float64(n)
}
