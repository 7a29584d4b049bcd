package entities

// TokenKind distinguishes spoken words from attached punctuation in the
// transcript item stream.
type TokenKind string

const (
	TokenKindPronunciation TokenKind = "pronunciation"
	TokenKindPunctuation   TokenKind = "punctuation"
)

// TranscriptToken is a single item from the recognition payload. Pronunciation
// tokens carry a start time and usually a confidence score; punctuation tokens
// carry neither and attach to the preceding word.
type TranscriptToken struct {
	Kind       TokenKind
	Text       string
	StartTime  string   // raw timestamp as emitted by the recognizer, "" when absent
	Confidence *float64 // nil when the recognizer did not score the token
}

// DiarizationSegment labels a set of item start times with an anonymous
// speaker identifier. Segments correlate to tokens only by timestamp equality.
type DiarizationSegment struct {
	SpeakerLabel   string
	ItemStartTimes []string
}
