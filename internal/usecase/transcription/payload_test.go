package transcription

import (
	stdErrors "errors"
	"testing"

	"github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

const samplePayload = `{
	"results": {
		"transcripts": [{"transcript": "Hello there. Hi."}],
		"items": [
			{"type": "pronunciation", "start_time": "0.0", "alternatives": [{"content": "Hello", "confidence": "0.91"}]},
			{"type": "pronunciation", "start_time": "0.5", "alternatives": [{"content": "there", "confidence": "0.88"}]},
			{"type": "punctuation", "alternatives": [{"content": "."}]},
			{"type": "pronunciation", "start_time": "1.2", "alternatives": [{"content": "Hi", "confidence": "bogus"}]}
		],
		"speaker_labels": {
			"segments": [
				{"speaker_label": "spk_0", "items": [{"start_time": "0.0"}, {"start_time": "0.5"}]},
				{"speaker_label": "spk_1", "items": [{"start_time": "1.2"}]}
			]
		}
	}
}`

func TestDecodePayload(t *testing.T) {
	tokens, segments, transcript, err := DecodePayload([]byte(samplePayload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transcript != "Hello there. Hi." {
		t.Fatalf("unexpected transcript %q", transcript)
	}

	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(tokens))
	}
	if tokens[0].Kind != entities.TokenKindPronunciation || tokens[0].Text != "Hello" {
		t.Fatalf("unexpected first token: %+v", tokens[0])
	}
	if tokens[0].Confidence == nil || *tokens[0].Confidence != 0.91 {
		t.Fatalf("expected confidence 0.91, got %v", tokens[0].Confidence)
	}
	if tokens[2].Kind != entities.TokenKindPunctuation || tokens[2].Text != "." {
		t.Fatalf("unexpected punctuation token: %+v", tokens[2])
	}
	// Unparsable confidence is unscored, not zero.
	if tokens[3].Confidence != nil {
		t.Fatalf("expected unscored token, got confidence %v", *tokens[3].Confidence)
	}

	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].SpeakerLabel != "spk_0" || len(segments[0].ItemStartTimes) != 2 {
		t.Fatalf("unexpected first segment: %+v", segments[0])
	}
}

func TestDecodePayload_Malformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"invalid json", `{not json`},
		{"no results", `{}`},
		{"empty results", `{"results": {}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := DecodePayload([]byte(tc.data))
			if err == nil {
				t.Fatalf("expected error")
			}
			var appErr errors.AppError
			if !stdErrors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %T", err)
			}
			if appErr.Code != errors.ErrorCode_MALFORMED_TRANSCRIPT {
				t.Fatalf("expected MALFORMED_TRANSCRIPT, got %s", appErr.Code)
			}
		})
	}
}

func TestDecodePayload_TranscriptsOnlyIsAccepted(t *testing.T) {
	data := `{"results": {"transcripts": [{"transcript": "Hello."}]}}`
	tokens, segments, transcript, err := DecodePayload([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 0 || len(segments) != 0 {
		t.Fatalf("expected empty streams, got %d tokens / %d segments", len(tokens), len(segments))
	}
	if transcript != "Hello." {
		t.Fatalf("unexpected transcript %q", transcript)
	}
}
