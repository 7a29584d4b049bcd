package transcription

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

// Raw transcript payload shapes, as produced by the recognition service.

type rawPayload struct {
	Results *rawResults `json:"results"`
}

type rawResults struct {
	Transcripts   []rawTranscript   `json:"transcripts"`
	Items         []rawItem         `json:"items"`
	SpeakerLabels *rawSpeakerLabels `json:"speaker_labels"`
}

type rawTranscript struct {
	Transcript string `json:"transcript"`
}

type rawItem struct {
	Type         string           `json:"type"`
	StartTime    string           `json:"start_time"`
	Alternatives []rawAlternative `json:"alternatives"`
}

type rawAlternative struct {
	Content    string `json:"content"`
	Confidence string `json:"confidence"`
}

type rawSpeakerLabels struct {
	Segments []rawSegment `json:"segments"`
}

type rawSegment struct {
	SpeakerLabel string           `json:"speaker_label"`
	Items        []rawSegmentItem `json:"items"`
}

type rawSegmentItem struct {
	StartTime string `json:"start_time"`
}

// DecodePayload parses a transcript payload into the token stream and
// diarization segments the reconstructor consumes, plus the full transcript
// text, which is the only dialogue source when the payload carries no items.
// A payload missing the expected structure yields a MALFORMED_TRANSCRIPT
// error.
func DecodePayload(data []byte) ([]entities.TranscriptToken, []entities.DiarizationSegment, string, error) {
	var payload rawPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, nil, "", errors.ErrMalformedTranscript(err)
	}
	if payload.Results == nil {
		return nil, nil, "", errors.ErrMalformedTranscript(fmt.Errorf("payload has no results object"))
	}
	if len(payload.Results.Items) == 0 && len(payload.Results.Transcripts) == 0 {
		return nil, nil, "", errors.ErrMalformedTranscript(fmt.Errorf("payload has neither items nor transcripts"))
	}

	var transcript string
	if len(payload.Results.Transcripts) > 0 {
		transcript = payload.Results.Transcripts[0].Transcript
	}

	tokens := make([]entities.TranscriptToken, 0, len(payload.Results.Items))
	for _, it := range payload.Results.Items {
		if len(it.Alternatives) == 0 {
			continue
		}
		alt := it.Alternatives[0]

		switch it.Type {
		case "pronunciation":
			tok := entities.TranscriptToken{
				Kind:      entities.TokenKindPronunciation,
				Text:      alt.Content,
				StartTime: it.StartTime,
			}
			// Unparsable confidence values are treated as unscored, not zero.
			if alt.Confidence != "" {
				if c, err := strconv.ParseFloat(alt.Confidence, 64); err == nil {
					tok.Confidence = &c
				}
			}
			tokens = append(tokens, tok)
		case "punctuation":
			tokens = append(tokens, entities.TranscriptToken{
				Kind: entities.TokenKindPunctuation,
				Text: alt.Content,
			})
		}
	}

	var segments []entities.DiarizationSegment
	if payload.Results.SpeakerLabels != nil {
		segments = make([]entities.DiarizationSegment, 0, len(payload.Results.SpeakerLabels.Segments))
		for _, seg := range payload.Results.SpeakerLabels.Segments {
			starts := make([]string, 0, len(seg.Items))
			for _, item := range seg.Items {
				if item.StartTime != "" {
					starts = append(starts, item.StartTime)
				}
			}
			segments = append(segments, entities.DiarizationSegment{
				SpeakerLabel:   seg.SpeakerLabel,
				ItemStartTimes: starts,
			})
		}
	}

	return tokens, segments, transcript, nil
}
