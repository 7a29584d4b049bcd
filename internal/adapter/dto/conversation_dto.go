package dto

import (
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

// TurnDTO is one classified dialogue turn in an API response.
type TurnDTO struct {
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
	Speaker     string `json:"speaker"`
	Text        string `json:"text"`
}

// ConversationResponse represents one completed transcription run.
type ConversationResponse struct {
	RunName            string    `json:"run_name"`
	JobName            string    `json:"job_name"`
	Service            string    `json:"service"`
	DocumentConfidence float64   `json:"document_confidence"`
	Turns              []TurnDTO `json:"turns"`
	ArtifactKey        string    `json:"artifact_key"`
	DownloadURL        string    `json:"download_url"`
	Summary            string    `json:"summary,omitempty"`
}

// TranscriptResponse carries the rendered transcript artifact of a run.
type TranscriptResponse struct {
	RunName     string `json:"run_name"`
	ArtifactKey string `json:"artifact_key"`
	Content     string `json:"content"`
}

// RunSummaryResponse is one persisted run in a listing.
type RunSummaryResponse struct {
	RunName            string  `json:"run_name"`
	JobName            string  `json:"job_name"`
	Service            string  `json:"service"`
	DocumentConfidence float64 `json:"document_confidence"`
	ArtifactKey        string  `json:"artifact_key"`
	CreatedAt          string  `json:"created_at"`
}

// NewConversationResponse maps a pipeline result onto the API shape.
func NewConversationResponse(result *entities.PipelineResult) ConversationResponse {
	turns := make([]TurnDTO, 0, len(result.Turns))
	for _, t := range result.Turns {
		turns = append(turns, TurnDTO{
			Role:        string(t.Role),
			DisplayName: t.DisplayName,
			Speaker:     t.Speaker,
			Text:        t.Text,
		})
	}
	return ConversationResponse{
		RunName:            result.RunName,
		JobName:            result.JobName,
		Service:            string(result.Service),
		DocumentConfidence: result.DocumentConfidence,
		Turns:              turns,
		ArtifactKey:        result.ArtifactKey,
		DownloadURL:        result.DownloadURL,
		Summary:            result.Summary,
	}
}
