package entities

// TranscriptResult bundles the reconstructed turns of one completed job with
// the document-level confidence score.
//
// DocumentConfidence is the arithmetic mean of per-word recognition confidence
// values; it is exactly 1.0 when no scored words exist.
type TranscriptResult struct {
	Job                TranscriptionJob
	DocumentConfidence float64
	Turns              []Turn
}

// PipelineResult is the final artifact of one pipeline run.
type PipelineResult struct {
	RunName            string           `json:"run_name"`
	JobName            string           `json:"job_name"`
	Service            ServiceKind      `json:"service"`
	DocumentConfidence float64          `json:"document_confidence"`
	Turns              []ClassifiedTurn `json:"turns"`
	ArtifactKey        string           `json:"artifact_key"`
	DownloadURL        string           `json:"download_url"`
	Summary            string           `json:"summary"`
}
