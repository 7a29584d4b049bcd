package dto

// SummarizeRequest asks for a clinical summary of free-form case notes. When
// Structured is set the text is parsed as numbered sections of question/answer
// lines before summarization.
type SummarizeRequest struct {
	CaseText   string `json:"case_text" validate:"required,min=1"`
	Structured bool   `json:"structured"`
}

// SummarizeResponse carries the generated summary.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}
