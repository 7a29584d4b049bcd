package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/medscribe-team/clinical-scribe/pkg/config"
)

// Client is a minimal HTTP client for the speech recognition service.
// Standard and medical (specialty-aware) jobs live under separate endpoints.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a transcription client using the provided config.
// If cfg is nil, falls back to environment variables.
func NewClient(cfg *config.TranscribeConfig) *Client {
	var apiKey, base string
	if cfg != nil {
		apiKey = cfg.APIKey
		base = cfg.BaseURL
	}
	if apiKey == "" {
		apiKey = os.Getenv("TRANSCRIBE_API_KEY")
	}
	if base == "" {
		base = os.Getenv("TRANSCRIBE_BASE_URL")
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: base,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// JobOptions select the recognition behavior for one job.
type JobOptions struct {
	Medical               bool
	Specialty             string
	Language              string
	ChannelIdentification bool
	MaxSpeakers           int
	OutputKey             string
}

// jobSettings is the wire shape of the diarization settings block.
type jobSettings struct {
	ShowSpeakerLabels     bool `json:"show_speaker_labels"`
	ChannelIdentification bool `json:"channel_identification"`
	MaxSpeakerLabels      int  `json:"max_speaker_labels"`
}

// startJobRequest is the payload for job submission.
type startJobRequest struct {
	JobName          string      `json:"job_name"`
	MediaFileURI     string      `json:"media_file_uri"`
	LanguageCode     string      `json:"language_code,omitempty"`
	IdentifyLanguage bool        `json:"identify_language,omitempty"`
	Settings         jobSettings `json:"settings"`
	Specialty        string      `json:"specialty,omitempty"`
	Type             string      `json:"type,omitempty"`
	OutputKey        string      `json:"output_key,omitempty"`
}

// JobState is the service's view of a job, as returned by status polls.
type JobState struct {
	JobName       string `json:"job_name"`
	Status        string `json:"status"` // QUEUED | IN_PROGRESS | COMPLETED | FAILED
	FailureReason string `json:"failure_reason,omitempty"`
	ResultKey     string `json:"result_key,omitempty"`
}

// medicalSpecialties maps configured specialty names to service identifiers.
var medicalSpecialties = map[string]string{
	"primarycare": "PRIMARYCARE",
	"cardiology":  "CARDIOLOGY",
	"neurology":   "NEUROLOGY",
	"oncology":    "ONCOLOGY",
	"radiology":   "RADIOLOGY",
	"urology":     "UROLOGY",
}

// Specialty resolves a configured specialty name, defaulting to primary care.
func Specialty(name string) string {
	if s, ok := medicalSpecialties[name]; ok {
		return s
	}
	return "PRIMARYCARE"
}

// StartJob submits a recognition job for the given media locator. The medical
// variant carries the clinical specialty and conversation type.
func (c *Client) StartJob(ctx context.Context, jobName, mediaURI string, opts JobOptions) error {
	maxSpeakers := opts.MaxSpeakers
	if maxSpeakers < 2 {
		maxSpeakers = 2
	}

	payload := startJobRequest{
		JobName:      jobName,
		MediaFileURI: mediaURI,
		Settings: jobSettings{
			ShowSpeakerLabels:     !opts.ChannelIdentification,
			ChannelIdentification: opts.ChannelIdentification,
			MaxSpeakerLabels:      maxSpeakers,
		},
	}

	endpoint := c.baseURL + "/v1/jobs"
	if opts.Medical {
		endpoint = c.baseURL + "/v1/medical/jobs"
		payload.LanguageCode = "en-US"
		payload.Specialty = Specialty(opts.Specialty)
		payload.Type = "CONVERSATION"
		payload.OutputKey = opts.OutputKey
	} else if opts.Language != "" && opts.Language != "auto" {
		payload.LanguageCode = opts.Language
	} else {
		payload.IdentifyLanguage = true
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("transcription service returned status %d", resp.StatusCode)
	}
	return nil
}

// GetJob fetches the current state of a previously submitted job.
func (c *Client) GetJob(ctx context.Context, jobName string, medical bool) (JobState, error) {
	endpoint := c.baseURL + "/v1/jobs/" + jobName
	if medical {
		endpoint = c.baseURL + "/v1/medical/jobs/" + jobName
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return JobState{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return JobState{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return JobState{}, fmt.Errorf("transcription service returned status %d", resp.StatusCode)
	}

	var state JobState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return JobState{}, err
	}
	return state, nil
}
