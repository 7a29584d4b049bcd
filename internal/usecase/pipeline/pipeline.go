package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/roles"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/transcription"
	"github.com/medscribe-team/clinical-scribe/pkg/config"
)

// ObjectStorage is the storage collaborator used to stage media and publish
// artifacts.
type ObjectStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	UploadText(ctx context.Context, objectName, content string) error
	GetObject(ctx context.Context, objectName string) ([]byte, error)
	GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	ObjectURI(objectName string) string
}

// JobOrchestrator drives one transcription job to a terminal state.
type JobOrchestrator interface {
	Submit(ctx context.Context, mediaURI, baseName string) (entities.TranscriptionJob, error)
	AwaitCompletion(ctx context.Context, job entities.TranscriptionJob, pollInterval, timeout time.Duration) (entities.TranscriptionJob, error)
}

// RoleClassifier maps speakers to clinical roles.
type RoleClassifier interface {
	Classify(ctx context.Context, turns []entities.Turn) roles.Outcome
}

// DialogueRefiner optionally reworks the classified turns.
type DialogueRefiner interface {
	Refine(ctx context.Context, turns []entities.ClassifiedTurn) []entities.ClassifiedTurn
}

// Summarizer produces the clinical summary from the rendered transcript.
type Summarizer interface {
	SummarizeTranscript(ctx context.Context, rendered string) (string, error)
}

// RunStore persists completed run records. Optional; a nil store disables
// persistence.
type RunStore interface {
	CreateRun(ctx context.Context, record *entities.RunRecord) error
}

// Cache memoizes run artifacts. Optional; a nil cache disables memoization.
type Cache interface {
	Set(key, value string, expiration time.Duration)
	Get(key string) (string, bool)
}

// Pipeline sequences transcription, reconstruction, role classification,
// optional refinement and summarization into one request-scoped run. Stages
// execute strictly in order; the run owns all intermediate state and shares
// nothing with concurrent runs except the collision-free output namespace.
type Pipeline struct {
	storage       ObjectStorage
	orchestrator  JobOrchestrator
	reconstructor *transcription.Reconstructor
	classifier    RoleClassifier
	refiner       DialogueRefiner
	summarizer    Summarizer
	store         RunStore
	cache         Cache
	cfg           *config.Config
	logger        *zap.Logger

	// downloadWait bounds the retry window for fetching the transcript
	// result object after job completion.
	downloadWait time.Duration
}

// NewPipeline constructs the pipeline orchestrator.
func NewPipeline(
	storage ObjectStorage,
	orchestrator JobOrchestrator,
	classifier RoleClassifier,
	refiner DialogueRefiner,
	summarizer Summarizer,
	store RunStore,
	cache Cache,
	cfg *config.Config,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		storage:       storage,
		orchestrator:  orchestrator,
		reconstructor: transcription.NewReconstructor(),
		classifier:    classifier,
		refiner:       refiner,
		summarizer:    summarizer,
		store:         store,
		cache:         cache,
		cfg:           cfg,
		logger:        logger,
		downloadWait:  15 * time.Second,
	}
}

// Input is one uploaded conversation recording.
type Input struct {
	FileName    string
	Media       io.Reader
	Size        int64
	ContentType string
}

// Process runs the whole pipeline for one recording. It returns either a
// complete result or a single structured terminal error; partial results are
// never returned. Classification and refinement problems are absorbed
// internally, and a summarization failure degrades to an empty summary.
func (p *Pipeline) Process(ctx context.Context, in Input) (*entities.PipelineResult, error) {
	// Stage media for the transcription service.
	mediaKey := "input/" + filepath.Base(in.FileName)
	if err := p.storage.UploadFile(ctx, mediaKey, in.Media, in.Size, in.ContentType); err != nil {
		return nil, errors.ErrStorageFailed("upload media", err)
	}
	mediaURI := p.storage.ObjectURI(mediaKey)

	baseName := strings.TrimSuffix(filepath.Base(in.FileName), filepath.Ext(in.FileName))
	job, err := p.orchestrator.Submit(ctx, mediaURI, baseName)
	if err != nil {
		return nil, err
	}

	job, err = p.orchestrator.AwaitCompletion(ctx, job, p.cfg.Transcribe.PollInterval, p.cfg.Transcribe.JobTimeout)
	if err != nil {
		return nil, err
	}

	payload, err := p.downloadPayload(ctx, job.ResultKey)
	if err != nil {
		return nil, errors.ErrStorageFailed("download transcript", err)
	}

	tokens, segments, transcript, err := transcription.DecodePayload(payload)
	if err != nil {
		return nil, err
	}

	transcriptResult := p.reconstructor.BuildResult(job, tokens, segments, transcript)
	turns, confidence := transcriptResult.Turns, transcriptResult.DocumentConfidence

	outcome := p.classifier.Classify(ctx, turns)
	if p.logger != nil {
		p.logger.Info("roles classified",
			zap.String("job_name", job.JobName),
			zap.String("source", string(outcome.Source)),
			zap.String("fallback_reason", string(outcome.Reason)),
			zap.Int("speakers", len(outcome.Mapping)),
		)
	}
	classified := roles.RelabelTurns(turns, outcome.Mapping)

	if p.refiner != nil && p.cfg.Inference.RefinerEnabled {
		classified = p.refiner.Refine(ctx, classified)
	}

	runName := FriendlyRunName(in.FileName)
	rendered := RenderTranscript(classified, confidence, true)

	artifactKey := "transcripts/" + runName + "_conversation.txt"
	if err := p.storage.UploadText(ctx, artifactKey, rendered); err != nil {
		return nil, errors.ErrStorageFailed("upload artifact", err)
	}

	downloadURL, err := p.storage.GetFileURL(ctx, artifactKey, p.cfg.Storage.URLExpiry)
	if err != nil {
		return nil, errors.ErrStorageFailed("presign artifact", err)
	}

	var summaryText string
	if p.summarizer != nil {
		summaryText, err = p.summarizer.SummarizeTranscript(ctx, rendered)
		if err != nil {
			// Summarization is a collaborator concern: the artifact is still
			// complete without it.
			if p.logger != nil {
				p.logger.Warn("summarization failed, returning artifact without summary",
					zap.String("run_name", runName),
					zap.Error(err),
				)
			}
			summaryText = ""
		}
	}

	result := &entities.PipelineResult{
		RunName:            runName,
		JobName:            job.JobName,
		Service:            job.Service,
		DocumentConfidence: confidence,
		Turns:              classified,
		ArtifactKey:        artifactKey,
		DownloadURL:        downloadURL,
		Summary:            summaryText,
	}

	if p.cache != nil {
		p.cache.Set("artifact:"+runName, artifactKey, p.cfg.Storage.URLExpiry)
	}

	if p.store != nil {
		p.persistRun(ctx, result)
	}

	return result, nil
}

// downloadPayload fetches the transcript result object. The object can trail
// the job's completed status by a moment, so transient failures are retried
// briefly before giving up.
func (p *Pipeline) downloadPayload(ctx context.Context, resultKey string) ([]byte, error) {
	var payload []byte
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = p.downloadWait
	err := backoff.Retry(func() error {
		data, err := p.storage.GetObject(ctx, resultKey)
		if err != nil {
			return err
		}
		payload = data
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// persistRun records the completed run. Persistence failures are logged, not
// surfaced: the caller already has the full result.
func (p *Pipeline) persistRun(ctx context.Context, result *entities.PipelineResult) {
	turnsJSON, err := json.Marshal(result.Turns)
	if err != nil {
		turnsJSON = []byte("[]")
	}
	record := &entities.RunRecord{
		RunName:            result.RunName,
		JobName:            result.JobName,
		Service:            string(result.Service),
		DocumentConfidence: result.DocumentConfidence,
		ArtifactKey:        result.ArtifactKey,
		Summary:            result.Summary,
		Turns:              datatypes.JSON(turnsJSON),
	}
	if err := p.store.CreateRun(ctx, record); err != nil && p.logger != nil {
		p.logger.Warn("failed to persist run record",
			zap.String("run_name", result.RunName),
			zap.Error(err),
		)
	}
}
