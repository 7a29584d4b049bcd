package handler

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/adapter/dto"
	"github.com/medscribe-team/clinical-scribe/internal/adapter/repository"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	"github.com/medscribe-team/clinical-scribe/internal/infrastructure/cache"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/pipeline"
	"github.com/medscribe-team/clinical-scribe/pkg/config"
)

// Processor runs one uploaded recording through the full pipeline.
type Processor interface {
	Process(ctx context.Context, in pipeline.Input) (*entities.PipelineResult, error)
}

// ArtifactReader fetches stored transcript artifacts.
type ArtifactReader interface {
	GetObject(ctx context.Context, objectName string) ([]byte, error)
	GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	ListFiles(ctx context.Context, prefix string) ([]string, error)
}

// Conversation handles conversation transcription endpoints
type Conversation struct {
	processor Processor
	artifacts ArtifactReader
	cache     cache.Store
	runs      *repository.RunRepository
	cfg       *config.Config
	logger    *zap.Logger
}

// NewConversation creates a new conversation handler. runs may be nil when run
// persistence is disabled.
func NewConversation(
	processor Processor,
	artifacts ArtifactReader,
	cacheStore cache.Store,
	runs *repository.RunRepository,
	cfg *config.Config,
	logger *zap.Logger,
) *Conversation {
	return &Conversation{
		processor: processor,
		artifacts: artifacts,
		cache:     cacheStore,
		runs:      runs,
		cfg:       cfg,
		logger:    logger,
	}
}

// Create accepts a multipart recording upload and runs it through the
// pipeline. The request blocks until the run completes or fails.
func (h *Conversation) Create(c echo.Context) error {
	ctx := c.Request().Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Missing file upload"))
	}

	if !validMediaExtension(fileHeader.Filename) {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Unsupported media format"))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Unreadable file upload"))
	}
	defer src.Close()

	if h.logger != nil {
		h.logger.Info("conversation upload received",
			zap.String("request_id", getRequestID(c)),
			zap.String("file_name", fileHeader.Filename),
			zap.Int64("size", fileHeader.Size),
		)
	}

	result, err := h.processor.Process(ctx, pipeline.Input{
		FileName:    fileHeader.Filename,
		Media:       src,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, dto.NewConversationResponse(result))
}

// GetTranscript returns the rendered transcript artifact of a completed run.
func (h *Conversation) GetTranscript(c echo.Context) error {
	ctx := c.Request().Context()

	runName := c.Param("name")
	if runName == "" {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Missing run name"))
	}

	artifactKey := ""
	if h.cache != nil {
		if key, ok := h.cache.Get("artifact:" + runName); ok {
			artifactKey = key
		}
	}
	if artifactKey == "" {
		// Artifact keys are deterministic, so a cache miss is recoverable.
		artifactKey = "transcripts/" + runName + "_conversation.txt"
	}

	content, err := h.artifacts.GetObject(ctx, artifactKey)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrNotFound("Transcript"))
	}

	return HandleSuccess(h.logger, c, dto.TranscriptResponse{
		RunName:     runName,
		ArtifactKey: artifactKey,
		Content:     string(content),
	})
}

// GetDownloadURL returns a presigned URL for a run's transcript artifact.
func (h *Conversation) GetDownloadURL(c echo.Context) error {
	ctx := c.Request().Context()

	runName := c.Param("name")
	if runName == "" {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Missing run name"))
	}

	artifactKey := "transcripts/" + runName + "_conversation.txt"
	url, err := h.artifacts.GetFileURL(ctx, artifactKey, h.cfg.Storage.URLExpiry)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStorageFailed("presign artifact", err))
	}

	return HandleSuccess(h.logger, c, map[string]interface{}{
		"run_name":     runName,
		"artifact_key": artifactKey,
		"url":          url,
	})
}

// List returns recent persisted runs, newest first. Without a database it
// falls back to enumerating artifacts in object storage, which yields run
// names and keys but no confidence or timing metadata.
func (h *Conversation) List(c echo.Context) error {
	if h.runs == nil {
		return h.listFromStorage(c)
	}

	records, err := h.runs.ListRuns(c.Request().Context(), 20)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("list runs", err))
	}

	runs := make([]dto.RunSummaryResponse, 0, len(records))
	for _, r := range records {
		runs = append(runs, dto.RunSummaryResponse{
			RunName:            r.RunName,
			JobName:            r.JobName,
			Service:            r.Service,
			DocumentConfidence: r.DocumentConfidence,
			ArtifactKey:        r.ArtifactKey,
			CreatedAt:          r.CreatedAt.Format(time.RFC3339),
		})
	}

	return HandleSuccess(h.logger, c, runs)
}

func (h *Conversation) listFromStorage(c echo.Context) error {
	keys, err := h.artifacts.ListFiles(c.Request().Context(), "transcripts/")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStorageFailed("list artifacts", err))
	}

	runs := make([]dto.RunSummaryResponse, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimPrefix(key, "transcripts/")
		name = strings.TrimSuffix(name, "_conversation.txt")
		runs = append(runs, dto.RunSummaryResponse{
			RunName:     name,
			ArtifactKey: key,
		})
	}

	return HandleSuccess(h.logger, c, runs)
}
