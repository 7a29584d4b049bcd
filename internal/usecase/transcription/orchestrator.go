package transcription

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	"github.com/medscribe-team/clinical-scribe/pkg/config"
	"github.com/medscribe-team/clinical-scribe/pkg/transcribe"
)

// Service is the external transcription collaborator consumed by the
// orchestrator. Implemented by pkg/transcribe.Client; substituted with fakes
// in tests.
type Service interface {
	StartJob(ctx context.Context, jobName, mediaURI string, opts transcribe.JobOptions) error
	GetJob(ctx context.Context, jobName string, medical bool) (transcribe.JobState, error)
}

// Orchestrator drives one transcription job from submission to a terminal
// state. It is the only component that mutates job status, and it never
// retries submission on its own.
type Orchestrator struct {
	svc    Service
	cfg    *config.TranscribeConfig
	logger *zap.Logger
}

// NewOrchestrator constructs a job orchestrator.
func NewOrchestrator(svc Service, cfg *config.TranscribeConfig, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{svc: svc, cfg: cfg, logger: logger}
}

var jobNameUnsafe = regexp.MustCompile(`[^0-9a-zA-Z._-]`)

// SanitizeJobName replaces characters the transcription service rejects.
func SanitizeJobName(name string) string {
	return jobNameUnsafe.ReplaceAllString(name, "_")
}

// Submit starts a recognition job for the staged media. The standard vs
// medical variant is a pure function of configuration.
func (o *Orchestrator) Submit(ctx context.Context, mediaURI, baseName string) (entities.TranscriptionJob, error) {
	safeBase := SanitizeJobName(baseName)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	service := entities.ServiceStandard
	jobName := fmt.Sprintf("vt_std_%s_%s", safeBase, suffix)
	if o.cfg.UseMedical {
		service = entities.ServiceMedical
		jobName = fmt.Sprintf("vt_med_%s_%s", safeBase, suffix)
	}

	opts := transcribe.JobOptions{
		Medical:               o.cfg.UseMedical,
		Specialty:             o.cfg.Specialty,
		Language:              o.cfg.Language,
		ChannelIdentification: o.cfg.ChannelIdentification,
		MaxSpeakers:           o.cfg.MaxSpeakers,
		OutputKey:             fmt.Sprintf("transcripts/%s/%s/", safeBase, service),
	}

	if err := o.svc.StartJob(ctx, jobName, mediaURI, opts); err != nil {
		return entities.TranscriptionJob{}, errors.ErrSubmission(err)
	}

	if o.logger != nil {
		o.logger.Info("transcription job submitted",
			zap.String("job_name", jobName),
			zap.String("service", string(service)),
			zap.String("media_uri", mediaURI),
		)
	}

	return entities.TranscriptionJob{
		JobName: jobName,
		Service: service,
		Status:  entities.JobStatusSubmitted,
	}, nil
}

// AwaitCompletion polls the job at a fixed interval until it reaches a
// terminal state or the wall-clock deadline elapses. The deadline produces
// the distinct TIMED_OUT state, surfaced as a retriable failure rather than
// being merged into FAILED.
func (o *Orchestrator) AwaitCompletion(ctx context.Context, job entities.TranscriptionJob, pollInterval, timeout time.Duration) (entities.TranscriptionJob, error) {
	deadline := time.Now().Add(timeout)
	medical := job.Service == entities.ServiceMedical

	for time.Now().Before(deadline) {
		state, err := o.svc.GetJob(ctx, job.JobName, medical)
		if err != nil {
			// A single failed poll is not a terminal outcome; keep sampling
			// until the deadline decides.
			if o.logger != nil {
				o.logger.Warn("job status poll failed",
					zap.String("job_name", job.JobName),
					zap.Error(err),
				)
			}
		} else {
			switch state.Status {
			case "COMPLETED":
				job.Status = entities.JobStatusCompleted
				job.ResultKey = state.ResultKey
				if o.logger != nil {
					o.logger.Info("transcription job completed",
						zap.String("job_name", job.JobName),
						zap.String("result_key", job.ResultKey),
					)
				}
				return job, nil
			case "FAILED":
				reason := state.FailureReason
				if reason == "" {
					reason = "Unknown failure"
				}
				job.Status = entities.JobStatusFailed
				job.FailureReason = reason
				if o.logger != nil {
					o.logger.Error("transcription job failed",
						zap.String("job_name", job.JobName),
						zap.String("reason", reason),
					)
				}
				return job, errors.ErrJobFailed(job.JobName, reason)
			case "IN_PROGRESS":
				// Forward-only: submitted advances to in_progress and stays
				// there until the service reports a terminal status.
				job.Status = entities.JobStatusInProgress
			}
		}

		select {
		case <-ctx.Done():
			job.Status = entities.JobStatusTimedOut
			return job, errors.ErrJobTimeout(job.JobName)
		case <-time.After(pollInterval):
		}
	}

	job.Status = entities.JobStatusTimedOut
	if o.logger != nil {
		o.logger.Error("transcription job timed out",
			zap.String("job_name", job.JobName),
			zap.Duration("timeout", timeout),
		)
	}
	return job, errors.ErrJobTimeout(job.JobName)
}
