package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode identifies a failure class across the service.
type ErrorCode int

const (
	ErrorCode_INTERNAL ErrorCode = iota
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_NOT_FOUND
	ErrorCode_UNAUTHENTICATED
	ErrorCode_SUBMISSION_FAILED
	ErrorCode_JOB_TIMED_OUT
	ErrorCode_JOB_FAILED
	ErrorCode_MALFORMED_TRANSCRIPT
	ErrorCode_CLASSIFICATION_UNAVAILABLE
	ErrorCode_REFINEMENT_REJECTED
	ErrorCode_INTEGRATION_STORAGE_FAILED
	ErrorCode_INTEGRATION_CACHE_FAILED
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED
	ErrorCode_DB_CONNECTION_FAILED
	ErrorCode_DB_QUERY_FAILED
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_INTERNAL:                        "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:                "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                       "NOT_FOUND",
	ErrorCode_UNAUTHENTICATED:                 "UNAUTHENTICATED",
	ErrorCode_SUBMISSION_FAILED:               "SUBMISSION_FAILED",
	ErrorCode_JOB_TIMED_OUT:                   "JOB_TIMED_OUT",
	ErrorCode_JOB_FAILED:                      "JOB_FAILED",
	ErrorCode_MALFORMED_TRANSCRIPT:            "MALFORMED_TRANSCRIPT",
	ErrorCode_CLASSIFICATION_UNAVAILABLE:      "CLASSIFICATION_UNAVAILABLE",
	ErrorCode_REFINEMENT_REJECTED:             "REFINEMENT_REJECTED",
	ErrorCode_INTEGRATION_STORAGE_FAILED:      "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:        "INTEGRATION_CACHE_FAILED",
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED: "INTEGRATION_EXTERNAL_API_FAILED",
	ErrorCode_DB_CONNECTION_FAILED:            "DB_CONNECTION_FAILED",
	ErrorCode_DB_QUERY_FAILED:                 "DB_QUERY_FAILED",
}

// String returns the stable name of the error code.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// AppError is the custom error type for the application
type AppError struct {
	Raw       error             `json:"-"`
	HTTPCode  int               `json:"-"`
	Code      ErrorCode         `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp,omitempty"`
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// IsRetriable reports whether the caller may reasonably retry the whole run.
// A timed-out job is retriable; a failed one is not.
func (e AppError) IsRetriable() bool {
	return e.Code == ErrorCode_JOB_TIMED_OUT
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Authentication required",
	}
}

// Job Lifecycle Errors

// ErrSubmission covers malformed media or options rejected at job submission.
func ErrSubmission(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_SUBMISSION_FAILED,
		Message:  "Failed to submit transcription job",
	}
}

// ErrJobTimeout marks a job that did not reach a terminal state before the
// wall-clock deadline. Distinct from JOB_FAILED so callers can retry.
func ErrJobTimeout(jobName string) AppError {
	return AppError{
		HTTPCode: http.StatusGatewayTimeout,
		Code:     ErrorCode_JOB_TIMED_OUT,
		Message:  "Transcription job timed out",
	}.WithDetail("job_name", jobName)
}

// ErrJobFailed carries the human-readable failure reason from job metadata.
// Callers never receive an empty reason.
func ErrJobFailed(jobName, reason string) AppError {
	if reason == "" {
		reason = "Unknown failure"
	}
	return AppError{
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_JOB_FAILED,
		Message:  fmt.Sprintf("Transcription job failed: %s", reason),
	}.WithDetail("job_name", jobName).WithDetail("reason", reason)
}

// ErrMalformedTranscript marks a transcript payload missing expected structure.
func ErrMalformedTranscript(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_MALFORMED_TRANSCRIPT,
		Message:  "Transcript payload is malformed",
	}
}

// Classification / Refinement Errors (never fatal to a run)

// ErrClassificationUnavailable marks an absent or unreachable inference
// capability. Always absorbed by the heuristic fallback.
func ErrClassificationUnavailable(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_CLASSIFICATION_UNAVAILABLE,
		Message:  "Role classification inference unavailable",
	}
}

// ErrRefinementRejected marks refinement output that failed validation.
// Always absorbed by passing through the original turns.
func ErrRefinementRejected(reason string) AppError {
	return AppError{
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_REFINEMENT_REJECTED,
		Message:  "Dialogue refinement rejected",
	}.WithDetail("reason", reason)
}

// Integration Errors
func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_STORAGE_FAILED,
		Message:  fmt.Sprintf("Storage operation failed: %s", operation),
	}
}

func ErrCacheFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_CACHE_FAILED,
		Message:  fmt.Sprintf("Cache operation failed: %s", operation),
	}
}

func ErrExternalAPIFailed(service string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_EXTERNAL_API_FAILED,
		Message:  fmt.Sprintf("External API call failed: %s", service),
	}
}

// Database Errors
func ErrDBConnectionFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DB_CONNECTION_FAILED,
		Message:  "Database connection failed",
	}
}

func ErrDBQueryFailed(query string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DB_QUERY_FAILED,
		Message:  "Database query failed",
	}.WithDetail("query", query)
}
