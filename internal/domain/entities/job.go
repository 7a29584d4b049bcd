package entities

// ServiceKind selects the transcription job variant. The choice is a pure
// function of configuration, not of runtime data.
type ServiceKind string

const (
	ServiceStandard ServiceKind = "standard"
	ServiceMedical  ServiceKind = "medical"
)

// JobStatus is the lifecycle state of a transcription job.
type JobStatus string

const (
	JobStatusSubmitted  JobStatus = "submitted"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusTimedOut   JobStatus = "timed_out"
)

// IsTerminal reports whether the status ends the polling loop.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusTimedOut
}

// TranscriptionJob tracks one asynchronous recognition job. It is created at
// submission and mutated only by the orchestrator's polling loop.
type TranscriptionJob struct {
	JobName       string
	Service       ServiceKind
	Status        JobStatus
	FailureReason string // populated only when Status is failed
	ResultKey     string // object key of the transcript payload when completed
}
