// Package model defines the data exchanged with the Layla OCR service:
// job states, wire-level response structures, the OCR model catalog, and
// the error taxonomy shared by every client operation.
package model

// State is the server-reported lifecycle state of an OCR job.
type State string

// Job states reported by the service. The client only observes these; it
// never invents or locally transitions a state.
const (
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Job is the submission acknowledgement returned by the service. The
// synchronous executor additionally populates Result once the job completes.
type Job struct {
	ID      string `json:"job_id"`
	Status  State  `json:"status"`
	Model   string `json:"model"`
	Message string `json:"message,omitempty"`
	Result  string `json:"result,omitempty"`
}

// JobStatus is a single observation of a job. Progress is only present while
// processing, Result only after completion, Error only after failure.
type JobStatus struct {
	ID       string `json:"job_id"`
	Status   State  `json:"status"`
	Model    string `json:"model,omitempty"`
	Progress string `json:"progress,omitempty"`
	Result   string `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Health is the service's diagnostic snapshot: overall status, the state of
// its queue backend, and the number of jobs waiting to be processed.
type Health struct {
	Status    string `json:"status"`
	Redis     string `json:"redis"`
	QueueSize *int   `json:"queue_size,omitempty"`
}
