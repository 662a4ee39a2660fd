package model

import (
	"fmt"
	"time"
)

// The error taxonomy is a closed set of concrete types. Callers discriminate
// with errors.As:
//
//	var jf *model.JobFailedError
//	if errors.As(err, &jf) { ... }
//
// AuthenticationError, NetworkError, JobTimeoutError and JobFailedError are
// runtime failures; ConfigurationError means the caller's setup or arguments
// are wrong and is never produced once a request is in flight.

// AuthenticationError reports that the service rejected the configured
// credentials.
type AuthenticationError struct {
	Op      string // remote operation, e.g. "submit"
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("layla: %s: authentication rejected: %s", e.Op, e.Message)
}

// NetworkError covers every transport fault that is not an authentication
// rejection: refused connections, DNS failures, unexpected response
// statuses, and malformed response bodies.
type NetworkError struct {
	Op      string
	Message string
	Err     error // underlying cause, if any
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("layla: %s: network failure: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("layla: %s: network failure: %s", e.Op, e.Message)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// JobFailedError reports that the server marked the job failed, carrying the
// error description it attached.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("layla: job %s failed: %s", e.JobID, e.Message)
}

// JobTimeoutError reports that the client-side deadline elapsed before a
// terminal state was observed. The job may still finish on the server.
type JobTimeoutError struct {
	JobID   string
	Timeout time.Duration
	Elapsed time.Duration
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("layla: job %s timed out after %v (limit %v)",
		e.JobID, e.Elapsed.Round(time.Millisecond), e.Timeout)
}

// ConfigurationError reports malformed configuration or invalid call
// arguments.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("layla: configuration: %s: %s", e.Field, e.Message)
}
