package layla

import (
	"context"
	"time"

	"github.com/vaheandonians/layla-client/model"
)

// pollSession owns one poll-to-terminal loop. It is created per
// submission and driven by exactly one goroutine, so it needs no locking.
type pollSession struct {
	transport    Transport
	jobID        string
	timeout      time.Duration
	interval     time.Duration
	onProgress   ProgressFunc
	lastProgress string
}

func (s *Service) pollToTerminal(ctx context.Context, jobID string, opts SubmitOptions) (*model.JobStatus, error) {
	sess := &pollSession{
		transport:  s.transport,
		jobID:      jobID,
		timeout:    opts.Timeout,
		interval:   opts.PollInterval,
		onProgress: opts.OnProgress,
	}
	return sess.run(ctx)
}

// run queries job status at interval spacing until a terminal state is
// seen or the deadline passes. The deadline is checked once per
// iteration, after the query returns, so a query already in flight when
// the deadline passes still completes and may deliver a terminal state.
// Transport failures terminate the loop unretried.
func (s *pollSession) run(ctx context.Context) (*model.JobStatus, error) {
	if s.interval <= 0 {
		return nil, &model.ConfigurationError{Field: "poll_interval", Message: "must be positive"}
	}
	start := time.Now()

	for {
		st, err := s.transport.JobStatus(ctx, s.jobID)
		if err != nil {
			return nil, err
		}

		switch st.Status {
		case model.StateCompleted:
			return st, nil
		case model.StateFailed:
			return nil, &model.JobFailedError{JobID: s.jobID, Message: st.Error}
		}

		if s.onProgress != nil && st.Progress != "" && st.Progress != s.lastProgress {
			s.onProgress(st.Progress)
			s.lastProgress = st.Progress
		}

		// timeout <= 0 means "at most one query": the first non-terminal
		// answer is already past the deadline.
		if elapsed := time.Since(start); s.timeout <= 0 || elapsed > s.timeout {
			return nil, &model.JobTimeoutError{JobID: s.jobID, Timeout: s.timeout, Elapsed: elapsed}
		}

		if err := sleepCtx(ctx, s.interval); err != nil {
			return nil, err
		}
	}
}

// sleepCtx sleeps for d unless ctx ends first, in which case the context
// error is returned as-is.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
