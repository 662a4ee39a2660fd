package layla

import (
	"context"
	"fmt"
	"time"

	"github.com/vaheandonians/layla-client/loader"
	"github.com/vaheandonians/layla-client/model"
)

// Defaults applied when SubmitOptions leaves the field zero.
const (
	DefaultTimeout      = 10 * time.Minute
	DefaultPollInterval = 2 * time.Second
)

// ProgressFunc receives progress strings while a job is processing. It is
// invoked once per distinct value; identical consecutive reports are
// suppressed.
type ProgressFunc func(progress string)

// CompletionFunc receives the terminal outcome of an asynchronous
// submission, exactly once, from the session's background goroutine.
// Exactly one of job and err is set: job carries the populated result on
// success, err is the taxonomy error on failure or timeout.
type CompletionFunc func(job *model.Job, err error)

// SubmitOptions controls a single submission. The zero value selects the
// default model, DefaultTimeout, and DefaultPollInterval.
type SubmitOptions struct {
	// Model selects the OCR model; empty means model.DefaultModel.
	Model model.OCRModel
	// Timeout bounds the wall-clock wait for a terminal state. Zero means
	// DefaultTimeout; negative means at most one status query is attempted.
	Timeout time.Duration
	// PollInterval is the sleep between status queries. Zero means
	// DefaultPollInterval; negative values are rejected.
	PollInterval time.Duration
	// OnProgress, when set, receives progress updates. Optional.
	OnProgress ProgressFunc
	// AutoDelete requests best-effort deletion of the job after a
	// successful completion. Delete failures never affect the result.
	AutoDelete bool
}

func (o SubmitOptions) withDefaults() SubmitOptions {
	if o.Model == "" {
		o.Model = model.DefaultModel
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.PollInterval == 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

// SubmitJob submits the loader's document and blocks until the job
// reaches a terminal state, the timeout elapses, or ctx is canceled. On
// success the returned acknowledgement carries the markdown result.
// Failures are reported through the model error taxonomy; the job is
// never retried.
func (s *Service) SubmitJob(ctx context.Context, l loader.Loader, opts SubmitOptions) (*model.Job, error) {
	opts = opts.withDefaults()
	if opts.PollInterval <= 0 {
		return nil, &model.ConfigurationError{Field: "poll_interval", Message: "must be positive"}
	}

	job, err := s.submit(ctx, l, opts.Model)
	if err != nil {
		return nil, err
	}

	st, err := s.pollToTerminal(ctx, job.ID, opts)
	if err != nil {
		return nil, err
	}
	if opts.AutoDelete {
		s.autoDelete(ctx, job.ID)
	}
	return completed(job, st), nil
}

// SubmitJobAsync submits the loader's document on the calling goroutine,
// then drives the poll to a terminal outcome on a background goroutine.
// Submission failures return synchronously and no background work is
// started; after a successful submission, onComplete is invoked exactly
// once with the outcome. The returned acknowledgement carries the job
// handle for callers that track jobs themselves.
func (s *Service) SubmitJobAsync(ctx context.Context, l loader.Loader, onComplete CompletionFunc, opts SubmitOptions) (*model.Job, error) {
	if onComplete == nil {
		return nil, &model.ConfigurationError{Field: "completion_callback", Message: "required"}
	}
	opts = opts.withDefaults()
	if opts.PollInterval <= 0 {
		return nil, &model.ConfigurationError{Field: "poll_interval", Message: "must be positive"}
	}

	job, err := s.submit(ctx, l, opts.Model)
	if err != nil {
		return nil, err
	}

	// The session outlives the caller's stack, so it runs detached from
	// the caller's context; the per-session timeout bounds it instead.
	jobCopy := *job
	s.wg.Go(func() {
		s.finish(&jobCopy, opts, onComplete)
	})
	return job, nil
}

func (s *Service) submit(ctx context.Context, l loader.Loader, m model.OCRModel) (*model.Job, error) {
	filename, data, err := l.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	return s.transport.Submit(ctx, filename, data, m)
}

// finish runs the remainder of an asynchronous session and delivers the
// completion callback. Each branch below is the callback's single
// invocation site for this session.
func (s *Service) finish(job *model.Job, opts SubmitOptions, onComplete CompletionFunc) {
	ctx := context.Background()
	s.log.Debug("layla.session.start", "job_id", job.ID)

	st, err := s.pollToTerminal(ctx, job.ID, opts)
	if err != nil {
		s.log.Debug("layla.session.done", "job_id", job.ID, "error", err)
		onComplete(nil, err)
		return
	}
	if opts.AutoDelete {
		s.autoDelete(ctx, job.ID)
	}
	s.log.Debug("layla.session.done", "job_id", job.ID, "status", string(st.Status))
	onComplete(completed(job, st), nil)
}

// completed folds a terminal status into the submission acknowledgement.
func completed(job *model.Job, st *model.JobStatus) *model.Job {
	out := *job
	out.Status = model.StateCompleted
	out.Result = st.Result
	return &out
}
