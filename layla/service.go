package layla

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vaheandonians/layla-client/config"
	"github.com/vaheandonians/layla-client/model"
	"github.com/vaheandonians/layla-client/transport"
)

// Transport issues the four remote operations against the OCR service.
// Implementations translate wire-level failures into the model error
// taxonomy before returning.
type Transport interface {
	Submit(ctx context.Context, filename string, payload []byte, m model.OCRModel) (*model.Job, error)
	JobStatus(ctx context.Context, jobID string) (*model.JobStatus, error)
	DeleteJob(ctx context.Context, jobID string) (bool, error)
	Health(ctx context.Context) (*model.Health, error)
}

var _ Transport = (*transport.HTTP)(nil)

// Service is the entry point for submitting documents and tracking jobs.
// It is safe for concurrent use; background sessions started by
// SubmitJobAsync share nothing but the transport and logger.
type Service struct {
	transport Transport
	log       *slog.Logger
	wg        sync.WaitGroup
}

type options struct {
	transport  Transport
	logger     *slog.Logger
	httpClient *http.Client
}

// Option customizes a Service.
type Option func(*options)

// WithTransport replaces the default HTTP transport. The configuration
// passed to New is ignored when a transport is supplied.
func WithTransport(t Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient replaces the http.Client used by the default transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New builds a Service for the configured OCR endpoint. The configuration
// is validated unless WithTransport supplies a ready transport.
func New(cfg config.Configuration, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.transport == nil {
		topts := []transport.Option{transport.WithLogger(o.logger)}
		if o.httpClient != nil {
			topts = append(topts, transport.WithHTTPClient(o.httpClient))
		}
		t, err := transport.NewHTTP(cfg, topts...)
		if err != nil {
			return nil, err
		}
		o.transport = t
	}
	return &Service{transport: o.transport, log: o.logger}, nil
}

// NewFromEnv builds a Service from the LAYLA_* environment variables.
func NewFromEnv(opts ...Option) (*Service, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// GetJobStatus fetches the current status of a previously submitted job.
func (s *Service) GetJobStatus(ctx context.Context, jobID string) (*model.JobStatus, error) {
	if jobID == "" {
		return nil, &model.ConfigurationError{Field: "job_id", Message: "required"}
	}
	return s.transport.JobStatus(ctx, jobID)
}

// DeleteJob removes a job and its stored result from the service. It
// reports false, without error, when the service no longer knows the job.
func (s *Service) DeleteJob(ctx context.Context, jobID string) (bool, error) {
	if jobID == "" {
		return false, &model.ConfigurationError{Field: "job_id", Message: "required"}
	}
	return s.transport.DeleteJob(ctx, jobID)
}

// HealthCheck reports the service's own health view.
func (s *Service) HealthCheck(ctx context.Context) (*model.Health, error) {
	return s.transport.Health(ctx)
}

// Wait blocks until all background sessions started by SubmitJobAsync
// have delivered their completion callbacks.
func (s *Service) Wait() {
	s.wg.Wait()
}

// autoDelete performs the advisory post-completion cleanup. Failures are
// logged and swallowed; cleanup is not part of the success contract.
func (s *Service) autoDelete(ctx context.Context, jobID string) {
	if _, err := s.transport.DeleteJob(ctx, jobID); err != nil {
		s.log.Warn("layla.autodelete.error", "job_id", jobID, "error", err)
	}
}
