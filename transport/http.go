// Package transport implements the HTTP adapter for the remote OCR service:
// multipart submission, status queries, job deletion, and health checks,
// with API-key auth and wire-error classification.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vaheandonians/layla-client/config"
	"github.com/vaheandonians/layla-client/model"
)

const defaultTimeout = 30 * time.Second

// HTTP talks to the OCR service over HTTP. It is safe for concurrent use.
type HTTP struct {
	base   string
	apiKey string
	client *http.Client
	log    *slog.Logger
}

// Option customizes the HTTP transport.
type Option func(*HTTP)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTP) { t.client = c }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *HTTP) { t.log = l }
}

// NewHTTP builds a transport for the configured service. The configuration
// is validated before any request can be made.
func NewHTTP(cfg config.Configuration, opts ...Option) (*HTTP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &HTTP{
		base:   cfg.BaseURL(),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: defaultTimeout},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Submit uploads a document for processing and returns the acknowledgement.
func (t *HTTP) Submit(ctx context.Context, filename string, payload []byte, m model.OCRModel) (*model.Job, error) {
	rid := uuid.New().String()
	start := time.Now()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, &model.NetworkError{Op: "submit", Message: "building multipart body", Err: err}
	}
	if _, err := part.Write(payload); err != nil {
		return nil, &model.NetworkError{Op: "submit", Message: "building multipart body", Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &model.NetworkError{Op: "submit", Message: "building multipart body", Err: err}
	}

	endpoint := t.base + "/ocr?model=" + url.QueryEscape(string(m))
	body, err := t.do(ctx, "submit", rid, http.MethodPost, endpoint, &buf, w.FormDataContentType())
	if err != nil {
		t.log.Error("layla.submit.error",
			"request_id", rid, "filename", filename, "model", string(m),
			"error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, &model.NetworkError{Op: "submit", Message: "malformed response", Err: err}
	}
	t.log.Info("layla.submit.ok",
		"request_id", rid, "job_id", job.ID, "model", string(m),
		"filename", filename, "bytes", len(payload),
		"elapsed_ms", time.Since(start).Milliseconds())
	return &job, nil
}

// JobStatus fetches the current status of a job.
func (t *HTTP) JobStatus(ctx context.Context, jobID string) (*model.JobStatus, error) {
	rid := uuid.New().String()
	start := time.Now()

	endpoint := t.base + "/status/" + url.PathEscape(jobID)
	body, err := t.do(ctx, "status", rid, http.MethodGet, endpoint, nil, "")
	if err != nil {
		t.log.Error("layla.status.error",
			"request_id", rid, "job_id", jobID,
			"error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	var st model.JobStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, &model.NetworkError{Op: "status", Message: "malformed response", Err: err}
	}
	t.log.Debug("layla.status.ok",
		"request_id", rid, "job_id", jobID, "status", string(st.Status),
		"elapsed_ms", time.Since(start).Milliseconds())
	return &st, nil
}

// DeleteJob removes a job and its stored result. A job the service no
// longer knows about is reported as (false, nil), not an error.
func (t *HTTP) DeleteJob(ctx context.Context, jobID string) (bool, error) {
	rid := uuid.New().String()
	start := time.Now()

	endpoint := t.base + "/jobs/" + url.PathEscape(jobID)
	req, err := t.newRequest(ctx, rid, http.MethodDelete, endpoint, nil, "")
	if err != nil {
		return false, &model.NetworkError{Op: "delete", Message: "building request", Err: err}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.log.Error("layla.delete.error",
			"request_id", rid, "job_id", jobID,
			"error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return false, &model.NetworkError{Op: "delete", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		t.log.Info("layla.delete.ok",
			"request_id", rid, "job_id", jobID, "deleted", false,
			"elapsed_ms", time.Since(start).Milliseconds())
		return false, nil
	}
	if err := t.classify("delete", resp.StatusCode, body); err != nil {
		t.log.Error("layla.delete.error",
			"request_id", rid, "job_id", jobID,
			"error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return false, err
	}
	t.log.Info("layla.delete.ok",
		"request_id", rid, "job_id", jobID, "deleted", true,
		"elapsed_ms", time.Since(start).Milliseconds())
	return true, nil
}

// Health reports the service's own health view.
func (t *HTTP) Health(ctx context.Context) (*model.Health, error) {
	rid := uuid.New().String()
	start := time.Now()

	body, err := t.do(ctx, "health", rid, http.MethodGet, t.base+"/health", nil, "")
	if err != nil {
		t.log.Error("layla.health.error",
			"request_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	var h model.Health
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, &model.NetworkError{Op: "health", Message: "malformed response", Err: err}
	}
	t.log.Debug("layla.health.ok",
		"request_id", rid, "status", h.Status,
		"elapsed_ms", time.Since(start).Milliseconds())
	return &h, nil
}

func (t *HTTP) newRequest(ctx context.Context, rid, method, url string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("X-Request-Id", rid)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// do performs a request and returns the response body for 2xx statuses.
// Everything else is classified into the error taxonomy.
func (t *HTTP) do(ctx context.Context, op, rid, method, url string, body io.Reader, contentType string) ([]byte, error) {
	req, err := t.newRequest(ctx, rid, method, url, body, contentType)
	if err != nil {
		return nil, &model.NetworkError{Op: op, Message: "building request", Err: err}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &model.NetworkError{Op: op, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.NetworkError{Op: op, Message: "reading response", Err: err}
	}
	if err := t.classify(op, resp.StatusCode, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (t *HTTP) classify(op string, status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &model.AuthenticationError{Op: op, Message: serviceMessage(body, status)}
	default:
		return &model.NetworkError{Op: op, Message: fmt.Sprintf("unexpected status %d: %s", status, serviceMessage(body, status))}
	}
}

// serviceMessage extracts the error description from a JSON error envelope,
// accepting both "detail" and "error" keys, falling back to the raw body.
func serviceMessage(body []byte, status int) string {
	var envelope struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Detail != "" {
			return envelope.Detail
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return http.StatusText(status)
}
