package mockocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vaheandonians/layla-client/model"
)

// profile describes how one OCR model behaves in simulation. The page
// delay is what makes the "fastest" model observably fastest.
type profile struct {
	pages     int
	pageDelay time.Duration
}

func builtinProfiles() map[model.OCRModel]profile {
	return map[model.OCRModel]profile{
		model.ModelDocQwen3B: {pages: 10, pageDelay: 40 * time.Millisecond},
		model.ModelDocTrf3B:  {pages: 10, pageDelay: 25 * time.Millisecond},
		model.ModelDocTrf09B: {pages: 10, pageDelay: 10 * time.Millisecond},
	}
}

// newJobID generates a lexicographically sortable job handle.
func newJobID() string {
	return ulid.Make().String()
}

// worker simulates document processing, one goroutine per submitted job.
type worker struct {
	store       *store
	log         *slog.Logger
	profiles    map[model.OCRModel]profile
	failTrigger string
	wg          sync.WaitGroup
}

func newWorker(st *store, logger *slog.Logger, cfg Config) *worker {
	profiles := builtinProfiles()
	for m, p := range profiles {
		if cfg.Pages > 0 {
			p.pages = cfg.Pages
		}
		if cfg.PageDelay > 0 {
			p.pageDelay = cfg.PageDelay
		}
		profiles[m] = p
	}
	return &worker{
		store:       st,
		log:         logger,
		profiles:    profiles,
		failTrigger: cfg.FailTrigger,
	}
}

// start launches the simulation for a freshly stored job.
func (w *worker) start(j *jobRecord) {
	jCopy := *j
	w.wg.Go(func() {
		w.process(&jCopy)
	})
}

// wait blocks until all in-flight job simulations finish.
func (w *worker) wait() {
	w.wg.Wait()
}

func (w *worker) process(j *jobRecord) {
	ctx := context.Background()
	p := w.profileFor(model.OCRModel(j.Model))

	if w.failTrigger != "" && strings.Contains(j.Filename, w.failTrigger) {
		time.Sleep(p.pageDelay)
		w.finish(ctx, j, model.StateFailed, "", "model unavailable")
		return
	}

	for page := 1; page <= p.pages; page++ {
		time.Sleep(p.pageDelay)
		progress := fmt.Sprintf("Processing %d/%d pages", page, p.pages)
		if err := w.store.updateProgress(ctx, j.ID, progress); err != nil {
			// The job may have been deleted mid-flight; stop simulating.
			w.log.Warn("progress update failed", "job_id", j.ID, "error", err)
			return
		}
	}

	w.finish(ctx, j, model.StateCompleted, renderResult(j.Filename, p.pages), "")
}

func (w *worker) finish(ctx context.Context, j *jobRecord, status model.State, result, errMsg string) {
	if err := w.store.finishJob(ctx, j.ID, status, result, errMsg); err != nil {
		w.log.Warn("finish job failed", "job_id", j.ID, "error", err)
		return
	}
	jobsTotal.WithLabelValues(j.Model, string(status)).Inc()
	w.log.Info("job finished", "job_id", j.ID, "model", j.Model, "status", string(status))
}

func (w *worker) profileFor(m model.OCRModel) profile {
	if p, ok := w.profiles[m]; ok {
		return p
	}
	return w.profiles[model.DefaultModel]
}

// renderResult produces the deterministic markdown "OCR output" for a
// simulated document.
func renderResult(filename string, pages int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", filename)
	for page := 1; page <= pages; page++ {
		fmt.Fprintf(&b, "\n## Page %d\n\nExtracted text for page %d of %s.\n", page, page, filename)
	}
	return b.String()
}
