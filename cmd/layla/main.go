// layla is a command-line client for the document OCR service.
//
// Usage:
//
//	layla health
//	layla submit [flags] <file>
//	layla asubmit [flags] <file>
//	layla status <job-id>
//	layla delete <job-id>
//
// Connection settings come from LAYLA_OCR_SERVICE_URL, LAYLA_OCR_SERVICE_PORT
// and LAYLA_API_KEY (a .env file is honored). Results are written to stdout
// unless -o names a file; logs go to stderr.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/yuin/goldmark"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/vaheandonians/layla-client/config"
	"github.com/vaheandonians/layla-client/layla"
	"github.com/vaheandonians/layla-client/loader"
	"github.com/vaheandonians/layla-client/model"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: layla <health|submit|asubmit|status|delete> [flags] [args]")
	os.Exit(2)
}

func main() {
	// Load .env file if it exists
	godotenv.Load()

	if len(os.Args) < 2 {
		usage()
	}

	logger := config.NewLogger(os.Stderr, config.ParseLogLevel(os.Getenv(config.EnvLogLevel)))

	svc, err := layla.NewFromEnv(layla.WithLogger(logger))
	if err != nil {
		logger.Error("configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "health":
		err = runHealth(ctx, svc)
	case "submit":
		err = runSubmit(ctx, svc, logger, os.Args[2:])
	case "asubmit":
		err = runAsubmit(ctx, svc, logger, os.Args[2:])
	case "status":
		err = runStatus(ctx, svc, os.Args[2:])
	case "delete":
		err = runDelete(ctx, svc, os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		logger.Error(os.Args[1]+" failed", "error", err)
		os.Exit(1)
	}
}

func runHealth(ctx context.Context, svc *layla.Service) error {
	h, err := svc.HealthCheck(ctx)
	if err != nil {
		return err
	}
	return printJSON(h)
}

func runStatus(ctx context.Context, svc *layla.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: layla status <job-id>")
	}
	st, err := svc.GetJobStatus(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(st)
}

func runDelete(ctx context.Context, svc *layla.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: layla delete <job-id>")
	}
	deleted, err := svc.DeleteJob(ctx, args[0])
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("job %s not found", args[0])
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

// submitFlagSet declares the flags shared by submit and asubmit, binding
// the duration and bool flags straight into opts.
func submitFlagSet(name string, opts *layla.SubmitOptions) (fs *flag.FlagSet, modelName, out, format *string) {
	fs = flag.NewFlagSet(name, flag.ExitOnError)
	modelName = fs.String("model", "", "OCR model identifier (default "+string(model.DefaultModel)+")")
	fs.DurationVar(&opts.Timeout, "timeout", 0, "overall job deadline (0 = 10m default)")
	fs.DurationVar(&opts.PollInterval, "interval", 0, "status poll interval (0 = 2s default)")
	fs.BoolVar(&opts.AutoDelete, "auto-delete", false, "delete the job from the service after a successful result")
	out = fs.String("o", "", "write the result to this file instead of stdout")
	format = fs.String("format", "md", "result format: md or html")
	return fs, modelName, out, format
}

func runSubmit(ctx context.Context, svc *layla.Service, logger *slog.Logger, args []string) error {
	var opts layla.SubmitOptions
	fs, modelName, out, format := submitFlagSet("submit", &opts)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: layla submit [flags] <file>")
	}
	opts.Model = model.OCRModel(*modelName)
	opts.OnProgress = func(progress string) {
		logger.Info("layla.progress", "progress", progress)
	}

	job, err := svc.SubmitJob(ctx, loader.NewLocalFile(fs.Arg(0)), opts)
	if err != nil {
		return err
	}
	logger.Info("job completed", "job_id", job.ID, "model", job.Model)
	return writeResult(job.Result, *format, *out)
}

func runAsubmit(ctx context.Context, svc *layla.Service, logger *slog.Logger, args []string) error {
	var opts layla.SubmitOptions
	fs, modelName, out, format := submitFlagSet("asubmit", &opts)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: layla asubmit [flags] <file>")
	}
	opts.Model = model.OCRModel(*modelName)
	opts.OnProgress = func(progress string) {
		logger.Info("layla.progress", "progress", progress)
	}

	// The callback runs on a background goroutine; Wait orders it before
	// the jobErr read below.
	var jobErr error
	ack, err := svc.SubmitJobAsync(ctx, loader.NewLocalFile(fs.Arg(0)), func(job *model.Job, err error) {
		if err != nil {
			jobErr = err
			return
		}
		jobErr = writeResult(job.Result, *format, *out)
	}, opts)
	if err != nil {
		return err
	}

	logger.Info("job accepted, waiting in background", "job_id", ack.ID, "model", ack.Model)
	svc.Wait()
	return jobErr
}

func writeResult(result, format, out string) error {
	data, err := renderResult(result, format)
	if err != nil {
		return err
	}
	if out == "" || out == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

// renderResult converts the service's markdown result into the requested
// output format. Results may embed raw HTML for tabular regions, so the
// HTML renderer keeps raw blocks intact.
func renderResult(result, format string) ([]byte, error) {
	switch format {
	case "md":
		return []byte(result), nil
	case "html":
		md := goldmark.New(goldmark.WithRendererOptions(ghtml.WithUnsafe()))
		var buf bytes.Buffer
		if err := md.Convert([]byte(result), &buf); err != nil {
			return nil, fmt.Errorf("rendering result: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
