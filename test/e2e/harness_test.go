// Package e2e drives the published client against a real testserver
// subprocess over HTTP. Run with: go test ./test/e2e
package e2e

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/vaheandonians/layla-client/config"
	"github.com/vaheandonians/layla-client/layla"
)

const (
	startupTimeout = 10 * time.Second
	readyInterval  = 50 * time.Millisecond

	testAPIKey = "e2e-test-key"

	// Mock service profile: 3 pages at 30ms each, so a job takes ~90ms.
	mockPages       = "3"
	mockPageDelayMS = "30"
	mockFailTrigger = "fail"
)

// lockedBuffer is a thread-safe wrapper around bytes.Buffer.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (lb *lockedBuffer) Write(p []byte) (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.Write(p)
}

func (lb *lockedBuffer) String() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.String()
}

// serverProc holds the running testserver subprocess and its output.
type serverProc struct {
	cmd    *exec.Cmd
	stdout *lockedBuffer
	url    string
}

var (
	binaries  = map[string]string{}
	buildErrs = map[string]error{}
	buildMu   sync.Mutex
)

// getBinary builds ./cmd/<name> once per test run and returns its path.
func getBinary(t *testing.T, name string) string {
	t.Helper()
	buildMu.Lock()
	defer buildMu.Unlock()

	if bin, ok := binaries[name]; ok {
		return bin
	}
	if err, ok := buildErrs[name]; ok {
		t.Fatal(err)
	}

	dir, err := os.MkdirTemp("", "layla-e2e-*")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	binary := filepath.Join(dir, name)
	cmd := exec.Command("go", "build", "-o", binary, "./cmd/"+name)
	cmd.Dir = findRepoRoot(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		buildErrs[name] = fmt.Errorf("go build ./cmd/%s failed: %w\n%s", name, err, out)
		t.Fatal(buildErrs[name])
	}
	binaries[name] = binary
	return binary
}

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repo root")
		}
		dir = parent
	}
}

// startServer spawns a testserver on a free port and waits until its
// health endpoint answers.
func startServer(t *testing.T, extraEnv ...string) *serverProc {
	t.Helper()

	binary := getBinary(t, "testserver")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	stdout := &lockedBuffer{}
	cmd := exec.Command(binary)
	cmd.Env = append(os.Environ(),
		"LAYLA_MOCK_LISTEN_ADDR="+addr,
		"LAYLA_MOCK_API_KEY="+testAPIKey,
		"LAYLA_MOCK_PAGES="+mockPages,
		"LAYLA_MOCK_PAGE_DELAY_MS="+mockPageDelayMS,
		"LAYLA_MOCK_FAIL_TRIGGER="+mockFailTrigger,
		"LAYLA_LOG_LEVEL=info",
	)
	cmd.Env = append(cmd.Env, extraEnv...)
	cmd.Stdout = stdout
	cmd.Stderr = stdout

	if err := cmd.Start(); err != nil {
		t.Fatalf("start testserver: %v", err)
	}

	sp := &serverProc{
		cmd:    cmd,
		stdout: stdout,
		url:    "http://" + addr,
	}

	t.Cleanup(func() {
		cmd.Process.Kill()
		cmd.Wait()
	})

	deadline := time.Now().Add(startupTimeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(sp.url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == 200 {
				return sp
			}
		}
		time.Sleep(readyInterval)
	}
	t.Fatalf("testserver did not become ready within %v\noutput:\n%s", startupTimeout, stdout.String())
	return nil
}

// newService builds a client pointed at the spawned server.
func newService(t *testing.T, sp *serverProc) *layla.Service {
	t.Helper()
	return newServiceWithKey(t, sp, testAPIKey)
}

func newServiceWithKey(t *testing.T, sp *serverProc, apiKey string) *layla.Service {
	t.Helper()
	cfg := config.Configuration{
		ServiceURL: sp.url,
		APIKey:     apiKey,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc, err := layla.New(cfg, layla.WithLogger(logger))
	if err != nil {
		t.Fatalf("layla.New: %v", err)
	}
	return svc
}

// writeTempDoc creates a throwaway document and returns its path.
func writeTempDoc(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 e2e fixture"), 0o644); err != nil {
		t.Fatalf("write temp doc: %v", err)
	}
	return path
}

// fastOpts keeps polling snappy against the local mock service.
func fastOpts() layla.SubmitOptions {
	return layla.SubmitOptions{
		Timeout:      10 * time.Second,
		PollInterval: 20 * time.Millisecond,
	}
}
