// testserver runs the mock OCR service for local development and E2E tests.
// Usage: go run ./cmd/testserver
package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/vaheandonians/layla-client/config"
	"github.com/vaheandonians/layla-client/internal/mockocr"
)

const (
	defaultListenAddr = ":8080"

	envListenAddr  = "LAYLA_MOCK_LISTEN_ADDR"
	envAPIKey      = "LAYLA_MOCK_API_KEY"
	envDBPath      = "LAYLA_MOCK_DB_PATH"
	envPages       = "LAYLA_MOCK_PAGES"
	envPageDelayMS = "LAYLA_MOCK_PAGE_DELAY_MS"
	envFailTrigger = "LAYLA_MOCK_FAIL_TRIGGER"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	addr := defaultListenAddr
	if v := os.Getenv(envListenAddr); v != "" {
		addr = v
	}

	cfg := mockocr.Config{
		APIKey:      os.Getenv(envAPIKey),
		DBPath:      os.Getenv(envDBPath),
		FailTrigger: os.Getenv(envFailTrigger),
	}
	if v := os.Getenv(envPages); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Fatalf("invalid %s: %q", envPages, v)
		}
		cfg.Pages = n
	}
	if v := os.Getenv(envPageDelayMS); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			log.Fatalf("invalid %s: %q", envPageDelayMS, v)
		}
		cfg.PageDelay = time.Duration(ms) * time.Millisecond
	}

	logger := config.NewLogger(os.Stdout, config.ParseLogLevel(os.Getenv(config.EnvLogLevel)))

	srv, err := mockocr.NewServer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to start mock service: %v", err)
	}

	logger.Info("testserver: starting",
		"listen_addr", addr,
		"auth", cfg.APIKey != "",
		"fail_trigger", cfg.FailTrigger,
	)

	if err := srv.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
