package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/outbreak/internal/probe"
	"github.com/okian/outbreak/pkg/logger"
)

// Default configuration constants.
const (
	defaultRequests     = 1000
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 10 * time.Second
	defaultProbeTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8050", "Base URL of the dashboard")
		email    = flag.String("email", "probe@example.org", "Identity used to open a session")
		requests = flag.Int("requests", defaultRequests, "Number of assessments to submit")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent requests")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Uint64("seed", 0, "Sample generator seed (0 = random)")
		output   = flag.String("output", "", "Optional JSON file receiving every outcome")
		format   = flag.String("log-format", logger.FormatText, "Log format: text or json")
		verbose  = flag.Bool("verbose", false, "Log every outcome")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
	defer cancel()

	cfg := &probe.Config{
		BaseURL:    *baseURL,
		Email:      *email,
		Requests:   *requests,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seed,
		OutputFile: *output,
		Verbose:    *verbose,
	}
	if _, err := probe.Run(ctx, cfg, logger.Named("probe")); err != nil {
		logger.Get().Error(ctx, "probe failed", logger.Error(err))
		os.Exit(1)
	}
}
