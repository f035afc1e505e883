package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/shotline/internal/shotgen"
)

// Default configuration constants.
const (
	defaultNumShots   = 1600
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultSettle     = 10 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numShots = flag.Int("shots", defaultNumShots, "Number of shots to generate")
		firstID  = flag.Int64("first-id", 1, "ID of the first generated shot")
		seed     = flag.Uint64("seed", 1, "Seed for the board simulation")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle   = flag.Duration("settle", defaultSettle, "How long to wait for each shot to be analyzed")
		logFile  = flag.String("log", "", "Also write log output to this file")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		shotgen.ShowHelp()
		return
	}

	if err := shotgen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &shotgen.Config{
		BaseURL:  *baseURL,
		NumShots: *numShots,
		FirstID:  *firstID,
		Seed:     *seed,
		Workers:  max(*workers, 1),
		Timeout:  *timeout,
		Settle:   *settle,
		LogFile:  *logFile,
		Verbose:  *verbose,
	}

	if _, err := shotgen.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
