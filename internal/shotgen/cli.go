package shotgen

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/shotline/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging sends log output to stdout and, when logFile is set, to that
// file as well.
func SetupLogging(logFile string) error {
	if logFile == "" {
		return logger.Init()
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information.
func ShowHelp() {
	os.Stdout.WriteString(`Shotline Shot Generator
=======================

Simulates curling ends, submits every throw to a running service and
checks the accuracy records it stores.

Usage:
  go run ./cmd/shotgen [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -shots int
        Number of shots to generate, sixteen per end (default 1600)
  -first-id int
        ID of the first generated shot (default 1)
  -seed uint
        Seed for the board simulation (default 1)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -settle duration
        How long to wait for each shot to be analyzed (default 10s)
  -log string
        Also write log output to this file
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run ./cmd/shotgen

  # Replay the same ends against another instance
  go run ./cmd/shotgen -seed 42 -shots 16000 -url http://localhost:8080
`)
}
