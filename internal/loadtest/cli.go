package loadtest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/skillrate/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging initializes the logger to write to stdout and, unless logFile
// is "-", to a log file. An empty logFile gets a timestamped name.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = io.NopCloser(nil)

	if logFile != "-" {
		if logFile == "" {
			logFile = "loadtest_" + time.Now().Format("20060102_150405") + ".log"
		}
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	if err := logger.Init(logger.WithWriter(out)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`skillrate load test
===================

Drives a running skillrate service with random matches. Every roster is
rated through POST /trueskill and checked (one result per team, expected
scores summing to 1, rating changes consistent with the returned ratings,
quality within [0, 100]); every ledger match is submitted through
POST /matches, and once the ledger settles the leaderboard order and a
sample of player lookups are checked.

Usage:
  go run ./cmd/loadtest [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -matches int       Number of matches to generate (default 1000)
  -teams int         Teams per match (default 2)
  -players int       Players per team (default 2)
  -pool int          Distinct ledger players (default 200)
  -workers int       Concurrent HTTP workers (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 30s)
  -settle duration   Time allowed for the ledger to drain (default 1m)
  -top int           Leaderboard entries to fetch and check (default 50)
  -seed uint         Generator seed, 0 for a random one
  -log string        Log file, "-" for stdout only (default loadtest_TIMESTAMP.log)
  -profile string    Write a cpu or mem profile to the working directory
  -verbose           Dump failing requests and responses
  -help              Show this help message

Examples:
  go run ./cmd/loadtest -matches 20000 -teams 4 -players 3 -pool 5000
  go run ./cmd/loadtest -profile cpu -log -
`)
}
