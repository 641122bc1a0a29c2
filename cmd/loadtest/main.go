package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/skillrate/internal/loadtest"
	"github.com/pkg/profile"
)

// Default configuration constants.
const (
	defaultMatches     = 1000
	defaultTeams       = 2
	defaultPlayers     = 2
	defaultPool        = 200
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSettle      = time.Minute
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		matches  = flag.Int("matches", defaultMatches, "Number of matches to generate")
		teams    = flag.Int("teams", defaultTeams, "Teams per match")
		players  = flag.Int("players", defaultPlayers, "Players per team")
		pool     = flag.Int("pool", defaultPool, "Distinct ledger players")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle   = flag.Duration("settle", defaultSettle, "Time allowed for the ledger to drain")
		topN     = flag.Int("top", defaultTopN, "Number of leaderboard entries to fetch")
		seed     = flag.Uint64("seed", 0, "Generator seed, 0 for a random one")
		logFile  = flag.String("log", "", `Log file, "-" for stdout only`)
		profName = flag.String("profile", "", "Write a cpu or mem profile")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	closer, err := loadtest.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	switch *profName {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	default:
		os.Stderr.WriteString("unknown profile " + *profName + ", want cpu or mem\n")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &loadtest.Config{
		BaseURL: *baseURL,
		Matches: *matches,
		Teams:   *teams,
		Players: *players,
		Pool:    *pool,
		Workers: *workers,
		Timeout: *timeout,
		TopN:    *topN,
		Settle:  *settle,
		Seed:    *seed,
		Verbose: *verbose,
	}

	if _, err := loadtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		cancel()
		closer.Close()
		os.Exit(1)
	}
}
