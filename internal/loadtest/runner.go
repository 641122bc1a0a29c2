package loadtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/okian/skillrate/pkg/logger"
	"github.com/schollz/progressbar/v3"
)

// ErrChecksFailed is returned when the service answered but a check did not hold.
var ErrChecksFailed = errors.New("load test checks failed")

// Run executes the complete load test.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("loadtest")

	log.Info(ctx, "starting skillrate load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("matches", config.Matches),
		logger.Int("teams", config.Teams),
		logger.Int("players", config.Players),
		logger.Int("pool", config.Pool),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Int("topN", config.TopN))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	if err := client.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	work, err := generate(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("match generation failed: %w", err)
	}

	rateMatches(ctx, config, client, work.Rates, stats)
	submitMatches(ctx, config, client, work.Matches, stats)

	if err := waitForLedger(ctx, config, client); err != nil {
		return stats, fmt.Errorf("ledger did not settle: %w", err)
	}
	if err := verifyLedger(ctx, config, client, stats); err != nil {
		return stats, fmt.Errorf("ledger verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.RatingsFailed > 0 || stats.CheckFailures > 0 || stats.MatchesFailed > 0 {
		return stats, fmt.Errorf("%w: %d rating errors, %d check failures, %d rejected matches",
			ErrChecksFailed, stats.RatingsFailed, stats.CheckFailures, stats.MatchesFailed)
	}
	log.Info(ctx, "test completed successfully")
	return stats, nil
}

// fanOut runs fn over indices [0, n) with the configured number of workers.
func fanOut(ctx context.Context, config *Config, label string, n int, fn func(i int)) {
	var bar *progressbar.ProgressBar
	if !config.Quiet {
		bar = progressbar.Default(int64(n), label)
		defer func() { _ = bar.Finish() }()
	}

	jobs := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}()
	}

	func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()
}

// rateMatches posts every roster to /trueskill and checks the answers.
func rateMatches(ctx context.Context, config *Config, client *HTTPClient, reqs []RateRequest, stats *Stats) {
	log := logger.Get().Named("loadtest")
	var requested, failed, checks atomic.Int64

	fanOut(ctx, config, "rating", len(reqs), func(i int) {
		requested.Add(1)
		resp, err := client.rate(ctx, reqs[i])
		if err != nil {
			failed.Add(1)
			log.Warn(ctx, "rating request failed", logger.Int("match", i), logger.Error(err))
			return
		}
		problems := checkRating(reqs[i], resp)
		if len(problems) == 0 {
			return
		}
		checks.Add(1)
		fields := []logger.Field{logger.Int("match", i), logger.Any("problems", problems)}
		if config.Verbose {
			fields = append(fields, logger.String("request", spew.Sdump(reqs[i])), logger.String("response", spew.Sdump(resp)))
		}
		log.Warn(ctx, "rating check failed", fields...)
	})

	stats.RatingsRequested = int(requested.Load())
	stats.RatingsFailed = int(failed.Load())
	stats.CheckFailures += int(checks.Load())
}

// submitMatches posts every ledger match to /matches.
func submitMatches(ctx context.Context, config *Config, client *HTTPClient, matches []Match, stats *Stats) {
	log := logger.Get().Named("loadtest")
	var accepted, duplicate, failed atomic.Int64

	fanOut(ctx, config, "submitting", len(matches), func(i int) {
		ack, err := client.submit(ctx, matches[i])
		switch {
		case err != nil:
			failed.Add(1)
			if config.Verbose {
				log.Warn(ctx, "match submission failed", logger.String("matchID", matches[i].MatchID), logger.Error(err))
			}
		case ack.Duplicate:
			duplicate.Add(1)
		default:
			accepted.Add(1)
		}
	})

	stats.MatchesAccepted = int(accepted.Load())
	stats.MatchesDuplicate = int(duplicate.Load())
	stats.MatchesFailed = int(failed.Load())
}

// waitForLedger polls /stats until the queue is drained and no worker is
// busy on two consecutive polls.
func waitForLedger(ctx context.Context, config *Config, client *HTTPClient) error {
	ctx, cancel := context.WithTimeout(ctx, config.Settle)
	defer cancel()

	ticker := time.NewTicker(SettlePollInterval)
	defer ticker.Stop()
	idle := 0
	for {
		stats, err := client.stats(ctx)
		if err == nil && number(stats["queueLength"]) == 0 && number(stats["activeWorkers"]) == 0 {
			idle++
		} else {
			idle = 0
		}
		if idle == 2 {
			return nil
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("%w: %w", ctx.Err(), err)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// verifyLedger checks the leaderboard and a sample of player lookups.
func verifyLedger(ctx context.Context, config *Config, client *HTTPClient, stats *Stats) error {
	log := logger.Get().Named("loadtest")

	board, err := client.leaderboard(ctx, config.TopN)
	if err != nil {
		return err
	}
	stats.LeaderboardEntries = len(board)
	if problems := checkLeaderboard(board, config.TopN); len(problems) > 0 {
		stats.CheckFailures++
		log.Warn(ctx, "leaderboard check failed", logger.Any("problems", problems))
	}

	for i := 0; i < len(board) && i < playersToCheck; i++ {
		got, err := client.player(ctx, board[i].PlayerID)
		if err != nil {
			return err
		}
		stats.PlayersChecked++
		if problems := checkPlayer(board[i], got); len(problems) > 0 {
			stats.CheckFailures++
			log.Warn(ctx, "player check failed", logger.Any("problems", problems))
		}
	}

	if config.Verbose && len(board) > 0 {
		log.Info(ctx, "leaderboard top", logger.String("entries", spew.Sdump(board[:min(len(board), playersToCheck)])))
	}
	return nil
}

func number(v any) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return -1
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, matchesPerSecond float64
	submitted := stats.MatchesAccepted + stats.MatchesDuplicate + stats.MatchesFailed
	if submitted > 0 {
		acceptRate = float64(stats.MatchesAccepted) / float64(submitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		matchesPerSecond = float64(stats.RatingsRequested+submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("matchesGenerated", stats.MatchesGenerated),
		logger.Int("ratingsRequested", stats.RatingsRequested),
		logger.Int("ratingsFailed", stats.RatingsFailed),
		logger.Int("checkFailures", stats.CheckFailures),
		logger.Int("matchesAccepted", stats.MatchesAccepted),
		logger.Int("matchesDuplicate", stats.MatchesDuplicate),
		logger.Int("matchesFailed", stats.MatchesFailed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Int("playersChecked", stats.PlayersChecked),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("requestsPerSecond", matchesPerSecond))
}
