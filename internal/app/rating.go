package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/skillrate/internal/domain/rating"
	"github.com/okian/skillrate/internal/domain/roster"
	"github.com/okian/skillrate/internal/domain/trueskill"
	"github.com/okian/skillrate/pkg/logger"
	"github.com/okian/skillrate/pkg/metrics"
)

// Result is a rated match plus its quality in [0,1].
type Result struct {
	Teams        []rating.ResultTeam
	MatchQuality float64
}

// RatingConfig returns the parameters used when a request carries none.
func (s *Service) RatingConfig() rating.Config {
	return s.ratingConfig
}

// DefaultTeams returns the starter roster.
func (s *Service) DefaultTeams() []rating.Team {
	return roster.FirstTwoTeams(s.settings)
}

// Calculate validates a roster, rates it and scores its quality.
// A nil cfg uses the service parameters.
func (s *Service) Calculate(ctx context.Context, cfg *rating.Config, teams []rating.Team) (Result, error) {
	c, err := s.prepare(cfg, teams)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	results, err := s.calculator.CalculateRatings(c, teams)
	metrics.RecordComputation(metrics.OpRate, msSince(start))
	if err != nil {
		s.computationFailed(ctx, metrics.OpRate, err)
		return Result{}, err
	}
	s.recordFallback(ctx, teams)

	quality, err := s.quality(ctx, c, teams)
	if err != nil {
		return Result{}, err
	}

	metrics.RecordMatchShape(len(teams), playerCount(teams))
	s.logger.Debug(ctx, "match rated",
		logger.Int("teams", len(teams)),
		logger.Float64("quality", quality),
		logger.Duration("took", time.Since(start)),
	)
	return Result{Teams: results, MatchQuality: quality}, nil
}

// ExpectedScores validates a roster and returns one expected score per team.
func (s *Service) ExpectedScores(ctx context.Context, cfg *rating.Config, teams []rating.Team) ([]float64, error) {
	c, err := s.prepare(cfg, teams)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	scores := s.calculator.ExpectedScores(c, teams)
	metrics.RecordComputation(metrics.OpExpected, msSince(start))
	return scores, nil
}

// MatchQuality validates a roster and returns its quality in [0,1].
func (s *Service) MatchQuality(ctx context.Context, cfg *rating.Config, teams []rating.Team) (float64, error) {
	c, err := s.prepare(cfg, teams)
	if err != nil {
		return 0, err
	}
	return s.quality(ctx, c, teams)
}

func (s *Service) quality(ctx context.Context, cfg rating.Config, teams []rating.Team) (float64, error) {
	start := time.Now()
	q, err := s.calculator.MatchQuality(cfg, teams)
	metrics.RecordComputation(metrics.OpQuality, msSince(start))
	if err != nil {
		s.computationFailed(ctx, metrics.OpQuality, err)
		return 0, err
	}
	metrics.RecordMatchQuality(q)
	return q, nil
}

// prepare resolves the parameters and checks the roster bounds.
func (s *Service) prepare(cfg *rating.Config, teams []rating.Team) (rating.Config, error) {
	c := s.ratingConfig
	if cfg != nil {
		c = *cfg
	}
	if err := validateConfig(c); err != nil {
		return c, err
	}
	return c, roster.Validate(teams, s.limits)
}

// validateConfig mirrors the engine's own parameter checks so bad request
// parameters surface as validation errors rather than computation failures.
func validateConfig(c rating.Config) error {
	_, err := trueskill.New(
		trueskill.WithBeta(c.Beta),
		trueskill.WithTau(c.Tau),
		trueskill.WithDrawProbability(c.DrawProbability),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (s *Service) computationFailed(ctx context.Context, op string, err error) {
	kind := "engine"
	switch {
	case errors.Is(err, trueskill.ErrInvalidRating):
		kind = "invalid_rating"
	case errors.Is(err, trueskill.ErrNumerical):
		kind = "numerical"
	}
	metrics.RecordComputationError(op, kind)
	s.logger.Warn(ctx, "rating computation failed",
		logger.String("op", op),
		logger.String("kind", kind),
		logger.Error(err),
	)
}

func (s *Service) recordFallback(ctx context.Context, teams []rating.Team) {
	reason := ""
	switch {
	case len(teams) < 2:
		reason = "single_team"
	default:
		for _, t := range teams {
			if len(t.Players) == 0 {
				reason = "empty_team"
				break
			}
		}
	}
	if reason == "" {
		return
	}
	metrics.RecordFallback(reason)
	s.logger.Info(ctx, "rating update skipped", logger.String("reason", reason))
}

func playerCount(teams []rating.Team) int {
	n := 0
	for _, t := range teams {
		n += len(t.Players)
	}
	return n
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
