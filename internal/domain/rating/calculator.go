package rating

import (
	"fmt"
	"math"

	"github.com/okian/skillrate/internal/domain/trueskill"
)

// Operation names carried by ComputationError.
const (
	OpRate    = "rate"
	OpQuality = "quality"
)

// Option configures a Calculator.
type Option func(*Calculator)

// WithEngineFactory replaces the rating engine.
func WithEngineFactory(f EngineFactory) Option {
	return func(c *Calculator) {
		if f != nil {
			c.engine = f
		}
	}
}

// WithCDF replaces the normal CDF used for expected scores.
func WithCDF(cdf CDF) Option {
	return func(c *Calculator) {
		if cdf != nil {
			c.cdf = cdf
		}
	}
}

// Calculator computes ratings, expected scores and match quality.
// It holds no per-request state and is safe for concurrent use.
type Calculator struct {
	engine EngineFactory
	cdf    CDF
}

// NewCalculator creates a calculator backed by the TrueSkill engine.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		engine: NewTrueSkillEngine,
		cdf:    trueskill.CDF,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExpectedScores returns one normalized win-probability aggregate per team,
// in input order. Ranks and weights are ignored.
func (c *Calculator) ExpectedScores(cfg Config, teams []Team) []float64 {
	n := len(teams)
	scores := make([]float64, n)
	switch n {
	case 0:
		return scores
	case 1:
		scores[0] = 1
		return scores
	}

	playerCount := 0
	muSums := make([]float64, n)
	sigmaSqSums := make([]float64, n)
	for i, t := range teams {
		playerCount += len(t.Players)
		for _, p := range t.Players {
			muSums[i] += p.Rating.Mu
			sigmaSqSums[i] += p.Rating.Sigma * p.Rating.Sigma
		}
	}
	betaSq := float64(playerCount) * cfg.Beta * cfg.Beta

	var total float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			delta := muSums[i] - muSums[j]
			denom := math.Sqrt(sigmaSqSums[i] + sigmaSqSums[j] + betaSq)
			p := c.pairProbability(delta, denom)
			scores[i] += p
			total += p
		}
	}

	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		for i := range scores {
			scores[i] = 1 / float64(n)
		}
		return scores
	}
	for i := range scores {
		scores[i] /= total
	}
	return scores
}

// pairProbability is cdf(delta/denom) with a sign-based fallback when denom is 0.
func (c *Calculator) pairProbability(delta, denom float64) float64 {
	if denom == 0 {
		switch {
		case delta > 0:
			return 1
		case delta < 0:
			return 0
		default:
			return 0.5
		}
	}
	return c.cdf(delta / denom)
}

// CalculateRatings returns one ResultTeam per input team. If any team has no
// players, or there is only one team, the rating update is skipped for every
// team and all changes are zero.
func (c *Calculator) CalculateRatings(cfg Config, teams []Team) ([]ResultTeam, error) {
	if len(teams) == 0 {
		return []ResultTeam{}, nil
	}
	expected := c.ExpectedScores(cfg, teams)

	if len(teams) < 2 || hasEmptyTeam(teams) {
		results := make([]ResultTeam, len(teams))
		for i, t := range teams {
			results[i] = newResultTeam(t, expected[i])
			for j, p := range t.Players {
				results[i].Players[j] = ResultPlayer{Name: p.Name, Rating: p.Rating, Weight: p.Weight}
			}
		}
		return results, nil
	}

	ratings, ranks, weights := tensors(teams)
	updated, err := c.engine(cfg).Rate(ratings, ranks, weights)
	if err != nil {
		return nil, computationError(OpRate, err)
	}
	if len(updated) != len(teams) {
		return nil, &ComputationError{Op: OpRate, Team: -1, Player: -1,
			Err: fmt.Errorf("%w: got %d teams, want %d", ErrResultShape, len(updated), len(teams))}
	}

	results := make([]ResultTeam, len(teams))
	for i, t := range teams {
		if len(updated[i]) != len(t.Players) {
			return nil, &ComputationError{Op: OpRate, Team: i, Player: -1,
				Err: fmt.Errorf("%w: got %d players, want %d", ErrResultShape, len(updated[i]), len(t.Players))}
		}
		results[i] = newResultTeam(t, expected[i])
		for j, p := range t.Players {
			results[i].Players[j] = ResultPlayer{
				Name:   p.Name,
				Rating: updated[i][j],
				Weight: p.Weight,
				RatingChanges: RatingChange{
					Mu:    updated[i][j].Mu - p.Rating.Mu,
					Sigma: updated[i][j].Sigma - p.Rating.Sigma,
				},
			}
		}
	}
	return results, nil
}

// MatchQuality returns the engine's quality in [0,1], or 0 when there are
// fewer than two teams or any team is empty.
func (c *Calculator) MatchQuality(cfg Config, teams []Team) (float64, error) {
	if len(teams) < 2 || hasEmptyTeam(teams) {
		return 0, nil
	}
	ratings, _, weights := tensors(teams)
	q, err := c.engine(cfg).Quality(ratings, weights)
	if err != nil {
		return 0, computationError(OpQuality, err)
	}
	return q, nil
}

func newResultTeam(t Team, expected float64) ResultTeam {
	return ResultTeam{
		Name:          t.Name,
		Rank:          t.Rank,
		Players:       make([]ResultPlayer, len(t.Players)),
		ExpectedScore: expected,
	}
}
