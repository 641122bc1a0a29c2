package rating

import (
	"errors"

	"github.com/okian/skillrate/internal/domain/trueskill"
)

// Engine is the Bayesian rating capability consumed by the calculator.
type Engine interface {
	// Rate returns one new rating per input rating, in the same order.
	Rate(ratings [][]Rating, ranks []int, weights [][]float64) ([][]Rating, error)
	// Quality returns the match quality in [0,1].
	Quality(ratings [][]Rating, weights [][]float64) (float64, error)
}

// EngineFactory builds an engine for a configuration.
type EngineFactory func(Config) Engine

// CDF is the standard normal cumulative distribution function.
type CDF func(x float64) float64

// TrueSkillEngine adapts the trueskill package to Engine.
type TrueSkillEngine struct {
	cfg Config
}

// NewTrueSkillEngine is the default EngineFactory.
func NewTrueSkillEngine(cfg Config) Engine {
	return &TrueSkillEngine{cfg: cfg}
}

func (e *TrueSkillEngine) env() (*trueskill.TrueSkill, error) {
	return trueskill.New(
		trueskill.WithBeta(e.cfg.Beta),
		trueskill.WithTau(e.cfg.Tau),
		trueskill.WithDrawProbability(e.cfg.DrawProbability),
	)
}

// Rate implements Engine.
func (e *TrueSkillEngine) Rate(ratings [][]Rating, ranks []int, weights [][]float64) ([][]Rating, error) {
	env, err := e.env()
	if err != nil {
		return nil, err
	}
	out, err := env.Rate(toEngine(ratings), ranks, weights)
	if err != nil {
		return nil, err
	}
	return fromEngine(out), nil
}

// Quality implements Engine.
func (e *TrueSkillEngine) Quality(ratings [][]Rating, weights [][]float64) (float64, error) {
	env, err := e.env()
	if err != nil {
		return 0, err
	}
	return env.Quality(toEngine(ratings), weights)
}

func toEngine(in [][]Rating) [][]trueskill.Rating {
	out := make([][]trueskill.Rating, len(in))
	for i, team := range in {
		out[i] = make([]trueskill.Rating, len(team))
		for j, r := range team {
			out[i][j] = trueskill.Rating{Mu: r.Mu, Sigma: r.Sigma}
		}
	}
	return out
}

func fromEngine(in [][]trueskill.Rating) [][]Rating {
	out := make([][]Rating, len(in))
	for i, team := range in {
		out[i] = make([]Rating, len(team))
		for j, r := range team {
			out[i][j] = Rating{Mu: r.Mu, Sigma: r.Sigma}
		}
	}
	return out
}

// computationError wraps an engine failure, lifting the team/player/field
// from a trueskill.RatingError when present.
func computationError(op string, err error) error {
	ce := &ComputationError{Op: op, Team: -1, Player: -1, Err: err}
	var re *trueskill.RatingError
	if errors.As(err, &re) {
		ce.Team, ce.Player, ce.Field = re.Group, re.Index, re.Field
	}
	return ce
}
