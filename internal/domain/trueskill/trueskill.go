package trueskill

import (
	"fmt"
	"math"
	"sort"
)

// Default environment values.
const (
	DefaultMu              = 25.0
	DefaultSigma           = DefaultMu / 3
	DefaultBeta            = DefaultSigma / 2
	DefaultTau             = DefaultSigma / 100
	DefaultDrawProbability = 0.10
	DefaultMinDelta        = 0.0001

	maxIterations = 10
)

// Rating is a player's skill estimate.
type Rating struct {
	Mu    float64
	Sigma float64
}

// Conservative returns mu - k*sigma, the usual leaderboard skill.
func (r Rating) Conservative(k float64) float64 {
	return r.Mu - k*math.Abs(r.Sigma)
}

// TrueSkill holds the environment parameters of the model.
type TrueSkill struct {
	mu              float64
	sigma           float64
	beta            float64
	tau             float64
	drawProbability float64
	minDelta        float64
}

// Option configures a TrueSkill environment.
type Option func(*TrueSkill)

// WithMu sets the initial mean of new ratings.
func WithMu(mu float64) Option {
	return func(t *TrueSkill) { t.mu = mu }
}

// WithSigma sets the initial standard deviation of new ratings.
func WithSigma(sigma float64) Option {
	return func(t *TrueSkill) { t.sigma = sigma }
}

// WithBeta sets the performance variance distance.
func WithBeta(beta float64) Option {
	return func(t *TrueSkill) { t.beta = beta }
}

// WithTau sets the dynamics factor added to sigma before each update.
func WithTau(tau float64) Option {
	return func(t *TrueSkill) { t.tau = tau }
}

// WithDrawProbability sets the prior probability of a draw.
func WithDrawProbability(p float64) Option {
	return func(t *TrueSkill) { t.drawProbability = p }
}

// WithMinDelta sets the convergence threshold and the minimum partial-play weight.
func WithMinDelta(d float64) Option {
	return func(t *TrueSkill) { t.minDelta = d }
}

// New creates an environment with defaults overridden by opts.
func New(opts ...Option) (*TrueSkill, error) {
	t := &TrueSkill{
		mu:              DefaultMu,
		sigma:           DefaultSigma,
		beta:            DefaultBeta,
		tau:             DefaultTau,
		drawProbability: DefaultDrawProbability,
		minDelta:        DefaultMinDelta,
	}
	for _, opt := range opts {
		opt(t)
	}
	if math.IsNaN(t.drawProbability) || t.drawProbability < 0 || t.drawProbability >= 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDrawProbability, t.drawProbability)
	}
	if !finite(t.beta) || t.beta <= 0 {
		return nil, fmt.Errorf("beta must be positive: %v", t.beta)
	}
	if !finite(t.tau) || t.tau < 0 {
		return nil, fmt.Errorf("tau must be non-negative: %v", t.tau)
	}
	if !finite(t.minDelta) || t.minDelta <= 0 {
		return nil, fmt.Errorf("min delta must be positive: %v", t.minDelta)
	}
	return t, nil
}

// Beta returns the performance variance distance.
func (t *TrueSkill) Beta() float64 { return t.beta }

// NewRating returns a rating at the environment's prior.
func (t *TrueSkill) NewRating() Rating {
	return Rating{Mu: t.mu, Sigma: t.sigma}
}

// DrawMargin returns the draw margin for a match with size players
// across the two teams being compared.
func (t *TrueSkill) DrawMargin(size int) float64 {
	return PPF((t.drawProbability+1)/2) * math.Sqrt(float64(size)) * t.beta
}

// Rate computes posterior ratings for a match. groups lists the ratings of each
// team, ranks holds one rank per team (lower is better, equal is a draw) and
// weights holds one partial-play weight per player. A nil ranks means the
// groups are in finishing order; nil weights means full participation.
// The result has the same shape and order as groups.
func (t *TrueSkill) Rate(groups [][]Rating, ranks []int, weights [][]float64) ([][]Rating, error) {
	if err := t.validate(groups, ranks, weights); err != nil {
		return nil, err
	}
	if ranks == nil {
		ranks = make([]int, len(groups))
		for i := range ranks {
			ranks[i] = i
		}
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return ranks[order[a]] < ranks[order[b]] })

	sortedGroups := make([][]Rating, len(groups))
	sortedRanks := make([]int, len(groups))
	sortedWeights := make([][]float64, len(groups))
	for pos, idx := range order {
		sortedGroups[pos] = groups[idx]
		sortedRanks[pos] = ranks[idx]
		w := make([]float64, len(groups[idx]))
		for j := range w {
			w[j] = 1
			if weights != nil {
				w[j] = weights[idx][j]
			}
			w[j] = math.Max(t.minDelta, w[j])
		}
		sortedWeights[pos] = w
	}

	g := t.buildGraph(sortedGroups, sortedRanks, sortedWeights)
	if err := g.run(t.minDelta); err != nil {
		return nil, err
	}

	result := make([][]Rating, len(groups))
	k := 0
	for pos, idx := range order {
		team := make([]Rating, len(sortedGroups[pos]))
		for j := range team {
			v := g.priors[k].v
			team[j] = Rating{Mu: v.Mu(), Sigma: v.Sigma()}
			k++
		}
		result[idx] = team
	}
	return result, nil
}

func (t *TrueSkill) validate(groups [][]Rating, ranks []int, weights [][]float64) error {
	if len(groups) < 2 {
		return ErrTooFewGroups
	}
	if ranks != nil && len(ranks) != len(groups) {
		return fmt.Errorf("%w: %d ranks for %d groups", ErrRanksMismatch, len(ranks), len(groups))
	}
	if weights != nil && len(weights) != len(groups) {
		return fmt.Errorf("%w: %d weight groups for %d groups", ErrWeightsMismatch, len(weights), len(groups))
	}
	for g, group := range groups {
		if len(group) == 0 {
			return fmt.Errorf("%w: group %d", ErrEmptyGroup, g)
		}
		if weights != nil && len(weights[g]) != len(group) {
			return fmt.Errorf("%w: group %d has %d weights for %d ratings", ErrWeightsMismatch, g, len(weights[g]), len(group))
		}
		for i, r := range group {
			if !finite(r.Mu) {
				return &RatingError{Group: g, Index: i, Field: "mu", Value: r.Mu}
			}
			if !finite(r.Sigma) || r.Sigma == 0 {
				return &RatingError{Group: g, Index: i, Field: "sigma", Value: r.Sigma}
			}
			if weights != nil && (math.IsNaN(weights[g][i]) || math.IsInf(weights[g][i], 0)) {
				return &RatingError{Group: g, Index: i, Field: "weight", Value: weights[g][i]}
			}
		}
	}
	return nil
}

type graph struct {
	priors   []*priorFactor
	perfs    []*likelihoodFactor
	teamPerf []*sumFactor
	teamDiff []*sumFactor
	truncs   []*truncateFactor
}

func (t *TrueSkill) buildGraph(groups [][]Rating, ranks []int, weights [][]float64) *graph {
	g := &graph{}
	teamPerfVars := make([]*variable, len(groups))
	for team, group := range groups {
		perfVars := make([]*variable, len(group))
		for i, r := range group {
			skill, perf := &variable{}, &variable{}
			g.priors = append(g.priors, &priorFactor{v: skill, rating: r, dynamic: t.tau})
			g.perfs = append(g.perfs, &likelihoodFactor{mean: skill, value: perf, variance: t.beta * t.beta})
			perfVars[i] = perf
		}
		teamPerfVars[team] = &variable{}
		g.teamPerf = append(g.teamPerf, newSumFactor(teamPerfVars[team], perfVars, weights[team]))
	}
	for x := 0; x < len(groups)-1; x++ {
		diff := &variable{}
		g.teamDiff = append(g.teamDiff, newSumFactor(diff, teamPerfVars[x:x+2], []float64{1, -1}))

		size := len(groups[x]) + len(groups[x+1])
		f := &truncateFactor{v: diff, margin: t.DrawMargin(size), vFunc: vWin, wFunc: wWin}
		if ranks[x] == ranks[x+1] {
			f.vFunc, f.wFunc = vDraw, wDraw
		}
		g.truncs = append(g.truncs, f)
	}
	return g
}

func (g *graph) run(minDelta float64) error {
	for _, f := range g.priors {
		f.down()
	}
	for _, f := range g.perfs {
		f.down()
	}
	for _, f := range g.teamPerf {
		f.down()
	}

	last := len(g.teamDiff) - 1
	for i := 0; i < maxIterations; i++ {
		var delta float64
		if last == 0 {
			g.teamDiff[0].down()
			d, err := g.truncs[0].up()
			if err != nil {
				return err
			}
			delta = d
		} else {
			for x := 0; x < last; x++ {
				g.teamDiff[x].down()
				d, err := g.truncs[x].up()
				if err != nil {
					return err
				}
				delta = math.Max(delta, d)
				g.teamDiff[x].up(1)
			}
			for x := last; x > 0; x-- {
				g.teamDiff[x].down()
				d, err := g.truncs[x].up()
				if err != nil {
					return err
				}
				delta = math.Max(delta, d)
				g.teamDiff[x].up(0)
			}
		}
		if delta <= minDelta {
			break
		}
	}

	g.teamDiff[0].up(0)
	g.teamDiff[last].up(1)
	for _, f := range g.teamPerf {
		for x := range f.coeffs {
			f.up(x)
		}
	}
	for _, f := range g.perfs {
		f.up()
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
