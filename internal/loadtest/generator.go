package loadtest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/skillrate/internal/domain/rating"
	"github.com/okian/skillrate/internal/domain/roster"
	"github.com/okian/skillrate/pkg/logger"
)

// Rating ranges for generated players.
const (
	muMin      = 10.0
	muRange    = 30.0
	sigmaMin   = 1.0
	sigmaRange = 7.0
	weightMin  = 0.5
)

// ErrInvalidConfig is returned when a run cannot be generated from its config.
var ErrInvalidConfig = errors.New("invalid load test config")

// validate checks the shape parameters.
func (c *Config) validate() error {
	switch {
	case c.Matches < 1:
		return fmt.Errorf("%w: matches must be positive", ErrInvalidConfig)
	case c.Teams < roster.MinTeams || c.Teams > roster.MaxTeams:
		return fmt.Errorf("%w: teams must be in [%d, %d]", ErrInvalidConfig, roster.MinTeams, roster.MaxTeams)
	case c.Players < roster.MinPlayers || c.Players > roster.MaxPlayers:
		return fmt.Errorf("%w: players must be in [%d, %d]", ErrInvalidConfig, roster.MinPlayers, roster.MaxPlayers)
	case c.Pool < c.Teams*c.Players:
		return fmt.Errorf("%w: pool of %d cannot fill %d teams of %d", ErrInvalidConfig, c.Pool, c.Teams, c.Players)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.TopN < 1:
		return fmt.Errorf("%w: top must be positive", ErrInvalidConfig)
	}
	return nil
}

// Workload is the generated input of a run.
type Workload struct {
	Rates   []RateRequest
	Matches []Match
	Players []string
}

// generator builds random rosters from a seeded source.
type generator struct {
	rng      *rand.Rand
	settings roster.Settings
	limits   roster.Limits
}

func newGenerator(seed uint64) *generator {
	return &generator{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint:gosec // load data needs no crypto
		settings: roster.DefaultSettings(),
		limits:   roster.DefaultLimits(),
	}
}

// generate creates the roster and ledger inputs of a run.
func generate(ctx context.Context, config *Config, stats *Stats) (*Workload, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger.Get().Info(ctx, "generating matches",
		logger.Int("matches", config.Matches),
		logger.Int("teams", config.Teams),
		logger.Int("players", config.Players),
		logger.Any("seed", seed))

	g := newGenerator(seed)
	w := &Workload{
		Rates:   make([]RateRequest, config.Matches),
		Matches: make([]Match, config.Matches),
		Players: make([]string, config.Pool),
	}
	for i := range w.Players {
		w.Players[i] = uuid.NewString()
	}

	for i := 0; i < config.Matches; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		w.Rates[i] = g.rateRequest(config.Teams, config.Players)
		w.Matches[i] = g.match(w.Players, config.Teams, config.Players)
	}

	stats.MatchesGenerated = config.Matches
	return w, nil
}

// rateRequest grows a default roster to the requested shape and randomizes it.
func (g *generator) rateRequest(teamCount, playerCount int) RateRequest {
	teams := []rating.Team{}
	for len(teams) < teamCount {
		teams = roster.AddTeam(g.settings, g.limits, teams)
	}
	for i := range teams {
		t := teams[i]
		for len(t.Players) < playerCount {
			t = roster.AddPlayer(g.settings, g.limits, t)
		}
		for len(t.Players) > playerCount {
			t = roster.RemovePlayer(g.limits, t, len(t.Players)-1)
		}
		for j := range t.Players {
			p := roster.UpdatePlayerRating(t.Players[j], muMin+g.rng.Float64()*muRange, sigmaMin+g.rng.Float64()*sigmaRange)
			t.Players[j] = roster.UpdatePlayerWeight(p, weightMin+g.rng.Float64()*(1-weightMin))
		}
		teams[i] = roster.UpdateTeamRank(t, teamCount, 1+g.rng.IntN(teamCount))
	}
	return RateRequest{Teams: toWire(teams)}
}

// match draws distinct players from the pool.
func (g *generator) match(pool []string, teamCount, playerCount int) Match {
	picked := g.rng.Perm(len(pool))[:teamCount*playerCount]
	m := Match{MatchID: uuid.NewString(), Teams: make([]matchTeam, teamCount)}
	for i := range m.Teams {
		players := make([]matchPlayer, playerCount)
		for j := range players {
			players[j] = matchPlayer{PlayerID: pool[picked[i*playerCount+j]], Weight: 1}
		}
		m.Teams[i] = matchTeam{Rank: 1 + g.rng.IntN(teamCount), Players: players}
	}
	return m
}

func toWire(teams []rating.Team) []team {
	out := make([]team, len(teams))
	for i, t := range teams {
		players := make([]player, len(t.Players))
		for j, p := range t.Players {
			players[j] = player{Name: p.Name, Rating: [2]float64{p.Rating.Mu, p.Rating.Sigma}, Weight: p.Weight}
		}
		out[i] = team{Name: t.Name, Rank: t.Rank, Players: players}
	}
	return out
}
