// Package config defines service configuration and how it is loaded.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading errors wrap ErrLoadConfig, validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"math"
	"runtime"

	"github.com/okian/skillrate/internal/domain/rating"
	"github.com/okian/skillrate/internal/domain/roster"
	"github.com/okian/skillrate/pkg/logger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Beta, Tau and DrawProbability are the service's TrueSkill parameters.
	Beta            float64 `koanf:"beta"`
	Tau             float64 `koanf:"tau"`
	DrawProbability float64 `koanf:"draw_probability"`

	// DefaultMu, DefaultSigma and DefaultTeamSize shape new roster players and teams.
	DefaultMu       float64 `koanf:"default_mu"`
	DefaultSigma    float64 `koanf:"default_sigma"`
	DefaultTeamSize int     `koanf:"default_team_size"`

	// Roster bounds enforced on every request. MinPlayers 0 lets empty
	// teams through to the rating fallback.
	MinTeams   int `koanf:"min_teams"`
	MaxTeams   int `koanf:"max_teams"`
	MinPlayers int `koanf:"min_players"`
	MaxPlayers int `koanf:"max_players"`

	// QueueSize bounds the in-memory match queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of rating workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the match deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           logger.FormatText,
		Addr:                ":9080",
		Beta:                rating.DefaultBeta,
		Tau:                 rating.DefaultTau,
		DrawProbability:     rating.DefaultDrawProbability,
		DefaultMu:           roster.DefaultMu,
		DefaultSigma:        roster.DefaultSigma,
		DefaultTeamSize:     roster.DefaultTeamSize,
		MinTeams:            roster.MinTeams,
		MaxTeams:            roster.MaxTeams,
		MinPlayers:          roster.MinPlayers,
		MaxPlayers:          roster.MaxPlayers,
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		MaxLeaderboardLimit: 100,
	}
}

// Rating returns the engine parameters.
func (c *Config) Rating() rating.Config {
	return rating.Config{Beta: c.Beta, Tau: c.Tau, DrawProbability: c.DrawProbability}
}

// RosterSettings returns the starting values for new teams and players.
func (c *Config) RosterSettings() roster.Settings {
	return roster.Settings{
		DefaultMu:       c.DefaultMu,
		DefaultSigma:    c.DefaultSigma,
		DefaultTeamSize: c.DefaultTeamSize,
	}
}

// RosterLimits returns the team and player bounds.
func (c *Config) RosterLimits() roster.Limits {
	return roster.Limits{
		MinTeams:   c.MinTeams,
		MaxTeams:   c.MaxTeams,
		MinPlayers: c.MinPlayers,
		MaxPlayers: c.MaxPlayers,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.LogFormat != logger.FormatText && c.LogFormat != logger.FormatJSON:
		return invalid("log_format must be %q or %q, got %q", logger.FormatText, logger.FormatJSON, c.LogFormat)
	case !finite(c.Beta) || c.Beta <= 0:
		return invalid("beta must be positive, got %v", c.Beta)
	case !finite(c.Tau) || c.Tau < 0:
		return invalid("tau must not be negative, got %v", c.Tau)
	case !finite(c.DrawProbability) || c.DrawProbability < 0 || c.DrawProbability >= 1:
		return invalid("draw_probability must be in [0, 1), got %v", c.DrawProbability)
	case !finite(c.DefaultMu):
		return invalid("default_mu must be finite")
	case !finite(c.DefaultSigma) || c.DefaultSigma <= 0:
		return invalid("default_sigma must be positive, got %v", c.DefaultSigma)
	case c.MinTeams < 1 || c.MaxTeams < c.MinTeams:
		return invalid("team bounds [%d, %d] are invalid", c.MinTeams, c.MaxTeams)
	case c.MinPlayers < 0 || c.MaxPlayers < 1 || c.MaxPlayers < c.MinPlayers:
		return invalid("player bounds [%d, %d] are invalid", c.MinPlayers, c.MaxPlayers)
	case c.DefaultTeamSize < c.MinPlayers || c.DefaultTeamSize > c.MaxPlayers:
		return invalid("default_team_size %d is outside [%d, %d]", c.DefaultTeamSize, c.MinPlayers, c.MaxPlayers)
	case c.QueueSize < 1:
		return invalid("queue_size must be positive, got %d", c.QueueSize)
	case c.WorkerCount < 1:
		return invalid("worker_count must be positive, got %d", c.WorkerCount)
	case c.DedupeSize < 0:
		return invalid("dedupe_size must not be negative, got %d", c.DedupeSize)
	case c.MaxLeaderboardLimit < 1:
		return invalid("max_leaderboard_limit must be positive, got %d", c.MaxLeaderboardLimit)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
