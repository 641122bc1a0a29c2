package roster

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/skillrate/internal/domain/rating"
)

// Validation errors.
var (
	ErrNoTeams        = errors.New("no teams")
	ErrTooFewTeams    = errors.New("too few teams")
	ErrTooManyTeams   = errors.New("too many teams")
	ErrEmptyTeam      = errors.New("team has too few players")
	ErrTooManyPlayers = errors.New("team has too many players")
	ErrInvalidNumber  = errors.New("invalid number")
)

// ValidationError locates a failure. Player is -1 for team-level failures.
type ValidationError struct {
	Team   int
	Player int
	Field  string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Player < 0 {
		return fmt.Sprintf("team %d: %v", e.Team, e.Err)
	}
	return fmt.Sprintf("team %d player %d %s: %v", e.Team, e.Player, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks a roster against the limits before it is rated.
func Validate(teams []rating.Team, l Limits) error {
	switch {
	case len(teams) == 0:
		return ErrNoTeams
	case len(teams) < l.MinTeams:
		return fmt.Errorf("%w: %d < %d", ErrTooFewTeams, len(teams), l.MinTeams)
	case len(teams) > l.MaxTeams:
		return fmt.Errorf("%w: %d > %d", ErrTooManyTeams, len(teams), l.MaxTeams)
	}
	for i, t := range teams {
		if len(t.Players) < l.MinPlayers {
			return &ValidationError{Team: i, Player: -1, Field: "players", Err: ErrEmptyTeam}
		}
		if len(t.Players) > l.MaxPlayers {
			return &ValidationError{Team: i, Player: -1, Field: "players", Err: ErrTooManyPlayers}
		}
		for j, p := range t.Players {
			if !finite(p.Rating.Mu) {
				return &ValidationError{Team: i, Player: j, Field: "mu", Err: ErrInvalidNumber}
			}
			if !finite(p.Rating.Sigma) || p.Rating.Sigma == 0 {
				return &ValidationError{Team: i, Player: j, Field: "sigma", Err: ErrInvalidNumber}
			}
			if !finite(p.Weight) {
				return &ValidationError{Team: i, Player: j, Field: "weight", Err: ErrInvalidNumber}
			}
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
