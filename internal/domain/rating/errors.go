package rating

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrComputation marks a failure reported by the rating engine.
	ErrComputation = errors.New("computation failed")
	// ErrResultShape is returned when the engine answers with a different
	// number of teams or players than it was given.
	ErrResultShape = errors.New("engine result does not match the roster shape")
)

// ComputationError carries the operation and, when known, the offending
// team/player index and field. Team and Player are -1 when not derivable.
type ComputationError struct {
	Op     string
	Team   int
	Player int
	Field  string
	Err    error
}

func (e *ComputationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(ErrComputation.Error())
	if e.Team >= 0 {
		fmt.Fprintf(&b, " (team %d", e.Team)
		if e.Player >= 0 {
			fmt.Fprintf(&b, ", player %d", e.Player)
		}
		if e.Field != "" {
			fmt.Fprintf(&b, ", field %s", e.Field)
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both ErrComputation and the engine's own error.
func (e *ComputationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrComputation}
	}
	return []error{ErrComputation, e.Err}
}
