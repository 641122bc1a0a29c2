package trueskill

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrTooFewGroups           = errors.New("at least two rating groups are required")
	ErrEmptyGroup             = errors.New("rating group has no ratings")
	ErrRanksMismatch          = errors.New("ranks do not match rating groups")
	ErrWeightsMismatch        = errors.New("weights do not match rating groups")
	ErrInvalidRating          = errors.New("invalid rating")
	ErrInvalidDrawProbability = errors.New("draw probability must be in [0, 1)")
	ErrNumerical              = errors.New("numerical instability in truncation")
)

// RatingError names the rating that failed validation.
type RatingError struct {
	Group int
	Index int
	Field string
	Value float64
}

func (e *RatingError) Error() string {
	return fmt.Sprintf("group %d rating %d: %s=%v: %v", e.Group, e.Index, e.Field, e.Value, ErrInvalidRating)
}

// Unwrap exposes ErrInvalidRating to errors.Is.
func (e *RatingError) Unwrap() error { return ErrInvalidRating }
