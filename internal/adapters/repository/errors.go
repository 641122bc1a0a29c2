package repository

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrNotFound      = errors.New("player not found")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrInvalidRating = errors.New("invalid rating")
	ErrShapeMismatch = errors.New("rating count does not match player count")
)
