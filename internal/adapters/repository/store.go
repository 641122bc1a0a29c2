// Package repository holds the player ledger: current ratings ordered by
// conservative skill.
package repository

import (
	"context"

	"github.com/okian/skillrate/internal/domain/rating"
	"github.com/okian/skillrate/internal/domain/types"
)

// Entry represents a leaderboard row.
type Entry = types.Entry

// Store provides read/write access to the ledger.
type Store interface {
	// Put overwrites a player's rating without counting a match.
	Put(ctx context.Context, playerID string, mu, sigma float64) error

	// Apply reads the current ratings of ids (unknown players get the default
	// rating), passes them to fn in order and stores what fn returns. Calls are
	// serialized so concurrent matches never lose an update.
	Apply(ctx context.Context, ids []string, fn func(current []rating.Rating) ([]rating.Rating, error)) error

	// Rank returns the player's entry with its competition rank.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, playerID string) (Entry, error)

	// TopN returns the top-N entries ordered by skill desc, then id asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of players in the ledger.
	Count(ctx context.Context) int
}
