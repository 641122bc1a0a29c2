// Package types contains common types used across the application
package types

// Entry represents a ledger leaderboard entry.
// Skill is the conservative estimate mu - 3*sigma used for ordering.
type Entry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"playerId"`
	Mu       float64 `json:"mu"`
	Sigma    float64 `json:"sigma"`
	Skill    float64 `json:"skill"`
	Matches  int     `json:"matches"`
}
