// Package model contains domain models passed between layers.
package model

import "time"

// Match is a result submitted against the player ledger.
// Players are referenced by id; their ratings come from the ledger.
type Match struct {
	MatchID     string      // unique id for idempotency
	Teams       []MatchTeam // at least two teams
	SubmittedAt time.Time   // time the match was accepted
}

// MatchTeam is one side of a ledger match. Lower rank is better.
type MatchTeam struct {
	Rank    int
	Players []MatchPlayer
}

// MatchPlayer is a ledger player and the share of the match they played.
type MatchPlayer struct {
	PlayerID string
	Weight   float64
}

// PlayerIDs returns every player id in team order.
func (m Match) PlayerIDs() []string {
	ids := make([]string, 0, m.PlayerCount())
	for _, t := range m.Teams {
		for _, p := range t.Players {
			ids = append(ids, p.PlayerID)
		}
	}
	return ids
}

// PlayerCount returns the number of players across all teams.
func (m Match) PlayerCount() int {
	n := 0
	for _, t := range m.Teams {
		n += len(t.Players)
	}
	return n
}

// HasDuplicatePlayers reports whether a player id appears more than once.
func (m Match) HasDuplicatePlayers() bool {
	seen := make(map[string]struct{}, m.PlayerCount())
	for _, id := range m.PlayerIDs() {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
