// Package roster builds default teams and players and applies bounded
// edits to a roster before it is rated.
package roster

import (
	"fmt"
	"math"

	"github.com/okian/skillrate/internal/domain/rating"
)

// Default roster values.
const (
	DefaultMu       = 25.0
	DefaultSigma    = 25.0 / 6
	DefaultTeamSize = 2

	MinTeams   = 2
	MaxTeams   = 256
	MinPlayers = 1
	MaxPlayers = 128
)

// Settings control the starting values of new players and teams.
type Settings struct {
	DefaultMu       float64
	DefaultSigma    float64
	DefaultTeamSize int
}

// DefaultSettings returns the standard roster settings.
func DefaultSettings() Settings {
	return Settings{
		DefaultMu:       DefaultMu,
		DefaultSigma:    DefaultSigma,
		DefaultTeamSize: DefaultTeamSize,
	}
}

// Limits bound the number of teams and players per team.
type Limits struct {
	MinTeams   int
	MaxTeams   int
	MinPlayers int
	MaxPlayers int
}

// DefaultLimits returns the standard roster bounds.
func DefaultLimits() Limits {
	return Limits{
		MinTeams:   MinTeams,
		MaxTeams:   MaxTeams,
		MinPlayers: MinPlayers,
		MaxPlayers: MaxPlayers,
	}
}

// DefaultPlayer returns "Player <index>" at the default rating with full weight.
func DefaultPlayer(s Settings, index int) rating.Player {
	return rating.Player{
		Name:   fmt.Sprintf("Player %d", index),
		Rating: rating.Rating{Mu: s.DefaultMu, Sigma: s.DefaultSigma},
		Weight: 1,
	}
}

// DefaultTeam returns "Team <index>" ranked index with DefaultTeamSize players.
func DefaultTeam(s Settings, index int) rating.Team {
	players := make([]rating.Player, 0, s.DefaultTeamSize)
	for i := 0; i < s.DefaultTeamSize; i++ {
		players = append(players, DefaultPlayer(s, i+1))
	}
	return rating.Team{
		Name:    fmt.Sprintf("Team %d", index),
		Rank:    index,
		Players: players,
	}
}

// FirstTwoTeams returns the starter roster: two teams of two players ranked 1 and 2.
func FirstTwoTeams(s Settings) []rating.Team {
	teams := make([]rating.Team, 2)
	for i := range teams {
		teams[i] = rating.Team{
			Name:    fmt.Sprintf("Team %d", i+1),
			Rank:    i + 1,
			Players: []rating.Player{DefaultPlayer(s, 1), DefaultPlayer(s, 2)},
		}
	}
	return teams
}

// AddTeam appends a default team unless the roster is at MaxTeams.
func AddTeam(s Settings, l Limits, teams []rating.Team) []rating.Team {
	if len(teams) >= l.MaxTeams {
		return teams
	}
	return append(teams[:len(teams):len(teams)], DefaultTeam(s, len(teams)+1))
}

// RemoveTeam drops the team at index unless the roster is at MinTeams.
func RemoveTeam(l Limits, teams []rating.Team, index int) []rating.Team {
	if len(teams) <= l.MinTeams || index < 0 || index >= len(teams) {
		return teams
	}
	return append(teams[:index:index], teams[index+1:]...)
}

// AddPlayer appends a default player unless the team is at MaxPlayers.
func AddPlayer(s Settings, l Limits, team rating.Team) rating.Team {
	if len(team.Players) >= l.MaxPlayers {
		return team
	}
	n := len(team.Players)
	team.Players = append(team.Players[:n:n], DefaultPlayer(s, n+1))
	return team
}

// RemovePlayer drops the player at index unless the team is at MinPlayers.
func RemovePlayer(l Limits, team rating.Team, index int) rating.Team {
	if len(team.Players) <= l.MinPlayers || index < 0 || index >= len(team.Players) {
		return team
	}
	team.Players = append(team.Players[:index:index], team.Players[index+1:]...)
	return team
}

// UpdateTeamRank sets the rank clamped to [1, teamCount].
func UpdateTeamRank(team rating.Team, teamCount, rank int) rating.Team {
	switch {
	case rank < 1:
		rank = 1
	case rank > teamCount:
		rank = teamCount
	}
	team.Rank = rank
	return team
}

// UpdatePlayerRating sets the rating. A non-finite mu becomes 0; a zero or
// non-finite sigma leaves the rating unchanged.
func UpdatePlayerRating(p rating.Player, mu, sigma float64) rating.Player {
	if math.IsNaN(mu) || math.IsInf(mu, 0) {
		mu = 0
	}
	if sigma == 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return p
	}
	p.Rating = rating.Rating{Mu: mu, Sigma: sigma}
	return p
}

// UpdatePlayerWeight sets the weight clamped to [0, 1]; NaN becomes 0.
func UpdatePlayerWeight(p rating.Player, weight float64) rating.Player {
	switch {
	case math.IsNaN(weight) || weight < 0:
		weight = 0
	case weight > 1:
		weight = 1
	}
	p.Weight = weight
	return p
}
