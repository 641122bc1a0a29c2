// Package loadtest drives a running skillrate service with random matches
// and checks the answers it gives back.
package loadtest

import "time"

// Config holds configuration for a load test run.
type Config struct {
	BaseURL string        // Base URL of the service
	Matches int           // Number of matches to generate
	Teams   int           // Teams per match
	Players int           // Players per team
	Pool    int           // Distinct ledger player ids to draw from
	Workers int           // Number of concurrent HTTP workers
	Timeout time.Duration // HTTP request timeout
	TopN    int           // Leaderboard entries to fetch
	Settle  time.Duration // How long to wait for the ledger to drain
	Seed    uint64        // Match generator seed; 0 picks one from the clock
	Verbose bool          // Log every failed check in full
	Quiet   bool          // Hide progress bars
}

// Wire shapes of the service API, decoded on the client side.

type configBody struct {
	Beta            float64 `json:"beta"`
	Tau             float64 `json:"tau"`
	DrawProbability float64 `json:"drawProbability"`
}

type player struct {
	Name   string     `json:"name"`
	Rating [2]float64 `json:"rating"`
	Weight float64    `json:"weight"`
}

type team struct {
	Name    string   `json:"name"`
	Rank    int      `json:"rank"`
	Players []player `json:"players"`
}

// RateRequest is a POST /trueskill body.
type RateRequest struct {
	Config *configBody `json:"config,omitempty"`
	Teams  []team      `json:"teams"`
}

type ratedPlayer struct {
	Name          string     `json:"name"`
	Rating        [2]float64 `json:"rating"`
	Weight        float64    `json:"weight"`
	RatingChanges [2]float64 `json:"ratingChanges"`
}

type ratedTeam struct {
	Name          string        `json:"name"`
	Rank          int           `json:"rank"`
	Players       []ratedPlayer `json:"players"`
	ExpectedScore float64       `json:"expectedScore"`
}

// RateResponse is a POST /trueskill answer.
type RateResponse struct {
	Teams        []ratedTeam `json:"teams"`
	MatchQuality float64     `json:"matchQuality"`
}

type matchPlayer struct {
	PlayerID string  `json:"playerId"`
	Weight   float64 `json:"weight"`
}

type matchTeam struct {
	Rank    int           `json:"rank"`
	Players []matchPlayer `json:"players"`
}

// Match is a POST /matches body.
type Match struct {
	MatchID string      `json:"matchId"`
	Teams   []matchTeam `json:"teams"`
}

// Entry is a leaderboard or player row.
type Entry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"playerId"`
	Mu       float64 `json:"mu"`
	Sigma    float64 `json:"sigma"`
	Skill    float64 `json:"skill"`
	Matches  int     `json:"matches"`
}

type ackResponse struct {
	Status    string `json:"status"`
	MatchID   string `json:"matchId"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds test statistics.
type Stats struct {
	MatchesGenerated   int
	RatingsRequested   int
	RatingsFailed      int
	CheckFailures      int
	MatchesAccepted    int
	MatchesDuplicate   int
	MatchesFailed      int
	LeaderboardEntries int
	PlayersChecked     int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
