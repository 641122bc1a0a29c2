package api

import (
	"github.com/okian/skillrate/internal/domain/model"
	"github.com/okian/skillrate/internal/domain/rating"
)

// configDTO carries the TrueSkill parameters.
type configDTO struct {
	Beta            float64 `json:"beta"`
	Tau             float64 `json:"tau"`
	DrawProbability float64 `json:"drawProbability"`
}

// playerDTO is a rated player; rating is [mu, sigma]. A missing weight is 1.
type playerDTO struct {
	Name   string     `json:"name"`
	Rating [2]float64 `json:"rating"`
	Weight *float64   `json:"weight,omitempty"`
}

type teamDTO struct {
	Name    string      `json:"name"`
	Rank    int         `json:"rank"`
	Players []playerDTO `json:"players"`
}

// rosterRequest is the body of every /trueskill route.
type rosterRequest struct {
	Config *configDTO `json:"config,omitempty"`
	Teams  []teamDTO  `json:"teams"`
}

type resultPlayerDTO struct {
	Name          string     `json:"name"`
	Rating        [2]float64 `json:"rating"`
	Weight        float64    `json:"weight"`
	RatingChanges [2]float64 `json:"ratingChanges"`
}

type resultTeamDTO struct {
	Name          string            `json:"name"`
	Rank          int               `json:"rank"`
	Players       []resultPlayerDTO `json:"players"`
	ExpectedScore float64           `json:"expectedScore"`
}

type rateResponse struct {
	Teams        []resultTeamDTO `json:"teams"`
	MatchQuality float64         `json:"matchQuality"`
}

type expectedScoresResponse struct {
	ExpectedScores []float64 `json:"expectedScores"`
}

type qualityResponse struct {
	MatchQuality float64 `json:"matchQuality"`
}

type defaultTeamsResponse struct {
	Config configDTO `json:"config"`
	Teams  []teamDTO `json:"teams"`
}

// matchRequest is a ledger match by player id.
type matchRequest struct {
	MatchID string         `json:"matchId"`
	Teams   []matchTeamDTO `json:"teams"`
}

type matchTeamDTO struct {
	Rank    int              `json:"rank"`
	Players []matchPlayerDTO `json:"players"`
}

type matchPlayerDTO struct {
	PlayerID string   `json:"playerId"`
	Weight   *float64 `json:"weight,omitempty"`
}

// seedRequest sets a ledger rating as [mu, sigma].
type seedRequest struct {
	Rating [2]float64 `json:"rating"`
}

type ackResponse struct {
	Status    string `json:"status"`
	MatchID   string `json:"matchId"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func weightOr1(w *float64) float64 {
	if w == nil {
		return 1
	}
	return *w
}

func (c *configDTO) toDomain() *rating.Config {
	if c == nil {
		return nil
	}
	return &rating.Config{Beta: c.Beta, Tau: c.Tau, DrawProbability: c.DrawProbability}
}

func configFromDomain(c rating.Config) configDTO {
	return configDTO{Beta: c.Beta, Tau: c.Tau, DrawProbability: c.DrawProbability}
}

func (r rosterRequest) teams() []rating.Team {
	teams := make([]rating.Team, len(r.Teams))
	for i, t := range r.Teams {
		players := make([]rating.Player, len(t.Players))
		for j, p := range t.Players {
			players[j] = rating.Player{
				Name:   p.Name,
				Rating: rating.Rating{Mu: p.Rating[0], Sigma: p.Rating[1]},
				Weight: weightOr1(p.Weight),
			}
		}
		teams[i] = rating.Team{Name: t.Name, Rank: t.Rank, Players: players}
	}
	return teams
}

func teamsFromDomain(teams []rating.Team) []teamDTO {
	out := make([]teamDTO, len(teams))
	for i, t := range teams {
		players := make([]playerDTO, len(t.Players))
		for j, p := range t.Players {
			w := p.Weight
			players[j] = playerDTO{Name: p.Name, Rating: [2]float64{p.Rating.Mu, p.Rating.Sigma}, Weight: &w}
		}
		out[i] = teamDTO{Name: t.Name, Rank: t.Rank, Players: players}
	}
	return out
}

func resultsFromDomain(teams []rating.ResultTeam) []resultTeamDTO {
	out := make([]resultTeamDTO, len(teams))
	for i, t := range teams {
		players := make([]resultPlayerDTO, len(t.Players))
		for j, p := range t.Players {
			players[j] = resultPlayerDTO{
				Name:          p.Name,
				Rating:        [2]float64{p.Rating.Mu, p.Rating.Sigma},
				Weight:        p.Weight,
				RatingChanges: [2]float64{p.RatingChanges.Mu, p.RatingChanges.Sigma},
			}
		}
		out[i] = resultTeamDTO{Name: t.Name, Rank: t.Rank, Players: players, ExpectedScore: t.ExpectedScore}
	}
	return out
}

func (r matchRequest) toDomain() model.Match {
	m := model.Match{MatchID: r.MatchID, Teams: make([]model.MatchTeam, len(r.Teams))}
	for i, t := range r.Teams {
		players := make([]model.MatchPlayer, len(t.Players))
		for j, p := range t.Players {
			players[j] = model.MatchPlayer{PlayerID: p.PlayerID, Weight: weightOr1(p.Weight)}
		}
		m.Teams[i] = model.MatchTeam{Rank: t.Rank, Players: players}
	}
	return m
}
