package api

import (
	"net/http"
)

// TrueSkillHandler serves the stateless rating routes.
type TrueSkillHandler struct {
	deps RatingDependencies
}

// NewTrueSkillHandler creates a new TrueSkill handler.
func NewTrueSkillHandler(deps RatingDependencies) *TrueSkillHandler {
	return &TrueSkillHandler{deps: deps}
}

// percent converts a [0,1] quality to the 0-100 wire scale.
func percent(q float64) float64 {
	return q * 100
}

func (h *TrueSkillHandler) readRoster(w http.ResponseWriter, r *http.Request, op string) (rosterRequest, bool) {
	var req rosterRequest
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return req, false
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return req, false
	}
	return req, true
}

// HandleRate handles POST /trueskill requests.
func (h *TrueSkillHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	const op = "api.rate"
	req, ok := h.readRoster(w, r, op)
	if !ok {
		return
	}
	res, err := h.deps.Calculate(r.Context(), req.Config.toDomain(), req.teams())
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rateResponse{
		Teams:        resultsFromDomain(res.Teams),
		MatchQuality: percent(res.MatchQuality),
	})
}

// HandleExpectedScores handles POST /trueskill/expected-scores requests.
func (h *TrueSkillHandler) HandleExpectedScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.expected_scores"
	req, ok := h.readRoster(w, r, op)
	if !ok {
		return
	}
	scores, err := h.deps.ExpectedScores(r.Context(), req.Config.toDomain(), req.teams())
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, expectedScoresResponse{ExpectedScores: scores})
}

// HandleQuality handles POST /trueskill/quality requests.
func (h *TrueSkillHandler) HandleQuality(w http.ResponseWriter, r *http.Request) {
	const op = "api.quality"
	req, ok := h.readRoster(w, r, op)
	if !ok {
		return
	}
	q, err := h.deps.MatchQuality(r.Context(), req.Config.toDomain(), req.teams())
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, qualityResponse{MatchQuality: percent(q)})
}

// HandleDefaultTeams handles GET /teams/default requests.
func (h *TrueSkillHandler) HandleDefaultTeams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, defaultTeamsResponse{
		Config: configFromDomain(h.deps.RatingConfig()),
		Teams:  teamsFromDomain(h.deps.DefaultTeams()),
	})
}
