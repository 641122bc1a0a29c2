// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/skillrate/internal/app"
	"github.com/okian/skillrate/internal/domain/model"
	"github.com/okian/skillrate/internal/domain/rating"
	"github.com/okian/skillrate/internal/domain/types"
	"github.com/okian/skillrate/pkg/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Entry mirrors the read shape returned by ledger queries.
type Entry = types.Entry

// RatingDependencies computes ratings for a roster.
type RatingDependencies interface {
	Calculate(ctx context.Context, cfg *rating.Config, teams []rating.Team) (service.Result, error)
	ExpectedScores(ctx context.Context, cfg *rating.Config, teams []rating.Team) ([]float64, error)
	MatchQuality(ctx context.Context, cfg *rating.Config, teams []rating.Team) (float64, error)
	RatingConfig() rating.Config
	DefaultTeams() []rating.Team
}

// MatchDependencies accepts ledger matches. Returns service.ErrBackpressure when full.
type MatchDependencies interface {
	SubmitMatch(ctx context.Context, m model.Match) (service.Submission, error)
}

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
}

// PlayerDependencies defines the interface for player lookups and seeding.
type PlayerDependencies interface {
	Rank(ctx context.Context, playerID string) (Entry, error)
	SeedPlayer(ctx context.Context, playerID string, r rating.Rating) (Entry, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RatingDependencies
	MatchDependencies
	LeaderboardDependencies
	PlayerDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	trueSkillHandler   *TrueSkillHandler
	matchesHandler     *MatchesHandler
	leaderboardHandler *LeaderboardHandler
	playerHandler      *PlayerHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		trueSkillHandler:   NewTrueSkillHandler(deps),
		matchesHandler:     NewMatchesHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		playerHandler:      NewPlayerHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/trueskill", MetricsMiddleware(s.trueSkillHandler.HandleRate, "trueskill"))
	mux.HandleFunc("/trueskill/expected-scores", MetricsMiddleware(s.trueSkillHandler.HandleExpectedScores, "expected_scores"))
	mux.HandleFunc("/trueskill/quality", MetricsMiddleware(s.trueSkillHandler.HandleQuality, "quality"))
	mux.HandleFunc("/teams/default", MetricsMiddleware(s.trueSkillHandler.HandleDefaultTeams, "default_teams"))
	mux.HandleFunc("/matches", MetricsMiddleware(s.matchesHandler.HandlePostMatch, "matches"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/players/{id}", MetricsMiddleware(s.playerHandler.HandlePlayer, "players"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure writes err with the status implied by its kind and logs
// anything that is not the client's fault.
func writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	if status >= http.StatusInternalServerError || status == http.StatusUnprocessableEntity {
		logger.Get().Named("api").Error(ctx, "request failed",
			logger.Int("status", status),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr):
			return fmt.Errorf("malformed JSON at offset %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			return fmt.Errorf("field %q must be %s", typeErr.Field, typeErr.Type)
		}
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
