package api

import (
	"net/http"
	"strings"

	"github.com/okian/skillrate/internal/domain/rating"
)

// PlayerHandler handles player lookups and rating seeds.
type PlayerHandler struct {
	deps PlayerDependencies
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(deps PlayerDependencies) *PlayerHandler {
	return &PlayerHandler{deps: deps}
}

// HandlePlayer serves GET and PUT /players/{id}.
func (h *PlayerHandler) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPut:
		h.handlePut(w, r)
	default:
		http.NotFound(w, r)
	}
}

func playerID(r *http.Request) (string, bool) {
	id := r.PathValue("id")
	return id, strings.TrimSpace(id) != ""
}

func (h *PlayerHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player"
	id, ok := playerID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	entry, err := h.deps.Rank(r.Context(), id)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *PlayerHandler) handlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.seed_player"
	id, ok := playerID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	var req seedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	entry, err := h.deps.SeedPlayer(r.Context(), id, rating.Rating{Mu: req.Rating[0], Sigma: req.Rating[1]})
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
