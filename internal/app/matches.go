package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/skillrate/internal/domain/model"
	"github.com/okian/skillrate/internal/domain/rating"
	"github.com/okian/skillrate/internal/domain/types"
	"github.com/okian/skillrate/pkg/logger"
	"github.com/okian/skillrate/pkg/metrics"
)

// Submission reports what happened to a submitted match.
type Submission struct {
	MatchID   string
	Duplicate bool
}

// SubmitMatch queues a ledger match for rating. A match without an id gets a
// server-assigned one. Resubmitting a known id is acknowledged as a duplicate.
func (s *Service) SubmitMatch(ctx context.Context, m model.Match) (Submission, error) { //nolint:gocritic // hugeParam
	if _, err := s.running(); err != nil {
		return Submission{}, err
	}
	if err := s.validateMatch(m); err != nil {
		metrics.RecordMatchRejected()
		return Submission{}, err
	}
	if m.MatchID == "" {
		m.MatchID = uuid.NewString()
	}
	if m.SubmittedAt.IsZero() {
		m.SubmittedAt = time.Now()
	}

	if s.deduper.SeenAndRecord(ctx, m.MatchID) {
		metrics.RecordMatchDuplicate()
		s.logger.Debug(ctx, "duplicate match", logger.String("matchID", m.MatchID))
		return Submission{MatchID: m.MatchID, Duplicate: true}, nil
	}

	if !s.matchQueue.Enqueue(ctx, m) {
		// Let the client retry the same id.
		s.deduper.Unrecord(ctx, m.MatchID)
		metrics.RecordMatchRejected()
		s.logger.Warn(ctx, "match queue full", logger.String("matchID", m.MatchID))
		return Submission{}, ErrBackpressure
	}

	metrics.RecordMatchAccepted()
	s.logger.Debug(ctx, "match queued",
		logger.String("matchID", m.MatchID),
		logger.Int("teams", len(m.Teams)),
		logger.Int("players", m.PlayerCount()),
	)
	return Submission{MatchID: m.MatchID}, nil
}

func (s *Service) validateMatch(m model.Match) error { //nolint:gocritic // hugeParam
	switch {
	case len(m.Teams) < s.limits.MinTeams || len(m.Teams) < 2:
		return fmt.Errorf("%w: need at least %d teams, got %d", ErrInvalidMatch, max(2, s.limits.MinTeams), len(m.Teams))
	case len(m.Teams) > s.limits.MaxTeams:
		return fmt.Errorf("%w: at most %d teams, got %d", ErrInvalidMatch, s.limits.MaxTeams, len(m.Teams))
	case m.HasDuplicatePlayers():
		return fmt.Errorf("%w: a player appears more than once", ErrInvalidMatch)
	}
	for i, t := range m.Teams {
		if len(t.Players) == 0 || len(t.Players) > s.limits.MaxPlayers {
			return fmt.Errorf("%w: team %d has %d players", ErrInvalidMatch, i, len(t.Players))
		}
		for j, p := range t.Players {
			if strings.TrimSpace(p.PlayerID) == "" {
				return fmt.Errorf("%w: team %d player %d has no id", ErrInvalidMatch, i, j)
			}
			if math.IsNaN(p.Weight) || p.Weight < 0 || p.Weight > 1 {
				return fmt.Errorf("%w: team %d player %d weight %v outside [0, 1]", ErrInvalidMatch, i, j, p.Weight)
			}
		}
	}
	return nil
}

// TopN returns the top N ledger entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	ledger, err := s.running()
	if err != nil {
		return nil, err
	}
	return ledger.TopN(ctx, n)
}

// Rank returns a player's ledger entry with its rank.
func (s *Service) Rank(ctx context.Context, playerID string) (types.Entry, error) {
	ledger, err := s.running()
	if err != nil {
		return types.Entry{}, err
	}
	return ledger.Rank(ctx, playerID)
}

// SeedPlayer sets a player's ledger rating without counting a match and
// returns the resulting entry with its rank.
func (s *Service) SeedPlayer(ctx context.Context, playerID string, r rating.Rating) (types.Entry, error) {
	ledger, err := s.running()
	if err != nil {
		return types.Entry{}, err
	}
	if strings.TrimSpace(playerID) == "" {
		return types.Entry{}, fmt.Errorf("%w: player id is empty", ErrInvalidMatch)
	}
	if err := ledger.Put(ctx, playerID, r.Mu, r.Sigma); err != nil {
		return types.Entry{}, err
	}
	s.logger.Debug(ctx, "player seeded",
		logger.String("playerID", playerID),
		logger.Float64("mu", r.Mu),
		logger.Float64("sigma", r.Sigma),
	)
	return ledger.Rank(ctx, playerID)
}
