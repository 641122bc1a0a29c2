package repository

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/skillrate/internal/domain/rating"
	"github.com/okian/skillrate/internal/domain/trueskill"
	"github.com/okian/skillrate/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: skill DESC, then playerID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the leaderboard
// from best to worst. Node sizes give ranks by order statistics.

// skillScale controls fixed-point scaling of skill keys so ties compare exactly.
const skillScale = 1_000_000_000

const defaultSkillFactor = 3.0

type skillFP int64

func toFixedPoint(x float64) skillFP {
	scaled := math.Round(x * skillScale)
	switch {
	case math.IsNaN(scaled):
		return 0
	case scaled >= math.MaxInt64:
		return skillFP(math.MaxInt64)
	case scaled <= math.MinInt64:
		return skillFP(math.MinInt64)
	}
	return skillFP(scaled)
}

func toFloat(x skillFP) float64 {
	return float64(x) / skillScale
}

func valid(mu, sigma float64) bool {
	return !math.IsNaN(mu) && !math.IsInf(mu, 0) &&
		!math.IsNaN(sigma) && !math.IsInf(sigma, 0) && sigma > 0
}

// record stores a player's current rating.
type record struct {
	mu      float64
	sigma   float64
	skill   skillFP
	matches int
}

// treap node
type node struct {
	id    string
	skill skillFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aSkill, aID) appears before (bSkill, bID).
func less(aSkill skillFP, aID string, bSkill skillFP, bID string) bool {
	if aSkill != bSkill {
		return aSkill > bSkill
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, skill skillFP) *node {
	if n == nil {
		return &node{id: id, skill: skill, prio: rand.Uint64(), size: 1} //nolint:gosec // treap priorities need no crypto
	}
	if less(skill, id, n.skill, n.id) {
		n.left = insert(n.left, id, skill)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, skill)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, skill skillFP) *node {
	if n == nil {
		return nil
	}
	if skill == n.skill && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, skill)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, skill)
		}
	} else if less(skill, id, n.skill, n.id) {
		n.left = deleteNode(n.left, id, skill)
	} else {
		n.right = deleteNode(n.right, id, skill)
	}
	fix(n)
	return n
}

// countAbove returns the number of players with a strictly higher skill.
func countAbove(n *node, skill skillFP) int {
	c := 0
	for n != nil {
		if n.skill > skill {
			c += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return c
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, records map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) < limit {
		if rec, ok := records[n.id]; ok {
			*out = append(*out, rec.entry(n.id))
		}
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

func (r record) entry(id string) Entry {
	return Entry{
		PlayerID: id,
		Mu:       r.mu,
		Sigma:    r.sigma,
		Skill:    toFloat(r.skill),
		Matches:  r.matches,
	}
}

// TreapStore is an in-memory ledger safe for concurrent use.
type TreapStore struct {
	mu      sync.RWMutex
	applyMu sync.Mutex
	root    *node
	byID    map[string]record

	defaultMu             float64
	defaultSigma          float64
	skillFactor           float64
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewTreapStore constructs a ledger and starts its metrics updater, which
// stops when ctx is done or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:                  make(map[string]record),
		defaultMu:             trueskill.DefaultMu,
		defaultSigma:          trueskill.DefaultSigma,
		skillFactor:           defaultSkillFactor,
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	metrics.UpdateLedgerPlayers(0)
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background goroutines.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// DefaultRating returns the rating unknown players start from.
func (s *TreapStore) DefaultRating() rating.Rating {
	return rating.Rating{Mu: s.defaultMu, Sigma: s.defaultSigma}
}

func (s *TreapStore) skillOf(mu, sigma float64) skillFP {
	return toFixedPoint(trueskill.Rating{Mu: mu, Sigma: sigma}.Conservative(s.skillFactor))
}

// set writes a rating; callers hold s.mu.
func (s *TreapStore) set(id string, mu, sigma float64, played int) {
	rec := record{mu: mu, sigma: sigma, skill: s.skillOf(mu, sigma)}
	if old, ok := s.byID[id]; ok {
		s.root = deleteNode(s.root, id, old.skill)
		rec.matches = old.matches
	}
	rec.matches += played
	s.byID[id] = rec
	s.root = insert(s.root, id, rec.skill)
}

// Put overwrites a player's rating without counting a match.
func (s *TreapStore) Put(ctx context.Context, playerID string, mu, sigma float64) error {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if !valid(mu, sigma) {
		return fmt.Errorf("%w: player %s mu=%v sigma=%v", ErrInvalidRating, playerID, mu, sigma)
	}

	s.mu.Lock()
	s.set(playerID, mu, sigma, 0)
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateLedgerPlayers(n)
	return nil
}

// Apply implements Store.Apply. fn runs without the read/write lock held so
// readers are never blocked by a rating computation.
func (s *TreapStore) Apply(ctx context.Context, ids []string, fn func(current []rating.Rating) ([]rating.Rating, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	start := time.Now()
	current := make([]rating.Rating, len(ids))
	s.mu.RLock()
	for i, id := range ids {
		if rec, ok := s.byID[id]; ok {
			current[i] = rating.Rating{Mu: rec.mu, Sigma: rec.sigma}
		} else {
			current[i] = s.DefaultRating()
		}
	}
	s.mu.RUnlock()

	next, err := fn(current)
	if err != nil {
		return err
	}
	if len(next) != len(ids) {
		return fmt.Errorf("%w: got %d, want %d", ErrShapeMismatch, len(next), len(ids))
	}
	for i, r := range next {
		if !valid(r.Mu, r.Sigma) {
			return fmt.Errorf("%w: player %s mu=%v sigma=%v", ErrInvalidRating, ids[i], r.Mu, r.Sigma)
		}
	}

	s.mu.Lock()
	for i, id := range ids {
		s.set(id, next[i].Mu, next[i].Sigma, 1)
	}
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateLedgerPlayers(n)
	metrics.RecordLedgerUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

// Rank returns a player's entry with its competition rank in O(log n).
func (s *TreapStore) Rank(ctx context.Context, playerID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[playerID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	e := rec.entry(playerID)
	e.Rank = countAbove(s.root, rec.skill) + 1
	return e, nil
}

// TopN returns the top n entries. Tied skills share a rank and the next
// distinct skill skips ahead (1, 1, 3).
func (s *TreapStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)
	assignCompetitionRanks(out)
	return out, nil
}

// Count returns the number of players.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// startMetricsUpdater periodically republishes the ledger size.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateLedgerPlayers(s.Count(ctx))
			}
		}
	}()
}

// assignCompetitionRanks ranks a prefix of the leaderboard.
func assignCompetitionRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Skill == entries[i-1].Skill {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
