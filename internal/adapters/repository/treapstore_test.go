package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/okian/skillrate/internal/domain/rating"
)

// floatEqual compares two float64 values with a small tolerance.
func floatEqual(a, b float64) bool {
	const tolerance = 1e-9
	return math.Abs(a-b) < tolerance
}

func newStore(t *testing.T, opts ...Option) *TreapStore {
	t.Helper()
	s := NewTreapStore(context.Background(), opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if _, err := store.Rank(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := store.Put(ctx, "alice", 30, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	got, err := store.Rank(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Mu != 30 || got.Sigma != 2 || !floatEqual(got.Skill, 24) || got.Matches != 0 {
		t.Errorf("unexpected entry %+v", got)
	}

	entry, err := store.Rank(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 {
		t.Errorf("expected rank 1, got %d", entry.Rank)
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].PlayerID != "alice" {
		t.Errorf("unexpected top entries %+v", entries)
	}
}

func TestTreapStore_PutValidation(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	cases := []struct{ mu, sigma float64 }{
		{math.NaN(), 1},
		{math.Inf(1), 1},
		{25, 0},
		{25, -1},
		{25, math.Inf(1)},
	}
	for _, c := range cases {
		if err := store.Put(ctx, "p", c.mu, c.sigma); !errors.Is(err, ErrInvalidRating) {
			t.Errorf("Put(%v, %v): expected ErrInvalidRating, got %v", c.mu, c.sigma, err)
		}
	}
	if store.Count(ctx) != 0 {
		t.Error("invalid ratings must not be stored")
	}
}

func TestTreapStore_Updates(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_ = store.Put(ctx, "a", 30, 1) // skill 27
	_ = store.Put(ctx, "b", 20, 1) // skill 17

	if e, _ := store.Rank(ctx, "b"); e.Rank != 2 {
		t.Errorf("expected b rank 2, got %d", e.Rank)
	}

	// Overwriting moves the player in the order.
	_ = store.Put(ctx, "b", 40, 1)
	if e, _ := store.Rank(ctx, "b"); e.Rank != 1 {
		t.Errorf("expected b rank 1 after update, got %d", e.Rank)
	}
	if e, _ := store.Rank(ctx, "a"); e.Rank != 2 {
		t.Errorf("expected a rank 2 after update, got %d", e.Rank)
	}
	if store.Count(ctx) != 2 {
		t.Errorf("expected count 2, got %d", store.Count(ctx))
	}
}

func TestTreapStore_OrderingBySkill(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// High mu but uncertain ranks below lower mu with low sigma.
	_ = store.Put(ctx, "uncertain", 35, 8) // skill 11
	_ = store.Put(ctx, "steady", 28, 2)    // skill 22
	_ = store.Put(ctx, "newbie", 25, 25.0/3)

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"steady", "uncertain", "newbie"}
	for i, id := range want {
		if entries[i].PlayerID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, entries[i].PlayerID)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("position %d: expected rank %d, got %d", i, i+1, entries[i].Rank)
		}
	}
}

func TestTreapStore_SkillFactor(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, WithSkillFactor(0))

	_ = store.Put(ctx, "uncertain", 35, 8)
	_ = store.Put(ctx, "steady", 28, 2)

	entries, _ := store.TopN(ctx, 2)
	if entries[0].PlayerID != "uncertain" || !floatEqual(entries[0].Skill, 35) {
		t.Errorf("expected mu ordering with k=0, got %+v", entries)
	}
}

func TestTreapStore_CompetitionRanks(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_ = store.Put(ctx, "playerB", 30, 1)
	_ = store.Put(ctx, "playerA", 30, 1)
	_ = store.Put(ctx, "playerC", 20, 1)

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries[0].PlayerID != "playerA" || entries[1].PlayerID != "playerB" {
		t.Errorf("ties must break by id asc, got %s, %s", entries[0].PlayerID, entries[1].PlayerID)
	}
	wantRanks := []int{1, 1, 3}
	for i, r := range wantRanks {
		if entries[i].Rank != r {
			t.Errorf("position %d: expected rank %d, got %d", i, r, entries[i].Rank)
		}
	}

	for id, want := range map[string]int{"playerA": 1, "playerB": 1, "playerC": 3} {
		e, err := store.Rank(ctx, id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Rank != want {
			t.Errorf("%s: expected rank %d, got %d", id, want, e.Rank)
		}
	}
}

func TestTreapStore_TopNLimits(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for _, n := range []int{0, -1} {
		if _, err := store.TopN(ctx, n); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("TopN(%d): expected ErrInvalidLimit, got %v", n, err)
		}
	}

	for i := 0; i < 5; i++ {
		_ = store.Put(ctx, fmt.Sprintf("p%d", i), float64(20+i), 1)
	}
	entries, _ := store.TopN(ctx, 3)
	if len(entries) != 3 || entries[0].PlayerID != "p4" {
		t.Errorf("unexpected top 3: %+v", entries)
	}
}

func TestTreapStore_Apply(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, WithDefaultRating(20, 5))
	_ = store.Put(ctx, "known", 30, 2)

	var seen []rating.Rating
	err := store.Apply(ctx, []string{"known", "fresh"}, func(current []rating.Rating) ([]rating.Rating, error) {
		seen = append(seen, current...)
		return []rating.Rating{{Mu: 31, Sigma: 1.9}, {Mu: 19, Sigma: 4.5}}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen[0] != (rating.Rating{Mu: 30, Sigma: 2}) || seen[1] != (rating.Rating{Mu: 20, Sigma: 5}) {
		t.Errorf("unexpected current ratings %+v", seen)
	}

	known, _ := store.Rank(ctx, "known")
	fresh, _ := store.Rank(ctx, "fresh")
	if known.Mu != 31 || known.Matches != 1 || fresh.Mu != 19 || fresh.Matches != 1 {
		t.Errorf("unexpected ledger state: %+v %+v", known, fresh)
	}
}

func TestTreapStore_ApplyFailures(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_ = store.Put(ctx, "a", 30, 2)

	boom := errors.New("boom")
	if err := store.Apply(ctx, []string{"a"}, func([]rating.Rating) ([]rating.Rating, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Errorf("expected fn error, got %v", err)
	}
	if err := store.Apply(ctx, []string{"a"}, func([]rating.Rating) ([]rating.Rating, error) {
		return nil, nil
	}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
	if err := store.Apply(ctx, []string{"a"}, func([]rating.Rating) ([]rating.Rating, error) {
		return []rating.Rating{{Mu: math.NaN(), Sigma: 1}}, nil
	}); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating, got %v", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err := store.Apply(canceled, []string{"a"}, func(c []rating.Rating) ([]rating.Rating, error) {
		return c, nil
	}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	a, _ := store.Rank(ctx, "a")
	if a.Mu != 30 || a.Matches != 0 {
		t.Errorf("failed applies must not write, got %+v", a)
	}
}

func TestTreapStore_RankMatchesSortedOrder(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic test data

	const n = 500
	for i := 0; i < n; i++ {
		// Coarse values force plenty of ties.
		mu := float64(rng.Intn(20) + 10)
		_ = store.Put(ctx, fmt.Sprintf("p%03d", i), mu, 1)
	}

	all, err := store.TopN(ctx, n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != n {
		t.Fatalf("expected %d entries, got %d", n, len(all))
	}
	if !sort.SliceIsSorted(all, func(i, j int) bool {
		if all[i].Skill != all[j].Skill {
			return all[i].Skill > all[j].Skill
		}
		return all[i].PlayerID < all[j].PlayerID
	}) {
		t.Fatal("leaderboard is not ordered by skill desc, id asc")
	}
	for _, e := range all {
		got, err := store.Rank(ctx, e.PlayerID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Rank != e.Rank {
			t.Errorf("%s: Rank()=%d, TopN rank=%d", e.PlayerID, got.Rank, e.Rank)
		}
	}
}

func TestTreapStore_ConcurrentApply(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_ = store.Put(ctx, "shared", 0, 1)

	const goroutines = 10
	const perGoroutine = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_ = store.Apply(ctx, []string{"shared"}, func(c []rating.Rating) ([]rating.Rating, error) {
					return []rating.Rating{{Mu: c[0].Mu + 1, Sigma: c[0].Sigma}}, nil
				})
				_, _ = store.TopN(ctx, 5)
			}
		}()
	}
	wg.Wait()

	got, _ := store.Rank(ctx, "shared")
	if got.Mu != goroutines*perGoroutine || got.Matches != goroutines*perGoroutine {
		t.Errorf("lost updates: %+v", got)
	}
}
