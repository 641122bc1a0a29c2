// Package worker rates queued ledger matches and writes the new ratings back.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/skillrate/internal/domain/model"
	"github.com/okian/skillrate/internal/domain/rating"
	"github.com/okian/skillrate/pkg/logger"
	"github.com/okian/skillrate/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// ErrResultShape is returned when the rater answers with a different roster shape.
var ErrResultShape = errors.New("rating result does not match the match roster")

// Match abstracts what workers read off the queue.
type Match = model.Match

// Rater computes new ratings for a roster.
type Rater interface {
	CalculateRatings(cfg rating.Config, teams []rating.Team) ([]rating.ResultTeam, error)
}

// Ledger stores player ratings.
type Ledger interface {
	// Apply passes the current ratings of ids to fn and stores the ratings fn
	// returns, atomically with respect to other Apply calls.
	Apply(ctx context.Context, ids []string, fn func(current []rating.Rating) ([]rating.Rating, error)) error
}

// Queue defines how workers receive matches.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Match
}

// Worker processes matches and writes rating updates.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue  Queue
	rater  Rater
	ledger Ledger
	cfg    rating.Config
	name   string

	shutdown chan struct{}
	done     chan struct{}
	active   *atomic.Int64

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, rater Rater, ledger Ledger, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		rater:    rater,
		ledger:   ledger,
		cfg:      rating.DefaultConfig(),
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		active:   &atomic.Int64{},
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	matches := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case m, ok := <-matches:
			if !ok {
				return
			}
			if err := w.processMatch(ctx, m); err != nil {
				w.logger.Error(ctx, "error processing match",
					logger.String("matchID", m.MatchID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processMatch rates one match against the ledger's current ratings.
func (w *InMemoryWorker) processMatch(ctx context.Context, m Match) error { //nolint:gocritic // hugeParam: Match is passed by value for channel semantics
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	err := w.ledger.Apply(ctx, m.PlayerIDs(), func(current []rating.Rating) ([]rating.Rating, error) {
		teams := rosterFor(m, current)
		results, err := w.rater.CalculateRatings(w.cfg, teams)
		if err != nil {
			return nil, err
		}
		return flatten(results, len(current))
	})
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("rate match %s: %w", m.MatchID, err)
	}

	metrics.RecordMatchRated()
	metrics.RecordMatchShape(len(m.Teams), m.PlayerCount())
	w.logger.Debug(ctx, "match rated",
		logger.String("matchID", m.MatchID),
		logger.Int("teams", len(m.Teams)),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// rosterFor builds rating teams from a match and the ratings of its players in order.
func rosterFor(m Match, current []rating.Rating) []rating.Team { //nolint:gocritic // hugeParam
	teams := make([]rating.Team, len(m.Teams))
	k := 0
	for i, t := range m.Teams {
		players := make([]rating.Player, len(t.Players))
		for j, p := range t.Players {
			players[j] = rating.Player{Name: p.PlayerID, Rating: current[k], Weight: p.Weight}
			k++
		}
		teams[i] = rating.Team{Rank: t.Rank, Players: players}
	}
	return teams
}

func flatten(results []rating.ResultTeam, want int) ([]rating.Rating, error) {
	out := make([]rating.Rating, 0, want)
	for _, t := range results {
		for _, p := range t.Players {
			out = append(out, p.Rating)
		}
	}
	if len(out) != want {
		return nil, fmt.Errorf("%w: got %d ratings for %d players", ErrResultShape, len(out), want)
	}
	return out, nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  atomic.Int64

	logger logger.Logger
}

// NewPool creates a new worker pool. workerCount < 1 uses runtime.NumCPU().
func NewPool(workerCount int, queue Queue, rater Rater, ledger Ledger, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(queue, rater, ledger, workerOpts...)
		w.active = &pool.active
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Active returns the number of workers currently rating a match.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue so pending matches drain, then waits for the workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}
	return nil
}
