// Package service wires the rating calculator and the player ledger into the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"

	eventqueue "github.com/okian/skillrate/internal/adapters/mq/queue"
	workerpool "github.com/okian/skillrate/internal/adapters/mq/worker"
	repository "github.com/okian/skillrate/internal/adapters/repository"
	"github.com/okian/skillrate/internal/domain/dedupe"
	"github.com/okian/skillrate/internal/domain/rating"
	"github.com/okian/skillrate/internal/domain/roster"
	"github.com/okian/skillrate/pkg/logger"
	"github.com/okian/skillrate/pkg/metrics"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrInvalidConfig = errors.New("invalid rating config")
	ErrInvalidMatch  = errors.New("invalid match")
	ErrBackpressure  = errors.New("match queue is full")
)

// Service implements the API dependencies for rating and the ledger.
type Service struct {
	mu sync.RWMutex

	// Core components
	calculator *rating.Calculator
	ledger     *repository.TreapStore
	deduper    dedupe.Deduper
	matchQueue eventqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	ratingConfig rating.Config
	settings     roster.Settings
	limits       roster.Limits
	workerCount  int
	queueSize    int
	dedupeSize   int

	// State
	started bool
	cancel  context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of rating workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the match queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the match id cache. Zero means unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRatingConfig sets the TrueSkill parameters used when a request carries none.
func WithRatingConfig(cfg rating.Config) Option {
	return func(s *Service) {
		s.ratingConfig = cfg
	}
}

// WithRoster sets the roster defaults and bounds.
func WithRoster(settings roster.Settings, limits roster.Limits) Option {
	return func(s *Service) {
		s.settings = settings
		s.limits = limits
	}
}

// WithCalculator replaces the rating calculator.
func WithCalculator(c *rating.Calculator) Option {
	return func(s *Service) {
		if c != nil {
			s.calculator = c
		}
	}
}

// New constructs a new Service with default configuration. The calculator
// operations work immediately; the ledger needs Start.
func New(opts ...Option) *Service {
	s := &Service{
		calculator:   rating.NewCalculator(),
		ratingConfig: rating.DefaultConfig(),
		settings:     roster.DefaultSettings(),
		limits:       roster.DefaultLimits(),
		workerCount:  runtime.NumCPU(),
		queueSize:    10_000,
		dedupeSize:   50_000,
		logger:       logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the ledger components. Workers outlive ctx
// and run until Stop has drained the queue.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting rating service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.ledger = repository.NewTreapStore(runCtx)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.matchQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)
	s.workerPool = workerpool.NewPool(s.workerCount, s.matchQueue, s.calculator, s.ledger,
		workerpool.WithConfig(s.ratingConfig),
	)
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Float64("beta", s.ratingConfig.Beta),
		logger.Float64("tau", s.ratingConfig.Tau),
		logger.Float64("drawProbability", s.ratingConfig.DrawProbability),
	)
	return nil
}

// Stop drains the queue and shuts the ledger down.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping rating service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	if err := s.ledger.Close(); err != nil {
		s.logger.Warn(ctx, "ledger close", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "rating service stopped")
}

// running returns the ledger components or ErrNotStarted.
func (s *Service) running() (*repository.TreapStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.ledger, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"beta":            s.ratingConfig.Beta,
		"tau":             s.ratingConfig.Tau,
		"drawProbability": s.ratingConfig.DrawProbability,
	}

	if s.started {
		queueLen := s.matchQueue.Len(ctx)
		players := s.ledger.Count(ctx)

		stats["queueLength"] = queueLen
		stats["players"] = players
		stats["workerCount"] = s.workerPool.Size()
		stats["activeWorkers"] = s.workerPool.Active()
		stats["seenMatches"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateLedgerPlayers(players)
		metrics.UpdateWorkerCount(s.workerPool.Size())
	}

	return stats
}
