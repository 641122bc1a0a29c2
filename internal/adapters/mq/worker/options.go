package worker

import (
	"github.com/okian/skillrate/internal/domain/rating"
	"github.com/okian/skillrate/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithConfig sets the engine parameters used to rate matches.
func WithConfig(cfg rating.Config) Option {
	return func(w *InMemoryWorker) {
		w.cfg = cfg
	}
}
