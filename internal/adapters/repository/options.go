package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithDefaultRating sets the rating new players start from.
func WithDefaultRating(mu, sigma float64) Option {
	return func(s *TreapStore) {
		if valid(mu, sigma) {
			s.defaultMu, s.defaultSigma = mu, sigma
		}
	}
}

// WithSkillFactor sets k in the ordering key mu - k*sigma.
func WithSkillFactor(k float64) Option {
	return func(s *TreapStore) {
		if k >= 0 {
			s.skillFactor = k
		}
	}
}
