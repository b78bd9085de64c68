package configio

import "go.uber.org/zap"

// Option sets options for Actions
type Option func(*Actions)

// WithIDGenerator sets the generator for missing element ids. It defaults to UUIDGenerator.
func WithIDGenerator(g IDGenerator) Option {
	return func(a *Actions) {
		if g != nil {
			a.ids = g
		}
	}
}

// WithLogger sets a logger
func WithLogger(l *zap.Logger) Option {
	return func(a *Actions) {
		if l != nil {
			a.l = l
		}
	}
}
