package core

import "go.uber.org/zap"

// ServiceOption sets options for a Service
type ServiceOption func(*Service)

// WithLogger sets a logger
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.l = l
		}
	}
}
