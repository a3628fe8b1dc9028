package store

import (
	"github.com/nkint/yttrex/internal/platform/alarm"
	"github.com/nkint/yttrex/internal/platform/logger"
)

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger used by operations
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// WithAlarms sets the sink that receives degraded-operation reports
func WithAlarms(sink alarm.Sink) Option {
	return func(s *Store) error {
		s.Alarms = sink
		return nil
	}
}

// WithDialer replaces the connection source, e.g. with a test double
func WithDialer(d Dialer) Option {
	return func(s *Store) error {
		s.Mongo = d
		return nil
	}
}
