// Package store provides a uniform, resource-safe surface over a document
// database. Every operation acquires a fresh connection, uses it once, and
// releases it; aggregation-style operations additionally degrade to an empty
// result on execution failure after reporting an alarm
package store

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/nkint/yttrex/internal/platform/alarm"
	perr "github.com/nkint/yttrex/internal/platform/errors"
	"github.com/nkint/yttrex/internal/platform/logger"
)

// Store is the facade callers hold. It keeps no live connection; the Dialer
// is asked for a fresh handle on every operation
type Store struct {
	// Log is the logger used by operations
	// zero means a no op zerolog logger
	Log logger.Logger

	// Alarms receives degraded-operation reports, fire and forget
	Alarms alarm.Sink

	// Mongo acquires per-call connections
	Mongo Dialer

	cfg Config
}

// Cursor is the minimal decode surface a find or pipeline result needs
type Cursor interface {
	All(ctx context.Context, out any) error
}

// Ack reports what a write touched
type Ack struct {
	Matched  int64
	Modified int64
	Upserted int64
}

// FindOpts carries optional sort, limit, and skip for find calls
// zero values mean natural order, no limit, no skip
type FindOpts struct {
	Sort  any
	Limit int64
	Skip  int64
}

// IndexOpts carries optional index creation parameters
type IndexOpts struct {
	Name   string
	Unique bool
}

// Docs is the read and write surface collection operations use
type Docs interface {
	InsertOne(ctx context.Context, doc any) error
	InsertMany(ctx context.Context, docs []any) (int, error)
	UpdateOne(ctx context.Context, filter, update any, upsert bool) (Ack, error)
	ReplaceOne(ctx context.Context, filter, doc any, upsert bool) (Ack, error)
	DeleteMany(ctx context.Context, filter any) (int64, error)
	Find(ctx context.Context, filter any, opt FindOpts) (Cursor, error)
	Distinct(ctx context.Context, field string, filter any) ([]any, error)
	CountDocuments(ctx context.Context, filter any) (int64, error)
	Aggregate(ctx context.Context, pipeline any) (Cursor, error)
	CreateIndex(ctx context.Context, keys any, opt IndexOpts) (string, error)
}

// Conn is one acquired database handle; Close releases it
type Conn interface {
	Docs(name string) Docs
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Dialer acquires a fresh Conn per call
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Open constructs a Store from cfg. Nothing is dialed here; connections are
// acquired per operation
func Open(cfg Config, opts ...Option) (*Store, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "store config")
	}

	s := &Store{cfg: cfg}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	// defaults for zero logger to avoid nil checks
	s.Log = s.Log.With().Logger()
	if s.Alarms == nil {
		s.Alarms = alarm.NewZerologSink(&s.Log)
	}
	if s.Mongo == nil {
		s.Mongo = newMGDialer(cfg)
	}
	return s, nil
}

// Guard dials once and pings, verifying the configured URL reaches a live server
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return perr.Internalf("nil store")
	}
	return s.scoped(ctx, func(ctx context.Context, conn Conn) error {
		return conn.Ping(ctx)
	})
}

// Collection returns a handle bound to a named collection. The name is opaque
// here; invalid names surface as driver errors
func (s *Store) Collection(name string) Collection {
	return Collection{st: s, name: name}
}
