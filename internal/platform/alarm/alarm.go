// Package alarm carries structured failure reports to an operator-facing sink.
//
// A Record names the failing operation (Caller), the failure cause (What), and
// the operation's original inputs (Info). Sinks are fire-and-forget: Report
// returns nothing and implementations swallow their own failures, so a broken
// sink can never change the outcome of the call that raised the alarm.
package alarm

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkint/yttrex/internal/platform/logger"
)

// Record is one failure report
type Record struct {
	ID     string         `json:"id"`
	Caller string         `json:"caller"`
	What   string         `json:"what"`
	Info   map[string]any `json:"info,omitempty"`
	At     time.Time      `json:"at"`
}

// NewRecord builds a Record for the given operation and cause
func NewRecord(caller string, cause error, info map[string]any) Record {
	what := "unknown failure"
	if cause != nil {
		what = cause.Error()
	}
	return Record{
		ID:     uuid.NewString(),
		Caller: caller,
		What:   what,
		Info:   info,
		At:     time.Now().UTC(),
	}
}

// Sink receives alarm records. One method, fire and forget
type Sink interface {
	Report(ctx context.Context, r Record)
}

// ZerologSink writes alarms to a logger at error level
type ZerologSink struct{ log *logger.Logger }

// NewZerologSink returns a Sink over the given logger; nil falls back to the root logger
func NewZerologSink(log *logger.Logger) ZerologSink {
	if log == nil {
		log = logger.Get()
	}
	return ZerologSink{log: log}
}

// Report logs the record; it never fails the caller
func (s ZerologSink) Report(_ context.Context, r Record) {
	s.log.Error().
		Str("alarm_id", r.ID).
		Str("caller", r.Caller).
		Str("what", r.What).
		Interface("info", r.Info).
		Time("at", r.At).
		Msg("alarm")
}

// Multi fans a record out to several sinks in order
type Multi []Sink

// Report forwards to every sink
func (m Multi) Report(ctx context.Context, r Record) {
	for _, s := range m {
		if s != nil {
			s.Report(ctx, r)
		}
	}
}
