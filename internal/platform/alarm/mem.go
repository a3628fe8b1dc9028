package alarm

import (
	"context"
	"sync"
)

// MemSink records alarms in memory. Test double for the Sink capability
type MemSink struct {
	mu   sync.Mutex
	recs []Record
}

// NewMemSink returns an empty in-memory sink
func NewMemSink() *MemSink { return &MemSink{} }

// Report appends the record
func (s *MemSink) Report(_ context.Context, r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, r)
}

// Records returns a copy of everything reported so far
func (s *MemSink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.recs))
	copy(out, s.recs)
	return out
}

// Len returns the number of records reported so far
func (s *MemSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}
