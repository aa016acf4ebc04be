package outcomes

import (
	"context"
	"sync"
	"time"

	"smc-signal-engine/internal/advisory"
)

// Result classifies how a signal played out
type Result string

const (
	Win       Result = "win"
	Loss      Result = "loss"
	Breakeven Result = "breakeven"
)

// Record is an appended outcome keyed by signal identity. The original
// signal is never mutated; training data accumulates as separate rows.
type Record struct {
	SignalID   string            `json:"signal_id"`
	Result     Result            `json:"result"`
	Features   advisory.Features `json:"features"`
	RecordedAt time.Time         `json:"recorded_at"`
}

// Recorder is the side channel the external ML-training collaborator
// consumes. Implementations append, never update.
type Recorder interface {
	RecordOutcome(ctx context.Context, rec Record) error
}

// MemoryRecorder keeps outcomes in memory, for tests and for running
// without a database
type MemoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryRecorder creates an in-memory outcome recorder
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// RecordOutcome appends the record
func (m *MemoryRecorder) RecordOutcome(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of everything recorded so far
func (m *MemoryRecorder) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}
