package chain

import (
	"context"
	"fmt"
	"sync"
)

// MemoryLedger is an in-memory, thread-safe Ledger implementation.
// Append holds the writer lock across reading the tail and storing the new
// record, so concurrent callers always extend the true tail.
type MemoryLedger struct {
	mu      sync.RWMutex
	records []Record
	clock   Clock
}

// Option configures a MemoryLedger.
type Option func(*MemoryLedger)

// WithClock sets the date source used by Append. Defaults to SystemClock.
func WithClock(c Clock) Option {
	return func(l *MemoryLedger) {
		if c != nil {
			l.clock = c
		}
	}
}

// New creates a MemoryLedger seeded with the genesis record at position 0.
func New(opts ...Option) *MemoryLedger {
	l := &MemoryLedger{clock: SystemClock{}}
	for _, o := range opts {
		o(l)
	}
	l.records = append(l.records, Genesis())
	return l
}

// Append implements Ledger. It never fails; any payload, including the
// empty string, is accepted.
func (l *MemoryLedger) Append(_ context.Context, payload string) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tail := l.records[len(l.records)-1]
	rec := NewRecord(len(l.records), l.clock.Today(), payload, tail.Hash)
	l.records = append(l.records, rec)
	return rec, nil
}

// Get implements Ledger.
func (l *MemoryLedger) Get(_ context.Context, position int) (Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if position < 0 || position >= len(l.records) {
		return Record{}, fmt.Errorf("position %d: %w", position, ErrRecordNotFound)
	}
	return l.records[position], nil
}

// Len implements Ledger.
func (l *MemoryLedger) Len(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records), nil
}

// Records implements Ledger. The returned slice is a copy; callers may keep
// or modify it without affecting the ledger.
func (l *MemoryLedger) Records(_ context.Context) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out, nil
}

// Root implements Ledger.
func (l *MemoryLedger) Root(_ context.Context) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.records[len(l.records)-1].Hash, nil
}

// Verify implements Ledger.
func (l *MemoryLedger) Verify(_ context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return VerifyRecords(l.records)
}
