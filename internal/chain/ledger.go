package chain

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned by Get for a position outside the chain.
var ErrRecordNotFound = errors.New("record not found")

// Ledger is the interface for the append-only listing chain.
type Ledger interface {
	// Append adds a new record chained to the current tail.
	Append(ctx context.Context, payload string) (Record, error)

	// Get returns the record at the given zero-based position.
	Get(ctx context.Context, position int) (Record, error)

	// Len returns the number of records, including the genesis record.
	Len(ctx context.Context) (int, error)

	// Records returns every record in chain order, genesis first.
	Records(ctx context.Context) ([]Record, error)

	// Root returns the hash of the most recent record (the chain tip).
	Root(ctx context.Context) (string, error)

	// Verify walks the chain and checks position, linkage and hash
	// consistency. Returns nil if the chain is intact, otherwise an
	// *IntegrityError for the first broken record.
	Verify(ctx context.Context) error
}
