package listing

import (
	"context"
	"fmt"

	"github.com/jmerrifield20/listingledger/internal/chain"
)

// Service appends listing events to a ledger and answers reads by folding
// its records.
type Service struct {
	ledger chain.Ledger
}

// NewService creates a Service backed by ledger.
func NewService(ledger chain.Ledger) *Service {
	return &Service{ledger: ledger}
}

// Add records a listing event and returns the listing's state including it.
func (s *Service) Add(ctx context.Context, req AddRequest) (Listing, chain.Record, error) {
	e, err := NewEntry(req)
	if err != nil {
		return Listing{}, chain.Record{}, err
	}
	payload, err := e.Payload()
	if err != nil {
		return Listing{}, chain.Record{}, err
	}

	rec, err := s.ledger.Append(ctx, payload)
	if err != nil {
		return Listing{}, chain.Record{}, fmt.Errorf("append listing: %w", err)
	}

	l, err := s.Get(ctx, e.ID)
	if err != nil {
		return Listing{}, rec, err
	}
	return l, rec, nil
}

// Get returns the current state of listing id.
func (s *Service) Get(ctx context.Context, id string) (Listing, error) {
	records, err := s.ledger.Records(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("list records: %w", err)
	}
	l, ok := Find(records, id)
	if !ok {
		return Listing{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return l, nil
}

// All returns every listing on the chain.
func (s *Service) All(ctx context.Context) ([]Listing, error) {
	records, err := s.ledger.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return Fold(records), nil
}

// History returns the events of listing id in chain order.
func (s *Service) History(ctx context.Context, id string) ([]Event, error) {
	records, err := s.ledger.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	events := History(records, id)
	if len(events) == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return events, nil
}
