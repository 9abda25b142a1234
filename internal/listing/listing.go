// Package listing models structured real-estate listings on top of a chain.
//
// A listing event is a record whose payload is the canonical JSON encoding
// of an Entry. Listings are never stored separately: every read folds the
// chain's records, so a repeated Add extends a listing's price and owner
// history instead of replacing it.
package listing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"
	"github.com/jmerrifield20/listingledger/internal/chain"
)

// Kind tags record payloads that carry a listing event.
const Kind = "listing"

var (
	// ErrNotFound is returned when no record carries the requested listing.
	ErrNotFound = errors.New("listing not found")
	// ErrInvalid is returned when a listing request is missing fields.
	ErrInvalid = errors.New("invalid listing")
)

// PropertyID derives the listing ID from its address: the lowercase hex
// SHA-256 of the address bytes.
func PropertyID(address string) string {
	sum := sha256.Sum256([]byte(address))
	return hex.EncodeToString(sum[:])
}

// AddRequest is the input of a listing event.
type AddRequest struct {
	Address string `json:"address" validate:"required"`
	Owner   string `json:"owner" validate:"required"`
	Price   string `json:"price" validate:"required"`
}

// Entry is the payload written to the chain for one listing event.
type Entry struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Address string `json:"address"`
	Owner   string `json:"owner"`
	Price   string `json:"price"`
}

// NewEntry trims and validates req and derives the listing ID.
func NewEntry(req AddRequest) (Entry, error) {
	req.Address = strings.TrimSpace(req.Address)
	req.Owner = strings.TrimSpace(req.Owner)
	req.Price = strings.TrimSpace(req.Price)

	v := validate.Struct(&req)
	if !v.Validate() {
		return Entry{}, fmt.Errorf("%w: %s", ErrInvalid, v.Errors.One())
	}
	return Entry{
		Kind:    Kind,
		ID:      PropertyID(req.Address),
		Address: req.Address,
		Owner:   req.Owner,
		Price:   req.Price,
	}, nil
}

// Payload returns the canonical JSON form of e.
func (e Entry) Payload() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal listing entry: %w", err)
	}
	return string(b), nil
}

// Decode extracts the listing event carried by rec. Records with free-form
// payloads, or whose ID does not match the address, report false.
func Decode(rec chain.Record) (Entry, bool) {
	if !strings.HasPrefix(rec.Payload, "{") {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal([]byte(rec.Payload), &e); err != nil {
		return Entry{}, false
	}
	if e.Kind != Kind || e.Address == "" || e.ID != PropertyID(e.Address) {
		return Entry{}, false
	}
	return e, true
}

// PriceEntry is one price in a listing's history.
type PriceEntry struct {
	Price    string `json:"price"`
	Date     string `json:"date"`
	Position int    `json:"position"`
}

// OwnerEntry is one owner in a listing's history.
type OwnerEntry struct {
	Owner    string `json:"owner"`
	Date     string `json:"date"`
	Position int    `json:"position"`
}

// Listing is the folded state of every event for one property.
type Listing struct {
	ID           string       `json:"id"`
	Address      string       `json:"address"`
	Owner        string       `json:"owner"`
	Price        string       `json:"price"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
	PriceHistory []PriceEntry `json:"price_history"`
	OwnerHistory []OwnerEntry `json:"owner_history"`
}

func (l *Listing) apply(rec chain.Record, e Entry) {
	if l.ID == "" {
		l.ID = e.ID
		l.Address = e.Address
		l.CreatedAt = rec.Timestamp
	}
	l.Owner = e.Owner
	l.Price = e.Price
	l.UpdatedAt = rec.Timestamp
	l.PriceHistory = append(l.PriceHistory, PriceEntry{Price: e.Price, Date: rec.Timestamp, Position: rec.Position})
	l.OwnerHistory = append(l.OwnerHistory, OwnerEntry{Owner: e.Owner, Date: rec.Timestamp, Position: rec.Position})
}

// Event is one listing event together with the record that carries it.
type Event struct {
	Position  int    `json:"position"`
	Timestamp string `json:"timestamp"`
	Hash      string `json:"hash"`
	Owner     string `json:"owner"`
	Price     string `json:"price"`
}

// Fold builds every listing found in records, ordered by first appearance.
func Fold(records []chain.Record) []Listing {
	index := make(map[string]int)
	out := []Listing{}
	for _, rec := range records {
		e, ok := Decode(rec)
		if !ok {
			continue
		}
		i, seen := index[e.ID]
		if !seen {
			i = len(out)
			index[e.ID] = i
			out = append(out, Listing{})
		}
		out[i].apply(rec, e)
	}
	return out
}

// Find folds only the events of listing id.
func Find(records []chain.Record, id string) (Listing, bool) {
	var l Listing
	for _, rec := range records {
		if e, ok := Decode(rec); ok && e.ID == id {
			l.apply(rec, e)
		}
	}
	return l, l.ID != ""
}

// History returns the events of listing id in chain order.
func History(records []chain.Record, id string) []Event {
	var events []Event
	for _, rec := range records {
		e, ok := Decode(rec)
		if !ok || e.ID != id {
			continue
		}
		events = append(events, Event{
			Position:  rec.Position,
			Timestamp: rec.Timestamp,
			Hash:      rec.Hash,
			Owner:     e.Owner,
			Price:     e.Price,
		})
	}
	return events
}
