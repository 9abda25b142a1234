package chain

import (
	"errors"
	"fmt"
)

// ErrEmptyChain is returned by VerifyRecords for a chain with no genesis.
var ErrEmptyChain = errors.New("chain is empty")

// IntegrityError reports the first record that breaks the chain.
type IntegrityError struct {
	Position int
	Reason   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("record %d: %s", e.Position, e.Reason)
}

// VerifyRecords checks records in order: each position must equal its index,
// the genesis record must carry the "0" sentinel, every other record must
// link to its predecessor's hash, and every stored hash must match the hash
// recomputed from the record's fields.
func VerifyRecords(records []Record) error {
	if len(records) == 0 {
		return ErrEmptyChain
	}

	for i, curr := range records {
		if curr.Position != i {
			return &IntegrityError{Position: i, Reason: fmt.Sprintf("position is %d, want %d", curr.Position, i)}
		}
		if i == 0 {
			if curr.PreviousHash != GenesisPreviousHash {
				return &IntegrityError{Position: 0, Reason: fmt.Sprintf("genesis previous hash is %q, want %q", curr.PreviousHash, GenesisPreviousHash)}
			}
		} else if curr.PreviousHash != records[i-1].Hash {
			return &IntegrityError{Position: i, Reason: "previous hash does not match predecessor"}
		}
		if curr.Hash != curr.computeHash() {
			return &IntegrityError{Position: i, Reason: "stored hash does not match content"}
		}
	}
	return nil
}
