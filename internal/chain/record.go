package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Genesis record fields. The genesis record has no real predecessor, so its
// PreviousHash is the GenesisPreviousHash sentinel.
const (
	GenesisTimestamp    = "2025-03-21"
	GenesisPayload      = "Genesis Block"
	GenesisPreviousHash = "0"
)

// Record is a single immutable entry in the ledger.
type Record struct {
	Position     int    `json:"position"`
	Timestamp    string `json:"timestamp"` // YYYY-MM-DD
	Payload      string `json:"payload"`
	PreviousHash string `json:"previous_hash"`
	Hash         string `json:"hash"`
}

// NewRecord builds a Record and derives its identity hash.
func NewRecord(position int, timestamp, payload, previousHash string) Record {
	return Record{
		Position:     position,
		Timestamp:    timestamp,
		Payload:      payload,
		PreviousHash: previousHash,
		Hash:         CalculateHash(position, timestamp, payload, previousHash),
	}
}

// Genesis returns the fixed root record of every ledger.
func Genesis() Record {
	return NewRecord(0, GenesisTimestamp, GenesisPayload, GenesisPreviousHash)
}

// CalculateHash returns the lowercase hex SHA-256 of
// position || timestamp || payload || previousHash, concatenated without
// separators and with position in decimal.
func CalculateHash(position int, timestamp, payload, previousHash string) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(position)))
	h.Write([]byte(timestamp))
	h.Write([]byte(payload))
	h.Write([]byte(previousHash))
	return hex.EncodeToString(h.Sum(nil))
}

// computeHash recomputes the hash of r from its content fields.
func (r Record) computeHash() string {
	return CalculateHash(r.Position, r.Timestamp, r.Payload, r.PreviousHash)
}
