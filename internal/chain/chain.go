// Package chain implements the append-only hash chain that backs the listing
// ledger.
//
// Every Record commits to its own position, date, payload and the hash of its
// predecessor. The chain starts from a fixed genesis record whose
// PreviousHash is the sentinel "0", so altering any stored record breaks the
// link to every record after it and is reported by Verify.
//
// MemoryLedger is the only Ledger implementation; the chain lives for the
// lifetime of the process that owns it.
package chain
