// Package service orchestrates the core components of the matching
// engine — orderbook, entry WAL, trade outbox, and market data.
//
// It is the ONLY write entry point into the system. Every submit,
// cancel, and query is funneled through a single dispatcher goroutine,
// so queue order — not caller wall-clock order — is the authoritative
// ordering, and queries always observe between-operation snapshots.
package service
