// Package integrity is the ledger integrity engine.
//
// Every function here is pure over the snapshot it is given: a ledger slice
// and a key lookup. Persistence and write serialization belong to the caller.
// In particular, Build reads the chronological tail of the snapshot it is
// handed and cannot detect that the snapshot is stale; two appends racing on
// the same snapshot fork the chain. Callers must hold a single-writer boundary
// (see service.StoreTx) across read, Build and write.
//
// Chain order is timestamp order, not append order. A record submitted later
// with an earlier timestamp is chained after whatever was last by timestamp at
// the moment it was appended, and the next audit replays records in timestamp
// order, so a backdated append shows up as a chain break on the records it
// sorts between.
package integrity
