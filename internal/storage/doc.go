// Package storage is the durable layer: the subscriber table and the
// append-only alert ledger, both backed by a single SQLite database.
//
// Each exported operation is one atomic statement; there are no
// cross-operation transactions. The ledger never references the subscriber
// table, so the two evolve independently.
package storage
