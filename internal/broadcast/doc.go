// Package broadcast implements the delivery engine: one submitted alert is
// appended to the ledger, fanned out to every active subscriber through the
// gateway, and summarized in a Result.
//
// Delivery semantics
//
// The engine is best-effort per recipient: a failed send is recorded in the
// Result and never aborts sibling sends. The ledger append, however, gates
// the whole operation; if the alert cannot be recorded, nothing is sent.
//
// Throughput toward the gateway is governed by a single shared interval
// limiter, so the aggregate send rate stays below one send per interval no
// matter how many dispatch workers run. Cancelling the submit context stops
// new sends; sends already in flight finish and are counted.
package broadcast
