// Package circulation implements the borrowing and reservation lifecycle for
// lendable resources (books, media, equipment units).
//
// It contains the domain types and the pure transition logic:
//
//   - Resource with its copy-count ledger (the only legal mutation path for
//     available copies)
//   - Loan with the active / overdue / returned state machine
//   - Reservation with the pending / fulfilled / cancelled / expired lifecycle
//     and FIFO fulfillment ordering
//   - CalculateFine, a pure and deterministic fine calculator
//
// Persistence is abstracted behind the Store and Tx interfaces. The
// memoryengine subpackage provides an in-memory implementation for tests and
// embedded use; the postgresengine subpackage provides the production
// implementation on top of PostgreSQL.
//
// The command handler packages under commands/ coordinate the lifecycle
// operations: each handler loads current state, applies a pure decision, and
// persists all resulting mutations within a single store transaction,
// retrying on transaction conflicts with exponential backoff.
package circulation
