// Package postgresengine provides the PostgreSQL implementation of the
// circulation store.
//
// The engine supports multiple database drivers (pgx, database/sql, sqlx)
// through an internal adapter layer, so callers can plug in whichever
// connection pool their application already manages. All lifecycle
// operations run inside repeatable-read transactions; the resource row is
// locked with SELECT ... FOR UPDATE so concurrent borrows, returns, and
// reservation fulfillments for the same resource serialize on that row.
// Serialization failures and deadlocks are reported as
// circulation.ErrTxConflict, which the command handlers retry with
// exponential backoff.
package postgresengine
