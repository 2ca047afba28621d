package postgresengine

import (
	"context"
	"fmt"
)

// Schema returns the DDL statements for the circulation tables, in the order
// they must be executed. The statements are idempotent.
func Schema() []string {
	return schemaForTables(defaultTableNames())
}

func schemaForTables(tables tableNames) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id UUID PRIMARY KEY,
	resource_type TEXT NOT NULL,
	title TEXT NOT NULL,
	total_copies INTEGER NOT NULL CHECK (total_copies >= 0),
	available_copies INTEGER NOT NULL CHECK (available_copies >= 0 AND available_copies <= total_copies)
);`, tables.resources),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id UUID PRIMARY KEY,
	resource_id UUID NOT NULL REFERENCES %s (id),
	borrower_id UUID NOT NULL,
	borrow_date TIMESTAMP NOT NULL,
	due_date TIMESTAMP NOT NULL,
	return_date TIMESTAMP NULL,
	fine_amount NUMERIC(12, 4) NOT NULL DEFAULT 0,
	status TEXT NOT NULL
);`, tables.loans, tables.resources),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_borrower_status ON %s (borrower_id, status);`,
			tables.loans, tables.loans),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_status_due_date ON %s (status, due_date);`,
			tables.loans, tables.loans),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id UUID PRIMARY KEY,
	resource_id UUID NOT NULL REFERENCES %s (id),
	borrower_id UUID NOT NULL,
	status TEXT NOT NULL,
	reservation_date TIMESTAMP NOT NULL,
	expiry_date TIMESTAMP NULL,
	fulfilled_date TIMESTAMP NULL,
	cancelled_date TIMESTAMP NULL,
	cancellation_reason TEXT NULL
);`, tables.reservations, tables.resources),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_resource_status ON %s (resource_id, status, reservation_date, id);`,
			tables.reservations, tables.reservations),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_status_expiry ON %s (status, expiry_date);`,
			tables.reservations, tables.reservations),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	sequence_number BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	event_type TEXT NOT NULL,
	occurred_at TIMESTAMP NOT NULL,
	payload JSONB NOT NULL
);`, tables.auditEvents),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_occurred_at ON %s (occurred_at);`,
			tables.auditEvents, tables.auditEvents),
	}
}

// CreateSchema applies the DDL statements through the Store's database
// connection, each in its own transaction.
func (s *Store) CreateSchema(ctx context.Context) error {
	for _, stmt := range schemaForTables(s.tables) {
		dbTx, err := s.db.BeginTx(ctx)
		if err != nil {
			s.logError(logMsgBeginTxFailed, err)
			return err
		}

		if _, execErr := dbTx.Exec(ctx, stmt); execErr != nil {
			s.logError(logMsgDBExecFailed, execErr)

			if rollbackErr := dbTx.Rollback(ctx); rollbackErr != nil {
				s.logWarn(logMsgRollbackFailed, rollbackErr)
			}

			return execErr
		}

		if commitErr := dbTx.Commit(ctx); commitErr != nil {
			s.logError(logMsgCommitFailed, commitErr)
			return commitErr
		}
	}

	return nil
}
