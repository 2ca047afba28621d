package adapters

import (
	"context"
	"database/sql"
)

// SQLAdapter implements DBAdapter for the standard library sql.DB
type SQLAdapter struct {
	db *sql.DB
}

// NewSQLAdapter creates a new SQL adapter
func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

// BeginTx starts a repeatable-read transaction on the sql.DB.
func (s *SQLAdapter) BeginTx(ctx context.Context) (DBTx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, err
	}

	return &stdTx{tx: tx}, nil
}
