package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/lendwise/circulation-go/circulation"
	"github.com/lendwise/circulation-go/circulation/postgresengine/internal/adapters"
)

const (
	defaultResourcesTableName    = "resources"
	defaultLoansTableName        = "loans"
	defaultReservationsTableName = "reservations"
	defaultAuditTableName        = "circulation_events"

	logMsgBuildQueryFailed = "failed to build query"
	logMsgDBQueryFailed    = "database query execution failed"
	logMsgDBExecFailed     = "database execution failed"
	logMsgCloseRowsFailed  = "failed to close database rows"
	logMsgScanRowFailed    = "failed to scan database row"
	logMsgBeginTxFailed    = "failed to begin transaction"
	logMsgCommitFailed     = "failed to commit transaction"
	logMsgRollbackFailed   = "failed to roll back transaction"
	logMsgTxConflict       = "transaction conflict detected"
	logAttrError           = "error"
	logAttrQuery           = "query"

	colID                 = "id"
	colResourceType       = "resource_type"
	colTitle              = "title"
	colTotalCopies        = "total_copies"
	colAvailableCopies    = "available_copies"
	colResourceID         = "resource_id"
	colBorrowerID         = "borrower_id"
	colBorrowDate         = "borrow_date"
	colDueDate            = "due_date"
	colReturnDate         = "return_date"
	colFineAmount         = "fine_amount"
	colStatus             = "status"
	colReservationDate    = "reservation_date"
	colExpiryDate         = "expiry_date"
	colFulfilledDate      = "fulfilled_date"
	colCancelledDate      = "cancelled_date"
	colCancellationReason = "cancellation_reason"
	colEventType          = "event_type"
	colOccurredAt         = "occurred_at"
	colPayload            = "payload"

	dialectPostgres = "postgres"
	castJsonb       = "?::jsonb"

	// SQLSTATE codes that mean the transaction lost a race, not that it is broken.
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
)

var (
	// ErrNilDatabaseConnection is returned when a Store is constructed without a connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableName is returned when an empty table name is supplied.
	ErrEmptyTableName = errors.New("empty table name supplied")
)

type tableNames struct {
	resources    string
	loans        string
	reservations string
	auditEvents  string
}

func defaultTableNames() tableNames {
	return tableNames{
		resources:    defaultResourcesTableName,
		loans:        defaultLoansTableName,
		reservations: defaultReservationsTableName,
		auditEvents:  defaultAuditTableName,
	}
}

// Store is the PostgreSQL implementation of circulation.Store.
// It leverages a database adapter and supports customizable logging and table configuration.
type Store struct {
	db               adapters.DBAdapter
	tables           tableNames
	logger           circulation.Logger
	contextualLogger circulation.ContextualLogger
	metrics          circulation.MetricsCollector
	tracing          circulation.TracingCollector
}

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithTableNames sets the table names for resources, loans, reservations, and audit events.
func WithTableNames(resources string, loans string, reservations string, auditEvents string) Option {
	return func(s *Store) error {
		if resources == "" || loans == "" || reservations == "" || auditEvents == "" {
			return ErrEmptyTableName
		}

		s.tables = tableNames{
			resources:    resources,
			loans:        loans,
			reservations: reservations,
			auditEvents:  auditEvents,
		}

		return nil
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries (development use)
// Info level: transaction conflicts (production-safe)
// Warn level: non-critical issues like cleanup failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger circulation.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(adapter adapters.DBAdapter, options ...Option) (*Store, error) {
	store := &Store{
		db:     adapter,
		tables: defaultTableNames(),
	}

	for _, option := range options {
		if err := option(store); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// WithinTx implements circulation.Store: it runs fn inside one repeatable-read
// transaction, commits on success, and rolls back on any error.
// Serialization and deadlock failures surface as circulation.ErrTxConflict so
// the command handlers can retry; timeouts surface as circulation.ErrStoreUnavailable.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx circulation.Tx) error) error {
	ctx, observation := s.observeTx(ctx)

	dbTx, err := s.db.BeginTx(ctx)
	if err != nil {
		s.logError(logMsgBeginTxFailed, err)
		return s.finishWithError(ctx, observation, err)
	}

	storeTx := &postgresTx{db: dbTx, tables: s.tables, logger: s.logger}

	if fnErr := fn(ctx, storeTx); fnErr != nil {
		if rollbackErr := dbTx.Rollback(ctx); rollbackErr != nil {
			s.logWarn(logMsgRollbackFailed, rollbackErr)
		}

		return s.finishWithError(ctx, observation, fnErr)
	}

	if commitErr := dbTx.Commit(ctx); commitErr != nil {
		s.logError(logMsgCommitFailed, commitErr)
		return s.finishWithError(ctx, observation, commitErr)
	}

	observation.finish(statusSuccess, nil)

	return nil
}

func (s *Store) finishWithError(ctx context.Context, observation *txObservation, err error) error {
	mapped := s.mapStoreError(ctx, err)

	if errors.Is(mapped, circulation.ErrTxConflict) {
		observation.finish(statusConflict, mapped)
	} else {
		observation.finish(statusError, mapped)
	}

	return mapped
}

// mapStoreError translates driver errors into the circulation error kinds.
// Serialization failures and deadlocks become ErrTxConflict (retryable);
// deadline expiry becomes ErrStoreUnavailable; domain errors pass through.
func (s *Store) mapStoreError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if isSerializationFailure(err) {
		s.logInfoContext(ctx, logMsgTxConflict, logAttrError, err.Error())

		return errors.Join(circulation.ErrTxConflict, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(circulation.ErrStoreUnavailable, err)
	}

	return err
}

// isSerializationFailure inspects the SQLSTATE of pgx and lib/pq driver errors.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlstateSerializationFailure || pgErr.Code == sqlstateDeadlockDetected
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		return code == sqlstateSerializationFailure || code == sqlstateDeadlockDetected
	}

	return false
}

func (s *Store) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, logAttrError, err.Error())
	}
}

func (s *Store) logWarn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, logAttrError, err.Error())
	}
}

// postgresTx implements circulation.Tx on top of one database transaction.
type postgresTx struct {
	db     adapters.DBTx
	tables tableNames
	logger circulation.Logger
}

func (t *postgresTx) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

func (t *postgresTx) ResourceForUpdate(ctx context.Context, resourceID uuid.UUID) (circulation.Resource, error) {
	var none circulation.Resource

	sqlQuery, _, toSQLErr := t.builder().
		From(t.tables.resources).
		Select(colID, colResourceType, colTitle, colTotalCopies, colAvailableCopies).
		Where(goqu.Ex{colID: resourceID.String()}).
		ForUpdate(exp.Wait).
		ToSQL()
	if toSQLErr != nil {
		return none, t.buildQueryError(toSQLErr)
	}

	rows, err := t.query(ctx, sqlQuery)
	if err != nil {
		return none, err
	}
	defer t.closeRows(rows)

	if !rows.Next() {
		return none, circulation.ErrResourceNotFound
	}

	var (
		idStr        string
		resourceType string
		resource     circulation.Resource
	)

	if scanErr := rows.Scan(&idStr, &resourceType, &resource.Title, &resource.TotalCopies, &resource.AvailableCopies); scanErr != nil {
		return none, t.scanError(scanErr)
	}

	id, parseErr := uuid.Parse(idStr)
	if parseErr != nil {
		return none, t.scanError(parseErr)
	}

	resource.ID = id
	resource.Type = circulation.ResourceType(resourceType)

	return resource, nil
}

func (t *postgresTx) SaveResource(ctx context.Context, resource circulation.Resource) error {
	sqlQuery, _, toSQLErr := t.builder().
		Update(t.tables.resources).
		Set(goqu.Record{
			colTotalCopies:     resource.TotalCopies,
			colAvailableCopies: resource.AvailableCopies,
		}).
		Where(goqu.Ex{colID: resource.ID.String()}).
		ToSQL()
	if toSQLErr != nil {
		return t.buildQueryError(toSQLErr)
	}

	affected, err := t.exec(ctx, sqlQuery)
	if err != nil {
		return err
	}

	if affected == 0 {
		return circulation.ErrResourceNotFound
	}

	return nil
}

func (t *postgresTx) Loan(ctx context.Context, loanID uuid.UUID) (circulation.Loan, error) {
	loans, err := t.queryLoans(ctx, goqu.Ex{colID: loanID.String()}, nil, 1)
	if err != nil {
		return circulation.Loan{}, err
	}

	if len(loans) == 0 {
		return circulation.Loan{}, circulation.ErrLoanNotFound
	}

	return loans[0], nil
}

func (t *postgresTx) InsertLoan(ctx context.Context, loan circulation.Loan) error {
	sqlQuery, _, toSQLErr := t.builder().
		Insert(t.tables.loans).
		Cols(colID, colResourceID, colBorrowerID, colBorrowDate, colDueDate, colReturnDate, colFineAmount, colStatus).
		Vals(goqu.Vals{
			loan.ID.String(),
			loan.ResourceID.String(),
			loan.BorrowerID.String(),
			loan.BorrowDate,
			loan.DueDate,
			nullableTime(loan.ReturnDate),
			loan.FineAmount.String(),
			string(loan.Status),
		}).
		ToSQL()
	if toSQLErr != nil {
		return t.buildQueryError(toSQLErr)
	}

	_, err := t.exec(ctx, sqlQuery)

	return err
}

func (t *postgresTx) UpdateLoan(ctx context.Context, loan circulation.Loan) error {
	sqlQuery, _, toSQLErr := t.builder().
		Update(t.tables.loans).
		Set(goqu.Record{
			colDueDate:    loan.DueDate,
			colReturnDate: nullableTime(loan.ReturnDate),
			colFineAmount: loan.FineAmount.String(),
			colStatus:     string(loan.Status),
		}).
		Where(goqu.Ex{colID: loan.ID.String()}).
		ToSQL()
	if toSQLErr != nil {
		return t.buildQueryError(toSQLErr)
	}

	affected, err := t.exec(ctx, sqlQuery)
	if err != nil {
		return err
	}

	if affected == 0 {
		return circulation.ErrLoanNotFound
	}

	return nil
}

func (t *postgresTx) CountOpenLoans(ctx context.Context, borrowerID uuid.UUID) (int, error) {
	// The resource row lock does not serialize borrows by the same borrower
	// on different resources, so the loan cap must be guarded per borrower.
	if err := t.acquireBorrowerLock(ctx, borrowerID); err != nil {
		return 0, err
	}

	sqlQuery, _, toSQLErr := t.builder().
		From(t.tables.loans).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.Ex{colBorrowerID: borrowerID.String()},
			goqu.C(colStatus).Neq(string(circulation.LoanStatusReturned)),
		).
		ToSQL()
	if toSQLErr != nil {
		return 0, t.buildQueryError(toSQLErr)
	}

	rows, err := t.query(ctx, sqlQuery)
	if err != nil {
		return 0, err
	}
	defer t.closeRows(rows)

	count := 0
	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			return 0, t.scanError(scanErr)
		}
	}

	return count, nil
}

// acquireBorrowerLock takes a transaction-scoped advisory lock keyed on the
// borrower ID. It is released automatically when the transaction ends.
func (t *postgresTx) acquireBorrowerLock(ctx context.Context, borrowerID uuid.UUID) error {
	sqlQuery, _, toSQLErr := t.builder().
		Select(goqu.L("pg_advisory_xact_lock(hashtextextended(?, 0))", borrowerID.String())).
		ToSQL()
	if toSQLErr != nil {
		return t.buildQueryError(toSQLErr)
	}

	rows, err := t.query(ctx, sqlQuery)
	if err != nil {
		return err
	}
	t.closeRows(rows)

	return nil
}

func (t *postgresTx) OpenLoansDueBefore(ctx context.Context, cutoff time.Time) ([]circulation.Loan, error) {
	where := goqu.Ex{colStatus: string(circulation.LoanStatusActive)}
	order := []exp.OrderedExpression{goqu.I(colDueDate).Asc(), goqu.I(colID).Asc()}

	return t.queryLoans(ctx, goqu.And(where, goqu.C(colDueDate).Lt(cutoff)), order, 0)
}

func (t *postgresTx) queryLoans(ctx context.Context, where exp.Expression, order []exp.OrderedExpression, limit uint) ([]circulation.Loan, error) {
	selectStmt := t.builder().
		From(t.tables.loans).
		Select(colID, colResourceID, colBorrowerID, colBorrowDate, colDueDate, colReturnDate, colFineAmount, colStatus).
		Where(where)

	if len(order) > 0 {
		selectStmt = selectStmt.Order(order...)
	}

	if limit > 0 {
		selectStmt = selectStmt.Limit(limit)
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return nil, t.buildQueryError(toSQLErr)
	}

	rows, err := t.query(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer t.closeRows(rows)

	var loans []circulation.Loan

	for rows.Next() {
		loan, scanErr := t.scanLoan(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		loans = append(loans, loan)
	}

	return loans, nil
}

func (t *postgresTx) scanLoan(rows adapters.DBRows) (circulation.Loan, error) {
	var (
		none       circulation.Loan
		idStr      string
		resIDStr   string
		borrIDStr  string
		returnDate sql.NullTime
		fineStr    string
		status     string
		loan       circulation.Loan
	)

	if err := rows.Scan(&idStr, &resIDStr, &borrIDStr, &loan.BorrowDate, &loan.DueDate, &returnDate, &fineStr, &status); err != nil {
		return none, t.scanError(err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return none, t.scanError(err)
	}

	resourceID, err := uuid.Parse(resIDStr)
	if err != nil {
		return none, t.scanError(err)
	}

	borrowerID, err := uuid.Parse(borrIDStr)
	if err != nil {
		return none, t.scanError(err)
	}

	fineAmount, err := decimal.NewFromString(fineStr)
	if err != nil {
		return none, t.scanError(err)
	}

	loan.ID = id
	loan.ResourceID = resourceID
	loan.BorrowerID = borrowerID
	loan.FineAmount = fineAmount
	loan.Status = circulation.LoanStatus(status)

	if returnDate.Valid {
		returnedAt := returnDate.Time
		loan.ReturnDate = &returnedAt
	}

	return loan, nil
}

func (t *postgresTx) Reservation(ctx context.Context, reservationID uuid.UUID) (circulation.Reservation, error) {
	reservations, err := t.queryReservations(ctx, goqu.Ex{colID: reservationID.String()}, nil, 1)
	if err != nil {
		return circulation.Reservation{}, err
	}

	if len(reservations) == 0 {
		return circulation.Reservation{}, circulation.ErrReservationNotFound
	}

	return reservations[0], nil
}

func (t *postgresTx) InsertReservation(ctx context.Context, reservation circulation.Reservation) error {
	sqlQuery, _, toSQLErr := t.builder().
		Insert(t.tables.reservations).
		Cols(colID, colResourceID, colBorrowerID, colStatus, colReservationDate,
			colExpiryDate, colFulfilledDate, colCancelledDate, colCancellationReason).
		Vals(goqu.Vals{
			reservation.ID.String(),
			reservation.ResourceID.String(),
			reservation.BorrowerID.String(),
			string(reservation.Status),
			reservation.ReservationDate,
			nullableTime(reservation.ExpiryDate),
			nullableTime(reservation.FulfilledDate),
			nullableTime(reservation.CancelledDate),
			nullableString(reservation.CancellationReason),
		}).
		ToSQL()
	if toSQLErr != nil {
		return t.buildQueryError(toSQLErr)
	}

	_, err := t.exec(ctx, sqlQuery)

	return err
}

func (t *postgresTx) UpdateReservation(ctx context.Context, reservation circulation.Reservation) error {
	sqlQuery, _, toSQLErr := t.builder().
		Update(t.tables.reservations).
		Set(goqu.Record{
			colStatus:             string(reservation.Status),
			colExpiryDate:         nullableTime(reservation.ExpiryDate),
			colFulfilledDate:      nullableTime(reservation.FulfilledDate),
			colCancelledDate:      nullableTime(reservation.CancelledDate),
			colCancellationReason: nullableString(reservation.CancellationReason),
		}).
		Where(goqu.Ex{colID: reservation.ID.String()}).
		ToSQL()
	if toSQLErr != nil {
		return t.buildQueryError(toSQLErr)
	}

	affected, err := t.exec(ctx, sqlQuery)
	if err != nil {
		return err
	}

	if affected == 0 {
		return circulation.ErrReservationNotFound
	}

	return nil
}

func (t *postgresTx) HasPendingReservation(ctx context.Context, resourceID uuid.UUID, borrowerID uuid.UUID) (bool, error) {
	sqlQuery, _, toSQLErr := t.builder().
		From(t.tables.reservations).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.Ex{
			colResourceID: resourceID.String(),
			colBorrowerID: borrowerID.String(),
			colStatus:     string(circulation.ReservationStatusPending),
		}).
		ToSQL()
	if toSQLErr != nil {
		return false, t.buildQueryError(toSQLErr)
	}

	rows, err := t.query(ctx, sqlQuery)
	if err != nil {
		return false, err
	}
	defer t.closeRows(rows)

	count := 0
	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			return false, t.scanError(scanErr)
		}
	}

	return count > 0, nil
}

func (t *postgresTx) FulfilledReservation(ctx context.Context, resourceID uuid.UUID, borrowerID uuid.UUID) (circulation.Reservation, bool, error) {
	where := goqu.Ex{
		colResourceID: resourceID.String(),
		colBorrowerID: borrowerID.String(),
		colStatus:     string(circulation.ReservationStatusFulfilled),
	}

	reservations, err := t.queryReservations(ctx, where, nil, 1)
	if err != nil {
		return circulation.Reservation{}, false, err
	}

	if len(reservations) == 0 {
		return circulation.Reservation{}, false, nil
	}

	return reservations[0], true, nil
}

func (t *postgresTx) NextPendingReservation(ctx context.Context, resourceID uuid.UUID) (circulation.Reservation, bool, error) {
	where := goqu.Ex{
		colResourceID: resourceID.String(),
		colStatus:     string(circulation.ReservationStatusPending),
	}

	// FIFO by reservation date, ties broken by ascending ID for determinism.
	order := []exp.OrderedExpression{goqu.I(colReservationDate).Asc(), goqu.I(colID).Asc()}

	reservations, err := t.queryReservations(ctx, where, order, 1)
	if err != nil {
		return circulation.Reservation{}, false, err
	}

	if len(reservations) == 0 {
		return circulation.Reservation{}, false, nil
	}

	return reservations[0], true, nil
}

func (t *postgresTx) FulfilledReservationsExpiredBefore(ctx context.Context, cutoff time.Time) ([]circulation.Reservation, error) {
	where := goqu.And(
		goqu.Ex{colStatus: string(circulation.ReservationStatusFulfilled)},
		goqu.C(colExpiryDate).Lt(cutoff),
	)

	order := []exp.OrderedExpression{goqu.I(colExpiryDate).Asc(), goqu.I(colID).Asc()}

	return t.queryReservations(ctx, where, order, 0)
}

func (t *postgresTx) queryReservations(ctx context.Context, where exp.Expression, order []exp.OrderedExpression, limit uint) ([]circulation.Reservation, error) {
	selectStmt := t.builder().
		From(t.tables.reservations).
		Select(colID, colResourceID, colBorrowerID, colStatus, colReservationDate,
			colExpiryDate, colFulfilledDate, colCancelledDate, colCancellationReason).
		Where(where)

	if len(order) > 0 {
		selectStmt = selectStmt.Order(order...)
	}

	if limit > 0 {
		selectStmt = selectStmt.Limit(limit)
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return nil, t.buildQueryError(toSQLErr)
	}

	rows, err := t.query(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer t.closeRows(rows)

	var reservations []circulation.Reservation

	for rows.Next() {
		reservation, scanErr := t.scanReservation(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		reservations = append(reservations, reservation)
	}

	return reservations, nil
}

func (t *postgresTx) scanReservation(rows adapters.DBRows) (circulation.Reservation, error) {
	var (
		none          circulation.Reservation
		idStr         string
		resIDStr      string
		borrIDStr     string
		status        string
		expiryDate    sql.NullTime
		fulfilledDate sql.NullTime
		cancelledDate sql.NullTime
		reason        sql.NullString
		reservation   circulation.Reservation
	)

	if err := rows.Scan(&idStr, &resIDStr, &borrIDStr, &status, &reservation.ReservationDate,
		&expiryDate, &fulfilledDate, &cancelledDate, &reason); err != nil {
		return none, t.scanError(err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return none, t.scanError(err)
	}

	resourceID, err := uuid.Parse(resIDStr)
	if err != nil {
		return none, t.scanError(err)
	}

	borrowerID, err := uuid.Parse(borrIDStr)
	if err != nil {
		return none, t.scanError(err)
	}

	reservation.ID = id
	reservation.ResourceID = resourceID
	reservation.BorrowerID = borrowerID
	reservation.Status = circulation.ReservationStatus(status)
	reservation.CancellationReason = reason.String

	if expiryDate.Valid {
		expiresAt := expiryDate.Time
		reservation.ExpiryDate = &expiresAt
	}

	if fulfilledDate.Valid {
		fulfilledAt := fulfilledDate.Time
		reservation.FulfilledDate = &fulfilledAt
	}

	if cancelledDate.Valid {
		cancelledAt := cancelledDate.Time
		reservation.CancelledDate = &cancelledAt
	}

	return reservation, nil
}

func (t *postgresTx) AppendAuditEvent(ctx context.Context, event circulation.AuditEvent) error {
	sqlQuery, _, toSQLErr := t.builder().
		Insert(t.tables.auditEvents).
		Cols(colEventType, colOccurredAt, colPayload).
		Vals(goqu.Vals{
			event.EventType,
			event.OccurredAt,
			goqu.L(castJsonb, string(event.PayloadJSON)),
		}).
		ToSQL()
	if toSQLErr != nil {
		return t.buildQueryError(toSQLErr)
	}

	_, err := t.exec(ctx, sqlQuery)

	return err
}

func (t *postgresTx) query(ctx context.Context, sqlQuery string) (adapters.DBRows, error) {
	rows, err := t.db.Query(ctx, sqlQuery)
	if err != nil {
		if t.logger != nil {
			t.logger.Error(logMsgDBQueryFailed, logAttrError, err.Error(), logAttrQuery, sqlQuery)
		}

		return nil, err
	}

	return rows, nil
}

func (t *postgresTx) exec(ctx context.Context, sqlQuery string) (int64, error) {
	result, err := t.db.Exec(ctx, sqlQuery)
	if err != nil {
		if t.logger != nil {
			t.logger.Error(logMsgDBExecFailed, logAttrError, err.Error(), logAttrQuery, sqlQuery)
		}

		return 0, err
	}

	affected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		return 0, rowsAffectedErr
	}

	return affected, nil
}

func (t *postgresTx) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if t.logger != nil {
			t.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

func (t *postgresTx) buildQueryError(err error) error {
	if t.logger != nil {
		t.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
	}

	return err
}

func (t *postgresTx) scanError(err error) error {
	if t.logger != nil {
		t.logger.Error(logMsgScanRowFailed, logAttrError, err.Error())
	}

	return err
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return *t
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}

	return s
}

// Ensure the interfaces are implemented.
var (
	_ circulation.Store = (*Store)(nil)
	_ circulation.Tx    = (*postgresTx)(nil)
)
