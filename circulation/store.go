package circulation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistent-store capability injected into the command
// handlers. The core never opens connections itself.
//
// WithinTx runs fn inside a single transaction: either every state change
// made through the Tx commits, or none does. Implementations must serialize
// mutations to a single resource's inventory row and its loan/reservation
// rows, via row-level locking or transaction isolation with conflict
// detection. A conflicting transaction fails with ErrTxConflict so the
// caller can retry; a store timeout fails with ErrStoreUnavailable.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the transactional read/write surface for Resource, Loan, and
// Reservation records. All methods may block on I/O or lock acquisition.
type Tx interface {
	// ResourceForUpdate reads a resource with a row-scoped write lock, making
	// the returned instance the serialization point for all copy-count
	// mutations until the transaction ends. Returns ErrResourceNotFound.
	ResourceForUpdate(ctx context.Context, resourceID uuid.UUID) (Resource, error)

	// SaveResource persists the resource's copy counts.
	SaveResource(ctx context.Context, resource Resource) error

	// Loan reads a loan by ID. Returns ErrLoanNotFound.
	Loan(ctx context.Context, loanID uuid.UUID) (Loan, error)

	InsertLoan(ctx context.Context, loan Loan) error
	UpdateLoan(ctx context.Context, loan Loan) error

	// CountOpenLoans counts a borrower's loans that are not yet returned.
	CountOpenLoans(ctx context.Context, borrowerID uuid.UUID) (int, error)

	// OpenLoansDueBefore lists active loans whose due date lies before the
	// cutoff, for the periodic overdue sweep.
	OpenLoansDueBefore(ctx context.Context, cutoff time.Time) ([]Loan, error)

	// Reservation reads a reservation by ID. Returns ErrReservationNotFound.
	Reservation(ctx context.Context, reservationID uuid.UUID) (Reservation, error)

	InsertReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error

	// HasPendingReservation reports whether the borrower already has a pending
	// reservation for the resource.
	HasPendingReservation(ctx context.Context, resourceID uuid.UUID, borrowerID uuid.UUID) (bool, error)

	// FulfilledReservation returns the borrower's fulfilled hold on the
	// resource, if one exists. The second return value is false when there
	// is none.
	FulfilledReservation(ctx context.Context, resourceID uuid.UUID, borrowerID uuid.UUID) (Reservation, bool, error)

	// NextPendingReservation returns the head of the resource's FIFO queue:
	// the oldest pending reservation by ReservationDate, ties broken by
	// ascending reservation ID. The second return value is false when the
	// queue is empty.
	NextPendingReservation(ctx context.Context, resourceID uuid.UUID) (Reservation, bool, error)

	// FulfilledReservationsExpiredBefore lists fulfilled reservations whose
	// pickup window lapsed before the cutoff, for the periodic expiry sweep.
	FulfilledReservationsExpiredBefore(ctx context.Context, cutoff time.Time) ([]Reservation, error)

	// AppendAuditEvent appends a lifecycle transition record to the audit log.
	AppendAuditEvent(ctx context.Context, event AuditEvent) error
}
