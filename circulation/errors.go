package circulation

import (
	"errors"
)

// Expected, recoverable business rule violations.
// The API layer translates these into user-facing responses.
var (
	// ErrOutOfStock is returned when a borrow or reservation hold is attempted
	// while no copies of the resource are available.
	ErrOutOfStock = errors.New("no copies of this resource are available")

	// ErrAlreadyReturned is returned when a loan that is already returned is returned again.
	ErrAlreadyReturned = errors.New("loan has already been returned")

	// ErrInvalidTransition is returned for loan or reservation state transitions
	// that are not allowed from the current state, e.g. renewing an overdue loan.
	ErrInvalidTransition = errors.New("state transition is not allowed from the current state")

	// ErrInvalidDueDate is returned when a renewal does not extend the current due date.
	ErrInvalidDueDate = errors.New("new due date must be after the current due date")

	// ErrOverpaymentNotAllowed is returned when a fine payment exceeds the outstanding fine.
	ErrOverpaymentNotAllowed = errors.New("payment exceeds the outstanding fine")

	// ErrInvalidPayment is returned when a fine payment is zero or negative.
	ErrInvalidPayment = errors.New("payment amount must be positive")

	// ErrDuplicateReservation is returned when a borrower already has a pending
	// reservation for the resource.
	ErrDuplicateReservation = errors.New("borrower already has a pending reservation for this resource")

	// ErrCopyAvailable is returned when a reservation is attempted while copies
	// are available - the borrower should borrow directly instead.
	ErrCopyAvailable = errors.New("copies are available, borrow directly instead of reserving")

	// ErrLoanLimitReached is returned when a borrower has reached the maximum
	// number of active loans allowed by the policy.
	ErrLoanLimitReached = errors.New("borrower has reached the active loan limit")
)

// Not-found conditions.
var (
	ErrResourceNotFound    = errors.New("resource not found")
	ErrLoanNotFound        = errors.New("loan not found")
	ErrReservationNotFound = errors.New("reservation not found")
)

// Operational failures.
var (
	// ErrInvariantViolation indicates a bug in an upstream caller or data
	// corruption, e.g. an inventory increment that would exceed total copies.
	// It must be logged and surfaced to the operator, never silently swallowed.
	ErrInvariantViolation = errors.New("inventory invariant violated")

	// ErrTxConflict is returned by a Store when a transaction could not commit
	// because of contention. It is the only retryable error.
	ErrTxConflict = errors.New("transaction conflict, no state was changed")

	// ErrStoreUnavailable is returned when the persistent store could not
	// complete the operation within its bounds - timeouts, connection loss,
	// or retry exhaustion on ErrTxConflict.
	ErrStoreUnavailable = errors.New("persistent store unavailable")
)
