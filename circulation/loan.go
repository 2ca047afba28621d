package circulation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a Loan.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusOverdue  LoanStatus = "overdue"
	LoanStatusReturned LoanStatus = "returned"
)

// Loan records one borrower holding one copy of a resource for a bounded
// period. Loans are never deleted; once returned they are immutable history.
//
// Transitions:
//
//	active  -> overdue   when the due date passes without a return (EvaluateOverdue)
//	active  -> returned  on return (MarkReturned)
//	overdue -> returned  on return (MarkReturned)
//
// All transition methods are pure with respect to the store - they mutate
// the in-memory value only. Persistence is the caller's job.
type Loan struct {
	ID         uuid.UUID
	ResourceID uuid.UUID
	BorrowerID uuid.UUID
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	FineAmount decimal.Decimal
	Status     LoanStatus
}

// BuildLoan creates a new active Loan.
func BuildLoan(id uuid.UUID, resourceID uuid.UUID, borrowerID uuid.UUID, borrowDate time.Time, dueDate time.Time) Loan {
	return Loan{
		ID:         id,
		ResourceID: resourceID,
		BorrowerID: borrowerID,
		BorrowDate: ToOccurredAt(borrowDate),
		DueDate:    ToOccurredAt(dueDate),
		FineAmount: decimal.Zero,
		Status:     LoanStatusActive,
	}
}

// IsOpen reports whether the loan still holds a copy (not yet returned).
func (l Loan) IsOpen() bool {
	return l.Status != LoanStatusReturned
}

// EvaluateOverdue applies the lazy active -> overdue transition.
// Returns true if the status changed, so callers know to persist the loan.
// Has no copy-count effect.
func (l *Loan) EvaluateOverdue(now time.Time) bool {
	if l.Status == LoanStatusActive && now.After(l.DueDate) {
		l.Status = LoanStatusOverdue
		return true
	}

	return false
}

// MarkReturned closes the loan: sets the return date, computes the fine from
// the due date and policy, and moves the loan to its terminal returned state.
// Valid from active or overdue. Returns ErrAlreadyReturned if the loan was
// already returned - the fine and return date are left untouched in that case.
//
// The caller must increment the resource's available copies and attempt
// reservation fulfillment in the same transaction.
func (l *Loan) MarkReturned(now time.Time, policy Policy) error {
	if l.Status == LoanStatusReturned {
		return ErrAlreadyReturned
	}

	returnedAt := ToOccurredAt(now)
	l.ReturnDate = &returnedAt
	l.FineAmount = CalculateFine(l.DueDate, returnedAt, policy)
	l.Status = LoanStatusReturned

	return nil
}

// Renew extends the due date of a timely loan.
// Valid only from active: renewal must extend, not rescue, a timely loan, so
// overdue and returned loans fail with ErrInvalidTransition. Fails with
// ErrInvalidDueDate if the new due date does not extend the current one.
func (l *Loan) Renew(newDueDate time.Time) error {
	if l.Status != LoanStatusActive {
		return ErrInvalidTransition
	}

	if !newDueDate.After(l.DueDate) {
		return ErrInvalidDueDate
	}

	l.DueDate = ToOccurredAt(newDueDate)

	return nil
}

// PayFine reduces the outstanding fine by the given amount, floored at zero.
// Fails with ErrInvalidPayment for non-positive amounts and with
// ErrOverpaymentNotAllowed if the amount exceeds the outstanding fine.
func (l *Loan) PayFine(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidPayment
	}

	if amount.GreaterThan(l.FineAmount) {
		return ErrOverpaymentNotAllowed
	}

	remaining := l.FineAmount.Sub(amount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	l.FineAmount = remaining

	return nil
}
