package borrow

import (
	"github.com/google/uuid"

	"github.com/lendwise/circulation-go/circulation"
)

// Decide implements the business logic to determine whether a borrow should
// produce a new loan. This is a pure function with no side effects - it takes
// the current state and a command and returns the loan that should be created
// based on the business rules.
//
// Business Rules:
//
//	GIVEN: A resource with ResourceID and a borrower with BorrowerID
//	WHEN: BorrowResource command is received
//	THEN: A new active Loan is created and one copy is taken from the pool;
//	      when the borrower picks up a fulfilled hold (hasConvertibleHold),
//	      the held copy backs the loan and the pool is not touched
//	ERROR: ErrOutOfStock if no copies are available and the borrower holds no
//	       fulfilled reservation (the caller may route the borrower to the
//	       reservation queue instead)
//	ERROR: ErrInvalidDueDate if the due date does not lie after the borrow date
//	ERROR: ErrLoanLimitReached if the borrower is at the policy's open loan cap
func Decide(
	resource circulation.Resource,
	openLoanCount int,
	hasConvertibleHold bool,
	policy circulation.Policy,
	loanID uuid.UUID,
	command Command,
) (circulation.Loan, error) {

	var none circulation.Loan

	if !command.DueDate.After(command.OccurredAt) {
		return none, circulation.ErrInvalidDueDate
	}

	if policy.MaxActiveLoansPerBorrower > 0 && openLoanCount >= policy.MaxActiveLoansPerBorrower {
		return none, circulation.ErrLoanLimitReached
	}

	if !hasConvertibleHold && !resource.HasAvailableCopies() {
		return none, circulation.ErrOutOfStock
	}

	return circulation.BuildLoan(loanID, command.ResourceID, command.BorrowerID, command.OccurredAt, command.DueDate), nil
}
