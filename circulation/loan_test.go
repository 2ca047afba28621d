package circulation_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendwise/circulation-go/circulation"
)

func givenActiveLoan(t *testing.T, borrowDate time.Time, dueDate time.Time) circulation.Loan {
	t.Helper()

	loanID, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	return circulation.BuildLoan(loanID, uuid.New(), uuid.New(), borrowDate, dueDate)
}

func Test_BuildLoan_StartsActiveWithZeroFine(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	dueDate := fakeClock.Add(14 * 24 * time.Hour)

	// act
	loan := givenActiveLoan(t, fakeClock, dueDate)

	// assert
	assert.Equal(t, circulation.LoanStatusActive, loan.Status)
	assert.True(t, loan.FineAmount.IsZero(), "a new loan carries no fine")
	assert.True(t, loan.IsOpen(), "a new loan holds a copy")
	assert.Nil(t, loan.ReturnDate)
}

func Test_Loan_EvaluateOverdue_TransitionsPastDueDate(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	dueDate := fakeClock.Add(14 * 24 * time.Hour)
	loan := givenActiveLoan(t, fakeClock, dueDate)

	// act
	changedBefore := loan.EvaluateOverdue(dueDate)
	changedAfter := loan.EvaluateOverdue(dueDate.Add(time.Second))

	// assert
	assert.False(t, changedBefore, "a loan is not overdue on its due date")
	assert.True(t, changedAfter, "a loan becomes overdue once the due date has passed")
	assert.Equal(t, circulation.LoanStatusOverdue, loan.Status)
}

func Test_Loan_EvaluateOverdue_IsIdempotent(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	loan := givenActiveLoan(t, fakeClock, fakeClock.Add(24*time.Hour))
	now := fakeClock.Add(48 * time.Hour)

	// act
	first := loan.EvaluateOverdue(now)
	second := loan.EvaluateOverdue(now)

	// assert
	assert.True(t, first, "first evaluation should transition the loan")
	assert.False(t, second, "an already overdue loan should not change again")
}

func Test_Loan_MarkReturned_ComputesFine(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	dueDate := fakeClock.Add(14 * 24 * time.Hour)
	loan := givenActiveLoan(t, fakeClock, dueDate)
	policy := circulation.DefaultPolicy()
	returnedAt := dueDate.Add(3 * 24 * time.Hour)

	// act
	err := loan.MarkReturned(returnedAt, policy)

	// assert
	require.NoError(t, err)
	assert.Equal(t, circulation.LoanStatusReturned, loan.Status)
	assert.False(t, loan.IsOpen(), "a returned loan no longer holds a copy")
	require.NotNil(t, loan.ReturnDate)
	assert.True(t, loan.ReturnDate.Equal(returnedAt), "return date should be recorded")
	assert.True(t, loan.FineAmount.Equal(decimal.RequireFromString("1.50")),
		"3 overdue days at 0.50 should cost 1.50, got %s", loan.FineAmount)
}

func Test_Loan_MarkReturned_OnTimeReturnHasNoFine(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	dueDate := fakeClock.Add(14 * 24 * time.Hour)
	loan := givenActiveLoan(t, fakeClock, dueDate)

	// act
	err := loan.MarkReturned(dueDate, circulation.DefaultPolicy())

	// assert
	require.NoError(t, err)
	assert.True(t, loan.FineAmount.IsZero(), "an on-time return accrues no fine")
}

func Test_Loan_MarkReturned_SecondReturnFailsAndChangesNothing(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	dueDate := fakeClock.Add(24 * time.Hour)
	loan := givenActiveLoan(t, fakeClock, dueDate)
	policy := circulation.DefaultPolicy()

	firstReturn := dueDate.Add(2 * 24 * time.Hour)
	require.NoError(t, loan.MarkReturned(firstReturn, policy))
	fineAfterFirst := loan.FineAmount
	returnDateAfterFirst := *loan.ReturnDate

	// act
	err := loan.MarkReturned(firstReturn.Add(10*24*time.Hour), policy)

	// assert
	assert.ErrorIs(t, err, circulation.ErrAlreadyReturned)
	assert.True(t, loan.FineAmount.Equal(fineAfterFirst), "a second return must not change the fine")
	assert.True(t, loan.ReturnDate.Equal(returnDateAfterFirst), "a second return must not change the return date")
}

func Test_Loan_Renew_ExtendsDueDate(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	dueDate := fakeClock.Add(14 * 24 * time.Hour)
	loan := givenActiveLoan(t, fakeClock, dueDate)
	newDueDate := dueDate.Add(7 * 24 * time.Hour)

	// act
	err := loan.Renew(newDueDate)

	// assert
	require.NoError(t, err)
	assert.True(t, loan.DueDate.Equal(newDueDate), "renewal should move the due date forward")
	assert.Equal(t, circulation.LoanStatusActive, loan.Status)
}

func Test_Loan_Renew_FailsWhenOverdue(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	dueDate := fakeClock.Add(24 * time.Hour)
	loan := givenActiveLoan(t, fakeClock, dueDate)
	loan.EvaluateOverdue(dueDate.Add(time.Hour))

	// act
	err := loan.Renew(dueDate.Add(7 * 24 * time.Hour))

	// assert
	assert.ErrorIs(t, err, circulation.ErrInvalidTransition, "an overdue loan cannot be renewed")
}

func Test_Loan_Renew_FailsWhenNewDueDateDoesNotExtend(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	dueDate := fakeClock.Add(14 * 24 * time.Hour)
	loan := givenActiveLoan(t, fakeClock, dueDate)

	// act
	errSame := loan.Renew(dueDate)
	errEarlier := loan.Renew(dueDate.Add(-24 * time.Hour))

	// assert
	assert.ErrorIs(t, errSame, circulation.ErrInvalidDueDate)
	assert.ErrorIs(t, errEarlier, circulation.ErrInvalidDueDate)
}

func Test_Loan_PayFine_ReducesOutstandingAmount(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	loan := givenActiveLoan(t, fakeClock, fakeClock.Add(24*time.Hour))
	require.NoError(t, loan.MarkReturned(fakeClock.Add(5*24*time.Hour), circulation.DefaultPolicy()))
	require.True(t, loan.FineAmount.Equal(decimal.RequireFromString("2.00")), "error in arranging test data")

	// act
	err := loan.PayFine(decimal.RequireFromString("0.75"))

	// assert
	require.NoError(t, err)
	assert.True(t, loan.FineAmount.Equal(decimal.RequireFromString("1.25")),
		"paying 0.75 of 2.00 should leave 1.25, got %s", loan.FineAmount)
}

func Test_Loan_PayFine_FullPaymentClearsFine(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	loan := givenActiveLoan(t, fakeClock, fakeClock.Add(24*time.Hour))
	require.NoError(t, loan.MarkReturned(fakeClock.Add(5*24*time.Hour), circulation.DefaultPolicy()))

	// act
	err := loan.PayFine(loan.FineAmount)

	// assert
	require.NoError(t, err)
	assert.True(t, loan.FineAmount.IsZero(), "a full payment should clear the fine")
}

func Test_Loan_PayFine_RejectsOverpayment(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	loan := givenActiveLoan(t, fakeClock, fakeClock.Add(24*time.Hour))
	require.NoError(t, loan.MarkReturned(fakeClock.Add(5*24*time.Hour), circulation.DefaultPolicy()))
	fineBefore := loan.FineAmount

	// act
	err := loan.PayFine(fineBefore.Add(decimal.RequireFromString("0.01")))

	// assert
	assert.ErrorIs(t, err, circulation.ErrOverpaymentNotAllowed)
	assert.True(t, loan.FineAmount.Equal(fineBefore), "a rejected payment must not change the fine")
}

func Test_Loan_PayFine_RejectsNonPositiveAmounts(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	loan := givenActiveLoan(t, fakeClock, fakeClock.Add(24*time.Hour))

	// act
	errZero := loan.PayFine(decimal.Zero)
	errNegative := loan.PayFine(decimal.RequireFromString("-1.00"))

	// assert
	assert.ErrorIs(t, errZero, circulation.ErrInvalidPayment)
	assert.ErrorIs(t, errNegative, circulation.ErrInvalidPayment)
}
