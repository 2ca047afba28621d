package borrow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendwise/circulation-go/circulation"
	"github.com/lendwise/circulation-go/circulation/commands/borrow"
	"github.com/lendwise/circulation-go/circulation/commands/reserve"
	"github.com/lendwise/circulation-go/circulation/commands/returnloan"
	"github.com/lendwise/circulation-go/circulation/memoryengine"
	"github.com/lendwise/circulation-go/testutil/helper"
)

// givenFulfilledHold arranges a single-copy resource whose copy is held by a
// fulfilled reservation: borrow by someone else, queue a hold, return.
func givenFulfilledHold(t *testing.T, store *memoryengine.Store, fakeClock time.Time) circulation.Reservation {
	t.Helper()

	resourceID := helper.GivenUniqueID(t)
	store.SeedResource(circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", 1))

	borrowHandler := borrow.NewCommandHandler(store, circulation.DefaultPolicy())
	loan, err := borrowHandler.Handle(context.Background(),
		borrow.BuildCommand(resourceID, helper.GivenUniqueID(t), fakeClock.Add(14*24*time.Hour), fakeClock))
	require.NoError(t, err, "error in arranging test data")

	reserveHandler := reserve.NewCommandHandler(store)
	hold, err := reserveHandler.Handle(context.Background(),
		reserve.BuildCommand(resourceID, helper.GivenUniqueID(t), fakeClock.Add(time.Hour)))
	require.NoError(t, err, "error in arranging test data")

	returnHandler := returnloan.NewCommandHandler(store, circulation.DefaultPolicy())
	_, err = returnHandler.Handle(context.Background(), returnloan.BuildCommand(loan.ID, fakeClock.Add(2*time.Hour)))
	require.NoError(t, err, "error in arranging test data")

	fulfilled, found := store.GetReservation(hold.ID)
	require.True(t, found, "error in arranging test data")
	require.Equal(t, circulation.ReservationStatusFulfilled, fulfilled.Status, "error in arranging test data")
	require.NotNil(t, fulfilled.ExpiryDate, "error in arranging test data")

	return fulfilled
}

func Test_CommandHandler_Handle_BorrowSucceeds(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	store := memoryengine.NewStore()
	resourceID := helper.GivenUniqueID(t)
	borrowerID := helper.GivenUniqueID(t)
	store.SeedResource(circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", 2))
	handler := borrow.NewCommandHandler(store, circulation.DefaultPolicy())
	command := borrow.BuildCommand(resourceID, borrowerID, fakeClock.Add(14*24*time.Hour), fakeClock)

	// act
	loan, err := handler.Handle(context.Background(), command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, circulation.LoanStatusActive, loan.Status)

	persisted, found := store.GetLoan(loan.ID)
	require.True(t, found, "the loan should be persisted")
	assert.Equal(t, borrowerID, persisted.BorrowerID)

	resource, _ := store.GetResource(resourceID)
	assert.Equal(t, 1, resource.AvailableCopies, "one copy should be taken from the pool")

	events := store.AuditEvents()
	require.Len(t, events, 1)
	assert.Equal(t, circulation.LoanCreatedEventType, events[0].EventType)
}

func Test_CommandHandler_Handle_OutOfStockProducesNoLoan(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	store := memoryengine.NewStore()
	resourceID := helper.GivenUniqueID(t)
	resource := circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", 1)
	require.NoError(t, resource.DecrementAvailable(), "error in arranging test data")
	store.SeedResource(resource)
	handler := borrow.NewCommandHandler(store, circulation.DefaultPolicy())
	command := borrow.BuildCommand(resourceID, helper.GivenUniqueID(t), fakeClock.Add(14*24*time.Hour), fakeClock)

	// act
	_, err := handler.Handle(context.Background(), command)

	// assert
	assert.ErrorIs(t, err, circulation.ErrOutOfStock)
	assert.Empty(t, store.AuditEvents(), "a rejected borrow must not append audit events")
}

func Test_CommandHandler_Handle_PicksUpFulfilledHold(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	store := memoryengine.NewStore()
	hold := givenFulfilledHold(t, store, fakeClock)
	handler := borrow.NewCommandHandler(store, circulation.DefaultPolicy())

	pickupAt := fakeClock.Add(3 * time.Hour)
	command := borrow.BuildCommand(hold.ResourceID, hold.BorrowerID, pickupAt.Add(14*24*time.Hour), pickupAt)

	// act
	loan, err := handler.Handle(context.Background(), command)

	// assert
	require.NoError(t, err, "the reserving borrower must be able to pick up the held copy")
	assert.Equal(t, circulation.LoanStatusActive, loan.Status)
	assert.Equal(t, hold.BorrowerID, loan.BorrowerID)

	converted, _ := store.GetReservation(hold.ID)
	assert.Equal(t, circulation.ReservationStatusConverted, converted.Status)

	resource, _ := store.GetResource(hold.ResourceID)
	assert.Equal(t, 0, resource.AvailableCopies, "the held copy moves onto the loan, not back to the pool")

	events := store.AuditEvents()
	require.NotEmpty(t, events)
	assert.Equal(t, circulation.ReservationConvertedEventType, events[len(events)-1].EventType)
	assert.Equal(t, circulation.LoanCreatedEventType, events[len(events)-2].EventType)
}

func Test_CommandHandler_Handle_LapsedHoldDoesNotBackABorrow(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	store := memoryengine.NewStore()
	hold := givenFulfilledHold(t, store, fakeClock)
	handler := borrow.NewCommandHandler(store, circulation.DefaultPolicy())

	pickupAt := hold.ExpiryDate.Add(time.Minute)
	command := borrow.BuildCommand(hold.ResourceID, hold.BorrowerID, pickupAt.Add(14*24*time.Hour), pickupAt)

	// act
	_, err := handler.Handle(context.Background(), command)

	// assert
	assert.ErrorIs(t, err, circulation.ErrOutOfStock, "a lapsed hold no longer backs a borrow")

	unchanged, _ := store.GetReservation(hold.ID)
	assert.Equal(t, circulation.ReservationStatusFulfilled, unchanged.Status,
		"releasing the lapsed hold is the expiry sweep's job")
}

func Test_CommandHandler_Handle_HeldCopyIsNotBorrowableByOthers(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	store := memoryengine.NewStore()
	hold := givenFulfilledHold(t, store, fakeClock)
	handler := borrow.NewCommandHandler(store, circulation.DefaultPolicy())

	pickupAt := fakeClock.Add(3 * time.Hour)
	command := borrow.BuildCommand(hold.ResourceID, helper.GivenUniqueID(t), pickupAt.Add(14*24*time.Hour), pickupAt)

	// act
	_, err := handler.Handle(context.Background(), command)

	// assert
	assert.ErrorIs(t, err, circulation.ErrOutOfStock)

	unchanged, _ := store.GetReservation(hold.ID)
	assert.Equal(t, circulation.ReservationStatusFulfilled, unchanged.Status)
}

func Test_CommandHandler_Handle_UnknownResourceFails(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	store := memoryengine.NewStore()
	handler := borrow.NewCommandHandler(store, circulation.DefaultPolicy())
	command := borrow.BuildCommand(helper.GivenUniqueID(t), helper.GivenUniqueID(t), fakeClock.Add(14*24*time.Hour), fakeClock)

	// act
	_, err := handler.Handle(context.Background(), command)

	// assert
	assert.ErrorIs(t, err, circulation.ErrResourceNotFound)
}

func Test_CommandHandler_Handle_EnforcesLoanCap(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	store := memoryengine.NewStore()
	resourceID := helper.GivenUniqueID(t)
	borrowerID := helper.GivenUniqueID(t)
	store.SeedResource(circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", 5))

	policy := circulation.DefaultPolicy()
	policy.MaxActiveLoansPerBorrower = 2
	handler := borrow.NewCommandHandler(store, policy)

	for i := 0; i < 2; i++ {
		command := borrow.BuildCommand(resourceID, borrowerID, fakeClock.Add(14*24*time.Hour), fakeClock)
		_, err := handler.Handle(context.Background(), command)
		require.NoError(t, err, "error in arranging test data")
	}

	// act
	command := borrow.BuildCommand(resourceID, borrowerID, fakeClock.Add(14*24*time.Hour), fakeClock)
	_, err := handler.Handle(context.Background(), command)

	// assert
	assert.ErrorIs(t, err, circulation.ErrLoanLimitReached)
}

func Test_CommandHandler_Handle_ConcurrentBorrowsNeverOversubscribe(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	store := memoryengine.NewStore()
	resourceID := helper.GivenUniqueID(t)
	const totalCopies = 3
	const borrowers = 10
	store.SeedResource(circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", totalCopies))
	handler := borrow.NewCommandHandler(store, circulation.DefaultPolicy())

	// act
	var wg sync.WaitGroup
	results := make(chan error, borrowers)

	for i := 0; i < borrowers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			command := borrow.BuildCommand(resourceID, helper.GivenUniqueID(t), fakeClock.Add(14*24*time.Hour), fakeClock)
			_, err := handler.Handle(context.Background(), command)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	// assert
	succeeded := 0
	outOfStock := 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, circulation.ErrOutOfStock):
			outOfStock++
		}
	}

	assert.Equal(t, totalCopies, succeeded, "exactly one borrow per copy should succeed")
	assert.Equal(t, borrowers-totalCopies, outOfStock, "the rest should be rejected")

	resource, _ := store.GetResource(resourceID)
	assert.Equal(t, 0, resource.AvailableCopies)
	assert.Len(t, store.AuditEvents(), totalCopies)
}
