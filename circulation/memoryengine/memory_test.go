package memoryengine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendwise/circulation-go/circulation"
	"github.com/lendwise/circulation-go/circulation/memoryengine"
	"github.com/lendwise/circulation-go/testutil/helper"
)

func Test_WithinTx_CommitsOnSuccess(t *testing.T) {
	// arrange
	store := memoryengine.NewStore()
	resourceID := helper.GivenUniqueID(t)
	store.SeedResource(circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", 2))

	// act
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		resource, readErr := tx.ResourceForUpdate(ctx, resourceID)
		if readErr != nil {
			return readErr
		}

		if decErr := resource.DecrementAvailable(); decErr != nil {
			return decErr
		}

		return tx.SaveResource(ctx, resource)
	})

	// assert
	require.NoError(t, err)
	resource, found := store.GetResource(resourceID)
	require.True(t, found)
	assert.Equal(t, 1, resource.AvailableCopies)
}

func Test_WithinTx_RollsBackOnError(t *testing.T) {
	// arrange
	store := memoryengine.NewStore()
	resourceID := helper.GivenUniqueID(t)
	store.SeedResource(circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", 2))
	boom := errors.New("boom")

	// act
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		resource, readErr := tx.ResourceForUpdate(ctx, resourceID)
		if readErr != nil {
			return readErr
		}

		if decErr := resource.DecrementAvailable(); decErr != nil {
			return decErr
		}

		if saveErr := tx.SaveResource(ctx, resource); saveErr != nil {
			return saveErr
		}

		return boom
	})

	// assert
	assert.ErrorIs(t, err, boom)
	resource, found := store.GetResource(resourceID)
	require.True(t, found)
	assert.Equal(t, 2, resource.AvailableCopies, "a failed transaction must leave committed state untouched")
}

func Test_WithinTx_ExpiredContextFailsWithStoreUnavailable(t *testing.T) {
	// arrange
	store := memoryengine.NewStore()
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	// act
	err := store.WithinTx(ctx, func(_ context.Context, _ circulation.Tx) error {
		t.Fatal("the callback must not run with an expired context")
		return nil
	})

	// assert
	assert.ErrorIs(t, err, circulation.ErrStoreUnavailable)
}

func Test_Tx_ReadsFailWithNotFoundErrors(t *testing.T) {
	// arrange
	store := memoryengine.NewStore()

	// act / assert
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		_, resourceErr := tx.ResourceForUpdate(ctx, uuid.New())
		assert.ErrorIs(t, resourceErr, circulation.ErrResourceNotFound)

		_, loanErr := tx.Loan(ctx, uuid.New())
		assert.ErrorIs(t, loanErr, circulation.ErrLoanNotFound)

		_, reservationErr := tx.Reservation(ctx, uuid.New())
		assert.ErrorIs(t, reservationErr, circulation.ErrReservationNotFound)

		return nil
	})
	require.NoError(t, err)
}

func Test_Tx_NextPendingReservation_IsFIFOWithIDTieBreak(t *testing.T) {
	// arrange
	store := memoryengine.NewStore()
	fakeClock := time.Unix(0, 0).UTC()
	resourceID := helper.GivenUniqueID(t)
	store.SeedResource(circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", 1))

	firstID := helper.GivenUniqueID(t)
	secondID := helper.GivenUniqueID(t)

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		// Insert in reverse order; same reservation date, so the ID breaks the tie.
		second := circulation.BuildReservation(secondID, resourceID, uuid.New(), fakeClock)
		if insErr := tx.InsertReservation(ctx, second); insErr != nil {
			return insErr
		}

		first := circulation.BuildReservation(firstID, resourceID, uuid.New(), fakeClock)
		return tx.InsertReservation(ctx, first)
	})
	require.NoError(t, err, "error in arranging test data")

	// act
	var head circulation.Reservation
	var found bool
	err = store.WithinTx(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		var txErr error
		head, found, txErr = tx.NextPendingReservation(ctx, resourceID)
		return txErr
	})

	// assert
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, firstID, head.ID, "the lower V7 ID was created first and must head the queue")
}

func Test_Tx_NextPendingReservation_EmptyQueue(t *testing.T) {
	// arrange
	store := memoryengine.NewStore()
	resourceID := helper.GivenUniqueID(t)
	store.SeedResource(circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", 1))

	// act
	var found bool
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		var txErr error
		_, found, txErr = tx.NextPendingReservation(ctx, resourceID)
		return txErr
	})

	// assert
	require.NoError(t, err)
	assert.False(t, found)
}

func Test_Tx_CountOpenLoans_IgnoresReturnedLoans(t *testing.T) {
	// arrange
	store := memoryengine.NewStore()
	fakeClock := time.Unix(0, 0).UTC()
	resourceID := helper.GivenUniqueID(t)
	borrowerID := helper.GivenUniqueID(t)
	store.SeedResource(circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", 5))

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		active := circulation.BuildLoan(helper.GivenUniqueID(t), resourceID, borrowerID, fakeClock, fakeClock.Add(14*24*time.Hour))
		if insErr := tx.InsertLoan(ctx, active); insErr != nil {
			return insErr
		}

		returned := circulation.BuildLoan(helper.GivenUniqueID(t), resourceID, borrowerID, fakeClock, fakeClock.Add(14*24*time.Hour))
		if retErr := returned.MarkReturned(fakeClock.Add(time.Hour), circulation.DefaultPolicy()); retErr != nil {
			return retErr
		}

		return tx.InsertLoan(ctx, returned)
	})
	require.NoError(t, err, "error in arranging test data")

	// act
	var count int
	err = store.WithinTx(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		var txErr error
		count, txErr = tx.CountOpenLoans(ctx, borrowerID)
		return txErr
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only the open loan should be counted")
}

func Test_Store_AuditEvents_AppendOrder(t *testing.T) {
	// arrange
	store := memoryengine.NewStore()
	fakeClock := time.Unix(0, 0).UTC()

	// act
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		first, buildErr := circulation.BuildAuditEvent(circulation.LoanCreatedEventType, fakeClock, map[string]string{"n": "1"})
		if buildErr != nil {
			return buildErr
		}
		if appendErr := tx.AppendAuditEvent(ctx, first); appendErr != nil {
			return appendErr
		}

		second, buildErr := circulation.BuildAuditEvent(circulation.LoanReturnedEventType, fakeClock, map[string]string{"n": "2"})
		if buildErr != nil {
			return buildErr
		}

		return tx.AppendAuditEvent(ctx, second)
	})

	// assert
	require.NoError(t, err)
	events := store.AuditEvents()
	require.Len(t, events, 2)
	assert.Equal(t, circulation.LoanCreatedEventType, events[0].EventType)
	assert.Equal(t, circulation.LoanReturnedEventType, events[1].EventType)
}
