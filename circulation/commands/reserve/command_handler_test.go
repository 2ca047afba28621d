package reserve_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendwise/circulation-go/circulation"
	"github.com/lendwise/circulation-go/circulation/commands/reserve"
	"github.com/lendwise/circulation-go/circulation/memoryengine"
	"github.com/lendwise/circulation-go/testutil/helper"
)

func givenCheckedOutResource(t *testing.T, store *memoryengine.Store) uuid.UUID {
	t.Helper()

	resourceID := helper.GivenUniqueID(t)
	resource := circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", 1)
	require.NoError(t, resource.DecrementAvailable(), "error in arranging test data")
	store.SeedResource(resource)

	return resourceID
}

func Test_CommandHandler_Handle_ReservationEnqueued(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	store := memoryengine.NewStore()
	resourceID := givenCheckedOutResource(t, store)
	borrowerID := helper.GivenUniqueID(t)
	handler := reserve.NewCommandHandler(store)

	// act
	reservation, err := handler.Handle(context.Background(), reserve.BuildCommand(resourceID, borrowerID, fakeClock))

	// assert
	require.NoError(t, err)
	assert.Equal(t, circulation.ReservationStatusPending, reservation.Status)

	persisted, found := store.GetReservation(reservation.ID)
	require.True(t, found, "the reservation should be persisted")
	assert.Equal(t, borrowerID, persisted.BorrowerID)

	events := store.AuditEvents()
	require.Len(t, events, 1)
	assert.Equal(t, circulation.ReservationCreatedEventType, events[0].EventType)
}

func Test_CommandHandler_Handle_FailsWhenCopiesAvailable(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	store := memoryengine.NewStore()
	resourceID := helper.GivenUniqueID(t)
	store.SeedResource(circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", 1))
	handler := reserve.NewCommandHandler(store)

	// act
	_, err := handler.Handle(context.Background(), reserve.BuildCommand(resourceID, helper.GivenUniqueID(t), fakeClock))

	// assert
	assert.ErrorIs(t, err, circulation.ErrCopyAvailable)
	assert.Empty(t, store.AuditEvents())
}

func Test_CommandHandler_Handle_RejectsSecondPendingReservation(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	store := memoryengine.NewStore()
	resourceID := givenCheckedOutResource(t, store)
	borrowerID := helper.GivenUniqueID(t)
	handler := reserve.NewCommandHandler(store)

	_, err := handler.Handle(context.Background(), reserve.BuildCommand(resourceID, borrowerID, fakeClock))
	require.NoError(t, err, "error in arranging test data")

	// act
	_, err = handler.Handle(context.Background(), reserve.BuildCommand(resourceID, borrowerID, fakeClock.Add(time.Hour)))

	// assert
	assert.ErrorIs(t, err, circulation.ErrDuplicateReservation)
}

func Test_CommandHandler_Handle_DifferentBorrowersMayQueue(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	store := memoryengine.NewStore()
	resourceID := givenCheckedOutResource(t, store)
	handler := reserve.NewCommandHandler(store)

	// act
	first, errFirst := handler.Handle(context.Background(), reserve.BuildCommand(resourceID, helper.GivenUniqueID(t), fakeClock))
	second, errSecond := handler.Handle(context.Background(), reserve.BuildCommand(resourceID, helper.GivenUniqueID(t), fakeClock.Add(time.Hour)))

	// assert
	require.NoError(t, errFirst)
	require.NoError(t, errSecond)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, store.AuditEvents(), 2)
}

func Test_CommandHandler_Handle_UnknownResourceFails(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	store := memoryengine.NewStore()
	handler := reserve.NewCommandHandler(store)

	// act
	_, err := handler.Handle(context.Background(), reserve.BuildCommand(helper.GivenUniqueID(t), helper.GivenUniqueID(t), fakeClock))

	// assert
	assert.ErrorIs(t, err, circulation.ErrResourceNotFound)
}
