package reserve_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendwise/circulation-go/circulation"
	"github.com/lendwise/circulation-go/circulation/commands/reserve"
	"github.com/lendwise/circulation-go/testutil/helper"
)

func Test_Decide_CreatesPendingReservation(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	resourceID := helper.GivenUniqueID(t)
	borrowerID := helper.GivenUniqueID(t)
	reservationID := helper.GivenUniqueID(t)
	resource := circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", 1)
	require.NoError(t, resource.DecrementAvailable(), "error in arranging test data")
	command := reserve.BuildCommand(resourceID, borrowerID, fakeClock)

	// act
	reservation, err := reserve.Decide(resource, false, reservationID, command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, reservationID, reservation.ID)
	assert.Equal(t, resourceID, reservation.ResourceID)
	assert.Equal(t, borrowerID, reservation.BorrowerID)
	assert.Equal(t, circulation.ReservationStatusPending, reservation.Status)
	assert.True(t, reservation.ReservationDate.Equal(fakeClock))
}

func Test_Decide_FailsWhenCopiesAvailable(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	resourceID := helper.GivenUniqueID(t)
	resource := circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", 1)
	command := reserve.BuildCommand(resourceID, helper.GivenUniqueID(t), fakeClock)

	// act
	_, err := reserve.Decide(resource, false, helper.GivenUniqueID(t), command)

	// assert
	assert.ErrorIs(t, err, circulation.ErrCopyAvailable,
		"a resource with available copies is borrowed, not reserved")
}

func Test_Decide_FailsOnDuplicateReservation(t *testing.T) {
	// arrange
	fakeClock := time.Unix(0, 0).UTC()
	resourceID := helper.GivenUniqueID(t)
	resource := circulation.BuildResource(resourceID, circulation.ResourceTypeBook, "Learning Go", 1)
	require.NoError(t, resource.DecrementAvailable(), "error in arranging test data")
	command := reserve.BuildCommand(resourceID, helper.GivenUniqueID(t), fakeClock)

	// act
	_, err := reserve.Decide(resource, true, helper.GivenUniqueID(t), command)

	// assert
	assert.ErrorIs(t, err, circulation.ErrDuplicateReservation)
}
