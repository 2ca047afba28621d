package reserve

import (
	"github.com/google/uuid"

	"github.com/lendwise/circulation-go/circulation"
)

// Decide implements the business logic to determine whether a reservation
// should be enqueued. This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A resource with ResourceID and a borrower with BorrowerID
//	WHEN: ReserveResource command is received
//	THEN: A new pending Reservation is appended to the resource's FIFO queue
//	ERROR: ErrCopyAvailable if copies are available - reservations are only
//	       for fully-checked-out resources, borrow directly instead
//	ERROR: ErrDuplicateReservation if the borrower already has a pending
//	       reservation for this resource
func Decide(
	resource circulation.Resource,
	hasPendingReservation bool,
	reservationID uuid.UUID,
	command Command,
) (circulation.Reservation, error) {

	var none circulation.Reservation

	if resource.HasAvailableCopies() {
		return none, circulation.ErrCopyAvailable
	}

	if hasPendingReservation {
		return none, circulation.ErrDuplicateReservation
	}

	return circulation.BuildReservation(reservationID, command.ResourceID, command.BorrowerID, command.OccurredAt), nil
}
