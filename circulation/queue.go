package circulation

import (
	"context"
	"time"
)

// FulfillNextPending pops the head of the resource's reservation queue and
// allocates the freed copy to it: the reservation becomes fulfilled with a
// pickup window, and the copy is taken out of the available pool to hold it
// for the reserving borrower.
//
// An empty queue is the expected common case, not an error: the copy simply
// remains available for direct borrowing and the second return value is false.
// The same holds when no copy is available to allocate.
//
// The caller owns the resource instance (loaded with ResourceForUpdate) and
// must persist it after this call; the reservation update and audit record
// are written here, within the caller's transaction.
func FulfillNextPending(ctx context.Context, tx Tx, resource *Resource, now time.Time, policy Policy) (Reservation, bool, error) {
	var none Reservation

	next, found, err := tx.NextPendingReservation(ctx, resource.ID)
	if err != nil {
		return none, false, err
	}

	if !found {
		return none, false, nil
	}

	if !resource.HasAvailableCopies() {
		return none, false, nil
	}

	if fulfillErr := next.Fulfill(now, policy.PickupWindow); fulfillErr != nil {
		return none, false, fulfillErr
	}

	if decrementErr := resource.DecrementAvailable(); decrementErr != nil {
		return none, false, decrementErr
	}

	if updateErr := tx.UpdateReservation(ctx, next); updateErr != nil {
		return none, false, updateErr
	}

	auditEvent, buildErr := BuildAuditEvent(ReservationFulfilledEventType, now, BuildReservationAuditPayload(next))
	if buildErr != nil {
		return none, false, buildErr
	}

	if appendErr := tx.AppendAuditEvent(ctx, auditEvent); appendErr != nil {
		return none, false, appendErr
	}

	return next, true, nil
}
