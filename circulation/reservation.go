package circulation

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus is the lifecycle state of a Reservation.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusFulfilled ReservationStatus = "fulfilled"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
	ReservationStatusConverted ReservationStatus = "converted"
)

// Reservation is a borrower's queued claim on the next available copy of a
// fully-checked-out resource.
//
// Pending reservations for a resource form a FIFO queue ordered by
// ReservationDate, with ties broken by ascending reservation ID for
// determinism. A borrower may hold at most one pending reservation per
// resource.
type Reservation struct {
	ID                 uuid.UUID
	ResourceID         uuid.UUID
	BorrowerID         uuid.UUID
	Status             ReservationStatus
	ReservationDate    time.Time
	ExpiryDate         *time.Time
	FulfilledDate      *time.Time
	CancelledDate      *time.Time
	CancellationReason CancellationReasonString
}

// BuildReservation creates a new pending Reservation.
func BuildReservation(id uuid.UUID, resourceID uuid.UUID, borrowerID uuid.UUID, reservationDate time.Time) Reservation {
	return Reservation{
		ID:              id,
		ResourceID:      resourceID,
		BorrowerID:      borrowerID,
		Status:          ReservationStatusPending,
		ReservationDate: ToOccurredAt(reservationDate),
	}
}

// Fulfill allocates a copy to the reservation: pending -> fulfilled.
// The pickup window starts now; the caller must decrement the resource's
// available copies in the same transaction to hold the copy.
func (r *Reservation) Fulfill(now time.Time, pickupWindow time.Duration) error {
	if r.Status != ReservationStatusPending {
		return ErrInvalidTransition
	}

	fulfilledAt := ToOccurredAt(now)
	expiresAt := ToOccurredAt(now.Add(pickupWindow))
	r.Status = ReservationStatusFulfilled
	r.FulfilledDate = &fulfilledAt
	r.ExpiryDate = &expiresAt

	return nil
}

// Cancel transitions pending -> cancelled on borrower or admin action.
// Valid only from pending.
func (r *Reservation) Cancel(now time.Time, reason CancellationReasonString) error {
	if r.Status != ReservationStatusPending {
		return ErrInvalidTransition
	}

	cancelledAt := ToOccurredAt(now)
	r.Status = ReservationStatusCancelled
	r.CancelledDate = &cancelledAt
	r.CancellationReason = reason

	return nil
}

// PickupWindowOpen reports whether the hold can still be picked up: the
// reservation is fulfilled and now does not lie past its expiry date.
// A pickup at the exact expiry instant still succeeds.
func (r Reservation) PickupWindowOpen(now time.Time) bool {
	return r.Status == ReservationStatusFulfilled &&
		r.ExpiryDate != nil &&
		!r.ExpiryDate.Before(ToOccurredAt(now))
}

// ConvertToLoan closes out the hold when the reserving borrower picks up the
// copy: fulfilled -> converted. The held copy moves onto the new loan, so the
// caller must not change the resource's available count.
func (r *Reservation) ConvertToLoan(now time.Time) error {
	if !r.PickupWindowOpen(now) {
		return ErrInvalidTransition
	}

	r.Status = ReservationStatusConverted

	return nil
}

// Expire transitions fulfilled -> expired when the pickup window lapsed
// without the hold being converted to a loan. The caller must release the
// held copy back to the pool in the same transaction.
func (r *Reservation) Expire(now time.Time) error {
	if r.Status != ReservationStatusFulfilled {
		return ErrInvalidTransition
	}

	if r.ExpiryDate == nil || !r.ExpiryDate.Before(ToOccurredAt(now)) {
		return ErrInvalidTransition
	}

	r.Status = ReservationStatusExpired

	return nil
}
