package cancelreservation

import (
	"time"

	"github.com/google/uuid"

	"github.com/lendwise/circulation-go/circulation"
)

const (
	commandType = "CancelReservation"
)

// Command represents the intent to cancel a pending reservation.
type Command struct {
	ReservationID uuid.UUID
	Reason        circulation.CancellationReasonString
	OccurredAt    circulation.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(reservationID uuid.UUID, reason circulation.CancellationReasonString, occurredAt time.Time) Command {
	return Command{
		ReservationID: reservationID,
		Reason:        reason,
		OccurredAt:    circulation.ToOccurredAt(occurredAt),
	}
}
