package reserve

import (
	"time"

	"github.com/google/uuid"

	"github.com/lendwise/circulation-go/circulation"
)

const (
	commandType = "ReserveResource"
)

// Command represents the intent to queue a claim on the next available copy
// of a fully-checked-out resource.
type Command struct {
	ResourceID uuid.UUID
	BorrowerID uuid.UUID
	OccurredAt circulation.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(resourceID uuid.UUID, borrowerID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		ResourceID: resourceID,
		BorrowerID: borrowerID,
		OccurredAt: circulation.ToOccurredAt(occurredAt),
	}
}
