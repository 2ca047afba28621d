package borrow

import (
	"time"

	"github.com/google/uuid"

	"github.com/lendwise/circulation-go/circulation"
)

const (
	commandType = "BorrowResource"
)

// Command represents the intent to borrow one copy of a resource.
// It encapsulates all the necessary information required to execute the borrow use case.
type Command struct {
	ResourceID uuid.UUID
	BorrowerID uuid.UUID
	DueDate    time.Time
	OccurredAt circulation.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(resourceID uuid.UUID, borrowerID uuid.UUID, dueDate time.Time, occurredAt time.Time) Command {
	return Command{
		ResourceID: resourceID,
		BorrowerID: borrowerID,
		DueDate:    circulation.ToOccurredAt(dueDate),
		OccurredAt: circulation.ToOccurredAt(occurredAt),
	}
}
