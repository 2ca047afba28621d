package renewloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/lendwise/circulation-go/circulation"
)

const (
	commandType = "RenewLoan"
)

// Command represents the intent to extend the due date of a timely loan.
type Command struct {
	LoanID     uuid.UUID
	NewDueDate time.Time
	OccurredAt circulation.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, newDueDate time.Time, occurredAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		NewDueDate: circulation.ToOccurredAt(newDueDate),
		OccurredAt: circulation.ToOccurredAt(occurredAt),
	}
}
