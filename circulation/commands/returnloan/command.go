package returnloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/lendwise/circulation-go/circulation"
)

const (
	commandType = "ReturnLoan"
)

// Command represents the intent to return a borrowed copy.
type Command struct {
	LoanID     uuid.UUID
	OccurredAt circulation.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		OccurredAt: circulation.ToOccurredAt(occurredAt),
	}
}
