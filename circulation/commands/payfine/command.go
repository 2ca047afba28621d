package payfine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lendwise/circulation-go/circulation"
)

const (
	commandType = "PayFine"
)

// Command represents the intent to pay down the fine on a loan.
type Command struct {
	LoanID     uuid.UUID
	Amount     decimal.Decimal
	OccurredAt circulation.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, amount decimal.Decimal, occurredAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		Amount:     amount,
		OccurredAt: circulation.ToOccurredAt(occurredAt),
	}
}
