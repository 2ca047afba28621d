package sweep

import (
	"time"

	"github.com/lendwise/circulation-go/circulation"
)

// Command represents the intent to run one sweep pass, evaluated at OccurredAt.
type Command struct {
	OccurredAt circulation.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command evaluated at the given instant.
func BuildCommand(occurredAt time.Time) Command {
	return Command{
		OccurredAt: circulation.ToOccurredAt(occurredAt),
	}
}
