package circulation

import (
	"time"

	"github.com/shopspring/decimal"
)

const hoursPerDay = 24

// CalculateFine computes the fine for a loan evaluated at evaluationDate.
//
// Let overdueDays = max(0, daysBetween(dueDate, evaluationDate) - GraceDays).
// The fine is overdueDays * DailyFineRate, rounded half-up to the currency's
// minor unit. Days are counted as whole elapsed 24 hour periods; a partial
// day accrues no fine.
//
// This is a pure function with no side effects - identical inputs always
// yield identical output.
func CalculateFine(dueDate time.Time, evaluationDate time.Time, policy Policy) decimal.Decimal {
	overdueDays := daysBetween(dueDate, evaluationDate) - policy.GraceDays
	if overdueDays <= 0 {
		return decimal.Zero
	}

	fine := policy.DailyFineRate.Mul(decimal.NewFromInt(int64(overdueDays)))

	return fine.Round(policy.FineMinorUnits)
}

// daysBetween counts whole elapsed 24 hour periods from one time to another.
// Returns 0 if "to" is not after "from".
func daysBetween(from time.Time, to time.Time) int {
	if !to.After(from) {
		return 0
	}

	return int(to.Sub(from) / (hoursPerDay * time.Hour))
}
