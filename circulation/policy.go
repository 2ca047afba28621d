package circulation

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultGraceDays                 = 0
	defaultFineMinorUnits            = 2
	defaultPickupWindow              = 48 * time.Hour
	defaultMaxActiveLoansPerBorrower = 10
)

// Policy holds the parameters governing fines and reservation holds.
// It is a plain value object so the fine calculation stays a pure function
// of its inputs, which is required for reproducible fine audits.
type Policy struct {
	// DailyFineRate is the fine charged per whole day overdue, after GraceDays.
	DailyFineRate decimal.Decimal

	// GraceDays is the number of overdue days that accrue no fine.
	GraceDays int

	// FineMinorUnits is the number of decimal places of the currency's minor
	// unit, e.g. 2 for cents.
	FineMinorUnits int32

	// PickupWindow is how long a fulfilled reservation holds its copy before
	// it expires and the copy is released back to the pool.
	PickupWindow time.Duration

	// MaxActiveLoansPerBorrower caps the number of open loans a borrower may
	// hold at once. Zero means unlimited.
	MaxActiveLoansPerBorrower int
}

// DefaultPolicy returns a Policy with sensible defaults:
// 0.50 per day, no grace days, cents precision, a 48 hour pickup window,
// and at most 10 open loans per borrower.
func DefaultPolicy() Policy {
	return Policy{
		DailyFineRate:             decimal.New(50, -2),
		GraceDays:                 defaultGraceDays,
		FineMinorUnits:            defaultFineMinorUnits,
		PickupWindow:              defaultPickupWindow,
		MaxActiveLoansPerBorrower: defaultMaxActiveLoansPerBorrower,
	}
}
