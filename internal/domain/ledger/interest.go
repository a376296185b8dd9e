package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// InterestAmount computes the monthly interest on a balance at the given
// percent rate, rounded to 2 decimals half-up. The same function serves the
// live accrual engine and ledger rebuilds so both produce identical amounts.
func InterestAmount(balance, ratePercent decimal.Decimal) decimal.Decimal {
	if !balance.IsPositive() || !ratePercent.IsPositive() {
		return decimal.Zero
	}
	// Round is half away from zero, which is half-up for the non-negative
	// amounts possible here.
	return balance.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2)
}

// MonthStart truncates t to the first instant of its calendar month in UTC
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextMonth returns the first instant of the month after t's month
func NextMonth(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, 0)
}

// SameMonth reports whether a and b fall in the same calendar month (UTC)
func SameMonth(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month()
}
