package ledger

import (
	"time"

	"locagest/internal/domain"

	"github.com/shopspring/decimal"
)

const hoursPerDay = 24

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ResolveRentStatus derives the status of a rent from what is due and what was paid.
// A cancelled rent stays cancelled. A rent due today is still pending.
func ResolveRentStatus(total, paid decimal.Decimal, due, today time.Time, explicitCancelled bool) domain.RentStatus {
	if explicitCancelled {
		return domain.RentCancelled
	}

	switch {
	case paid.GreaterThanOrEqual(total):
		return domain.RentPaid
	case paid.IsPositive():
		return domain.RentPartial
	case Day(today).After(Day(due)):
		return domain.RentLate
	}
	return domain.RentPending
}

// DaysLate returns the number of whole days today is past due, or 0 for settled rents.
func DaysLate(status domain.RentStatus, due, today time.Time) int {
	if status == domain.RentPaid || status == domain.RentCancelled {
		return 0
	}
	days := int(Day(today).Sub(Day(due)).Hours() / hoursPerDay)
	if days < 0 {
		return 0
	}
	return days
}

// IsSettled reports whether a rent will no longer change status on its own.
func IsSettled(status domain.RentStatus) bool {
	return status == domain.RentPaid || status == domain.RentCancelled
}
