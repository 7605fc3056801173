package ledger

import (
	"errors"
	"time"

	"locagest/internal/domain"

	"github.com/shopspring/decimal"
)

// ErrPaidAmountDecreased is returned when payments sum below the stored paid amount.
var ErrPaidAmountDecreased = errors.New("paid amount cannot decrease")

// RentTotal is the amount due for a period, every component included.
func RentTotal(rentAmount, chargesAmount, otherAmount decimal.Decimal) decimal.Decimal {
	return rentAmount.Add(chargesAmount).Add(otherAmount)
}

// SumPayments adds up the amounts of payments.
func SumPayments(payments []domain.RentPayment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Reconcile recomputes paid_amount from the payments attached to the rent and
// re-resolves its status. The stored paid amount may only grow.
func Reconcile(rent domain.Rent, payments []domain.RentPayment, today time.Time) (domain.Rent, error) {
	paid := SumPayments(payments)
	if paid.LessThan(rent.PaidAmount) {
		return rent, ErrPaidAmountDecreased
	}

	rent.TotalAmount = RentTotal(rent.RentAmount, rent.ChargesAmount, rent.OtherAmount)
	rent.PaidAmount = paid
	rent.Status = ResolveRentStatus(rent.TotalAmount, paid, rent.DueDate, today, rent.Status == domain.RentCancelled)
	return rent, nil
}

// BuildRent prepares the monthly rent of a lease for the month holding periodStart.
// The due date falls on the lease payment day, clamped to the month length.
func BuildRent(lease domain.Lease, periodStart time.Time) domain.Rent {
	start := Day(periodStart)
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	day := lease.PaymentDay
	if day < 1 {
		day = 1
	}
	if day > end.Day() {
		day = end.Day()
	}

	rent := domain.Rent{
		LeaseID:         lease.ID,
		OwnerID:         lease.OwnerID,
		PeriodStart:     start,
		PeriodEnd:       end,
		RentAmount:      lease.CurrentRent,
		ChargesAmount:   lease.Charges,
		OtherAmount:     decimal.Zero,
		PaidAmount:      decimal.Zero,
		DueDate:         time.Date(start.Year(), start.Month(), day, 0, 0, 0, 0, time.UTC),
		Status:          domain.RentPending,
		IsAutoGenerated: true,
	}
	rent.TotalAmount = RentTotal(rent.RentAmount, rent.ChargesAmount, rent.OtherAmount)
	return rent
}

// LeaseCoversPeriod reports whether the lease is running during any part of the
// month starting at periodStart.
func LeaseCoversPeriod(lease domain.Lease, periodStart time.Time) bool {
	start := Day(periodStart)
	end := start.AddDate(0, 1, -1)
	if Day(lease.StartDate).After(end) {
		return false
	}
	if lease.EndDate != nil && Day(*lease.EndDate).Before(start) {
		return false
	}
	return true
}
