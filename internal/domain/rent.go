package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RentStatus string

const (
	RentPending   RentStatus = "pending"
	RentPaid      RentStatus = "paid"
	RentPartial   RentStatus = "partial"
	RentLate      RentStatus = "late"
	RentCancelled RentStatus = "cancelled"
)

func (s RentStatus) Valid() bool {
	switch s {
	case RentPending, RentPaid, RentPartial, RentLate, RentCancelled:
		return true
	}
	return false
}

type Rent struct {
	ID      int64
	LeaseID int64
	OwnerID int64

	PeriodStart time.Time
	PeriodEnd   time.Time

	RentAmount    decimal.Decimal
	ChargesAmount decimal.Decimal
	OtherAmount   decimal.Decimal
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal

	DueDate time.Time
	Status  RentStatus

	IsAutoGenerated bool
	Notes           *string

	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// Outstanding is what is still owed on the rent, never negative.
func (r Rent) Outstanding() decimal.Decimal {
	rest := r.TotalAmount.Sub(r.PaidAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// RentReminder is a rent with the contact details needed to chase it.
type RentReminder struct {
	Rent         Rent
	PropertyName string
	TenantName   string
	TenantEmail  *string
}
