package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LeaseStatus string

const (
	LeaseDraft      LeaseStatus = "draft"
	LeaseActive     LeaseStatus = "active"
	LeaseTerminated LeaseStatus = "terminated"
	LeaseSuspended  LeaseStatus = "suspended"
)

var leaseTransitions = map[LeaseStatus][]LeaseStatus{
	LeaseDraft:     {LeaseActive},
	LeaseActive:    {LeaseTerminated, LeaseSuspended},
	LeaseSuspended: {LeaseTerminated},
}

func (s LeaseStatus) Valid() bool {
	switch s {
	case LeaseDraft, LeaseActive, LeaseTerminated, LeaseSuspended:
		return true
	}
	return false
}

// CanTransitionTo reports whether a lease may move from s to next.
// Status only moves forward; there is no way back to draft or active.
func (s LeaseStatus) CanTransitionTo(next LeaseStatus) bool {
	for _, allowed := range leaseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Lease struct {
	ID         int64
	Reference  string
	PropertyID int64
	TenantID   int64
	OwnerID    int64

	StartDate time.Time
	EndDate   *time.Time

	InitialRent decimal.Decimal
	CurrentRent decimal.Decimal
	Charges     decimal.Decimal
	Deposit     decimal.Decimal
	PaymentDay  int

	IndexationReference *string
	IndexationBaseValue decimal.NullDecimal
	IndexationDate      *time.Time
	LastIndexationDate  *time.Time

	Status LeaseStatus

	TerminationDate   *time.Time
	TerminationReason *string
	Notes             *string

	CreatedAt *time.Time
	UpdatedAt *time.Time
}

func (l Lease) TotalMonthlyCost() decimal.Decimal {
	return l.CurrentRent.Add(l.Charges)
}
