package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RentRevision records one indexation of a lease rent. Rows are never updated.
type RentRevision struct {
	ID      int64
	LeaseID int64

	RevisionDate        time.Time
	OldRent             decimal.Decimal
	NewRent             decimal.Decimal
	IndexationReference *string
	BaseIndex           decimal.Decimal
	NewIndex            decimal.Decimal
	IncreasePercentage  decimal.Decimal
	CalculationFormula  string
	AppliedFrom         time.Time
	Notes               *string

	CreatedAt *time.Time
}
