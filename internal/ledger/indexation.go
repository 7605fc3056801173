package ledger

import (
	"errors"
	"fmt"
	"time"

	"locagest/internal/domain"

	"github.com/shopspring/decimal"
)

// ratioPrecision is the number of decimal places kept on new_index / old_index.
const ratioPrecision = 16

var (
	// ErrInvalidIndexation rejects a zero or negative rent or index value.
	ErrInvalidIndexation = errors.New("invalid indexation: rent and index values must be positive")

	hundred = decimal.NewFromInt(100)
)

// ComputeIndexation proposes a rent revision for a new reference index value.
// It does not touch the lease: persisting the revision and the new rent is the
// caller's job.
func ComputeIndexation(oldRent, oldIndex, newIndex decimal.Decimal, effective time.Time) (domain.RentRevision, error) {
	if !oldRent.IsPositive() || !oldIndex.IsPositive() || !newIndex.IsPositive() {
		return domain.RentRevision{}, ErrInvalidIndexation
	}

	ratio := newIndex.DivRound(oldIndex, ratioPrecision)
	newRent := oldRent.Mul(ratio).Round(2)
	increase := ratio.Sub(decimal.NewFromInt(1)).Mul(hundred).Round(2)

	return domain.RentRevision{
		RevisionDate:       Day(effective),
		OldRent:            oldRent.Round(2),
		NewRent:            newRent,
		BaseIndex:          oldIndex,
		NewIndex:           newIndex,
		IncreasePercentage: increase,
		CalculationFormula: IndexationFormula(oldRent, oldIndex, newIndex, newRent),
		AppliedFrom:        Day(effective),
	}, nil
}

// IndexationFormula renders the computation for display, e.g.
// "1200.00 × (133.93 / 130.52) = 1231.35".
func IndexationFormula(oldRent, oldIndex, newIndex, newRent decimal.Decimal) string {
	return fmt.Sprintf("%s × (%s / %s) = %s",
		oldRent.StringFixed(2), newIndex.String(), oldIndex.String(), newRent.StringFixed(2))
}
