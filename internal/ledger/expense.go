package ledger

import (
	"locagest/internal/domain"

	"github.com/shopspring/decimal"
)

// ComputeDeductible is the tax-deductible share of total, rounded to cents.
func ComputeDeductible(total decimal.Decimal, isDeductible bool, pct decimal.Decimal) decimal.Decimal {
	if !isDeductible {
		return decimal.Zero
	}
	amount := total.Mul(pct).Div(hundred).Round(2)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// ComputeRemainingRecoverable is what can still be charged back to the tenant.
// Over-recovery is reported as zero, never as a negative amount.
func ComputeRemainingRecoverable(total, recovered decimal.Decimal, isRecoverable bool) decimal.Decimal {
	if !isRecoverable {
		return decimal.Zero
	}
	rest := total.Sub(recovered)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// ExpenseSplit holds the amounts derived from one expense.
type ExpenseSplit struct {
	Deductible           decimal.Decimal
	RemainingRecoverable decimal.Decimal
}

// SplitExpense derives the deductible and still-recoverable amounts of e.
func SplitExpense(e domain.Expense) ExpenseSplit {
	return ExpenseSplit{
		Deductible:           ComputeDeductible(e.TotalAmount, e.IsDeductible, e.DeductiblePercentage),
		RemainingRecoverable: ComputeRemainingRecoverable(e.TotalAmount, e.RecoveredAmount, e.IsRecoverable),
	}
}
