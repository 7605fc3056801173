package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExpenseCategory string

const (
	ExpenseRepair         ExpenseCategory = "repair"
	ExpenseMaintenance    ExpenseCategory = "maintenance"
	ExpenseTax            ExpenseCategory = "tax"
	ExpenseInsurance      ExpenseCategory = "insurance"
	ExpenseLoanInterest   ExpenseCategory = "loan_interest"
	ExpenseCondoFees      ExpenseCategory = "condo_fees"
	ExpenseManagementFees ExpenseCategory = "management_fees"
	ExpenseLegal          ExpenseCategory = "legal"
	ExpenseOther          ExpenseCategory = "other"
)

type Expense struct {
	ID         int64
	OwnerID    int64
	PropertyID *int64

	Category    ExpenseCategory
	Amount      decimal.Decimal
	VATAmount   decimal.Decimal
	TotalAmount decimal.Decimal
	Description string
	ExpenseDate time.Time

	IsDeductible         bool
	DeductiblePercentage decimal.Decimal
	IsRecoverable        bool
	RecoveredAmount      decimal.Decimal

	CreatedAt *time.Time
}
