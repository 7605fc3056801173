package service

import (
	"context"
	"fmt"
	"time"

	"locagest/internal/domain"
	"locagest/internal/ledger"
	"locagest/internal/repository"

	"github.com/shopspring/decimal"
)

type ExpenseRepository interface {
	Get(ctx context.Context, id int64) (domain.Expense, error)
	List(ctx context.Context, f repository.ExpensesFilter) ([]domain.Expense, error)
}

type ExpenseView struct {
	Expense domain.Expense
	Split   ledger.ExpenseSplit
}

type CategoryTotal struct {
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
	Deductible decimal.Decimal `json:"deductible"`
}

// ExpenseSummary aggregates the expenses of one calendar year.
type ExpenseSummary struct {
	Year                 int                                      `json:"year"`
	Count                int                                      `json:"count"`
	Total                decimal.Decimal                          `json:"total"`
	Deductible           decimal.Decimal                          `json:"deductible"`
	RemainingRecoverable decimal.Decimal                          `json:"remaining_recoverable"`
	ByCategory           map[domain.ExpenseCategory]CategoryTotal `json:"by_category"`
}

type ExpenseService struct {
	repo ExpenseRepository
}

func NewExpenseService(repo ExpenseRepository) *ExpenseService {
	return &ExpenseService{repo: repo}
}

func (s *ExpenseService) Get(ctx context.Context, ownerID, expenseID int64) (ExpenseView, error) {
	e, err := s.repo.Get(ctx, expenseID)
	if err != nil {
		return ExpenseView{}, mapNotFound(err)
	}
	if e.OwnerID != ownerID {
		return ExpenseView{}, ErrForbidden
	}
	return ExpenseView{Expense: e, Split: ledger.SplitExpense(e)}, nil
}

func (s *ExpenseService) Summary(ctx context.Context, ownerID int64, year int) (ExpenseSummary, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	expenses, err := s.repo.List(ctx, repository.ExpensesFilter{OwnerID: &ownerID, From: &from, To: &to})
	if err != nil {
		return ExpenseSummary{}, fmt.Errorf("list expenses: %w", err)
	}

	sum := ExpenseSummary{
		Year:                 year,
		Total:                decimal.Zero,
		Deductible:           decimal.Zero,
		RemainingRecoverable: decimal.Zero,
		ByCategory:           map[domain.ExpenseCategory]CategoryTotal{},
	}
	for _, e := range expenses {
		split := ledger.SplitExpense(e)
		sum.Count++
		sum.Total = sum.Total.Add(e.TotalAmount)
		sum.Deductible = sum.Deductible.Add(split.Deductible)
		sum.RemainingRecoverable = sum.RemainingRecoverable.Add(split.RemainingRecoverable)

		cat := sum.ByCategory[e.Category]
		cat.Count++
		cat.Total = cat.Total.Add(e.TotalAmount)
		cat.Deductible = cat.Deductible.Add(split.Deductible)
		sum.ByCategory[e.Category] = cat
	}
	return sum, nil
}
