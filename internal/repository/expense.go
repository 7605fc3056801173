package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"locagest/internal/domain"
)

const expenseSelect = `SELECT id, user_id, property_id, category, amount, vat_amount, total_amount, description, expense_date, is_deductible, deductible_percentage, is_recoverable, recovered_amount, created_at FROM expenses`

type ExpensesFilter struct {
	OwnerID    *int64
	PropertyID *int64
	Category   *domain.ExpenseCategory
	From       *time.Time
	To         *time.Time
}

type ExpenseRepository struct {
	db *sql.DB
}

func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Get(ctx context.Context, id int64) (domain.Expense, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, expenseSelect+" WHERE id = $1", id)
	e, err := scanExpense(row)
	return e, notFound(err)
}

func (r *ExpenseRepository) List(ctx context.Context, f ExpensesFilter) ([]domain.Expense, error) {
	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.OwnerID != nil {
		where = append(where, fmt.Sprintf("user_id = $%d", i))
		args = append(args, *f.OwnerID)
		i++
	}
	if f.PropertyID != nil {
		where = append(where, fmt.Sprintf("property_id = $%d", i))
		args = append(args, *f.PropertyID)
		i++
	}
	if f.Category != nil {
		where = append(where, fmt.Sprintf("category = $%d", i))
		args = append(args, *f.Category)
		i++
	}
	if f.From != nil {
		where = append(where, fmt.Sprintf("expense_date >= $%d", i))
		args = append(args, *f.From)
		i++
	}
	if f.To != nil {
		where = append(where, fmt.Sprintf("expense_date <= $%d", i))
		args = append(args, *f.To)
		i++
	}

	query := expenseSelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY expense_date, id"

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanExpense(row rowScanner) (domain.Expense, error) {
	var e domain.Expense
	err := row.Scan(
		&e.ID,
		&e.OwnerID,
		&e.PropertyID,
		&e.Category,
		&e.Amount,
		&e.VATAmount,
		&e.TotalAmount,
		&e.Description,
		&e.ExpenseDate,
		&e.IsDeductible,
		&e.DeductiblePercentage,
		&e.IsRecoverable,
		&e.RecoveredAmount,
		&e.CreatedAt,
	)
	return e, err
}
