package repository

import (
	"context"
	"database/sql"

	"locagest/internal/domain"
)

type RentPaymentRepository struct {
	db *sql.DB
}

func NewRentPaymentRepository(db *sql.DB) *RentPaymentRepository {
	return &RentPaymentRepository{db: db}
}

// Insert appends a payment. Payments are never updated afterwards.
func (r *RentPaymentRepository) Insert(ctx context.Context, p domain.RentPayment) (domain.RentPayment, error) {
	query := `INSERT INTO rent_payments (rent_id, amount, payment_date, payment_method, transaction_reference, bank_name, receipt_number, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id, created_at`

	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		p.RentID,
		p.Amount,
		p.PaymentDate,
		p.Method,
		p.TransactionReference,
		p.BankName,
		p.ReceiptNumber,
		p.Notes,
		p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt)
	return p, err
}

func (r *RentPaymentRepository) ListByRent(ctx context.Context, rentID int64) ([]domain.RentPayment, error) {
	query := `SELECT id, rent_id, amount, payment_date, payment_method, transaction_reference, bank_name, receipt_number, notes, created_by, created_at
		FROM rent_payments
		WHERE rent_id = $1 AND deleted_at IS NULL
		ORDER BY payment_date, id`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, rentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RentPayment
	for rows.Next() {
		var p domain.RentPayment
		if err := rows.Scan(
			&p.ID,
			&p.RentID,
			&p.Amount,
			&p.PaymentDate,
			&p.Method,
			&p.TransactionReference,
			&p.BankName,
			&p.ReceiptNumber,
			&p.Notes,
			&p.CreatedBy,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
