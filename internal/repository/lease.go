package repository

import (
	"context"
	"database/sql"
	"time"

	"locagest/internal/domain"

	"github.com/shopspring/decimal"
)

const leaseSelect = `SELECT l.id, l.reference, l.property_id, l.tenant_id, p.user_id, l.start_date, l.end_date, l.initial_rent, l.current_rent, l.charges, l.deposit, l.rent_payment_day, l.indexation_reference, l.indexation_base_value, l.indexation_date, l.last_indexation_date, l.status, l.termination_date, l.termination_reason, l.notes, l.created_at, l.updated_at FROM leases l JOIN properties p ON p.id = l.property_id`

type LeaseRepository struct {
	db *sql.DB
}

func NewLeaseRepository(db *sql.DB) *LeaseRepository {
	return &LeaseRepository{db: db}
}

func (r *LeaseRepository) Get(ctx context.Context, id int64) (domain.Lease, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, leaseSelect+" WHERE l.id = $1", id)
	l, err := scanLease(row)
	return l, notFound(err)
}

// GetForUpdate locks the lease row until the surrounding transaction ends.
func (r *LeaseRepository) GetForUpdate(ctx context.Context, id int64) (domain.Lease, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, leaseSelect+" WHERE l.id = $1 FOR UPDATE OF l", id)
	l, err := scanLease(row)
	return l, notFound(err)
}

func (r *LeaseRepository) ListActive(ctx context.Context) ([]domain.Lease, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, leaseSelect+" WHERE l.status = $1 ORDER BY l.id", domain.LeaseActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRent stores the rent resulting from an indexation.
func (r *LeaseRepository) UpdateRent(ctx context.Context, id int64, newRent decimal.Decimal, indexedAt time.Time) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE leases SET current_rent = $1, last_indexation_date = $2, updated_at = NOW() WHERE id = $3`,
		newRent, indexedAt, id,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *LeaseRepository) UpdateStatus(ctx context.Context, id int64, status domain.LeaseStatus, terminationDate *time.Time, reason *string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE leases SET status = $1, termination_date = COALESCE($2, termination_date), termination_reason = COALESCE($3, termination_reason), updated_at = NOW() WHERE id = $4`,
		status, terminationDate, reason, id,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func scanLease(row rowScanner) (domain.Lease, error) {
	var l domain.Lease
	err := row.Scan(
		&l.ID,
		&l.Reference,
		&l.PropertyID,
		&l.TenantID,
		&l.OwnerID,
		&l.StartDate,
		&l.EndDate,
		&l.InitialRent,
		&l.CurrentRent,
		&l.Charges,
		&l.Deposit,
		&l.PaymentDay,
		&l.IndexationReference,
		&l.IndexationBaseValue,
		&l.IndexationDate,
		&l.LastIndexationDate,
		&l.Status,
		&l.TerminationDate,
		&l.TerminationReason,
		&l.Notes,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	return l, err
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
