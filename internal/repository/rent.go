package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"locagest/internal/domain"

	"github.com/shopspring/decimal"
)

const rentSelect = `SELECT r.id, r.lease_id, p.user_id, r.period_start, r.period_end, r.rent_amount, r.charges_amount, r.other_amount, r.total_amount, r.paid_amount, r.due_date, r.status, r.is_auto_generated, r.notes, r.created_at, r.updated_at FROM rents r JOIN leases l ON l.id = r.lease_id JOIN properties p ON p.id = l.property_id`

type RentsFilter struct {
	OwnerID    *int64
	LeaseID    *int64
	PropertyID *int64
	Status     *domain.RentStatus
	PeriodFrom *time.Time
	PeriodTo   *time.Time
}

func (f RentsFilter) where(startAt int) (string, []any) {
	where := []string{"1=1"}
	args := []any{}
	i := startAt

	if f.OwnerID != nil {
		where = append(where, fmt.Sprintf("p.user_id = $%d", i))
		args = append(args, *f.OwnerID)
		i++
	}
	if f.LeaseID != nil {
		where = append(where, fmt.Sprintf("r.lease_id = $%d", i))
		args = append(args, *f.LeaseID)
		i++
	}
	if f.PropertyID != nil {
		where = append(where, fmt.Sprintf("l.property_id = $%d", i))
		args = append(args, *f.PropertyID)
		i++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("r.status = $%d", i))
		args = append(args, *f.Status)
		i++
	}
	if f.PeriodFrom != nil {
		where = append(where, fmt.Sprintf("r.period_start >= $%d", i))
		args = append(args, *f.PeriodFrom)
		i++
	}
	if f.PeriodTo != nil {
		where = append(where, fmt.Sprintf("r.period_start <= $%d", i))
		args = append(args, *f.PeriodTo)
		i++
	}

	return " WHERE " + strings.Join(where, " AND "), args
}

type RentRepository struct {
	db *sql.DB
}

func NewRentRepository(db *sql.DB) *RentRepository {
	return &RentRepository{db: db}
}

func (r *RentRepository) Get(ctx context.Context, id int64) (domain.Rent, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, rentSelect+" WHERE r.id = $1", id)
	rent, err := scanRent(row)
	return rent, notFound(err)
}

// GetForUpdate locks the rent row so concurrent payments serialize on it.
func (r *RentRepository) GetForUpdate(ctx context.Context, id int64) (domain.Rent, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, rentSelect+" WHERE r.id = $1 FOR UPDATE OF r", id)
	rent, err := scanRent(row)
	return rent, notFound(err)
}

func (r *RentRepository) List(ctx context.Context, f RentsFilter) ([]domain.Rent, error) {
	where, args := f.where(1)
	query := rentSelect + where + " ORDER BY r.period_start DESC, r.id DESC"

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Rent
	for rows.Next() {
		rent, err := scanRent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rent)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RentRepository) HasMoreThan(ctx context.Context, limit int64, f RentsFilter) (bool, error) {
	where, args := f.where(2)
	query := `SELECT COUNT(*) > $1 FROM rents r JOIN leases l ON l.id = r.lease_id JOIN properties p ON p.id = l.property_id` + where

	var tooMany bool
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, append([]any{limit}, args...)...).Scan(&tooMany); err != nil {
		return false, err
	}
	return tooMany, nil
}

// ListUnsettled returns the rents that can still change status with time,
// along with the tenant contact used for reminders.
func (r *RentRepository) ListUnsettled(ctx context.Context, dueBefore time.Time) ([]domain.RentReminder, error) {
	query := `SELECT r.id, r.lease_id, p.user_id, r.period_start, r.period_end, r.rent_amount, r.charges_amount, r.other_amount, r.total_amount, r.paid_amount, r.due_date, r.status, r.is_auto_generated, r.notes, r.created_at, r.updated_at, p.name, t.first_name, t.last_name, t.email
		FROM rents r
		JOIN leases l ON l.id = r.lease_id
		JOIN properties p ON p.id = l.property_id
		JOIN tenants t ON t.id = l.tenant_id
		WHERE r.status IN ($1, $2, $3) AND r.due_date < $4
		ORDER BY r.due_date, r.id`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, domain.RentPending, domain.RentPartial, domain.RentLate, dueBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RentReminder
	for rows.Next() {
		var (
			rem       domain.RentReminder
			firstName string
			lastName  string
		)
		rent := &rem.Rent
		if err := rows.Scan(
			&rent.ID,
			&rent.LeaseID,
			&rent.OwnerID,
			&rent.PeriodStart,
			&rent.PeriodEnd,
			&rent.RentAmount,
			&rent.ChargesAmount,
			&rent.OtherAmount,
			&rent.TotalAmount,
			&rent.PaidAmount,
			&rent.DueDate,
			&rent.Status,
			&rent.IsAutoGenerated,
			&rent.Notes,
			&rent.CreatedAt,
			&rent.UpdatedAt,
			&rem.PropertyName,
			&firstName,
			&lastName,
			&rem.TenantEmail,
		); err != nil {
			return nil, err
		}
		rem.TenantName = domain.Tenant{FirstName: firstName, LastName: lastName}.FullName()
		out = append(out, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert stores a new rent. A rent already present for the same lease and
// period is left alone and reported with created == false.
func (r *RentRepository) Insert(ctx context.Context, rent domain.Rent) (id int64, created bool, err error) {
	query := `INSERT INTO rents (lease_id, period_start, period_end, rent_amount, charges_amount, other_amount, total_amount, paid_amount, due_date, status, is_auto_generated, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		ON CONFLICT (lease_id, period_start, period_end) DO NOTHING
		RETURNING id`

	err = conn(ctx, r.db).QueryRowContext(ctx, query,
		rent.LeaseID,
		rent.PeriodStart,
		rent.PeriodEnd,
		rent.RentAmount,
		rent.ChargesAmount,
		rent.OtherAmount,
		rent.TotalAmount,
		rent.PaidAmount,
		rent.DueDate,
		rent.Status,
		rent.IsAutoGenerated,
		rent.Notes,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// UpdateLedger writes back the outcome of a reconciliation. The paid_amount
// guard keeps the stored value from ever going down.
func (r *RentRepository) UpdateLedger(ctx context.Context, id int64, total, paid decimal.Decimal, status domain.RentStatus) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE rents SET total_amount = $1, paid_amount = $2, status = $3, updated_at = NOW() WHERE id = $4 AND paid_amount <= $2`,
		total, paid, status, id,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *RentRepository) UpdateStatus(ctx context.Context, id int64, status domain.RentStatus) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE rents SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func scanRent(row rowScanner) (domain.Rent, error) {
	var rent domain.Rent
	err := row.Scan(
		&rent.ID,
		&rent.LeaseID,
		&rent.OwnerID,
		&rent.PeriodStart,
		&rent.PeriodEnd,
		&rent.RentAmount,
		&rent.ChargesAmount,
		&rent.OtherAmount,
		&rent.TotalAmount,
		&rent.PaidAmount,
		&rent.DueDate,
		&rent.Status,
		&rent.IsAutoGenerated,
		&rent.Notes,
		&rent.CreatedAt,
		&rent.UpdatedAt,
	)
	return rent, err
}
