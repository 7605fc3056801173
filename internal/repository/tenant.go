package repository

import (
	"context"
	"database/sql"

	"locagest/internal/domain"
)

const tenantSelect = `SELECT id, user_id, first_name, last_name, email, phone, birth_date, nationality, profession, employer, monthly_income, notes, is_active, created_at, updated_at FROM tenants`

type TenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Get(ctx context.Context, id int64) (domain.Tenant, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, tenantSelect+" WHERE id = $1 AND deleted_at IS NULL", id)
	t, err := scanTenant(row)
	return t, notFound(err)
}

// ListByOwner returns the owner's live tenants ordered by name.
func (r *TenantRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Tenant, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		tenantSelect+" WHERE user_id = $1 AND deleted_at IS NULL ORDER BY last_name, first_name, id", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// EmailTaken reports whether another live tenant of the owner already uses
// email. exceptID excludes the tenant being updated; pass 0 on create.
func (r *TenantRepository) EmailTaken(ctx context.Context, ownerID int64, email string, exceptID int64) (bool, error) {
	var taken bool
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE user_id = $1 AND LOWER(email) = LOWER($2) AND id <> $3 AND deleted_at IS NULL)`,
		ownerID, email, exceptID,
	).Scan(&taken)
	return taken, err
}

func (r *TenantRepository) Insert(ctx context.Context, t domain.Tenant) (domain.Tenant, error) {
	query := `INSERT INTO tenants (user_id, first_name, last_name, email, phone, birth_date, nationality, profession, employer, monthly_income, notes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		t.OwnerID,
		t.FirstName,
		t.LastName,
		t.Email,
		t.Phone,
		t.BirthDate,
		t.Nationality,
		t.Profession,
		t.Employer,
		t.MonthlyIncome,
		t.Notes,
		t.IsActive,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *TenantRepository) Update(ctx context.Context, t domain.Tenant) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE tenants SET first_name = $1, last_name = $2, email = $3, phone = $4, birth_date = $5, nationality = $6, profession = $7, employer = $8, monthly_income = $9, notes = $10, is_active = $11, updated_at = NOW()
		WHERE id = $12 AND deleted_at IS NULL`,
		t.FirstName,
		t.LastName,
		t.Email,
		t.Phone,
		t.BirthDate,
		t.Nationality,
		t.Profession,
		t.Employer,
		t.MonthlyIncome,
		t.Notes,
		t.IsActive,
		t.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *TenantRepository) SoftDelete(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE tenants SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *TenantRepository) HasActiveLeases(ctx context.Context, tenantID int64) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM leases WHERE tenant_id = $1 AND status = $2)`,
		tenantID, domain.LeaseActive,
	).Scan(&exists)
	return exists, err
}

func scanTenant(row rowScanner) (domain.Tenant, error) {
	var t domain.Tenant
	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.FirstName,
		&t.LastName,
		&t.Email,
		&t.Phone,
		&t.BirthDate,
		&t.Nationality,
		&t.Profession,
		&t.Employer,
		&t.MonthlyIncome,
		&t.Notes,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}
