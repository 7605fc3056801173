package repository

import (
	"context"
	"database/sql"
	"errors"

	"locagest/internal/domain"
)

const propertySelect = `SELECT id, user_id, reference, name, type, address, address_complement, city, postal_code, country, surface_area, rooms, bedrooms, floor, description, is_furnished, energy_rating, rent_amount, charges_amount, deposit_amount, status, created_at, updated_at FROM properties`

type PropertyRepository struct {
	db *sql.DB
}

func NewPropertyRepository(db *sql.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) Get(ctx context.Context, id int64) (domain.Property, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, propertySelect+" WHERE id = $1 AND deleted_at IS NULL", id)
	p, err := scanProperty(row)
	return p, notFound(err)
}

// ListByOwner returns the owner's live properties, newest first.
func (r *PropertyRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Property, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		propertySelect+" WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC, id DESC", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LockOwner serializes reference allocation for one owner until the
// surrounding transaction ends.
func (r *PropertyRepository) LockOwner(ctx context.Context, ownerID int64) error {
	var id int64
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, ownerID).Scan(&id)
	return notFound(err)
}

// LastReference returns the reference of the owner's most recently created
// property, deleted ones included, or "" when there is none.
func (r *PropertyRepository) LastReference(ctx context.Context, ownerID int64) (string, error) {
	var ref string
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT reference FROM properties WHERE user_id = $1 ORDER BY id DESC LIMIT 1`, ownerID,
	).Scan(&ref)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return ref, err
}

func (r *PropertyRepository) Insert(ctx context.Context, p domain.Property) (domain.Property, error) {
	query := `INSERT INTO properties (user_id, reference, name, type, address, address_complement, city, postal_code, country, surface_area, rooms, bedrooms, floor, description, is_furnished, energy_rating, rent_amount, charges_amount, deposit_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		p.OwnerID,
		p.Reference,
		p.Name,
		p.Type,
		p.Address,
		p.AddressComplement,
		p.City,
		p.PostalCode,
		p.Country,
		p.SurfaceArea,
		p.Rooms,
		p.Bedrooms,
		p.Floor,
		p.Description,
		p.IsFurnished,
		p.EnergyRating,
		p.RentAmount,
		p.ChargesAmount,
		p.DepositAmount,
		p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Update rewrites every editable column. Reference and owner never change.
func (r *PropertyRepository) Update(ctx context.Context, p domain.Property) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE properties SET name = $1, type = $2, address = $3, address_complement = $4, city = $5, postal_code = $6, country = $7, surface_area = $8, rooms = $9, bedrooms = $10, floor = $11, description = $12, is_furnished = $13, energy_rating = $14, rent_amount = $15, charges_amount = $16, deposit_amount = $17, status = $18, updated_at = NOW()
		WHERE id = $19 AND deleted_at IS NULL`,
		p.Name,
		p.Type,
		p.Address,
		p.AddressComplement,
		p.City,
		p.PostalCode,
		p.Country,
		p.SurfaceArea,
		p.Rooms,
		p.Bedrooms,
		p.Floor,
		p.Description,
		p.IsFurnished,
		p.EnergyRating,
		p.RentAmount,
		p.ChargesAmount,
		p.DepositAmount,
		p.Status,
		p.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *PropertyRepository) SoftDelete(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE properties SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *PropertyRepository) HasActiveLeases(ctx context.Context, propertyID int64) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM leases WHERE property_id = $1 AND status = $2)`,
		propertyID, domain.LeaseActive,
	).Scan(&exists)
	return exists, err
}

func scanProperty(row rowScanner) (domain.Property, error) {
	var p domain.Property
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Reference,
		&p.Name,
		&p.Type,
		&p.Address,
		&p.AddressComplement,
		&p.City,
		&p.PostalCode,
		&p.Country,
		&p.SurfaceArea,
		&p.Rooms,
		&p.Bedrooms,
		&p.Floor,
		&p.Description,
		&p.IsFurnished,
		&p.EnergyRating,
		&p.RentAmount,
		&p.ChargesAmount,
		&p.DepositAmount,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
