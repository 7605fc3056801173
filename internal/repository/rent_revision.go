package repository

import (
	"context"
	"database/sql"

	"locagest/internal/domain"
)

const revisionSelect = `SELECT id, lease_id, revision_date, old_rent, new_rent, indexation_reference, base_index, new_index, increase_percentage, calculation_formula, applied_from, notes, created_at FROM rent_revisions`

type RentRevisionRepository struct {
	db *sql.DB
}

func NewRentRevisionRepository(db *sql.DB) *RentRevisionRepository {
	return &RentRevisionRepository{db: db}
}

func (r *RentRevisionRepository) Insert(ctx context.Context, rev domain.RentRevision) (domain.RentRevision, error) {
	query := `INSERT INTO rent_revisions (lease_id, revision_date, old_rent, new_rent, indexation_reference, base_index, new_index, increase_percentage, calculation_formula, applied_from, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, created_at`

	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		rev.LeaseID,
		rev.RevisionDate,
		rev.OldRent,
		rev.NewRent,
		rev.IndexationReference,
		rev.BaseIndex,
		rev.NewIndex,
		rev.IncreasePercentage,
		rev.CalculationFormula,
		rev.AppliedFrom,
		rev.Notes,
	).Scan(&rev.ID, &rev.CreatedAt)
	return rev, err
}

func (r *RentRevisionRepository) ListByLease(ctx context.Context, leaseID int64) ([]domain.RentRevision, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, revisionSelect+" WHERE lease_id = $1 ORDER BY applied_from DESC, id DESC", leaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RentRevision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns the most recent revision of a lease, or ErrNotFound if the
// lease was never indexed.
func (r *RentRevisionRepository) Latest(ctx context.Context, leaseID int64) (domain.RentRevision, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, revisionSelect+" WHERE lease_id = $1 ORDER BY applied_from DESC, id DESC LIMIT 1", leaseID)
	rev, err := scanRevision(row)
	return rev, notFound(err)
}

func scanRevision(row rowScanner) (domain.RentRevision, error) {
	var rev domain.RentRevision
	err := row.Scan(
		&rev.ID,
		&rev.LeaseID,
		&rev.RevisionDate,
		&rev.OldRent,
		&rev.NewRent,
		&rev.IndexationReference,
		&rev.BaseIndex,
		&rev.NewIndex,
		&rev.IncreasePercentage,
		&rev.CalculationFormula,
		&rev.AppliedFrom,
		&rev.Notes,
		&rev.CreatedAt,
	)
	return rev, err
}
