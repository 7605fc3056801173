package repository

import (
	"context"
	"database/sql"
	"time"

	"locagest/internal/domain"

	"github.com/shopspring/decimal"
)

const rentSummarySelect = `SELECT r.id, r.lease_id, p.name, t.first_name, t.last_name, r.period_start, r.due_date, r.total_amount, r.paid_amount, r.status
	FROM rents r
	JOIN leases l ON l.id = r.lease_id
	JOIN properties p ON p.id = l.property_id
	JOIN tenants t ON t.id = l.tenant_id`

// PortfolioCounts are the raw figures the dashboard is built from.
type PortfolioCounts struct {
	TotalProperties     int
	RentedProperties    int
	AvailableProperties int
	ActiveTenants       int
}

type DashboardRepository struct {
	db *sql.DB
}

func NewDashboardRepository(db *sql.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) Counts(ctx context.Context, ownerID int64) (PortfolioCounts, error) {
	var c PortfolioCounts
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3),
			(SELECT COUNT(*) FROM tenants WHERE user_id = $1 AND is_active AND deleted_at IS NULL)
		FROM properties WHERE user_id = $1 AND deleted_at IS NULL`,
		ownerID, domain.PropertyRented, domain.PropertyAvailable,
	).Scan(&c.TotalProperties, &c.RentedProperties, &c.AvailableProperties, &c.ActiveTenants)
	return c, err
}

// MonthlyRevenue sums the paid rents whose period starts in [from, to].
func (r *DashboardRepository) MonthlyRevenue(ctx context.Context, ownerID int64, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COALESCE(SUM(r.total_amount), 0)
		FROM rents r
		JOIN leases l ON l.id = r.lease_id
		JOIN properties p ON p.id = l.property_id
		WHERE p.user_id = $1 AND r.status = $2 AND r.period_start BETWEEN $3 AND $4`,
		ownerID, domain.RentPaid, from, to,
	).Scan(&sum)
	return sum, err
}

// PendingPayments sums what is billed on pending and late rents whose period
// starts in [from, to].
func (r *DashboardRepository) PendingPayments(ctx context.Context, ownerID int64, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COALESCE(SUM(r.total_amount), 0)
		FROM rents r
		JOIN leases l ON l.id = r.lease_id
		JOIN properties p ON p.id = l.property_id
		WHERE p.user_id = $1 AND r.status IN ($2, $3) AND r.period_start BETWEEN $4 AND $5`,
		ownerID, domain.RentPending, domain.RentLate, from, to,
	).Scan(&sum)
	return sum, err
}

func (r *DashboardRepository) RecentRents(ctx context.Context, ownerID int64, limit int) ([]domain.RentSummary, error) {
	return r.summaries(ctx, rentSummarySelect+` WHERE p.user_id = $1 ORDER BY r.created_at DESC, r.id DESC LIMIT $2`, ownerID, limit)
}

// UpcomingRents lists pending rents due in [from, to], soonest first.
func (r *DashboardRepository) UpcomingRents(ctx context.Context, ownerID int64, from, to time.Time, limit int) ([]domain.RentSummary, error) {
	return r.summaries(ctx, rentSummarySelect+` WHERE p.user_id = $1 AND r.status = $2 AND r.due_date BETWEEN $3 AND $4 ORDER BY r.due_date, r.id LIMIT $5`,
		ownerID, domain.RentPending, from, to, limit)
}

func (r *DashboardRepository) summaries(ctx context.Context, query string, args ...any) ([]domain.RentSummary, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.RentSummary{}
	for rows.Next() {
		var (
			s         domain.RentSummary
			firstName string
			lastName  string
		)
		if err := rows.Scan(
			&s.RentID,
			&s.LeaseID,
			&s.PropertyName,
			&firstName,
			&lastName,
			&s.PeriodStart,
			&s.DueDate,
			&s.TotalAmount,
			&s.PaidAmount,
			&s.Status,
		); err != nil {
			return nil, err
		}
		s.TenantName = domain.Tenant{FirstName: firstName, LastName: lastName}.FullName()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
