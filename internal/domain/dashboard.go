package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	TotalProperties     int             `json:"total_properties"`
	RentedProperties    int             `json:"rented_properties"`
	AvailableProperties int             `json:"available_properties"`
	TotalTenants        int             `json:"total_tenants"`
	MonthlyRevenue      decimal.Decimal `json:"monthly_revenue"`
	PendingPayments     decimal.Decimal `json:"pending_payments"`
	OccupancyRate       decimal.Decimal `json:"occupancy_rate"`
	RecentRents         []RentSummary   `json:"recent_rents"`
	UpcomingRents       []RentSummary   `json:"upcoming_rents"`
}

// RentSummary is a rent joined with the names needed to display it.
type RentSummary struct {
	RentID       int64           `json:"rent_id"`
	LeaseID      int64           `json:"lease_id"`
	PropertyName string          `json:"property_name"`
	TenantName   string          `json:"tenant_name"`
	PeriodStart  time.Time       `json:"period_start"`
	DueDate      time.Time       `json:"due_date"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	Status       RentStatus      `json:"status"`
}
