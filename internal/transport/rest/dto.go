package rest

import (
	"time"

	"locagest/internal/domain"
	"locagest/internal/service"
)

const dateLayout = "2006-01-02"

func optDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

type paymentResponse struct {
	ID                   int64   `json:"id"`
	RentID               int64   `json:"rent_id"`
	Amount               string  `json:"amount"`
	PaymentDate          string  `json:"payment_date"`
	PaymentMethod        string  `json:"payment_method"`
	TransactionReference *string `json:"transaction_reference"`
	BankName             *string `json:"bank_name"`
	ReceiptNumber        *string `json:"receipt_number"`
	Notes                *string `json:"notes"`
}

func toPaymentResponse(p domain.RentPayment) paymentResponse {
	return paymentResponse{
		ID:                   p.ID,
		RentID:               p.RentID,
		Amount:               p.Amount.StringFixed(2),
		PaymentDate:          p.PaymentDate.Format(dateLayout),
		PaymentMethod:        string(p.Method),
		TransactionReference: p.TransactionReference,
		BankName:             p.BankName,
		ReceiptNumber:        p.ReceiptNumber,
		Notes:                p.Notes,
	}
}

type rentResponse struct {
	ID              int64             `json:"id"`
	LeaseID         int64             `json:"lease_id"`
	PeriodStart     string            `json:"period_start"`
	PeriodEnd       string            `json:"period_end"`
	RentAmount      string            `json:"rent_amount"`
	ChargesAmount   string            `json:"charges_amount"`
	OtherAmount     string            `json:"other_amount"`
	TotalAmount     string            `json:"total_amount"`
	PaidAmount      string            `json:"paid_amount"`
	Outstanding     string            `json:"outstanding"`
	DueDate         string            `json:"due_date"`
	Status          domain.RentStatus `json:"status"`
	DaysLate        int               `json:"days_late"`
	IsAutoGenerated bool              `json:"is_auto_generated"`
	Notes           *string           `json:"notes"`
	Payments        []paymentResponse `json:"payments,omitempty"`
}

func toRentResponse(v service.RentView) rentResponse {
	r := v.Rent
	resp := rentResponse{
		ID:              r.ID,
		LeaseID:         r.LeaseID,
		PeriodStart:     r.PeriodStart.Format(dateLayout),
		PeriodEnd:       r.PeriodEnd.Format(dateLayout),
		RentAmount:      r.RentAmount.StringFixed(2),
		ChargesAmount:   r.ChargesAmount.StringFixed(2),
		OtherAmount:     r.OtherAmount.StringFixed(2),
		TotalAmount:     r.TotalAmount.StringFixed(2),
		PaidAmount:      r.PaidAmount.StringFixed(2),
		Outstanding:     r.Outstanding().StringFixed(2),
		DueDate:         r.DueDate.Format(dateLayout),
		Status:          r.Status,
		DaysLate:        v.DaysLate,
		IsAutoGenerated: r.IsAutoGenerated,
		Notes:           r.Notes,
	}
	for _, p := range v.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	return resp
}

type revisionResponse struct {
	ID                  int64   `json:"id,omitempty"`
	LeaseID             int64   `json:"lease_id"`
	RevisionDate        string  `json:"revision_date"`
	OldRent             string  `json:"old_rent"`
	NewRent             string  `json:"new_rent"`
	IndexationReference *string `json:"indexation_reference"`
	BaseIndex           string  `json:"base_index"`
	NewIndex            string  `json:"new_index"`
	IncreasePercentage  string  `json:"increase_percentage"`
	CalculationFormula  string  `json:"calculation_formula"`
	AppliedFrom         string  `json:"applied_from"`
	Notes               *string `json:"notes"`
}

func toRevisionResponse(rev domain.RentRevision) revisionResponse {
	return revisionResponse{
		ID:                  rev.ID,
		LeaseID:             rev.LeaseID,
		RevisionDate:        rev.RevisionDate.Format(dateLayout),
		OldRent:             rev.OldRent.StringFixed(2),
		NewRent:             rev.NewRent.StringFixed(2),
		IndexationReference: rev.IndexationReference,
		BaseIndex:           rev.BaseIndex.String(),
		NewIndex:            rev.NewIndex.String(),
		IncreasePercentage:  rev.IncreasePercentage.StringFixed(2),
		CalculationFormula:  rev.CalculationFormula,
		AppliedFrom:         rev.AppliedFrom.Format(dateLayout),
		Notes:               rev.Notes,
	}
}

type leaseResponse struct {
	ID                 int64              `json:"id"`
	Reference          string             `json:"reference"`
	Status             domain.LeaseStatus `json:"status"`
	CurrentRent        string             `json:"current_rent"`
	Charges            string             `json:"charges"`
	TotalMonthlyCost   string             `json:"total_monthly_cost"`
	LastIndexationDate *string            `json:"last_indexation_date"`
	TerminationDate    *string            `json:"termination_date"`
	TerminationReason  *string            `json:"termination_reason"`
}

func toLeaseResponse(l domain.Lease) leaseResponse {
	return leaseResponse{
		ID:                 l.ID,
		Reference:          l.Reference,
		Status:             l.Status,
		CurrentRent:        l.CurrentRent.StringFixed(2),
		Charges:            l.Charges.StringFixed(2),
		TotalMonthlyCost:   l.TotalMonthlyCost().StringFixed(2),
		LastIndexationDate: optDate(l.LastIndexationDate),
		TerminationDate:    optDate(l.TerminationDate),
		TerminationReason:  l.TerminationReason,
	}
}

type rentSummaryResponse struct {
	RentID       int64             `json:"rent_id"`
	LeaseID      int64             `json:"lease_id"`
	PropertyName string            `json:"property_name"`
	TenantName   string            `json:"tenant_name"`
	PeriodStart  string            `json:"period_start"`
	DueDate      string            `json:"due_date"`
	TotalAmount  string            `json:"total_amount"`
	PaidAmount   string            `json:"paid_amount"`
	Status       domain.RentStatus `json:"status"`
}

type dashboardResponse struct {
	TotalProperties     int                   `json:"total_properties"`
	RentedProperties    int                   `json:"rented_properties"`
	AvailableProperties int                   `json:"available_properties"`
	TotalTenants        int                   `json:"total_tenants"`
	MonthlyRevenue      string                `json:"monthly_revenue"`
	PendingPayments     string                `json:"pending_payments"`
	OccupancyRate       string                `json:"occupancy_rate"`
	RecentRents         []rentSummaryResponse `json:"recent_rents"`
	UpcomingRents       []rentSummaryResponse `json:"upcoming_rents"`
}

func toRentSummaries(in []domain.RentSummary) []rentSummaryResponse {
	out := make([]rentSummaryResponse, 0, len(in))
	for _, r := range in {
		out = append(out, rentSummaryResponse{
			RentID:       r.RentID,
			LeaseID:      r.LeaseID,
			PropertyName: r.PropertyName,
			TenantName:   r.TenantName,
			PeriodStart:  r.PeriodStart.Format(dateLayout),
			DueDate:      r.DueDate.Format(dateLayout),
			TotalAmount:  r.TotalAmount.StringFixed(2),
			PaidAmount:   r.PaidAmount.StringFixed(2),
			Status:       r.Status,
		})
	}
	return out
}

func toDashboardResponse(s domain.DashboardStats) dashboardResponse {
	return dashboardResponse{
		TotalProperties:     s.TotalProperties,
		RentedProperties:    s.RentedProperties,
		AvailableProperties: s.AvailableProperties,
		TotalTenants:        s.TotalTenants,
		MonthlyRevenue:      s.MonthlyRevenue.StringFixed(2),
		PendingPayments:     s.PendingPayments.StringFixed(2),
		OccupancyRate:       s.OccupancyRate.StringFixed(2),
		RecentRents:         toRentSummaries(s.RecentRents),
		UpcomingRents:       toRentSummaries(s.UpcomingRents),
	}
}

type expenseResponse struct {
	ID                   int64                  `json:"id"`
	PropertyID           *int64                 `json:"property_id"`
	Category             domain.ExpenseCategory `json:"category"`
	Description          string                 `json:"description"`
	ExpenseDate          string                 `json:"expense_date"`
	Amount               string                 `json:"amount"`
	VATAmount            string                 `json:"vat_amount"`
	TotalAmount          string                 `json:"total_amount"`
	IsDeductible         bool                   `json:"is_deductible"`
	DeductiblePercentage string                 `json:"deductible_percentage"`
	DeductibleAmount     string                 `json:"deductible_amount"`
	IsRecoverable        bool                   `json:"is_recoverable"`
	RecoveredAmount      string                 `json:"recovered_amount"`
	RemainingRecoverable string                 `json:"remaining_recoverable"`
}

func toExpenseResponse(v service.ExpenseView) expenseResponse {
	e := v.Expense
	return expenseResponse{
		ID:                   e.ID,
		PropertyID:           e.PropertyID,
		Category:             e.Category,
		Description:          e.Description,
		ExpenseDate:          e.ExpenseDate.Format(dateLayout),
		Amount:               e.Amount.StringFixed(2),
		VATAmount:            e.VATAmount.StringFixed(2),
		TotalAmount:          e.TotalAmount.StringFixed(2),
		IsDeductible:         e.IsDeductible,
		DeductiblePercentage: e.DeductiblePercentage.StringFixed(2),
		DeductibleAmount:     v.Split.Deductible.StringFixed(2),
		IsRecoverable:        e.IsRecoverable,
		RecoveredAmount:      e.RecoveredAmount.StringFixed(2),
		RemainingRecoverable: v.Split.RemainingRecoverable.StringFixed(2),
	}
}

type propertyResponse struct {
	ID                int64                 `json:"id"`
	Reference         string                `json:"reference"`
	Name              string                `json:"name"`
	Type              domain.PropertyType   `json:"type"`
	Address           string                `json:"address"`
	AddressComplement *string               `json:"address_complement"`
	City              string                `json:"city"`
	PostalCode        string                `json:"postal_code"`
	Country           string                `json:"country"`
	SurfaceArea       string                `json:"surface_area"`
	Rooms             *int64                `json:"rooms"`
	Bedrooms          *int64                `json:"bedrooms"`
	Floor             *int64                `json:"floor"`
	Description       *string               `json:"description"`
	IsFurnished       bool                  `json:"is_furnished"`
	EnergyRating      *string               `json:"energy_rating"`
	RentAmount        string                `json:"rent_amount"`
	ChargesAmount     string                `json:"charges_amount"`
	DepositAmount     string                `json:"deposit_amount"`
	Status            domain.PropertyStatus `json:"status"`
	CreatedAt         *string               `json:"created_at"`
}

func toPropertyResponse(p domain.Property) propertyResponse {
	return propertyResponse{
		ID:                p.ID,
		Reference:         p.Reference,
		Name:              p.Name,
		Type:              p.Type,
		Address:           p.Address,
		AddressComplement: p.AddressComplement,
		City:              p.City,
		PostalCode:        p.PostalCode,
		Country:           p.Country,
		SurfaceArea:       p.SurfaceArea.StringFixed(2),
		Rooms:             p.Rooms,
		Bedrooms:          p.Bedrooms,
		Floor:             p.Floor,
		Description:       p.Description,
		IsFurnished:       p.IsFurnished,
		EnergyRating:      p.EnergyRating,
		RentAmount:        p.RentAmount.StringFixed(2),
		ChargesAmount:     p.ChargesAmount.StringFixed(2),
		DepositAmount:     p.DepositAmount.StringFixed(2),
		Status:            p.Status,
		CreatedAt:         optDate(p.CreatedAt),
	}
}

func toPropertyResponses(props []domain.Property) []propertyResponse {
	out := make([]propertyResponse, 0, len(props))
	for _, p := range props {
		out = append(out, toPropertyResponse(p))
	}
	return out
}

type tenantResponse struct {
	ID            int64   `json:"id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	FullName      string  `json:"full_name"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	BirthDate     *string `json:"birth_date"`
	Nationality   *string `json:"nationality"`
	Profession    *string `json:"profession"`
	Employer      *string `json:"employer"`
	MonthlyIncome *string `json:"monthly_income"`
	Notes         *string `json:"notes"`
	IsActive      bool    `json:"is_active"`
	CreatedAt     *string `json:"created_at"`
}

func toTenantResponse(t domain.Tenant) tenantResponse {
	var income *string
	if t.MonthlyIncome.Valid {
		v := t.MonthlyIncome.Decimal.StringFixed(2)
		income = &v
	}
	return tenantResponse{
		ID:            t.ID,
		FirstName:     t.FirstName,
		LastName:      t.LastName,
		FullName:      t.FullName(),
		Email:         t.Email,
		Phone:         t.Phone,
		BirthDate:     optDate(t.BirthDate),
		Nationality:   t.Nationality,
		Profession:    t.Profession,
		Employer:      t.Employer,
		MonthlyIncome: income,
		Notes:         t.Notes,
		IsActive:      t.IsActive,
		CreatedAt:     optDate(t.CreatedAt),
	}
}

func toTenantResponses(tenants []domain.Tenant) []tenantResponse {
	out := make([]tenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, toTenantResponse(t))
	}
	return out
}
