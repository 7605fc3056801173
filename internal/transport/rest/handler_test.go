package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"locagest/internal/clients"
	"locagest/internal/domain"
	"locagest/internal/ledger"
	"locagest/internal/repository"
	"locagest/internal/service"
	"locagest/internal/transport/auth"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRentAPI struct {
	view    service.RentView
	payment domain.RentPayment
	err     error
	gotIn   service.PaymentInput
	gotDay  time.Time
}

func (f *fakeRentAPI) GetRent(_ context.Context, _, _ int64, today time.Time) (service.RentView, error) {
	f.gotDay = today
	return f.view, f.err
}

func (f *fakeRentAPI) ListLeaseRents(_ context.Context, _, _ int64, _ time.Time) ([]service.RentView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []service.RentView{f.view}, nil
}

func (f *fakeRentAPI) RecordPayment(_ context.Context, _, _ int64, in service.PaymentInput, _ time.Time) (service.RentView, domain.RentPayment, error) {
	f.gotIn = in
	return f.view, f.payment, f.err
}

func (f *fakeRentAPI) CancelRent(_ context.Context, _, _ int64) (domain.Rent, error) {
	return f.view.Rent, f.err
}

type fakeIndexationAPI struct {
	rev   domain.RentRevision
	err   error
	gotIn service.IndexationInput
}

func (f *fakeIndexationAPI) Preview(_ context.Context, _, _ int64, in service.IndexationInput, _ time.Time) (domain.RentRevision, error) {
	f.gotIn = in
	return f.rev, f.err
}

func (f *fakeIndexationAPI) Apply(_ context.Context, _, _ int64, in service.IndexationInput, _ time.Time) (domain.RentRevision, error) {
	f.gotIn = in
	return f.rev, f.err
}

func (f *fakeIndexationAPI) ListRevisions(_ context.Context, _, _ int64) ([]domain.RentRevision, error) {
	return []domain.RentRevision{f.rev}, f.err
}

type fakeLeaseAPI struct {
	lease domain.Lease
	err   error
	got   service.LeaseTransition
}

func (f *fakeLeaseAPI) Transition(_ context.Context, _, _ int64, t service.LeaseTransition, _ time.Time) (domain.Lease, error) {
	f.got = t
	return f.lease, f.err
}

type fakeExpenseAPI struct {
	gotYear int
}

func (f *fakeExpenseAPI) Get(_ context.Context, _, id int64) (service.ExpenseView, error) {
	if id != 1 {
		return service.ExpenseView{}, service.ErrNotFound
	}
	e := domain.Expense{ID: 1, Category: domain.ExpenseRepair, TotalAmount: decimal.RequireFromString("1200"),
		IsDeductible: true, DeductiblePercentage: decimal.NewFromInt(50)}
	return service.ExpenseView{Expense: e, Split: ledger.SplitExpense(e)}, nil
}

func (f *fakeExpenseAPI) Summary(_ context.Context, _ int64, year int) (service.ExpenseSummary, error) {
	f.gotYear = year
	return service.ExpenseSummary{Year: year}, nil
}

type fakeExportAPI struct {
	gotKey    string
	gotFields []string
	gotFilter repository.RentsFilter
}

func (f *fakeExportAPI) StartRentsExport(_ context.Context, selected []string, filter repository.RentsFilter, _ int64) (string, error) {
	f.gotFields = selected
	f.gotFilter = filter
	return "exports:rents_1", nil
}

func (f *fakeExportAPI) GetExports(_ context.Context, _ int64) ([]service.ExportStatus, error) {
	return []service.ExportStatus{{Key: "exports:rents_1", Progress: 100}}, nil
}

func (f *fakeExportAPI) GetExport(_ context.Context, key string, _ int64) (service.ExportStatus, error) {
	f.gotKey = key
	return service.ExportStatus{Key: key, Progress: 40}, nil
}

type fakeFiles struct{}

func (fakeFiles) Open(string) (string, string, error) {
	return "", "", clients.ErrFileNotFound
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func withOwner(ownerID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithOwnerID(r.Context(), ownerID)))
		})
	}
}

func newTestRouter(d Deps) http.Handler {
	d.Log = quietLogger()
	d.ExportPrefix = "exports:"
	h := NewHandler(d)
	h.now = func() time.Time { return time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC) }
	return h.InitRouterWithAuth(withOwner(7))
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func sampleRent() domain.Rent {
	return domain.Rent{
		ID:            5,
		LeaseID:       3,
		PeriodStart:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		RentAmount:    decimal.NewFromInt(800),
		ChargesAmount: decimal.NewFromInt(100),
		TotalAmount:   decimal.NewFromInt(900),
		PaidAmount:    decimal.NewFromInt(400),
		DueDate:       time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Status:        domain.RentLate,
	}
}

func TestHealth(t *testing.T) {
	rec, resp := do(t, newTestRouter(Deps{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", resp.Status)
}

func TestRoutesRequireOwner(t *testing.T) {
	h := NewHandler(Deps{Rents: &fakeRentAPI{}, Log: quietLogger()})
	rec, resp := do(t, h.InitRouter(), http.MethodGet, "/rents/5", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 401, resp.ErrorCode)
}

func TestMissingServiceAnswers503(t *testing.T) {
	rec, _ := do(t, newTestRouter(Deps{}), http.MethodGet, "/dashboard/stats", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type fakeDashboardAPI struct {
	stats domain.DashboardStats
}

func (f fakeDashboardAPI) Stats(context.Context, int64, time.Time) (domain.DashboardStats, error) {
	return f.stats, nil
}

func TestDashboardStatsMoneyFields(t *testing.T) {
	dash := fakeDashboardAPI{stats: domain.DashboardStats{
		TotalProperties:  3,
		RentedProperties: 2,
		MonthlyRevenue:   decimal.RequireFromString("2700.5"),
		PendingPayments:  decimal.RequireFromString("1350"),
		OccupancyRate:    decimal.RequireFromString("66.67"),
		UpcomingRents: []domain.RentSummary{{RentID: 5, TotalAmount: decimal.NewFromInt(900),
			DueDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}},
	}}
	rec, resp := do(t, newTestRouter(Deps{Dashboard: dash}), http.MethodGet, "/dashboard/stats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "2700.50", data["monthly_revenue"])
	assert.Equal(t, "1350.00", data["pending_payments"])
	assert.Equal(t, "66.67", data["occupancy_rate"])
	assert.Len(t, data["recent_rents"], 0)
	upcoming := data["upcoming_rents"].([]interface{})
	require.Len(t, upcoming, 1)
	assert.Equal(t, "900.00", upcoming[0].(map[string]interface{})["total_amount"])
	assert.Equal(t, "2024-03-15", upcoming[0].(map[string]interface{})["due_date"])
}

func TestGetRent(t *testing.T) {
	rents := &fakeRentAPI{view: service.RentView{Rent: sampleRent(), DaysLate: 5}}
	rec, resp := do(t, newTestRouter(Deps{Rents: rents}), http.MethodGet, "/rents/5", "")

	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "900.00", data["total_amount"])
	assert.Equal(t, "500.00", data["outstanding"])
	assert.Equal(t, "late", data["status"])
	assert.Equal(t, float64(5), data["days_late"])
	assert.Equal(t, "2024-03-05", data["due_date"])
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), rents.gotDay)
}

func TestGetRentErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"other owner", service.ErrForbidden, http.StatusForbidden},
		{"unexpected", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(Deps{Rents: &fakeRentAPI{err: tc.err}})
			rec, _ := do(t, router, http.MethodGet, "/rents/5", "")
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestGetRentBadID(t *testing.T) {
	rec, _ := do(t, newTestRouter(Deps{Rents: &fakeRentAPI{}}), http.MethodGet, "/rents/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordPayment(t *testing.T) {
	rent := sampleRent()
	rent.PaidAmount = rent.TotalAmount
	rent.Status = domain.RentPaid
	receipt := "QUI-202403-ABCDEF0123"
	rents := &fakeRentAPI{
		view: service.RentView{Rent: rent},
		payment: domain.RentPayment{ID: 9, RentID: 5, Amount: decimal.NewFromInt(500),
			PaymentDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Method: domain.PaymentTransfer, ReceiptNumber: &receipt},
	}
	router := newTestRouter(Deps{Rents: rents})

	rec, resp := do(t, router, http.MethodPost, "/rents/5/payments", `{"amount": 500, "payment_method": "transfer", "bank_name": "BNP"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, rents.gotIn.Amount.Equal(decimal.NewFromInt(500)))
	require.NotNil(t, rents.gotIn.CreatedBy)
	assert.Equal(t, int64(7), *rents.gotIn.CreatedBy)
	require.NotNil(t, rents.gotIn.BankName)
	assert.Equal(t, "BNP", *rents.gotIn.BankName)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "paid", data["rent"].(map[string]interface{})["status"])
	assert.Equal(t, receipt, data["payment"].(map[string]interface{})["receipt_number"])
}

func TestRecordPaymentValidation(t *testing.T) {
	router := newTestRouter(Deps{Rents: &fakeRentAPI{}})
	cases := map[string]string{
		"missing amount": `{}`,
		"zero amount":    `{"amount": 0}`,
		"bad method":     `{"amount": 10, "payment_method": "bitcoin"}`,
		"bad date":       `{"amount": 10, "payment_date": "10/03/2024"}`,
		"broken json":    `{"amount":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec, _ := do(t, router, http.MethodPost, "/rents/5/payments", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRecordPaymentOnCancelledRent(t *testing.T) {
	router := newTestRouter(Deps{Rents: &fakeRentAPI{err: service.ErrRentCancelled}})
	rec, _ := do(t, router, http.MethodPost, "/rents/5/payments", `{"amount": "10.50"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelRentWithPayments(t *testing.T) {
	router := newTestRouter(Deps{Rents: &fakeRentAPI{err: service.ErrRentHasPayments}})
	rec, _ := do(t, router, http.MethodPost, "/rents/5/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListLeaseRents(t *testing.T) {
	router := newTestRouter(Deps{Rents: &fakeRentAPI{view: service.RentView{Rent: sampleRent()}}})
	rec, resp := do(t, router, http.MethodGet, "/leases/3/rents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 1)
}

func TestPreviewIndexation(t *testing.T) {
	rev, err := ledger.ComputeIndexation(decimal.NewFromInt(1200), decimal.RequireFromString("130.52"),
		decimal.RequireFromString("133.93"), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	idx := &fakeIndexationAPI{rev: rev}
	router := newTestRouter(Deps{Indexation: idx})

	rec, resp := do(t, router, http.MethodPost, "/leases/3/indexation/preview", `{"new_index": "133.93", "effective_date": "2024-04-01"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, idx.gotIn.NewIndex.Valid)
	assert.False(t, idx.gotIn.OldIndex.Valid)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "1231.35", data["new_rent"])
	assert.Equal(t, "2.61", data["increase_percentage"])
	assert.Equal(t, "2024-04-01", data["applied_from"])
}

func TestApplyIndexationErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid values", ledger.ErrInvalidIndexation, http.StatusUnprocessableEntity},
		{"lease not active", service.ErrLeaseNotActive, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(Deps{Indexation: &fakeIndexationAPI{err: tc.err}})
			rec, _ := do(t, router, http.MethodPost, "/leases/3/indexation", `{"new_index": 133.93}`)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestChangeLeaseStatus(t *testing.T) {
	leases := &fakeLeaseAPI{lease: domain.Lease{ID: 3, Status: domain.LeaseTerminated,
		CurrentRent: decimal.NewFromInt(800), Charges: decimal.NewFromInt(50)}}
	router := newTestRouter(Deps{Leases: leases})

	rec, resp := do(t, router, http.MethodPost, "/leases/3/status", `{"status": "terminated", "termination_reason": "moved out"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.LeaseTerminated, leases.got.Status)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "850.00", data["total_monthly_cost"])

	rec, _ = do(t, router, http.MethodPost, "/leases/3/status", `{"status": "archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeLeaseStatusInvalidTransition(t *testing.T) {
	router := newTestRouter(Deps{Leases: &fakeLeaseAPI{err: service.ErrInvalidTransition}})
	rec, _ := do(t, router, http.MethodPost, "/leases/3/status", `{"status": "active"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExpenses(t *testing.T) {
	expenses := &fakeExpenseAPI{}
	router := newTestRouter(Deps{Expenses: expenses})

	rec, resp := do(t, router, http.MethodGet, "/expenses/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "600.00", resp.Data.(map[string]interface{})["deductible_amount"])

	rec, _ = do(t, router, http.MethodGet, "/expenses/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, router, http.MethodGet, "/expenses/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, expenses.gotYear)

	rec, _ = do(t, router, http.MethodGet, "/expenses/summary?year=2023", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2023, expenses.gotYear)

	rec, _ = do(t, router, http.MethodGet, "/expenses/summary?year=soon", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportRoutes(t *testing.T) {
	exports := &fakeExportAPI{}
	router := newTestRouter(Deps{Exports: exports})

	rec, resp := do(t, router, http.MethodPost, "/export/rents", `{"fields": ["id", "status"], "lease_id": 3, "status": "late"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "exports:rents_1", resp.Data.(map[string]interface{})["export_id"])
	assert.Equal(t, []string{"id", "status"}, exports.gotFields)
	require.NotNil(t, exports.gotFilter.LeaseID)
	assert.Equal(t, int64(3), *exports.gotFilter.LeaseID)

	rec, _ = do(t, router, http.MethodPost, "/export/rents", `{"status": "overdue"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, router, http.MethodGet, "/export/rents_1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "exports:rents_1", exports.gotKey)

	rec, resp = do(t, router, http.MethodGet, "/export/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 1)
}

func TestServeMissingFile(t *testing.T) {
	router := newTestRouter(Deps{Files: fakeFiles{}})
	rec, _ := do(t, router, http.MethodGet, "/files/nope.xlsx", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
