package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"locagest/internal/domain"
	"locagest/internal/ledger"
	"locagest/internal/repository"
	"locagest/internal/service"
	"locagest/internal/transport/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type RentAPI interface {
	GetRent(ctx context.Context, ownerID, rentID int64, today time.Time) (service.RentView, error)
	ListLeaseRents(ctx context.Context, ownerID, leaseID int64, today time.Time) ([]service.RentView, error)
	RecordPayment(ctx context.Context, ownerID, rentID int64, in service.PaymentInput, today time.Time) (service.RentView, domain.RentPayment, error)
	CancelRent(ctx context.Context, ownerID, rentID int64) (domain.Rent, error)
}

type IndexationAPI interface {
	Preview(ctx context.Context, ownerID, leaseID int64, in service.IndexationInput, today time.Time) (domain.RentRevision, error)
	Apply(ctx context.Context, ownerID, leaseID int64, in service.IndexationInput, today time.Time) (domain.RentRevision, error)
	ListRevisions(ctx context.Context, ownerID, leaseID int64) ([]domain.RentRevision, error)
}

type LeaseAPI interface {
	Transition(ctx context.Context, ownerID, leaseID int64, t service.LeaseTransition, today time.Time) (domain.Lease, error)
}

type ExpenseAPI interface {
	Get(ctx context.Context, ownerID, expenseID int64) (service.ExpenseView, error)
	Summary(ctx context.Context, ownerID int64, year int) (service.ExpenseSummary, error)
}

type PropertyAPI interface {
	Get(ctx context.Context, ownerID, propertyID int64) (domain.Property, error)
	List(ctx context.Context, ownerID int64) ([]domain.Property, error)
	Create(ctx context.Context, ownerID int64, in service.PropertyInput, today time.Time) (domain.Property, error)
	Update(ctx context.Context, ownerID, propertyID int64, in service.PropertyInput) (domain.Property, error)
	Delete(ctx context.Context, ownerID, propertyID int64) error
}

type TenantAPI interface {
	Get(ctx context.Context, ownerID, tenantID int64) (domain.Tenant, error)
	List(ctx context.Context, ownerID int64) ([]domain.Tenant, error)
	Create(ctx context.Context, ownerID int64, in service.TenantInput) (domain.Tenant, error)
	Update(ctx context.Context, ownerID, tenantID int64, in service.TenantInput) (domain.Tenant, error)
	Delete(ctx context.Context, ownerID, tenantID int64) error
}

type DashboardAPI interface {
	Stats(ctx context.Context, ownerID int64, today time.Time) (domain.DashboardStats, error)
}

type ExportAPI interface {
	StartRentsExport(ctx context.Context, selected []string, filter repository.RentsFilter, ownerID int64) (string, error)
	GetExports(ctx context.Context, ownerID int64) ([]service.ExportStatus, error)
	GetExport(ctx context.Context, exportID string, ownerID int64) (service.ExportStatus, error)
}

type FileOpener interface {
	Open(stored string) (path string, original string, err error)
}

type WebSocketHub interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request, ownerID int64)
}

// Deps gathers what the HTTP layer serves. Nil members leave their routes
// answering 503.
type Deps struct {
	Rents        RentAPI
	Indexation   IndexationAPI
	Leases       LeaseAPI
	Expenses     ExpenseAPI
	Properties   PropertyAPI
	Tenants      TenantAPI
	Dashboard    DashboardAPI
	Exports      ExportAPI
	Files        FileOpener
	Hub          WebSocketHub
	ExportPrefix string
	Location     *time.Location
	Log          *logrus.Logger
}

type Handler struct {
	Deps
	now func() time.Time
}

func NewHandler(d Deps) *Handler {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return &Handler{Deps: d, now: time.Now}
}

// today is the current calendar date in the configured timezone.
func (h *Handler) today() time.Time {
	return ledger.Day(h.now().In(h.Location))
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: h.Log, NoColor: true}),
		middleware.Recoverer,
	)

	r.Get("/health", h.health)
	r.Get("/files/{file}", h.serveFile)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Get("/ws", h.websocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/properties", func(r chi.Router) {
				r.Get("/", h.listProperties)
				r.Post("/", h.createProperty)
				r.Get("/{property_id}", h.getProperty)
				r.Put("/{property_id}", h.updateProperty)
				r.Delete("/{property_id}", h.deleteProperty)
			})

			r.Route("/tenants", func(r chi.Router) {
				r.Get("/", h.listTenants)
				r.Post("/", h.createTenant)
				r.Get("/{tenant_id}", h.getTenant)
				r.Put("/{tenant_id}", h.updateTenant)
				r.Delete("/{tenant_id}", h.deleteTenant)
			})

			r.Route("/leases/{lease_id}", func(r chi.Router) {
				r.Get("/rents", h.listLeaseRents)
				r.Post("/indexation/preview", h.previewIndexation)
				r.Post("/indexation", h.applyIndexation)
				r.Get("/revisions", h.listRevisions)
				r.Post("/status", h.changeLeaseStatus)
			})

			r.Route("/rents/{rent_id}", func(r chi.Router) {
				r.Get("/", h.getRent)
				r.Post("/payments", h.recordPayment)
				r.Post("/cancel", h.cancelRent)
			})

			r.Get("/expenses/summary", h.expenseSummary)
			r.Get("/expenses/{expense_id}", h.getExpense)

			r.Get("/dashboard/stats", h.dashboardStats)

			r.Route("/export", func(r chi.Router) {
				r.Get("/", h.listExports)
				r.Get("/{export_id}", h.getExport)
				r.Post("/rents", h.exportRents)
			})
		})
	})

	return r
}

// owner returns the authenticated owner, answering 401 when there is none.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	ownerID, err := auth.GetOwnerID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return 0, false
	}
	return ownerID, true
}

func unavailable(w http.ResponseWriter) {
	Error(w, "service unavailable", 503, http.StatusServiceUnavailable)
}

// fail maps an error from the service layer to a response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		ErrorBadRequest(w, verr.Error())
	case errors.Is(err, service.ErrNotFound):
		ErrorNotFound(w, "not found")
	case errors.Is(err, service.ErrForbidden):
		ErrorForbidden(w, "forbidden")
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrRentCancelled),
		errors.Is(err, service.ErrRentHasPayments),
		errors.Is(err, service.ErrLeaseNotActive),
		errors.Is(err, service.ErrEmailTaken):
		ErrorConflict(w, err.Error())
	case errors.Is(err, ledger.ErrInvalidIndexation),
		errors.Is(err, ledger.ErrPaidAmountDecreased),
		errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrHasActiveLeases),
		errors.Is(err, service.ErrTooManyRows):
		ErrorUnprocessable(w, err.Error())
	default:
		h.Log.WithError(err).WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		}).Error("request failed")
		ErrorInternal(w, "internal error")
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	Success(w, "ok", map[string]string{"time": h.now().UTC().Format(time.RFC3339)})
}
