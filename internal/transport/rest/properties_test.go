package rest

import (
	"context"
	"net/http"
	"testing"
	"time"

	"locagest/internal/domain"
	"locagest/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePropertyAPI struct {
	prop    domain.Property
	err     error
	gotIn   service.PropertyInput
	gotDay  time.Time
	deleted int64
}

func (f *fakePropertyAPI) Get(_ context.Context, _, id int64) (domain.Property, error) {
	if f.err != nil {
		return domain.Property{}, f.err
	}
	p := f.prop
	p.ID = id
	return p, nil
}

func (f *fakePropertyAPI) List(_ context.Context, _ int64) ([]domain.Property, error) {
	return []domain.Property{f.prop}, f.err
}

func (f *fakePropertyAPI) Create(_ context.Context, _ int64, in service.PropertyInput, today time.Time) (domain.Property, error) {
	f.gotIn = in
	f.gotDay = today
	return f.prop, f.err
}

func (f *fakePropertyAPI) Update(_ context.Context, _, _ int64, in service.PropertyInput) (domain.Property, error) {
	f.gotIn = in
	return f.prop, f.err
}

func (f *fakePropertyAPI) Delete(_ context.Context, _, id int64) error {
	f.deleted = id
	return f.err
}

type fakeTenantAPI struct {
	tenant domain.Tenant
	err    error
	gotIn  service.TenantInput
}

func (f *fakeTenantAPI) Get(_ context.Context, _, _ int64) (domain.Tenant, error) {
	return f.tenant, f.err
}

func (f *fakeTenantAPI) List(_ context.Context, _ int64) ([]domain.Tenant, error) {
	return []domain.Tenant{f.tenant}, f.err
}

func (f *fakeTenantAPI) Create(_ context.Context, _ int64, in service.TenantInput) (domain.Tenant, error) {
	f.gotIn = in
	return f.tenant, f.err
}

func (f *fakeTenantAPI) Update(_ context.Context, _, _ int64, in service.TenantInput) (domain.Tenant, error) {
	f.gotIn = in
	return f.tenant, f.err
}

func (f *fakeTenantAPI) Delete(_ context.Context, _, _ int64) error {
	return f.err
}

func sampleProperty() domain.Property {
	return domain.Property{
		ID:            4,
		OwnerID:       7,
		Reference:     "REF-2024-005",
		Name:          "Studio Gambetta",
		Type:          domain.PropertyApartment,
		Address:       "12 rue Gambetta",
		City:          "Lyon",
		PostalCode:    "69003",
		Country:       "FR",
		SurfaceArea:   decimal.RequireFromString("28.5"),
		RentAmount:    decimal.NewFromInt(650),
		ChargesAmount: decimal.NewFromInt(50),
		Status:        domain.PropertyAvailable,
	}
}

func TestCreateProperty(t *testing.T) {
	props := &fakePropertyAPI{prop: sampleProperty()}
	router := newTestRouter(Deps{Properties: props})

	rec, resp := do(t, router, http.MethodPost, "/properties", `{
		"name": "Studio Gambetta", "type": "apartment", "address": "12 rue Gambetta",
		"city": "Lyon", "postal_code": "69003", "surface_area": 28.5, "rent_amount": "650",
		"rooms": 1, "is_furnished": true, "energy_rating": "D"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "REF-2024-005", data["reference"])
	assert.Equal(t, "650.00", data["rent_amount"])
	assert.Equal(t, "28.50", data["surface_area"])

	require.NotNil(t, props.gotIn.Type)
	assert.Equal(t, domain.PropertyApartment, *props.gotIn.Type)
	assert.Equal(t, "28.5", props.gotIn.SurfaceArea.Decimal.String())
	assert.Equal(t, int64(1), *props.gotIn.Rooms)
	assert.True(t, *props.gotIn.IsFurnished)
	assert.Nil(t, props.gotIn.Status)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), props.gotDay)
}

func TestCreatePropertyValidation(t *testing.T) {
	base := `"name": "x", "type": "apartment", "address": "a", "city": "Lyon", "postal_code": "69003"`
	cases := map[string]string{
		"missing name":         `{"type": "apartment", "address": "a", "city": "Lyon", "postal_code": "69003", "surface_area": 20, "rent_amount": 500}`,
		"missing rent":         `{` + base + `, "surface_area": 20}`,
		"surface below one":    `{` + base + `, "surface_area": 0.5, "rent_amount": 500}`,
		"negative charges":     `{` + base + `, "surface_area": 20, "rent_amount": 500, "charges_amount": -1}`,
		"unknown type":         `{"name": "x", "type": "castle", "address": "a", "city": "Lyon", "postal_code": "1", "surface_area": 20, "rent_amount": 500}`,
		"energy rating":        `{` + base + `, "surface_area": 20, "rent_amount": 500, "energy_rating": "H"}`,
		"zero rooms":           `{` + base + `, "surface_area": 20, "rent_amount": 500, "rooms": 0}`,
		"furnished not a bool": `{` + base + `, "surface_area": 20, "rent_amount": 500, "is_furnished": 3}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			props := &fakePropertyAPI{}
			rec, _ := do(t, newTestRouter(Deps{Properties: props}), http.MethodPost, "/properties", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, props.gotIn.Name)
		})
	}
}

func TestUpdatePropertyPartial(t *testing.T) {
	props := &fakePropertyAPI{prop: sampleProperty()}
	rec, _ := do(t, newTestRouter(Deps{Properties: props}), http.MethodPut, "/properties/4", `{"status": "maintenance"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, props.gotIn.Status)
	assert.Equal(t, domain.PropertyMaintenance, *props.gotIn.Status)
	assert.Nil(t, props.gotIn.Name)
	assert.False(t, props.gotIn.RentAmount.Valid)
}

func TestListProperties(t *testing.T) {
	props := &fakePropertyAPI{prop: sampleProperty()}
	rec, resp := do(t, newTestRouter(Deps{Properties: props}), http.MethodGet, "/properties", "")

	require.Equal(t, http.StatusOK, rec.Code)
	items := resp.Data.([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "REF-2024-005", item["reference"])
	assert.Equal(t, "50.00", item["charges_amount"])
	assert.Equal(t, "0.00", item["deposit_amount"])
}

func TestDeletePropertyErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, http.StatusOK},
		{service.ErrHasActiveLeases, http.StatusUnprocessableEntity},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrNotFound, http.StatusNotFound},
	}
	for _, c := range cases {
		props := &fakePropertyAPI{err: c.err}
		rec, _ := do(t, newTestRouter(Deps{Properties: props}), http.MethodDelete, "/properties/9", "")
		assert.Equal(t, c.code, rec.Code, "%v", c.err)
		assert.Equal(t, int64(9), props.deleted)
	}
}

func TestPropertyRoutesWithoutService(t *testing.T) {
	rec, _ := do(t, newTestRouter(Deps{}), http.MethodGet, "/properties/4", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec, _ = do(t, newTestRouter(Deps{}), http.MethodGet, "/tenants", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateTenant(t *testing.T) {
	email := "claire@example.org"
	tenants := &fakeTenantAPI{tenant: domain.Tenant{ID: 12, FirstName: "Claire", LastName: "Dupont", Email: &email,
		MonthlyIncome: decimal.NewNullDecimal(decimal.NewFromInt(2400)), IsActive: true}}
	router := newTestRouter(Deps{Tenants: tenants})

	rec, resp := do(t, router, http.MethodPost, "/tenants", `{
		"first_name": "Claire", "last_name": "Dupont", "email": "claire@example.org",
		"phone": "0600000000", "birth_date": "1990-05-04", "monthly_income": 2400}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Claire Dupont", data["full_name"])
	assert.Equal(t, "2400.00", data["monthly_income"])
	assert.Equal(t, true, data["is_active"])

	assert.Equal(t, "1990-05-04", tenants.gotIn.BirthDate.Format(dateLayout))
	assert.Nil(t, tenants.gotIn.IsActive)
}

func TestCreateTenantValidation(t *testing.T) {
	cases := map[string]string{
		"missing phone":     `{"first_name": "A", "last_name": "B", "email": "a@b.fr"}`,
		"bad email":         `{"first_name": "A", "last_name": "B", "email": "not-an-email", "phone": "1"}`,
		"named email":       `{"first_name": "A", "last_name": "B", "email": "A <a@b.fr>", "phone": "1"}`,
		"born today":        `{"first_name": "A", "last_name": "B", "email": "a@b.fr", "phone": "1", "birth_date": "2024-03-10"}`,
		"negative income":   `{"first_name": "A", "last_name": "B", "email": "a@b.fr", "phone": "1", "monthly_income": -5}`,
		"nationality width": `{"first_name": "A", "last_name": "B", "email": "a@b.fr", "phone": "1", "nationality": "FRA"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec, _ := do(t, newTestRouter(Deps{Tenants: &fakeTenantAPI{}}), http.MethodPost, "/tenants", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTenantEmailConflict(t *testing.T) {
	tenants := &fakeTenantAPI{err: service.ErrEmailTaken}
	rec, resp := do(t, newTestRouter(Deps{Tenants: tenants}), http.MethodPut, "/tenants/3", `{"email": "claire@example.org"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 409, resp.ErrorCode)
}

func TestListTenants(t *testing.T) {
	tenants := &fakeTenantAPI{tenant: domain.Tenant{ID: 1, FirstName: "Claire", IsActive: true}}
	rec, resp := do(t, newTestRouter(Deps{Tenants: tenants}), http.MethodGet, "/tenants", "")

	require.Equal(t, http.StatusOK, rec.Code)
	items := resp.Data.([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "Claire", item["full_name"])
	assert.Nil(t, item["monthly_income"])
}
