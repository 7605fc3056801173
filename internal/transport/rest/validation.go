package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"locagest/internal/domain"
	"locagest/internal/repository"
	"locagest/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &ValidationError{Message: "invalid JSON"}
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &ValidationError{Field: name, Message: name + " must be a positive integer"}
	}
	return id, nil
}

func toStringPtr(v interface{}) (*string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if t == "" {
			return nil, nil
		}
		return &t, nil
	case json.Number:
		s := t.String()
		return &s, nil
	default:
		return nil, &ValidationError{Message: "invalid type for string field"}
	}
}

func toInt64Ptr(v interface{}) (*int64, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return nil, err
		}
		return &i, nil
	case string:
		if t == "" {
			return nil, nil
		}
		i, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return nil, err
		}
		return &i, nil
	default:
		return nil, &ValidationError{Message: "invalid type for int field"}
	}
}

func toDatePtr(v interface{}) (*time.Time, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if t == "" {
			return nil, nil
		}
		parsed, err := time.Parse("2006-01-02", t)
		if err != nil {
			return nil, err
		}
		return &parsed, nil
	default:
		return nil, &ValidationError{Message: "invalid type for date field"}
	}
}

// toDecimal accepts a JSON number or a numeric string. Money is never read
// through float64.
func toDecimal(v interface{}) (decimal.NullDecimal, error) {
	var s string
	switch t := v.(type) {
	case nil:
		return decimal.NullDecimal{}, nil
	case json.Number:
		s = t.String()
	case string:
		if t == "" {
			return decimal.NullDecimal{}, nil
		}
		s = t
	default:
		return decimal.NullDecimal{}, &ValidationError{Message: "invalid type for decimal field"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

type rawPaymentRequest struct {
	Amount               interface{} `json:"amount"`
	PaymentDate          interface{} `json:"payment_date"`
	Method               interface{} `json:"payment_method"`
	TransactionReference interface{} `json:"transaction_reference"`
	BankName             interface{} `json:"bank_name"`
	Notes                interface{} `json:"notes"`
}

func ValidatePaymentRequest(r *http.Request) (service.PaymentInput, error) {
	var raw rawPaymentRequest
	if err := decodeBody(r, &raw); err != nil {
		return service.PaymentInput{}, err
	}

	amount, err := toDecimal(raw.Amount)
	if err != nil || !amount.Valid {
		return service.PaymentInput{}, &ValidationError{Field: "amount", Message: "amount is required and must be a decimal"}
	}
	if !amount.Decimal.IsPositive() {
		return service.PaymentInput{}, &ValidationError{Field: "amount", Message: "amount must be greater than 0"}
	}

	paymentDate, err := toDatePtr(raw.PaymentDate)
	if err != nil {
		return service.PaymentInput{}, &ValidationError{Field: "payment_date", Message: "payment_date must be YYYY-MM-DD or empty"}
	}

	method, err := toStringPtr(raw.Method)
	if err != nil {
		return service.PaymentInput{}, &ValidationError{Field: "payment_method", Message: "payment_method must be a string"}
	}
	in := service.PaymentInput{Amount: amount.Decimal}
	if method != nil {
		in.Method = domain.PaymentMethod(*method)
		if !in.Method.Valid() {
			return service.PaymentInput{}, &ValidationError{Field: "payment_method", Message: "payment_method is not supported"}
		}
	}
	if paymentDate != nil {
		in.PaymentDate = *paymentDate
	}

	fields := []struct {
		name string
		raw  interface{}
		dst  **string
	}{
		{"transaction_reference", raw.TransactionReference, &in.TransactionReference},
		{"bank_name", raw.BankName, &in.BankName},
		{"notes", raw.Notes, &in.Notes},
	}
	for _, f := range fields {
		v, err := toStringPtr(f.raw)
		if err != nil {
			return service.PaymentInput{}, &ValidationError{Field: f.name, Message: f.name + " must be a string"}
		}
		*f.dst = v
	}
	return in, nil
}

type rawIndexationRequest struct {
	OldIndex      interface{} `json:"old_index"`
	NewIndex      interface{} `json:"new_index"`
	EffectiveDate interface{} `json:"effective_date"`
	Notes         interface{} `json:"notes"`
}

func ValidateIndexationRequest(r *http.Request) (service.IndexationInput, error) {
	var raw rawIndexationRequest
	if err := decodeBody(r, &raw); err != nil {
		return service.IndexationInput{}, err
	}

	oldIndex, err := toDecimal(raw.OldIndex)
	if err != nil {
		return service.IndexationInput{}, &ValidationError{Field: "old_index", Message: "old_index must be a decimal"}
	}
	newIndex, err := toDecimal(raw.NewIndex)
	if err != nil {
		return service.IndexationInput{}, &ValidationError{Field: "new_index", Message: "new_index must be a decimal"}
	}
	effective, err := toDatePtr(raw.EffectiveDate)
	if err != nil {
		return service.IndexationInput{}, &ValidationError{Field: "effective_date", Message: "effective_date must be YYYY-MM-DD or empty"}
	}
	notes, err := toStringPtr(raw.Notes)
	if err != nil {
		return service.IndexationInput{}, &ValidationError{Field: "notes", Message: "notes must be a string"}
	}

	in := service.IndexationInput{OldIndex: oldIndex, NewIndex: newIndex, Notes: notes}
	if effective != nil {
		in.EffectiveDate = *effective
	}
	return in, nil
}

type rawStatusRequest struct {
	Status            interface{} `json:"status"`
	TerminationDate   interface{} `json:"termination_date"`
	TerminationReason interface{} `json:"termination_reason"`
}

func ValidateStatusRequest(r *http.Request) (service.LeaseTransition, error) {
	var raw rawStatusRequest
	if err := decodeBody(r, &raw); err != nil {
		return service.LeaseTransition{}, err
	}

	status, err := toStringPtr(raw.Status)
	if err != nil || status == nil || !domain.LeaseStatus(*status).Valid() {
		return service.LeaseTransition{}, &ValidationError{Field: "status", Message: "status must be one of draft, active, terminated, suspended"}
	}
	date, err := toDatePtr(raw.TerminationDate)
	if err != nil {
		return service.LeaseTransition{}, &ValidationError{Field: "termination_date", Message: "termination_date must be YYYY-MM-DD or empty"}
	}
	reason, err := toStringPtr(raw.TerminationReason)
	if err != nil {
		return service.LeaseTransition{}, &ValidationError{Field: "termination_reason", Message: "termination_reason must be a string"}
	}

	return service.LeaseTransition{Status: domain.LeaseStatus(*status), TerminationDate: date, Reason: reason}, nil
}

type RentsExportRequest struct {
	Fields []string
	Filter repository.RentsFilter
}

type rawRentsExportRequest struct {
	Fields     []string    `json:"fields"`
	LeaseID    interface{} `json:"lease_id"`
	PropertyID interface{} `json:"property_id"`
	Status     interface{} `json:"status"`
	PeriodFrom interface{} `json:"period_start_date"`
	PeriodTo   interface{} `json:"period_end_date"`
}

func ValidateRentsExportRequest(r *http.Request) (*RentsExportRequest, error) {
	var raw rawRentsExportRequest
	if err := decodeBody(r, &raw); err != nil {
		return nil, err
	}

	leaseID, err := toInt64Ptr(raw.LeaseID)
	if err != nil {
		return nil, &ValidationError{Field: "lease_id", Message: "lease_id must be integer or empty"}
	}
	propertyID, err := toInt64Ptr(raw.PropertyID)
	if err != nil {
		return nil, &ValidationError{Field: "property_id", Message: "property_id must be integer or empty"}
	}
	statusStr, err := toStringPtr(raw.Status)
	if err != nil {
		return nil, &ValidationError{Field: "status", Message: "status must be string or empty"}
	}
	var status *domain.RentStatus
	if statusStr != nil {
		s := domain.RentStatus(*statusStr)
		if !s.Valid() {
			return nil, &ValidationError{Field: "status", Message: "status is not a rent status"}
		}
		status = &s
	}
	from, err := toDatePtr(raw.PeriodFrom)
	if err != nil {
		return nil, &ValidationError{Field: "period_start_date", Message: "period_start_date must be YYYY-MM-DD or empty"}
	}
	to, err := toDatePtr(raw.PeriodTo)
	if err != nil {
		return nil, &ValidationError{Field: "period_end_date", Message: "period_end_date must be YYYY-MM-DD or empty"}
	}

	return &RentsExportRequest{
		Fields: raw.Fields,
		Filter: repository.RentsFilter{
			LeaseID:    leaseID,
			PropertyID: propertyID,
			Status:     status,
			PeriodFrom: from,
			PeriodTo:   to,
		},
	}, nil
}

func toBoolPtr(v interface{}) (*bool, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return &t, nil
	case string:
		if t == "" {
			return nil, nil
		}
		b, err := strconv.ParseBool(t)
		if err != nil {
			return nil, err
		}
		return &b, nil
	default:
		return nil, &ValidationError{Message: "invalid type for bool field"}
	}
}

type stringRule struct {
	name     string
	raw      interface{}
	dst      **string
	required bool
	max      int
}

func checkStrings(rules []stringRule) error {
	for _, f := range rules {
		v, err := toStringPtr(f.raw)
		if err != nil {
			return &ValidationError{Field: f.name, Message: f.name + " must be a string"}
		}
		if v == nil && f.required {
			return &ValidationError{Field: f.name, Message: f.name + " is required"}
		}
		if v != nil && f.max > 0 && utf8.RuneCountInString(*v) > f.max {
			return &ValidationError{Field: f.name, Message: fmt.Sprintf("%s must be at most %d characters", f.name, f.max)}
		}
		*f.dst = v
	}
	return nil
}

// boundedDecimal parses a decimal that must be at least least when present.
func boundedDecimal(name string, raw interface{}, least decimal.Decimal, required bool) (decimal.NullDecimal, error) {
	d, err := toDecimal(raw)
	if err != nil {
		return decimal.NullDecimal{}, &ValidationError{Field: name, Message: name + " must be a decimal"}
	}
	if !d.Valid && required {
		return decimal.NullDecimal{}, &ValidationError{Field: name, Message: name + " is required"}
	}
	if d.Valid && d.Decimal.LessThan(least) {
		return decimal.NullDecimal{}, &ValidationError{Field: name, Message: fmt.Sprintf("%s must be at least %s", name, least)}
	}
	return d, nil
}

func boundedInt(name string, raw interface{}, least *int64) (*int64, error) {
	v, err := toInt64Ptr(raw)
	if err != nil {
		return nil, &ValidationError{Field: name, Message: name + " must be an integer"}
	}
	if v != nil && least != nil && *v < *least {
		return nil, &ValidationError{Field: name, Message: fmt.Sprintf("%s must be at least %d", name, *least)}
	}
	return v, nil
}

type rawPropertyRequest struct {
	Name              interface{} `json:"name"`
	Type              interface{} `json:"type"`
	Address           interface{} `json:"address"`
	AddressComplement interface{} `json:"address_complement"`
	City              interface{} `json:"city"`
	PostalCode        interface{} `json:"postal_code"`
	Country           interface{} `json:"country"`
	SurfaceArea       interface{} `json:"surface_area"`
	Rooms             interface{} `json:"rooms"`
	Bedrooms          interface{} `json:"bedrooms"`
	Floor             interface{} `json:"floor"`
	Description       interface{} `json:"description"`
	IsFurnished       interface{} `json:"is_furnished"`
	EnergyRating      interface{} `json:"energy_rating"`
	RentAmount        interface{} `json:"rent_amount"`
	ChargesAmount     interface{} `json:"charges_amount"`
	DepositAmount     interface{} `json:"deposit_amount"`
	Status            interface{} `json:"status"`
}

// ValidatePropertyRequest reads a property body. On create the identifying,
// address, surface and rent fields are required; on update every field is
// optional.
func ValidatePropertyRequest(r *http.Request, create bool) (service.PropertyInput, error) {
	var raw rawPropertyRequest
	if err := decodeBody(r, &raw); err != nil {
		return service.PropertyInput{}, err
	}

	var in service.PropertyInput
	var kind, status *string
	zero, one := int64(0), int64(1)
	err := checkStrings([]stringRule{
		{"name", raw.Name, &in.Name, create, 255},
		{"type", raw.Type, &kind, create, 0},
		{"address", raw.Address, &in.Address, create, 255},
		{"address_complement", raw.AddressComplement, &in.AddressComplement, false, 255},
		{"city", raw.City, &in.City, create, 100},
		{"postal_code", raw.PostalCode, &in.PostalCode, create, 20},
		{"country", raw.Country, &in.Country, false, 100},
		{"description", raw.Description, &in.Description, false, 0},
		{"energy_rating", raw.EnergyRating, &in.EnergyRating, false, 1},
		{"status", raw.Status, &status, false, 0},
	})
	if err != nil {
		return service.PropertyInput{}, err
	}

	if kind != nil {
		t := domain.PropertyType(*kind)
		if !t.Valid() {
			return service.PropertyInput{}, &ValidationError{Field: "type", Message: "type must be one of apartment, house, commercial, parking, land, office"}
		}
		in.Type = &t
	}
	if status != nil {
		s := domain.PropertyStatus(*status)
		if !s.Valid() {
			return service.PropertyInput{}, &ValidationError{Field: "status", Message: "status is not a property status"}
		}
		in.Status = &s
	}
	if in.EnergyRating != nil && !strings.Contains("ABCDEFG", *in.EnergyRating) {
		return service.PropertyInput{}, &ValidationError{Field: "energy_rating", Message: "energy_rating must be a letter from A to G"}
	}

	if in.SurfaceArea, err = boundedDecimal("surface_area", raw.SurfaceArea, decimal.NewFromInt(1), create); err != nil {
		return service.PropertyInput{}, err
	}
	if in.RentAmount, err = boundedDecimal("rent_amount", raw.RentAmount, decimal.Zero, create); err != nil {
		return service.PropertyInput{}, err
	}
	if in.ChargesAmount, err = boundedDecimal("charges_amount", raw.ChargesAmount, decimal.Zero, false); err != nil {
		return service.PropertyInput{}, err
	}
	if in.DepositAmount, err = boundedDecimal("deposit_amount", raw.DepositAmount, decimal.Zero, false); err != nil {
		return service.PropertyInput{}, err
	}

	if in.Rooms, err = boundedInt("rooms", raw.Rooms, &one); err != nil {
		return service.PropertyInput{}, err
	}
	if in.Bedrooms, err = boundedInt("bedrooms", raw.Bedrooms, &zero); err != nil {
		return service.PropertyInput{}, err
	}
	if in.Floor, err = boundedInt("floor", raw.Floor, nil); err != nil {
		return service.PropertyInput{}, err
	}
	if in.IsFurnished, err = toBoolPtr(raw.IsFurnished); err != nil {
		return service.PropertyInput{}, &ValidationError{Field: "is_furnished", Message: "is_furnished must be a boolean"}
	}
	return in, nil
}

type rawTenantRequest struct {
	FirstName     interface{} `json:"first_name"`
	LastName      interface{} `json:"last_name"`
	Email         interface{} `json:"email"`
	Phone         interface{} `json:"phone"`
	BirthDate     interface{} `json:"birth_date"`
	Nationality   interface{} `json:"nationality"`
	Profession    interface{} `json:"profession"`
	Employer      interface{} `json:"employer"`
	MonthlyIncome interface{} `json:"monthly_income"`
	Notes         interface{} `json:"notes"`
	IsActive      interface{} `json:"is_active"`
}

// ValidateTenantRequest reads a tenant body. Names, email and phone are
// required on create. A birth date must lie before today.
func ValidateTenantRequest(r *http.Request, create bool, today time.Time) (service.TenantInput, error) {
	var raw rawTenantRequest
	if err := decodeBody(r, &raw); err != nil {
		return service.TenantInput{}, err
	}

	var in service.TenantInput
	err := checkStrings([]stringRule{
		{"first_name", raw.FirstName, &in.FirstName, create, 100},
		{"last_name", raw.LastName, &in.LastName, create, 100},
		{"email", raw.Email, &in.Email, create, 255},
		{"phone", raw.Phone, &in.Phone, create, 20},
		{"nationality", raw.Nationality, &in.Nationality, false, 2},
		{"profession", raw.Profession, &in.Profession, false, 100},
		{"employer", raw.Employer, &in.Employer, false, 255},
		{"notes", raw.Notes, &in.Notes, false, 0},
	})
	if err != nil {
		return service.TenantInput{}, err
	}

	if in.Email != nil {
		addr, err := mail.ParseAddress(*in.Email)
		if err != nil || addr.Address != *in.Email {
			return service.TenantInput{}, &ValidationError{Field: "email", Message: "email must be a valid address"}
		}
	}

	if in.BirthDate, err = toDatePtr(raw.BirthDate); err != nil {
		return service.TenantInput{}, &ValidationError{Field: "birth_date", Message: "birth_date must be YYYY-MM-DD or empty"}
	}
	if in.BirthDate != nil && !in.BirthDate.Before(today) {
		return service.TenantInput{}, &ValidationError{Field: "birth_date", Message: "birth_date must be before today"}
	}
	if in.MonthlyIncome, err = boundedDecimal("monthly_income", raw.MonthlyIncome, decimal.Zero, false); err != nil {
		return service.TenantInput{}, err
	}
	if in.IsActive, err = toBoolPtr(raw.IsActive); err != nil {
		return service.TenantInput{}, &ValidationError{Field: "is_active", Message: "is_active must be a boolean"}
	}
	return in, nil
}
