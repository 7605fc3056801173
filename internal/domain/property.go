package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PropertyStatus string

const (
	PropertyAvailable   PropertyStatus = "available"
	PropertyRented      PropertyStatus = "rented"
	PropertyMaintenance PropertyStatus = "maintenance"
	PropertyReserved    PropertyStatus = "reserved"
	PropertySold        PropertyStatus = "sold"
	PropertyDraft       PropertyStatus = "draft"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyAvailable, PropertyRented, PropertyMaintenance, PropertyReserved, PropertySold, PropertyDraft:
		return true
	}
	return false
}

type PropertyType string

const (
	PropertyApartment  PropertyType = "apartment"
	PropertyHouse      PropertyType = "house"
	PropertyCommercial PropertyType = "commercial"
	PropertyParking    PropertyType = "parking"
	PropertyLand       PropertyType = "land"
	PropertyOffice     PropertyType = "office"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyApartment, PropertyHouse, PropertyCommercial, PropertyParking, PropertyLand, PropertyOffice:
		return true
	}
	return false
}

type Property struct {
	ID        int64
	OwnerID   int64
	Reference string
	Name      string
	Type      PropertyType

	Address           string
	AddressComplement *string
	City              string
	PostalCode        string
	Country           string

	SurfaceArea  decimal.Decimal
	Rooms        *int64
	Bedrooms     *int64
	Floor        *int64
	Description  *string
	IsFurnished  bool
	EnergyRating *string

	RentAmount    decimal.Decimal
	ChargesAmount decimal.Decimal
	DepositAmount decimal.Decimal

	Status    PropertyStatus
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

type Tenant struct {
	ID        int64
	OwnerID   int64
	FirstName string
	LastName  string
	Email     *string
	Phone     *string

	BirthDate     *time.Time
	Nationality   *string
	Profession    *string
	Employer      *string
	MonthlyIncome decimal.NullDecimal
	Notes         *string

	IsActive  bool
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

func (t Tenant) FullName() string {
	if t.LastName == "" {
		return t.FirstName
	}
	return t.FirstName + " " + t.LastName
}
