package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"locagest/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type PropertyRepository interface {
	Get(ctx context.Context, id int64) (domain.Property, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Property, error)
	LockOwner(ctx context.Context, ownerID int64) error
	LastReference(ctx context.Context, ownerID int64) (string, error)
	Insert(ctx context.Context, p domain.Property) (domain.Property, error)
	Update(ctx context.Context, p domain.Property) error
	SoftDelete(ctx context.Context, id int64) error
	HasActiveLeases(ctx context.Context, propertyID int64) (bool, error)
}

// PropertyInput carries the fields a request sets. Nil members are left as
// they are.
type PropertyInput struct {
	Name              *string
	Type              *domain.PropertyType
	Address           *string
	AddressComplement *string
	City              *string
	PostalCode        *string
	Country           *string
	SurfaceArea       decimal.NullDecimal
	Rooms             *int64
	Bedrooms          *int64
	Floor             *int64
	Description       *string
	IsFurnished       *bool
	EnergyRating      *string
	RentAmount        decimal.NullDecimal
	ChargesAmount     decimal.NullDecimal
	DepositAmount     decimal.NullDecimal
	Status            *domain.PropertyStatus
}

func (in PropertyInput) apply(p *domain.Property) {
	setString(&p.Name, in.Name)
	if in.Type != nil {
		p.Type = *in.Type
	}
	setString(&p.Address, in.Address)
	if in.AddressComplement != nil {
		p.AddressComplement = in.AddressComplement
	}
	setString(&p.City, in.City)
	setString(&p.PostalCode, in.PostalCode)
	setString(&p.Country, in.Country)
	if in.SurfaceArea.Valid {
		p.SurfaceArea = in.SurfaceArea.Decimal
	}
	if in.Rooms != nil {
		p.Rooms = in.Rooms
	}
	if in.Bedrooms != nil {
		p.Bedrooms = in.Bedrooms
	}
	if in.Floor != nil {
		p.Floor = in.Floor
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.IsFurnished != nil {
		p.IsFurnished = *in.IsFurnished
	}
	if in.EnergyRating != nil {
		p.EnergyRating = in.EnergyRating
	}
	if in.RentAmount.Valid {
		p.RentAmount = in.RentAmount.Decimal
	}
	if in.ChargesAmount.Valid {
		p.ChargesAmount = in.ChargesAmount.Decimal
	}
	if in.DepositAmount.Valid {
		p.DepositAmount = in.DepositAmount.Decimal
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

type PropertyService struct {
	tx   Transactor
	repo PropertyRepository
	log  *logrus.Logger
}

func NewPropertyService(tx Transactor, repo PropertyRepository, log *logrus.Logger) *PropertyService {
	return &PropertyService{tx: tx, repo: repo, log: log}
}

func (s *PropertyService) Get(ctx context.Context, ownerID, propertyID int64) (domain.Property, error) {
	p, err := s.repo.Get(ctx, propertyID)
	if err != nil {
		return domain.Property{}, mapNotFound(err)
	}
	if p.OwnerID != ownerID {
		return domain.Property{}, ErrForbidden
	}
	return p, nil
}

func (s *PropertyService) List(ctx context.Context, ownerID int64) ([]domain.Property, error) {
	props, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return props, nil
}

// Create stores a new property under the next REF-<year>-<NNN> reference of
// its owner. Status defaults to available and country to FR.
func (s *PropertyService) Create(ctx context.Context, ownerID int64, in PropertyInput, today time.Time) (domain.Property, error) {
	p := domain.Property{
		OwnerID: ownerID,
		Type:    domain.PropertyApartment,
		Country: "FR",
		Status:  domain.PropertyAvailable,
	}
	in.apply(&p)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockOwner(ctx, ownerID); err != nil {
			return mapNotFound(err)
		}
		last, err := s.repo.LastReference(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("last reference: %w", err)
		}
		p.Reference = nextPropertyReference(last, today.Year())

		p, err = s.repo.Insert(ctx, p)
		if err != nil {
			return fmt.Errorf("insert property: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Property{}, err
	}

	s.log.WithFields(logrus.Fields{"property_id": p.ID, "reference": p.Reference, "owner_id": ownerID}).Info("property created")
	return p, nil
}

func (s *PropertyService) Update(ctx context.Context, ownerID, propertyID int64, in PropertyInput) (domain.Property, error) {
	p, err := s.Get(ctx, ownerID, propertyID)
	if err != nil {
		return domain.Property{}, err
	}
	in.apply(&p)
	if err := s.repo.Update(ctx, p); err != nil {
		return domain.Property{}, mapNotFound(err)
	}
	return p, nil
}

// Delete soft-deletes a property. One still under an active lease is kept.
func (s *PropertyService) Delete(ctx context.Context, ownerID, propertyID int64) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, ownerID, propertyID); err != nil {
			return err
		}
		busy, err := s.repo.HasActiveLeases(ctx, propertyID)
		if err != nil {
			return fmt.Errorf("active leases: %w", err)
		}
		if busy {
			return ErrHasActiveLeases
		}
		if err := s.repo.SoftDelete(ctx, propertyID); err != nil {
			return mapNotFound(err)
		}
		s.log.WithFields(logrus.Fields{"property_id": propertyID, "owner_id": ownerID}).Info("property deleted")
		return nil
	})
}

// nextPropertyReference numbers on from the suffix of the owner's last
// reference, whatever year it carries.
func nextPropertyReference(last string, year int) string {
	next := 1
	if i := strings.LastIndex(last, "-"); i >= 0 {
		if n, err := strconv.Atoi(last[i+1:]); err == nil && n >= 0 {
			next = n + 1
		}
	}
	return fmt.Sprintf("REF-%d-%03d", year, next)
}
