package service

import (
	"context"
	"fmt"
	"time"

	"locagest/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type TenantRepository interface {
	Get(ctx context.Context, id int64) (domain.Tenant, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Tenant, error)
	EmailTaken(ctx context.Context, ownerID int64, email string, exceptID int64) (bool, error)
	Insert(ctx context.Context, t domain.Tenant) (domain.Tenant, error)
	Update(ctx context.Context, t domain.Tenant) error
	SoftDelete(ctx context.Context, id int64) error
	HasActiveLeases(ctx context.Context, tenantID int64) (bool, error)
}

type TenantInput struct {
	FirstName     *string
	LastName      *string
	Email         *string
	Phone         *string
	BirthDate     *time.Time
	Nationality   *string
	Profession    *string
	Employer      *string
	MonthlyIncome decimal.NullDecimal
	Notes         *string
	IsActive      *bool
}

func (in TenantInput) apply(t *domain.Tenant) {
	setString(&t.FirstName, in.FirstName)
	setString(&t.LastName, in.LastName)
	if in.Email != nil {
		t.Email = in.Email
	}
	if in.Phone != nil {
		t.Phone = in.Phone
	}
	if in.BirthDate != nil {
		t.BirthDate = in.BirthDate
	}
	if in.Nationality != nil {
		t.Nationality = in.Nationality
	}
	if in.Profession != nil {
		t.Profession = in.Profession
	}
	if in.Employer != nil {
		t.Employer = in.Employer
	}
	if in.MonthlyIncome.Valid {
		t.MonthlyIncome = in.MonthlyIncome
	}
	if in.Notes != nil {
		t.Notes = in.Notes
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
}

type TenantService struct {
	tx   Transactor
	repo TenantRepository
	log  *logrus.Logger
}

func NewTenantService(tx Transactor, repo TenantRepository, log *logrus.Logger) *TenantService {
	return &TenantService{tx: tx, repo: repo, log: log}
}

func (s *TenantService) Get(ctx context.Context, ownerID, tenantID int64) (domain.Tenant, error) {
	t, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return domain.Tenant{}, mapNotFound(err)
	}
	if t.OwnerID != ownerID {
		return domain.Tenant{}, ErrForbidden
	}
	return t, nil
}

func (s *TenantService) List(ctx context.Context, ownerID int64) ([]domain.Tenant, error) {
	tenants, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}

// Create stores an active tenant unless the request says otherwise. An email
// may be used by one live tenant per owner.
func (s *TenantService) Create(ctx context.Context, ownerID int64, in TenantInput) (domain.Tenant, error) {
	t := domain.Tenant{OwnerID: ownerID, IsActive: true}
	in.apply(&t)

	if err := s.checkEmail(ctx, ownerID, t.Email, 0); err != nil {
		return domain.Tenant{}, err
	}
	t, err := s.repo.Insert(ctx, t)
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("insert tenant: %w", err)
	}

	s.log.WithFields(logrus.Fields{"tenant_id": t.ID, "owner_id": ownerID}).Info("tenant created")
	return t, nil
}

func (s *TenantService) Update(ctx context.Context, ownerID, tenantID int64, in TenantInput) (domain.Tenant, error) {
	t, err := s.Get(ctx, ownerID, tenantID)
	if err != nil {
		return domain.Tenant{}, err
	}
	if in.Email != nil {
		if err := s.checkEmail(ctx, ownerID, in.Email, tenantID); err != nil {
			return domain.Tenant{}, err
		}
	}
	in.apply(&t)
	if err := s.repo.Update(ctx, t); err != nil {
		return domain.Tenant{}, mapNotFound(err)
	}
	return t, nil
}

// Delete soft-deletes a tenant. One still party to an active lease is kept.
func (s *TenantService) Delete(ctx context.Context, ownerID, tenantID int64) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, ownerID, tenantID); err != nil {
			return err
		}
		busy, err := s.repo.HasActiveLeases(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("active leases: %w", err)
		}
		if busy {
			return ErrHasActiveLeases
		}
		if err := s.repo.SoftDelete(ctx, tenantID); err != nil {
			return mapNotFound(err)
		}
		s.log.WithFields(logrus.Fields{"tenant_id": tenantID, "owner_id": ownerID}).Info("tenant deleted")
		return nil
	})
}

func (s *TenantService) checkEmail(ctx context.Context, ownerID int64, email *string, exceptID int64) error {
	if email == nil || *email == "" {
		return nil
	}
	taken, err := s.repo.EmailTaken(ctx, ownerID, *email, exceptID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}
