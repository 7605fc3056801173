package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"locagest/internal/domain"
	"locagest/internal/integrations/insee"
	"locagest/internal/ledger"
	"locagest/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type IndexSource interface {
	LatestIndex(ctx context.Context) (insee.IndexValue, error)
}

// IndexationInput describes a requested revision. A missing NewIndex is read
// from the index feed; a missing OldIndex comes from the lease history.
type IndexationInput struct {
	OldIndex      decimal.NullDecimal
	NewIndex      decimal.NullDecimal
	EffectiveDate time.Time
	Notes         *string
}

type IndexationService struct {
	tx        Transactor
	leases    LeaseRepository
	revisions RentRevisionRepository
	index     IndexSource
	reference string
	notifier  Notifier
	events    EventPublisher
	log       *logrus.Logger
}

func NewIndexationService(
	tx Transactor,
	leases LeaseRepository,
	revisions RentRevisionRepository,
	index IndexSource,
	reference string,
	notifier Notifier,
	events EventPublisher,
	log *logrus.Logger,
) *IndexationService {
	return &IndexationService{
		tx:        tx,
		leases:    leases,
		revisions: revisions,
		index:     index,
		reference: reference,
		notifier:  notifier,
		events:    events,
		log:       log,
	}
}

// baseIndex is the index the lease rent was last set against: the new index
// of its latest revision, else the value at signing.
func (s *IndexationService) baseIndex(ctx context.Context, lease domain.Lease) (decimal.Decimal, error) {
	latest, err := s.revisions.Latest(ctx, lease.ID)
	switch {
	case err == nil:
		return latest.NewIndex, nil
	case !errors.Is(err, repository.ErrNotFound):
		return decimal.Zero, fmt.Errorf("latest revision: %w", err)
	}
	if lease.IndexationBaseValue.Valid {
		return lease.IndexationBaseValue.Decimal, nil
	}
	return decimal.Zero, fmt.Errorf("%w: lease %d has no base index", ledger.ErrInvalidIndexation, lease.ID)
}

func (s *IndexationService) newIndex(ctx context.Context, in IndexationInput) (decimal.Decimal, string, error) {
	if in.NewIndex.Valid {
		return in.NewIndex.Decimal, "", nil
	}
	if s.index == nil {
		return decimal.Zero, "", fmt.Errorf("%w: new index is required", ledger.ErrInvalidIndexation)
	}
	v, err := s.index.LatestIndex(ctx)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("fetch reference index: %w", err)
	}
	return v.Value, v.Period, nil
}

func (s *IndexationService) propose(ctx context.Context, lease domain.Lease, in IndexationInput, newIndex decimal.Decimal, period string, today time.Time) (domain.RentRevision, error) {
	oldIndex := in.OldIndex.Decimal
	if !in.OldIndex.Valid {
		var err error
		if oldIndex, err = s.baseIndex(ctx, lease); err != nil {
			return domain.RentRevision{}, err
		}
	}

	effective := in.EffectiveDate
	if effective.IsZero() {
		effective = today
	}
	rev, err := ledger.ComputeIndexation(lease.CurrentRent, oldIndex, newIndex, effective)
	if err != nil {
		return domain.RentRevision{}, err
	}

	rev.LeaseID = lease.ID
	rev.RevisionDate = ledger.Day(today)
	rev.Notes = in.Notes
	ref := s.reference
	if lease.IndexationReference != nil && *lease.IndexationReference != "" {
		ref = *lease.IndexationReference
	}
	if period != "" {
		ref = fmt.Sprintf("%s %s", ref, period)
	}
	if ref != "" {
		rev.IndexationReference = &ref
	}
	return rev, nil
}

func (s *IndexationService) ownedLease(ctx context.Context, ownerID, leaseID int64, lock bool) (domain.Lease, error) {
	get := s.leases.Get
	if lock {
		get = s.leases.GetForUpdate
	}
	lease, err := get(ctx, leaseID)
	if err != nil {
		return domain.Lease{}, mapNotFound(err)
	}
	if lease.OwnerID != ownerID {
		return domain.Lease{}, ErrForbidden
	}
	return lease, nil
}

// Preview computes the revision Apply would record, without storing anything.
func (s *IndexationService) Preview(ctx context.Context, ownerID, leaseID int64, in IndexationInput, today time.Time) (domain.RentRevision, error) {
	lease, err := s.ownedLease(ctx, ownerID, leaseID, false)
	if err != nil {
		return domain.RentRevision{}, err
	}
	newIndex, period, err := s.newIndex(ctx, in)
	if err != nil {
		return domain.RentRevision{}, err
	}
	return s.propose(ctx, lease, in, newIndex, period, today)
}

// Apply records a revision and moves the lease to its new rent.
func (s *IndexationService) Apply(ctx context.Context, ownerID, leaseID int64, in IndexationInput, today time.Time) (domain.RentRevision, error) {
	newIndex, period, err := s.newIndex(ctx, in)
	if err != nil {
		return domain.RentRevision{}, err
	}

	var rev domain.RentRevision
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		lease, err := s.ownedLease(ctx, ownerID, leaseID, true)
		if err != nil {
			return err
		}
		if lease.Status != domain.LeaseActive {
			return ErrLeaseNotActive
		}

		proposed, err := s.propose(ctx, lease, in, newIndex, period, today)
		if err != nil {
			return err
		}
		if rev, err = s.revisions.Insert(ctx, proposed); err != nil {
			return fmt.Errorf("insert revision: %w", err)
		}
		if err := s.leases.UpdateRent(ctx, lease.ID, rev.NewRent, rev.AppliedFrom); err != nil {
			return fmt.Errorf("update lease rent: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.RentRevision{}, err
	}

	s.log.WithFields(logrus.Fields{
		"lease_id":    leaseID,
		"revision_id": rev.ID,
		"old_rent":    rev.OldRent.StringFixed(2),
		"new_rent":    rev.NewRent.StringFixed(2),
	}).Info("rent revision applied")

	if s.notifier != nil {
		if err := s.notifier.NotifyRevisionApplied(ctx, ownerID, rev); err != nil {
			s.log.WithError(err).WithField("lease_id", leaseID).Warn("revision notification failed")
		}
	}
	if s.events != nil {
		err := s.events.Publish(ctx, domain.EventRevisionApplied, ownerID, map[string]any{
			"lease_id":            rev.LeaseID,
			"revision_id":         rev.ID,
			"old_rent":            rev.OldRent.StringFixed(2),
			"new_rent":            rev.NewRent.StringFixed(2),
			"increase_percentage": rev.IncreasePercentage.StringFixed(2),
			"applied_from":        rev.AppliedFrom.Format("2006-01-02"),
		})
		if err != nil {
			s.log.WithError(err).Warn("event not published")
		}
	}
	return rev, nil
}

func (s *IndexationService) ListRevisions(ctx context.Context, ownerID, leaseID int64) ([]domain.RentRevision, error) {
	if _, err := s.ownedLease(ctx, ownerID, leaseID, false); err != nil {
		return nil, err
	}
	revs, err := s.revisions.ListByLease(ctx, leaseID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	return revs, nil
}
