package service

import (
	"context"
	"fmt"
	"time"

	"locagest/internal/domain"
	"locagest/internal/ledger"

	"github.com/sirupsen/logrus"
)

type LeaseTransition struct {
	Status          domain.LeaseStatus
	TerminationDate *time.Time
	Reason          *string
}

type LeaseService struct {
	tx     Transactor
	leases LeaseRepository
	events EventPublisher
	log    *logrus.Logger
}

func NewLeaseService(tx Transactor, leases LeaseRepository, events EventPublisher, log *logrus.Logger) *LeaseService {
	return &LeaseService{tx: tx, leases: leases, events: events, log: log}
}

// Transition moves a lease forward in its lifecycle. A terminated lease gets
// a termination date, today unless one is given.
func (s *LeaseService) Transition(ctx context.Context, ownerID, leaseID int64, t LeaseTransition, today time.Time) (domain.Lease, error) {
	if !t.Status.Valid() {
		return domain.Lease{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, t.Status)
	}

	var (
		lease    domain.Lease
		previous domain.LeaseStatus
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		lease, err = s.leases.GetForUpdate(ctx, leaseID)
		if err != nil {
			return mapNotFound(err)
		}
		if lease.OwnerID != ownerID {
			return ErrForbidden
		}
		previous = lease.Status
		if !previous.CanTransitionTo(t.Status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, previous, t.Status)
		}

		var (
			terminatedOn *time.Time
			reason       *string
		)
		if t.Status == domain.LeaseTerminated {
			d := ledger.Day(today)
			if t.TerminationDate != nil {
				d = ledger.Day(*t.TerminationDate)
			}
			terminatedOn = &d
			reason = t.Reason
		}
		if err := s.leases.UpdateStatus(ctx, leaseID, t.Status, terminatedOn, reason); err != nil {
			return fmt.Errorf("update lease status: %w", err)
		}
		lease.Status = t.Status
		lease.TerminationDate = terminatedOn
		lease.TerminationReason = reason
		return nil
	})
	if err != nil {
		return domain.Lease{}, err
	}

	s.log.WithFields(logrus.Fields{
		"lease_id": leaseID,
		"owner_id": ownerID,
		"from":     previous,
		"to":       lease.Status,
	}).Info("lease status changed")

	if s.events != nil {
		err := s.events.Publish(ctx, domain.EventLeaseStatusChanged, ownerID, map[string]any{
			"lease_id": leaseID,
			"from":     previous,
			"to":       lease.Status,
		})
		if err != nil {
			s.log.WithError(err).Warn("event not published")
		}
	}
	return lease, nil
}
