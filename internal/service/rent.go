package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"locagest/internal/domain"
	"locagest/internal/ledger"
	"locagest/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrRentHasPayments = errors.New("rent already has payments")

// RentView is a rent as seen on a given day.
type RentView struct {
	Rent     domain.Rent
	DaysLate int
	Payments []domain.RentPayment
}

type PaymentInput struct {
	Amount               decimal.Decimal
	PaymentDate          time.Time
	Method               domain.PaymentMethod
	TransactionReference *string
	BankName             *string
	Notes                *string
	CreatedBy            *int64
}

type SweepResult struct {
	Checked  int `json:"checked"`
	Updated  int `json:"updated"`
	Late     int `json:"late"`
	Reminded int `json:"reminded"`
}

type GenerateResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type RentService struct {
	tx       Transactor
	leases   LeaseRepository
	rents    RentRepository
	payments RentPaymentRepository
	notifier Notifier
	events   EventPublisher
	mailer   ReminderSender
	log      *logrus.Logger
}

func NewRentService(
	tx Transactor,
	leases LeaseRepository,
	rents RentRepository,
	payments RentPaymentRepository,
	notifier Notifier,
	events EventPublisher,
	mailer ReminderSender,
	log *logrus.Logger,
) *RentService {
	return &RentService{
		tx:       tx,
		leases:   leases,
		rents:    rents,
		payments: payments,
		notifier: notifier,
		events:   events,
		mailer:   mailer,
		log:      log,
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// viewRent resolves the status the rent has on the given day.
func viewRent(rent domain.Rent, today time.Time) RentView {
	rent.Status = ledger.ResolveRentStatus(rent.TotalAmount, rent.PaidAmount, rent.DueDate, today, rent.Status == domain.RentCancelled)
	return RentView{
		Rent:     rent,
		DaysLate: ledger.DaysLate(rent.Status, rent.DueDate, today),
	}
}

func (s *RentService) ownedRent(ctx context.Context, ownerID, rentID int64, lock bool) (domain.Rent, error) {
	get := s.rents.Get
	if lock {
		get = s.rents.GetForUpdate
	}
	rent, err := get(ctx, rentID)
	if err != nil {
		return domain.Rent{}, mapNotFound(err)
	}
	if rent.OwnerID != ownerID {
		return domain.Rent{}, ErrForbidden
	}
	return rent, nil
}

func (s *RentService) GetRent(ctx context.Context, ownerID, rentID int64, today time.Time) (RentView, error) {
	rent, err := s.ownedRent(ctx, ownerID, rentID, false)
	if err != nil {
		return RentView{}, err
	}
	payments, err := s.payments.ListByRent(ctx, rentID)
	if err != nil {
		return RentView{}, fmt.Errorf("list payments: %w", err)
	}

	view := viewRent(rent, today)
	view.Payments = payments
	return view, nil
}

func (s *RentService) ListLeaseRents(ctx context.Context, ownerID, leaseID int64, today time.Time) ([]RentView, error) {
	lease, err := s.leases.Get(ctx, leaseID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if lease.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	rents, err := s.rents.List(ctx, repository.RentsFilter{LeaseID: &leaseID})
	if err != nil {
		return nil, fmt.Errorf("list rents: %w", err)
	}

	views := make([]RentView, 0, len(rents))
	for _, r := range rents {
		views = append(views, viewRent(r, today))
	}
	return views, nil
}

func receiptNumber(rent domain.Rent) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return fmt.Sprintf("QUI-%s-%s", rent.PeriodStart.Format("200601"), id)
}

// RecordPayment appends a payment to a rent and reconciles the rent in the
// same transaction.
func (s *RentService) RecordPayment(ctx context.Context, ownerID, rentID int64, in PaymentInput, today time.Time) (RentView, domain.RentPayment, error) {
	if !in.Amount.IsPositive() {
		return RentView{}, domain.RentPayment{}, fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}
	if in.Method == "" {
		in.Method = domain.PaymentTransfer
	}
	if !in.Method.Valid() {
		return RentView{}, domain.RentPayment{}, fmt.Errorf("%w: unknown method %q", ErrInvalidPayment, in.Method)
	}
	if in.PaymentDate.IsZero() {
		in.PaymentDate = today
	}

	var (
		rent    domain.Rent
		payment domain.RentPayment
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := s.ownedRent(ctx, ownerID, rentID, true)
		if err != nil {
			return err
		}
		if current.Status == domain.RentCancelled {
			return ErrRentCancelled
		}

		receipt := receiptNumber(current)
		payment, err = s.payments.Insert(ctx, domain.RentPayment{
			RentID:               rentID,
			Amount:               in.Amount.Round(2),
			PaymentDate:          in.PaymentDate,
			Method:               in.Method,
			TransactionReference: in.TransactionReference,
			BankName:             in.BankName,
			ReceiptNumber:        &receipt,
			Notes:                in.Notes,
			CreatedBy:            in.CreatedBy,
		})
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		all, err := s.payments.ListByRent(ctx, rentID)
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}
		rent, err = ledger.Reconcile(current, all, today)
		if err != nil {
			return err
		}
		if err := s.rents.UpdateLedger(ctx, rentID, rent.TotalAmount, rent.PaidAmount, rent.Status); err != nil {
			return fmt.Errorf("update rent: %w", err)
		}
		return nil
	})
	if err != nil {
		return RentView{}, domain.RentPayment{}, err
	}

	s.log.WithFields(logrus.Fields{
		"rent_id":    rentID,
		"payment_id": payment.ID,
		"owner_id":   ownerID,
		"status":     rent.Status,
	}).Info("rent payment recorded")

	if s.notifier != nil {
		if err := s.notifier.NotifyRentPaymentRecorded(ctx, ownerID, rent, payment); err != nil {
			s.log.WithError(err).WithField("rent_id", rentID).Warn("payment notification failed")
		}
	}
	s.publish(ctx, domain.EventRentPaymentRecorded, ownerID, map[string]any{
		"rent_id":     rent.ID,
		"lease_id":    rent.LeaseID,
		"payment_id":  payment.ID,
		"amount":      payment.Amount.StringFixed(2),
		"paid_amount": rent.PaidAmount.StringFixed(2),
		"status":      rent.Status,
	})

	return viewRent(rent, today), payment, nil
}

// CancelRent marks a rent cancelled. Cancellation is terminal and is refused
// once money has been received.
func (s *RentService) CancelRent(ctx context.Context, ownerID, rentID int64) (domain.Rent, error) {
	var rent domain.Rent
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		rent, err = s.ownedRent(ctx, ownerID, rentID, true)
		if err != nil {
			return err
		}
		if rent.Status == domain.RentCancelled {
			return nil
		}
		if rent.PaidAmount.IsPositive() {
			return ErrRentHasPayments
		}
		if err := s.rents.UpdateStatus(ctx, rentID, domain.RentCancelled); err != nil {
			return fmt.Errorf("update rent: %w", err)
		}
		rent.Status = domain.RentCancelled
		return nil
	})
	if err != nil {
		return domain.Rent{}, err
	}

	s.log.WithFields(logrus.Fields{"rent_id": rentID, "owner_id": ownerID}).Info("rent cancelled")
	s.publish(ctx, domain.EventRentCancelled, ownerID, map[string]any{
		"rent_id":  rent.ID,
		"lease_id": rent.LeaseID,
	})
	return rent, nil
}

// RefreshStatuses re-resolves every unsettled rent that is past due on today
// and sends one reminder per rent that has just become late.
func (s *RentService) RefreshStatuses(ctx context.Context, today time.Time) (SweepResult, error) {
	today = ledger.Day(today)
	var res SweepResult

	candidates, err := s.rents.ListUnsettled(ctx, today)
	if err != nil {
		return res, fmt.Errorf("list unsettled rents: %w", err)
	}

	var failures []error
	for _, rem := range candidates {
		res.Checked++
		rent := rem.Rent
		previous := rent.Status
		next := ledger.ResolveRentStatus(rent.TotalAmount, rent.PaidAmount, rent.DueDate, today, false)
		if next == domain.RentLate {
			res.Late++
		}
		if next == previous {
			continue
		}

		if err := s.rents.UpdateStatus(ctx, rent.ID, next); err != nil {
			failures = append(failures, fmt.Errorf("rent %d: %w", rent.ID, err))
			continue
		}
		res.Updated++

		if next != domain.RentLate {
			continue
		}
		rent.Status = next
		rem.Rent = rent
		if s.remindLate(ctx, rem, ledger.DaysLate(next, rent.DueDate, today)) {
			res.Reminded++
		}
	}

	s.log.WithFields(logrus.Fields{
		"checked":  res.Checked,
		"updated":  res.Updated,
		"late":     res.Late,
		"reminded": res.Reminded,
	}).Info("rent status sweep finished")

	return res, errors.Join(failures...)
}

func (s *RentService) remindLate(ctx context.Context, rem domain.RentReminder, daysLate int) bool {
	rent := rem.Rent
	entry := s.log.WithFields(logrus.Fields{"rent_id": rent.ID, "owner_id": rent.OwnerID, "days_late": daysLate})
	entry.Info("rent is late")

	if s.notifier != nil {
		if err := s.notifier.NotifyRentLate(ctx, rent.OwnerID, rent, daysLate); err != nil {
			entry.WithError(err).Warn("late notification failed")
		}
	}
	s.publish(ctx, domain.EventRentLate, rent.OwnerID, map[string]any{
		"rent_id":   rent.ID,
		"lease_id":  rent.LeaseID,
		"due_date":  rent.DueDate.Format("2006-01-02"),
		"days_late": daysLate,
	})

	if s.mailer == nil {
		return false
	}
	if err := s.mailer.SendLateRentReminder(ctx, rem, daysLate); err != nil {
		entry.WithError(err).Warn("late reminder not sent")
		return false
	}
	return true
}

// GenerateRents creates the rent of the given month for every active lease.
// Running it twice for the same month creates nothing the second time.
func (s *RentService) GenerateRents(ctx context.Context, month time.Time) (GenerateResult, error) {
	month = ledger.Day(month)
	periodStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	var res GenerateResult

	leases, err := s.leases.ListActive(ctx)
	if err != nil {
		return res, fmt.Errorf("list active leases: %w", err)
	}

	var failures []error
	for _, lease := range leases {
		if !ledger.LeaseCoversPeriod(lease, periodStart) {
			res.Skipped++
			continue
		}

		rent := ledger.BuildRent(lease, periodStart)
		id, created, err := s.rents.Insert(ctx, rent)
		if err != nil {
			res.Failed++
			failures = append(failures, fmt.Errorf("lease %d: %w", lease.ID, err))
			continue
		}
		if !created {
			res.Skipped++
			continue
		}
		res.Created++
		s.publish(ctx, domain.EventRentsGenerated, lease.OwnerID, map[string]any{
			"rent_id":      id,
			"lease_id":     lease.ID,
			"period_start": rent.PeriodStart.Format("2006-01-02"),
			"total_amount": rent.TotalAmount.StringFixed(2),
		})
	}

	s.log.WithFields(logrus.Fields{
		"month":   periodStart.Format("2006-01"),
		"created": res.Created,
		"skipped": res.Skipped,
		"failed":  res.Failed,
	}).Info("rent generation finished")

	return res, errors.Join(failures...)
}

func (s *RentService) publish(ctx context.Context, eventType string, ownerID int64, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, ownerID, payload); err != nil {
		s.log.WithError(err).WithField("event", eventType).Warn("event not published")
	}
}
