package service

import (
	"context"
	"time"

	"locagest/internal/domain"
	"locagest/internal/repository"

	"github.com/shopspring/decimal"
)

// Transactor runs fn inside a database transaction carried by ctx.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type LeaseRepository interface {
	Get(ctx context.Context, id int64) (domain.Lease, error)
	GetForUpdate(ctx context.Context, id int64) (domain.Lease, error)
	ListActive(ctx context.Context) ([]domain.Lease, error)
	UpdateRent(ctx context.Context, id int64, newRent decimal.Decimal, indexedAt time.Time) error
	UpdateStatus(ctx context.Context, id int64, status domain.LeaseStatus, terminationDate *time.Time, reason *string) error
}

type RentRepository interface {
	Get(ctx context.Context, id int64) (domain.Rent, error)
	GetForUpdate(ctx context.Context, id int64) (domain.Rent, error)
	List(ctx context.Context, f repository.RentsFilter) ([]domain.Rent, error)
	HasMoreThan(ctx context.Context, limit int64, f repository.RentsFilter) (bool, error)
	ListUnsettled(ctx context.Context, dueBefore time.Time) ([]domain.RentReminder, error)
	Insert(ctx context.Context, rent domain.Rent) (int64, bool, error)
	UpdateLedger(ctx context.Context, id int64, total, paid decimal.Decimal, status domain.RentStatus) error
	UpdateStatus(ctx context.Context, id int64, status domain.RentStatus) error
}

type RentPaymentRepository interface {
	Insert(ctx context.Context, p domain.RentPayment) (domain.RentPayment, error)
	ListByRent(ctx context.Context, rentID int64) ([]domain.RentPayment, error)
}

type RentRevisionRepository interface {
	Insert(ctx context.Context, rev domain.RentRevision) (domain.RentRevision, error)
	ListByLease(ctx context.Context, leaseID int64) ([]domain.RentRevision, error)
	Latest(ctx context.Context, leaseID int64) (domain.RentRevision, error)
}

// Notifier pushes ledger changes to the owner's open sockets.
type Notifier interface {
	NotifyRentPaymentRecorded(ctx context.Context, ownerID int64, rent domain.Rent, payment domain.RentPayment) error
	NotifyRentLate(ctx context.Context, ownerID int64, rent domain.Rent, daysLate int) error
	NotifyRevisionApplied(ctx context.Context, ownerID int64, rev domain.RentRevision) error
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, ownerID int64, payload any) error
}

type ReminderSender interface {
	SendLateRentReminder(ctx context.Context, rem domain.RentReminder, daysLate int) error
}
