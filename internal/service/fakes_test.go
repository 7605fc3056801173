package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"locagest/internal/clients"
	"locagest/internal/domain"
	"locagest/internal/integrations/insee"
	"locagest/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeTx struct {
	calls int
}

func (f *fakeTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeLeases struct {
	byID        map[int64]domain.Lease
	rentUpdates []decimal.Decimal
}

func newFakeLeases(leases ...domain.Lease) *fakeLeases {
	f := &fakeLeases{byID: map[int64]domain.Lease{}}
	for _, l := range leases {
		f.byID[l.ID] = l
	}
	return f
}

func (f *fakeLeases) Get(ctx context.Context, id int64) (domain.Lease, error) {
	l, ok := f.byID[id]
	if !ok {
		return domain.Lease{}, repository.ErrNotFound
	}
	return l, nil
}

func (f *fakeLeases) GetForUpdate(ctx context.Context, id int64) (domain.Lease, error) {
	return f.Get(ctx, id)
}

func (f *fakeLeases) ListActive(ctx context.Context) ([]domain.Lease, error) {
	var out []domain.Lease
	for _, l := range f.byID {
		if l.Status == domain.LeaseActive {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeLeases) UpdateRent(ctx context.Context, id int64, newRent decimal.Decimal, indexedAt time.Time) error {
	l, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.CurrentRent = newRent
	l.LastIndexationDate = &indexedAt
	f.byID[id] = l
	f.rentUpdates = append(f.rentUpdates, newRent)
	return nil
}

func (f *fakeLeases) UpdateStatus(ctx context.Context, id int64, status domain.LeaseStatus, terminationDate *time.Time, reason *string) error {
	l, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.Status = status
	if terminationDate != nil {
		l.TerminationDate = terminationDate
	}
	if reason != nil {
		l.TerminationReason = reason
	}
	f.byID[id] = l
	return nil
}

type fakeRents struct {
	mu     sync.Mutex
	byID   map[int64]domain.Rent
	emails map[int64]string
	nextID int64
}

func newFakeRents(rents ...domain.Rent) *fakeRents {
	f := &fakeRents{byID: map[int64]domain.Rent{}, emails: map[int64]string{}, nextID: 100}
	for _, r := range rents {
		f.byID[r.ID] = r
	}
	return f
}

func (f *fakeRents) Get(ctx context.Context, id int64) (domain.Rent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return domain.Rent{}, repository.ErrNotFound
	}
	return r, nil
}

func (f *fakeRents) GetForUpdate(ctx context.Context, id int64) (domain.Rent, error) {
	return f.Get(ctx, id)
}

func (f *fakeRents) List(ctx context.Context, flt repository.RentsFilter) ([]domain.Rent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Rent
	for _, r := range f.byID {
		if flt.OwnerID != nil && r.OwnerID != *flt.OwnerID {
			continue
		}
		if flt.LeaseID != nil && r.LeaseID != *flt.LeaseID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.After(out[j].PeriodStart) })
	return out, nil
}

func (f *fakeRents) HasMoreThan(ctx context.Context, limit int64, flt repository.RentsFilter) (bool, error) {
	rents, _ := f.List(ctx, flt)
	return int64(len(rents)) > limit, nil
}

func (f *fakeRents) ListUnsettled(ctx context.Context, dueBefore time.Time) ([]domain.RentReminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RentReminder
	for _, r := range f.byID {
		switch r.Status {
		case domain.RentPending, domain.RentPartial, domain.RentLate:
		default:
			continue
		}
		if !r.DueDate.Before(dueBefore) {
			continue
		}
		rem := domain.RentReminder{Rent: r, PropertyName: "Flat", TenantName: "Jane Doe"}
		if email, ok := f.emails[r.ID]; ok {
			rem.TenantEmail = &email
		}
		out = append(out, rem)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rent.ID < out[j].Rent.ID })
	return out, nil
}

func (f *fakeRents) Insert(ctx context.Context, rent domain.Rent) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.byID {
		if r.LeaseID == rent.LeaseID && r.PeriodStart.Equal(rent.PeriodStart) && r.PeriodEnd.Equal(rent.PeriodEnd) {
			return 0, false, nil
		}
	}
	f.nextID++
	rent.ID = f.nextID
	f.byID[rent.ID] = rent
	return rent.ID, true, nil
}

func (f *fakeRents) UpdateLedger(ctx context.Context, id int64, total, paid decimal.Decimal, status domain.RentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok || paid.LessThan(r.PaidAmount) {
		return repository.ErrNotFound
	}
	r.TotalAmount, r.PaidAmount, r.Status = total, paid, status
	f.byID[id] = r
	return nil
}

func (f *fakeRents) UpdateStatus(ctx context.Context, id int64, status domain.RentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	f.byID[id] = r
	return nil
}

type fakePayments struct {
	byRent map[int64][]domain.RentPayment
	nextID int64
}

func newFakePayments() *fakePayments {
	return &fakePayments{byRent: map[int64][]domain.RentPayment{}}
}

func (f *fakePayments) Insert(ctx context.Context, p domain.RentPayment) (domain.RentPayment, error) {
	f.nextID++
	p.ID = f.nextID
	f.byRent[p.RentID] = append(f.byRent[p.RentID], p)
	return p, nil
}

func (f *fakePayments) ListByRent(ctx context.Context, rentID int64) ([]domain.RentPayment, error) {
	return f.byRent[rentID], nil
}

type fakeRevisions struct {
	byLease map[int64][]domain.RentRevision
	nextID  int64
}

func newFakeRevisions() *fakeRevisions {
	return &fakeRevisions{byLease: map[int64][]domain.RentRevision{}}
}

func (f *fakeRevisions) Insert(ctx context.Context, rev domain.RentRevision) (domain.RentRevision, error) {
	f.nextID++
	rev.ID = f.nextID
	f.byLease[rev.LeaseID] = append(f.byLease[rev.LeaseID], rev)
	return rev, nil
}

func (f *fakeRevisions) ListByLease(ctx context.Context, leaseID int64) ([]domain.RentRevision, error) {
	return f.byLease[leaseID], nil
}

func (f *fakeRevisions) Latest(ctx context.Context, leaseID int64) (domain.RentRevision, error) {
	revs := f.byLease[leaseID]
	if len(revs) == 0 {
		return domain.RentRevision{}, repository.ErrNotFound
	}
	return revs[len(revs)-1], nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	payments  []int64
	late      []int64
	revisions []int64
	progress  []float64
	completed []string
	failed    []string
}

func (f *fakeNotifier) NotifyRentPaymentRecorded(ctx context.Context, ownerID int64, rent domain.Rent, payment domain.RentPayment) error {
	f.payments = append(f.payments, rent.ID)
	return nil
}

func (f *fakeNotifier) NotifyRentLate(ctx context.Context, ownerID int64, rent domain.Rent, daysLate int) error {
	f.late = append(f.late, rent.ID)
	return nil
}

func (f *fakeNotifier) NotifyRevisionApplied(ctx context.Context, ownerID int64, rev domain.RentRevision) error {
	f.revisions = append(f.revisions, rev.LeaseID)
	return nil
}

func (f *fakeNotifier) NotifyExportProgress(ctx context.Context, ownerID int64, exportID string, progress float64, stage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, progress)
	return nil
}

func (f *fakeNotifier) NotifyExportComplete(ctx context.Context, ownerID int64, exportID, url, filename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, url)
	return nil
}

func (f *fakeNotifier) NotifyExportFailed(ctx context.Context, ownerID int64, exportID, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, errMsg)
	return nil
}

type fakeEvents struct {
	types []string
}

func (f *fakeEvents) Publish(ctx context.Context, eventType string, ownerID int64, payload any) error {
	f.types = append(f.types, eventType)
	return nil
}

type fakeMailer struct {
	sent []int64
	err  error
}

func (f *fakeMailer) SendLateRentReminder(ctx context.Context, rem domain.RentReminder, daysLate int) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, rem.Rent.ID)
	return nil
}

type fakeIndex struct {
	value insee.IndexValue
	err   error
	calls int
}

func (f *fakeIndex) LatestIndex(ctx context.Context) (insee.IndexValue, error) {
	f.calls++
	return f.value, f.err
}

type fakeStore struct {
	mu   sync.Mutex
	kv   map[string]string
	sets map[string]map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{kv: map[string]string{}, sets: map[string]map[string]bool{}}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.kv[key]
	if !ok {
		return "", clients.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kv[key] = value.(string)
	return nil
}

func (f *fakeStore) SAdd(ctx context.Context, key string, members ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sets[key] == nil {
		f.sets[key] = map[string]bool{}
	}
	for _, m := range members {
		f.sets[key][m.(string)] = true
	}
	return nil
}

func (f *fakeStore) SRem(ctx context.Context, key string, members ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range members {
		delete(f.sets[key], m.(string))
	}
	return nil
}

func (f *fakeStore) SMembers(ctx context.Context, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for m := range f.sets[key] {
		out = append(out, m)
	}
	return out, nil
}

type fakeFiles struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func (f *fakeFiles) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	stored := "abc_" + fileName
	f.saved[stored] = data
	return stored, nil
}

func (f *fakeFiles) GetURL(fileName string) string {
	return "http://localhost/files/" + fileName
}

func rentsOfLease(id int64) repository.RentsFilter {
	return repository.RentsFilter{LeaseID: &id}
}

func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}
