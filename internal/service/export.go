package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"locagest/internal/clients"
	"locagest/internal/ledger"
	"locagest/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	exportSetKey      = "export_ids"
	exportTTL         = 20 * time.Minute
	exportChunkSize   = 1000
	maxRentsForExport = 500_000
)

var ErrTooManyRows = errors.New("too many rows to export")

type ExportStatus struct {
	Key      string    `json:"key"`
	Type     string    `json:"type"`
	UserID   int64     `json:"user_id"`
	Filters  any       `json:"filters"`
	Progress float64   `json:"progress"`
	FileURL  *string   `json:"file_url"`
	Error    *string   `json:"error,omitempty"`
	Created  time.Time `json:"created_at"`
}

type StatusStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SAdd(ctx context.Context, key string, members ...any) error
	SRem(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

type FileStore interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
	GetURL(fileName string) string
}

type ObjectStore interface {
	Upload(ctx context.Context, fileName string, data []byte, contentType string) (string, error)
}

type ExportNotifier interface {
	NotifyExportProgress(ctx context.Context, ownerID int64, exportID string, progress float64, stage string) error
	NotifyExportComplete(ctx context.Context, ownerID int64, exportID, url, filename string) error
	NotifyExportFailed(ctx context.Context, ownerID int64, exportID, errMsg string) error
}

type RentColumn struct {
	Header string
	Value  func(v RentView) any
}

func day(t time.Time) string {
	return t.Format("2006-01-02")
}

var rentColumns = map[string]RentColumn{
	"id":             {Header: "ID", Value: func(v RentView) any { return v.Rent.ID }},
	"lease_id":       {Header: "Lease", Value: func(v RentView) any { return v.Rent.LeaseID }},
	"period_start":   {Header: "Period start", Value: func(v RentView) any { return day(v.Rent.PeriodStart) }},
	"period_end":     {Header: "Period end", Value: func(v RentView) any { return day(v.Rent.PeriodEnd) }},
	"due_date":       {Header: "Due date", Value: func(v RentView) any { return day(v.Rent.DueDate) }},
	"rent_amount":    {Header: "Rent", Value: func(v RentView) any { return v.Rent.RentAmount.InexactFloat64() }},
	"charges_amount": {Header: "Charges", Value: func(v RentView) any { return v.Rent.ChargesAmount.InexactFloat64() }},
	"other_amount":   {Header: "Other", Value: func(v RentView) any { return v.Rent.OtherAmount.InexactFloat64() }},
	"total_amount":   {Header: "Total", Value: func(v RentView) any { return v.Rent.TotalAmount.InexactFloat64() }},
	"paid_amount":    {Header: "Paid", Value: func(v RentView) any { return v.Rent.PaidAmount.InexactFloat64() }},
	"outstanding":    {Header: "Outstanding", Value: func(v RentView) any { return v.Rent.Outstanding().InexactFloat64() }},
	"status":         {Header: "Status", Value: func(v RentView) any { return string(v.Rent.Status) }},
	"days_late":      {Header: "Days late", Value: func(v RentView) any { return v.DaysLate }},
}

var defaultRentColumns = []string{
	"period_start", "period_end", "lease_id", "id", "due_date",
	"rent_amount", "charges_amount", "other_amount", "total_amount",
	"paid_amount", "outstanding", "status", "days_late",
}

type ExportService struct {
	rents    RentRepository
	status   StatusStore
	files    FileStore
	archive  ObjectStore
	ws       ExportNotifier
	prefix   string
	log      *logrus.Logger
	now      func() time.Time
	location *time.Location
	wg       sync.WaitGroup
}

func NewExportService(
	rents RentRepository,
	status StatusStore,
	files FileStore,
	archive ObjectStore,
	ws ExportNotifier,
	prefix string,
	location *time.Location,
	log *logrus.Logger,
) *ExportService {
	if location == nil {
		location = time.UTC
	}
	return &ExportService{
		rents:    rents,
		status:   status,
		files:    files,
		archive:  archive,
		ws:       ws,
		prefix:   prefix,
		log:      log,
		now:      time.Now,
		location: location,
	}
}

func (s *ExportService) saveExportStatus(ctx context.Context, st *ExportStatus) error {
	if s.status == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.status.Set(ctx, st.Key, string(data), exportTTL); err != nil {
		return err
	}
	return s.status.SAdd(ctx, exportSetKey, st.Key)
}

func (s *ExportService) progress(ctx context.Context, st *ExportStatus, stage string) {
	if err := s.saveExportStatus(ctx, st); err != nil {
		s.log.WithError(err).WithField("export_id", st.Key).Warn("export status not saved")
	}
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, st.UserID, st.Key, st.Progress, stage)
	}
}

func (s *ExportService) fail(ctx context.Context, st *ExportStatus, err error) {
	msg := err.Error()
	s.log.WithError(err).WithField("export_id", st.Key).Error("export failed")
	st.Error = &msg
	st.Progress = 100
	_ = s.saveExportStatus(ctx, st)
	if s.ws != nil {
		_ = s.ws.NotifyExportFailed(ctx, st.UserID, st.Key, msg)
	}
}

func buildRentsFiltersMap(f repository.RentsFilter, fields []string) map[string]interface{} {
	m := map[string]interface{}{
		"lease_id":    nil,
		"property_id": nil,
		"status":      nil,
		"period_from": nil,
		"period_to":   nil,
	}
	if f.LeaseID != nil {
		m["lease_id"] = *f.LeaseID
	}
	if f.PropertyID != nil {
		m["property_id"] = *f.PropertyID
	}
	if f.Status != nil {
		m["status"] = *f.Status
	}
	if f.PeriodFrom != nil {
		m["period_from"] = day(*f.PeriodFrom)
	}
	if f.PeriodTo != nil {
		m["period_to"] = day(*f.PeriodTo)
	}
	m["fields"] = fields
	return m
}

// StartRentsExport queues an XLSX export of the owner's rent ledger and
// returns its id. The file is built in the background.
func (s *ExportService) StartRentsExport(ctx context.Context, selected []string, filter repository.RentsFilter, ownerID int64) (string, error) {
	if len(selected) == 0 {
		selected = defaultRentColumns
	}
	var cols []RentColumn
	for _, key := range selected {
		if col, ok := rentColumns[key]; ok {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("no known column in %v", selected)
	}

	filter.OwnerID = &ownerID
	tooMany, err := s.rents.HasMoreThan(ctx, maxRentsForExport, filter)
	if err != nil {
		return "", err
	}
	if tooMany {
		return "", fmt.Errorf("%w (more than %d rents)", ErrTooManyRows, maxRentsForExport)
	}

	status := &ExportStatus{
		Key:     s.prefix + uuid.NewString(),
		Type:    "rents",
		UserID:  ownerID,
		Filters: buildRentsFiltersMap(filter, selected),
		Created: s.now(),
	}
	if err := s.saveExportStatus(ctx, status); err != nil {
		return "", fmt.Errorf("save export status: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runRentsExport(context.Background(), status, cols, filter)
	}()

	return status.Key, nil
}

// Wait blocks until every running export has finished.
func (s *ExportService) Wait() {
	s.wg.Wait()
}

func (s *ExportService) runRentsExport(ctx context.Context, status *ExportStatus, cols []RentColumn, filter repository.RentsFilter) {
	entry := s.log.WithFields(logrus.Fields{"export_id": status.Key, "owner_id": status.UserID})
	entry.Info("rents export started")

	rents, err := s.rents.List(ctx, filter)
	if err != nil {
		s.fail(ctx, status, fmt.Errorf("list rents: %w", err))
		return
	}

	today := ledger.Day(s.now().In(s.location))

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Rents"
	_ = f.SetSheetName(f.GetSheetName(0), sheet)
	_ = f.SetDocProps(&excelize.DocProperties{Creator: fmt.Sprintf("user_%d", status.UserID)})

	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col.Header)
	}

	total := len(rents)
	for i, r := range rents {
		view := viewRent(r, today)
		for colIdx, col := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, i+2)
			_ = f.SetCellValue(sheet, cell, col.Value(view))
		}

		if (i+1)%exportChunkSize == 0 || i == total-1 {
			progress := math.Round(float64(i+1) / float64(total) * 100.0)
			// 100 is reserved for when the file url is known
			if progress >= 100 {
				progress = 90
			}
			status.Progress = progress
			s.progress(ctx, status, "generating")
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.fail(ctx, status, fmt.Errorf("write workbook: %w", err))
		return
	}
	data := buf.Bytes()
	fileName := fmt.Sprintf("rents_%s.xlsx", s.now().Format("20060102_150405"))

	status.Progress = 95
	s.progress(ctx, status, "uploading")

	saved, err := s.files.Save(ctx, fileName, data)
	if err != nil {
		s.fail(ctx, status, fmt.Errorf("save export: %w", err))
		return
	}
	if s.archive != nil {
		if key, err := s.archive.Upload(ctx, saved, data, clients.XLSXContentType); err != nil {
			entry.WithError(err).Warn("export archive upload failed")
		} else {
			entry.WithField("object_key", key).Debug("export archived")
		}
	}

	url := s.files.GetURL(saved)
	status.FileURL = &url
	status.Progress = 100
	s.progress(ctx, status, "ready")
	if s.ws != nil {
		_ = s.ws.NotifyExportComplete(ctx, status.UserID, status.Key, url, fileName)
	}
	entry.WithField("rows", total).Info("rents export finished")
}

func (s *ExportService) readStatus(ctx context.Context, key string) (ExportStatus, error) {
	data, err := s.status.Get(ctx, key)
	if err != nil {
		return ExportStatus{}, err
	}
	var st ExportStatus
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return ExportStatus{}, fmt.Errorf("failed to parse export status: %w", err)
	}
	return st, nil
}

// GetExports lists the owner's exports, newest first.
func (s *ExportService) GetExports(ctx context.Context, ownerID int64) ([]ExportStatus, error) {
	if s.status == nil {
		return nil, errors.New("export status store not configured")
	}
	keys, err := s.status.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get export keys: %w", err)
	}

	statuses := []ExportStatus{}
	for _, key := range keys {
		st, err := s.readStatus(ctx, key)
		if err != nil {
			continue
		}
		if st.UserID == ownerID {
			statuses = append(statuses, st)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})
	return statuses, nil
}

func (s *ExportService) GetExport(ctx context.Context, exportID string, ownerID int64) (ExportStatus, error) {
	if s.status == nil {
		return ExportStatus{}, errors.New("export status store not configured")
	}
	st, err := s.readStatus(ctx, exportID)
	if errors.Is(err, clients.ErrCacheMiss) {
		return ExportStatus{}, ErrNotFound
	}
	if err != nil {
		return ExportStatus{}, err
	}
	if st.UserID != ownerID {
		return ExportStatus{}, ErrNotFound
	}
	return st, nil
}

// PruneIndex drops expired exports from the export index set.
func (s *ExportService) PruneIndex(ctx context.Context) (int, error) {
	if s.status == nil {
		return 0, nil
	}
	keys, err := s.status.SMembers(ctx, exportSetKey)
	if err != nil {
		return 0, err
	}
	pruned := 0
	for _, key := range keys {
		if _, err := s.status.Get(ctx, key); !errors.Is(err, clients.ErrCacheMiss) {
			continue
		}
		if err := s.status.SRem(ctx, exportSetKey, key); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}
