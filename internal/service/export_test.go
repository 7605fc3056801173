package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"locagest/internal/domain"
	"locagest/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeArchive struct {
	keys []string
}

func (f *fakeArchive) Upload(ctx context.Context, fileName string, data []byte, contentType string) (string, error) {
	f.keys = append(f.keys, "exports/"+fileName)
	return "exports/" + fileName, nil
}

func newExportFixture(rents ...domain.Rent) (*ExportService, *fakeStore, *fakeFiles, *fakeArchive, *fakeNotifier) {
	store := newFakeStore()
	files := &fakeFiles{}
	archive := &fakeArchive{}
	notifier := &fakeNotifier{}
	svc := NewExportService(newFakeRents(rents...), store, files, archive, notifier, "exports:", time.UTC, quietLogger())
	svc.now = func() time.Time { return time.Date(2024, time.March, 20, 9, 30, 0, 0, time.UTC) }
	return svc, store, files, archive, notifier
}

func TestExportService_RentsExport(t *testing.T) {
	other := marchRent(3, domain.RentPending, "0")
	other.OwnerID = owner + 1
	svc, _, files, archive, notifier := newExportFixture(
		marchRent(1, domain.RentPending, "0"),
		marchRent(2, domain.RentPaid, "1350"),
		other,
	)
	ctx := context.Background()

	id, err := svc.StartRentsExport(ctx, []string{"id", "status", "days_late", "unknown"}, repository.RentsFilter{}, owner)
	require.NoError(t, err)
	assert.Contains(t, id, "exports:")
	svc.Wait()

	st, err := svc.GetExport(ctx, id, owner)
	require.NoError(t, err)
	assert.Equal(t, float64(100), st.Progress)
	require.NotNil(t, st.FileURL)
	assert.Equal(t, "http://localhost/files/abc_rents_20240320_093000.xlsx", *st.FileURL)
	assert.Nil(t, st.Error)

	assert.Equal(t, []string{"exports/abc_rents_20240320_093000.xlsx"}, archive.keys)
	assert.Equal(t, []string{*st.FileURL}, notifier.completed)

	data := files.saved["abc_rents_20240320_093000.xlsx"]
	require.NotEmpty(t, data)
	wb, err := excelize.OpenReader(bytesReader(data))
	require.NoError(t, err)
	rows, err := wb.GetRows("Rents")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Status", "Days late"}, rows[0])

	statuses := map[string]string{rows[1][0]: rows[1][1], rows[2][0]: rows[2][1]}
	assert.Equal(t, "late", statuses["1"])
	assert.Equal(t, "paid", statuses["2"])
}

func TestExportService_GetExport_OtherOwner(t *testing.T) {
	svc, _, _, _, _ := newExportFixture(marchRent(1, domain.RentPending, "0"))
	ctx := context.Background()

	id, err := svc.StartRentsExport(ctx, nil, repository.RentsFilter{}, owner)
	require.NoError(t, err)
	svc.Wait()

	_, err = svc.GetExport(ctx, id, owner+1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetExport(ctx, "exports:missing", owner)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := svc.GetExports(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "rents", list[0].Type)

	list, err = svc.GetExports(ctx, owner+1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExportService_SaveFailure(t *testing.T) {
	svc, _, files, _, notifier := newExportFixture(marchRent(1, domain.RentPending, "0"))
	files.err = errors.New("disk full")
	ctx := context.Background()

	id, err := svc.StartRentsExport(ctx, nil, repository.RentsFilter{}, owner)
	require.NoError(t, err)
	svc.Wait()

	st, err := svc.GetExport(ctx, id, owner)
	require.NoError(t, err)
	require.NotNil(t, st.Error)
	assert.Contains(t, *st.Error, "disk full")
	assert.Nil(t, st.FileURL)
	assert.Len(t, notifier.failed, 1)
}

func TestExportService_RejectsUnknownColumns(t *testing.T) {
	svc, _, _, _, _ := newExportFixture()
	_, err := svc.StartRentsExport(context.Background(), []string{"nope"}, repository.RentsFilter{}, owner)
	assert.Error(t, err)
}

func TestExportService_PruneIndex(t *testing.T) {
	svc, store, _, _, _ := newExportFixture()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "exports:live", `{"key":"exports:live"}`, time.Minute))
	require.NoError(t, store.SAdd(ctx, exportSetKey, "exports:live", "exports:gone"))

	n, err := svc.PruneIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	members, _ := store.SMembers(ctx, exportSetKey)
	assert.Equal(t, []string{"exports:live"}, members)
}
