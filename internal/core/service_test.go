package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/scentadmin/internal/api"
	"github.com/JonMunkholm/scentadmin/internal/batch"
	"github.com/JonMunkholm/scentadmin/internal/catalog"
	"github.com/JonMunkholm/scentadmin/internal/csvcodec"
	"github.com/JonMunkholm/scentadmin/internal/history"
)

var testNow = time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

// fakeBackend serves generated records and records every call.
type fakeBackend struct {
	mu       sync.Mutex
	total    int
	failPage int
	block    chan struct{} // when set, ExportBatch waits on it

	pages    []batch.Page
	imports  [][]catalog.Record
	importFn func([]catalog.Record) (api.ImportResponse, error)
}

func (f *fakeBackend) Count(context.Context, catalog.Resource) (int, error) {
	return f.total, nil
}

func (f *fakeBackend) ExportBatch(ctx context.Context, res catalog.Resource, page, limit int) ([]catalog.Record, error) {
	f.mu.Lock()
	f.pages = append(f.pages, batch.Page{Number: page, Limit: limit})
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if page == f.failPage {
		return nil, &api.Error{Status: 500, Message: "boom"}
	}

	start := (page-1)*limit + 1
	end := min(page*limit, f.total)
	recs := make([]catalog.Record, 0, end-start+1)
	for i := start; i <= end; i++ {
		recs = append(recs, catalog.Record{
			"_id":       fmt.Sprintf("id-%d", i),
			"name":      fmt.Sprintf("Item %d", i),
			"group":     "Citrus",
			"createdAt": "2024-01-01T00:00:00Z",
		})
	}
	return recs, nil
}

func (f *fakeBackend) Import(_ context.Context, _ catalog.Resource, items []catalog.Record) (api.ImportResponse, error) {
	f.mu.Lock()
	f.imports = append(f.imports, items)
	f.mu.Unlock()
	if f.importFn != nil {
		return f.importFn(items)
	}
	return api.ImportResponse{Imported: len(items)}, nil
}

func (f *fakeBackend) fetched() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.pages))
	for i, p := range f.pages {
		out[i] = p.Number
	}
	return out
}

type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.calls = append(s.calls, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newTestService(backend Backend, store history.Store) (*Service, *sleepRecorder) {
	rec := &sleepRecorder{}
	svc := NewService(backend, store, Config{
		BatchSize:   2000,
		Delay:       400 * time.Millisecond,
		DownloadTTL: time.Minute,
		Sleep:       rec.sleep,
		Now:         func() time.Time { return testNow },
	})
	return svc, rec
}

func TestExportAll_NothingToExport(t *testing.T) {
	backend := &fakeBackend{total: 0}
	svc, _ := newTestService(backend, nil)

	dl, err := svc.ExportAll(context.Background(), catalog.Notes, nil)
	assert.ErrorIs(t, err, ErrNothingToExport)
	assert.Nil(t, dl)
	assert.Empty(t, backend.fetched(), "no batch may be fetched")
}

func TestExportAll_FetchesEveryBatchInOrder(t *testing.T) {
	backend := &fakeBackend{total: 4500}
	svc, sleeps := newTestService(backend, nil)

	var progress []batch.Progress
	dl, err := svc.ExportAll(context.Background(), catalog.Notes, func(p batch.Progress) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, backend.fetched())
	for _, p := range backend.pages {
		assert.Equal(t, 2000, p.Limit)
	}
	assert.Equal(t, []batch.Progress{{Current: 1, Total: 3}, {Current: 2, Total: 3}, {Current: 3, Total: 3}}, progress)
	assert.Equal(t, []time.Duration{400 * time.Millisecond, 400 * time.Millisecond}, sleeps.calls)

	assert.Equal(t, 4500, dl.Rows)
	assert.Equal(t, []int{1, 2, 3}, dl.Batches)
	assert.Equal(t, "notes_export_2024-03-09_4500_records.csv", dl.FileName)

	content := string(dl.Content)
	assert.True(t, strings.HasPrefix(content, csvcodec.BOM+"ID,Name,Group,Description,Image URL,Created At\n"))

	rows := csvcodec.ParseCSV(content)
	require.Len(t, rows, 4501)
	for _, row := range rows {
		assert.Len(t, row, len(rows[0]))
	}
	assert.Equal(t, "id-4500", rows[4500][0])
}

func TestExportAll_FailureAbortsWithoutFile(t *testing.T) {
	backend := &fakeBackend{total: 4500, failPage: 2}
	svc, _ := newTestService(backend, nil)

	var progress []batch.Progress
	dl, err := svc.ExportAll(context.Background(), catalog.Notes, func(p batch.Progress) {
		progress = append(progress, p)
	})
	require.Error(t, err)
	assert.Nil(t, dl)

	var batchErr *batch.Error
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 2, batchErr.Batch)
	assert.Equal(t, 500, api.StatusOf(err))

	assert.Equal(t, []int{1, 2}, backend.fetched(), "batch 3 must never be requested")
	assert.Equal(t, []batch.Progress{{Current: 1, Total: 3}, {Current: 0, Total: 0}}, progress)
}

func TestExportSelected(t *testing.T) {
	backend := &fakeBackend{total: 4500}
	svc, sleeps := newTestService(backend, nil)

	dl, err := svc.ExportSelected(context.Background(), catalog.Notes, []int{3, 1, 3}, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, backend.fetched())
	assert.Len(t, sleeps.calls, 1)
	assert.Equal(t, 2500, dl.Rows)
	assert.Equal(t, "notes_batches_1-3_2024-03-09.csv", dl.FileName)

	_, err = svc.ExportSelected(context.Background(), catalog.Notes, []int{4}, nil)
	assert.ErrorIs(t, err, batch.ErrBatchOutOfRange)

	_, err = svc.ExportSelected(context.Background(), catalog.Notes, nil, nil)
	assert.ErrorIs(t, err, batch.ErrNoBatchesSelected)
}

func TestExport_UnknownEntity(t *testing.T) {
	svc, _ := newTestService(&fakeBackend{total: 1}, nil)

	_, err := svc.ExportAll(context.Background(), "users", nil)
	assert.ErrorIs(t, err, ErrUnknownEntity)
	_, err = svc.ExportAll(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestPlan(t *testing.T) {
	svc, _ := newTestService(&fakeBackend{total: 4500}, nil)

	plan, err := svc.Plan(context.Background(), catalog.Perfumes)
	require.NoError(t, err)
	assert.Equal(t, 4500, plan.Total)
	require.Len(t, plan.Batches, 3)
	assert.Equal(t, batch.Descriptor{BatchNumber: 3, StartRecord: 4001, EndRecord: 4500, Count: 500}, plan.Batches[2])
}

func TestImportFromFile(t *testing.T) {
	header := "ID,Name,Group,Description,Image URL,Created At"

	t.Run("empty file", func(t *testing.T) {
		backend := &fakeBackend{}
		svc, _ := newTestService(backend, nil)

		_, err := svc.ImportFromFile(context.Background(), catalog.Notes, csvcodec.BOM+"  \n")
		assert.ErrorIs(t, err, ErrEmptyFile)
		assert.Empty(t, backend.imports)
	})

	t.Run("header only", func(t *testing.T) {
		backend := &fakeBackend{}
		svc, _ := newTestService(backend, nil)

		_, err := svc.ImportFromFile(context.Background(), catalog.Notes, csvcodec.BOM+header+"\n")
		assert.ErrorIs(t, err, ErrNoValidRecords)
		assert.Empty(t, backend.imports, "no backend call")
	})

	t.Run("all rows skipped", func(t *testing.T) {
		backend := &fakeBackend{}
		svc, _ := newTestService(backend, nil)

		res, err := svc.ImportFromFile(context.Background(), catalog.Notes, header+"\nx1,,Citrus\nx2,  ,Woody\n")
		assert.ErrorIs(t, err, ErrNoValidRecords)
		assert.Equal(t, 2, res.Skipped)
		assert.Empty(t, backend.imports)
	})

	t.Run("maps and posts once", func(t *testing.T) {
		backend := &fakeBackend{importFn: func(items []catalog.Record) (api.ImportResponse, error) {
			return api.ImportResponse{Imported: 1, Failed: 1, Message: "1 duplicate"}, nil
		}}
		svc, _ := newTestService(backend, nil)

		text := header + "\n" +
			"x1,Bergamot,Citrus,\"Bright, sparkling\",,2024-01-01\n" +
			"x2,,Woody\n" +
			"\n" +
			"x3,Vetiver"
		res, err := svc.ImportFromFile(context.Background(), catalog.Notes, text)
		require.NoError(t, err)

		require.Len(t, backend.imports, 1)
		sent := backend.imports[0]
		require.Len(t, sent, 2)
		assert.Equal(t, "Bergamot", sent[0]["name"])
		assert.Equal(t, "Bright, sparkling", sent[0]["description"])
		assert.NotContains(t, sent[0], "_id")
		assert.Equal(t, "", sent[1]["group"])

		assert.Equal(t, 3, res.Rows)
		assert.Equal(t, 2, res.Sent)
		assert.Equal(t, 1, res.Skipped)
		assert.Equal(t, 1, res.Imported)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, "1 duplicate", res.Message)
		assert.False(t, res.HeaderMismatch)
	})

	t.Run("backend error surfaces", func(t *testing.T) {
		backend := &fakeBackend{importFn: func([]catalog.Record) (api.ImportResponse, error) {
			return api.ImportResponse{}, &api.Error{Status: 400, Message: "items must be an array"}
		}}
		svc, _ := newTestService(backend, nil)

		_, err := svc.ImportFromFile(context.Background(), catalog.Notes, header+"\nx1,Bergamot\n")
		var apiErr *api.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "items must be an array", MapError(err).Message)
		assert.Len(t, backend.imports, 1, "no retry")
	})
}

func TestImportFromReader_SizeLimit(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, nil, Config{MaxFileSize: 10})

	_, err := svc.ImportFromReader(context.Background(), catalog.Notes, strings.NewReader("ID,Name\nx1,Bergamot\n"))
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Empty(t, backend.imports)
}

func TestExportThenImportRoundTrip(t *testing.T) {
	backend := &fakeBackend{total: 3}
	svc, _ := newTestService(backend, nil)

	dl, err := svc.ExportAll(context.Background(), catalog.Notes, nil)
	require.NoError(t, err)

	res, err := svc.ImportFromFile(context.Background(), catalog.Notes, string(dl.Content))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Sent)

	sent := backend.imports[0]
	for i, rec := range sent {
		assert.Equal(t, fmt.Sprintf("Item %d", i+1), rec["name"])
		assert.Equal(t, "Citrus", rec["group"])
	}
}

func TestBusyGuardAcrossOperations(t *testing.T) {
	backend := &fakeBackend{total: 4500, block: make(chan struct{})}
	svc, _ := newTestService(backend, nil)
	ctx := context.Background()

	id, err := svc.StartExportAll(ctx, catalog.Perfumes)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(backend.fetched()) == 1 }, 2*time.Second, 5*time.Millisecond)
	before, err := svc.Progress(ctx, id)
	require.NoError(t, err)

	_, err = svc.StartExportAll(ctx, catalog.Perfumes)
	assert.ErrorIs(t, err, ErrOperationBusy)
	_, err = svc.StartExportSelected(ctx, catalog.Perfumes, []int{2})
	assert.ErrorIs(t, err, ErrOperationBusy)
	_, err = svc.ImportFromFile(ctx, catalog.Perfumes, "ID,Name\nx,y\n")
	assert.ErrorIs(t, err, ErrOperationBusy)

	after, err := svc.Progress(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after, "busy trigger must not touch the running job")

	// Other entities are unaffected.
	_, err = svc.ImportFromFile(ctx, catalog.Notes, "ID,Name\nx,Bergamot\n")
	assert.NoError(t, err)

	close(backend.block)
	final, err := svc.Wait(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, final.Phase)
	assert.Eventually(t, func() bool { return !svc.Busy().IsBusy(catalog.Perfumes) }, time.Second, 5*time.Millisecond)
}

func TestBackgroundExport_DownloadOnce(t *testing.T) {
	store := history.NewMemoryStore()
	backend := &fakeBackend{total: 2500}
	svc, _ := newTestService(backend, store)
	ctx := context.Background()

	id, err := svc.StartExportSelected(ctx, catalog.Notes, []int{2})
	require.NoError(t, err)

	final, err := svc.Wait(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, final.Phase)
	assert.Equal(t, 100, final.Percent)
	assert.Equal(t, 500, final.Rows)
	assert.Equal(t, "notes_batches_2_2024-03-09.csv", final.FileName)

	dl, err := svc.TakeDownload(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 500, dl.Rows)

	_, err = svc.TakeDownload(ctx, id)
	assert.ErrorIs(t, err, ErrDownloadGone)

	page, err := svc.Jobs(ctx, history.Filter{Entity: catalog.Notes})
	require.NoError(t, err)
	require.Len(t, page.Jobs, 1)
	assert.Equal(t, history.StatusSucceeded, page.Jobs[0].Status)
	assert.Equal(t, []int{2}, page.Jobs[0].Batches)
	assert.Equal(t, 500, page.Jobs[0].Rows)
}

func TestBackgroundExport_FailureProgress(t *testing.T) {
	store := history.NewMemoryStore()
	backend := &fakeBackend{total: 4500, failPage: 2}
	svc, _ := newTestService(backend, store)
	ctx := context.Background()

	id, err := svc.StartExportAll(ctx, catalog.Notes)
	require.NoError(t, err)

	final, err := svc.Wait(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, PhaseFailed, final.Phase)
	assert.Equal(t, 0, final.Current)
	assert.Equal(t, 0, final.Total)
	assert.Equal(t, "API004", final.Code)

	_, err = svc.TakeDownload(ctx, id)
	assert.ErrorIs(t, err, ErrDownloadGone)

	page, err := svc.Jobs(ctx, history.Filter{})
	require.NoError(t, err)
	require.Len(t, page.Jobs, 1)
	assert.Equal(t, history.StatusFailed, page.Jobs[0].Status)
	assert.NotEmpty(t, page.Jobs[0].Error)
}

func TestBackgroundExport_NothingToExportIsNotice(t *testing.T) {
	svc, _ := newTestService(&fakeBackend{total: 0}, nil)
	ctx := context.Background()

	id, err := svc.StartExportAll(ctx, catalog.Brands)
	require.NoError(t, err)

	final, err := svc.Wait(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, PhaseFailed, final.Phase)
	assert.True(t, final.Notice)
	assert.Equal(t, "EXP001", final.Code)
}

func TestSubscribe(t *testing.T) {
	backend := &fakeBackend{total: 4500, block: make(chan struct{})}
	svc, _ := newTestService(backend, nil)
	ctx := context.Background()

	id, err := svc.StartExportAll(ctx, catalog.Notes)
	require.NoError(t, err)

	ch, err := svc.Subscribe(ctx, id)
	require.NoError(t, err)
	close(backend.block)

	var last JobProgress
	var seen []JobProgress
	for p := range ch {
		seen = append(seen, p)
		last = p
	}
	require.NotEmpty(t, seen)
	assert.Equal(t, PhaseDone, last.Phase)
	assert.Equal(t, "notes_export_2024-03-09_4500_records.csv", last.FileName)

	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i].Percent, seen[i-1].Percent, "progress is monotonic")
	}

	// A late subscriber gets the final state and a closed channel.
	late, err := svc.Subscribe(ctx, id)
	require.NoError(t, err)
	p, ok := <-late
	require.True(t, ok)
	assert.Equal(t, PhaseDone, p.Phase)
	_, ok = <-late
	assert.False(t, ok)
}

func TestJobNotFound(t *testing.T) {
	svc, _ := newTestService(&fakeBackend{}, nil)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = svc.TakeDownload(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = svc.Progress(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobsAreScopedToTheirSession(t *testing.T) {
	store := history.NewMemoryStore()
	svc, _ := newTestService(&fakeBackend{total: 3}, store)
	owner := api.WithToken(context.Background(), "owner-token")
	other := api.WithToken(context.Background(), "other-token")

	id, err := svc.StartExportAll(owner, catalog.Notes)
	require.NoError(t, err)
	_, err = svc.Wait(owner, id)
	require.NoError(t, err)

	_, err = svc.Progress(other, id)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = svc.Subscribe(other, id)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = svc.Wait(other, id)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = svc.TakeDownload(other, id)
	assert.ErrorIs(t, err, ErrJobNotFound)

	page, err := svc.Jobs(other, history.Filter{})
	require.NoError(t, err)
	assert.Empty(t, page.Jobs)

	// The failed attempts left the download in place for its owner.
	dl, err := svc.TakeDownload(owner, id)
	require.NoError(t, err)
	assert.Equal(t, 3, dl.Rows)

	page, err = svc.Jobs(owner, history.Filter{})
	require.NoError(t, err)
	require.Len(t, page.Jobs, 1)
	assert.Equal(t, api.Scope("owner-token"), page.Jobs[0].Owner)
}

func TestShutdownCancelsJobs(t *testing.T) {
	backend := &fakeBackend{total: 4500, block: make(chan struct{})}
	svc, _ := newTestService(backend, nil)

	id, err := svc.StartExportAll(context.Background(), catalog.Notes)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(backend.fetched()) == 1 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	final, err := svc.Progress(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, PhaseFailed, final.Phase)
	assert.Equal(t, []int{1}, backend.fetched())
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "perfumes_export_2024-03-09_0_records.csv", ExportFileName("perfumes", testNow, 0))
	assert.Equal(t, "brands_batches_1-2-5_2024-03-09.csv", SelectedFileName("brands", []int{1, 2, 5}, testNow))
}
