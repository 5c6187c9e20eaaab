package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func job(kind Kind, entity string, status Status, startedAgo time.Duration) Job {
	j := Job{
		ID:        uuid.New(),
		Kind:      kind,
		Entity:    entity,
		Status:    status,
		StartedAt: base.Add(-startedAgo),
	}
	if status != StatusRunning {
		j.FinishedAt = j.StartedAt.Add(time.Second)
	}
	return j
}

func TestMemoryStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	j := job(KindExport, "perfumes", StatusRunning, 0)
	j.Batches = []int{1, 3}
	require.NoError(t, store.Save(ctx, j))

	j.Status = StatusSucceeded
	j.Rows = 2500
	j.FinishedAt = base.Add(time.Minute)
	require.NoError(t, store.Save(ctx, j))

	got, err := store.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
	assert.Equal(t, 2500, got.Rows)
	assert.Equal(t, []int{1, 3}, got.Batches)
	assert.True(t, got.Finished())
	assert.Equal(t, time.Minute, got.Duration())

	_, err = store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	jobs := []Job{
		job(KindExport, "perfumes", StatusSucceeded, 3*time.Hour),
		job(KindImport, "perfumes", StatusFailed, 2*time.Hour),
		job(KindExport, "notes", StatusSucceeded, time.Hour),
		job(KindExport, "perfumes", StatusRunning, 0),
	}
	for _, j := range jobs {
		require.NoError(t, store.Save(ctx, j))
	}

	tests := []struct {
		name      string
		filter    Filter
		wantIDs   []uuid.UUID
		wantTotal int64
		wantPages int
	}{
		{"all newest first", Filter{}, []uuid.UUID{jobs[3].ID, jobs[2].ID, jobs[1].ID, jobs[0].ID}, 4, 1},
		{"by entity", Filter{Entity: "perfumes"}, []uuid.UUID{jobs[3].ID, jobs[1].ID, jobs[0].ID}, 3, 1},
		{"by kind", Filter{Kind: KindImport}, []uuid.UUID{jobs[1].ID}, 1, 1},
		{"paged", Filter{Limit: 2, Offset: 2}, []uuid.UUID{jobs[1].ID, jobs[0].ID}, 4, 2},
		{"offset past end", Filter{Limit: 2, Offset: 10}, []uuid.UUID{}, 4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.List(ctx, tt.filter)
			require.NoError(t, err)

			ids := make([]uuid.UUID, 0, len(page.Jobs))
			for _, j := range page.Jobs {
				ids = append(ids, j.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantTotal, page.TotalCount)
			assert.Equal(t, tt.wantPages, page.TotalPages)
		})
	}
}

func TestPruneOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	old := job(KindExport, "perfumes", StatusSucceeded, 40*24*time.Hour)
	oldRunning := job(KindExport, "notes", StatusRunning, 40*24*time.Hour)
	recent := job(KindImport, "brands", StatusFailed, 24*time.Hour)
	for _, j := range []Job{old, oldRunning, recent} {
		require.NoError(t, store.Save(ctx, j))
	}

	removed := PruneOnce(ctx, store, PruneConfig{RetentionDays: 30}, base)
	assert.Equal(t, int64(1), removed)

	_, err := store.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, oldRunning.ID)
	assert.NoError(t, err, "running jobs are never pruned")
	_, err = store.Get(ctx, recent.ID)
	assert.NoError(t, err)
}

func TestPruneConfigDefaults(t *testing.T) {
	cfg := PruneConfig{}.withDefaults()
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, 6*time.Hour, cfg.Interval)
}

func TestStartPruner_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartPruner(ctx, NewMemoryStore(), PruneConfig{Interval: time.Hour})
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pruner did not stop")
	}
}

func TestMemoryStore_ListByOwner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	mine := job(KindExport, "notes", StatusSucceeded, time.Hour)
	mine.Owner = "a"
	theirs := job(KindExport, "notes", StatusSucceeded, time.Hour)
	theirs.Owner = "b"
	require.NoError(t, store.Save(ctx, mine))
	require.NoError(t, store.Save(ctx, theirs))

	page, err := store.List(ctx, Filter{Owner: "a"})
	require.NoError(t, err)
	require.Len(t, page.Jobs, 1)
	assert.Equal(t, mine.ID, page.Jobs[0].ID)

	page, err = store.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, page.Jobs, 2)
}
