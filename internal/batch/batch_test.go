package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalBatches(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{4500, 2000, 3},
		{4000, 2000, 2},
		{1, 2000, 1},
		{0, 2000, 0},
		{10, 0, 0},
		{-5, 10, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalBatches(tt.total, tt.size), "total=%d size=%d", tt.total, tt.size)
	}
}

func TestPlan(t *testing.T) {
	plan := Plan(4500, 2000)

	require.Len(t, plan, 3)
	assert.Equal(t, Descriptor{BatchNumber: 1, StartRecord: 1, EndRecord: 2000, Count: 2000}, plan[0])
	assert.Equal(t, Descriptor{BatchNumber: 2, StartRecord: 2001, EndRecord: 4000, Count: 2000}, plan[1])
	assert.Equal(t, Descriptor{BatchNumber: 3, StartRecord: 4001, EndRecord: 4500, Count: 500}, plan[2])

	assert.Empty(t, Plan(0, 2000))
}

func TestDescribe_OutOfRange(t *testing.T) {
	_, err := Describe(4, 4500, 2000)
	assert.ErrorIs(t, err, ErrBatchOutOfRange)

	_, err = Describe(0, 4500, 2000)
	assert.ErrorIs(t, err, ErrBatchOutOfRange)
}

func TestNormalizeSelection(t *testing.T) {
	got, err := NormalizeSelection([]int{5, 1, 3, 1}, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, got)

	_, err = NormalizeSelection(nil, 5)
	assert.ErrorIs(t, err, ErrNoBatchesSelected)

	_, err = NormalizeSelection([]int{6}, 5)
	assert.ErrorIs(t, err, ErrBatchOutOfRange)
}

func TestSequence(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, Sequence(3))
	assert.Empty(t, Sequence(0))
}

// noSleep records requested delays without waiting.
type noSleep struct {
	calls []time.Duration
}

func (s *noSleep) sleep(_ context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return nil
}

func TestRun_SequentialAscendingWithProgress(t *testing.T) {
	var (
		requested []Page
		inFlight  atomic.Int32
		maxFlight int32
		progress  []Progress
		collected []int
		sleeper   noSleep
	)

	fetch := func(_ context.Context, p Page) ([]int, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		if n > maxFlight {
			maxFlight = n
		}
		requested = append(requested, p)
		return []int{p.Number * 10, p.Number*10 + 1}, nil
	}

	r := Runner{
		Size:       2000,
		Delay:      400 * time.Millisecond,
		Sleep:      sleeper.sleep,
		OnProgress: func(p Progress) { progress = append(progress, p) },
	}

	err := Run(context.Background(), r, Sequence(3), fetch, func(items []int) error {
		collected = append(collected, items...)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []Page{{1, 2000}, {2, 2000}, {3, 2000}}, requested)
	assert.Equal(t, int32(1), maxFlight)
	assert.Equal(t, []Progress{{1, 3}, {2, 3}, {3, 3}}, progress)
	assert.Equal(t, []int{10, 11, 20, 21, 30, 31}, collected)
	// Delay between batches, never after the last one.
	assert.Equal(t, []time.Duration{400 * time.Millisecond, 400 * time.Millisecond}, sleeper.calls)
}

func TestRun_SelectedSubset(t *testing.T) {
	var requested []int
	var sleeper noSleep

	fetch := func(_ context.Context, p Page) ([]string, error) {
		requested = append(requested, p.Number)
		return nil, nil
	}

	r := Runner{Size: 100, Sleep: sleeper.sleep}
	err := Run(context.Background(), r, []int{2, 5, 7}, fetch, func([]string) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5, 7}, requested)
	assert.Len(t, sleeper.calls, 2)
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	var requested []int
	var progress []Progress
	var sleeper noSleep
	boom := errors.New("backend unavailable")

	fetch := func(_ context.Context, p Page) ([]int, error) {
		requested = append(requested, p.Number)
		if p.Number == 2 {
			return nil, boom
		}
		return []int{p.Number}, nil
	}

	r := Runner{
		Size:       10,
		Sleep:      sleeper.sleep,
		OnProgress: func(p Progress) { progress = append(progress, p) },
	}

	err := Run(context.Background(), r, Sequence(3), fetch, func([]int) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var batchErr *Error
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 2, batchErr.Batch)

	assert.Equal(t, []int{1, 2}, requested, "batch 3 must never be requested")
	assert.Equal(t, []Progress{{1, 3}, {0, 0}}, progress)
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	fetch := func(_ context.Context, p Page) ([]int, error) {
		calls++
		cancel()
		return nil, nil
	}

	err := Run(ctx, Runner{Size: 1, Sleep: Sleep}, Sequence(3), fetch, func([]int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 0, Progress{}.Percent())
	assert.Equal(t, 50, Progress{Current: 1, Total: 2}.Percent())
	assert.True(t, Progress{Current: 2, Total: 2}.Done())
	assert.False(t, Progress{}.Done())
}
