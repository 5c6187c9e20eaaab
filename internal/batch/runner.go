package batch

import (
	"context"
	"fmt"
	"time"
)

// DefaultDelay is the pause between two batch requests.
const DefaultDelay = 400 * time.Millisecond

// Page identifies one request of a paginated fetch.
type Page struct {
	Number int
	Limit  int
}

// Progress reports how many of the requested batches have been fetched.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Done reports whether every batch has been fetched.
func (p Progress) Done() bool {
	return p.Total > 0 && p.Current >= p.Total
}

// Percent returns progress as 0-100.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return p.Current * 100 / p.Total
}

// FetchFunc fetches the items of one page.
type FetchFunc[T any] func(ctx context.Context, page Page) ([]T, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the SleepFunc backed by a real timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Error records which batch failed.
type Error struct {
	Batch int
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("batch %d: %v", e.Batch, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Runner fetches batches strictly one after another, pausing Delay between
// requests. Only one request is ever in flight, which caps the load put on
// the backend and keeps progress monotonic.
type Runner struct {
	Size       int
	Delay      time.Duration
	Sleep      SleepFunc
	OnProgress func(Progress)
}

func (r Runner) report(p Progress) {
	if r.OnProgress != nil {
		r.OnProgress(p)
	}
}

// Run fetches the given batch numbers in the order given and hands each
// page's items to collect. The first fetch or collect error stops the loop,
// progress is reset to {0, 0}, and the error is returned as *Error.
func Run[T any](ctx context.Context, r Runner, pages []int, fetch FetchFunc[T], collect func([]T) error) error {
	sleep := r.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	total := len(pages)
	for i, n := range pages {
		if err := ctx.Err(); err != nil {
			r.report(Progress{})
			return &Error{Batch: n, Err: err}
		}

		items, err := fetch(ctx, Page{Number: n, Limit: r.Size})
		if err == nil {
			err = collect(items)
		}
		if err != nil {
			r.report(Progress{})
			return &Error{Batch: n, Err: err}
		}

		r.report(Progress{Current: i + 1, Total: total})

		if i < total-1 {
			if err := sleep(ctx, r.Delay); err != nil {
				r.report(Progress{})
				return &Error{Batch: pages[i+1], Err: err}
			}
		}
	}
	return nil
}
