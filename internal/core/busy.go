package core

// busy.go guards export and import jobs.
//
// At most one job may run per entity; a second trigger fails fast with
// ErrOperationBusy and never touches the running job. A semaphore also caps
// the number of jobs across all entities so the backend sees a bounded
// number of concurrent batch loops. WaitForDrain blocks until every job has
// released its slot, for graceful shutdown.

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrTooManyJobs is returned when every job slot is occupied.
var ErrTooManyJobs = errors.New("too many jobs running, please try again later")

// DefaultMaxConcurrentJobs is the default cap across all entities.
const DefaultMaxConcurrentJobs = 4

// BusyGuard tracks which entities have a job in flight.
type BusyGuard struct {
	semaphore chan struct{}

	mu     sync.Mutex
	active map[string]time.Time // entity -> acquired at
}

// NewBusyGuard creates a guard allowing maxConcurrent jobs overall.
func NewBusyGuard(maxConcurrent int) *BusyGuard {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentJobs
	}
	return &BusyGuard{
		semaphore: make(chan struct{}, maxConcurrent),
		active:    make(map[string]time.Time),
	}
}

// TryAcquire claims the entity without blocking. The caller must call
// Release(entity) exactly once after a nil return.
func (g *BusyGuard) TryAcquire(entity string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.active[entity]; busy {
		return ErrOperationBusy
	}

	select {
	case g.semaphore <- struct{}{}:
	default:
		return ErrTooManyJobs
	}

	g.active[entity] = time.Now()
	return nil
}

// Release frees the entity's slot. Releasing an idle entity is a no-op.
func (g *BusyGuard) Release(entity string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.active[entity]; !ok {
		return
	}
	delete(g.active, entity)
	<-g.semaphore
}

// IsBusy reports whether the entity has a job in flight.
func (g *BusyGuard) IsBusy(entity string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.active[entity]
	return busy
}

// ActiveCount returns the number of jobs in flight.
func (g *BusyGuard) ActiveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}

// MaxConcurrent returns the job cap.
func (g *BusyGuard) MaxConcurrent() int {
	return cap(g.semaphore)
}

// WaitForDrain blocks until no job is active or ctx is done.
func (g *BusyGuard) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if g.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// BusyStatus is a snapshot for monitoring.
type BusyStatus struct {
	Active        []string `json:"active"`
	Available     int      `json:"available"`
	MaxConcurrent int      `json:"max_concurrent"`
}

// Status returns the guard's current state.
func (g *BusyGuard) Status() BusyStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	entities := make([]string, 0, len(g.active))
	for e := range g.active {
		entities = append(entities, e)
	}
	sort.Strings(entities)

	return BusyStatus{
		Active:        entities,
		Available:     cap(g.semaphore) - len(g.semaphore),
		MaxConcurrent: cap(g.semaphore),
	}
}
