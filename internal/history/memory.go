package history

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps jobs in process. History is lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]Job
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]Job)}
}

func (m *MemoryStore) Save(_ context.Context, job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.Batches = slices.Clone(job.Batches)
	m.jobs[job.ID] = job
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

func (m *MemoryStore) List(_ context.Context, f Filter) (*Page, error) {
	m.mu.RLock()
	matched := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		if f.matches(job) {
			matched = append(matched, job)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, func(a, b Job) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	total := int64(len(matched))
	start := min(f.Offset, len(matched))
	end := min(start+f.limit(), len(matched))
	return newPage(matched[start:end], total, f), nil
}

func (m *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, job := range m.jobs {
		if job.Finished() && job.StartedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed, nil
}
