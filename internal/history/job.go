// Package history records export and import jobs.
//
// Two stores are provided: PostgresStore persists jobs through a pgx pool,
// MemoryStore keeps them in process for deployments without a database. A
// pruner removes finished jobs older than the retention window.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultListLimit is used when a filter carries no limit.
const DefaultListLimit = 50

// ErrNotFound is returned for an unknown job id.
var ErrNotFound = errors.New("job not found")

// Kind is the type of a job.
type Kind string

const (
	KindExport Kind = "export"
	KindImport Kind = "import"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is one export or import run.
type Job struct {
	ID         uuid.UUID `json:"id"`
	Kind       Kind      `json:"kind"`
	Entity     string    `json:"entity"`
	Owner      string    `json:"-"` // hash of the session token that started the job
	Status     Status    `json:"status"`
	Batches    []int     `json:"batches,omitempty"` // selected batches; empty means all
	Rows       int       `json:"rows"`              // rows written or records sent
	Imported   int       `json:"imported"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"` // rows dropped before sending
	Dropped    int       `json:"dropped"` // complex fragments that failed to decode
	FileName   string    `json:"fileName,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitzero"`
}

// Finished reports whether the job has left the running state.
func (j Job) Finished() bool {
	return j.Status != StatusRunning
}

// Duration returns how long the job ran, or has been running.
func (j Job) Duration() time.Duration {
	if j.FinishedAt.IsZero() {
		return time.Since(j.StartedAt)
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// Filter narrows a job listing.
type Filter struct {
	Entity string
	Kind   Kind
	Owner  string
	Limit  int
	Offset int
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

func (f Filter) matches(j Job) bool {
	if f.Entity != "" && j.Entity != f.Entity {
		return false
	}
	if f.Kind != "" && j.Kind != f.Kind {
		return false
	}
	if f.Owner != "" && j.Owner != f.Owner {
		return false
	}
	return true
}

// Page is one page of jobs, newest first.
type Page struct {
	Jobs       []Job
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}

func newPage(jobs []Job, total int64, f Filter) *Page {
	limit := f.limit()
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}
	return &Page{
		Jobs:       jobs,
		TotalCount: total,
		Page:       f.Offset/limit + 1,
		PageSize:   limit,
		TotalPages: totalPages,
	}
}

// Store persists jobs.
type Store interface {
	// Save inserts or replaces a job by id.
	Save(ctx context.Context, job Job) error
	Get(ctx context.Context, id uuid.UUID) (Job, error)
	List(ctx context.Context, f Filter) (*Page, error)
	// Prune deletes finished jobs that started before cutoff.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
