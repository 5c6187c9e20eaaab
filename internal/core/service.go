package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/scentadmin/internal/api"
	"github.com/JonMunkholm/scentadmin/internal/batch"
	"github.com/JonMunkholm/scentadmin/internal/catalog"
	"github.com/JonMunkholm/scentadmin/internal/history"
	"github.com/JonMunkholm/scentadmin/internal/metrics"
)

// Defaults applied by NewService to zero Config fields.
const (
	DefaultBatchSize   = 2000
	DefaultDownloadTTL = 15 * time.Minute
	DefaultMaxFileSize = 50 << 20
)

// Backend is the part of the REST client the export and import pipelines
// use. *api.Client implements it.
type Backend interface {
	Count(ctx context.Context, res catalog.Resource) (int, error)
	ExportBatch(ctx context.Context, res catalog.Resource, page, limit int) ([]catalog.Record, error)
	Import(ctx context.Context, res catalog.Resource, items []catalog.Record) (api.ImportResponse, error)
}

// Config tunes the pipelines.
type Config struct {
	BatchSize         int           // Records per export request (default 2000)
	Delay             time.Duration // Pause between export requests (default 400ms)
	DownloadTTL       time.Duration // How long an untaken export is kept (default 15m)
	MaxFileSize       int64         // Upload size limit in bytes (default 50MB)
	MaxConcurrentJobs int           // Jobs across all entities (default 4)

	Sleep batch.SleepFunc  // Overrides the inter-batch wait; tests pass a no-op
	Now   func() time.Time // Clock for file names and job timestamps
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Delay <= 0 {
		c.Delay = batch.DefaultDelay
	}
	if c.DownloadTTL <= 0 {
		c.DownloadTTL = DefaultDownloadTTL
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.Sleep == nil {
		c.Sleep = batch.Sleep
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Service runs CSV exports and imports against the backend.
type Service struct {
	backend Backend
	history history.Store
	cfg     Config
	busy    *BusyGuard

	// Background jobs run on this context, not the request's, so a job
	// outlives the request that started it. Shutdown cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	jobs map[uuid.UUID]*activeJob
}

// NewService creates a Service. A nil store keeps history in memory.
func NewService(backend Backend, store history.Store, cfg Config) *Service {
	if store == nil {
		store = history.NewMemoryStore()
	}
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		backend: backend,
		history: store,
		cfg:     cfg,
		busy:    NewBusyGuard(cfg.MaxConcurrentJobs),
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[uuid.UUID]*activeJob),
	}
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Busy returns the job guard.
func (s *Service) Busy() *BusyGuard {
	return s.busy
}

// Entities returns the exportable resources.
func (s *Service) Entities() []catalog.Resource {
	return catalog.Exportable()
}

// Jobs lists the jobs recorded for the caller's session, newest first.
func (s *Service) Jobs(ctx context.Context, f history.Filter) (*history.Page, error) {
	f.Owner = api.ScopeFromContext(ctx)
	return s.history.List(ctx, f)
}

// Shutdown cancels background jobs and waits for them to release their
// slots or for ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.busy.WaitForDrain(ctx)
}

func (s *Service) resource(entity string) (catalog.Resource, error) {
	res, ok := catalog.Get(entity)
	if !ok || !res.Exportable() {
		return catalog.Resource{}, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	return res, nil
}

// startRecord saves a running job. History failures are logged, never
// returned: a job must not fail because its bookkeeping did.
func (s *Service) startRecord(ctx context.Context, logger *slog.Logger, kind history.Kind, entity string, batches []int) history.Job {
	job := history.Job{
		ID:        uuid.New(),
		Kind:      kind,
		Entity:    entity,
		Owner:     api.ScopeFromContext(ctx),
		Status:    history.StatusRunning,
		Batches:   batches,
		StartedAt: s.cfg.Now(),
	}
	if err := s.history.Save(ctx, job); err != nil {
		logger.Warn("failed to record job start", "job_id", job.ID, "error", err)
	}
	return job
}

func (s *Service) finishRecord(ctx context.Context, logger *slog.Logger, job history.Job, err error) {
	job.FinishedAt = s.cfg.Now()
	job.Status = history.StatusSucceeded
	result := metrics.ResultSucceeded
	if err != nil {
		job.Status = history.StatusFailed
		job.Error = err.Error()
		result = metrics.ResultFailed
		if errors.Is(err, ErrNothingToExport) {
			result = metrics.ResultEmpty
		}
	}
	metrics.ObserveJob(string(job.Kind), job.Entity, result, job.Rows, job.Duration())
	// The job context may already be cancelled; bookkeeping still runs.
	if saveErr := s.history.Save(context.WithoutCancel(ctx), job); saveErr != nil {
		logger.Warn("failed to record job result", "job_id", job.ID, "error", saveErr)
	}
}
