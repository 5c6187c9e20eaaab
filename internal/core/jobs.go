package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/scentadmin/internal/api"
	"github.com/JonMunkholm/scentadmin/internal/batch"
	"github.com/JonMunkholm/scentadmin/internal/history"
	"github.com/JonMunkholm/scentadmin/internal/logging"
)

// Phase is the lifecycle stage of a background export.
type Phase string

const (
	PhaseStarting Phase = "starting"
	PhaseFetching Phase = "fetching"
	PhaseDone     Phase = "done"
	PhaseFailed   Phase = "failed"
)

// JobProgress is streamed to subscribers of a background export.
type JobProgress struct {
	JobID    string `json:"jobId"`
	Entity   string `json:"entity"`
	Phase    Phase  `json:"phase"`
	Current  int    `json:"current"`
	Total    int    `json:"total"`
	Percent  int    `json:"percent"`
	Rows     int    `json:"rows,omitempty"`
	FileName string `json:"fileName,omitempty"`
	// Set when the job ends without a file.
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code,omitempty"`
	Notice  bool   `json:"notice,omitempty"`
}

// Finished reports whether the job has ended.
func (p JobProgress) Finished() bool {
	return p.Phase == PhaseDone || p.Phase == PhaseFailed
}

type activeJob struct {
	id     uuid.UUID
	entity string
	owner  string // token scope of the session that started it

	mu        sync.Mutex
	progress  JobProgress
	download  *Download
	listeners []chan JobProgress
	done      chan struct{}
}

// StartExportAll starts a background export of every batch and returns its
// job id. The job runs until it completes, fails or the service shuts down.
func (s *Service) StartExportAll(ctx context.Context, entity string) (uuid.UUID, error) {
	return s.startExport(ctx, entity, exportRequest{All: true})
}

// StartExportSelected starts a background export of the chosen batches.
func (s *Service) StartExportSelected(ctx context.Context, entity string, batches []int) (uuid.UUID, error) {
	if len(batches) == 0 {
		return uuid.Nil, batch.ErrNoBatchesSelected
	}
	return s.startExport(ctx, entity, exportRequest{Batches: batches})
}

func (s *Service) startExport(ctx context.Context, entity string, req exportRequest) (uuid.UUID, error) {
	res, err := s.resource(entity)
	if err != nil {
		return uuid.Nil, err
	}
	// A second trigger fails here, before any state of the running job is
	// touched.
	if err := s.busy.TryAcquire(entity); err != nil {
		return uuid.Nil, err
	}

	logger := logging.WithFields(ctx, "entity", entity, "kind", history.KindExport)
	record := s.startRecord(ctx, logger, history.KindExport, entity, req.Batches)
	logger = logger.With("job_id", record.ID)

	job := &activeJob{
		id:     record.ID,
		entity: entity,
		owner:  record.Owner,
		progress: JobProgress{
			JobID:  record.ID.String(),
			Entity: entity,
			Phase:  PhaseStarting,
		},
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[job.id] = job
	s.mu.Unlock()

	// The job outlives the request but keeps its values (the caller's
	// token among them). Shutdown cancels it through the service context.
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(s.ctx, cancel)

	go func() {
		defer s.busy.Release(entity)
		defer cancel()
		defer stop()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in export job", "panic", r)
				err := fmt.Errorf("internal error: %v", r)
				s.finishRecord(context.WithoutCancel(jobCtx), logger, record, err)
				job.finish(nil, err)
				s.cleanup(job.id, s.cfg.DownloadTTL)
			}
		}()

		onProgress := func(p batch.Progress) {
			job.update(func(jp *JobProgress) {
				jp.Phase = PhaseFetching
				jp.Current = p.Current
				jp.Total = p.Total
				jp.Percent = p.Percent()
			})
		}

		dl, err := s.export(jobCtx, logger, res, req, onProgress)
		if dl != nil {
			record.Rows = dl.Rows
			record.FileName = dl.FileName
			record.Batches = dl.Batches
		}
		s.finishRecord(context.WithoutCancel(jobCtx), logger, record, err)
		job.finish(dl, err)
		s.cleanup(job.id, s.cfg.DownloadTTL)
	}()

	return job.id, nil
}

// job looks up a background export started by the caller. Jobs of other
// sessions are reported as not found.
func (s *Service) job(ctx context.Context, id uuid.UUID) (*activeJob, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok || job.owner != api.ScopeFromContext(ctx) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

// Subscribe returns a channel of progress updates for a background export.
// The current state is sent first; the channel is closed when the job ends.
// Slow subscribers miss intermediate updates but always see the final one.
func (s *Service) Subscribe(ctx context.Context, id uuid.UUID) (<-chan JobProgress, error) {
	job, err := s.job(ctx, id)
	if err != nil {
		return nil, err
	}

	ch := make(chan JobProgress, 16)

	job.mu.Lock()
	defer job.mu.Unlock()

	ch <- job.progress
	if job.progress.Finished() {
		close(ch)
		return ch, nil
	}
	job.listeners = append(job.listeners, ch)
	return ch, nil
}

// Progress returns the current state of a background export.
func (s *Service) Progress(ctx context.Context, id uuid.UUID) (JobProgress, error) {
	job, err := s.job(ctx, id)
	if err != nil {
		return JobProgress{}, err
	}
	job.mu.Lock()
	defer job.mu.Unlock()
	return job.progress, nil
}

// Wait blocks until the job ends or ctx is done.
func (s *Service) Wait(ctx context.Context, id uuid.UUID) (JobProgress, error) {
	job, err := s.job(ctx, id)
	if err != nil {
		return JobProgress{}, err
	}
	select {
	case <-job.done:
	case <-ctx.Done():
		return JobProgress{}, ctx.Err()
	}
	job.mu.Lock()
	defer job.mu.Unlock()
	return job.progress, nil
}

// TakeDownload hands out a finished export's file exactly once. The content
// is released from memory as it is handed out.
func (s *Service) TakeDownload(ctx context.Context, id uuid.UUID) (*Download, error) {
	job, err := s.job(ctx, id)
	if err != nil {
		return nil, err
	}

	job.mu.Lock()
	defer job.mu.Unlock()

	if !job.progress.Finished() {
		return nil, ErrJobRunning
	}
	if job.download == nil {
		return nil, ErrDownloadGone
	}
	dl := job.download
	job.download = nil
	return dl, nil
}

// update applies fn to the progress and fans it out to listeners.
func (j *activeJob) update(fn func(*JobProgress)) {
	j.mu.Lock()
	defer j.mu.Unlock()

	fn(&j.progress)
	for _, ch := range j.listeners {
		select {
		case ch <- j.progress:
		default:
			// Slow listener, skip this update.
		}
	}
}

// finish records the outcome, delivers the final state and closes every
// listener.
func (j *activeJob) finish(dl *Download, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err != nil {
		msg := MapError(err)
		j.progress.Phase = PhaseFailed
		j.progress.Current = 0
		j.progress.Total = 0
		j.progress.Percent = 0
		j.progress.Message = msg.Message
		j.progress.Action = msg.Action
		j.progress.Code = msg.Code
		j.progress.Notice = msg.Notice()
	} else {
		j.download = dl
		j.progress.Phase = PhaseDone
		j.progress.Percent = 100
		j.progress.Rows = dl.Rows
		j.progress.FileName = dl.FileName
	}

	for _, ch := range j.listeners {
		deliverFinal(ch, j.progress)
		close(ch)
	}
	j.listeners = nil
	close(j.done)
}

// deliverFinal makes room in a full buffer so the last message is never
// lost.
func deliverFinal(ch chan JobProgress, p JobProgress) {
	for {
		select {
		case ch <- p:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// cleanup forgets the job, and any untaken download, after delay.
func (s *Service) cleanup(id uuid.UUID, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.jobs, id)
		s.mu.Unlock()
		slog.Debug("export job released", "job_id", id)
	})
}
