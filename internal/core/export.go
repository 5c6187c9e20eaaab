package core

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/scentadmin/internal/batch"
	"github.com/JonMunkholm/scentadmin/internal/catalog"
	"github.com/JonMunkholm/scentadmin/internal/csvcodec"
	"github.com/JonMunkholm/scentadmin/internal/history"
	"github.com/JonMunkholm/scentadmin/internal/logging"
)

// ContentType is sent with every CSV download.
const ContentType = "text/csv;charset=utf-8"

// Download is a finished export file.
type Download struct {
	FileName string
	Content  []byte
	Rows     int
	Batches  []int // batch numbers fetched, ascending
}

// ExportPlan describes how an entity would be exported.
type ExportPlan struct {
	Entity    string
	Total     int
	BatchSize int
	Batches   []batch.Descriptor
}

// Plan counts the entity's records and returns its batch descriptors. An
// empty entity yields a plan with no batches.
func (s *Service) Plan(ctx context.Context, entity string) (*ExportPlan, error) {
	res, err := s.resource(entity)
	if err != nil {
		return nil, err
	}
	total, err := s.backend.Count(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", entity, err)
	}
	return &ExportPlan{
		Entity:    entity,
		Total:     total,
		BatchSize: s.cfg.BatchSize,
		Batches:   batch.Plan(total, s.cfg.BatchSize),
	}, nil
}

// exportRequest selects what to fetch. All ignores Batches.
type exportRequest struct {
	All     bool
	Batches []int
}

// ExportAll fetches every batch of the entity and returns the CSV file.
// An empty entity returns ErrNothingToExport without fetching any batch.
func (s *Service) ExportAll(ctx context.Context, entity string, onProgress func(batch.Progress)) (*Download, error) {
	return s.exportSync(ctx, entity, exportRequest{All: true}, onProgress)
}

// ExportSelected fetches only the chosen batches, in ascending order.
func (s *Service) ExportSelected(ctx context.Context, entity string, batches []int, onProgress func(batch.Progress)) (*Download, error) {
	return s.exportSync(ctx, entity, exportRequest{Batches: batches}, onProgress)
}

func (s *Service) exportSync(ctx context.Context, entity string, req exportRequest, onProgress func(batch.Progress)) (*Download, error) {
	res, err := s.resource(entity)
	if err != nil {
		return nil, err
	}
	if err := s.busy.TryAcquire(entity); err != nil {
		return nil, err
	}
	defer s.busy.Release(entity)

	logger := logging.WithFields(ctx, "entity", entity, "kind", history.KindExport)
	job := s.startRecord(ctx, logger, history.KindExport, entity, req.Batches)
	logger = logger.With("job_id", job.ID)

	dl, err := s.export(ctx, logger, res, req, onProgress)
	if dl != nil {
		job.Rows = dl.Rows
		job.FileName = dl.FileName
		job.Batches = dl.Batches
	}
	s.finishRecord(ctx, logger, job, err)
	return dl, err
}

// export runs the batch loop. Any failure aborts with no partial file.
func (s *Service) export(ctx context.Context, logger *slog.Logger, res catalog.Resource, req exportRequest, onProgress func(batch.Progress)) (*Download, error) {
	start := time.Now()

	total, err := s.backend.Count(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", res.Key, err)
	}

	totalBatches := batch.TotalBatches(total, s.cfg.BatchSize)
	if totalBatches == 0 {
		logger.Info("nothing to export")
		return nil, ErrNothingToExport
	}

	pages := batch.Sequence(totalBatches)
	if !req.All {
		pages, err = batch.NormalizeSelection(req.Batches, totalBatches)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("export started", "total_items", total, "batches", len(pages), "batch_size", s.cfg.BatchSize)

	lines := make([]string, 0, min(total, len(pages)*s.cfg.BatchSize))
	runner := batch.Runner{
		Size:       s.cfg.BatchSize,
		Delay:      s.cfg.Delay,
		Sleep:      s.cfg.Sleep,
		OnProgress: onProgress,
	}
	fetch := func(ctx context.Context, p batch.Page) ([]catalog.Record, error) {
		return s.backend.ExportBatch(ctx, res, p.Number, p.Limit)
	}
	collect := func(records []catalog.Record) error {
		for _, rec := range records {
			lines = append(lines, catalog.FormatRow(res, rec))
		}
		return nil
	}

	if err := batch.Run(ctx, runner, pages, fetch, collect); err != nil {
		logger.Error("export failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	dl := &Download{
		Content: []byte(csvcodec.Document(res.Header(), lines)),
		Rows:    len(lines),
		Batches: pages,
	}
	if req.All {
		dl.FileName = ExportFileName(res.Key, s.cfg.Now(), len(lines))
	} else {
		dl.FileName = SelectedFileName(res.Key, pages, s.cfg.Now())
	}

	logger.Info("export completed",
		"rows", dl.Rows,
		"file", dl.FileName,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return dl, nil
}

// ExportFileName is <entity>_export_<YYYY-MM-DD>_<rows>_records.csv.
func ExportFileName(entity string, now time.Time, rows int) string {
	return fmt.Sprintf("%s_export_%s_%d_records.csv", entity, now.Format(time.DateOnly), rows)
}

// SelectedFileName is <entity>_batches_<n1-n2-...>_<YYYY-MM-DD>.csv.
func SelectedFileName(entity string, batches []int, now time.Time) string {
	parts := make([]string, len(batches))
	for i, n := range batches {
		parts[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("%s_batches_%s_%s.csv", entity, strings.Join(parts, "-"), now.Format(time.DateOnly))
}
