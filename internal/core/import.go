package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/JonMunkholm/scentadmin/internal/catalog"
	"github.com/JonMunkholm/scentadmin/internal/csvcodec"
	"github.com/JonMunkholm/scentadmin/internal/history"
	"github.com/JonMunkholm/scentadmin/internal/logging"
)

// ImportResult summarises one import.
type ImportResult struct {
	Entity   string
	Rows     int // data rows in the file
	Sent     int // records posted to the backend
	Skipped  int // rows dropped for an empty required column
	Dropped  int // complex fragments that failed to decode
	Imported int // reported by the backend
	Failed   int // reported by the backend
	Message  string
	// HeaderMismatch is set when the file's header differs from the
	// entity's columns. Rows are still mapped by position.
	HeaderMismatch bool
}

// ImportFromReader reads an uploaded file, enforcing the size limit and
// replacing invalid UTF-8, then imports it.
func (s *Service) ImportFromReader(ctx context.Context, entity string, r io.Reader) (*ImportResult, error) {
	text, err := ReadUpload(r, s.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}
	return s.ImportFromFile(ctx, entity, text)
}

// ImportFromFile parses CSV text, maps each data row onto the entity's
// columns and posts the records in a single request. Files without data
// rows, or whose rows are all skipped, return ErrNoValidRecords without
// calling the backend. There is no retry.
func (s *Service) ImportFromFile(ctx context.Context, entity, text string) (*ImportResult, error) {
	res, err := s.resource(entity)
	if err != nil {
		return nil, err
	}
	if err := s.busy.TryAcquire(entity); err != nil {
		return nil, err
	}
	defer s.busy.Release(entity)

	logger := logging.WithFields(ctx, "entity", entity, "kind", history.KindImport)
	job := s.startRecord(ctx, logger, history.KindImport, entity, nil)
	logger = logger.With("job_id", job.ID)

	result, err := s.importText(ctx, logger, res, text)
	if result != nil {
		job.Rows = result.Sent
		job.Imported = result.Imported
		job.Failed = result.Failed
		job.Skipped = result.Skipped
		job.Dropped = result.Dropped
	}
	s.finishRecord(ctx, logger, job, err)
	return result, err
}

func (s *Service) importText(ctx context.Context, logger *slog.Logger, res catalog.Resource, text string) (*ImportResult, error) {
	start := time.Now()

	if strings.TrimSpace(strings.TrimPrefix(text, csvcodec.BOM)) == "" {
		return nil, ErrEmptyFile
	}

	rows := csvcodec.ParseCSV(text)
	if len(rows) < 2 {
		return nil, ErrNoValidRecords
	}

	result := &ImportResult{
		Entity:         res.Key,
		Rows:           len(rows) - 1,
		HeaderMismatch: !slices.Equal(rows[0], res.Header()),
	}
	if result.HeaderMismatch {
		logger.Warn("import header does not match entity columns",
			"got", strings.Join(rows[0], ","),
			"want", strings.Join(res.Header(), ","),
		)
	}

	records := make([]catalog.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rr := catalog.RecordFromRow(res, row)
		result.Dropped += rr.Dropped
		if rr.Skipped {
			result.Skipped++
			continue
		}
		records = append(records, rr.Record)
	}

	if result.Dropped > 0 {
		logger.Warn("dropped unparseable complex fragments", "fragments", result.Dropped)
	}
	if len(records) == 0 {
		return result, ErrNoValidRecords
	}

	result.Sent = len(records)
	resp, err := s.backend.Import(ctx, res, records)
	if err != nil {
		logger.Error("import failed", "records", len(records), "error", err)
		return result, fmt.Errorf("import %s: %w", res.Key, err)
	}

	result.Imported = resp.Imported
	result.Failed = resp.Failed
	result.Message = resp.Message

	logger.Info("import completed",
		"rows", result.Rows,
		"sent", result.Sent,
		"skipped", result.Skipped,
		"imported", result.Imported,
		"failed", result.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
