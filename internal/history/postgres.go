package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS csv_job (
	id          UUID PRIMARY KEY,
	kind        TEXT NOT NULL,
	entity      TEXT NOT NULL,
	owner       TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	batches     INT4[] NOT NULL DEFAULT '{}',
	row_count   INT4 NOT NULL DEFAULT 0,
	imported    INT4 NOT NULL DEFAULT 0,
	failed      INT4 NOT NULL DEFAULT 0,
	skipped     INT4 NOT NULL DEFAULT 0,
	dropped     INT4 NOT NULL DEFAULT 0,
	file_name   TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS csv_job_started_at_idx ON csv_job (started_at DESC);
CREATE INDEX IF NOT EXISTS csv_job_entity_idx ON csv_job (entity, started_at DESC);
ALTER TABLE csv_job ADD COLUMN IF NOT EXISTS owner TEXT NOT NULL DEFAULT '';
CREATE INDEX IF NOT EXISTS csv_job_owner_idx ON csv_job (owner, started_at DESC);
`

const jobColumns = `id, kind, entity, owner, status, batches, row_count, imported, failed,
	skipped, dropped, file_name, error, started_at, finished_at`

// DBTX is the subset of pgx the store needs.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PostgresStore persists jobs in the csv_job table.
type PostgresStore struct {
	db DBTX
}

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect opens a pool for databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewPostgresStore creates the job table if needed.
func NewPostgresStore(ctx context.Context, db DBTX) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create csv_job table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

const saveQuery = `INSERT INTO csv_job (` + jobColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (id) DO UPDATE SET
		status = EXCLUDED.status,
		batches = EXCLUDED.batches,
		row_count = EXCLUDED.row_count,
		imported = EXCLUDED.imported,
		failed = EXCLUDED.failed,
		skipped = EXCLUDED.skipped,
		dropped = EXCLUDED.dropped,
		file_name = EXCLUDED.file_name,
		error = EXCLUDED.error,
		finished_at = EXCLUDED.finished_at`

func (s *PostgresStore) Save(ctx context.Context, job Job) error {
	if _, err := s.db.Exec(ctx, saveQuery, saveArgs(job)...); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

// saveArgs orders job fields like jobColumns.
func saveArgs(job Job) []any {
	return []any{
		job.ID.String(),
		string(job.Kind),
		job.Entity,
		job.Owner,
		string(job.Status),
		toInt32s(job.Batches),
		int32(job.Rows),
		int32(job.Imported),
		int32(job.Failed),
		int32(job.Skipped),
		int32(job.Dropped),
		job.FileName,
		job.Error,
		job.StartedAt,
		nullTime(job.FinishedAt),
	}
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Job, error) {
	row := s.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM csv_job WHERE id = $1`, id.String())
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return job, err
}

func (s *PostgresStore) List(ctx context.Context, f Filter) (*Page, error) {
	where, args := whereClause(f)

	var total int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM csv_job"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	query := `SELECT ` + jobColumns + ` FROM csv_job` + where +
		fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.limit(), f.Offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return newPage(jobs, total, f), nil
}

func (s *PostgresStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM csv_job WHERE status <> $1 AND started_at < $2`,
		string(StatusRunning), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// whereClause renders the filter as numbered placeholders.
func whereClause(f Filter) (string, []any) {
	var conditions []string
	var args []any
	if f.Entity != "" {
		args = append(args, f.Entity)
		conditions = append(conditions, fmt.Sprintf("entity = $%d", len(args)))
	}
	if f.Kind != "" {
		args = append(args, string(f.Kind))
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if f.Owner != "" {
		args = append(args, f.Owner)
		conditions = append(conditions, fmt.Sprintf("owner = $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanJob(row pgx.Row) (Job, error) {
	var (
		job                                          Job
		id, kind, status                             string
		batches                                      []int32
		rowCount, imported, failed, skipped, dropped int32
		finished                                     *time.Time
	)
	err := row.Scan(&id, &kind, &job.Entity, &job.Owner, &status, &batches, &rowCount, &imported, &failed,
		&skipped, &dropped, &job.FileName, &job.Error, &job.StartedAt, &finished)
	if err != nil {
		return Job{}, err
	}

	job.ID, err = uuid.Parse(id)
	if err != nil {
		return Job{}, fmt.Errorf("parse job id %q: %w", id, err)
	}
	job.Kind = Kind(kind)
	job.Status = Status(status)
	for _, b := range batches {
		job.Batches = append(job.Batches, int(b))
	}
	job.Rows = int(rowCount)
	job.Imported = int(imported)
	job.Failed = int(failed)
	job.Skipped = int(skipped)
	job.Dropped = int(dropped)
	if finished != nil {
		job.FinishedAt = *finished
	}
	return job, nil
}

func toInt32s(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
