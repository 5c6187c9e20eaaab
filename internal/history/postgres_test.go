package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB records statements and answers QueryRow with a fixed row.
type fakeDB struct {
	execSQL  []string
	execArgs [][]any
	row      pgx.Row
	rowSQL   string
	rowArgs  []any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.rowSQL = sql
	f.rowArgs = args
	return f.row
}

// fakeRow scans values in order, like a row of jobColumns.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *[]int32:
			*p = r.values[i].([]int32)
		case *int32:
			*p = r.values[i].(int32)
		case *time.Time:
			*p = r.values[i].(time.Time)
		case **time.Time:
			*p = r.values[i].(*time.Time)
		default:
			return errors.New("unexpected destination type")
		}
	}
	return nil
}

func TestPostgresStore_SaveArgs(t *testing.T) {
	db := &fakeDB{}
	store, err := NewPostgresStore(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, db.execSQL, 1)
	assert.Contains(t, db.execSQL[0], "CREATE TABLE IF NOT EXISTS csv_job")
	assert.Contains(t, db.execSQL[0], "ADD COLUMN IF NOT EXISTS owner")

	j := job(KindExport, "notes", StatusSucceeded, 0)
	j.Owner = "abc"
	j.Batches = []int{1, 2, 3}
	j.Rows = 42
	require.NoError(t, store.Save(context.Background(), j))

	require.Len(t, db.execSQL, 2)
	sql := db.execSQL[1]
	assert.Contains(t, sql, "batches = EXCLUDED.batches")
	assert.Contains(t, sql, "$15")

	args := db.execArgs[1]
	require.Len(t, args, len(strings.Split(jobColumns, ",")))
	assert.Equal(t, j.ID.String(), args[0])
	assert.Equal(t, "abc", args[3])
	assert.Equal(t, []int32{1, 2, 3}, args[5])
	assert.Equal(t, int32(42), args[6])
	require.NotNil(t, args[14])
	assert.Equal(t, j.FinishedAt, *args[14].(*time.Time))
}

func TestPostgresStore_SaveRunningHasNoFinish(t *testing.T) {
	args := saveArgs(job(KindImport, "brands", StatusRunning, 0))
	assert.Nil(t, args[14])
	assert.Equal(t, []int32{}, args[5])
}

func TestPostgresStore_Get(t *testing.T) {
	id := uuid.New()
	finished := base.Add(time.Minute)
	db := &fakeDB{row: fakeRow{values: []any{
		id.String(), "export", "notes", "abc", "succeeded", []int32{2, 4},
		int32(10), int32(0), int32(0), int32(1), int32(0),
		"notes.csv", "", base, &finished,
	}}}
	store := &PostgresStore{db: db}

	got, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, KindExport, got.Kind)
	assert.Equal(t, "abc", got.Owner)
	assert.Equal(t, []int{2, 4}, got.Batches)
	assert.Equal(t, 10, got.Rows)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, time.Minute, got.Duration())
	assert.Equal(t, []any{id.String()}, db.rowArgs)

	store.db = &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	_, err = store.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWhereClause(t *testing.T) {
	where, args := whereClause(Filter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = whereClause(Filter{Entity: "notes", Kind: KindImport, Owner: "abc"})
	assert.Equal(t, " WHERE entity = $1 AND kind = $2 AND owner = $3", where)
	assert.Equal(t, []any{"notes", "import", "abc"}, args)

	where, args = whereClause(Filter{Owner: "abc"})
	assert.Equal(t, " WHERE owner = $1", where)
	assert.Equal(t, []any{"abc"}, args)
}
