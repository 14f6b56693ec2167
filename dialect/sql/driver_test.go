package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/litemap/dialect"
)

func mockDriver(t *testing.T) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return OpenDB(db), mock
}

func TestOpenDB(t *testing.T) {
	drv, _ := mockDriver(t)
	assert.Equal(t, dialect.SQLite, drv.Dialect())
	assert.NotNil(t, drv.DB())
}

func TestDriverQuery(t *testing.T) {
	drv, mock := mockDriver(t)
	ctx := context.Background()

	t.Run("rows", func(t *testing.T) {
		mock.ExpectQuery(`SELECT "id", "name" FROM "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Alice").AddRow(2, "Bob"))
		rows := &Rows{}
		require.NoError(t, drv.Query(ctx, `SELECT "id", "name" FROM "users"`, []any{}, rows))
		cols, values, err := ScanValues(rows)
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "name"}, cols)
		assert.Len(t, values, 2)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").WithArgs("a8m").
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3))
		rows := &Rows{}
		require.NoError(t, drv.Query(ctx, `SELECT COUNT(*) FROM "users" WHERE "name" = ?`, []any{"a8m"}, rows))
		n, err := ScanInt64(rows)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})

	t.Run("no rows", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}))
		rows := &Rows{}
		require.NoError(t, drv.Query(ctx, `SELECT COUNT(*) FROM "users"`, []any{}, rows))
		_, err := ScanInt64(rows)
		assert.ErrorIs(t, err, ErrNoRows)
	})

	t.Run("invalid types", func(t *testing.T) {
		var rows []any
		err := drv.Query(ctx, "SELECT 1", []any{}, &rows)
		assert.ErrorContains(t, err, "expect *sql.Rows")
		err = drv.Query(ctx, "SELECT 1", "oops", &Rows{})
		assert.ErrorContains(t, err, "expect []any")
	})

	t.Run("error", func(t *testing.T) {
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("disk I/O error"))
		err := drv.Query(ctx, "SELECT 1", []any{}, &Rows{})
		assert.ErrorContains(t, err, "disk I/O error")
	})
}

func TestDriverExec(t *testing.T) {
	drv, mock := mockDriver(t)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE "users"`).WithArgs("Alice", 1).WillReturnResult(sqlmock.NewResult(0, 1))
	var res Result
	require.NoError(t, drv.Exec(ctx, `UPDATE "users" SET "name" = ? WHERE "id" = ?`, []any{"Alice", 1}, &res))
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	mock.ExpectExec("DELETE").WillReturnError(errors.New("constraint violation"))
	err = drv.Exec(ctx, `DELETE FROM "users"`, []any{}, nil)
	assert.ErrorContains(t, err, "constraint violation")

	err = drv.Exec(ctx, `DELETE FROM "users"`, []any{}, new(int))
	assert.ErrorContains(t, err, "expect *sql.Result")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverTx(t *testing.T) {
	drv, mock := mockDriver(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, `INSERT INTO "users" DEFAULT VALUES`, []any{}, nil))
	require.NoError(t, tx.Commit())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()
	tx, err = drv.Tx(ctx)
	require.NoError(t, err)
	require.Error(t, tx.Exec(ctx, `INSERT INTO "users" DEFAULT VALUES`, []any{}, nil))
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementKind(t *testing.T) {
	tests := []struct {
		query, kind, table string
	}{
		{`SELECT * FROM "OrderLine" WHERE "Id" = ?`, KindSelect, "OrderLine"},
		{`select count(*) from items`, KindSelect, "items"},
		{`INSERT INTO "a""b" ("x") VALUES (?) ON CONFLICT ("x") DO NOTHING`, KindInsert, `a"b`},
		{`UPDATE "weight (kg)" SET "v" = ?`, KindUpdate, "weight (kg)"},
		{`DELETE FROM "t"`, KindDelete, "t"},
		{`CREATE TABLE IF NOT EXISTS "t" ("a" integer)`, KindSchema, "t"},
		{`CREATE UNIQUE INDEX IF NOT EXISTS "t_a" ON "t" ("a")`, KindSchema, "t"},
		{`PRAGMA table_info("t")`, KindSchema, ""},
		{`VACUUM`, KindOther, ""},
		{``, KindOther, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, StatementKind(tt.query), tt.query)
		assert.Equal(t, tt.table, StatementTable(tt.query), tt.query)
	}
}

func TestStatsDriver(t *testing.T) {
	base, mock := mockDriver(t)
	ctx := context.Background()
	var slow []SlowStatement
	drv := NewStatsDriver(base,
		WithSlowThreshold(10*time.Millisecond),
		WithSlowQueryHook(func(_ context.Context, s SlowStatement) {
			slow = append(slow, s)
		}),
	)

	mock.ExpectQuery("SELECT").WillDelayFor(20 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rows := &Rows{}
	require.NoError(t, drv.Query(ctx, `SELECT * FROM "t"`, []any{}, rows))
	require.NoError(t, rows.Close())

	mock.ExpectExec("DELETE").WillReturnError(errors.New("boom"))
	require.Error(t, drv.Exec(ctx, `DELETE FROM "t"`, []any{}, nil))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, `INSERT INTO "u" DEFAULT VALUES`, []any{}, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())

	stats := drv.QueryStats().Stats()
	assert.EqualValues(t, 1, stats.TotalQueries)
	assert.EqualValues(t, 2, stats.TotalExecs)
	assert.EqualValues(t, 1, stats.Errors)
	assert.EqualValues(t, 1, stats.SlowQueries)
	assert.EqualValues(t, 1, stats.Commits)
	assert.Zero(t, stats.Rollbacks)

	assert.EqualValues(t, 1, stats.ByKind[KindSelect].Slow)
	assert.EqualValues(t, 1, stats.ByKind[KindDelete].Errors)
	assert.EqualValues(t, 1, stats.ByKind[KindInsert].Count)
	assert.EqualValues(t, 2, stats.ByTable["t"].Count)
	assert.EqualValues(t, 1, stats.ByTable["u"].Count)
	assert.GreaterOrEqual(t, stats.ByTable["t"].Duration, 20*time.Millisecond)

	require.Len(t, slow, 1)
	assert.Equal(t, KindSelect, slow[0].Kind)
	assert.Equal(t, "t", slow[0].Table)
	assert.Contains(t, stats.String(), "queries=1 execs=2")
	assert.Contains(t, stats.String(), "delete=1 insert=1 select=1")

	drv.QueryStats().Reset()
	stats = drv.QueryStats().Stats()
	assert.Zero(t, stats.TotalQueries)
	assert.Empty(t, stats.ByTable)
	assert.Zero(t, StatsSnapshot{}.AvgQueryDuration())
}

func TestDebugDriver(t *testing.T) {
	base, mock := mockDriver(t)
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	drv := NewDebugDriver(base, DebugWithLogger(logger))

	mock.ExpectExec("DELETE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	require.NoError(t, drv.Exec(ctx, `DELETE FROM "t"`, []any{}, nil))
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	rows := &Rows{}
	require.NoError(t, tx.Query(ctx, "SELECT 1", []any{}, rows))
	require.NoError(t, rows.Close())
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "msg=exec kind=delete table=t tx=false")
	assert.Contains(t, lines[1], "msg=begin")
	assert.Contains(t, lines[2], `msg=query kind=select table="" tx=true sql="SELECT 1"`)
	assert.Contains(t, lines[3], "msg=rollback")
}
