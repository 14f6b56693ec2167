package schema

import (
	"context"
	"regexp"
	"testing"

	"github.com/syssam/litemap/dialect/sql"
	"github.com/syssam/litemap/dialect/sqlite"
	"github.com/syssam/litemap/schema"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tableInfoColumns = []string{"cid", "name", "type", "notnull", "dflt_value", "pk"}

func escape(query string) string {
	return "^" + regexp.QuoteMeta(query) + "$"
}

func TestCreate_Mock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tbl := describe(t, OrderLine{}, schema.FlagNone)
	mock.ExpectBegin()
	mock.ExpectQuery(escape(`PRAGMA table_info("OrderLine")`)).
		WillReturnRows(sqlmock.NewRows(tableInfoColumns))
	mock.ExpectExec(escape(CreateTable(tbl))).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(escape(`CREATE INDEX IF NOT EXISTS "IX_OrderProduct" ON "OrderLine" ("OrderId", "ProductId")`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res, err := Create(context.Background(), sql.OpenDB(db), tbl)
	require.NoError(t, err)
	assert.Equal(t, Created, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_MockMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tbl := describe(t, OrderLine{}, schema.FlagNone)
	rows := sqlmock.NewRows(tableInfoColumns).
		AddRow(0, "Id", "integer", 1, nil, 1).
		AddRow(1, "OrderId", "integer", 0, nil, 0).
		AddRow(2, "ProductId", "integer", 0, nil, 0).
		AddRow(3, "Quantity", "integer", 0, nil, 0)
	mock.ExpectBegin()
	mock.ExpectQuery(escape(`PRAGMA table_info("OrderLine")`)).WillReturnRows(rows)
	mock.ExpectExec(escape(`ALTER TABLE "OrderLine" ADD COLUMN "UnitPrice" float`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(escape(`ALTER TABLE "OrderLine" ADD COLUMN "Status" integer`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(escape(`CREATE INDEX IF NOT EXISTS "IX_OrderProduct" ON "OrderLine" ("OrderId", "ProductId")`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res, err := Create(context.Background(), sql.OpenDB(db), tbl)
	require.NoError(t, err)
	assert.Equal(t, Migrated, res)
	assert.Equal(t, "migrated", res.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_MockRollback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tbl := describe(t, Document{}, schema.FlagFullTextSearch5)
	mock.ExpectBegin()
	mock.ExpectQuery(escape(`PRAGMA table_info("Document")`)).
		WillReturnRows(sqlmock.NewRows(tableInfoColumns))
	mock.ExpectExec(escape(CreateTable(tbl))).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err = Create(context.Background(), sql.OpenDB(db), tbl)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorIs(t, err, schema.ErrSchema)
	require.NoError(t, mock.ExpectationsWereMet())
}

func openMemory(t *testing.T) *sql.Driver {
	t.Helper()
	drv, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })
	return drv
}

type OrderLineV2 struct {
	ID        int64 `litemap:"Id,pk,autoinc"`
	OrderID   int64 `litemap:"OrderId,index=IX_OrderProduct:1"`
	ProductID int64 `litemap:"ProductId,index=IX_OrderProduct:2"`
	Quantity  int
	UnitPrice float64
	Status    int
	Note      string `litemap:",size=200"`
}

func (OrderLineV2) Config() schema.Config { return schema.Config{Table: "OrderLine"} }

func TestCreate_SQLite(t *testing.T) {
	ctx := context.Background()
	drv := openMemory(t)

	tbl := describe(t, OrderLine{}, schema.FlagNone)
	res, err := Create(ctx, drv, tbl)
	require.NoError(t, err)
	assert.Equal(t, Created, res)

	res, err = Create(ctx, drv, tbl)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, res)

	res, err = Create(ctx, drv, describe(t, OrderLineV2{}, schema.FlagNone))
	require.NoError(t, err)
	assert.Equal(t, Migrated, res)

	info, err := TableInfo(ctx, drv, "OrderLine")
	require.NoError(t, err)
	require.Len(t, info, 7)
	assert.Equal(t, "Note", info[6].Name)
	assert.Equal(t, "varchar(200)", info[6].Type)
	assert.True(t, info[0].NotNull)
	assert.Equal(t, int64(1), info[0].PK)

	tables, err := Tables(ctx, drv)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "OrderLine", tables[0].Name)
	assert.Equal(t, "table", tables[0].Type)
	require.NotNil(t, tables[0].SQL)
	assert.Contains(t, *tables[0].SQL, "AUTOINCREMENT")

	require.NoError(t, Drop(ctx, drv, "OrderLine"))
	info, err = TableInfo(ctx, drv, "OrderLine")
	require.NoError(t, err)
	assert.Empty(t, info)
}

func TestCreate_SQLiteVariants(t *testing.T) {
	ctx := context.Background()
	drv := openMemory(t)

	for _, flags := range []schema.Flags{schema.FlagFullTextSearch3, schema.FlagFullTextSearch4, schema.FlagFullTextSearch5} {
		tbl := describe(t, Document{}, flags)
		res, err := Create(ctx, drv, tbl)
		require.NoError(t, err)
		assert.Equal(t, Created, res)
		require.NoError(t, Drop(ctx, drv, tbl.Name))
	}

	res, err := Create(ctx, drv, describe(t, Membership{}, schema.FlagNone))
	require.NoError(t, err)
	assert.Equal(t, Created, res)
	tables, err := Tables(ctx, drv)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Regexp(t, "without rowid", *tables[0].SQL)
}
