package sqlgraph

import (
	"context"
	"reflect"
	"testing"

	"github.com/syssam/litemap/schema"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(i int) *int { return &i }

func TestQuerySpec_Statement(t *testing.T) {
	tbl := table[OrderLine](t, schema.FlagAllImplicit)
	tests := []struct {
		name  string
		spec  QuerySpec
		op    Op
		query string
		args  []any
	}{
		{
			name:  "all",
			spec:  QuerySpec{},
			op:    OpSelect,
			query: `SELECT * FROM "OrderLine"`,
			args:  []any{},
		},
		{
			name: "where order limit",
			spec: QuerySpec{
				Predicates: []Predicate{
					{Column: "OrderId", Op: OpEQ, Values: []any{7}},
					{Column: "quantity", Op: OpGTE, Values: []any{2}},
				},
				Order: []Order{{Column: "ProductId", Desc: true}, {Column: "Id"}},
				Limit: intp(10),
			},
			op:    OpSelect,
			query: `SELECT * FROM "OrderLine" WHERE "OrderId" = ? AND "Quantity" >= ? ORDER BY "ProductId" DESC, "Id" ASC LIMIT ?`,
			args:  []any{int64(7), int64(2), 10},
		},
		{
			name:  "offset only",
			spec:  QuerySpec{Offset: intp(5)},
			op:    OpSelect,
			query: `SELECT * FROM "OrderLine" LIMIT -1 OFFSET ?`,
			args:  []any{5},
		},
		{
			name: "null and list",
			spec: QuerySpec{
				Predicates: []Predicate{
					{Column: "Note", Op: OpIsNull},
					{Column: "ProductId", Op: OpIn, Values: []any{1, 2, 3}},
					{Column: "Id", Op: OpNotIn, Values: []any{9}},
				},
			},
			op:    OpSelect,
			query: `SELECT * FROM "OrderLine" WHERE "Note" IS NULL AND "ProductId" IN (?, ?, ?) AND "Id" NOT IN (?)`,
			args:  []any{int64(1), int64(2), int64(3), int64(9)},
		},
		{
			name: "like",
			spec: QuerySpec{
				Predicates: []Predicate{{Column: "Note", Op: OpLike, Values: []any{"gift%"}}},
			},
			op:    OpSelect,
			query: `SELECT * FROM "OrderLine" WHERE "Note" LIKE ?`,
			args:  []any{"gift%"},
		},
		{
			name: "empty in",
			spec: QuerySpec{
				Predicates: []Predicate{{Column: "Id", Op: OpIn}},
			},
			op:    OpSelect,
			query: `SELECT * FROM "OrderLine" WHERE FALSE`,
			args:  []any{},
		},
		{
			name: "count ignores order and paging",
			spec: QuerySpec{
				Predicates: []Predicate{{Column: "OrderId", Op: OpNEQ, Values: []any{1}}},
				Order:      []Order{{Column: "Id"}},
				Limit:      intp(1),
			},
			op:    OpCount,
			query: `SELECT COUNT(*) FROM "OrderLine" WHERE "OrderId" <> ?`,
			args:  []any{int64(1)},
		},
		{
			name: "delete",
			spec: QuerySpec{
				Predicates: []Predicate{{Column: "Quantity", Op: OpLT, Values: []any{1}}},
			},
			op:    OpDelete,
			query: `DELETE FROM "OrderLine" WHERE "Quantity" < ?`,
			args:  []any{int64(1)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := tt.spec
			spec.Table = tbl
			st, args, err := spec.Statement(NewStmtCache(), tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.query, st.SQL)
			if len(tt.args) == 0 {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

func TestQuerySpec_Errors(t *testing.T) {
	tbl := table[OrderLine](t, schema.FlagAllImplicit)
	tests := []struct {
		name string
		spec QuerySpec
		op   Op
	}{
		{"unknown predicate column", QuerySpec{Predicates: []Predicate{{Column: "Missing", Op: OpEQ, Values: []any{1}}}}, OpSelect},
		{"unknown order column", QuerySpec{Order: []Order{{Column: "Missing"}}}, OpSelect},
		{"arity", QuerySpec{Predicates: []Predicate{{Column: "Id", Op: OpEQ}}}, OpSelect},
		{"unsupported operator", QuerySpec{Predicates: []Predicate{{Column: "Id", Op: "~", Values: []any{1}}}}, OpSelect},
		{"delete with limit", QuerySpec{Limit: intp(1)}, OpDelete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := tt.spec
			spec.Table = tbl
			_, _, err := spec.Statement(nil, tt.op)
			assert.ErrorIs(t, err, schema.ErrSchema)
		})
	}
}

func TestQuerySpec_Shape(t *testing.T) {
	tbl := table[OrderLine](t, schema.FlagAllImplicit)
	cache := NewStmtCache()
	for _, id := range []int{1, 2, 3} {
		spec := &QuerySpec{Table: tbl, Predicates: []Predicate{{Column: "Id", Op: OpEQ, Values: []any{id}}}}
		_, args, err := spec.Statement(cache, OpSelect)
		require.NoError(t, err)
		assert.Equal(t, []any{int64(id)}, args)
	}
	in := &QuerySpec{Table: tbl, Predicates: []Predicate{{Column: "Id", Op: OpIn, Values: []any{1, 2}}}}
	_, _, err := in.Statement(cache, OpSelect)
	require.NoError(t, err)
	in.Predicates[0].Values = []any{1, 2, 3}
	_, _, err = in.Statement(cache, OpSelect)
	require.NoError(t, err)

	hits, misses := cache.Stats()
	assert.EqualValues(t, 2, hits)
	assert.EqualValues(t, 3, misses, "list predicates of different length render different SQL")
}

func TestQueryNodes(t *testing.T) {
	drv, mock := mockDriver(t)
	tbl := table[OrderLine](t, schema.FlagAllImplicit)
	mock.ExpectQuery(`SELECT * FROM "OrderLine" WHERE "OrderId" = ? ORDER BY "Id" ASC`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"Id", "OrderId", "ProductId", "Quantity", "Note", "Extra"}).
			AddRow(int64(1), int64(7), int64(9), int64(2), "gift", "ignored").
			AddRow(int64(2), int64(7), int64(10), int64(1), nil, "ignored"))

	var lines []*OrderLine
	spec := &QuerySpec{
		Table:      tbl,
		Predicates: []Predicate{{Column: "OrderId", Op: OpEQ, Values: []any{7}}},
		Order:      []Order{{Column: "Id"}},
	}
	err := QueryNodes(context.Background(), drv, nil, spec, func(v reflect.Value) (bool, error) {
		lines = append(lines, v.Interface().(*OrderLine))
		return true, nil
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.NotNil(t, lines[0].Note)
	assert.Equal(t, "gift", *lines[0].Note)
	assert.Equal(t, &OrderLine{Id: 2, OrderId: 7, ProductId: 10, Quantity: 1}, lines[1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryNodes_Stop(t *testing.T) {
	drv, mock := mockDriver(t)
	tbl := table[Setting](t, schema.FlagNone)
	mock.ExpectQuery(`SELECT * FROM "Setting"`).
		WillReturnRows(sqlmock.NewRows([]string{"Key", "Value"}).AddRow("a", "1").AddRow("b", "2")).
		RowsWillBeClosed()
	seen := 0
	err := QueryNodes(context.Background(), drv, nil, &QuerySpec{Table: tbl}, func(reflect.Value) (bool, error) {
		seen++
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryNodes_DataError(t *testing.T) {
	drv, mock := mockDriver(t)
	tbl := table[OrderLine](t, schema.FlagAllImplicit)
	mock.ExpectQuery(`SELECT * FROM "OrderLine"`).
		WillReturnRows(sqlmock.NewRows([]string{"Id", "Quantity"}).AddRow(int64(1), "many"))
	err := QueryNodes(context.Background(), drv, nil, &QuerySpec{Table: tbl}, func(reflect.Value) (bool, error) {
		return true, nil
	})
	assert.ErrorIs(t, err, schema.ErrData)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountAndDeleteNodes(t *testing.T) {
	drv, mock := mockDriver(t)
	tbl := table[OrderLine](t, schema.FlagAllImplicit)
	spec := &QuerySpec{Table: tbl, Predicates: []Predicate{{Column: "OrderId", Op: OpEQ, Values: []any{7}}}}

	mock.ExpectQuery(`SELECT COUNT(*) FROM "OrderLine" WHERE "OrderId" = ?`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(2)))
	mock.ExpectExec(`DELETE FROM "OrderLine" WHERE "OrderId" = ?`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := CountNodes(context.Background(), drv, nil, spec)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = DeleteNodes(context.Background(), drv, nil, spec)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
