package sqlgraph

import (
	"context"
	"fmt"
	"reflect"

	"github.com/syssam/litemap/dialect"
	"github.com/syssam/litemap/dialect/sql"
	"github.com/syssam/litemap/schema"
)

// hydrate decodes one raw row into a new value of the table type and
// returns a pointer to it. Columns without a plan entry are skipped.
func hydrate(t *schema.Table, plan []*schema.Column, raw []any) (reflect.Value, error) {
	pv := reflect.New(t.Type)
	sv := pv.Elem()
	for i, c := range plan {
		if c == nil {
			continue
		}
		if err := c.DecodeField(sv, raw[i]); err != nil {
			return reflect.Value{}, err
		}
	}
	return pv, nil
}

// structValue returns the addressable struct value behind the pointer v.
func structValue(t *schema.Table, v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, schema.Errorf(t.Name, "", "expected a non-nil pointer to %s, got %T", t.Type, v)
	}
	sv := rv.Elem()
	if sv.Type() != t.Type {
		return reflect.Value{}, schema.Errorf(t.Name, "", "expected a pointer to %s, got %T", t.Type, v)
	}
	return sv, nil
}

func exec(ctx context.Context, q dialect.ExecQuerier, query string, args []any) (int64, error) {
	var res sql.Result
	if err := q.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// keyPredicate matches every primary key column to its marker.
func keyPredicate(t *schema.Table) *sql.Predicate {
	preds := make([]*sql.Predicate, len(t.PrimaryKey))
	for i, c := range t.PrimaryKey {
		preds[i] = sql.EQ(c.Name, c)
	}
	return sql.And(preds...)
}

func requireKey(t *schema.Table, op Op) error {
	if !t.HasPrimaryKey() {
		return schema.Errorf(t.Name, "", "%s requires a primary key", op)
	}
	return nil
}

// insertColumns returns the columns written by an insert. The autoincrement
// key is assigned by the engine.
func insertColumns(t *schema.Table) []*schema.Column {
	cols := make([]*schema.Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.AutoIncrement {
			cols = append(cols, c)
		}
	}
	return cols
}

func insertStatement(t *schema.Table, cols []*schema.Column) *sql.InsertBuilder {
	ins := sql.Insert(t.Name)
	if len(cols) == 0 {
		return ins.Default()
	}
	names := make([]string, len(cols))
	markers := make([]any, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		markers[i] = c
	}
	return ins.Columns(names...).Values(markers...)
}

// InsertNode inserts the struct pointed to by v. The generated rowid is
// stored back into the autoincrement key, if the table has one.
func InsertNode(ctx context.Context, q dialect.ExecQuerier, c *StmtCache, t *schema.Table, v any) (int64, error) {
	sv, err := structValue(t, v)
	if err != nil {
		return 0, err
	}
	st, err := c.Get(StmtKey{Op: OpInsert, Table: t}, func() (*Statement, error) {
		return newStatement(insertStatement(t, insertColumns(t)))
	})
	if err != nil {
		return 0, err
	}
	return insert(ctx, q, t, st, sv)
}

func insert(ctx context.Context, q dialect.ExecQuerier, t *schema.Table, st *Statement, sv reflect.Value) (int64, error) {
	args, err := st.BindStruct(sv)
	if err != nil {
		return 0, err
	}
	var res sql.Result
	if err := q.Exec(ctx, st.SQL, args, &res); err != nil {
		return 0, err
	}
	if ai := t.AutoIncrement(); ai != nil {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("sqlgraph: reading last insert id of %s: %w", t.Name, err)
		}
		if err := ai.DecodeField(sv, id); err != nil {
			return 0, err
		}
	}
	return res.RowsAffected()
}

// UpsertNode inserts the struct pointed to by v, or overwrites the non-key
// columns of the row with the same primary key. A struct whose
// autoincrement key is zero is inserted.
func UpsertNode(ctx context.Context, q dialect.ExecQuerier, c *StmtCache, t *schema.Table, v any) (int64, error) {
	sv, err := structValue(t, v)
	if err != nil {
		return 0, err
	}
	if err := requireKey(t, OpUpsert); err != nil {
		return 0, err
	}
	if ai := t.AutoIncrement(); ai != nil && ai.FieldValue(sv).IsZero() {
		return InsertNode(ctx, q, c, t, v)
	}
	st, err := c.Get(StmtKey{Op: OpUpsert, Table: t}, func() (*Statement, error) {
		ins := insertStatement(t, t.Columns)
		keys := make([]string, len(t.PrimaryKey))
		for i, k := range t.PrimaryKey {
			keys[i] = k.Name
		}
		ins.OnConflict(keys...)
		for _, col := range t.Columns {
			if !col.PrimaryKey {
				ins.UpdateSet(col.Name)
			}
		}
		return newStatement(ins)
	})
	if err != nil {
		return 0, err
	}
	args, err := st.BindStruct(sv)
	if err != nil {
		return 0, err
	}
	return exec(ctx, q, st.SQL, args)
}

// UpdateNode writes the non-key columns of the struct pointed to by v to the
// row with the same primary key. It returns the number of updated rows, 0
// when no row matched. A table made only of key columns sets the keys to
// themselves, so the count still reports whether the row exists.
func UpdateNode(ctx context.Context, q dialect.ExecQuerier, c *StmtCache, t *schema.Table, v any) (int64, error) {
	sv, err := structValue(t, v)
	if err != nil {
		return 0, err
	}
	if err := requireKey(t, OpUpdate); err != nil {
		return 0, err
	}
	st, err := c.Get(StmtKey{Op: OpUpdate, Table: t}, func() (*Statement, error) {
		upd := sql.Update(t.Name)
		for _, col := range t.Columns {
			if !col.PrimaryKey {
				upd.Set(col.Name, col)
			}
		}
		if upd.Empty() {
			for _, col := range t.PrimaryKey {
				upd.Set(col.Name, col)
			}
		}
		return newStatement(upd.Where(keyPredicate(t)))
	})
	if err != nil {
		return 0, err
	}
	args, err := st.BindStruct(sv)
	if err != nil {
		return 0, err
	}
	return exec(ctx, q, st.SQL, args)
}

func deleteByKeyStatement(c *StmtCache, t *schema.Table) (*Statement, error) {
	return c.Get(StmtKey{Op: OpDeleteByKey, Table: t}, func() (*Statement, error) {
		return newStatement(sql.Delete(t.Name).Where(keyPredicate(t)))
	})
}

// DeleteNode deletes the row with the primary key of the struct pointed to
// by v.
func DeleteNode(ctx context.Context, q dialect.ExecQuerier, c *StmtCache, t *schema.Table, v any) (int64, error) {
	sv, err := structValue(t, v)
	if err != nil {
		return 0, err
	}
	if err := requireKey(t, OpDelete); err != nil {
		return 0, err
	}
	st, err := deleteByKeyStatement(c, t)
	if err != nil {
		return 0, err
	}
	args, err := st.BindStruct(sv)
	if err != nil {
		return 0, err
	}
	return exec(ctx, q, st.SQL, args)
}

// DeleteByKey deletes the row with the given primary key values, one per
// key column in declaration order.
func DeleteByKey(ctx context.Context, q dialect.ExecQuerier, c *StmtCache, t *schema.Table, keys ...any) (int64, error) {
	if err := requireKey(t, OpDeleteByKey); err != nil {
		return 0, err
	}
	if len(keys) != len(t.PrimaryKey) {
		return 0, schema.Errorf(t.Name, "", "primary key has %d columns, got %d values", len(t.PrimaryKey), len(keys))
	}
	st, err := deleteByKeyStatement(c, t)
	if err != nil {
		return 0, err
	}
	args, err := st.Bind(keys)
	if err != nil {
		return 0, err
	}
	return exec(ctx, q, st.SQL, args)
}

// DeleteAll deletes every row of the table.
func DeleteAll(ctx context.Context, q dialect.ExecQuerier, c *StmtCache, t *schema.Table) (int64, error) {
	st, err := c.Get(StmtKey{Op: OpDeleteAll, Table: t}, func() (*Statement, error) {
		return newStatement(sql.Delete(t.Name))
	})
	if err != nil {
		return 0, err
	}
	return exec(ctx, q, st.SQL, []any{})
}

// KeySpec returns a query matching the row with the given primary key
// values.
func KeySpec(t *schema.Table, keys ...any) (*QuerySpec, error) {
	if err := requireKey(t, OpSelect); err != nil {
		return nil, err
	}
	if len(keys) != len(t.PrimaryKey) {
		return nil, schema.Errorf(t.Name, "", "primary key has %d columns, got %d values", len(t.PrimaryKey), len(keys))
	}
	spec := &QuerySpec{Table: t}
	for i, c := range t.PrimaryKey {
		spec.Predicates = append(spec.Predicates, Predicate{Column: c.Name, Op: OpEQ, Values: []any{keys[i]}})
	}
	return spec, nil
}

// InsertNodes inserts every struct of the slice pointed to by vs, or of the
// slice of struct pointers, with one cached statement.
func InsertNodes(ctx context.Context, q dialect.ExecQuerier, c *StmtCache, t *schema.Table, vs reflect.Value) (int64, error) {
	st, err := c.Get(StmtKey{Op: OpInsert, Table: t}, func() (*Statement, error) {
		return newStatement(insertStatement(t, insertColumns(t)))
	})
	if err != nil {
		return 0, err
	}
	var total int64
	for i := range vs.Len() {
		ev := vs.Index(i)
		if ev.Kind() == reflect.Pointer {
			if ev.IsNil() {
				return total, schema.Errorf(t.Name, "", "nil element at index %d", i)
			}
			ev = ev.Elem()
		}
		if ev.Type() != t.Type {
			return total, schema.Errorf(t.Name, "", "element %d has type %s, expected %s", i, ev.Type(), t.Type)
		}
		n, err := insert(ctx, q, t, st, ev)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
