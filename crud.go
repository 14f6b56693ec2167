package litemap

import (
	"context"
	"fmt"
	"reflect"

	"github.com/syssam/litemap/dialect"
	"github.com/syssam/litemap/dialect/sql/sqlgraph"
	"github.com/syssam/litemap/schema"
)

// Insert inserts obj, a pointer to a mapped struct, and returns the number
// of inserted rows. A generated autoincrement key is stored into obj.
func (s *session) Insert(ctx context.Context, obj any) (int64, error) {
	tbl, err := s.tableOf(obj)
	if err != nil {
		return 0, err
	}
	n, err := sqlgraph.InsertNode(ctx, s.q, s.stmts, tbl, obj)
	if err != nil {
		return 0, wrapError(tbl.Name, "insert", true, err)
	}
	return n, nil
}

// InsertAll inserts every element of objs, a slice of structs or of struct
// pointers, and stops at the first failure. Outside a transaction the
// inserts run in one, so a failure inserts nothing.
func (s *session) InsertAll(ctx context.Context, objs any) (int64, error) {
	rv := reflect.ValueOf(objs)
	if rv.Kind() != reflect.Slice {
		return 0, schema.Errorf("", "", "InsertAll expects a slice, got %T", objs)
	}
	if rv.Len() == 0 {
		return 0, nil
	}
	tbl, err := s.table(rv.Type())
	if err != nil {
		return 0, err
	}
	var n int64
	err = s.atomic(ctx, func(q dialect.ExecQuerier) error {
		n, err = sqlgraph.InsertNodes(ctx, q, s.stmts, tbl, rv)
		return err
	})
	if err != nil {
		return 0, wrapError(tbl.Name, "insert", true, err)
	}
	return n, nil
}

// Update writes the non-key columns of obj to the row with the same primary
// key and returns the number of updated rows. A missing row is not an
// error; it reports 0. Tables without a primary key fail with a
// SchemaError.
func (s *session) Update(ctx context.Context, obj any) (int64, error) {
	return s.mutate(ctx, obj, "update", sqlgraph.UpdateNode)
}

// Upsert inserts obj, or overwrites the row with the same primary key.
func (s *session) Upsert(ctx context.Context, obj any) (int64, error) {
	return s.mutate(ctx, obj, "upsert", sqlgraph.UpsertNode)
}

// Delete deletes the row with the primary key of obj and returns the number
// of deleted rows.
func (s *session) Delete(ctx context.Context, obj any) (int64, error) {
	return s.mutate(ctx, obj, "delete", sqlgraph.DeleteNode)
}

type nodeFunc func(context.Context, dialect.ExecQuerier, *sqlgraph.StmtCache, *schema.Table, any) (int64, error)

func (s *session) mutate(ctx context.Context, obj any, op string, fn nodeFunc) (int64, error) {
	tbl, err := s.tableOf(obj)
	if err != nil {
		return 0, err
	}
	n, err := fn(ctx, s.q, s.stmts, tbl, obj)
	if err != nil {
		return 0, wrapError(tbl.Name, op, true, err)
	}
	return n, nil
}

// DeleteByKey deletes the row of the table of sample with the given primary
// key values, one per key column.
func (s *session) DeleteByKey(ctx context.Context, sample any, keys ...any) (int64, error) {
	tbl, err := s.tableOf(sample)
	if err != nil {
		return 0, err
	}
	n, err := sqlgraph.DeleteByKey(ctx, s.q, s.stmts, tbl, keys...)
	if err != nil {
		return 0, wrapError(tbl.Name, "delete", true, err)
	}
	return n, nil
}

// DeleteAll deletes every row of the table of sample.
func (s *session) DeleteAll(ctx context.Context, sample any) (int64, error) {
	tbl, err := s.tableOf(sample)
	if err != nil {
		return 0, err
	}
	n, err := sqlgraph.DeleteAll(ctx, s.q, s.stmts, tbl)
	if err != nil {
		return 0, wrapError(tbl.Name, "delete all", true, err)
	}
	return n, nil
}

// Get returns the row of T with the given primary key, or a NotFoundError.
func Get[T any](ctx context.Context, c Conn, keys ...any) (*T, error) {
	v, err := Find[T](ctx, c, keys...)
	if err != nil {
		return nil, err
	}
	if v == nil {
		var id any = keys
		if len(keys) == 1 {
			id = keys[0]
		}
		return nil, NewNotFoundErrorWithID(Table[T](c).table.Name, id)
	}
	return v, nil
}

// Find returns the row of T with the given primary key, or nil when there
// is none.
func Find[T any](ctx context.Context, c Conn, keys ...any) (*T, error) {
	q := Table[T](c)
	if q.err != nil {
		return nil, q.err
	}
	spec, err := sqlgraph.KeySpec(q.table, keys...)
	if err != nil {
		return nil, err
	}
	return q.Where(keyPredicates(spec)...).FirstOrDefault(ctx)
}

func keyPredicates(spec *sqlgraph.QuerySpec) []Predicate {
	ps := make([]Predicate, len(spec.Predicates))
	for i, p := range spec.Predicates {
		ps[i] = Predicate{p: p}
	}
	return ps
}

// txStarter is implemented by drivers that can open a transaction.
type txStarter interface {
	Tx(context.Context) (dialect.Tx, error)
}

// atomic runs fn in a transaction when the session is not already in one.
func (s *session) atomic(ctx context.Context, fn func(dialect.ExecQuerier) error) error {
	ts, ok := s.q.(txStarter)
	if s.tx || !ok {
		return fn(s.q)
	}
	tx, err := ts.Tx(ctx)
	if err != nil {
		return fmt.Errorf("starting a transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: %w", err, &RollbackError{Err: rerr})
		}
		return err
	}
	return tx.Commit()
}
