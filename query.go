package litemap

import (
	"context"
	"iter"
	"reflect"
	"slices"

	"github.com/syssam/litemap/dialect/sql/sqlgraph"
	"github.com/syssam/litemap/schema"
)

// Query is an immutable query over the table of T. Every builder method
// returns a new query, so a base query can be shared and extended
// concurrently.
type Query[T any] struct {
	s      *session
	table  *schema.Table
	err    error
	preds  []sqlgraph.Predicate
	order  []sqlgraph.Order
	limit  *int
	offset *int
}

// Table starts a query over the table of T.
//
//	lines, err := litemap.Table[OrderLine](db).
//		Where(litemap.EQ("OrderId", 7)).
//		OrderByDesc("Quantity").
//		All(ctx)
func Table[T any](c Conn) *Query[T] {
	s := c.conn()
	tbl, err := s.table(reflect.TypeFor[T]())
	return &Query[T]{s: s, table: tbl, err: err}
}

func (q *Query[T]) clone() *Query[T] {
	c := *q
	c.preds = slices.Clip(q.preds)
	c.order = slices.Clip(q.order)
	return &c
}

// Where adds predicates to the query.
func (q *Query[T]) Where(ps ...Predicate) *Query[T] {
	c := q.clone()
	for _, p := range ps {
		c.preds = append(c.preds, p.p)
	}
	return c
}

// OrderBy appends ascending order terms.
func (q *Query[T]) OrderBy(columns ...string) *Query[T] {
	c := q.clone()
	for _, col := range columns {
		c.order = append(c.order, sqlgraph.Order{Column: col})
	}
	return c
}

// OrderByDesc appends descending order terms.
func (q *Query[T]) OrderByDesc(columns ...string) *Query[T] {
	c := q.clone()
	for _, col := range columns {
		c.order = append(c.order, sqlgraph.Order{Column: col, Desc: true})
	}
	return c
}

// Limit limits the number of returned rows.
func (q *Query[T]) Limit(n int) *Query[T] {
	c := q.clone()
	c.limit = &n
	return c
}

// Offset skips the first n rows.
func (q *Query[T]) Offset(n int) *Query[T] {
	c := q.clone()
	c.offset = &n
	return c
}

func (q *Query[T]) spec() *sqlgraph.QuerySpec {
	return &sqlgraph.QuerySpec{
		Table:      q.table,
		Predicates: q.preds,
		Order:      q.order,
		Limit:      q.limit,
		Offset:     q.offset,
	}
}

func (q *Query[T]) query(ctx context.Context, op string, each func(*T) bool) error {
	if q.err != nil {
		return q.err
	}
	err := sqlgraph.QueryNodes(ctx, q.s.q, q.s.stmts, q.spec(), func(v reflect.Value) (bool, error) {
		return each(v.Interface().(*T)), nil
	})
	return wrapError(q.table.Name, op, false, err)
}

// All returns all matching rows.
func (q *Query[T]) All(ctx context.Context) ([]*T, error) {
	var rows []*T
	if err := q.query(ctx, "select", func(v *T) bool {
		rows = append(rows, v)
		return true
	}); err != nil {
		return nil, err
	}
	return rows, nil
}

// Iter returns a sequence over the matching rows. Every range issues the
// query again. The result is read before the first row is yielded, so the
// loop body may write through the same DB. A failure is yielded once as a
// nil row with its error.
func (q *Query[T]) Iter(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		stopped := false
		err := q.query(ctx, "select", func(v *T) bool {
			if !yield(v, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil && !stopped {
			yield(nil, err)
		}
	}
}

// First returns the first matching row, or a NotFoundError.
func (q *Query[T]) First(ctx context.Context) (*T, error) {
	v, err := q.FirstOrDefault(ctx)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, NewNotFoundError(q.table.Name)
	}
	return v, nil
}

// FirstOrDefault returns the first matching row, or nil when there is none.
func (q *Query[T]) FirstOrDefault(ctx context.Context) (*T, error) {
	var first *T
	err := q.Limit(1).query(ctx, "first", func(v *T) bool {
		first = v
		return false
	})
	if err != nil {
		return nil, err
	}
	return first, nil
}

// Count returns the number of matching rows. Order, limit and offset are
// ignored.
func (q *Query[T]) Count(ctx context.Context) (int, error) {
	if q.err != nil {
		return 0, q.err
	}
	n, err := sqlgraph.CountNodes(ctx, q.s.q, q.s.stmts, q.spec())
	if err != nil {
		return 0, wrapError(q.table.Name, "count", false, err)
	}
	return int(n), nil
}

// Exist reports whether any row matches.
func (q *Query[T]) Exist(ctx context.Context) (bool, error) {
	found := false
	err := q.Limit(1).query(ctx, "exist", func(*T) bool {
		found = true
		return false
	})
	return found, err
}

// Delete deletes the matching rows and returns their number. Queries with
// a limit or offset cannot be deleted.
func (q *Query[T]) Delete(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	n, err := sqlgraph.DeleteNodes(ctx, q.s.q, q.s.stmts, q.spec())
	if err != nil {
		return 0, wrapError(q.table.Name, "delete", true, err)
	}
	return n, nil
}
