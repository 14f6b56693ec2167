package sqlgraph

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/syssam/litemap/dialect"
	"github.com/syssam/litemap/dialect/sql"
	"github.com/syssam/litemap/schema"
)

// PredOp is a comparison operator of a query predicate.
type PredOp string

// Predicate operators.
const (
	OpEQ      PredOp = "="
	OpNEQ     PredOp = "<>"
	OpLT      PredOp = "<"
	OpLTE     PredOp = "<="
	OpGT      PredOp = ">"
	OpGTE     PredOp = ">="
	OpLike    PredOp = "LIKE"
	OpIsNull  PredOp = "IS NULL"
	OpNotNull PredOp = "IS NOT NULL"
	OpIn      PredOp = "IN"
	OpNotIn   PredOp = "NOT IN"
)

// arity returns the number of values the operator binds, or -1 for a list.
func (o PredOp) arity() int {
	switch o {
	case OpIsNull, OpNotNull:
		return 0
	case OpIn, OpNotIn:
		return -1
	default:
		return 1
	}
}

// Predicate compares one column to bound values.
type Predicate struct {
	Column string
	Op     PredOp
	Values []any
}

// Order is one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// QuerySpec describes a filtered read or delete of one table. Predicates
// are conjoined.
type QuerySpec struct {
	Table      *schema.Table
	Predicates []Predicate
	Order      []Order
	Limit      *int
	Offset     *int
}

// shape returns the cache key shape of the query. Two queries with the same
// shape render the same SQL.
func (s *QuerySpec) shape() string {
	var b strings.Builder
	for _, p := range s.Predicates {
		b.WriteString(strings.ToLower(p.Column))
		b.WriteByte(' ')
		b.WriteString(string(p.Op))
		if p.Op.arity() < 0 {
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(len(p.Values)))
		}
		b.WriteByte(';')
	}
	b.WriteByte('|')
	for _, o := range s.Order {
		b.WriteString(strings.ToLower(o.Column))
		if o.Desc {
			b.WriteString(" desc")
		}
		b.WriteByte(';')
	}
	if s.Limit != nil {
		b.WriteString("|limit")
	}
	if s.Offset != nil {
		b.WriteString("|offset")
	}
	return b.String()
}

// values returns the bound values in placeholder order.
func (s *QuerySpec) values() []any {
	var vs []any
	for _, p := range s.Predicates {
		vs = append(vs, p.Values...)
	}
	if s.Limit != nil {
		vs = append(vs, *s.Limit)
	}
	if s.Offset != nil {
		vs = append(vs, *s.Offset)
	}
	return vs
}

func (s *QuerySpec) column(name string) (*schema.Column, error) {
	c, ok := s.Table.Column(name)
	if !ok {
		return nil, schema.Errorf(s.Table.Name, name, "unknown column")
	}
	return c, nil
}

// where renders the conjoined predicates with column markers as arguments.
func (s *QuerySpec) where() (*sql.Predicate, error) {
	var preds []*sql.Predicate
	for _, p := range s.Predicates {
		c, err := s.column(p.Column)
		if err != nil {
			return nil, err
		}
		if n := p.Op.arity(); n >= 0 && len(p.Values) != n {
			return nil, schema.Errorf(s.Table.Name, c.Name, "operator %s takes %d values, got %d", p.Op, n, len(p.Values))
		}
		markers := make([]any, len(p.Values))
		for i := range markers {
			markers[i] = c
		}
		switch p.Op {
		case OpEQ:
			preds = append(preds, sql.EQ(c.Name, c))
		case OpNEQ:
			preds = append(preds, sql.NEQ(c.Name, c))
		case OpLT:
			preds = append(preds, sql.LT(c.Name, c))
		case OpLTE:
			preds = append(preds, sql.LTE(c.Name, c))
		case OpGT:
			preds = append(preds, sql.GT(c.Name, c))
		case OpGTE:
			preds = append(preds, sql.GTE(c.Name, c))
		case OpLike:
			preds = append(preds, sql.P(func(b *sql.Builder) {
				b.Ident(c.Name).WriteString(" LIKE ").Arg(c)
			}))
		case OpIsNull:
			preds = append(preds, sql.IsNull(c.Name))
		case OpNotNull:
			preds = append(preds, sql.NotNull(c.Name))
		case OpIn:
			preds = append(preds, sql.In(c.Name, markers...))
		case OpNotIn:
			preds = append(preds, sql.NotIn(c.Name, markers...))
		default:
			return nil, schema.Errorf(s.Table.Name, c.Name, "unsupported operator %q", p.Op)
		}
	}
	if len(preds) == 0 {
		return nil, nil
	}
	return sql.And(preds...), nil
}

func (s *QuerySpec) selectStatement(count bool) (*Statement, error) {
	sel := sql.Select().From(sql.Table(s.Table.Name))
	if count {
		sel.Count()
	}
	where, err := s.where()
	if err != nil {
		return nil, err
	}
	if where != nil {
		sel.Where(where)
	}
	if !count {
		for _, o := range s.Order {
			c, err := s.column(o.Column)
			if err != nil {
				return nil, err
			}
			if o.Desc {
				sel.OrderBy(sql.Desc(c.Name))
			} else {
				sel.OrderBy(sql.Asc(c.Name))
			}
		}
		if s.Limit != nil {
			sel.Limit(*s.Limit)
		}
		if s.Offset != nil {
			sel.Offset(*s.Offset)
		}
	}
	return newStatement(sel)
}

func (s *QuerySpec) deleteStatement() (*Statement, error) {
	if s.Limit != nil || s.Offset != nil {
		return nil, schema.Errorf(s.Table.Name, "", "delete does not support limit or offset")
	}
	del := sql.Delete(s.Table.Name)
	where, err := s.where()
	if err != nil {
		return nil, err
	}
	if where != nil {
		del.Where(where)
	}
	return newStatement(del)
}

// Statement returns the statement of the query for op (OpSelect, OpCount or
// OpDelete) from the cache.
func (s *QuerySpec) Statement(c *StmtCache, op Op) (*Statement, []any, error) {
	if s.Table == nil {
		return nil, nil, errors.New("sqlgraph: query without table")
	}
	st, err := c.Get(StmtKey{Op: op, Table: s.Table, Shape: s.shape()}, func() (*Statement, error) {
		switch op {
		case OpSelect:
			return s.selectStatement(false)
		case OpCount:
			return s.selectStatement(true)
		case OpDelete:
			return s.deleteStatement()
		default:
			return nil, fmt.Errorf("sqlgraph: unsupported query op %s", op)
		}
	})
	if err != nil {
		return nil, nil, err
	}
	var values []any
	if op == OpCount || op == OpDelete {
		for _, p := range s.Predicates {
			values = append(values, p.Values...)
		}
	} else {
		values = s.values()
	}
	args, err := st.Bind(values)
	if err != nil {
		return nil, nil, err
	}
	return st, args, nil
}

// QueryNodes runs the select of spec and calls each with a pointer to every
// hydrated row until each returns false. The result set is read and its
// connection released before the first call, so each may write through the
// same driver.
func QueryNodes(ctx context.Context, q dialect.ExecQuerier, c *StmtCache, spec *QuerySpec, each func(reflect.Value) (bool, error)) error {
	st, args, err := spec.Statement(c, OpSelect)
	if err != nil {
		return err
	}
	rows := &sql.Rows{}
	if err := q.Query(ctx, st.SQL, args, rows); err != nil {
		return err
	}
	cols, values, err := sql.ScanValues(rows)
	if err != nil {
		return err
	}
	plan := spec.Table.ScanPlan(cols)
	for _, raw := range values {
		v, err := hydrate(spec.Table, plan, raw)
		if err != nil {
			return err
		}
		more, err := each(v)
		if err != nil || !more {
			return err
		}
	}
	return nil
}

// CountNodes runs the count of spec.
func CountNodes(ctx context.Context, q dialect.ExecQuerier, c *StmtCache, spec *QuerySpec) (int64, error) {
	st, args, err := spec.Statement(c, OpCount)
	if err != nil {
		return 0, err
	}
	rows := &sql.Rows{}
	if err := q.Query(ctx, st.SQL, args, rows); err != nil {
		return 0, err
	}
	return sql.ScanInt64(rows)
}

// DeleteNodes runs the filtered delete of spec and returns the number of
// deleted rows.
func DeleteNodes(ctx context.Context, q dialect.ExecQuerier, c *StmtCache, spec *QuerySpec) (int64, error) {
	st, args, err := spec.Statement(c, OpDelete)
	if err != nil {
		return 0, err
	}
	return exec(ctx, q, st.SQL, args)
}
