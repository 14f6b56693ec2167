package sql

import (
	"errors"
	"fmt"
	"strings"
)

// Querier wraps the basic Query method that is implemented
// by the different builders in this file.
type Querier interface {
	// Query returns the query representation of the element
	// and its arguments (if any).
	Query() (string, []any)
}

// Builder is the base query builder for the sql dsl.
type Builder struct {
	sb   *strings.Builder // underlying builder.
	args []any            // query parameters.
	errs []error          // errors that added during the query construction.
}

// Quote quotes the given identifier with double quotes, doubling any embedded quote.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Quote quotes the given identifier with the characters based
// on the configured dialect. It defaults to double quotes.
func (b *Builder) Quote(ident string) string {
	return Quote(ident)
}

// Ident appends the given string as a quoted identifier. Only "*" is
// written as is.
func (b *Builder) Ident(s string) *Builder {
	switch {
	case len(s) == 0:
	case s == "*":
		b.WriteString(s)
	default:
		b.WriteString(b.Quote(s))
	}
	return b
}

// expr appends a selected column. Function calls and the quoted names
// returned by SelectTable.C are written as is.
func (b *Builder) expr(s string) *Builder {
	if isFunc(s) || isQuoted(s) {
		return b.WriteString(s)
	}
	return b.Ident(s)
}

// IdentComma calls Ident on all arguments and adds a comma between them.
func (b *Builder) IdentComma(s ...string) *Builder {
	for i := range s {
		if i > 0 {
			b.Comma()
		}
		b.Ident(s[i])
	}
	return b
}

// String returns the accumulated string.
func (b *Builder) String() string {
	if b.sb == nil {
		return ""
	}
	return b.sb.String()
}

// WriteByte wraps the Buffer.WriteByte to make it chainable with other methods.
func (b *Builder) WriteByte(c byte) *Builder {
	if b.sb == nil {
		b.sb = &strings.Builder{}
	}
	b.sb.WriteByte(c)
	return b
}

// WriteString wraps the Buffer.WriteString to make it chainable with other methods.
func (b *Builder) WriteString(s string) *Builder {
	if b.sb == nil {
		b.sb = &strings.Builder{}
	}
	b.sb.WriteString(s)
	return b
}

// Len returns the number of accumulated bytes.
func (b *Builder) Len() int {
	if b.sb == nil {
		return 0
	}
	return b.sb.Len()
}

// Reset resets the Builder to be empty.
func (b *Builder) Reset() *Builder {
	if b.sb != nil {
		b.sb.Reset()
	}
	b.args = nil
	return b
}

// AddError appends an error to the builder errors.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Err returns a concatenated error of all errors encountered during
// the query-building, or were added manually by calling AddError.
func (b *Builder) Err() error {
	return errors.Join(b.errs...)
}

// Comma adds a comma to the query.
func (b *Builder) Comma() *Builder {
	return b.WriteString(", ")
}

// Pad adds a space to the query.
func (b *Builder) Pad() *Builder {
	return b.WriteByte(' ')
}

// Arg appends an input argument to the builder.
func (b *Builder) Arg(a any) *Builder {
	b.args = append(b.args, a)
	return b.WriteByte('?')
}

// Args appends a list of arguments to the builder.
func (b *Builder) Args(a ...any) *Builder {
	for i := range a {
		if i > 0 {
			b.Comma()
		}
		b.Arg(a[i])
	}
	return b
}

// Join joins a list of Queries to the builder.
func (b *Builder) Join(qs ...Querier) *Builder {
	for i := range qs {
		query, args := qs[i].Query()
		b.WriteString(query)
		b.args = append(b.args, args...)
		if e, ok := qs[i].(interface{ Err() error }); ok {
			b.AddError(e.Err())
		}
	}
	return b
}

// Wrap gets a callback, and wraps its result with parentheses.
func (b *Builder) Wrap(f func(*Builder)) *Builder {
	b.WriteByte('(')
	f(b)
	return b.WriteByte(')')
}

// Query implements the Querier interface.
func (b *Builder) Query() (string, []any) {
	return b.String(), b.args
}

func isFunc(s string) bool {
	return strings.Contains(s, "(") && strings.Contains(s, ")")
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

// Predicate is a where predicate.
type Predicate struct {
	Builder
	fns []func(*Builder)
}

// P creates a new predicate from the given writer callbacks.
//
//	P(func(b *Builder) {
//		b.Ident("name").WriteString(" = ").Arg("a8m")
//	})
func P(fns ...func(*Builder)) *Predicate {
	return &Predicate{fns: fns}
}

// Append appends a new function to the predicate callbacks.
func (p *Predicate) Append(f func(*Builder)) *Predicate {
	p.fns = append(p.fns, f)
	return p
}

// Query returns query representation of a predicate.
func (p *Predicate) Query() (string, []any) {
	if p.Len() > 0 || len(p.args) > 0 {
		p.Reset()
	}
	for _, f := range p.fns {
		f(&p.Builder)
	}
	return p.String(), p.args
}

func binary(col, op string, v any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" " + op + " ").Arg(v)
	})
}

// EQ returns a "=" predicate.
func EQ(col string, v any) *Predicate { return binary(col, "=", v) }

// NEQ returns a "<>" predicate.
func NEQ(col string, v any) *Predicate { return binary(col, "<>", v) }

// LT returns a "<" predicate.
func LT(col string, v any) *Predicate { return binary(col, "<", v) }

// LTE returns a "<=" predicate.
func LTE(col string, v any) *Predicate { return binary(col, "<=", v) }

// GT returns a ">" predicate.
func GT(col string, v any) *Predicate { return binary(col, ">", v) }

// GTE returns a ">=" predicate.
func GTE(col string, v any) *Predicate { return binary(col, ">=", v) }

// Like returns a "LIKE" predicate.
func Like(col, pattern string) *Predicate { return binary(col, "LIKE", pattern) }

// IsNull returns an "IS NULL" predicate.
func IsNull(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" IS NULL")
	})
}

// NotNull returns an "IS NOT NULL" predicate.
func NotNull(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" IS NOT NULL")
	})
}

// In returns the "IN" predicate. An empty list never matches.
func In(col string, args ...any) *Predicate {
	return P(func(b *Builder) {
		if len(args) == 0 {
			b.WriteString("FALSE")
			return
		}
		b.Ident(col).WriteString(" IN ").Wrap(func(b *Builder) { b.Args(args...) })
	})
}

// NotIn returns the "NOT IN" predicate. An empty list always matches.
func NotIn(col string, args ...any) *Predicate {
	return P(func(b *Builder) {
		if len(args) == 0 {
			b.WriteString("TRUE")
			return
		}
		b.Ident(col).WriteString(" NOT IN ").Wrap(func(b *Builder) { b.Args(args...) })
	})
}

// And combines all given predicates with AND between them.
func And(preds ...*Predicate) *Predicate {
	return P(func(b *Builder) {
		for i, p := range preds {
			if i > 0 {
				b.WriteString(" AND ")
			}
			b.Join(p)
		}
	})
}

// Or combines all given predicates with OR between them.
func Or(preds ...*Predicate) *Predicate {
	return P(func(b *Builder) {
		b.Wrap(func(b *Builder) {
			for i, p := range preds {
				if i > 0 {
					b.WriteString(" OR ")
				}
				b.Join(p)
			}
		})
	})
}

// Not wraps the given predicate with the not predicate.
func Not(pred *Predicate) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("NOT ").Wrap(func(b *Builder) { b.Join(pred) })
	})
}

// SelectTable is a table selector.
type SelectTable struct {
	name string
}

// Table returns a new table selector.
//
//	t1 := Table("users")
//	Select(t1.C("name"))
func Table(name string) *SelectTable {
	return &SelectTable{name: name}
}

// C returns a formatted string for the table column.
func (s *SelectTable) C(column string) string {
	return Quote(s.name) + "." + Quote(column)
}

// Name returns the table name.
func (s *SelectTable) Name() string { return s.name }

// Asc adds the ASC suffix for the given column.
func Asc(column string) string {
	return Quote(column) + " ASC"
}

// Desc adds the DESC suffix for the given column.
func Desc(column string) string {
	return Quote(column) + " DESC"
}

// Selector is a builder for the `SELECT` statement.
type Selector struct {
	Builder
	columns []string
	count   bool
	from    *SelectTable
	where   *Predicate
	order   []string
	limit   *int
	offset  *int
}

// Select returns a new selector for the `SELECT` statement. Selecting
// no columns means all columns.
//
//	t1 := Table("users")
//	s := Select(t1.C("name"))
func Select(columns ...string) *Selector {
	return &Selector{columns: columns}
}

// Count sets the Select statement to be a `SELECT COUNT(*)`.
func (s *Selector) Count() *Selector {
	s.count = true
	return s
}

// From sets the source of `FROM` clause.
func (s *Selector) From(t *SelectTable) *Selector {
	s.from = t
	return s
}

// Where sets or appends the given predicate to the statement.
func (s *Selector) Where(p *Predicate) *Selector {
	if s.where != nil {
		s.where = And(s.where, p)
	} else {
		s.where = p
	}
	return s
}

// OrderBy appends the `ORDER BY` clause to the `SELECT` statement.
// Plain column names are quoted. Use Asc/Desc for explicit directions.
func (s *Selector) OrderBy(columns ...string) *Selector {
	s.order = append(s.order, columns...)
	return s
}

// Limit adds the `LIMIT` clause to the `SELECT` statement.
func (s *Selector) Limit(limit int) *Selector {
	s.limit = &limit
	return s
}

// Offset adds the `OFFSET` clause to the `SELECT` statement.
func (s *Selector) Offset(offset int) *Selector {
	s.offset = &offset
	return s
}

// Query returns query representation of a `SELECT` statement.
func (s *Selector) Query() (string, []any) {
	b := s.Builder.Reset()
	b.WriteString("SELECT ")
	switch {
	case s.count:
		b.WriteString("COUNT(*)")
	case len(s.columns) == 0:
		b.WriteByte('*')
	default:
		for i, c := range s.columns {
			if i > 0 {
				b.Comma()
			}
			b.expr(c)
		}
	}
	if s.from == nil {
		b.AddError(fmt.Errorf("sql: missing FROM clause"))
	} else {
		b.WriteString(" FROM ").Ident(s.from.name)
	}
	if s.where != nil {
		b.WriteString(" WHERE ").Join(s.where)
	}
	if len(s.order) > 0 {
		b.WriteString(" ORDER BY ")
		for i, c := range s.order {
			if i > 0 {
				b.Comma()
			}
			if strings.HasSuffix(c, " ASC") || strings.HasSuffix(c, " DESC") {
				b.WriteString(c)
			} else {
				b.Ident(c)
			}
		}
	}
	switch {
	case s.limit != nil:
		b.WriteString(" LIMIT ").Arg(*s.limit)
	case s.offset != nil:
		// SQLite requires LIMIT before OFFSET.
		b.WriteString(" LIMIT -1")
	}
	if s.offset != nil {
		b.WriteString(" OFFSET ").Arg(*s.offset)
	}
	return b.String(), b.args
}

// InsertBuilder is a builder for `INSERT INTO` statement.
type InsertBuilder struct {
	Builder
	table     string
	columns   []string
	defaults  bool
	values    [][]any
	conflict  []string
	updateSet []string
	nothing   bool
}

// Insert creates a builder for the `INSERT INTO` statement.
//
//	Insert("users").
//		Columns("name", "age").
//		Values("a8m", 10).
//		Values("foo", 20)
//
// Note: Insert inserts all values in one batch.
func Insert(table string) *InsertBuilder { return &InsertBuilder{table: table} }

// Columns appends columns to the INSERT statement.
func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = append(i.columns, columns...)
	return i
}

// Values appends a value tuple for the insert statement.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.values = append(i.values, values)
	return i
}

// Default sets the default values clause based on the dialect type.
func (i *InsertBuilder) Default() *InsertBuilder {
	i.defaults = true
	return i
}

// OnConflict sets the conflict target of an upsert. Columns listed in
// UpdateSet are overwritten with the excluded row; with no update
// columns the conflict is ignored.
func (i *InsertBuilder) OnConflict(target ...string) *InsertBuilder {
	i.conflict = target
	return i
}

// UpdateSet lists the columns an upsert overwrites on conflict.
func (i *InsertBuilder) UpdateSet(columns ...string) *InsertBuilder {
	i.updateSet = append(i.updateSet, columns...)
	return i
}

// DoNothing ignores conflicting rows.
func (i *InsertBuilder) DoNothing() *InsertBuilder {
	i.nothing = true
	return i
}

// Query returns query representation of an `INSERT INTO` statement.
func (i *InsertBuilder) Query() (string, []any) {
	b := i.Builder.Reset()
	b.WriteString("INSERT INTO ").Ident(i.table).Pad()
	if i.defaults && len(i.columns) == 0 {
		b.WriteString("DEFAULT VALUES")
	} else {
		b.Wrap(func(b *Builder) { b.IdentComma(i.columns...) })
		b.WriteString(" VALUES ")
		for j, v := range i.values {
			if j > 0 {
				b.Comma()
			}
			b.Wrap(func(b *Builder) { b.Args(v...) })
		}
	}
	if len(i.conflict) > 0 {
		b.WriteString(" ON CONFLICT ").Wrap(func(b *Builder) { b.IdentComma(i.conflict...) })
		if i.nothing || len(i.updateSet) == 0 {
			b.WriteString(" DO NOTHING")
		} else {
			b.WriteString(" DO UPDATE SET ")
			for j, c := range i.updateSet {
				if j > 0 {
					b.Comma()
				}
				b.Ident(c).WriteString(" = ").WriteString("excluded.").Ident(c)
			}
		}
	}
	return b.String(), b.args
}

// UpdateBuilder is a builder for `UPDATE` statement.
type UpdateBuilder struct {
	Builder
	table   string
	columns []string
	values  []any
	where   *Predicate
}

// Update creates a builder for the `UPDATE` statement.
//
//	Update("users").Set("name", "foo").Set("age", 10)
func Update(table string) *UpdateBuilder { return &UpdateBuilder{table: table} }

// Set sets a column to a given value.
func (u *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	u.columns = append(u.columns, column)
	u.values = append(u.values, v)
	return u
}

// Where adds a where predicate for update statement.
func (u *UpdateBuilder) Where(p *Predicate) *UpdateBuilder {
	if u.where != nil {
		u.where = And(u.where, p)
	} else {
		u.where = p
	}
	return u
}

// Empty reports whether this builder does not contain update changes.
func (u *UpdateBuilder) Empty() bool {
	return len(u.columns) == 0
}

// Query returns query representation of an `UPDATE` statement.
func (u *UpdateBuilder) Query() (string, []any) {
	b := u.Builder.Reset()
	b.WriteString("UPDATE ").Ident(u.table).WriteString(" SET ")
	for i, c := range u.columns {
		if i > 0 {
			b.Comma()
		}
		b.Ident(c).WriteString(" = ").Arg(u.values[i])
	}
	if u.where != nil {
		b.WriteString(" WHERE ").Join(u.where)
	}
	return b.String(), b.args
}

// DeleteBuilder is a builder for `DELETE` statement.
type DeleteBuilder struct {
	Builder
	table string
	where *Predicate
}

// Delete creates a builder for the `DELETE` statement.
//
//	Delete("users").
//		Where(
//			Or(
//				And(EQ("name", "foo"), EQ("age", 10)),
//				And(EQ("name", "bar"), EQ("age", 20)),
//			),
//		)
func Delete(table string) *DeleteBuilder { return &DeleteBuilder{table: table} }

// Where appends a where predicate to the `DELETE` statement.
func (d *DeleteBuilder) Where(p *Predicate) *DeleteBuilder {
	if d.where != nil {
		d.where = And(d.where, p)
	} else {
		d.where = p
	}
	return d
}

// Query returns query representation of a `DELETE` statement.
func (d *DeleteBuilder) Query() (string, []any) {
	b := d.Builder.Reset()
	b.WriteString("DELETE FROM ").Ident(d.table)
	if d.where != nil {
		b.WriteString(" WHERE ").Join(d.where)
	}
	return b.String(), b.args
}

// Raw returns a raw SQL query that is placed as-is in the query.
func Raw(s string) Querier { return &raw{s} }

type raw struct{ s string }

func (r *raw) Query() (string, []any) { return r.s, nil }
