package litemap

import "github.com/syssam/litemap/dialect/sql/sqlgraph"

// Predicate compares one column to bound values. Predicates given to
// Query.Where are conjoined. Columns are named by storage name or Go field
// name, case-insensitively.
type Predicate struct {
	p sqlgraph.Predicate
}

func pred(column string, op sqlgraph.PredOp, vs ...any) Predicate {
	return Predicate{p: sqlgraph.Predicate{Column: column, Op: op, Values: vs}}
}

// EQ returns a predicate that checks if the column equals the given value.
func EQ(column string, v any) Predicate { return pred(column, sqlgraph.OpEQ, v) }

// NEQ returns a predicate that checks if the column does not equal the given value.
func NEQ(column string, v any) Predicate { return pred(column, sqlgraph.OpNEQ, v) }

// LT returns a predicate that checks if the column is less than the given value.
func LT(column string, v any) Predicate { return pred(column, sqlgraph.OpLT, v) }

// LTE returns a predicate that checks if the column is less than or equal to the given value.
func LTE(column string, v any) Predicate { return pred(column, sqlgraph.OpLTE, v) }

// GT returns a predicate that checks if the column is greater than the given value.
func GT(column string, v any) Predicate { return pred(column, sqlgraph.OpGT, v) }

// GTE returns a predicate that checks if the column is greater than or equal to the given value.
func GTE(column string, v any) Predicate { return pred(column, sqlgraph.OpGTE, v) }

// Like returns a predicate that matches the column against a LIKE pattern.
func Like(column, pattern string) Predicate { return pred(column, sqlgraph.OpLike, pattern) }

// IsNull returns a predicate that checks if the column is NULL.
func IsNull(column string) Predicate { return pred(column, sqlgraph.OpIsNull) }

// NotNull returns a predicate that checks if the column is not NULL.
func NotNull(column string) Predicate { return pred(column, sqlgraph.OpNotNull) }

// In returns a predicate that checks if the column value is in the given list.
// An empty list matches nothing.
func In(column string, vs ...any) Predicate { return pred(column, sqlgraph.OpIn, vs...) }

// NotIn returns a predicate that checks if the column value is not in the given list.
// An empty list matches everything.
func NotIn(column string, vs ...any) Predicate { return pred(column, sqlgraph.OpNotIn, vs...) }

// Field is a column whose values have type V. It provides type-safe
// predicate methods.
//
//	var Quantity = litemap.Field[int]("Quantity")
//	litemap.Table[OrderLine](db).Where(Quantity.GTE(2))
type Field[V any] string

// Name returns the column name.
func (f Field[V]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f Field[V]) EQ(v V) Predicate { return EQ(string(f), v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f Field[V]) NEQ(v V) Predicate { return NEQ(string(f), v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f Field[V]) LT(v V) Predicate { return LT(string(f), v) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f Field[V]) LTE(v V) Predicate { return LTE(string(f), v) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f Field[V]) GT(v V) Predicate { return GT(string(f), v) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f Field[V]) GTE(v V) Predicate { return GTE(string(f), v) }

// In returns a predicate that checks if the field value is in the given list.
func (f Field[V]) In(vs ...V) Predicate { return In(string(f), anys(vs)...) }

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f Field[V]) NotIn(vs ...V) Predicate { return NotIn(string(f), anys(vs)...) }

// IsNull returns a predicate that checks if the field is NULL.
func (f Field[V]) IsNull() Predicate { return IsNull(string(f)) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f Field[V]) NotNull() Predicate { return NotNull(string(f)) }

// Like returns a predicate that matches the field against a LIKE pattern.
func (f Field[V]) Like(pattern string) Predicate { return Like(string(f), pattern) }

func anys[V any](vs []V) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
