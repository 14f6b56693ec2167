package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Sentinel errors matched by the typed errors of this package.
var (
	// ErrSchema indicates a type that cannot be mapped to a table.
	ErrSchema = errors.New("litemap: invalid schema")
	// ErrData indicates a value that cannot cross the codec.
	ErrData = errors.New("litemap: invalid data")
)

// Error represents a schema derivation or DDL error.
type Error struct {
	Table   string // Table or Go type name
	Column  string // Column name (if applicable)
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("litemap: schema error")
	if e.Table != "" {
		b.WriteString(" on table ")
		b.WriteString(e.Table)
	}
	if e.Column != "" {
		b.WriteString(" column ")
		b.WriteString(e.Column)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the target is ErrSchema.
func (e *Error) Is(target error) bool {
	return target == ErrSchema
}

// Errorf returns a schema Error for the given table and column.
func Errorf(table, column, format string, args ...any) *Error {
	return &Error{Table: table, Column: column, Message: fmt.Sprintf(format, args...)}
}

// DataError represents a value that could not be encoded for, or decoded
// from, the storage engine.
type DataError struct {
	Table  string
	Column string
	Value  any
	Err    error
}

// Error implements the error interface.
func (e *DataError) Error() string {
	return fmt.Sprintf("litemap: data error on %s.%s (value %v): %v", e.Table, e.Column, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *DataError) Unwrap() error {
	return e.Err
}

// Is reports whether the target is ErrData.
func (e *DataError) Is(target error) bool {
	return target == ErrData
}

// Affinity is the storage engine's preferred value category for a column.
type Affinity uint8

// Affinity values.
const (
	AffinityInteger Affinity = iota + 1
	AffinityReal
	AffinityText
	AffinityBlob
	AffinityNumeric
)

// String returns the SQL name of the affinity.
func (a Affinity) String() string {
	switch a {
	case AffinityInteger:
		return "INTEGER"
	case AffinityReal:
		return "REAL"
	case AffinityText:
		return "TEXT"
	case AffinityBlob:
		return "BLOB"
	case AffinityNumeric:
		return "NUMERIC"
	default:
		return "UNKNOWN"
	}
}

// DetermineAffinity determines the type affinity from a declared column type,
// following the SQLite rules (https://sqlite.org/datatype3.html):
//
//  1. contains "INT" -> INTEGER
//  2. contains "CHAR", "CLOB" or "TEXT" -> TEXT
//  3. contains "BLOB" or empty -> BLOB
//  4. contains "REAL", "FLOA" or "DOUB" -> REAL
//  5. otherwise NUMERIC
func DetermineAffinity(typeName string) Affinity {
	if typeName == "" {
		return AffinityBlob
	}
	upper := strings.ToUpper(typeName)
	switch {
	case strings.Contains(upper, "INT"):
		return AffinityInteger
	case strings.Contains(upper, "CHAR"), strings.Contains(upper, "CLOB"), strings.Contains(upper, "TEXT"):
		return AffinityText
	case strings.Contains(upper, "BLOB"):
		return AffinityBlob
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "FLOA"), strings.Contains(upper, "DOUB"):
		return AffinityReal
	default:
		return AffinityNumeric
	}
}

// FTS selects a full-text-search virtual table module.
type FTS uint8

// Full-text-search modules.
const (
	FTSNone FTS = iota
	FTS3
	FTS4
	FTS5
)

// Module returns the module name used in CREATE VIRTUAL TABLE.
func (f FTS) Module() string {
	switch f {
	case FTS3:
		return "fts3"
	case FTS4:
		return "fts4"
	case FTS5:
		return "fts5"
	default:
		return ""
	}
}

// Flags configures how a type is described and created.
type Flags uint32

// Create flags.
const (
	// FlagNone uses only what the struct declares.
	FlagNone Flags = 0
	// FlagImplicitPK makes a column named "Id" the primary key when none is declared.
	FlagImplicitPK Flags = 1 << iota
	// FlagImplicitIndex indexes non-key columns whose name ends in "Id".
	FlagImplicitIndex
	// FlagAutoIncPK makes an integer primary key autoincrement.
	FlagAutoIncPK
	// FlagFullTextSearch3 creates an FTS3 virtual table.
	FlagFullTextSearch3
	// FlagFullTextSearch4 creates an FTS4 virtual table.
	FlagFullTextSearch4
	// FlagFullTextSearch5 creates an FTS5 virtual table.
	FlagFullTextSearch5
	// FlagWithoutRowID creates a WITHOUT ROWID table.
	FlagWithoutRowID

	// FlagAllImplicit combines the implicit key, index and autoincrement flags.
	FlagAllImplicit = FlagImplicitPK | FlagImplicitIndex | FlagAutoIncPK
)

// Has reports whether all bits of o are set.
func (f Flags) Has(o Flags) bool { return o != 0 && f&o == o }

// fts returns the FTS module requested by the flags.
func (f Flags) fts() (FTS, int) {
	var (
		m FTS
		n int
	)
	for _, c := range []struct {
		flag Flags
		fts  FTS
	}{{FlagFullTextSearch3, FTS3}, {FlagFullTextSearch4, FTS4}, {FlagFullTextSearch5, FTS5}} {
		if f.Has(c.flag) {
			m = c.fts
			n++
		}
	}
	return m, n
}

// Config holds table-level settings a type may declare by implementing Configer.
type Config struct {
	// Table overrides the table name.
	Table string
	// WithoutRowID creates the table WITHOUT ROWID. It requires a primary key.
	WithoutRowID bool
	// FTS creates the table as a full-text-search virtual table.
	FTS FTS
}

// Configer is implemented by types that override table-level settings.
type Configer interface {
	Config() Config
}

// Column describes one mapped struct field.
type Column struct {
	// Name is the storage name of the column.
	Name string
	// Field is the Go field name.
	Field string
	// FieldIndex is the reflect index path of the field.
	FieldIndex []int
	// Type is the Go type of the field.
	Type reflect.Type
	// Affinity is the semantic storage affinity.
	Affinity Affinity
	// SQLType is the declared column type.
	SQLType       string
	Nullable      bool
	PrimaryKey    bool
	AutoIncrement bool
	Unique        bool
	// Default is written as-is after DEFAULT when not empty.
	Default   string
	Collation string
	// Size is the declared maximum length, 0 means unbounded.
	Size int

	kind  kind
	ptr   bool
	enum  map[int64]struct{}
	table string
}

// Enum reports whether the column holds a declared enumeration.
func (c *Column) Enum() bool { return c.enum != nil }

// IndexColumn is one column of an index.
type IndexColumn struct {
	Column *Column
	Desc   bool
}

// Index describes a CREATE INDEX statement.
type Index struct {
	Name    string
	Unique  bool
	Columns []IndexColumn
}

// Table is the immutable description of a mapped type.
type Table struct {
	// Name is the table name.
	Name string
	// Type is the described struct type.
	Type reflect.Type
	// Columns are in declaration order.
	Columns []*Column
	// PrimaryKey columns in declaration order.
	PrimaryKey   []*Column
	WithoutRowID bool
	FTS          FTS
	Indexes      []*Index
	// Flags the table was described with.
	Flags Flags

	byName map[string]*Column
	plans  sync.Map // string -> []*Column
}

// Virtual reports whether the table is a full-text-search virtual table.
func (t *Table) Virtual() bool { return t.FTS != FTSNone }

// AutoIncrement returns the autoincrement key column, if any.
func (t *Table) AutoIncrement() *Column {
	if len(t.PrimaryKey) == 1 && t.PrimaryKey[0].AutoIncrement {
		return t.PrimaryKey[0]
	}
	return nil
}

// HasPrimaryKey reports whether the table has a resolvable key.
func (t *Table) HasPrimaryKey() bool { return len(t.PrimaryKey) > 0 }

// Column returns the column with the given storage or Go field name.
// Lookup is case-insensitive, like SQLite identifiers.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.byName[fold(name)]
	return c, ok
}

// ColumnNames returns the storage names of all columns.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ScanPlan maps the columns of a result set to table columns by position.
// Result columns the table does not know map to nil. Plans are computed once
// per distinct column list.
func (t *Table) ScanPlan(columns []string) []*Column {
	key := strings.Join(columns, "\x00")
	if p, ok := t.plans.Load(key); ok {
		return p.([]*Column)
	}
	plan := make([]*Column, len(columns))
	for i, name := range columns {
		if c, ok := t.byName[fold(name)]; ok && strings.EqualFold(c.Name, name) {
			plan[i] = c
		}
	}
	p, _ := t.plans.LoadOrStore(key, plan)
	return p.([]*Column)
}

// fold returns the case-folded form of s. Casers are stateful, so one is
// created per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
