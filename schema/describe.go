package schema

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/syssam/litemap/schema/index"
)

// Indexer is implemented by types that declare indexes beyond their tags.
type Indexer interface {
	Indexes() []index.Index
}

// Enum is implemented by integer types with a closed set of values.
// Decoding a stored value outside the set fails with a DataError.
type Enum interface {
	EnumValues() []int64
}

// implicitKey is the column name promoted to primary key by FlagImplicitPK.
const implicitKey = "Id"

// Describe builds the table description of the struct type t. A pointer to
// a struct is accepted. The returned table is not cached; use a Cache to
// share descriptions.
func Describe(t reflect.Type, flags Flags, opts ...Option) (*Table, error) {
	o := options{naming: DefaultNaming}
	for _, opt := range opts {
		opt(&o)
	}
	if t == nil {
		return nil, Errorf("", "", "nil type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, Errorf(t.String(), "", "type %s is not a struct", t)
	}
	var cfg Config
	if c, ok := reflect.New(t).Interface().(Configer); ok {
		cfg = c.Config()
	}
	tbl := &Table{
		Name:   cfg.Table,
		Type:   t,
		Flags:  flags,
		byName: make(map[string]*Column),
	}
	if tbl.Name == "" {
		tbl.Name = o.naming(t.Name())
	}
	if tbl.Name == "" {
		return nil, Errorf(t.String(), "", "anonymous struct requires Config.Table")
	}
	d := &describer{
		table:   tbl,
		tags:    make(map[*Column]tag),
		noRowID: cfg.WithoutRowID || flags.Has(FlagWithoutRowID),
	}
	if err := d.columns(t); err != nil {
		return nil, err
	}
	if err := d.keys(); err != nil {
		return nil, err
	}
	if err := d.variant(cfg); err != nil {
		return nil, err
	}
	if !tbl.Virtual() {
		if err := d.indexes(reflect.New(t).Interface()); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

type describer struct {
	table   *Table
	tags    map[*Column]tag
	noRowID bool
}

func (d *describer) errorf(column, format string, args ...any) *Error {
	return Errorf(d.table.Name, column, format, args...)
}

// columns walks the exported fields of t, flattening embedded structs.
func (d *describer) columns(t reflect.Type) error {
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || throughPointer(t, f.Index) {
			continue
		}
		if f.Anonymous {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && ft != timeType && ft != uuidType {
				continue
			}
		}
		tg, err := parseTag(f.Tag.Get(TagName))
		if err != nil {
			return &Error{Table: d.table.Name, Column: f.Name, Message: "invalid struct tag", Cause: err}
		}
		if tg.skip {
			continue
		}
		c, err := d.column(f, tg)
		if err != nil {
			return err
		}
		key := fold(c.Name)
		if prev, ok := d.table.byName[key]; ok && strings.EqualFold(prev.Name, c.Name) {
			return d.errorf(c.Name, "duplicate column (fields %s and %s)", prev.Field, c.Field)
		}
		d.table.Columns = append(d.table.Columns, c)
		d.table.byName[key] = c
		d.tags[c] = tg
	}
	if len(d.table.Columns) == 0 {
		return d.errorf("", "type %s has no mappable fields", t)
	}
	// Go field names resolve too, unless they shadow a storage name.
	for _, c := range d.table.Columns {
		if key := fold(c.Field); d.table.byName[key] == nil {
			d.table.byName[key] = c
		}
	}
	return nil
}

// throughPointer reports whether the field path crosses an embedded pointer.
func throughPointer(t reflect.Type, path []int) bool {
	for _, i := range path[:len(path)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Pointer {
			return true
		}
		t = f.Type
	}
	return false
}

func (d *describer) column(f reflect.StructField, tg tag) (*Column, error) {
	name := tg.name
	if name == "" {
		name = f.Name
	}
	k, ptr, enum, ok := resolveKind(f.Type)
	if !ok {
		return nil, d.errorf(name, "unsupported field type %s (tag the field with %q to skip it)", f.Type, "-")
	}
	c := &Column{
		Name:       name,
		Field:      f.Name,
		FieldIndex: f.Index,
		Type:       f.Type,
		PrimaryKey: tg.pk,
		Unique:     tg.unique,
		Collation:  tg.collate,
		Size:       tg.size,
		kind:       k,
		ptr:        ptr,
		table:      d.table.Name,
	}
	if tg.hasDef {
		c.Default = tg.def
	}
	if enum != nil {
		c.enum = make(map[int64]struct{}, len(enum))
		for _, v := range enum {
			c.enum[v] = struct{}{}
		}
	}
	c.SQLType = tg.sqlType
	if c.SQLType == "" {
		c.SQLType = k.sqlType(tg.size)
	}
	c.Affinity = DetermineAffinity(c.SQLType)
	return c, nil
}

// keys resolves the primary key, autoincrement and nullability.
func (d *describer) keys() error {
	t := d.table
	for _, c := range t.Columns {
		if c.PrimaryKey {
			t.PrimaryKey = append(t.PrimaryKey, c)
		}
	}
	if len(t.PrimaryKey) == 0 && t.Flags.Has(FlagImplicitPK) {
		for _, c := range t.Columns {
			if strings.EqualFold(c.Name, implicitKey) {
				c.PrimaryKey = true
				t.PrimaryKey = append(t.PrimaryKey, c)
				break
			}
		}
	}
	for _, c := range t.Columns {
		tg := d.tags[c]
		c.AutoIncrement = tg.autoinc || (c.PrimaryKey && t.Flags.Has(FlagAutoIncPK) && !d.noRowID && c.kind.integer() && len(t.PrimaryKey) == 1)
		if c.AutoIncrement {
			switch {
			case !c.PrimaryKey:
				return d.errorf(c.Name, "autoincrement requires a primary key column")
			case len(t.PrimaryKey) > 1:
				return d.errorf(c.Name, "autoincrement is not allowed on a composite primary key")
			case !c.kind.integer():
				return d.errorf(c.Name, "autoincrement requires an integer column, got %s", c.Type)
			}
			c.SQLType, c.Affinity = "integer", AffinityInteger
		}
		c.Nullable = !c.PrimaryKey && !tg.notnull
	}
	return nil
}

// variant resolves WITHOUT ROWID and full-text-search settings.
func (d *describer) variant(cfg Config) error {
	t := d.table
	modules := make(map[FTS]bool)
	if cfg.FTS != FTSNone {
		modules[cfg.FTS] = true
	}
	if m, n := t.Flags.fts(); n > 1 {
		return d.errorf("", "more than one full-text-search variant requested")
	} else if n == 1 {
		modules[m] = true
	}
	if len(modules) > 1 {
		return d.errorf("", "more than one full-text-search variant requested")
	}
	for m := range modules {
		t.FTS = m
	}
	t.WithoutRowID = d.noRowID
	if !t.WithoutRowID {
		return nil
	}
	switch {
	case t.Virtual():
		return d.errorf("", "WITHOUT ROWID cannot be combined with full-text search")
	case len(t.PrimaryKey) == 0:
		return d.errorf("", "WITHOUT ROWID requires a primary key")
	case t.AutoIncrement() != nil:
		return d.errorf(t.AutoIncrement().Name, "WITHOUT ROWID cannot be combined with autoincrement")
	}
	return nil
}

type member struct {
	order int
	seq   int
	col   *Column
}

type indexGroup struct {
	name    string
	unique  bool
	mixed   bool
	members []member
}

// indexes collects column tag indexes, type-level indexes and implicit ones.
func (d *describer) indexes(v any) error {
	var (
		t      = d.table
		groups []*indexGroup
		byName = make(map[string]*indexGroup)
	)
	add := func(name string, unique bool, m member) {
		g, ok := byName[strings.ToLower(name)]
		if !ok {
			g = &indexGroup{name: name, unique: unique}
			byName[strings.ToLower(name)] = g
			groups = append(groups, g)
		} else if g.unique != unique {
			g.mixed = true
		}
		m.seq = len(g.members)
		g.members = append(g.members, m)
	}
	for _, c := range t.Columns {
		tg := d.tags[c]
		for _, ti := range tg.indexes {
			if ti.name != "" {
				add(ti.name, tg.unique, member{order: ti.order, col: c})
			}
		}
		if hasBare(tg) || (tg.unique && !hasNamed(tg)) {
			add(t.Name+"_"+c.Name, tg.unique, member{col: c})
		}
	}
	for _, g := range groups {
		if g.mixed {
			return d.errorf("", "index %s mixes unique and non-unique columns", g.name)
		}
	}
	if ix, ok := v.(Indexer); ok {
		for _, i := range ix.Indexes() {
			desc := i.Descriptor()
			if len(desc.Fields) == 0 {
				return d.errorf("", "index declared without columns")
			}
			idx := &Index{Name: desc.StorageKey, Unique: desc.Unique}
			names := make([]string, 0, len(desc.Fields))
			for _, f := range desc.Fields {
				c, ok := t.Column(f)
				if !ok {
					return d.errorf(f, "index references unknown column")
				}
				names = append(names, c.Name)
				idx.Columns = append(idx.Columns, IndexColumn{Column: c, Desc: desc.Desc[f]})
			}
			if idx.Name == "" {
				idx.Name = t.Name + "_" + strings.Join(names, "_")
			}
			if _, ok := byName[strings.ToLower(idx.Name)]; ok {
				return d.errorf("", "duplicate index %s", idx.Name)
			}
			byName[strings.ToLower(idx.Name)] = nil
			t.Indexes = append(t.Indexes, idx)
		}
	}
	if t.Flags.Has(FlagImplicitIndex) {
		for _, c := range t.Columns {
			if c.PrimaryKey || len(c.Name) <= len(implicitKey) || !strings.EqualFold(c.Name[len(c.Name)-len(implicitKey):], implicitKey) {
				continue
			}
			name := t.Name + "_" + c.Name
			if _, ok := byName[strings.ToLower(name)]; ok {
				continue
			}
			add(name, false, member{col: c})
		}
	}
	tagged := make([]*Index, 0, len(groups))
	for _, g := range groups {
		slices.SortStableFunc(g.members, func(a, b member) int {
			if a.order != b.order {
				return a.order - b.order
			}
			return a.seq - b.seq
		})
		idx := &Index{Name: g.name, Unique: g.unique}
		for _, m := range g.members {
			idx.Columns = append(idx.Columns, IndexColumn{Column: m.col})
		}
		tagged = append(tagged, idx)
	}
	t.Indexes = append(tagged, t.Indexes...)
	return nil
}

func hasNamed(tg tag) bool {
	return slices.ContainsFunc(tg.indexes, func(i tagIndex) bool { return i.name != "" })
}

func hasBare(tg tag) bool {
	return slices.ContainsFunc(tg.indexes, func(i tagIndex) bool { return i.name == "" })
}

// String returns a one-line summary of the table, used in logs.
func (t *Table) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(", t.Name)
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Name)
		if c.PrimaryKey {
			b.WriteString(" pk")
		}
	}
	b.WriteByte(')')
	return b.String()
}
