package litemap

import (
	"context"
	"reflect"
	"strings"

	"github.com/syssam/litemap/dialect/sql"
	sqlschema "github.com/syssam/litemap/dialect/sql/schema"
	"github.com/syssam/litemap/schema"
)

// TableInfo reports the outcome of CreateTable.
type TableInfo struct {
	// Table is the description the table was created from.
	Table *schema.Table
	// Result tells whether the table was created, migrated or left as is.
	Result sqlschema.Result
}

// Columns returns the number of mapped columns.
func (i *TableInfo) Columns() int {
	return len(i.Table.Columns)
}

// CreateTable creates the table of the type of sample, or adds the columns
// the stored table lacks, and creates its indexes. The flags, or the
// default flags when none are given, are recorded for the type and used by
// every later operation on it.
func (s *session) CreateTable(ctx context.Context, sample any, flags ...Flags) (*TableInfo, error) {
	t := reflect.TypeOf(sample)
	if t == nil {
		return nil, schema.Errorf("", "", "nil sample")
	}
	return s.createTable(ctx, t, flags)
}

// CreateTable creates the table of T. See DB.CreateTable.
func CreateTable[T any](ctx context.Context, c Conn, flags ...Flags) (*TableInfo, error) {
	return c.conn().createTable(ctx, reflect.TypeFor[T](), flags)
}

func (s *session) createTable(ctx context.Context, t reflect.Type, flags []Flags) (*TableInfo, error) {
	f := s.flags
	if len(flags) > 0 {
		f = combine(flags)
	}
	tbl, err := s.schemas.Describe(t, f)
	if err != nil {
		return nil, err
	}
	res, err := sqlschema.Create(ctx, s.q, tbl)
	if err != nil {
		return nil, wrapError(tbl.Name, "create table", true, err)
	}
	if _, err := s.schemas.Bind(t, f); err != nil {
		return nil, err
	}
	switch res {
	case sqlschema.Unchanged:
		s.log.DebugContext(ctx, "table unchanged", "table", tbl.Name)
	default:
		s.log.InfoContext(ctx, "table "+res.String(), "table", tbl.Name, "columns", len(tbl.Columns), "indexes", len(tbl.Indexes))
	}
	return &TableInfo{Table: tbl, Result: res}, nil
}

// DropTable drops the table of the type of sample if it exists.
func (s *session) DropTable(ctx context.Context, sample any) error {
	tbl, err := s.tableOf(sample)
	if err != nil {
		return err
	}
	if err := sqlschema.Drop(ctx, s.q, tbl.Name); err != nil {
		return wrapError(tbl.Name, "drop table", true, err)
	}
	s.log.InfoContext(ctx, "table dropped", "table", tbl.Name)
	return nil
}

// Tables lists the tables of the database from its catalog, internal
// sqlite_ tables excluded, ordered by name.
func (s *session) Tables(ctx context.Context) ([]*sqlschema.Master, error) {
	all, err := Table[sqlschema.Master](s).
		Where(EQ("type", "table")).
		OrderBy("name").
		All(ctx)
	if err != nil {
		return nil, err
	}
	tables := all[:0]
	for _, m := range all {
		if !strings.HasPrefix(m.Name, "sqlite_") {
			tables = append(tables, m)
		}
	}
	return tables, nil
}

// Exec executes a raw statement and returns the number of affected rows.
func (s *session) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if args == nil {
		args = []any{}
	}
	var res sql.Result
	if err := s.q.Exec(ctx, query, args, &res); err != nil {
		return 0, wrapError("", "exec", true, err)
	}
	return res.RowsAffected()
}
