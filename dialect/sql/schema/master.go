package schema

import (
	"context"
	"fmt"

	"github.com/syssam/litemap/dialect"
	"github.com/syssam/litemap/dialect/sql"
	"github.com/syssam/litemap/schema"
)

// Master is a row of the sqlite_master catalog. It is a mapped type, so it
// can also be read through the ordinary query path.
type Master struct {
	Type     string  `litemap:"type"`
	Name     string  `litemap:"name"`
	TblName  string  `litemap:"tbl_name"`
	RootPage int64   `litemap:"rootpage"`
	SQL      *string `litemap:"sql"`
}

// Config maps Master to the catalog table.
func (Master) Config() schema.Config {
	return schema.Config{Table: "sqlite_master"}
}

// Tables returns the catalog entries of all tables, internal sqlite_ tables
// excluded, ordered by name.
func Tables(ctx context.Context, q dialect.ExecQuerier) ([]Master, error) {
	query, args := sql.Select("type", "name", "tbl_name", "rootpage", "sql").
		From(sql.Table("sqlite_master")).
		Where(sql.EQ("type", "table")).
		Where(sql.Not(sql.Like("name", "sqlite_%"))).
		OrderBy("name").
		Query()
	rows := &sql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("sql/schema: reading sqlite_master: %w", err)
	}
	defer rows.Close()
	var tables []Master
	for rows.Next() {
		var (
			m   Master
			def sql.NullString
		)
		if err := rows.Scan(&m.Type, &m.Name, &m.TblName, &m.RootPage, &def); err != nil {
			return nil, err
		}
		if def.Valid {
			m.SQL = &def.String
		}
		tables = append(tables, m)
	}
	return tables, rows.Err()
}
