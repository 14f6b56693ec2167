package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/litemap/dialect"
	"github.com/syssam/litemap/dialect/sql"
	"github.com/syssam/litemap/schema"
)

// Result reports what Create did to a table.
type Result int

// Create results.
const (
	Unchanged Result = iota
	Created
	Migrated
)

func (r Result) String() string {
	switch r {
	case Created:
		return "created"
	case Migrated:
		return "migrated"
	default:
		return "unchanged"
	}
}

// ColumnInfo is one row of PRAGMA table_info.
type ColumnInfo struct {
	CID     int64
	Name    string
	Type    string
	NotNull bool
	Default sql.NullString
	PK      int64
}

// TableInfo reads the stored columns of the named table. A missing table
// has no columns.
func TableInfo(ctx context.Context, q dialect.ExecQuerier, table string) (infos []ColumnInfo, err error) {
	rows := &sql.Rows{}
	if err := q.Query(ctx, "PRAGMA table_info("+sql.Quote(table)+")", []any{}, rows); err != nil {
		return nil, fmt.Errorf("sql/schema: reading table info of %s: %w", table, err)
	}
	defer func() { err = errors.Join(err, rows.Close()) }()
	for rows.Next() {
		var (
			info    ColumnInfo
			notNull int64
		)
		if err := rows.Scan(&info.CID, &info.Name, &info.Type, &notNull, &info.Default, &info.PK); err != nil {
			return nil, err
		}
		info.NotNull = notNull != 0
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// txStarter is implemented by drivers that can open a transaction.
type txStarter interface {
	Tx(context.Context) (dialect.Tx, error)
}

// Create creates the table of t when it does not exist, or adds the columns
// the stored table lacks. Index statements are always issued. All statements
// run in one transaction when q can start one.
func Create(ctx context.Context, q dialect.ExecQuerier, t *schema.Table) (Result, error) {
	if err := ValidateTable(t).Err(); err != nil {
		return Unchanged, err
	}
	if d, ok := q.(txStarter); ok {
		tx, err := d.Tx(ctx)
		if err != nil {
			return Unchanged, err
		}
		res, err := create(ctx, tx, t)
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = fmt.Errorf("%w: rolling back: %v", err, rerr)
			}
			return Unchanged, err
		}
		return res, tx.Commit()
	}
	return create(ctx, q, t)
}

func create(ctx context.Context, q dialect.ExecQuerier, t *schema.Table) (Result, error) {
	stored, err := TableInfo(ctx, q, t.Name)
	if err != nil {
		return Unchanged, err
	}
	var (
		res   = Unchanged
		stmts []string
	)
	if len(stored) == 0 {
		res = Created
		stmts = append(stmts, CreateTable(t))
	} else {
		if err := ValidateDiff(stored, t).Err(); err != nil {
			return Unchanged, err
		}
		have := make(map[string]bool, len(stored))
		for _, c := range stored {
			have[strings.ToLower(c.Name)] = true
		}
		for _, c := range t.Columns {
			if !have[strings.ToLower(c.Name)] {
				stmts = append(stmts, AddColumn(t, c))
				res = Migrated
			}
		}
	}
	for _, idx := range t.Indexes {
		stmts = append(stmts, CreateIndex(t, idx))
	}
	for _, stmt := range stmts {
		if err := q.Exec(ctx, stmt, []any{}, nil); err != nil {
			return Unchanged, &schema.Error{Table: t.Name, Message: "executing DDL", Cause: err}
		}
	}
	return res, nil
}

// Drop drops the named table if it exists.
func Drop(ctx context.Context, q dialect.ExecQuerier, table string) error {
	return q.Exec(ctx, DropTable(table), []any{}, nil)
}
