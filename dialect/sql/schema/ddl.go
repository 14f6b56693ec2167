// Package schema generates and applies SQLite DDL for table descriptions.
package schema

import (
	"strings"

	"github.com/syssam/litemap/dialect/sql"
	"github.com/syssam/litemap/schema"
)

// CreateStatements returns the statements creating t: the table itself
// followed by one statement per index. Every statement is idempotent.
func CreateStatements(t *schema.Table) ([]string, error) {
	if err := ValidateTable(t).Err(); err != nil {
		return nil, err
	}
	stmts := make([]string, 0, 1+len(t.Indexes))
	stmts = append(stmts, CreateTable(t))
	for _, idx := range t.Indexes {
		stmts = append(stmts, CreateIndex(t, idx))
	}
	return stmts, nil
}

// CreateTable returns the CREATE TABLE (or CREATE VIRTUAL TABLE) statement of t.
//
//	CREATE TABLE IF NOT EXISTS "OrderLine" ("Id" integer PRIMARY KEY AUTOINCREMENT NOT NULL, "Quantity" integer)
//	CREATE VIRTUAL TABLE IF NOT EXISTS "Document" USING fts5("Title", "Content")
func CreateTable(t *schema.Table) string {
	b := &sql.Builder{}
	if t.Virtual() {
		b.WriteString("CREATE VIRTUAL TABLE IF NOT EXISTS ").WriteString(sql.Quote(t.Name)).
			WriteString(" USING ").WriteString(t.FTS.Module())
		b.Wrap(func(b *sql.Builder) {
			for i, c := range t.Columns {
				if i > 0 {
					b.Comma()
				}
				b.WriteString(sql.Quote(c.Name))
			}
		})
		return b.String()
	}
	inline := len(t.PrimaryKey) == 1
	b.WriteString("CREATE TABLE IF NOT EXISTS ").WriteString(sql.Quote(t.Name)).Pad()
	b.Wrap(func(b *sql.Builder) {
		for i, c := range t.Columns {
			if i > 0 {
				b.Comma()
			}
			columnDef(b, c, inline)
		}
		if len(t.PrimaryKey) > 1 {
			b.WriteString(", PRIMARY KEY (")
			for i, c := range t.PrimaryKey {
				if i > 0 {
					b.Comma()
				}
				b.WriteString(sql.Quote(c.Name))
			}
			b.WriteByte(')')
		}
	})
	if t.WithoutRowID {
		b.WriteString(" without rowid")
	}
	return b.String()
}

// columnDef writes the definition of c. Key constraints are written only
// when inline is set, ALTER TABLE cannot add them.
func columnDef(b *sql.Builder, c *schema.Column, inline bool) {
	b.WriteString(sql.Quote(c.Name)).Pad().WriteString(c.SQLType)
	if inline && c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
		if c.AutoIncrement {
			b.WriteString(" AUTOINCREMENT")
		}
	}
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ").WriteString(c.Default)
	}
	if c.Collation != "" {
		b.WriteString(" COLLATE ").WriteString(c.Collation)
	}
}

// CreateIndex returns the CREATE INDEX statement of idx on t.
//
//	CREATE UNIQUE INDEX IF NOT EXISTS "Track_Album_Position" ON "Track" ("Album", "Position" DESC)
func CreateIndex(t *schema.Table, idx *schema.Index) string {
	b := &sql.Builder{}
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX IF NOT EXISTS ").WriteString(sql.Quote(idx.Name)).
		WriteString(" ON ").WriteString(sql.Quote(t.Name)).Pad()
	b.Wrap(func(b *sql.Builder) {
		for i, ic := range idx.Columns {
			if i > 0 {
				b.Comma()
			}
			b.WriteString(sql.Quote(ic.Column.Name))
			if ic.Desc {
				b.WriteString(" DESC")
			}
		}
	})
	return b.String()
}

// AddColumn returns the ALTER TABLE statement adding c to t.
func AddColumn(t *schema.Table, c *schema.Column) string {
	b := &sql.Builder{}
	b.WriteString("ALTER TABLE ").WriteString(sql.Quote(t.Name)).WriteString(" ADD COLUMN ")
	columnDef(b, c, false)
	return b.String()
}

// DropTable returns the DROP TABLE statement of the named table.
func DropTable(name string) string {
	return "DROP TABLE IF EXISTS " + sql.Quote(name)
}

// equalType reports whether two declared types are the same, ignoring case
// and spacing.
func equalType(a, b string) bool {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), "")
	}
	return norm(a) == norm(b)
}
