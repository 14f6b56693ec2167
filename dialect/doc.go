// Package dialect defines the storage capability litemap consumes.
//
// The mapping layer never talks to database/sql directly. Every statement goes
// through the small set of interfaces declared here, which keeps the SQL
// generation testable against mocks and lets callers wrap the engine with
// logging or statistics drivers.
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Transaction Interface
//
// Tx narrows the driver to the statements of one transaction and adds Commit
// and Rollback:
//
//	type Tx interface {
//	    ExecQuerier
//	    Commit() error
//	    Rollback() error
//	}
//
// # Usage
//
//	import (
//	    "github.com/syssam/litemap/dialect"
//	    "github.com/syssam/litemap/dialect/sql"
//	    "github.com/syssam/litemap/dialect/sqlite"
//	)
//
//	db, err := sqlite.Open("file:app.db?_pragma=foreign_keys(1)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	drv := sql.OpenDB(dialect.SQLite, db)
//	defer drv.Close()
//
// # Sub-packages
//
//   - dialect/sql: SQL builders and the database/sql backed driver
//   - dialect/sql/schema: DDL generation and table migration
//   - dialect/sql/sqlgraph: statement cache, CRUD and query execution
//   - dialect/sqlite: engine driver registration (pure Go or cgo)
package dialect
