// Package sqlite registers the SQLite database/sql driver used by litemap and
// opens dialect drivers over it.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite (driver name "sqlite")
//   - -tags cgo_sqlite: mattn/go-sqlite3 (driver name "sqlite3"), requires CGO_ENABLED=1
package sqlite

import (
	stdsql "database/sql"

	"github.com/syssam/litemap/dialect/sql"
)

// DriverName returns the registered database/sql driver name.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3 and "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO reports whether the cgo implementation is linked in.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a dialect driver on the SQLite database at dsn.
//
//	drv, err := sqlite.Open("file:app.db?_pragma=foreign_keys(1)")
func Open(dsn string) (*sql.Driver, error) {
	return sql.Open(driverName, dsn)
}

// OpenDB opens the database/sql handle on the SQLite database at dsn.
func OpenDB(dsn string) (*stdsql.DB, error) {
	return stdsql.Open(driverName, dsn)
}

// Info describes the linked SQLite implementation.
type Info struct {
	DriverName string `json:"driver_name" yaml:"driver_name"`
	DriverType string `json:"driver_type" yaml:"driver_type"`
	IsCGO      bool   `json:"is_cgo" yaml:"is_cgo"`
	Package    string `json:"package" yaml:"package"`
}

// GetInfo returns information about the linked SQLite implementation.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
