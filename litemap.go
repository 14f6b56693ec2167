// Package litemap maps Go struct types to tables of an embedded SQLite
// database. Table schemas are derived from struct types once per type and
// flag set, queries are composed from typed predicates and compiled to
// parameterized statements that are cached by shape, and rows are hydrated
// back into structs.
//
// With the default flags only tagged fields become keys or indexes. Pass
// WithFlags(FlagAllImplicit) to treat an "Id" field as an autoincrement key
// and index every field ending in "Id".
//
//	db, err := litemap.Open("file:app.db", litemap.WithFlags(litemap.FlagAllImplicit))
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//	if _, err := litemap.CreateTable[Order](ctx, db); err != nil {
//		return err
//	}
//	if _, err := db.Insert(ctx, &Order{Customer: "ann"}); err != nil {
//		return err
//	}
//	orders, err := litemap.Table[Order](db).Where(litemap.EQ("Customer", "ann")).All(ctx)
package litemap

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/syssam/litemap/dialect"
	"github.com/syssam/litemap/dialect/sql"
	"github.com/syssam/litemap/dialect/sql/sqlgraph"
	"github.com/syssam/litemap/dialect/sqlite"
	"github.com/syssam/litemap/schema"
)

// Flags select how a type is mapped. See the schema package for details.
type Flags = schema.Flags

// Mapping flags.
const (
	FlagNone            = schema.FlagNone
	FlagImplicitPK      = schema.FlagImplicitPK
	FlagImplicitIndex   = schema.FlagImplicitIndex
	FlagAutoIncPK       = schema.FlagAutoIncPK
	FlagAllImplicit     = schema.FlagAllImplicit
	FlagFullTextSearch3 = schema.FlagFullTextSearch3
	FlagFullTextSearch4 = schema.FlagFullTextSearch4
	FlagFullTextSearch5 = schema.FlagFullTextSearch5
	FlagWithoutRowID    = schema.FlagWithoutRowID
)

const defaultFlags = FlagNone

// config holds the configuration shared by a DB and its transactions.
type config struct {
	schemas *schema.Cache
	stmts   *sqlgraph.StmtCache
	log     *slog.Logger
	flags   Flags
	naming  schema.NamingStrategy
	debug   bool
	stats   []sql.StatsOption
	statsOn bool
}

// Option function to configure the DB.
type Option func(*config)

// WithLogger sets the structured logger. It defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithNaming sets the strategy that derives table names from type names.
func WithNaming(n schema.NamingStrategy) Option {
	return func(c *config) {
		c.naming = n
	}
}

// WithFlags sets the flags used for types that were not created with
// explicit flags. It defaults to FlagNone: keys, indexes and autoincrement
// come only from tags unless FlagAllImplicit or its parts are set.
func WithFlags(f Flags) Option {
	return func(c *config) {
		c.flags = f
	}
}

// Debug enables statement logging at debug level.
func Debug() Option {
	return func(c *config) {
		c.debug = true
	}
}

// WithStats enables statement statistics, see DB.Stats.
func WithStats(opts ...sql.StatsOption) Option {
	return func(c *config) {
		c.statsOn = true
		c.stats = append(c.stats, opts...)
	}
}

// DB is a handle to one database. It owns the descriptor and statement
// caches. It is safe for concurrent use.
type DB struct {
	session
	drv      dialect.Driver
	base     dialect.Driver
	statsDrv *sql.StatsDriver
}

// Open opens the SQLite database at dsn.
func Open(dsn string, opts ...Option) (*DB, error) {
	drv, err := sqlite.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("litemap: opening %s: %w", dsn, err)
	}
	return NewDB(drv, opts...), nil
}

// NewDB returns a DB over the given driver.
func NewDB(drv dialect.Driver, opts ...Option) *DB {
	c := config{
		log:   slog.Default(),
		flags: defaultFlags,
		stmts: sqlgraph.NewStmtCache(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	var sopts []schema.Option
	if c.naming != nil {
		sopts = append(sopts, schema.WithNaming(c.naming))
	}
	c.schemas = schema.NewCache(sopts...)
	db := &DB{base: drv, drv: drv}
	if c.statsOn {
		db.statsDrv = sql.NewStatsDriver(db.drv, c.stats...)
		db.drv = db.statsDrv
	}
	if c.debug {
		db.drv = sql.NewDebugDriver(db.drv, sql.DebugWithLogger(c.log))
	}
	db.session = session{config: &c, q: db.drv}
	return db
}

// Driver returns the driver statements are executed on.
func (db *DB) Driver() dialect.Driver {
	return db.drv
}

// Close closes the database.
func (db *DB) Close() error {
	return db.base.Close()
}

// Stats returns the statement statistics, or false when the DB was not
// opened WithStats.
func (db *DB) Stats() (sql.StatsSnapshot, bool) {
	if db.statsDrv == nil {
		return sql.StatsSnapshot{}, false
	}
	return db.statsDrv.QueryStats().Stats(), true
}

// CacheStats reports the number of described types and cached statements,
// and the statement cache hits and misses.
type CacheStats struct {
	Tables     int
	Statements int
	Hits       int64
	Misses     int64
}

// CacheStats returns the state of the DB caches.
func (db *DB) CacheStats() CacheStats {
	hits, misses := db.stmts.Stats()
	return CacheStats{
		Tables:     db.schemas.Len(),
		Statements: db.stmts.Len(),
		Hits:       hits,
		Misses:     misses,
	}
}

// Conn is implemented by DB and Tx.
type Conn interface {
	conn() *session
}

// session runs operations on an ExecQuerier, either the DB driver or an
// open transaction.
type session struct {
	*config
	q  dialect.ExecQuerier
	tx bool
}

func (s *session) conn() *session { return s }

// table resolves the table of the Go type t. Types already created with
// explicit flags keep them.
func (s *session) table(t reflect.Type) (*schema.Table, error) {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	tbl, err := s.schemas.Mapping(t, s.flags)
	if err != nil {
		return nil, err
	}
	return tbl, nil
}

// tableOf resolves the table of the object or sample v.
func (s *session) tableOf(v any) (*schema.Table, error) {
	if v == nil {
		return nil, schema.Errorf("", "", "nil object")
	}
	return s.table(reflect.TypeOf(v))
}

// Mapping returns the table description of the type of sample. With no
// flags the flags the type was created with are used, or the default flags.
func (s *session) Mapping(sample any, flags ...Flags) (*schema.Table, error) {
	if len(flags) == 0 {
		return s.tableOf(sample)
	}
	t := reflect.TypeOf(sample)
	if t == nil {
		return nil, schema.Errorf("", "", "nil sample")
	}
	return s.schemas.Describe(t, combine(flags))
}

func combine(flags []Flags) Flags {
	var f Flags
	for _, o := range flags {
		f |= o
	}
	return f
}
