package sql

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/syssam/litemap/dialect"
)

// Statement kinds, as classified by StatementKind.
const (
	KindSelect = "select"
	KindInsert = "insert"
	KindUpdate = "update"
	KindDelete = "delete"
	KindSchema = "schema"
	KindOther  = "other"
)

// StatementKind classifies a statement by its leading keyword. CREATE,
// DROP, ALTER and PRAGMA statements are KindSchema.
func StatementKind(query string) string {
	tok, _, _, _ := token(query)
	switch strings.ToUpper(tok) {
	case "SELECT", "WITH":
		return KindSelect
	case "INSERT", "REPLACE":
		return KindInsert
	case "UPDATE":
		return KindUpdate
	case "DELETE":
		return KindDelete
	case "CREATE", "DROP", "ALTER", "PRAGMA":
		return KindSchema
	default:
		return KindOther
	}
}

// StatementTable returns the unquoted name of the first table a statement
// names after FROM, INTO, UPDATE, TABLE or ON, or "" if there is none.
func StatementTable(query string) string {
	want := false
	for s := query; ; {
		tok, quoted, rest, ok := token(s)
		if !ok {
			return ""
		}
		s = rest
		kw := strings.ToUpper(tok)
		switch {
		case want && !quoted && (kw == "IF" || kw == "NOT" || kw == "EXISTS"):
		case want:
			return tok
		case quoted:
		case kw == "FROM", kw == "INTO", kw == "UPDATE", kw == "TABLE", kw == "ON":
			want = true
		}
	}
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune("(),;", r)
}

// token returns the next word or double-quoted identifier of s.
func token(s string) (tok string, quoted bool, rest string, ok bool) {
	s = strings.TrimLeftFunc(s, isSeparator)
	if s == "" {
		return "", false, "", false
	}
	if s[0] != '"' {
		end := strings.IndexFunc(s, func(r rune) bool { return isSeparator(r) || r == '"' })
		if end < 0 {
			end = len(s)
		}
		return s[:end], false, s[end:], true
	}
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] != '"' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '"' {
			b.WriteByte('"')
			i++
			continue
		}
		return b.String(), true, s[i+1:], true
	}
	return b.String(), true, "", true
}

// Counter accumulates the statements of one kind or one table.
type Counter struct {
	Count    int64
	Errors   int64
	Slow     int64
	Duration time.Duration
}

func (c *Counter) add(d time.Duration, err error, slow bool) {
	c.Count++
	c.Duration += d
	if err != nil {
		c.Errors++
	}
	if slow {
		c.Slow++
	}
}

// QueryStats accumulates statement statistics by kind and by table.
// It is safe for concurrent use.
type QueryStats struct {
	mu        sync.Mutex
	queries   int64
	execs     int64
	total     Counter
	commits   int64
	rollbacks int64
	kinds     map[string]*Counter
	tables    map[string]*Counter
}

func (s *QueryStats) record(kind, table string, d time.Duration, err error, slow, isQuery bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if isQuery {
		s.queries++
	} else {
		s.execs++
	}
	s.total.add(d, err, slow)
	counter(&s.kinds, kind).add(d, err, slow)
	if table != "" {
		counter(&s.tables, table).add(d, err, slow)
	}
}

func counter(m *map[string]*Counter, key string) *Counter {
	if *m == nil {
		*m = make(map[string]*Counter)
	}
	c, ok := (*m)[key]
	if !ok {
		c = &Counter{}
		(*m)[key] = c
	}
	return c
}

func (s *QueryStats) ended(committed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if committed {
		s.commits++
	} else {
		s.rollbacks++
	}
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		TotalQueries:  s.queries,
		TotalExecs:    s.execs,
		TotalDuration: s.total.Duration,
		SlowQueries:   s.total.Slow,
		Errors:        s.total.Errors,
		Commits:       s.commits,
		Rollbacks:     s.rollbacks,
		ByKind:        copyCounters(s.kinds),
		ByTable:       copyCounters(s.tables),
	}
}

func copyCounters(m map[string]*Counter) map[string]Counter {
	out := make(map[string]Counter, len(m))
	for k, c := range m {
		out[k] = *c
	}
	return out
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries, s.execs = 0, 0
	s.commits, s.rollbacks = 0, 0
	s.total = Counter{}
	clear(s.kinds)
	clear(s.tables)
}

// StatsSnapshot is a point-in-time copy of the statistics. ByKind is keyed
// by StatementKind and ByTable by unquoted table name.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
	Commits       int64
	Rollbacks     int64
	ByKind        map[string]Counter
	ByTable       map[string]Counter
}

// AvgQueryDuration returns the average statement duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a one-line summary followed by the count of every kind.
func (s StatsSnapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
	for _, k := range slices.Sorted(maps.Keys(s.ByKind)) {
		fmt.Fprintf(&b, " %s=%d", k, s.ByKind[k].Count)
	}
	return b.String()
}

// SlowStatement describes a statement that ran longer than the threshold.
type SlowStatement struct {
	Kind     string
	Table    string
	Query    string
	Args     []any
	Duration time.Duration
}

// SlowQueryHook is called for every slow statement.
type SlowQueryHook func(context.Context, SlowStatement)

// StatsDriver wraps a dialect.Driver and records every statement.
type StatsDriver struct {
	dialect.Driver
	stats     *QueryStats
	threshold atomic.Int64
	slowHook  SlowQueryHook
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow statement detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold.Store(int64(d))
	}
}

// WithSlowQueryHook sets a callback function for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements to the given logger, or to the
// default logger if it is nil.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, s SlowStatement) {
		logger.WarnContext(ctx, "slow statement",
			"kind", s.Kind, "table", s.Table, "duration", s.Duration, "sql", s.Query, "args", s.Args)
	})
}

// NewStatsDriver wraps a Driver with statistics collection.
//
//	drv := sql.NewStatsDriver(base,
//		sql.WithSlowThreshold(200*time.Millisecond),
//		sql.WithSlowQueryLog(nil),
//	)
//	db := litemap.NewDB(drv)
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver: drv,
		stats:  &QueryStats{},
	}
	s.threshold.Store(int64(100 * time.Millisecond))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	return time.Duration(d.threshold.Load())
}

// SetSlowThreshold updates the slow statement threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.threshold.Store(int64(threshold))
}

// Query executes a query and records statistics.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, args, start, err, true)
	return err
}

// Exec executes a statement and records statistics.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, args, start, err, false)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, args any, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	slow := duration > d.SlowThreshold()
	kind, table := StatementKind(query), StatementTable(query)
	d.stats.record(kind, table, duration, err, slow, isQuery)
	if slow && d.slowHook != nil {
		argv, _ := args.([]any)
		d.slowHook(ctx, SlowStatement{Kind: kind, Table: table, Query: query, Args: argv, Duration: duration})
	}
}

// Tx starts a transaction that also records statistics.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx wraps a transaction with statistics collection.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// Query executes a query within the transaction and records statistics.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err, true)
	return err
}

// Exec executes a statement within the transaction and records statistics.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err, false)
	return err
}

// Commit commits the transaction and counts it.
func (tx *StatsTx) Commit() error {
	err := tx.Tx.Commit()
	if err == nil {
		tx.driver.stats.ended(true)
	}
	return err
}

// Rollback rolls back the transaction and counts it.
func (tx *StatsTx) Rollback() error {
	err := tx.Tx.Rollback()
	if err == nil {
		tx.driver.stats.ended(false)
	}
	return err
}

// DebugDriver logs every statement at debug level with its kind and table.
type DebugDriver struct {
	dialect.Driver
	log *slog.Logger
}

// DebugOption configures the DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLogger routes statements to the given logger.
func DebugWithLogger(logger *slog.Logger) DebugOption {
	return func(d *DebugDriver) {
		d.log = logger
	}
}

// NewDebugDriver wraps a Driver with debug logging. It logs to
// slog.Default() unless DebugWithLogger is given.
func NewDebugDriver(drv dialect.Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{Driver: drv, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func logStatement(ctx context.Context, l *slog.Logger, msg string, inTx bool, query string, args any) {
	if !l.Enabled(ctx, slog.LevelDebug) {
		return
	}
	l.DebugContext(ctx, msg,
		"kind", StatementKind(query), "table", StatementTable(query), "tx", inTx, "sql", query, "args", args)
}

// Query executes a query and logs it.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	logStatement(ctx, d.log, "query", false, query, args)
	return d.Driver.Query(ctx, query, args, v)
}

// Exec executes a statement and logs it.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	logStatement(ctx, d.log, "exec", false, query, args)
	return d.Driver.Exec(ctx, query, args, v)
}

// Tx starts a transaction with debug logging.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.log.DebugContext(ctx, "begin")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, log: d.log, ctx: ctx}, nil
}

// DebugTx wraps a transaction with debug logging.
type DebugTx struct {
	dialect.Tx
	log *slog.Logger
	ctx context.Context
}

// Query executes a query within the transaction and logs it.
func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	logStatement(ctx, tx.log, "query", true, query, args)
	return tx.Tx.Query(ctx, query, args, v)
}

// Exec executes a statement within the transaction and logs it.
func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	logStatement(ctx, tx.log, "exec", true, query, args)
	return tx.Tx.Exec(ctx, query, args, v)
}

// Commit commits the transaction and logs it.
func (tx *DebugTx) Commit() error {
	tx.log.DebugContext(tx.ctx, "commit")
	return tx.Tx.Commit()
}

// Rollback rolls back the transaction and logs it.
func (tx *DebugTx) Rollback() error {
	tx.log.DebugContext(tx.ctx, "rollback")
	return tx.Tx.Rollback()
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)
