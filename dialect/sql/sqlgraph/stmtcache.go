package sqlgraph

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/syssam/litemap/dialect/sql"
	"github.com/syssam/litemap/schema"
)

// Op identifies the kind of statement.
type Op uint8

// Statement kinds.
const (
	OpSelect Op = iota + 1
	OpCount
	OpDelete
	OpInsert
	OpUpsert
	OpUpdate
	OpDeleteByKey
	OpDeleteAll
)

var opNames = [...]string{
	OpSelect:      "select",
	OpCount:       "count",
	OpDelete:      "delete",
	OpInsert:      "insert",
	OpUpsert:      "upsert",
	OpUpdate:      "update",
	OpDeleteByKey: "delete by key",
	OpDeleteAll:   "delete all",
}

func (o Op) String() string {
	if int(o) < len(opNames) && opNames[o] != "" {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", o)
}

// StmtKey identifies a statement shape. Tables are compared by pointer, which
// is stable because descriptions are cached.
type StmtKey struct {
	Op    Op
	Table *schema.Table
	Shape string
}

// Statement is SQL text with one parameter slot per placeholder. A nil
// parameter column passes its value through unchanged (LIMIT, OFFSET).
type Statement struct {
	SQL    string
	Params []*schema.Column
}

// newStatement renders q. Arguments that are *schema.Column mark column
// parameter slots; other arguments mark pass-through slots.
func newStatement(q sql.Querier) (*Statement, error) {
	query, args := q.Query()
	if e, ok := q.(interface{ Err() error }); ok {
		if err := e.Err(); err != nil {
			return nil, err
		}
	}
	st := &Statement{SQL: query, Params: make([]*schema.Column, len(args))}
	for i, a := range args {
		if c, ok := a.(*schema.Column); ok {
			st.Params[i] = c
		}
	}
	return st, nil
}

// Bind converts values, one per placeholder, to engine values.
func (s *Statement) Bind(values []any) ([]any, error) {
	if len(values) != len(s.Params) {
		return nil, fmt.Errorf("sqlgraph: statement expects %d arguments, got %d", len(s.Params), len(values))
	}
	args := make([]any, len(values))
	for i, v := range values {
		if c := s.Params[i]; c != nil {
			dv, err := c.Encode(v)
			if err != nil {
				return nil, err
			}
			args[i] = dv
			continue
		}
		args[i] = v
	}
	return args, nil
}

// BindStruct reads every parameter from the fields of the struct value sv.
func (s *Statement) BindStruct(sv reflect.Value) ([]any, error) {
	args := make([]any, len(s.Params))
	for i, c := range s.Params {
		if c == nil {
			return nil, fmt.Errorf("sqlgraph: parameter %d is not a column", i)
		}
		dv, err := c.EncodeField(sv)
		if err != nil {
			return nil, err
		}
		args[i] = dv
	}
	return args, nil
}

// StmtCache holds rendered statements by shape. It is safe for concurrent use.
type StmtCache struct {
	mu     sync.RWMutex
	stmts  map[StmtKey]*Statement
	hits   atomic.Int64
	misses atomic.Int64
}

// NewStmtCache returns an empty statement cache.
func NewStmtCache() *StmtCache {
	return &StmtCache{stmts: make(map[StmtKey]*Statement)}
}

// Get returns the statement cached under key, rendering it with build on a
// miss. A nil cache renders every time.
func (c *StmtCache) Get(key StmtKey, build func() (*Statement, error)) (*Statement, error) {
	if c == nil {
		return build()
	}
	c.mu.RLock()
	st, ok := c.stmts[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return st, nil
	}
	c.misses.Add(1)
	st, err := build()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.stmts[key]; ok {
		return prev, nil
	}
	c.stmts[key] = st
	return st, nil
}

// Len returns the number of cached statements.
func (c *StmtCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stmts)
}

// Stats returns the number of cache hits and misses.
func (c *StmtCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Reset drops all cached statements.
func (c *StmtCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stmts = make(map[StmtKey]*Statement)
	c.hits.Store(0)
	c.misses.Store(0)
}
