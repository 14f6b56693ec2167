//go:build cgo_sqlite

package sqlgraph

import (
	"github.com/mattn/go-sqlite3"
)

// engineCode returns the extended result code of a mattn/go-sqlite3 error.
func engineCode(err error) (int, bool) {
	if e, ok := asError[sqlite3.Error](err); ok {
		return int(e.ExtendedCode), true
	}
	return 0, false
}
