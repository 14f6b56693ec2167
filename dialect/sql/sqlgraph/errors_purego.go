//go:build !cgo_sqlite

package sqlgraph

import (
	"modernc.org/sqlite"
)

// engineCode returns the extended result code of a modernc.org/sqlite error.
func engineCode(err error) (int, bool) {
	if e, ok := asError[*sqlite.Error](err); ok {
		return e.Code(), true
	}
	return 0, false
}
