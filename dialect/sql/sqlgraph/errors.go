package sqlgraph

import (
	"errors"
	"strings"
)

// SQLite extended result codes for constraint violations (SQLITE_CONSTRAINT_*).
const (
	sqliteConstraint           = 19
	sqliteConstraintCheck      = sqliteConstraint | 1<<8
	sqliteConstraintForeignKey = sqliteConstraint | 3<<8
	sqliteConstraintNotNull    = sqliteConstraint | 5<<8
	sqliteConstraintPrimaryKey = sqliteConstraint | 6<<8
	sqliteConstraintUnique     = sqliteConstraint | 8<<8
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := engineCode(err); ok && code != sqliteConstraint {
		return code&0xff == sqliteConstraint
	}
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err) ||
		IsNotNullConstraintError(err) ||
		strings.Contains(err.Error(), "constraint failed")
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index or primary key.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := engineCode(err); ok && code != sqliteConstraint {
		return code == sqliteConstraintUnique || code == sqliteConstraintPrimaryKey
	}
	// Fallback to string matching for drivers that don't expose codes
	return containsAny(err.Error(),
		"UNIQUE constraint failed",
		"PRIMARY KEY constraint failed",
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := engineCode(err); ok && code != sqliteConstraint {
		return code == sqliteConstraintForeignKey
	}
	return containsAny(err.Error(), "FOREIGN KEY constraint failed")
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
// e.g. a value does not satisfy a check condition.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := engineCode(err); ok && code != sqliteConstraint {
		return code == sqliteConstraintCheck
	}
	return containsAny(err.Error(), "CHECK constraint failed")
}

// IsNotNullConstraintError reports if the error resulted from a NOT NULL constraint violation.
func IsNotNullConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := engineCode(err); ok && code != sqliteConstraint {
		return code == sqliteConstraintNotNull
	}
	return containsAny(err.Error(), "NOT NULL constraint failed")
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
