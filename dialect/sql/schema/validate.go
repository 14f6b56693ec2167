package schema

import (
	"fmt"
	"strings"

	"github.com/syssam/litemap/schema"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates if this is a breaking change.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// Err returns the first validation error as a schema error, or nil.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	e := r.Errors[0]
	return &schema.Error{Table: e.Table, Column: e.Column, Message: e.Message, Cause: e}
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			if w.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateTable validates a single table description before DDL is generated.
func ValidateTable(t *schema.Table) *ValidationResult {
	result := &ValidationResult{}
	fail := func(column, format string, args ...any) {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   t.Name,
			Column:  column,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if len(t.Columns) == 0 {
		fail("", "table has no columns")
	}
	if len(t.PrimaryKey) == 0 && !t.Virtual() {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.Name,
			Message: "table has no primary key",
		})
	}
	if t.WithoutRowID {
		switch {
		case len(t.PrimaryKey) == 0:
			fail("", "WITHOUT ROWID table requires a primary key")
		case t.AutoIncrement() != nil:
			fail(t.AutoIncrement().Name, "AUTOINCREMENT is not allowed on a WITHOUT ROWID table")
		case t.Virtual():
			fail("", "virtual table cannot be WITHOUT ROWID")
		}
	}
	if t.Virtual() && len(t.Indexes) > 0 {
		fail("", "virtual table cannot have indexes")
	}

	// Check for duplicate column names
	colNames := make(map[string]bool)
	for _, c := range t.Columns {
		key := strings.ToLower(c.Name)
		if colNames[key] {
			fail(c.Name, "duplicate column name")
		}
		colNames[key] = true
		if c.AutoIncrement && !strings.EqualFold(c.SQLType, "integer") {
			fail(c.Name, "AUTOINCREMENT requires an integer column, got %s", c.SQLType)
		}
	}

	// Check for duplicate index names
	idxNames := make(map[string]bool)
	for _, idx := range t.Indexes {
		key := strings.ToLower(idx.Name)
		if idxNames[key] {
			fail("", "duplicate index name: %s", idx.Name)
		}
		idxNames[key] = true

		// Check that index columns exist
		for _, ic := range idx.Columns {
			if ic.Column == nil || !colNames[strings.ToLower(ic.Column.Name)] {
				fail("", "index %q references a column outside the table", idx.Name)
			}
		}
	}
	return result
}

// ValidateDiff validates the migration from the stored columns of a table to
// its description. Stored columns missing from the description are kept and
// reported as warnings; new NOT NULL columns need a default value.
func ValidateDiff(current []ColumnInfo, desired *schema.Table) *ValidationResult {
	result := &ValidationResult{}
	currentCols := make(map[string]ColumnInfo, len(current))
	for _, c := range current {
		currentCols[strings.ToLower(c.Name)] = c
	}
	desiredCols := make(map[string]bool, len(desired.Columns))
	for _, c := range desired.Columns {
		desiredCols[strings.ToLower(c.Name)] = true
	}

	// Columns are never dropped.
	for _, c := range current {
		if !desiredCols[strings.ToLower(c.Name)] {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   desired.Name,
				Column:  c.Name,
				Message: "stored column is not mapped and is kept",
			})
		}
	}

	for _, c := range desired.Columns {
		stored, exists := currentCols[strings.ToLower(c.Name)]
		if !exists {
			switch {
			case desired.Virtual():
				result.Errors = append(result.Errors, &ValidationError{
					Table:    desired.Name,
					Column:   c.Name,
					Message:  "columns cannot be added to a virtual table",
					Breaking: true,
				})
			case c.PrimaryKey:
				result.Errors = append(result.Errors, &ValidationError{
					Table:    desired.Name,
					Column:   c.Name,
					Message:  "primary key column cannot be added to an existing table",
					Breaking: true,
				})
			case !c.Nullable && c.Default == "":
				result.Errors = append(result.Errors, &ValidationError{
					Table:   desired.Name,
					Column:  c.Name,
					Message: "new NOT NULL column requires a default value",
				})
			}
			continue
		}

		// Type change
		if !desired.Virtual() && !equalType(stored.Type, c.SQLType) {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   desired.Name,
				Column:  c.Name,
				Message: fmt.Sprintf("stored type %s differs from %s and is kept", stored.Type, c.SQLType),
			})
		}

		// Nullable to NOT NULL
		if !stored.NotNull && stored.PK == 0 && !c.Nullable && !desired.Virtual() {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:    desired.Name,
				Column:   c.Name,
				Message:  "stored column is nullable, NOT NULL is not enforced",
				Breaking: true,
			})
		}
	}
	return result
}
