package litemap_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/litemap"
	"github.com/syssam/litemap/schema"
)

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := litemap.NewNotFoundError("OrderLine")
		assert.Equal(t, "litemap: OrderLine not found", err.Error())
		err = litemap.NewNotFoundErrorWithID("OrderLine", 7)
		assert.Equal(t, "litemap: OrderLine not found (key=7)", err.Error())
		assert.Equal(t, 7, err.ID())
		assert.Equal(t, "OrderLine", err.Label())
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := litemap.NewNotFoundError("Product")
		assert.True(t, errors.Is(err, litemap.ErrNotFound))
		assert.True(t, litemap.IsNotFound(fmt.Errorf("wrapper: %w", err)))
		assert.True(t, litemap.IsNotFound(litemap.ErrNotFound))
		assert.False(t, litemap.IsNotFound(errors.New("other error")))
		assert.False(t, litemap.IsNotFound(nil))
	})
}

func TestConstraintError(t *testing.T) {
	inner := errors.New("UNIQUE constraint failed: Product.Code")
	err := litemap.NewConstraintError("insert Product", inner)
	assert.Equal(t, "litemap: constraint failed: insert Product", err.Error())
	assert.True(t, errors.Is(err, inner))
	assert.True(t, litemap.IsConstraintError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, litemap.IsConstraintError(inner))
	assert.False(t, litemap.IsConstraintError(nil))
}

func TestSchemaAndDataErrors(t *testing.T) {
	serr := schema.Errorf("Log", "", "update requires a primary key")
	assert.True(t, litemap.IsSchemaError(serr))
	assert.True(t, errors.Is(serr, litemap.ErrSchema))
	assert.False(t, litemap.IsDataError(serr))

	var target *litemap.SchemaError
	assert.True(t, errors.As(fmt.Errorf("ctx: %w", serr), &target))
	assert.Equal(t, "Log", target.Table)

	derr := &litemap.DataError{Table: "OrderLine", Column: "Status", Value: int64(3), Err: errors.New("bad")}
	assert.True(t, litemap.IsDataError(derr))
	assert.False(t, litemap.IsSchemaError(derr))
}

func TestQueryAndMutationErrors(t *testing.T) {
	inner := errors.New("disk I/O error")

	qerr := litemap.NewQueryError("OrderLine", "count", inner)
	assert.Equal(t, "litemap: querying OrderLine (count): disk I/O error", qerr.Error())
	assert.True(t, errors.Is(qerr, inner))
	assert.True(t, litemap.IsQueryError(qerr))
	assert.Equal(t, "litemap: querying OrderLine: disk I/O error", (&litemap.QueryError{Entity: "OrderLine", Err: inner}).Error())

	merr := litemap.NewMutationError("OrderLine", "insert", inner)
	assert.Equal(t, "litemap: insert OrderLine: disk I/O error", merr.Error())
	assert.True(t, litemap.IsMutationError(merr))
	assert.False(t, litemap.IsMutationError(qerr))
	assert.False(t, litemap.IsQueryError(nil))
}

func TestRollbackError(t *testing.T) {
	inner := errors.New("tx done")
	err := &litemap.RollbackError{Err: inner}
	assert.Equal(t, "litemap: rollback failed: tx done", err.Error())
	assert.True(t, errors.Is(err, inner))
}
