package litemap

import (
	"context"
	"fmt"

	"github.com/syssam/litemap/dialect"
)

// Tx is an open transaction. It offers the same operations as DB and shares
// its caches. A Tx must end with Commit or Rollback.
type Tx struct {
	session
	dtx dialect.Tx
}

// Tx starts a transaction.
func (db *DB) Tx(ctx context.Context) (*Tx, error) {
	tx, err := db.drv.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("litemap: starting a transaction: %w", err)
	}
	return &Tx{session: session{config: db.config, q: tx, tx: true}, dtx: tx}, nil
}

// Tx fails with ErrTxStarted; transactions do not nest.
func (tx *Tx) Tx(context.Context) (*Tx, error) {
	return nil, ErrTxStarted
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	return tx.dtx.Commit()
}

// Rollback rolls back the transaction.
func (tx *Tx) Rollback() error {
	return tx.dtx.Rollback()
}

// WithTx runs fn within a transaction.
// If fn returns an error, the transaction is rolled back.
// If fn panics, the transaction is rolled back and the panic is re-raised.
// Otherwise, the transaction is committed.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := db.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back transaction: %w", err, &RollbackError{Err: rerr})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("litemap: committing transaction: %w", err)
	}
	return nil
}
