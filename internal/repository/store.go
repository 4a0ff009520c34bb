package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Tx is the unit-of-work handle the reservation engine operates on.
// Every multi-write operation acquires one Tx, performs all of its
// reads and writes against it, and finishes with exactly one Commit
// or Rollback. Callers defer Rollback on every exit path and flip a
// committed flag after Commit; rolling back a committed Tx is a no-op.
type Tx interface {
	Commit() error
	Rollback() error
}

// TxStarter opens transactions. *DB implements it against MySQL; tests
// substitute an in-memory implementation.
type TxStarter interface {
	Begin(ctx context.Context) (Tx, error)
}

// DB wraps *sql.DB so that Begin hands out repository.Tx handles with
// the isolation level the engine expects. The embedded handle stays
// available for the repositories' own non-transactional queries.
type DB struct {
	*sql.DB
}

// NewDB wraps an open database handle.
func NewDB(db *sql.DB) *DB { return &DB{DB: db} }

// Begin opens a read-committed transaction. Read committed is enough
// here: the only contended write is the conditional seat decrement,
// which is race-safe by construction (the WHERE clause re-checks the
// counter at write time).
func (d *DB) Begin(ctx context.Context) (Tx, error) {
	tx, err := d.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

// sqlTx adapts *sql.Tx to the Tx interface.
type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Commit() error   { return t.tx.Commit() }
func (t *sqlTx) Rollback() error { return t.tx.Rollback() }

// errForeignTx is returned when a MySQL repository receives a Tx that
// was not produced by *DB.Begin. Stores and transactions must come
// from the same backend.
var errForeignTx = errors.New("repository: tx was not started by this store's DB")

// unwrapTx extracts the underlying *sql.Tx from a repository.Tx.
func unwrapTx(tx Tx) (*sql.Tx, error) {
	h, ok := tx.(*sqlTx)
	if !ok {
		return nil, errForeignTx
	}
	return h.tx, nil
}
