package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TxRunner выполняет функцию в рамках одной транзакции БД:
// либо все изменения fn фиксируются, либо ни одно.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type txRunner struct {
	db      *sql.DB
	retries int
}

// NewTxRunner создаёт раннер транзакций. При deadlock и serialization failure
// транзакция целиком повторяется не более retries раз.
func NewTxRunner(db *sql.DB, retries int) TxRunner {
	if retries < 0 {
		retries = 0
	}
	return &txRunner{db: db, retries: retries}
}

func (r *txRunner) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 0; attempt <= r.retries; attempt++ {
		err = r.runOnce(ctx, fn)
		if !errors.Is(err, ErrTxConflict) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (r *txRunner) runOnce(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPqError(err))
	}

	// паника внутри fn не должна оставлять транзакцию открытой
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapPqError(err))
	}
	return nil
}
