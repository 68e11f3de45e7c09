package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RunInTx executes fn inside a transaction on db. The transaction is committed
// when fn returns nil and rolled back otherwise, including on panic.
func RunInTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return Classify(err, "begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return Classify(fmt.Errorf("commit: %w", err), "commit transaction")
	}
	return nil
}
