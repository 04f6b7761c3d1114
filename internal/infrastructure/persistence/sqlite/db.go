package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

type txKey struct{}

// snapshotTables are rewritten by every SaveAll, children before parents
var snapshotTables = []string{"invoice_approvals", "invoice_items", "invoices", "products", "ledger_entries"}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB is the SQLite handle shared by the state store and the history log
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB wraps an opened and migrated database
func NewDB(sqlDB *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: sqlDB, logger: logger}
}

// conn returns the transaction carried by ctx, or the pool when there is none
func (db *DB) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db.DB
}

// inTx runs fn in one transaction. A nested call joins the outer one.
func (db *DB) inTx(ctx context.Context, fn func(ctx context.Context, q querier) error) (err error) {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx, tx)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			db.logger.Error("Snapshot transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				db.logger.Error("Failed to roll back snapshot transaction", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx), tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot transaction: %w", err)
	}
	return nil
}

// replaceSnapshot empties the snapshot tables and lets fill write the new
// rows in the same transaction, so readers see either the old or the new state
func (db *DB) replaceSnapshot(ctx context.Context, fill func(ctx context.Context, q querier) error) error {
	return db.inTx(ctx, func(ctx context.Context, q querier) error {
		for _, table := range snapshotTables {
			if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return fill(ctx, q)
	})
}
