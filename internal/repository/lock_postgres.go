package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type txKey struct{}

// executor returns the transaction carried by ctx, or db outside of one.
func executor(ctx context.Context, db *pgxpool.Pool) dbtx {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}

// AdvisoryLocker serializes per-business writes across every instance sharing
// the database. fn runs inside one transaction holding
// pg_advisory_xact_lock(business id); repositories called with the ctx passed
// to fn join that transaction.
type AdvisoryLocker struct {
	db *pgxpool.Pool
}

func NewAdvisoryLocker(db *pgxpool.Pool) *AdvisoryLocker {
	return &AdvisoryLocker{
		db: db,
	}
}

func (l *AdvisoryLocker) WithBusinessLock(ctx context.Context, businessID int64, fn func(ctx context.Context) error) error {
	tx, err := executor(ctx, l.db).Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", businessID); err != nil {
		return fmt.Errorf("error locking business %d: %w", businessID, err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing business %d: %w", businessID, err)
	}

	return nil
}
