package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrTransient marks failures the caller may retry: lock conflicts,
// serialization failures and an expired transaction deadline.
var ErrTransient = errors.New("transient storage failure")

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, *sqlx.Tx) error) error
}

type SQLXTxRunner struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewTxRunner(db *sqlx.DB, timeout time.Duration) SQLXTxRunner {
	return SQLXTxRunner{db: db, timeout: timeout}
}

func (r SQLXTxRunner) WithTx(ctx context.Context, fn func(context.Context, *sqlx.Tx) error) error {
	return WithTx(ctx, r.db, r.timeout, fn)
}

func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// WithTx runs fn in a single transaction bounded by timeout. fn receives the
// bounded context and must issue its queries with it. Row locks taken inside
// fn serialize writers on the same rows. Nothing is retried here.
func WithTx(ctx context.Context, db *sqlx.DB, timeout time.Duration, fn func(context.Context, *sqlx.Tx) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(ctx, err)
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return classify(ctx, err)
	}
	if err := tx.Commit(); err != nil {
		return classify(ctx, err)
	}
	return nil
}

func classify(ctx context.Context, err error) error {
	if IsTransient(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}

func IsTransient(err error) bool {
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "40001", "40P01", "55P03", "57014":
		return true
	}
	return false
}

func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
