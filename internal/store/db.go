package store

import (
	"context"
	"database/sql"
)

// Write paths take an Execer and locking reads take a Getter so callers can
// pass either a *sqlx.Tx or the pool. Row locks must be taken user first,
// then the holding, deposit or alert row.

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// DB is what every store needs from the pool for unlocked reads.
type DB interface {
	Execer
	Getter
	Selecter
}
