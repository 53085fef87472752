package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opencog/question2atomese/pkg/store"
	"github.com/opencog/question2atomese/pkg/store/memory"
	pgstore "github.com/opencog/question2atomese/pkg/store/pgx"
	"github.com/opencog/question2atomese/pkg/store/sqlite"
)

const (
	KindMemory   = "memory"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// OpenStorage opens the translation storage of the given kind. dsn is the
// database file for sqlite and the connection URL for postgres; postgres
// databases are migrated before use.
func OpenStorage(ctx context.Context, kind string, dsn string) (store.TranslationStorage, error) {
	switch kind {
	case "", KindMemory:
		return memory.New(), nil
	case KindSQLite:
		if dsn == "" {
			return nil, fmt.Errorf("sqlite storage needs a database path")
		}
		return sqlite.Open(ctx, dsn)
	case KindPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres storage needs DATABASE_URL")
		}
		if err := Migrate(dsn); err != nil {
			return nil, err
		}
		pool, err := OpenPool(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return pgstore.NewTranslationDBStorage(pool, pgstore.WithCloser(pool.Close)), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", kind)
	}
}

// OpenPool connects to the Postgres database at dsn and checks that it is
// reachable.
func OpenPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, nil
}
