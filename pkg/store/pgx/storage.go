package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// TranslationDBStorage implements store.TranslationStorage on PostgreSQL.
// The schema is created by internal/db migrations.
type TranslationDBStorage struct {
	conn      pgxIConn
	chunkSize int
	closeFn   func()
}

type TranslationDBStorageOption func(*TranslationDBStorage)

// WithChunkSize sets how many translations are written per transaction.
func WithChunkSize(n int) TranslationDBStorageOption {
	return func(s *TranslationDBStorage) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithCloser sets a function run by Close, typically the pool's Close.
func WithCloser(fn func()) TranslationDBStorageOption {
	return func(s *TranslationDBStorage) {
		s.closeFn = fn
	}
}

// NewTranslationDBStorage wraps an existing connection or pool.
func NewTranslationDBStorage(conn pgxIConn, opts ...TranslationDBStorageOption) *TranslationDBStorage {
	s := &TranslationDBStorage{
		conn:      conn,
		chunkSize: 1000,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

func (s *TranslationDBStorage) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
