package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/opencog/question2atomese/internal/util"
	"github.com/opencog/question2atomese/pkg/common"
	"github.com/opencog/question2atomese/pkg/logger"
	"github.com/opencog/question2atomese/pkg/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS translations (
    seq           INTEGER PRIMARY KEY AUTOINCREMENT,
    id            TEXT    NOT NULL UNIQUE,
    question_id   INTEGER NOT NULL DEFAULT 0,
    image_id      INTEGER NOT NULL DEFAULT 0,
    question      TEXT    NOT NULL,
    question_type TEXT    NOT NULL,
    formula       TEXT    NOT NULL,
    shape         TEXT    NOT NULL,
    scheme        TEXT    NOT NULL,
    created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS translations_shape_idx ON translations (shape);
`

const upsertTranslation = `
INSERT INTO translations (id, question_id, image_id, question, question_type, formula, shape, scheme, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    question_id   = excluded.question_id,
    image_id      = excluded.image_id,
    question      = excluded.question,
    question_type = excluded.question_type,
    formula       = excluded.formula,
    shape         = excluded.shape,
    scheme        = excluded.scheme`

// Storage implements store.TranslationStorage on a SQLite file. It is meant
// for local batch runs of the CLI.
type Storage struct {
	db        *sql.DB
	chunkSize int
}

// Open opens or creates the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}

	logger.Debug("[Store] Opened sqlite database", "path", path)
	return &Storage{db: db, chunkSize: 500}, nil
}

func (s *Storage) SaveTranslations(ctx context.Context, translations []common.Translation) error {
	return store.ChunkRange(len(translations), s.chunkSize, func(start, end int) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, upsertTranslation)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := time.Now().UnixNano()
		for _, t := range translations[start:end] {
			createdAt := now
			if !t.CreatedAt.IsZero() {
				createdAt = t.CreatedAt.UnixNano()
			}
			_, err := stmt.ExecContext(ctx,
				t.ID, t.QuestionID, t.ImageID,
				util.SanitizeDBText(t.Question), t.Type,
				util.SanitizeDBText(t.Formula), t.Shape,
				util.SanitizeDBText(t.Scheme), createdAt,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert translation %s: %w", t.ID, err)
			}
		}

		return tx.Commit()
	})
}

func (s *Storage) GetTranslation(ctx context.Context, id string) (*common.Translation, error) {
	var t common.Translation
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, question_id, image_id, question, question_type, formula, shape, scheme, created_at
		FROM translations WHERE id = ?`, id,
	).Scan(&t.ID, &t.QuestionID, &t.ImageID, &t.Question, &t.Type, &t.Formula, &t.Shape, &t.Scheme, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get translation: %w", err)
	}
	t.CreatedAt = time.Unix(0, createdAt).UTC()
	return &t, nil
}

// ShapeStatistics groups translations by shape. The example question and
// type come from the earliest inserted translation of each shape.
func (s *Storage) ShapeStatistics(ctx context.Context, limit int) ([]common.ShapeCount, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.shape, t.question_type, g.cnt, t.question
		FROM (
			SELECT shape, count(*) AS cnt, min(seq) AS first_seq
			FROM translations GROUP BY shape
		) g
		JOIN translations t ON t.seq = g.first_seq
		ORDER BY g.cnt DESC, t.shape ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query shape statistics: %w", err)
	}
	defer rows.Close()

	var out []common.ShapeCount
	for rows.Next() {
		var sc common.ShapeCount
		if err := rows.Scan(&sc.Shape, &sc.Type, &sc.Count, &sc.Example); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Storage) DeleteTranslations(ctx context.Context, ids []string) error {
	ids = store.DedupeStrings(ids)
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM translations WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("failed to delete translations: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}
