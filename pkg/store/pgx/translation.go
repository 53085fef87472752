package pgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/opencog/question2atomese/internal/util"
	"github.com/opencog/question2atomese/pkg/common"
	"github.com/opencog/question2atomese/pkg/logger"
	"github.com/opencog/question2atomese/pkg/store"
)

const upsertTranslations = `
INSERT INTO translations (id, question_id, image_id, question, question_type, formula, shape, scheme, created_at)
SELECT * FROM unnest(
    $1::text[], $2::bigint[], $3::bigint[], $4::text[],
    $5::text[], $6::text[], $7::text[], $8::text[],
    $9::timestamptz[]
)
ON CONFLICT (id) DO UPDATE SET
    question_id   = EXCLUDED.question_id,
    image_id      = EXCLUDED.image_id,
    question      = EXCLUDED.question,
    question_type = EXCLUDED.question_type,
    formula       = EXCLUDED.formula,
    shape         = EXCLUDED.shape,
    scheme        = EXCLUDED.scheme`

const selectTranslation = `
SELECT id, question_id, image_id, question, question_type, formula, shape, scheme, created_at
FROM translations
WHERE id = $1`

const selectShapeStatistics = `
SELECT shape,
       (array_agg(question_type ORDER BY created_at, id))[1],
       count(*),
       (array_agg(question ORDER BY created_at, id))[1]
FROM translations
GROUP BY shape
ORDER BY count(*) DESC, shape ASC
LIMIT $1`

const deleteTranslations = `DELETE FROM translations WHERE id = ANY($1::text[])`

type translationColumns struct {
	ids         []string
	questionIDs []int64
	imageIDs    []int64
	questions   []string
	types       []string
	formulas    []string
	shapes      []string
	schemes     []string
	createdAt   []time.Time
}

// toColumns builds the unnest arrays for one upsert. A statement may touch
// each id only once, so repeated ids keep the values of their last
// occurrence at the position of the first.
func toColumns(translations []common.Translation) translationColumns {
	n := len(translations)
	now := time.Now().UTC()
	c := translationColumns{
		ids:         make([]string, 0, n),
		questionIDs: make([]int64, 0, n),
		imageIDs:    make([]int64, 0, n),
		questions:   make([]string, 0, n),
		types:       make([]string, 0, n),
		formulas:    make([]string, 0, n),
		shapes:      make([]string, 0, n),
		schemes:     make([]string, 0, n),
		createdAt:   make([]time.Time, 0, n),
	}
	index := make(map[string]int, n)
	for _, t := range translations {
		createdAt := t.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if i, ok := index[t.ID]; ok {
			c.questionIDs[i] = t.QuestionID
			c.imageIDs[i] = t.ImageID
			c.questions[i] = util.SanitizeDBText(t.Question)
			c.types[i] = t.Type
			c.formulas[i] = util.SanitizeDBText(t.Formula)
			c.shapes[i] = t.Shape
			c.schemes[i] = util.SanitizeDBText(t.Scheme)
			c.createdAt[i] = createdAt
			continue
		}
		index[t.ID] = len(c.ids)
		c.ids = append(c.ids, t.ID)
		c.questionIDs = append(c.questionIDs, t.QuestionID)
		c.imageIDs = append(c.imageIDs, t.ImageID)
		c.questions = append(c.questions, util.SanitizeDBText(t.Question))
		c.types = append(c.types, t.Type)
		c.formulas = append(c.formulas, util.SanitizeDBText(t.Formula))
		c.shapes = append(c.shapes, t.Shape)
		c.schemes = append(c.schemes, util.SanitizeDBText(t.Scheme))
		c.createdAt = append(c.createdAt, createdAt)
	}
	return c
}

// SaveTranslations upserts translations, one transaction per chunk.
func (s *TranslationDBStorage) SaveTranslations(ctx context.Context, translations []common.Translation) error {
	if len(translations) == 0 {
		return nil
	}

	logger.Debug("[Store][SaveTranslations] Bulk upserting translations", "translations", len(translations))

	return store.ChunkRange(len(translations), s.chunkSize, func(start, end int) error {
		tx, err := s.conn.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		c := toColumns(translations[start:end])
		_, err = tx.Exec(ctx, upsertTranslations,
			c.ids, c.questionIDs, c.imageIDs, c.questions,
			c.types, c.formulas, c.shapes, c.schemes,
			c.createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert translations: %w", err)
		}

		return tx.Commit(ctx)
	})
}

func (s *TranslationDBStorage) GetTranslation(ctx context.Context, id string) (*common.Translation, error) {
	var t common.Translation
	err := s.conn.QueryRow(ctx, selectTranslation, id).Scan(
		&t.ID, &t.QuestionID, &t.ImageID, &t.Question,
		&t.Type, &t.Formula, &t.Shape, &t.Scheme, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get translation: %w", err)
	}
	return &t, nil
}

func (s *TranslationDBStorage) ShapeStatistics(ctx context.Context, limit int) ([]common.ShapeCount, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := s.conn.Query(ctx, selectShapeStatistics, lim)
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

func (s *TranslationDBStorage) DeleteTranslations(ctx context.Context, ids []string) error {
	ids = store.DedupeStrings(ids)
	if len(ids) == 0 {
		return nil
	}
	tag, err := s.conn.Exec(ctx, deleteTranslations, ids)
	if err != nil {
		return fmt.Errorf("failed to delete translations: %w", err)
	}
	logger.Debug("[Store][DeleteTranslations] Deleted translations", "rows", tag.RowsAffected())
	return nil
}
