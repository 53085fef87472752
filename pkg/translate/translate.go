package translate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opencog/question2atomese/internal/util"
	"github.com/opencog/question2atomese/pkg/atomese"
	"github.com/opencog/question2atomese/pkg/common"
	"github.com/opencog/question2atomese/pkg/logger"
	"github.com/opencog/question2atomese/pkg/question"
	"github.com/opencog/question2atomese/pkg/relex"
	"github.com/opencog/question2atomese/pkg/store"
)

// Failure is a question that could not be translated.
type Failure struct {
	Index      int
	QuestionID int64
	Err        error
}

// Report summarizes a TranslateAll run. Shapes covers the translations of
// this run only.
type Report struct {
	Translated   int
	Failed       []Failure
	Shapes       []common.ShapeCount
	Translations []common.Translation
}

// Translate converts one parsed question. Errors caused by the input are
// marked with util.Permanent since retrying cannot fix them.
func (c *Client) Translate(ctx context.Context, p question.Parsed) (*common.Translation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := question.Validate(&p); err != nil {
		return nil, util.Permanent(err)
	}

	sentence, err := relex.ParseRelations(p.Relex, c.config.Attributes)
	if err != nil {
		return nil, util.Permanent(fmt.Errorf("failed to parse relations: %w", err))
	}
	formula, err := c.builder.Build(sentence)
	if err != nil {
		return nil, fmt.Errorf("failed to build formula: %w", err)
	}
	query, err := atomese.Convert(formula, c.config)
	if err != nil {
		return nil, util.Permanent(fmt.Errorf("failed to convert formula: %w", err))
	}

	id := p.ID
	if id == "" {
		id, err = util.NewID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate ID for translation: %w", err)
		}
	}

	return &common.Translation{
		ID:         id,
		QuestionID: p.QuestionID,
		ImageID:    p.ImageID,
		Question:   util.CollapseWhitespace(p.Question),
		Type:       query.Type,
		Formula:    formula.String(),
		Shape:      formula.Shape(),
		Scheme:     query.Scheme,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// TranslateAll translates records in parallel and saves the results to
// storage when it is not nil. A failing record is reported in
// Report.Failed and does not stop the others; only cancellation and
// storage errors abort the run.
func (c *Client) TranslateAll(
	ctx context.Context,
	records []question.Parsed,
	storage store.TranslationStorage,
) (*Report, error) {
	logger.Info("[Translate] Processing", "total_questions", len(records))

	results := make([]*common.Translation, len(records))
	var failed []Failure
	failMu := sync.Mutex{}

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.parallelQuestions)
	for i := range records {
		idx := i
		eg.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
				t, err := c.Translate(gCtx, records[idx])
				if isCancellation(gCtx, err) {
					return err
				}
				if err != nil {
					logger.Debug("[Translate] Question failed", "index", idx, "question_id", records[idx].QuestionID, "err", err)
					failMu.Lock()
					failed = append(failed, Failure{Index: idx, QuestionID: records[idx].QuestionID, Err: err})
					failMu.Unlock()
					return nil
				}
				results[idx] = t
				return nil
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("translation cancelled: %w", err)
	}

	translations := make([]common.Translation, 0, len(records))
	for _, t := range results {
		if t != nil {
			translations = append(translations, *t)
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].Index < failed[j].Index })

	if storage != nil {
		err := store.ChunkRange(len(translations), c.chunkSize, func(start, end int) error {
			chunk := translations[start:end]
			return util.RetryErrWithContext(ctx, c.maxRetries, func(ctx context.Context) error {
				return storage.SaveTranslations(ctx, chunk)
			})
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save translations: %w", err)
		}
	}

	logger.Info("[Translate] Completed", "translated", len(translations), "failed", len(failed))

	return &Report{
		Translated:   len(translations),
		Failed:       failed,
		Shapes:       store.CountShapes(translations, 0),
		Translations: translations,
	}, nil
}


// isCancellation reports whether err ends the whole run rather than a
// single record.
func isCancellation(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
