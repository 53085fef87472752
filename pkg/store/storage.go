package store

import (
	"context"
	"errors"

	"github.com/opencog/question2atomese/pkg/common"
)

// ErrNotFound is returned when a translation does not exist.
var ErrNotFound = errors.New("translation not found")

// TranslationStorage persists translations and answers shape statistics.
// Saving a translation whose ID already exists replaces it.
type TranslationStorage interface {
	SaveTranslations(ctx context.Context, translations []common.Translation) error
	GetTranslation(ctx context.Context, id string) (*common.Translation, error)
	// ShapeStatistics returns shapes ordered by count descending, then
	// shape ascending. A limit <= 0 returns all shapes.
	ShapeStatistics(ctx context.Context, limit int) ([]common.ShapeCount, error)
	DeleteTranslations(ctx context.Context, ids []string) error
	Close() error
}
