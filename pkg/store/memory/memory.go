package memory

import (
	"context"
	"sync"

	"github.com/opencog/question2atomese/pkg/common"
	"github.com/opencog/question2atomese/pkg/store"
)

// Storage keeps translations in process memory. It is used by the CLI for
// dry runs and by tests.
type Storage struct {
	mu           sync.RWMutex
	translations map[string]common.Translation
	order        []string
}

func New() *Storage {
	return &Storage{translations: make(map[string]common.Translation)}
}

func (s *Storage) SaveTranslations(ctx context.Context, translations []common.Translation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range translations {
		if _, ok := s.translations[t.ID]; !ok {
			s.order = append(s.order, t.ID)
		}
		s.translations[t.ID] = t
	}
	return nil
}

func (s *Storage) GetTranslation(ctx context.Context, id string) (*common.Translation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.translations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (s *Storage) ShapeStatistics(ctx context.Context, limit int) ([]common.ShapeCount, error) {
	s.mu.RLock()
	all := make([]common.Translation, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.translations[id])
	}
	s.mu.RUnlock()

	return store.CountShapes(all, limit), nil
}

func (s *Storage) DeleteTranslations(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		delete(s.translations, id)
		remove[id] = struct{}{}
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := remove[id]; !ok {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return nil
}

// Len returns the number of stored translations.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.translations)
}

func (s *Storage) Close() error {
	return nil
}
