package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/opencog/question2atomese/pkg/common"
	"github.com/opencog/question2atomese/pkg/store"
)

var _ store.TranslationStorage = (*Storage)(nil)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "q2a.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStorage(t)

	in := []common.Translation{
		{ID: "a", QuestionID: 1, ImageID: 7, Question: "Is the car red?", Type: "yes/no", Formula: "_predadj(car, red)", Shape: "_predadj($A, $B)", Scheme: "(SatisfactionLink)"},
		{ID: "b", QuestionID: 2, Question: "What is the cat eating?", Type: "what", Formula: "f", Shape: "_obj($A, $B);_subj($A, $C)", Scheme: "(GetLink)"},
		{ID: "c", QuestionID: 3, Question: "What is the dog chasing?", Type: "what", Formula: "f", Shape: "_obj($A, $B);_subj($A, $C)", Scheme: "(GetLink)"},
	}
	if err := s.SaveTranslations(ctx, in); err != nil {
		t.Fatalf("SaveTranslations() error: %v", err)
	}

	got, err := s.GetTranslation(ctx, "a")
	if err != nil {
		t.Fatalf("GetTranslation() error: %v", err)
	}
	if got.Question != in[0].Question || got.ImageID != 7 || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected translation: %+v", got)
	}

	stats, err := s.ShapeStatistics(ctx, 0)
	if err != nil {
		t.Fatalf("ShapeStatistics() error: %v", err)
	}
	want := []common.ShapeCount{
		{Shape: "_obj($A, $B);_subj($A, $C)", Type: "what", Count: 2, Example: "What is the cat eating?"},
		{Shape: "_predadj($A, $B)", Type: "yes/no", Count: 1, Example: "Is the car red?"},
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Fatalf("ShapeStatistics() mismatch (-want +got):\n%s", diff)
	}

	limited, err := s.ShapeStatistics(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("ShapeStatistics(1) = %v, %v", limited, err)
	}

	if err := s.DeleteTranslations(ctx, []string{"a", "a", ""}); err != nil {
		t.Fatalf("DeleteTranslations() error: %v", err)
	}
	if _, err := s.GetTranslation(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveTranslationsReplaces(t *testing.T) {
	ctx := context.Background()
	s := openTestStorage(t)

	if err := s.SaveTranslations(ctx, []common.Translation{{ID: "a", Question: "old", Type: "other", Shape: "s"}}); err != nil {
		t.Fatalf("SaveTranslations() error: %v", err)
	}
	if err := s.SaveTranslations(ctx, []common.Translation{{ID: "a", Question: "new", Type: "other", Shape: "s"}}); err != nil {
		t.Fatalf("SaveTranslations() error: %v", err)
	}

	got, err := s.GetTranslation(ctx, "a")
	if err != nil || got.Question != "new" {
		t.Fatalf("GetTranslation() = %+v, %v", got, err)
	}
	stats, _ := s.ShapeStatistics(ctx, 0)
	if len(stats) != 1 || stats[0].Count != 1 {
		t.Fatalf("replace duplicated rows: %+v", stats)
	}
}
