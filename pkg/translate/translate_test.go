package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/opencog/question2atomese/internal/util"
	"github.com/opencog/question2atomese/pkg/atomese"
	"github.com/opencog/question2atomese/pkg/common"
	"github.com/opencog/question2atomese/pkg/question"
	"github.com/opencog/question2atomese/pkg/relex"
	"github.com/opencog/question2atomese/pkg/store/memory"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(NewClientParams{ParallelQuestions: 2, ChunkSize: 2})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(NewClientParams{})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	if c.parallelQuestions != 4 || c.maxRetries != 3 || c.chunkSize != 500 || c.Config() == nil {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestTranslate(t *testing.T) {
	c := newTestClient(t)

	tr, err := c.Translate(context.Background(), question.Parsed{
		QuestionID: 5,
		ImageID:    9,
		Question:   "  What is the   cat eating? ",
		Relex:      "_obj(eat, _$qVar)\n_subj(eat, cat)\nQUERY-TYPE(_$qVar, what)\ntense(eat, present_progressive)",
	})
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}

	if !util.IsID(tr.ID) {
		t.Fatalf("expected generated ID, got %q", tr.ID)
	}
	if tr.Question != "What is the cat eating?" {
		t.Fatalf("Question = %q", tr.Question)
	}
	if tr.Type != "what" {
		t.Fatalf("Type = %q, want what", tr.Type)
	}
	if tr.Formula != "_obj(eat, _$qVar);_subj(eat, cat)" {
		t.Fatalf("Formula = %q", tr.Formula)
	}
	if tr.Shape != "_obj($A, $B);_subj($A, $C)" {
		t.Fatalf("Shape = %q", tr.Shape)
	}
	if !strings.HasPrefix(tr.Scheme, "(GetLink") {
		t.Fatalf("Scheme = %q", tr.Scheme)
	}
	if tr.QuestionID != 5 || tr.ImageID != 9 || tr.CreatedAt.IsZero() {
		t.Fatalf("unexpected metadata: %+v", tr)
	}
}

func TestTranslateKeepsID(t *testing.T) {
	c := newTestClient(t)
	tr, err := c.Translate(context.Background(), question.Parsed{ID: "fixed", Question: "Is the car red?", Relex: "_predadj(car, red)"})
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if tr.ID != "fixed" {
		t.Fatalf("ID = %q, want fixed", tr.ID)
	}
}

func TestTranslatePermanentErrors(t *testing.T) {
	c := newTestClient(t)
	tests := []struct {
		name   string
		record question.Parsed
		target error
	}{
		{"malformed relex", question.Parsed{Question: "q", Relex: "not a relation"}, relex.ErrMalformedRelation},
		{"only ignored relations", question.Parsed{Question: "q", Relex: "_det(cat, the)"}, atomese.ErrEmptyFormula},
		{"missing question", question.Parsed{Relex: "_subj(eat, cat)"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Translate(context.Background(), tt.record)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !util.IsPermanent(err) {
				t.Fatalf("expected permanent error, got %v", err)
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestTranslateAll(t *testing.T) {
	c := newTestClient(t)
	s := memory.New()

	records := []question.Parsed{
		{QuestionID: 1, Question: "What is the cat eating?", Relex: "_obj(eat, _$qVar)\n_subj(eat, cat)"},
		{QuestionID: 2, Question: "broken", Relex: "oops"},
		{QuestionID: 3, Question: "What is the dog chasing?", Relex: "_obj(chase, _$qVar)\n_subj(chase, dog)"},
		{QuestionID: 4, Question: "Is the car red?", Relex: "_predadj(car, red)\nTRUTH-QUERY-FLAG(car, T)"},
		{QuestionID: 5, Question: "also broken", Relex: "_det(a, b)"},
	}

	report, err := c.TranslateAll(context.Background(), records, s)
	if err != nil {
		t.Fatalf("TranslateAll() error: %v", err)
	}
	if report.Translated != 3 || s.Len() != 3 {
		t.Fatalf("translated %d, stored %d, want 3", report.Translated, s.Len())
	}
	if len(report.Failed) != 2 || report.Failed[0].Index != 1 || report.Failed[1].QuestionID != 5 {
		t.Fatalf("unexpected failures: %+v", report.Failed)
	}
	if report.Translations[0].QuestionID != 1 || report.Translations[2].QuestionID != 4 {
		t.Fatalf("translations not in input order: %+v", report.Translations)
	}
	if len(report.Shapes) != 2 || report.Shapes[0].Count != 2 {
		t.Fatalf("unexpected shapes: %+v", report.Shapes)
	}
}

type flakyStorage struct {
	*memory.Storage
	failures int
	calls    int
}

func (f *flakyStorage) SaveTranslations(ctx context.Context, ts []common.Translation) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection reset")
	}
	return f.Storage.SaveTranslations(ctx, ts)
}

func TestTranslateAllRetriesSave(t *testing.T) {
	c := newTestClient(t)
	records := []question.Parsed{
		{Question: "Is the car red?", Relex: "_predadj(car, red)"},
	}

	s := &flakyStorage{Storage: memory.New(), failures: 2}
	if _, err := c.TranslateAll(context.Background(), records, s); err != nil {
		t.Fatalf("TranslateAll() error: %v", err)
	}
	if s.calls != 3 || s.Len() != 1 {
		t.Fatalf("calls=%d len=%d", s.calls, s.Len())
	}

	s = &flakyStorage{Storage: memory.New(), failures: 5}
	if _, err := c.TranslateAll(context.Background(), records, s); err == nil {
		t.Fatalf("expected save error")
	}
}

func TestTranslateAllCancelled(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.TranslateAll(ctx, []question.Parsed{{Question: "q", Relex: "_subj(a, b)"}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIsCancellation(t *testing.T) {
	live := context.Background()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want bool
	}{
		{"no error", cancelled, nil, false},
		{"record error", live, util.Permanent(errors.New("bad relex")), false},
		{"context done", cancelled, errors.New("failed to build formula"), true},
		{"wrapped cancel", live, fmt.Errorf("translate: %w", context.Canceled), true},
		{"deadline", live, context.DeadlineExceeded, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isCancellation(tt.ctx, tt.err); got != tt.want {
				t.Fatalf("isCancellation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTranslateAllDeadlineAborts(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	records := make([]question.Parsed, 10)
	for i := range records {
		records[i] = question.Parsed{Question: "q", Relex: "_subj(a, b)"}
	}
	report, err := c.TranslateAll(ctx, records, memory.New())
	if !errors.Is(err, context.DeadlineExceeded) || report != nil {
		t.Fatalf("expected run to abort with deadline, got report=%v err=%v", report, err)
	}
}
