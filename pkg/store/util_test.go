package store

import (
	"errors"
	"reflect"
	"testing"

	"github.com/opencog/question2atomese/pkg/common"
)

func TestChunkRange(t *testing.T) {
	var got [][2]int
	err := ChunkRange(5, 2, func(start, end int) error {
		got = append(got, [2]int{start, end})
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][2]int{{0, 2}, {2, 4}, {4, 5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ChunkRange windows = %v, want %v", got, want)
	}

	calls := 0
	boom := errors.New("boom")
	err = ChunkRange(10, 0, func(start, end int) error {
		calls++
		if start != 0 || end != 10 {
			t.Fatalf("unexpected window [%d, %d)", start, end)
		}
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected single failing call, got %v after %d", err, calls)
	}
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"b", "", "a", "b", "c", "a"})
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DedupeStrings() = %v, want %v", got, want)
	}
	if DedupeStrings(nil) != nil {
		t.Fatalf("DedupeStrings(nil) should be nil")
	}
}

func TestCountShapes(t *testing.T) {
	translations := []common.Translation{
		{Shape: "s2", Type: "what", Question: "q1"},
		{Shape: "s1", Type: "yes/no", Question: "q2"},
		{Shape: "s2", Type: "what", Question: "q3"},
		{Shape: "s3", Type: "how", Question: "q4"},
	}

	got := CountShapes(translations, 0)
	want := []common.ShapeCount{
		{Shape: "s2", Type: "what", Count: 2, Example: "q1"},
		{Shape: "s1", Type: "yes/no", Count: 1, Example: "q2"},
		{Shape: "s3", Type: "how", Count: 1, Example: "q4"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CountShapes() = %+v, want %+v", got, want)
	}

	if got := CountShapes(translations, 1); len(got) != 1 || got[0].Shape != "s2" {
		t.Fatalf("CountShapes() with limit = %+v", got)
	}
}
