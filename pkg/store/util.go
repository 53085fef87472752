package store

import (
	"sort"

	"github.com/opencog/question2atomese/pkg/common"
)

// ChunkRange calls fn for consecutive [start, end) windows of at most
// chunkSize elements.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// DedupeStrings drops empty and repeated values, keeping the first
// occurrence order.
func DedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// CountShapes aggregates translations by shape in the order used by
// TranslationStorage.ShapeStatistics.
func CountShapes(translations []common.Translation, limit int) []common.ShapeCount {
	idx := make(map[string]int)
	var out []common.ShapeCount
	for _, t := range translations {
		i, ok := idx[t.Shape]
		if !ok {
			idx[t.Shape] = len(out)
			out = append(out, common.ShapeCount{
				Shape:   t.Shape,
				Type:    t.Type,
				Example: t.Question,
			})
			i = len(out) - 1
		}
		out[i].Count++
	}
	SortShapeCounts(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func SortShapeCounts(counts []common.ShapeCount) {
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Shape < counts[j].Shape
	})
}
