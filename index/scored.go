package index

import "sort"

// Scored is a single candidate produced while scanning an index.
type Scored struct {
	ID    int64
	Score float64
}

// TopK orders candidates by descending score (ties by ascending id) and
// returns the first k as parallel slices. k <= 0 keeps all candidates.
func TopK(candidates []Scored, k int) ([]int64, []float64) {
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].Score != candidates[b].Score {
			return candidates[a].Score > candidates[b].Score
		}
		return candidates[a].ID < candidates[b].ID
	})
	if k <= 0 || k > len(candidates) {
		k = len(candidates)
	}
	ids := make([]int64, k)
	scores := make([]float64, k)
	for n := 0; n < k; n++ {
		ids[n] = candidates[n].ID
		scores[n] = candidates[n].Score
	}
	return ids, scores
}
