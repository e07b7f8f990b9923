package vector

import (
	"math"
	"sort"
)

// Candidate is a record scored against a query, prior to ranking.
type Candidate struct {
	Record     Record
	Similarity float64
}

// Rank applies the search stages to scored candidates: drop undefined scores,
// keep similarity strictly above the threshold, apply the content-type
// filter, order by similarity descending (ties by ascending id) and cap at
// MatchCount.
func Rank(candidates []Candidate, params SearchParams) []Match {
	if params.MatchCount <= 0 {
		return []Match{}
	}
	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if math.IsNaN(c.Similarity) || !(c.Similarity > params.MatchThreshold) {
			continue
		}
		if params.ContentType != "" && c.Record.ContentType != params.ContentType {
			continue
		}
		kept = append(kept, c)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Similarity != kept[j].Similarity {
			return kept[i].Similarity > kept[j].Similarity
		}
		return kept[i].Record.ID < kept[j].Record.ID
	})
	if len(kept) > params.MatchCount {
		kept = kept[:params.MatchCount]
	}
	out := make([]Match, len(kept))
	for i, c := range kept {
		out[i] = NewMatch(c.Record, c.Similarity)
	}
	return out
}

// NewMatch projects rec into a search hit.
func NewMatch(rec Record, similarity float64) Match {
	return Match{
		ID:          rec.ID,
		Content:     rec.Content,
		ContentType: rec.ContentType,
		ReferenceID: rec.ReferenceID,
		Metadata:    rec.Metadata,
		Similarity:  similarity,
	}
}

// Score computes candidates for query over recs, skipping undefined pairs.
func Score(recs []Record, query []float32) []Candidate {
	out := make([]Candidate, 0, len(recs))
	for _, rec := range recs {
		if sim, ok := Similarity(rec.Embedding, query); ok {
			out = append(out, Candidate{Record: rec, Similarity: sim})
		}
	}
	return out
}
