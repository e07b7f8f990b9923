package vector

import (
	"math"
	"strings"
)

// ValidateRecord checks rec against a store of the given dimension.
func ValidateRecord(rec Record, dimensions int) error {
	if strings.TrimSpace(rec.Content) == "" {
		return invalid("content", "must not be blank")
	}
	if strings.TrimSpace(rec.ContentType) == "" {
		return invalid("content_type", "is required")
	}
	return validateEmbedding("embedding", rec.Embedding, dimensions)
}

// ValidateSearchParams checks params against a store of the given dimension.
func ValidateSearchParams(params SearchParams, dimensions int) error {
	if err := validateEmbedding("query_embedding", params.QueryEmbedding, dimensions); err != nil {
		return err
	}
	if params.MatchCount < 0 {
		return invalid("match_count", "must not be negative, got %d", params.MatchCount)
	}
	if math.IsNaN(params.MatchThreshold) {
		return invalid("match_threshold", "must be a number")
	}
	return nil
}

func validateEmbedding(field string, v []float32, dimensions int) error {
	if len(v) == 0 {
		return invalid(field, "is required")
	}
	if len(v) != dimensions {
		return invalid(field, "expected %d dimensions, got %d", dimensions, len(v))
	}
	for i, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return invalid(field, "component %d is not finite", i)
		}
	}
	return nil
}
