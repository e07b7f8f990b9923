package vector

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRecord(t *testing.T) {
	good := Record{Content: "hello", ContentType: ContentTypeFAQ, Embedding: []float32{1, 0, 0}}
	require.NoError(t, ValidateRecord(good, 3))

	tests := []struct {
		name   string
		mutate func(r *Record)
		field  string
	}{
		{"blank content", func(r *Record) { r.Content = "  \n" }, "content"},
		{"missing content type", func(r *Record) { r.ContentType = "" }, "content_type"},
		{"missing embedding", func(r *Record) { r.Embedding = nil }, "embedding"},
		{"wrong dimension", func(r *Record) { r.Embedding = make([]float32, 10) }, "embedding"},
		{"nan component", func(r *Record) { r.Embedding = []float32{1, float32(math.NaN()), 0} }, "embedding"},
		{"inf component", func(r *Record) { r.Embedding = []float32{1, 0, float32(math.Inf(-1))} }, "embedding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := good
			tt.mutate(&rec)
			err := ValidateRecord(rec, 3)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateSearchParams(t *testing.T) {
	params := NewSearchParams([]float32{1, 0})
	assert.Equal(t, 5, params.MatchCount)
	assert.Equal(t, 0.3, params.MatchThreshold)
	assert.Empty(t, params.ContentType)
	require.NoError(t, ValidateSearchParams(params, 2))

	bad := params
	bad.MatchCount = -1
	assert.ErrorIs(t, ValidateSearchParams(bad, 2), ErrValidation)

	bad = params
	bad.MatchThreshold = math.NaN()
	assert.ErrorIs(t, ValidateSearchParams(bad, 2), ErrValidation)

	assert.ErrorIs(t, ValidateSearchParams(params, 1536), ErrValidation)

	zeroCount := params
	zeroCount.MatchCount = 0
	assert.NoError(t, ValidateSearchParams(zeroCount, 2))
}
