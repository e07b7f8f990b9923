// Package vecutil layers text-in/text-out helpers over a vector.Store. It stays
// embedding-agnostic: callers supply an EmbedFunc backed by whatever model or
// provider they use.
package vecutil

import (
	"context"
	"fmt"
)

// EmbedFunc converts free-form text into an embedding.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// EmbedAll embeds texts in order, stopping at the first failure.
func EmbedAll(ctx context.Context, embed EmbedFunc, texts []string) ([][]float32, error) {
	if embed == nil {
		return nil, fmt.Errorf("vecutil: EmbedFunc is nil")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("vecutil: embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}
