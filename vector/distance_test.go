package vector

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	c := []float32{2, 0}

	if sim, ok := Similarity(a, b); !ok || sim != 0 {
		t.Fatalf("Similarity(a,b) = %v, %v; want 0, true", sim, ok)
	}
	if sim, ok := Similarity(a, c); !ok || sim != 1 {
		t.Fatalf("Similarity(a,c) = %v, %v; want 1, true", sim, ok)
	}
	if _, ok := Similarity(a, []float32{1}); ok {
		t.Fatalf("dimension mismatch must be undefined")
	}
}

func TestSimilarity_Undefined(t *testing.T) {
	if _, ok := Similarity(nil, nil); ok {
		t.Fatalf("empty vectors must be undefined")
	}
	if _, ok := Similarity([]float32{0, 0}, []float32{1, 0}); ok {
		t.Fatalf("zero vector must be undefined")
	}
	if _, ok := Similarity([]float32{float32(math.Inf(1)), 0}, []float32{1, 0}); ok {
		t.Fatalf("infinite component must be undefined")
	}
}
