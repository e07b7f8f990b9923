package vector

import "math"

// Similarity returns the cosine similarity of a and b. ok is false when the
// lengths differ or either vector has zero magnitude; such pairs never match.
func Similarity(a, b []float32) (sim float64, ok bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, false
	}
	sim = dot / (math.Sqrt(na2) * math.Sqrt(nb2))
	if math.IsNaN(sim) {
		return 0, false
	}
	return sim, true
}
