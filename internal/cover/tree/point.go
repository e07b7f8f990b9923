package tree

// Point is a vector stored in the tree. Magnitude is computed on insert when
// left at zero.
type Point struct {
	slot      int32
	Magnitude float32
	Vector    []float32
}

// HasValue reports whether the point was inserted into a tree.
func (p *Point) HasValue() bool {
	return p != nil && p.slot >= 0
}

// NewPoint constructs a detached point for the given vector.
func NewPoint(vector ...float32) *Point {
	return &Point{slot: -1, Vector: vector}
}
