package tree

import "math"

// Node is a cover-tree node; children sit one or more levels below.
type Node struct {
	level     int32
	separator float32
	point     *Point
	children  []Node
	// radius bounds the distance from point to any descendant; valid while
	// radiusVersion matches the tree version.
	radius        float32
	radiusVersion uint64
}

func newNode(point *Point, level int32, base float32) Node {
	return Node{
		level:     level,
		separator: float32(math.Pow(float64(base), float64(level))),
		point:     point,
	}
}
