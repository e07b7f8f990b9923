package tree

import "github.com/viant/vec/search"

// DistanceFunction names a supported metric.
type DistanceFunction string

// DistanceFunctionEuclidean is the L2 metric; over unit vectors it orders
// points the same way as cosine distance.
const DistanceFunctionEuclidean DistanceFunction = "euclidean"

// DistanceFunc computes the distance between two points.
type DistanceFunc func(p1, p2 *Point) float32

// Function resolves the metric, or nil when unknown.
func (d DistanceFunction) Function() DistanceFunc {
	switch d {
	case DistanceFunctionEuclidean:
		return EuclideanDistance
	default:
		return nil
	}
}

// EuclideanDistance returns the L2 distance between two points.
func EuclideanDistance(p1, p2 *Point) float32 {
	return search.Float32s(p1.Vector).EuclideanDistance(p2.Vector)
}
