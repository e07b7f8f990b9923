// Package tree implements a cover tree for k-nearest-neighbour queries.
// Queries are exact when the distance function is a metric.
package tree

import (
	"container/heap"
	"math"
	"sync"

	"github.com/viant/vec/search"
)

// Tree stores points with an associated value of type T.
type Tree[T any] struct {
	root     *Node
	base     float32
	distance DistanceFunc
	values   []T
	points   []*Point
	version  uint64
	mu       sync.Mutex
}

// NewTree constructs a tree; base <= 1 falls back to 1.3 and an unknown metric
// to Euclidean.
func NewTree[T any](base float32, metric DistanceFunction) *Tree[T] {
	if base <= 1 {
		base = 1.3
	}
	fn := metric.Function()
	if fn == nil {
		fn = EuclideanDistance
	}
	return &Tree[T]{base: base, distance: fn}
}

// Len returns the number of inserted points.
func (t *Tree[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.points)
}

// Insert adds a value/point pair.
func (t *Tree[T]) Insert(value T, point *Point) {
	t.mu.Lock()
	defer t.mu.Unlock()
	point.slot = int32(len(t.values))
	t.values = append(t.values, value)
	t.points = append(t.points, point)
	if point.Magnitude == 0 && len(point.Vector) > 0 {
		point.Magnitude = search.Float32s(point.Vector).Magnitude()
	}
	t.version++
	if t.root == nil {
		root := newNode(point, 0, t.base)
		t.root = &root
		return
	}
	t.insert(point)
}

func (t *Tree[T]) insert(point *Point) {
	node, level := t.root, t.root.level
	for {
		separator := float32(math.Pow(float64(t.base), float64(level)))
		if t.distance(point, node.point) >= separator {
			if node == t.root {
				// Grow a new root above the current one.
				root := newNode(point, level+1, t.base)
				root.children = append(root.children, *t.root)
				t.root = &root
				return
			}
			level++
			continue
		}
		var next *Node
		for i := range node.children {
			if t.distance(point, node.children[i].point) < separator {
				next = &node.children[i]
				break
			}
		}
		if next == nil {
			node.children = append(node.children, newNode(point, level-1, t.base))
			return
		}
		node, level = next, level-1
	}
}

// Value returns the value stored with point.
func (t *Tree[T]) Value(point *Point) T {
	t.mu.Lock()
	defer t.mu.Unlock()
	var zero T
	if !point.HasValue() || int(point.slot) >= len(t.values) {
		return zero
	}
	return t.values[point.slot]
}

// KNearestNeighbors runs a best-first search ordered by subtree lower bound
// and returns up to k neighbours by ascending distance.
func (t *Tree[T]) KNearestNeighbors(query *Point, k int) []Neighbor {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil || k <= 0 {
		return nil
	}
	best := &neighbors{}
	queue := &nodeQueue{}
	d := t.distance(query, t.root.point)
	heap.Push(queue, nodeItem{node: t.root, lowerBound: d - t.radius(t.root), distance: d})
	for queue.Len() > 0 {
		top := heap.Pop(queue).(nodeItem)
		if worst, full := best.worst(k); full && top.lowerBound >= worst {
			break
		}
		if best.Len() < k {
			heap.Push(best, Neighbor{Point: top.node.point, Distance: top.distance})
		} else if top.distance < (*best)[0].Distance {
			heap.Pop(best)
			heap.Push(best, Neighbor{Point: top.node.point, Distance: top.distance})
		}
		for i := range top.node.children {
			child := &top.node.children[i]
			cd := t.distance(query, child.point)
			lb := cd - t.radius(child)
			if worst, full := best.worst(k); full && lb >= worst {
				continue
			}
			heap.Push(queue, nodeItem{node: child, lowerBound: lb, distance: cd})
		}
	}
	result := make([]Neighbor, best.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(best).(Neighbor)
	}
	return result
}

// radius returns an upper bound on the distance from n to its descendants,
// cached per tree version.
func (t *Tree[T]) radius(n *Node) float32 {
	if n.radiusVersion == t.version {
		return n.radius
	}
	var r float32
	for i := range n.children {
		child := &n.children[i]
		if d := t.distance(n.point, child.point) + t.radius(child); d > r {
			r = d
		}
	}
	n.radius, n.radiusVersion = r, t.version
	return r
}
