package tree

// Neighbor is a kNN candidate.
type Neighbor struct {
	Point    *Point
	Distance float32
}

// neighbors is a max-heap on distance holding the current best k.
type neighbors []Neighbor

func (h neighbors) Len() int           { return len(h) }
func (h neighbors) Less(i, j int) bool { return h[i].Distance > h[j].Distance }
func (h neighbors) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *neighbors) Push(x any)        { *h = append(*h, x.(Neighbor)) }
func (h *neighbors) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func (h neighbors) worst(k int) (float32, bool) {
	if k <= 0 || len(h) < k {
		return 0, false
	}
	return h[0].Distance, true
}

type nodeItem struct {
	node       *Node
	lowerBound float32
	distance   float32
}

// nodeQueue is a min-heap on the lower bound of a subtree.
type nodeQueue []nodeItem

func (q nodeQueue) Len() int           { return len(q) }
func (q nodeQueue) Less(i, j int) bool { return q[i].lowerBound < q[j].lowerBound }
func (q nodeQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)        { *q = append(*q, x.(nodeItem)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
