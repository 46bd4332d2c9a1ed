package geo

// candidate is one accepted neighbor during a k-nearest-neighbor search:
// the point's original insertion index (its id) and its squared distance
// to the query point.
type candidate struct {
	id     uint64
	distSq uint64
}

// boundedHeap is a max-heap over candidate.distSq, used to keep the k
// smallest distances seen so far: the root is always the worst (largest)
// of the currently accepted k, so it can be evicted in O(log k) whenever a
// closer candidate is found.
type boundedHeap []candidate

func (h boundedHeap) Len() int            { return len(h) }
func (h boundedHeap) Less(i, j int) bool  { return h[i].distSq > h[j].distSq }
func (h boundedHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *boundedHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *boundedHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
