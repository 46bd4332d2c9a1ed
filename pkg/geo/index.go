package geo

import (
	"container/heap"
	"math"
	"sort"
)

// NNResult is one entry of a k-nearest-neighbor answer: the id (original
// insertion index, not a sort position) of a point and its squared
// distance to the query point.
type NNResult struct {
	ID     uint64
	DistSq uint64
}

// Index holds a fixed, immutable set of points sorted into Z-order
// (Morton order), supporting bounded k-nearest-neighbor search. Build it
// once with NewIndex; it has no further mutation methods, matching the
// build-once/query-many discipline the surrounding PointData type
// enforces.
type Index[P Pt] struct {
	pts []P
	ids []uint64
}

// NewIndex sorts points into Z-order and returns an Index over them. The
// id recorded for each point is its position in the input slice, so
// callers can map search results back to whatever side table (attributes,
// original rows) they keep indexed the same way.
func NewIndex[P Pt](points []P) *Index[P] {
	n := len(points)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return Less(points[order[i]], points[order[j]])
	})
	sorted := make([]P, n)
	ids := make([]uint64, n)
	for i, oi := range order {
		sorted[i] = points[oi]
		ids[i] = uint64(oi)
	}
	return &Index[P]{pts: sorted, ids: ids}
}

// Len returns the number of points in the index.
func (ix *Index[P]) Len() int { return len(ix.pts) }

// KSearch returns the k nearest neighbors of q, ordered nearest first. If
// k exceeds the number of indexed points, every point is returned. This
// is the Go port of sfcdata_work's ksearch/recurse: locate q's position on
// the curve with a binary search, seed a bounded max-heap from a small
// window around that position, then recursively widen outward with a
// bounding-box lower bound pruning any subrange that cannot beat the
// current worst accepted distance.
//
// eps is the ε-relaxation factor: the pruning threshold is divided by
// (1+eps) before a subrange is tested against it, so a larger eps prunes
// more aggressively at the cost of returned neighbors being only
// approximately nearest. eps <= 0 performs exact search.
func (ix *Index[P]) KSearch(q P, k int, eps float64) []NNResult {
	n := len(ix.pts)
	if k <= 0 || n == 0 {
		return nil
	}
	if k > n {
		k = n
	}

	idx := sort.Search(n, func(i int) bool { return !Less(ix.pts[i], q) })
	winLo := idx - k
	if winLo < 0 {
		winLo = 0
	}
	winHi := idx + k + 1
	if winHi > n {
		winHi = n
	}

	h := &boundedHeap{}
	heap.Init(h)

	ix.scanRange(winLo, winHi, q, h, k)
	ix.search(0, winLo, winLo, winHi, q, h, k, eps)
	ix.search(winHi, n, winLo, winHi, q, h, k, eps)

	out := make([]NNResult, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		c := heap.Pop(h).(candidate)
		out[i] = NNResult{ID: c.id, DistSq: c.distSq}
	}
	return out
}

// scanRange linearly scores every point in [s,e) against q.
func (ix *Index[P]) scanRange(s, e int, q P, h *boundedHeap, k int) {
	for i := s; i < e; i++ {
		ix.offer(h, ix.ids[i], DistSq(q, ix.pts[i]), k)
	}
}

// worst returns the current k-th best squared distance, or +inf if fewer
// than k candidates have been accepted yet (in which case no box can be
// safely pruned).
func worst(h *boundedHeap, k int) uint64 {
	if h.Len() < k {
		return math.MaxUint64
	}
	return (*h)[0].distSq
}

func (ix *Index[P]) offer(h *boundedHeap, id uint64, d uint64, k int) {
	if h.Len() < k {
		heap.Push(h, candidate{id: id, distSq: d})
		return
	}
	if d < (*h)[0].distSq {
		heap.Pop(h)
		heap.Push(h, candidate{id: id, distSq: d})
	}
}

// search recursively scores the subrange [s,e), skipping [winLo,winHi)
// since scanRange already covered it. Ranges of at most 4 points are
// scanned directly; longer ranges are pruned using the squared distance
// from q to the bounding box of the subrange against a threshold relaxed
// by (1+eps), and otherwise split at the midpoint, visiting the half
// nearer q first.
func (ix *Index[P]) search(s, e, winLo, winHi int, q P, h *boundedHeap, k int, eps float64) {
	if e <= s {
		return
	}
	if s < winHi && e > winLo {
		if s < winLo {
			ix.search(s, winLo, winLo, winHi, q, h, k, eps)
		}
		if e > winHi {
			ix.search(winHi, e, winLo, winHi, q, h, k, eps)
		}
		return
	}

	if e-s <= 4 {
		ix.scanRange(s, e, q, h, k)
		return
	}

	if h.Len() >= k {
		lo, hi := BoundingBox(ix.pts[s], ix.pts[e-1])
		threshold := worst(h, k)
		if eps > 0 {
			threshold = uint64(float64(threshold) / (1 + eps))
		}
		if DistSqToBox(q, lo, hi) > threshold {
			return
		}
	}

	mid := s + (e-s)/2
	ix.offer(h, ix.ids[mid], DistSq(q, ix.pts[mid]), k)

	if Less(q, ix.pts[mid]) {
		ix.search(s, mid, winLo, winHi, q, h, k, eps)
		ix.search(mid+1, e, winLo, winHi, q, h, k, eps)
	} else {
		ix.search(mid+1, e, winLo, winHi, q, h, k, eps)
		ix.search(s, mid, winLo, winHi, q, h, k, eps)
	}
}
