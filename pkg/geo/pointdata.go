package geo

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// Attributes holds the declared fields captured for one point (gid plus
// whatever fields the ingestion source configured), keyed by field name.
// As a map it keeps no field order.
type Attributes map[string]string

// ErrIndexState is the sentinel wrapped by every state-machine violation
// on a PointData: adding after Lock, locking twice, or querying before
// Lock.
var ErrIndexState = errors.New("geo: invalid point data state")

// Result is one formatted nearest-neighbor answer: the id assigned at
// insertion time, the rounded distance to the query point, and the
// attributes recorded for that point.
type Result struct {
	ID         uint64
	Dist       uint64
	Attributes Attributes
}

// PointData accumulates points and their attributes while OPEN, then seals
// into a queryable Index on Lock. It is safe for concurrent GetNN calls
// once sealed; Add and Lock are not safe to call concurrently with
// themselves or with GetNN — ingestion completes and calls Lock before the
// server begins accepting connections, per the single-writer/many-reader
// discipline described for the registry this type backs.
type PointData[P Pt] struct {
	mu     sync.RWMutex
	sealed bool

	points []P
	attrs  []Attributes

	index *Index[P]
}

// NewPointData returns an empty, OPEN PointData ready to accept points.
func NewPointData[P Pt]() *PointData[P] {
	return &PointData[P]{}
}

// Add appends one point and its attributes. It returns ErrIndexState,
// wrapped, if the PointData has already been sealed with Lock.
func (pd *PointData[P]) Add(p P, a Attributes) error {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	if pd.sealed {
		return fmt.Errorf("add after lock: %w", ErrIndexState)
	}
	pd.points = append(pd.points, p)
	pd.attrs = append(pd.attrs, a)
	return nil
}

// Lock builds the Z-order index over every point added so far and
// transitions the PointData from OPEN to SEALED. It returns ErrIndexState,
// wrapped, if called more than once.
func (pd *PointData[P]) Lock() error {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	if pd.sealed {
		return fmt.Errorf("lock called twice: %w", ErrIndexState)
	}
	pd.index = NewIndex(pd.points)
	pd.sealed = true
	return nil
}

// Sealed reports whether Lock has been called.
func (pd *PointData[P]) Sealed() bool {
	pd.mu.RLock()
	defer pd.mu.RUnlock()
	return pd.sealed
}

// Len returns the number of points held, valid before or after Lock.
func (pd *PointData[P]) Len() int {
	pd.mu.RLock()
	defer pd.mu.RUnlock()
	return len(pd.points)
}

// GetNN returns the nores nearest points to q, nearest first, using exact
// (ε=0) search. nores is clamped down to Len() if it exceeds the number
// of indexed points. It returns ErrIndexState, wrapped, if called before
// Lock.
func (pd *PointData[P]) GetNN(q P, nores int) ([]Result, error) {
	return pd.GetNNApprox(q, nores, 0)
}

// GetNNApprox is GetNN with an explicit ε-relaxation factor: eps > 0
// prunes more aggressively in exchange for an approximate answer, per
// the ksearch(q, k, ε) algorithm. eps <= 0 is exact search, same as
// GetNN.
func (pd *PointData[P]) GetNNApprox(q P, nores int, eps float64) ([]Result, error) {
	pd.mu.RLock()
	defer pd.mu.RUnlock()
	if !pd.sealed {
		return nil, fmt.Errorf("getnn before lock: %w", ErrIndexState)
	}
	if nores > pd.index.Len() {
		nores = pd.index.Len()
	}
	raw := pd.index.KSearch(q, nores, eps)
	out := make([]Result, len(raw))
	for i, r := range raw {
		out[i] = Result{
			ID:         r.ID,
			Dist:       uint64(math.Ceil(math.Sqrt(float64(r.DistSq)))),
			Attributes: pd.attrs[r.ID],
		}
	}
	return out, nil
}
