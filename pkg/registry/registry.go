// Package registry holds the named 2D and 3D point indexes a running
// server serves queries against, and the freeze transition that promotes
// it from an ingestion-time OPEN registry to a query-time read-only one.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/therealutkarshpriyadarshi/geoknn/pkg/geo"
)

// ErrFrozen is returned by any mutating call made after Freeze.
var ErrFrozen = errors.New("registry: already frozen")

// ErrUnknownIndex is returned when a query names an index that was never
// declared.
var ErrUnknownIndex = errors.New("registry: unknown index")

// ErrNotFrozen is returned by Get if called before Freeze: queries are
// refused until ingestion has finished and sealed every index.
var ErrNotFrozen = errors.New("registry: not frozen")

// ErrNameCollision is returned when declaring a name already registered
// under the other dimensionality: a given index name must resolve to
// exactly one of 2D or 3D, never both.
var ErrNameCollision = errors.New("registry: name already declared under the other dimensionality")

// Registry partitions named indexes by dimensionality: 2D points live in
// one map, 3D points in another, exactly as the original implementation
// kept two side-by-side maps rather than a single map of interface values
// — here expressed with Go generics instead of a sum type.
type Registry struct {
	mu     sync.RWMutex
	frozen bool
	d2     map[string]*geo.PointData[geo.Point2]
	d3     map[string]*geo.PointData[geo.Point3]
}

// New returns an empty, OPEN Registry.
func New() *Registry {
	return &Registry{
		d2: make(map[string]*geo.PointData[geo.Point2]),
		d3: make(map[string]*geo.PointData[geo.Point3]),
	}
}

// Declare2D registers a new, empty 2D index under name. It returns
// ErrFrozen if the registry has already been frozen.
func (r *Registry) Declare2D(name string) (*geo.PointData[geo.Point2], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return nil, fmt.Errorf("declare2d %q: %w", name, ErrFrozen)
	}
	if _, ok := r.d3[name]; ok {
		return nil, fmt.Errorf("declare2d %q: %w", name, ErrNameCollision)
	}
	pd := geo.NewPointData[geo.Point2]()
	r.d2[name] = pd
	return pd, nil
}

// Declare3D registers a new, empty 3D index under name. It returns
// ErrFrozen if the registry has already been frozen.
func (r *Registry) Declare3D(name string) (*geo.PointData[geo.Point3], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return nil, fmt.Errorf("declare3d %q: %w", name, ErrFrozen)
	}
	if _, ok := r.d2[name]; ok {
		return nil, fmt.Errorf("declare3d %q: %w", name, ErrNameCollision)
	}
	pd := geo.NewPointData[geo.Point3]()
	r.d3[name] = pd
	return pd, nil
}

// Freeze locks every registered index (calling PointData.Lock on each) and
// marks the registry read-only. It is idempotent-unsafe by design: calling
// it twice returns ErrFrozen, since a second Freeze would indicate a
// lifecycle bug in the caller, not a benign no-op.
func (r *Registry) Freeze() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("freeze: %w", ErrFrozen)
	}
	for name, pd := range r.d2 {
		if err := pd.Lock(); err != nil {
			return fmt.Errorf("freeze index %q: %w", name, err)
		}
	}
	for name, pd := range r.d3 {
		if err := pd.Lock(); err != nil {
			return fmt.Errorf("freeze index %q: %w", name, err)
		}
	}
	r.frozen = true
	return nil
}

// Frozen reports whether Freeze has completed.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Get2D returns the named 2D index. It returns ErrNotFrozen before Freeze
// and ErrUnknownIndex if no such 2D index was declared.
func (r *Registry) Get2D(name string) (*geo.PointData[geo.Point2], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.frozen {
		return nil, fmt.Errorf("get2d %q: %w", name, ErrNotFrozen)
	}
	pd, ok := r.d2[name]
	if !ok {
		return nil, fmt.Errorf("get2d %q: %w", name, ErrUnknownIndex)
	}
	return pd, nil
}

// Get3D returns the named 3D index. It returns ErrNotFrozen before Freeze
// and ErrUnknownIndex if no such 3D index was declared.
func (r *Registry) Get3D(name string) (*geo.PointData[geo.Point3], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.frozen {
		return nil, fmt.Errorf("get3d %q: %w", name, ErrNotFrozen)
	}
	pd, ok := r.d3[name]
	if !ok {
		return nil, fmt.Errorf("get3d %q: %w", name, ErrUnknownIndex)
	}
	return pd, nil
}

// Has2D reports whether name was declared as a 2D index, regardless of
// frozen state.
func (r *Registry) Has2D(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.d2[name]
	return ok
}

// Has3D reports whether name was declared as a 3D index, regardless of
// frozen state.
func (r *Registry) Has3D(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.d3[name]
	return ok
}

// Names returns every declared index name, in no particular order,
// tagging each with its dimensionality. Used by the admin stats endpoint.
func (r *Registry) Names() (d2, d3 []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name := range r.d2 {
		d2 = append(d2, name)
	}
	for name := range r.d3 {
		d3 = append(d3, name)
	}
	return d2, d3
}
