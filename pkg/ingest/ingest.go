// Package ingest loads point data from an external source into a
// registry.Registry before the server starts serving queries. Source is
// the only interface production code here depends on; concrete database
// drivers besides CSV are out of scope (spec.md §1, §4.5) and are left to
// be implemented against this interface by a deployment that needs them.
package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/geoknn/pkg/geo"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/registry"
)

// parseCoord narrowly parses a trimmed decimal integer into a geo.Coord,
// replacing the C++ original's boost::lexical_cast<CoordT> with an
// explicit, bounds-checked conversion per spec.md §9's design note.
func parseCoord(s string) (geo.Coord, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an integer coordinate %q: %w", s, err)
	}
	return geo.Coord(v), nil
}

// Source streams rows of field values for one configured index. Fields
// reports the column order every row obeys; Stream reads the underlying
// store once, calling emit with one row per record. Streaming stops at
// the first error emit returns.
type Source interface {
	Fields() []string
	Stream(ctx context.Context, emit func(row []string) error) error
}

// IndexSpec describes one index to populate: its name, dimensionality,
// the extra attribute fields declared for it (beyond gid/x/y[/z]), and the
// Source to read rows from.
type IndexSpec struct {
	Name   string
	Is3D   bool
	Extra  []string // declared extra field names, order preserved
	Source Source
}

// FieldOrder returns the full column order a Source for this spec must
// produce: gid, x, y, (z if 3D), then every declared extra field that
// is not itself one of those coordinate names — mirroring loadparams'
// "mandatory fields first, then declared fields minus mandatory names,
// order preserved" rule.
func (s IndexSpec) FieldOrder() []string {
	fields := []string{"gid", "x", "y"}
	if s.Is3D {
		fields = append(fields, "z")
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		seen[f] = true
	}
	for _, f := range s.Extra {
		if !seen[f] {
			fields = append(fields, f)
			seen[f] = true
		}
	}
	return fields
}

// Load streams every configured IndexSpec into reg, declaring each index
// (2D or 3D, per spec) and Add-ing every row's coordinates and attributes.
// It does not call reg.Freeze — the caller seals the registry once every
// spec in a deployment has been loaded.
func Load(ctx context.Context, reg *registry.Registry, specs []IndexSpec) error {
	for _, spec := range specs {
		order := spec.FieldOrder()
		if err := loadOne(ctx, reg, spec, order); err != nil {
			return fmt.Errorf("ingest: loading index %q: %w", spec.Name, err)
		}
	}
	return nil
}

func loadOne(ctx context.Context, reg *registry.Registry, spec IndexSpec, order []string) error {
	if spec.Is3D {
		pd, err := reg.Declare3D(spec.Name)
		if err != nil {
			return err
		}
		return spec.Source.Stream(ctx, func(row []string) error {
			p, attrs, err := parseRow3D(order, row)
			if err != nil {
				return err
			}
			return pd.Add(p, attrs)
		})
	}
	pd, err := reg.Declare2D(spec.Name)
	if err != nil {
		return err
	}
	return spec.Source.Stream(ctx, func(row []string) error {
		p, attrs, err := parseRow2D(order, row)
		if err != nil {
			return err
		}
		return pd.Add(p, attrs)
	})
}

func parseRow2D(order, row []string) (geo.Point2, geo.Attributes, error) {
	if len(row) != len(order) {
		return geo.Point2{}, nil, fmt.Errorf("row has %d fields, want %d", len(row), len(order))
	}
	x, err := parseCoord(row[1])
	if err != nil {
		return geo.Point2{}, nil, fmt.Errorf("field x: %w", err)
	}
	y, err := parseCoord(row[2])
	if err != nil {
		return geo.Point2{}, nil, fmt.Errorf("field y: %w", err)
	}
	return geo.Point2{x, y}, attrsOf(order, row), nil
}

func parseRow3D(order, row []string) (geo.Point3, geo.Attributes, error) {
	if len(row) != len(order) {
		return geo.Point3{}, nil, fmt.Errorf("row has %d fields, want %d", len(row), len(order))
	}
	x, err := parseCoord(row[1])
	if err != nil {
		return geo.Point3{}, nil, fmt.Errorf("field x: %w", err)
	}
	y, err := parseCoord(row[2])
	if err != nil {
		return geo.Point3{}, nil, fmt.Errorf("field y: %w", err)
	}
	z, err := parseCoord(row[3])
	if err != nil {
		return geo.Point3{}, nil, fmt.Errorf("field z: %w", err)
	}
	return geo.Point3{x, y, z}, attrsOf(order, row), nil
}

func attrsOf(order, row []string) geo.Attributes {
	a := make(geo.Attributes, len(order))
	for i, name := range order {
		a[name] = row[i]
	}
	return a
}
