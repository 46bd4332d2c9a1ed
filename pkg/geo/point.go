// Package geo implements a space-filling-curve (Z-order / Morton) index
// over fixed-dimension integer points, and the bounded k-nearest-neighbor
// search over it.
package geo

// Coord is the coordinate type for all points held in an Index. Fixed at
// int32 so DistSq can accumulate in a uint64, twice the coordinate width.
type Coord int32

// Pt is implemented by fixed-dimension point types (Point2, Point3). It
// exists so a single generic Index[P] can serve every dimensionality
// without Go's lack of const-generic array lengths forcing one Index type
// per D.
type Pt interface {
	comparable
	Dims() int
	At(i int) Coord
}

// Point2 is a two-dimensional point.
type Point2 [2]Coord

func (p Point2) Dims() int      { return 2 }
func (p Point2) At(i int) Coord { return p[i] }

// Point3 is a three-dimensional point.
type Point3 [3]Coord

func (p Point3) Dims() int      { return 3 }
func (p Point3) At(i int) Coord { return p[i] }

// DistSq returns the squared Euclidean distance between two points of the
// same dimensionality. The accumulator is uint64, twice the width of
// Coord: each squared difference fits, and the sum is exact as long as
// every coordinate difference is at most 2^31 in magnitude; beyond that
// the sum over 2 or 3 dimensions can wrap around.
func DistSq[P Pt](a, b P) uint64 {
	var sum uint64
	for i := 0; i < a.Dims(); i++ {
		d := int64(a.At(i)) - int64(b.At(i))
		sum += uint64(d * d)
	}
	return sum
}
