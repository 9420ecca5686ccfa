// Package geometry holds the small value types shared by the point-cloud
// utilities and the concrete transforms.
package geometry

import "fmt"

// Point is an n-dimensional coordinate. Coordinate order follows the order of
// the bounds it was generated from.
type Point []float64

// Dim returns the number of coordinates.
func (p Point) Dim() int { return len(p) }

// Clone returns an independent copy of p.
func (p Point) Clone() Point {
	if p == nil {
		return nil
	}
	out := make(Point, len(p))
	copy(out, p)
	return out
}

// Bound is the closed interval for a single coordinate.
type Bound struct {
	Min float64
	Max float64
}

// Normalize returns the bound with Min <= Max, swapping if given in reverse.
func (b Bound) Normalize() Bound {
	if b.Min > b.Max {
		return Bound{Min: b.Max, Max: b.Min}
	}
	return b
}

// Contains reports whether v lies within the normalised bound.
func (b Bound) Contains(v float64) bool {
	n := b.Normalize()
	return v >= n.Min && v <= n.Max
}

// Bounds is an ordered list of per-dimension bounds.
type Bounds []Bound

// Normalize returns a copy with every bound normalised.
func (bs Bounds) Normalize() Bounds {
	out := make(Bounds, len(bs))
	for i, b := range bs {
		out[i] = b.Normalize()
	}
	return out
}

// Contains reports whether p has one coordinate per bound and each falls inside it.
func (bs Bounds) Contains(p Point) bool {
	if len(p) != len(bs) {
		return false
	}
	for i, b := range bs {
		if !b.Contains(p[i]) {
			return false
		}
	}
	return true
}

// ComparisonBounds returns the fixed sampling region used when comparing two
// transforms: x in [-10,10], y in [-100,100] and, for 3D, z in [-1000,1000].
func ComparisonBounds(dim int) (Bounds, error) {
	switch dim {
	case 2:
		return Bounds{{-10, 10}, {-100, 100}}, nil
	case 3:
		return Bounds{{-10, 10}, {-100, 100}, {-1000, 1000}}, nil
	default:
		return nil, fmt.Errorf("no comparison bounds for dimension %d", dim)
	}
}
