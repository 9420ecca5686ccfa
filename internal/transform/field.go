package transform

import (
	"fmt"
	"math"

	"github.com/banshee-data/regviz/internal/geometry"
)

// DisplacementField is a 2D transform defined by displacement vectors on a
// regular grid. Displacements between nodes are interpolated bilinearly and
// points outside the grid are left unchanged.
//
// Parameters are the (dx, dy) pairs of every node, row-major with x varying
// fastest. Fixed parameters are origin, spacing and size, two values each.
type DisplacementField struct {
	origin  [2]float64
	spacing [2]float64
	size    [2]int
	disp    []float64
}

// MaxFieldNodes bounds the grid size of a displacement field.
const MaxFieldNodes = 1 << 22

// NewDisplacementField returns a zero displacement field over a grid of
// nx by ny nodes starting at origin with the given spacing.
func NewDisplacementField(origin, spacing [2]float64, nx, ny int) (*DisplacementField, error) {
	if nx < 1 || ny < 1 || nx > MaxFieldNodes/ny {
		return nil, fmt.Errorf("invalid displacement grid size %dx%d (at most %d nodes)", nx, ny, MaxFieldNodes)
	}
	for i := 0; i < 2; i++ {
		if math.IsNaN(origin[i]) || math.IsInf(origin[i], 0) {
			return nil, fmt.Errorf("displacement grid origin must be finite, got %v", origin)
		}
		if !(spacing[i] > 0) || math.IsInf(spacing[i], 0) {
			return nil, fmt.Errorf("displacement grid spacing must be positive and finite, got %v", spacing)
		}
	}
	return &DisplacementField{
		origin:  origin,
		spacing: spacing,
		size:    [2]int{nx, ny},
		disp:    make([]float64, 2*nx*ny),
	}, nil
}

// Dimension is always 2.
func (f *DisplacementField) Dimension() int { return 2 }

// NumberOfParameters returns 2 * nodes.
func (f *DisplacementField) NumberOfParameters() int { return len(f.disp) }

// FixedParameters returns origin, spacing and size.
func (f *DisplacementField) FixedParameters() []float64 {
	return []float64{
		f.origin[0], f.origin[1],
		f.spacing[0], f.spacing[1],
		float64(f.size[0]), float64(f.size[1]),
	}
}

// SetParameters replaces all node displacements.
func (f *DisplacementField) SetParameters(params []float64) error {
	if err := checkParams(len(f.disp), params); err != nil {
		return err
	}
	copy(f.disp, params)
	return nil
}

// Parameters returns a copy of the node displacements.
func (f *DisplacementField) Parameters() []float64 {
	return append([]float64(nil), f.disp...)
}

// NodePosition returns the physical position of node (i, j).
func (f *DisplacementField) NodePosition(i, j int) geometry.Point {
	return geometry.Point{
		f.origin[0] + float64(i)*f.spacing[0],
		f.origin[1] + float64(j)*f.spacing[1],
	}
}

// TransformPoint returns p plus the interpolated displacement at p.
func (f *DisplacementField) TransformPoint(p geometry.Point) (geometry.Point, error) {
	if err := checkPoint(2, p); err != nil {
		return nil, err
	}
	dx, dy := f.displacementAt(p[0], p[1])
	return geometry.Point{p[0] + dx, p[1] + dy}, nil
}

func (f *DisplacementField) displacementAt(x, y float64) (float64, float64) {
	u := (x - f.origin[0]) / f.spacing[0]
	v := (y - f.origin[1]) / f.spacing[1]
	nx, ny := f.size[0], f.size[1]
	if u < 0 || v < 0 || u > float64(nx-1) || v > float64(ny-1) {
		return 0, 0
	}

	i0, fu := cell(u, nx)
	j0, fv := cell(v, ny)
	i1, j1 := min(i0+1, nx-1), min(j0+1, ny-1)

	var dx, dy float64
	for _, c := range [4]struct {
		i, j int
		w    float64
	}{
		{i0, j0, (1 - fu) * (1 - fv)},
		{i1, j0, fu * (1 - fv)},
		{i0, j1, (1 - fu) * fv},
		{i1, j1, fu * fv},
	} {
		k := 2 * (c.j*nx + c.i)
		dx += c.w * f.disp[k]
		dy += c.w * f.disp[k+1]
	}
	return dx, dy
}

// cell returns the lower node index and fractional offset for a continuous index.
func cell(u float64, n int) (int, float64) {
	if n == 1 {
		return 0, 0
	}
	i := int(math.Floor(u))
	if i >= n-1 {
		i = n - 2
	}
	return i, u - float64(i)
}
