package transform

import (
	"fmt"

	"github.com/banshee-data/regviz/internal/geometry"
	"gonum.org/v1/gonum/mat"
)

// Affine maps p to M(p-c) + c + t, where c is a fixed centre of rotation.
//
// Parameter layout is the matrix in row-major order followed by the
// translation, so a 2D affine has 6 parameters and a 3D affine has 12.
type Affine struct {
	dim         int
	matrix      *mat.Dense
	translation []float64
	center      []float64
}

// NewIdentityAffine returns the identity affine transform of the given dimension.
func NewIdentityAffine(dim int) (*Affine, error) {
	if dim < 1 {
		return nil, fmt.Errorf("invalid affine dimension %d", dim)
	}
	m := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		m.Set(i, i, 1)
	}
	return &Affine{
		dim:         dim,
		matrix:      m,
		translation: make([]float64, dim),
		center:      make([]float64, dim),
	}, nil
}

// NewAffine builds an affine transform from a row-major matrix and a translation.
func NewAffine(dim int, matrix, translation []float64) (*Affine, error) {
	a, err := NewIdentityAffine(dim)
	if err != nil {
		return nil, err
	}
	params := make([]float64, 0, dim*dim+dim)
	params = append(params, matrix...)
	params = append(params, translation...)
	if err := a.SetParameters(params); err != nil {
		return nil, err
	}
	return a, nil
}

// Dimension returns the transform dimension.
func (a *Affine) Dimension() int { return a.dim }

// SetCenter sets the fixed centre of rotation.
func (a *Affine) SetCenter(c []float64) error {
	if len(c) != a.dim {
		return fmt.Errorf("%w: centre has %d coordinates, transform is %dD", ErrDimensionMismatch, len(c), a.dim)
	}
	copy(a.center, c)
	return nil
}

// Center returns a copy of the fixed centre.
func (a *Affine) Center() []float64 {
	out := make([]float64, a.dim)
	copy(out, a.center)
	return out
}

// SetParameters replaces the matrix and translation.
func (a *Affine) SetParameters(params []float64) error {
	n := a.dim
	if err := checkParams(n*n+n, params); err != nil {
		return err
	}
	a.matrix = mat.NewDense(n, n, append([]float64(nil), params[:n*n]...))
	copy(a.translation, params[n*n:])
	return nil
}

// Parameters returns the matrix (row-major) followed by the translation.
func (a *Affine) Parameters() []float64 {
	n := a.dim
	out := make([]float64, 0, n*n+n)
	for i := 0; i < n; i++ {
		out = append(out, a.matrix.RawRowView(i)...)
	}
	return append(out, a.translation...)
}

// TransformPoint applies the transform to p.
func (a *Affine) TransformPoint(p geometry.Point) (geometry.Point, error) {
	if err := checkPoint(a.dim, p); err != nil {
		return nil, err
	}
	rel := make([]float64, a.dim)
	for i := range rel {
		rel[i] = p[i] - a.center[i]
	}
	var out mat.VecDense
	out.MulVec(a.matrix, mat.NewVecDense(a.dim, rel))

	res := make(geometry.Point, a.dim)
	for i := range res {
		res[i] = out.AtVec(i) + a.center[i] + a.translation[i]
	}
	return res, nil
}
