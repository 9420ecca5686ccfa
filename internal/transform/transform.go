// Package transform provides concrete spatial transforms that satisfy the
// point-cloud utilities' transform contract: a dimension, a point mapping and
// a flat parameter vector.
package transform

import (
	"errors"
	"fmt"

	"github.com/banshee-data/regviz/internal/geometry"
)

var (
	// ErrDimensionMismatch is returned when a point or vector does not match
	// the transform's dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrParameterCount is returned when SetParameters receives a vector of the wrong length.
	ErrParameterCount = errors.New("wrong number of parameters")
)

// Transform is implemented by every transform in this package.
type Transform interface {
	Dimension() int
	TransformPoint(p geometry.Point) (geometry.Point, error)
	SetParameters(params []float64) error
	Parameters() []float64
}

func checkPoint(dim int, p geometry.Point) error {
	if len(p) != dim {
		return fmt.Errorf("%w: point has %d coordinates, transform is %dD", ErrDimensionMismatch, len(p), dim)
	}
	return nil
}

func checkParams(want int, params []float64) error {
	if len(params) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrParameterCount, len(params), want)
	}
	return nil
}
