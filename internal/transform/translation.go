package transform

import (
	"fmt"

	"github.com/banshee-data/regviz/internal/geometry"
	"gonum.org/v1/gonum/floats"
)

// Translation shifts every point by a constant offset.
type Translation struct {
	offset []float64
}

// NewTranslation returns a translation by offset.
func NewTranslation(offset []float64) (*Translation, error) {
	if len(offset) == 0 {
		return nil, fmt.Errorf("translation offset must not be empty")
	}
	return &Translation{offset: append([]float64(nil), offset...)}, nil
}

// Dimension returns the transform dimension.
func (t *Translation) Dimension() int { return len(t.offset) }

// SetParameters replaces the offset.
func (t *Translation) SetParameters(params []float64) error {
	if err := checkParams(len(t.offset), params); err != nil {
		return err
	}
	copy(t.offset, params)
	return nil
}

// Parameters returns a copy of the offset.
func (t *Translation) Parameters() []float64 {
	return append([]float64(nil), t.offset...)
}

// TransformPoint returns p + offset.
func (t *Translation) TransformPoint(p geometry.Point) (geometry.Point, error) {
	if err := checkPoint(len(t.offset), p); err != nil {
		return nil, err
	}
	out := make(geometry.Point, len(p))
	floats.AddTo(out, p, t.offset)
	return out, nil
}
