package pointcloud

import (
	"fmt"

	"github.com/banshee-data/regviz/internal/display"
	"github.com/banshee-data/regviz/internal/geometry"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ScalingWindow is the half-width of the fixed [-w,w]x[-w,w] view used by
// DisplacementScalingEffect. Points outside it are drawn but not visible.
const ScalingWindow = 2.5

// MeshGrid returns x and y coordinate matrices for an n by n grid spanning
// [lo,hi] on both axes.
func MeshGrid(lo, hi float64, n int) (x, y *mat.Dense, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("mesh grid needs at least 2 samples per axis, got %d", n)
	}
	axis := floats.Span(make([]float64, n), lo, hi)
	x = mat.NewDense(n, n, nil)
	y = mat.NewDense(n, n, nil)
	for r := 0; r < n; r++ {
		x.SetRow(r, axis)
		for c := 0; c < n; c++ {
			y.Set(r, c, axis[r])
		}
	}
	return x, y, nil
}

// DisplacementScalingEffect sets tx's parameters to scale*base and draws every
// grid point before and after the transform. Only 2D transforms are supported.
func DisplacementScalingEffect(c display.Canvas, scale float64, xGrid, yGrid *mat.Dense, tx Transform, base []float64) error {
	if d := tx.Dimension(); d != 2 {
		return &UnsupportedDimensionError{Op: "displacement scaling effect", Dims: []int{d}}
	}
	xr, xc := xGrid.Dims()
	yr, yc := yGrid.Dims()
	if xr != yr || xc != yc {
		return &LengthMismatchError{What: "x and y grid elements", Left: xr * xc, Right: yr * yc}
	}

	scaled := floats.ScaleTo(make([]float64, len(base)), scale, base)
	if err := tx.SetParameters(scaled); err != nil {
		return fmt.Errorf("set scaled displacements: %w", err)
	}

	n := xr * xc
	origX, origY := make([]float64, 0, n), make([]float64, 0, n)
	movedX, movedY := make([]float64, 0, n), make([]float64, 0, n)
	for r := 0; r < xr; r++ {
		for col := 0; col < xc; col++ {
			p := geometry.Point{xGrid.At(r, col), yGrid.At(r, col)}
			q, err := tx.TransformPoint(p)
			if err != nil {
				return fmt.Errorf("transform grid point (%d,%d): %w", r, col, err)
			}
			origX, origY = append(origX, p[0]), append(origY, p[1])
			movedX, movedY = append(movedX, q[0]), append(movedY, q[1])
		}
	}

	c.Clear()
	c.SetTitle(fmt.Sprintf("Displacement scale %.2f", scale))
	if err := c.Scatter("original points", origX, origY, display.Style{Color: display.Blue, Marker: display.MarkerCircle}); err != nil {
		return err
	}
	if err := c.Scatter("transformed points", movedX, movedY, display.Style{Color: display.Red, Marker: display.MarkerTriangle}); err != nil {
		return err
	}
	c.ShowLegend()
	c.SetLimits(-ScalingWindow, ScalingWindow, -ScalingWindow, ScalingWindow)
	return c.Flush()
}
