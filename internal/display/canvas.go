// Package display provides the drawing surfaces used by the progress observer
// and the point-cloud plots. A Canvas accumulates series until Flush, which
// renders the current figure to its target.
package display

import (
	"errors"
	"fmt"
	"image/color"
	"math"
)

// ErrSeriesLength is returned when a series has different numbers of x and y values.
var ErrSeriesLength = errors.New("series x and y lengths differ")

// Canvas is a drawing target supporting line and scatter series, axis labels,
// a legend, fixed axis ranges and an explicit redraw.
type Canvas interface {
	// Clear discards every series and setting.
	Clear()
	Line(label string, xs, ys []float64, style Style) error
	Scatter(label string, xs, ys []float64, style Style) error
	SetTitle(title string)
	SetLabels(x, y string)
	SetLimits(xmin, xmax, ymin, ymax float64)
	ShowLegend()
	// Flush redraws the target from the current figure.
	Flush() error
}

// Marker is the glyph drawn at each scatter point.
type Marker int

const (
	MarkerNone Marker = iota
	MarkerCircle
	MarkerTriangle
	MarkerStar
)

func (m Marker) String() string {
	switch m {
	case MarkerCircle:
		return "circle"
	case MarkerTriangle:
		return "triangle"
	case MarkerStar:
		return "star"
	default:
		return "none"
	}
}

// starOutline returns the ten vertices of a five-pointed star with outer
// radius 1, starting at the top point and going clockwise, y up.
func starOutline() [][2]float64 {
	const inner = 0.382
	pts := make([][2]float64, 10)
	for i := range pts {
		r := 1.0
		if i%2 == 1 {
			r = inner
		}
		a := math.Pi/2 - float64(i)*math.Pi/5
		pts[i] = [2]float64{r * math.Cos(a), r * math.Sin(a)}
	}
	return pts
}

// Style controls how a series is drawn. Width is in points.
type Style struct {
	Color  color.Color
	Marker Marker
	Width  float64
}

// Colours used by the plots in this module.
var (
	Red  = color.RGBA{R: 220, G: 30, B: 30, A: 255}
	Blue = color.RGBA{R: 30, G: 70, B: 220, A: 255}
)

// Kind distinguishes line and scatter series.
type Kind int

const (
	KindLine Kind = iota
	KindScatter
)

// Series is one labelled set of points in a figure.
type Series struct {
	Label string
	Kind  Kind
	X     []float64
	Y     []float64
	Style Style
}

// Limits is a fixed axis range.
type Limits struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Figure is the renderer-independent content of a canvas.
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	Series []Series
	Limits *Limits
	Legend bool
}

// Clear resets the figure.
func (f *Figure) Clear() { *f = Figure{} }

// Line appends a line series.
func (f *Figure) Line(label string, xs, ys []float64, style Style) error {
	return f.add(label, KindLine, xs, ys, style)
}

// Scatter appends a scatter series.
func (f *Figure) Scatter(label string, xs, ys []float64, style Style) error {
	return f.add(label, KindScatter, xs, ys, style)
}

// SetTitle sets the figure title.
func (f *Figure) SetTitle(title string) { f.Title = title }

// SetLabels sets the axis labels.
func (f *Figure) SetLabels(x, y string) {
	f.XLabel = x
	f.YLabel = y
}

// SetLimits fixes both axis ranges.
func (f *Figure) SetLimits(xmin, xmax, ymin, ymax float64) {
	f.Limits = &Limits{XMin: xmin, XMax: xmax, YMin: ymin, YMax: ymax}
}

// ShowLegend enables the legend for labelled series.
func (f *Figure) ShowLegend() { f.Legend = true }

func (f *Figure) add(label string, kind Kind, xs, ys []float64, style Style) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("%w: series %q has %d x and %d y values", ErrSeriesLength, label, len(xs), len(ys))
	}
	f.Series = append(f.Series, Series{
		Label: label,
		Kind:  kind,
		X:     append([]float64(nil), xs...),
		Y:     append([]float64(nil), ys...),
		Style: style,
	})
	return nil
}

// clone returns a deep copy so a flushed figure is not changed by later drawing.
func (f *Figure) clone() Figure {
	out := *f
	out.Series = make([]Series, len(f.Series))
	for i, s := range f.Series {
		s.X = append([]float64(nil), s.X...)
		s.Y = append([]float64(nil), s.Y...)
		out.Series[i] = s
	}
	if f.Limits != nil {
		l := *f.Limits
		out.Limits = &l
	}
	return out
}
