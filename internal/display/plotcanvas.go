package display

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// PlotCanvas renders with gonum/plot. Each Flush overwrites the output file;
// the image format follows the file extension (.png, .svg, .pdf).
type PlotCanvas struct {
	Figure
	path   string
	width  vg.Length
	height vg.Length
}

// NewPlotCanvas creates a canvas that saves to path at the given size.
func NewPlotCanvas(path string, width, height vg.Length) *PlotCanvas {
	return &PlotCanvas{path: path, width: width, height: height}
}

// Path returns the output file.
func (c *PlotCanvas) Path() string { return c.path }

// Flush renders the figure and saves it.
func (c *PlotCanvas) Flush() error {
	p, err := buildPlot(&c.Figure)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := p.Save(c.width, c.height, c.path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

func buildPlot(f *Figure) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = f.XLabel
	p.Y.Label.Text = f.YLabel

	for _, s := range f.Series {
		// Empty series have no range and nothing to draw.
		if len(s.X) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(s.X))
		for i := range s.X {
			xys[i] = plotter.XY{X: s.X[i], Y: s.Y[i]}
		}

		switch s.Kind {
		case KindLine:
			line, err := plotter.NewLine(xys)
			if err != nil {
				return nil, fmt.Errorf("line %q: %w", s.Label, err)
			}
			line.Color = colorOrBlack(s.Style.Color)
			line.Width = vg.Points(widthOrDefault(s.Style.Width))
			p.Add(line)
			if f.Legend && s.Label != "" {
				p.Legend.Add(s.Label, line)
			}
		case KindScatter:
			sc, err := plotter.NewScatter(xys)
			if err != nil {
				return nil, fmt.Errorf("scatter %q: %w", s.Label, err)
			}
			sc.GlyphStyle.Color = colorOrBlack(s.Style.Color)
			sc.GlyphStyle.Radius = vg.Points(3)
			sc.GlyphStyle.Shape = glyphFor(s.Style.Marker)
			p.Add(sc)
			if f.Legend && s.Label != "" {
				p.Legend.Add(s.Label, sc)
			}
		}
	}

	if f.Limits != nil {
		p.X.Min, p.X.Max = f.Limits.XMin, f.Limits.XMax
		p.Y.Min, p.Y.Max = f.Limits.YMin, f.Limits.YMax
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func glyphFor(m Marker) draw.GlyphDrawer {
	switch m {
	case MarkerTriangle:
		return draw.TriangleGlyph{}
	case MarkerStar:
		return starGlyph{}
	default:
		return draw.CircleGlyph{}
	}
}

// starGlyph draws an outlined five-pointed star.
type starGlyph struct{}

func (starGlyph) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	c.SetLineStyle(draw.LineStyle{Color: sty.Color, Width: vg.Points(0.5)})
	r := sty.Radius * 1.4
	var p vg.Path
	for i, v := range starOutline() {
		q := vg.Point{X: pt.X + r*vg.Length(v[0]), Y: pt.Y + r*vg.Length(v[1])}
		if i == 0 {
			p.Move(q)
		} else {
			p.Line(q)
		}
	}
	p.Close()
	c.Stroke(p)
}

func colorOrBlack(c color.Color) color.Color {
	if c == nil {
		return color.Black
	}
	return c
}

func widthOrDefault(w float64) float64 {
	if w <= 0 {
		return 1
	}
	return w
}
