package display

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// HTMLCanvas renders an interactive go-echarts page. Each Flush overwrites
// the output file.
type HTMLCanvas struct {
	Figure
	path   string
	width  string
	height string
}

// NewHTMLCanvas creates a canvas writing to path. Width and height are CSS
// sizes such as "900px".
func NewHTMLCanvas(path, width, height string) *HTMLCanvas {
	return &HTMLCanvas{path: path, width: width, height: height}
}

// Path returns the output file.
func (c *HTMLCanvas) Path() string { return c.path }

// Flush renders the figure and writes the HTML page.
func (c *HTMLCanvas) Flush() error {
	var buf bytes.Buffer
	if err := renderHTML(&buf, &c.Figure, c.width, c.height); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(c.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}

func renderHTML(buf *bytes.Buffer, f *Figure, width, height string) error {
	xAxis := opts.XAxis{Type: "value", Name: f.XLabel, NameLocation: "middle", NameGap: 25}
	yAxis := opts.YAxis{Type: "value", Name: f.YLabel, NameLocation: "middle", NameGap: 30}
	if f.Limits != nil {
		xAxis.Min, xAxis.Max = f.Limits.XMin, f.Limits.XMax
		yAxis.Min, yAxis.Max = f.Limits.YMin, f.Limits.YMax
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: f.Title, Width: width, Height: height}),
		charts.WithTitleOpts(opts.Title{Title: f.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(f.Legend)}),
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(yAxis),
	)

	for _, s := range f.Series {
		col := hexColor(colorOrBlack(s.Style.Color))
		switch s.Kind {
		case KindLine:
			data := make([]opts.LineData, len(s.X))
			for i := range s.X {
				data[i] = opts.LineData{Value: []interface{}{s.X[i], s.Y[i]}}
			}
			line.AddSeries(s.Label, data,
				charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
				charts.WithLineStyleOpts(opts.LineStyle{Color: col, Width: float32(widthOrDefault(s.Style.Width))}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: col}),
			)
		case KindScatter:
			data := make([]opts.ScatterData, len(s.X))
			for i := range s.X {
				data[i] = opts.ScatterData{Value: []interface{}{s.X[i], s.Y[i]}, Symbol: symbolFor(s.Style.Marker), SymbolSize: 8}
			}
			sc := charts.NewScatter()
			sc.AddSeries(s.Label, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: col}))
			line.Overlap(sc)
		}
	}

	if err := line.Render(buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func symbolFor(m Marker) string {
	switch m {
	case MarkerTriangle:
		return "triangle"
	case MarkerStar:
		return starSymbol
	default:
		return "circle"
	}
}

// starSymbol is an echarts custom symbol path; SVG y grows downwards.
var starSymbol = func() string {
	var b strings.Builder
	b.WriteString("path://")
	for i, v := range starOutline() {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&b, "%s%.3f %.3f ", cmd, v[0], -v[1])
	}
	b.WriteString("Z")
	return b.String()
}()

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
