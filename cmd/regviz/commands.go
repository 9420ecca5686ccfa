package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/regviz/internal/config"
	"github.com/banshee-data/regviz/internal/display"
	"github.com/banshee-data/regviz/internal/geometry"
	"github.com/banshee-data/regviz/internal/observer"
	"github.com/banshee-data/regviz/internal/pointcloud"
	"github.com/banshee-data/regviz/internal/timeutil"
	"github.com/banshee-data/regviz/internal/tracestore"
	"github.com/banshee-data/regviz/internal/transform"
)

// newFlagSet returns a flag set with the shared -config flag registered.
func newFlagSet(name string, stdout io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stdout)
	cfgPath := fs.String("config", "", "path to JSON config file")
	return fs, cfgPath
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Empty(), nil
	}
	return config.Load(path)
}

// flagSet reports whether name was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// newRand returns a source seeded from -seed when given, then the config,
// then the clock.
func newRand(fs *flag.FlagSet, flagSeed int64, cfg *config.Config) *rand.Rand {
	seed := flagSeed
	if !flagSet(fs, "seed") {
		if s, ok := cfg.GetSeed(); ok {
			seed = s
		} else {
			seed = time.Now().UnixNano()
		}
	}
	return rand.New(rand.NewSource(seed))
}

// newCanvas picks the renderer from the output file extension, falling back
// to the configured format when path has none.
func newCanvas(path string, cfg *config.Config) (display.Canvas, string) {
	if filepath.Ext(path) == "" {
		path += "." + cfg.GetFormat()
	}
	if strings.EqualFold(filepath.Ext(path), ".html") {
		return display.NewHTMLCanvas(path, "900px", "500px"), path
	}
	w, h := cfg.GetPlotSize()
	return display.NewPlotCanvas(path, w, h), path
}

// makePlotOutputDir returns <base>/<label>/<timestamp>, or <base>/run_<timestamp>
// when no label is given.
func makePlotOutputDir(base, label string, now time.Time) string {
	ts := timeutil.FormatTimestamp(now)
	if label != "" {
		return filepath.Join(base, label, ts)
	}
	return filepath.Join(base, "run_"+ts)
}

// parseBounds parses "lo,hi;lo,hi;..." into per-dimension bounds.
func parseBounds(s string) (geometry.Bounds, error) {
	var bounds geometry.Bounds
	for i, pair := range strings.Split(s, ";") {
		parts := strings.Split(strings.TrimSpace(pair), ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("bound %d: expected lo,hi, got %q", i, pair)
		}
		lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("bound %d: %w", i, err)
		}
		hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("bound %d: %w", i, err)
		}
		bounds = append(bounds, geometry.Bound{Min: lo, Max: hi})
	}
	return bounds, nil
}

func runPoints(args []string, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("points", stdout)
	boundsFlag := fs.String("bounds", "-10,10;-100,100", "per-dimension bounds as lo,hi;lo,hi")
	n := fs.Int("n", 10, "number of points")
	precision := fs.Int("precision", -1, "digits after the decimal point (default from config)")
	seed := fs.Int64("seed", 0, "random seed (default from config, else the clock)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	bounds, err := parseBounds(*boundsFlag)
	if err != nil {
		return err
	}
	prec := *precision
	if prec < 0 {
		prec = cfg.GetPrecision()
	}

	points, err := pointcloud.UniformRandomPoints(newRand(fs, *seed, cfg), bounds, *n)
	if err != nil {
		return err
	}
	for _, p := range points {
		fmt.Fprintln(stdout, pointcloud.FormatPoint(p, prec))
	}
	return nil
}

func runCompare(args []string, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("compare", stdout)
	aPath := fs.String("a", "", "first transform (JSON)")
	bPath := fs.String("b", "", "second transform (JSON)")
	seed := fs.Int64("seed", 0, "random seed (default from config, else the clock)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *aPath == "" || *bPath == "" {
		return fmt.Errorf("both -a and -b are required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	tx1, err := transform.Load(*aPath)
	if err != nil {
		return err
	}
	tx2, err := transform.Load(*bPath)
	if err != nil {
		return err
	}
	return pointcloud.PrintTransformationDifferences(stdout, newRand(fs, *seed, cfg), tx1, tx2)
}

func runScale(args []string, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("scale", stdout)
	txPath := fs.String("tx", "", "2D transform whose parameters are the base displacements (JSON)")
	scale := fs.Float64("s", 1.0, "displacement scale factor")
	gridN := fs.Int("grid", 11, "grid samples per axis")
	lo := fs.Float64("lo", -2, "grid lower coordinate")
	hi := fs.Float64("hi", 2, "grid upper coordinate")
	out := fs.String("out", "", "output file (default <output_dir>/scale_<s>.<format>, e.g. scale_0p50.png)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *txPath == "" {
		return fmt.Errorf("-tx is required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	tx, err := transform.Load(*txPath)
	if err != nil {
		return err
	}
	x, y, err := pointcloud.MeshGrid(*lo, *hi, *gridN)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = filepath.Join(cfg.GetOutputDir(), scaleFileName(*scale))
	}
	canvas, path := newCanvas(path, cfg)
	if err := pointcloud.DisplacementScalingEffect(canvas, *scale, x, y, tx, tx.Parameters()); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return nil
}

// scaleFileName names the default scale plot without an extension; the
// decimal point becomes 'p' so it is not taken for one (0.5 -> scale_0p50).
func scaleFileName(scale float64) string {
	return "scale_" + strings.ReplaceAll(fmt.Sprintf("%.2f", scale), ".", "p")
}

// openSink opens the trace store when a database path is configured.
func openSink(flagPath string, cfg *config.Config) (*tracestore.Store, error) {
	path := flagPath
	if path == "" {
		path = cfg.GetDBPath()
	}
	if path == "" {
		return nil, nil
	}
	return tracestore.Open(path)
}

func runReplay(args []string, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("replay", stdout)
	in := fs.String("in", "", "event log (one of start, end, iter <value>, multires per line)")
	out := fs.String("out", "", "output file (default <output_dir>/<label>/<timestamp>/trace.<format>)")
	dbPath := fs.String("db", "", "store the trace in this SQLite database")
	label := fs.String("label", "", "run label")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("-in is required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	path := *out
	if path == "" {
		path = filepath.Join(makePlotOutputDir(cfg.GetOutputDir(), *label, time.Now()), "trace")
	}
	canvas, path := newCanvas(path, cfg)

	opts := []observer.Option{observer.WithLabel(*label)}
	store, err := openSink(*dbPath, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts = append(opts, observer.WithSink(store))
	}

	session := observer.NewSession(canvas, opts...)
	n, err := observer.Replay(context.Background(), f, session)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "replayed %d events, run %s, wrote %s\n", n, session.ID(), path)
	return nil
}

func runRuns(args []string, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("runs", stdout)
	dbPath := fs.String("db", "", "SQLite database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	store, err := openSink(*dbPath, cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("-db or db_path is required")
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background())
	if err != nil {
		return err
	}
	for _, r := range runs {
		final := "-"
		if r.FinalMetric != nil {
			final = strconv.FormatFloat(*r.FinalMetric, 'f', cfg.GetPrecision(), 64)
		}
		fmt.Fprintf(stdout, "%s  %-20s  %s  iterations=%d  final=%s\n",
			r.ID, r.Label, r.StartedAt.Format(time.RFC3339), r.Iterations, final)
	}
	return nil
}

func runShow(args []string, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("show", stdout)
	dbPath := fs.String("db", "", "SQLite database")
	id := fs.String("id", "", "run ID")
	out := fs.String("out", "", "output file (default <output_dir>/<id>.<format>)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("-id is required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	store, err := openSink(*dbPath, cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("-db or db_path is required")
	}
	defer store.Close()

	tr, err := store.LoadTrace(context.Background(), *id)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = filepath.Join(cfg.GetOutputDir(), *id)
	}
	canvas, path := newCanvas(path, cfg)
	if err := observer.DrawTrace(canvas, tr); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return nil
}
