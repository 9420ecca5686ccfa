// Package observer tracks a registration optimizer's metric value across
// iterations and multi-resolution stages and redraws a progress plot after
// every iteration.
//
// A Session replaces process-wide plotting state: the host creates one per
// registration run and routes the optimizer's start, end, iteration and
// multi-resolution events to it. Callbacks must be serialised by the caller.
package observer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/regviz/internal/display"
	"github.com/banshee-data/regviz/internal/monitoring"
	"github.com/banshee-data/regviz/internal/timeutil"
	"github.com/google/uuid"
)

var logger = monitoring.Component("observer")

// ErrMissingSession is matched by MissingSessionError.
var ErrMissingSession = errors.New("no active observer session")

// MissingSessionError reports a callback that requires an active session.
type MissingSessionError struct {
	Op    string
	State State
}

func (e *MissingSessionError) Error() string {
	return fmt.Sprintf("%s: no active observer session (state %s)", e.Op, e.State)
}

func (e *MissingSessionError) Is(target error) bool { return target == ErrMissingSession }

// MetricSource is the optimizer query consumed on every iteration.
type MetricSource interface {
	MetricValue() float64
}

// MetricFunc adapts a function to MetricSource.
type MetricFunc func() float64

// MetricValue calls f.
func (f MetricFunc) MetricValue() float64 { return f() }

// State is the session lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateActive
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	default:
		return "uninitialized"
	}
}

// Trace is a copy of a session's accumulated data.
type Trace struct {
	ID           string
	Label        string
	StartedAt    time.Time
	EndedAt      time.Time
	MetricValues []float64
	Milestones   []int
}

// TraceSink receives the trace of every session that ends.
type TraceSink interface {
	SaveTrace(ctx context.Context, tr Trace) error
}

// Option configures a Session.
type Option func(*Session)

// WithSink saves each completed trace to sink.
func WithSink(sink TraceSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithLabel sets the label used as plot title and stored with the trace.
func WithLabel(label string) Option {
	return func(s *Session) { s.label = label }
}

// WithClock overrides the clock used for start and end timestamps.
func WithClock(c timeutil.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// Session accumulates the metric trace and milestone indices of one run.
type Session struct {
	canvas display.Canvas
	sink   TraceSink
	label  string
	clock  timeutil.Clock

	state        State
	id           string
	startedAt    time.Time
	metricValues []float64
	milestones   []int
}

// NewSession creates an uninitialised session drawing on canvas.
func NewSession(canvas display.Canvas, opts ...Option) *Session {
	s := &Session{
		canvas: canvas,
		clock:  timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnStart resets the trace and milestones and clears the canvas. It may be
// called in any state.
func (s *Session) OnStart() {
	s.id = uuid.NewString()
	s.startedAt = s.clock.Now()
	s.metricValues = []float64{}
	s.milestones = []int{}
	s.canvas.Clear()
	s.state = StateActive
	logger.Printf("run %s started label=%q", s.id, s.label)
}

// OnEnd saves the trace to the configured sink and releases the session data.
// The session ends even when the sink fails; the sink error is returned.
func (s *Session) OnEnd(ctx context.Context) error {
	if s.state != StateActive {
		return &MissingSessionError{Op: "end", State: s.state}
	}

	tr := s.snapshot()
	tr.EndedAt = s.clock.Now()

	s.metricValues = nil
	s.milestones = nil
	s.state = StateEnded
	logger.Printf("run %s ended after %d iterations, %d milestones (%v)",
		tr.ID, len(tr.MetricValues), len(tr.Milestones), tr.EndedAt.Sub(tr.StartedAt))

	if s.sink != nil {
		if err := s.sink.SaveTrace(ctx, tr); err != nil {
			return fmt.Errorf("save trace %s: %w", tr.ID, err)
		}
	}
	return nil
}

// OnIteration appends the source's current metric value and redraws.
func (s *Session) OnIteration(src MetricSource) error {
	if s.state != StateActive {
		return &MissingSessionError{Op: "iteration", State: s.state}
	}
	return s.Record(src.MetricValue())
}

// Record appends value as the next iteration's metric and redraws.
func (s *Session) Record(value float64) error {
	if s.state != StateActive {
		return &MissingSessionError{Op: "iteration", State: s.state}
	}
	s.metricValues = append(s.metricValues, value)
	return s.redraw()
}

// OnResolutionChange marks the start of a new resolution stage. The recorded
// index is the current trace length, i.e. the first iteration of the new stage.
func (s *Session) OnResolutionChange() error {
	if s.state != StateActive {
		return &MissingSessionError{Op: "resolution change", State: s.state}
	}
	s.milestones = append(s.milestones, len(s.metricValues))
	return nil
}

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// ID returns the current run ID, empty before the first OnStart.
func (s *Session) ID() string { return s.id }

// MetricValues returns a copy of the metric trace.
func (s *Session) MetricValues() []float64 {
	return append([]float64(nil), s.metricValues...)
}

// Milestones returns a copy of the milestone indices.
func (s *Session) Milestones() []int {
	return append([]int(nil), s.milestones...)
}

// Snapshot returns a copy of the current trace. EndedAt is zero.
func (s *Session) Snapshot() Trace {
	return s.snapshot()
}

func (s *Session) snapshot() Trace {
	return Trace{
		ID:           s.id,
		Label:        s.label,
		StartedAt:    s.startedAt,
		MetricValues: s.MetricValues(),
		Milestones:   s.Milestones(),
	}
}

func (s *Session) redraw() error {
	if err := drawTrace(s.canvas, s.label, s.metricValues, s.milestones); err != nil {
		return fmt.Errorf("redraw: %w", err)
	}
	return nil
}

// DrawTrace plots a stored trace the same way a live session does.
func DrawTrace(c display.Canvas, tr Trace) error {
	return drawTrace(c, tr.Label, tr.MetricValues, tr.Milestones)
}

// drawTrace draws the metric line with a marker at the first iteration of
// every resolution stage, then flushes.
func drawTrace(c display.Canvas, title string, values []float64, milestones []int) error {
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}

	// A milestone recorded after the last iteration has no value yet.
	var mx, my []float64
	for _, idx := range milestones {
		if idx < len(values) {
			mx = append(mx, float64(idx))
			my = append(my, values[idx])
		}
	}

	c.Clear()
	c.SetTitle(title)
	if err := c.Line("metric", xs, values, display.Style{Color: display.Red}); err != nil {
		return err
	}
	if err := c.Scatter("resolution change", mx, my, display.Style{Color: display.Blue, Marker: display.MarkerStar}); err != nil {
		return err
	}
	c.SetLabels("Iteration Number", "Metric Value")
	return c.Flush()
}
