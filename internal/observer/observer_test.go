package observer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/regviz/internal/display"
	"github.com/banshee-data/regviz/internal/monitoring"
	"github.com/banshee-data/regviz/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	monitoring.SetLogger(nil)
}

type memorySink struct {
	traces []Trace
	err    error
}

func (m *memorySink) SaveTrace(_ context.Context, tr Trace) error {
	if m.err != nil {
		return m.err
	}
	m.traces = append(m.traces, tr)
	return nil
}

type failingCanvas struct {
	*display.Recorder
}

func (failingCanvas) Flush() error { return errors.New("display gone") }

func TestSession_CallbacksBeforeStart(t *testing.T) {
	s := NewSession(display.NewRecorder())
	assert.Equal(t, StateUninitialized, s.State())

	err := s.OnIteration(MetricFunc(func() float64 { return 1 }))
	assert.True(t, errors.Is(err, ErrMissingSession), "got %v", err)

	var mse *MissingSessionError
	require.True(t, errors.As(err, &mse))
	assert.Equal(t, StateUninitialized, mse.State)

	assert.True(t, errors.Is(s.OnResolutionChange(), ErrMissingSession))
	assert.True(t, errors.Is(s.OnEnd(context.Background()), ErrMissingSession))
	assert.True(t, errors.Is(s.Record(2), ErrMissingSession))
}

func TestSession_MilestoneScenario(t *testing.T) {
	rec := display.NewRecorder()
	s := NewSession(rec)

	s.OnStart()
	require.NoError(t, s.OnIteration(MetricFunc(func() float64 { return 5.0 })))
	require.NoError(t, s.OnResolutionChange())
	require.NoError(t, s.OnIteration(MetricFunc(func() float64 { return 3.0 })))

	assert.Equal(t, []float64{5.0, 3.0}, s.MetricValues())
	assert.Equal(t, []int{1}, s.Milestones())
	assert.Equal(t, 2, rec.FlushCount())

	fig, ok := rec.Last()
	require.True(t, ok)
	require.Len(t, fig.Series, 2)
	assert.Equal(t, display.KindLine, fig.Series[0].Kind)
	assert.Equal(t, []float64{0, 1}, fig.Series[0].X)
	assert.Equal(t, []float64{5, 3}, fig.Series[0].Y)
	assert.Equal(t, display.KindScatter, fig.Series[1].Kind)
	assert.Equal(t, []float64{1}, fig.Series[1].X)
	assert.Equal(t, []float64{3}, fig.Series[1].Y)
	assert.Equal(t, "Iteration Number", fig.XLabel)
	assert.Equal(t, "Metric Value", fig.YLabel)
}

func TestSession_ConsecutiveStages(t *testing.T) {
	rec := display.NewRecorder()
	s := NewSession(rec)
	s.OnStart()

	require.NoError(t, s.OnResolutionChange())
	assert.Equal(t, []int{0}, s.Milestones())
	require.NoError(t, s.Record(4))
	require.NoError(t, s.OnResolutionChange())
	require.NoError(t, s.Record(2))

	fig, _ := rec.Last()
	assert.Equal(t, []float64{0, 1}, fig.Series[1].X)

	require.NoError(t, s.OnResolutionChange())
	require.NoError(t, s.Record(1))
	fig, _ = rec.Last()
	assert.Equal(t, []float64{0, 1, 2}, fig.Series[1].X)
	assert.Equal(t, []float64{4, 2, 1}, fig.Series[1].Y)

	assert.Equal(t, []int{0, 1, 2}, s.Milestones())
	for _, idx := range s.Milestones() {
		assert.LessOrEqual(t, idx, len(s.MetricValues()))
	}
}

func TestSession_StartResets(t *testing.T) {
	rec := display.NewRecorder()
	s := NewSession(rec)

	s.OnStart()
	firstID := s.ID()
	require.NoError(t, s.Record(1))
	require.NoError(t, s.OnResolutionChange())

	s.OnStart()
	assert.Empty(t, s.MetricValues())
	assert.Empty(t, s.Milestones())
	assert.NotEqual(t, firstID, s.ID())
	assert.Equal(t, StateActive, s.State())
}

func TestSession_EndSavesTrace(t *testing.T) {
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(start)
	sink := &memorySink{}
	s := NewSession(display.NewRecorder(), WithSink(sink), WithLabel("affine-mi"), WithClock(clock))

	s.OnStart()
	require.NoError(t, s.Record(0.9))
	require.NoError(t, s.OnResolutionChange())
	require.NoError(t, s.Record(0.4))
	clock.Advance(3 * time.Second)
	require.NoError(t, s.OnEnd(context.Background()))

	assert.Equal(t, StateEnded, s.State())
	assert.Nil(t, s.MetricValues())
	assert.Nil(t, s.Milestones())

	require.Len(t, sink.traces, 1)
	tr := sink.traces[0]
	assert.Equal(t, s.ID(), tr.ID)
	assert.Equal(t, "affine-mi", tr.Label)
	assert.Equal(t, []float64{0.9, 0.4}, tr.MetricValues)
	assert.Equal(t, []int{1}, tr.Milestones)
	assert.Equal(t, start, tr.StartedAt)
	assert.Equal(t, start.Add(3*time.Second), tr.EndedAt)

	// Ended sessions reject callbacks until restarted.
	assert.True(t, errors.Is(s.Record(1), ErrMissingSession))
	assert.True(t, errors.Is(s.OnEnd(context.Background()), ErrMissingSession))
}

func TestSession_SinkErrorStillEnds(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	s := NewSession(display.NewRecorder(), WithSink(sink))
	s.OnStart()

	err := s.OnEnd(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, StateEnded, s.State())
}

func TestSession_FlushErrorReturned(t *testing.T) {
	s := NewSession(failingCanvas{display.NewRecorder()})
	s.OnStart()

	err := s.Record(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "display gone")
	// The value is still part of the trace.
	assert.Equal(t, []float64{1}, s.MetricValues())
}

func TestSession_SnapshotIsCopy(t *testing.T) {
	s := NewSession(display.NewRecorder())
	s.OnStart()
	require.NoError(t, s.Record(1))

	snap := s.Snapshot()
	snap.MetricValues[0] = 42
	assert.Equal(t, []float64{1}, s.MetricValues())
	assert.True(t, snap.EndedAt.IsZero())
}

func TestEvents(t *testing.T) {
	for _, ev := range []Event{EventStart, EventEnd, EventIteration, EventMultiResolutionIteration} {
		parsed, err := ParseEvent(ev.String())
		require.NoError(t, err)
		assert.Equal(t, ev, parsed)
	}
	_, err := ParseEvent("pause")
	assert.Error(t, err)
	assert.Equal(t, "event(9)", Event(9).String())
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	s := NewSession(display.NewRecorder())

	require.NoError(t, s.Dispatch(ctx, EventStart, nil))
	require.NoError(t, s.Dispatch(ctx, EventIteration, MetricFunc(func() float64 { return 2 })))
	require.NoError(t, s.Dispatch(ctx, EventMultiResolutionIteration, nil))
	assert.Error(t, s.Dispatch(ctx, EventIteration, nil))
	assert.Error(t, s.Dispatch(ctx, Event(9), nil))
	require.NoError(t, s.Dispatch(ctx, EventEnd, nil))
	assert.Equal(t, StateEnded, s.State())
}

func TestReplay(t *testing.T) {
	log := `# two-level registration
start
iter 5.0
multires
iter 3.0

iter 2.5
`
	sink := &memorySink{}
	s := NewSession(display.NewRecorder(), WithSink(sink))
	n, err := Replay(context.Background(), strings.NewReader(log+"end\n"), s)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	require.Len(t, sink.traces, 1)
	assert.Equal(t, []float64{5, 3, 2.5}, sink.traces[0].MetricValues)
	assert.Equal(t, []int{1}, sink.traces[0].Milestones)
}

func TestReplay_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown event":    "start\nwobble\n",
		"missing value":    "start\niter\n",
		"bad value":        "start\niter abc\n",
		"iteration before": "iter 1\n",
	}
	for name, log := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewSession(display.NewRecorder())
			_, err := Replay(context.Background(), strings.NewReader(log), s)
			assert.Error(t, err)
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Replay(ctx, strings.NewReader("start\n"), NewSession(display.NewRecorder()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDrawTrace(t *testing.T) {
	rec := display.NewRecorder()
	tr := Trace{Label: "stored", MetricValues: []float64{4, 2, 1}, Milestones: []int{1, 3}}
	require.NoError(t, DrawTrace(rec, tr))

	fig, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "stored", fig.Title)
	assert.Equal(t, []float64{4, 2, 1}, fig.Series[0].Y)
	// Milestone 3 has no value and is skipped.
	assert.Equal(t, []float64{1}, fig.Series[1].X)
	assert.Equal(t, []float64{2}, fig.Series[1].Y)
}
