package tracestore

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/regviz/internal/display"
	"github.com/banshee-data/regviz/internal/monitoring"
	"github.com/banshee-data/regviz/internal/observer"
	"github.com/banshee-data/regviz/internal/timeutil"
	"github.com/google/go-cmp/cmp"
)

func init() {
	monitoring.SetLogger(nil)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("expected clean version 2, got %d dirty=%v", version, dirty)
	}

	// Re-running is a no-op.
	if err := s.MigrateUp(); err != nil {
		t.Errorf("second MigrateUp failed: %v", err)
	}
}

func TestSaveAndLoadTrace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	want := observer.Trace{
		ID:           "run-1",
		Label:        "bspline-mattes",
		StartedAt:    start,
		EndedAt:      start.Add(42 * time.Second),
		MetricValues: []float64{-0.31, -0.45, -0.52, -0.55},
		Milestones:   []int{2, 3},
	}
	if err := s.SaveTrace(ctx, want); err != nil {
		t.Fatalf("SaveTrace failed: %v", err)
	}

	got, err := s.LoadTrace(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadTrace failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveTrace_EmptyAndUnnamed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveTrace(ctx, observer.Trace{Label: "empty"}); err != nil {
		t.Fatalf("SaveTrace failed: %v", err)
	}
	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].ID == "" {
		t.Error("expected generated run ID")
	}
	if runs[0].FinalMetric != nil {
		t.Errorf("expected nil final metric, got %v", *runs[0].FinalMetric)
	}

	got, err := s.LoadTrace(ctx, runs[0].ID)
	if err != nil {
		t.Fatalf("LoadTrace failed: %v", err)
	}
	if len(got.MetricValues) != 0 || len(got.Milestones) != 0 {
		t.Errorf("expected empty trace, got %+v", got)
	}
	if !got.StartedAt.IsZero() || !got.EndedAt.IsZero() {
		t.Errorf("expected zero timestamps, got %v / %v", got.StartedAt, got.EndedAt)
	}
}

func TestSaveTrace_DuplicateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	tr := observer.Trace{ID: "dup", MetricValues: []float64{1}}

	if err := s.SaveTrace(ctx, tr); err != nil {
		t.Fatalf("first SaveTrace failed: %v", err)
	}
	if err := s.SaveTrace(ctx, tr); err == nil {
		t.Error("expected error saving duplicate run ID")
	}

	// The failed transaction must not leave extra values behind.
	got, err := s.LoadTrace(ctx, "dup")
	if err != nil {
		t.Fatalf("LoadTrace failed: %v", err)
	}
	if len(got.MetricValues) != 1 {
		t.Errorf("expected 1 metric value, got %d", len(got.MetricValues))
	}
}

func TestLoadTrace_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadTrace(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "new", "mid"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		tr := observer.Trace{
			ID:           id,
			StartedAt:    base.Add(offsets[i]),
			EndedAt:      base.Add(offsets[i] + time.Minute),
			MetricValues: []float64{float64(i), float64(i) / 2},
		}
		if err := s.SaveTrace(ctx, tr); err != nil {
			t.Fatalf("SaveTrace(%s) failed: %v", id, err)
		}
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"new", "mid", "old"}, ids); diff != "" {
		t.Errorf("run order mismatch (-want +got):\n%s", diff)
	}
	if runs[0].Iterations != 2 || runs[0].FinalMetric == nil || *runs[0].FinalMetric != 0.5 {
		t.Errorf("unexpected summary for newest run: %+v", runs[0])
	}
}

func TestStore_AsObserverSink(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	clock := timeutil.NewMockClock(time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC))

	session := observer.NewSession(display.NewRecorder(), observer.WithSink(s), observer.WithLabel("rigid"), observer.WithClock(clock))
	session.OnStart()
	for _, v := range []float64{3, 2} {
		if err := session.Record(v); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := session.OnResolutionChange(); err != nil {
		t.Fatalf("OnResolutionChange failed: %v", err)
	}
	if err := session.Record(1); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	clock.Advance(time.Second)
	if err := session.OnEnd(ctx); err != nil {
		t.Fatalf("OnEnd failed: %v", err)
	}

	got, err := s.LoadTrace(ctx, session.ID())
	if err != nil {
		t.Fatalf("LoadTrace failed: %v", err)
	}
	if diff := cmp.Diff([]float64{3, 2, 1}, got.MetricValues); diff != "" {
		t.Errorf("metric values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2}, got.Milestones); diff != "" {
		t.Errorf("milestones mismatch (-want +got):\n%s", diff)
	}
	if got.Label != "rigid" {
		t.Errorf("expected label rigid, got %q", got.Label)
	}
}

func TestSaveTrace_NonFiniteValues(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tr := observer.Trace{
		ID:           "diverged",
		MetricValues: []float64{1, math.NaN(), math.Inf(1), math.Inf(-1), math.NaN()},
	}
	if err := s.SaveTrace(ctx, tr); err != nil {
		t.Fatalf("SaveTrace failed: %v", err)
	}

	got, err := s.LoadTrace(ctx, "diverged")
	if err != nil {
		t.Fatalf("LoadTrace failed: %v", err)
	}
	if len(got.MetricValues) != 5 {
		t.Fatalf("expected 5 values, got %v", got.MetricValues)
	}
	if got.MetricValues[0] != 1 {
		t.Errorf("value 0 = %v, want 1", got.MetricValues[0])
	}
	if !math.IsNaN(got.MetricValues[1]) {
		t.Errorf("value 1 = %v, want NaN", got.MetricValues[1])
	}
	if !math.IsInf(got.MetricValues[2], 1) {
		t.Errorf("value 2 = %v, want +Inf", got.MetricValues[2])
	}
	if !math.IsInf(got.MetricValues[3], -1) {
		t.Errorf("value 3 = %v, want -Inf", got.MetricValues[3])
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].FinalMetric == nil || !math.IsNaN(*runs[0].FinalMetric) {
		t.Errorf("expected NaN final metric, got %+v", runs)
	}
}
