package display

import "sync"

// Recorder is an in-memory Canvas for headless hosts. Every Flush stores a
// copy of the figure so callers can inspect what would have been drawn.
type Recorder struct {
	mu      sync.Mutex
	current Figure
	flushes []Figure
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current.Clear()
}

func (r *Recorder) Line(label string, xs, ys []float64, style Style) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Line(label, xs, ys, style)
}

func (r *Recorder) Scatter(label string, xs, ys []float64, style Style) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Scatter(label, xs, ys, style)
}

func (r *Recorder) SetTitle(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current.SetTitle(title)
}

func (r *Recorder) SetLabels(x, y string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current.SetLabels(x, y)
}

func (r *Recorder) SetLimits(xmin, xmax, ymin, ymax float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current.SetLimits(xmin, xmax, ymin, ymax)
}

func (r *Recorder) ShowLegend() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current.ShowLegend()
}

// Flush records a snapshot of the current figure.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes = append(r.flushes, r.current.clone())
	return nil
}

// FlushCount returns the number of Flush calls.
func (r *Recorder) FlushCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flushes)
}

// Last returns the most recently flushed figure and false if nothing was flushed.
func (r *Recorder) Last() (Figure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.flushes) == 0 {
		return Figure{}, false
	}
	return r.flushes[len(r.flushes)-1].clone(), true
}
