package metrics

import (
	"math"
	"slices"
	"sync"

	"go.uber.org/atomic"
)

// Series is one labeled instance of a metric family. It is created lazily by
// the Registry the first time its LabelSet is seen and is only mutated
// afterwards, never replaced.
//
// Counter and gauge values are lock-free atomic floats. Histogram state is
// guarded by a per-series mutex so that buckets, sum and count are always
// read together.
type Series struct {
	desc   *Descriptor
	labels LabelSet

	value atomic.Float64
	hist  *histogramState
}

type histogramState struct {
	mu     sync.Mutex
	counts []uint64 // cumulative, parallel to desc.Buckets
	sum    float64
	count  uint64
}

func newSeries(desc *Descriptor, labels LabelSet) *Series {
	s := &Series{desc: desc, labels: labels}
	if desc.Kind == KindHistogram {
		s.hist = &histogramState{counts: make([]uint64, len(desc.Buckets))}
	}
	return s
}

// Descriptor returns the family descriptor of the series.
func (s *Series) Descriptor() *Descriptor { return s.desc }

// Labels returns the sorted label set identifying the series.
func (s *Series) Labels() LabelSet { return s.labels }

// snapshot reads the series state. Each read is atomic for the series.
func (s *Series) snapshot() SeriesSnapshot {
	snap := SeriesSnapshot{Labels: s.labels}
	if s.hist == nil {
		snap.Value = s.value.Load()
		return snap
	}

	s.hist.mu.Lock()
	h := &HistogramSnapshot{
		Bounds: s.desc.Buckets,
		Counts: slices.Clone(s.hist.counts),
		Sum:    s.hist.sum,
		Count:  s.hist.count,
	}
	s.hist.mu.Unlock()

	snap.Histogram = h
	snap.Value = float64(h.Count)
	return snap
}

// Counter is a handle on a counter series.
type Counter struct{ s *Series }

// Add increments the counter by delta. A negative or NaN delta is rejected
// with *InvalidDeltaError and the value is left unchanged.
func (c Counter) Add(delta float64) error {
	if !(delta >= 0) {
		return &InvalidDeltaError{Metric: c.s.desc.Name, Delta: delta}
	}
	c.s.value.Add(delta)
	return nil
}

// Inc increments the counter by one.
func (c Counter) Inc() {
	c.s.value.Add(1)
}

// Value returns the current counter value.
func (c Counter) Value() float64 { return c.s.value.Load() }

// Series returns the underlying series.
func (c Counter) Series() *Series { return c.s }

// Gauge is a handle on a gauge series. No floor or ceiling is enforced.
type Gauge struct{ s *Series }

// Set overwrites the gauge value.
func (g Gauge) Set(v float64) { g.s.value.Store(v) }

// Add adds delta, which may be negative.
func (g Gauge) Add(delta float64) { g.s.value.Add(delta) }

// Sub subtracts delta.
func (g Gauge) Sub(delta float64) { g.s.value.Sub(delta) }

// Inc adds one.
func (g Gauge) Inc() { g.s.value.Add(1) }

// Dec subtracts one.
func (g Gauge) Dec() { g.s.value.Sub(1) }

// Value returns the current gauge value.
func (g Gauge) Value() float64 { return g.s.value.Load() }

// Series returns the underlying series.
func (g Gauge) Series() *Series { return g.s }

// Histogram is a handle on a histogram series.
type Histogram struct{ s *Series }

// Observe records one observation. Every bucket whose upper bound is >= v is
// incremented, so bucket counts are cumulative. NaN only reaches the implicit
// +Inf bucket.
func (h Histogram) Observe(v float64) {
	st := h.s.hist
	bounds := h.s.desc.Buckets
	first := len(bounds)
	if !math.IsNaN(v) {
		first, _ = slices.BinarySearch(bounds, v)
	}

	st.mu.Lock()
	for i := first; i < len(st.counts); i++ {
		st.counts[i]++
	}
	st.sum += v
	st.count++
	st.mu.Unlock()
}

// Snapshot returns a consistent copy of the histogram state.
func (h Histogram) Snapshot() HistogramSnapshot {
	return *h.s.snapshot().Histogram
}

// Series returns the underlying series.
func (h Histogram) Series() *Series { return h.s }
