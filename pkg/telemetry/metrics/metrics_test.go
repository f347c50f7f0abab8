package metrics

import (
	"errors"
	"math"
	"sync"
	"testing"
)

// newTestRegistry returns a registry with one family of each kind.
func newTestRegistry(t testing.TB) *Registry {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister("test_requests_total", "Requests", KindCounter, []string{"method", "status"})
	reg.MustRegister("test_in_progress", "In flight", KindGauge, nil)
	reg.MustRegister("test_duration_seconds", "Duration", KindHistogram, nil, WithBuckets(0.1, 0.5, 1))
	return reg
}

// TestRegistry_Register tests idempotent and conflicting registrations
func TestRegistry_Register(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		labels  []string
		opts    []Option
		wantErr bool
	}{
		{name: "identical", kind: KindCounter, labels: []string{"method", "status"}},
		{name: "different kind", kind: KindGauge, labels: []string{"method", "status"}, wantErr: true},
		{name: "different labels", kind: KindCounter, labels: []string{"method"}, wantErr: true},
		{name: "different label order", kind: KindCounter, labels: []string{"status", "method"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newTestRegistry(t)
			first, _ := reg.Descriptor("test_requests_total")

			desc, err := reg.Register("test_requests_total", "other help", tt.kind, tt.labels, tt.opts...)
			if tt.wantErr {
				var dup *DuplicateMetricError
				if !errors.As(err, &dup) {
					t.Fatalf("Expected DuplicateMetricError, got %v", err)
				}
				if dup.Name != "test_requests_total" {
					t.Errorf("Expected error for test_requests_total, got %s", dup.Name)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if desc != first {
				t.Error("Identical registration should return the existing descriptor")
			}
		})
	}
}

// TestRegistry_RegisterHistogramBuckets tests that bucket layout is part of the identity
func TestRegistry_RegisterHistogramBuckets(t *testing.T) {
	reg := newTestRegistry(t)

	if _, err := reg.Register("test_duration_seconds", "Duration", KindHistogram, nil, WithBuckets(0.1, 0.5, 1, math.Inf(1))); err != nil {
		t.Errorf("Trailing +Inf should be ignored, got %v", err)
	}

	_, err := reg.Register("test_duration_seconds", "Duration", KindHistogram, nil)
	var dup *DuplicateMetricError
	if !errors.As(err, &dup) {
		t.Errorf("Expected DuplicateMetricError for default buckets, got %v", err)
	}
}

// TestRegistry_RegisterInvalid tests descriptor validation
func TestRegistry_RegisterInvalid(t *testing.T) {
	tests := []struct {
		name   string
		metric string
		kind   Kind
		labels []string
		opts   []Option
	}{
		{name: "empty name", metric: "", kind: KindCounter},
		{name: "bad metric name", metric: "books-api", kind: KindCounter},
		{name: "bad label name", metric: "ok_total", kind: KindCounter, labels: []string{"bad-label"}},
		{name: "reserved label prefix", metric: "ok_total", kind: KindCounter, labels: []string{"__name"}},
		{name: "duplicate label", metric: "ok_total", kind: KindCounter, labels: []string{"a", "a"}},
		{name: "le on histogram", metric: "ok_seconds", kind: KindHistogram, labels: []string{"le"}},
		{name: "descending buckets", metric: "ok_seconds", kind: KindHistogram, opts: []Option{WithBuckets(1, 0.5)}},
		{name: "NaN bucket", metric: "ok_seconds", kind: KindHistogram, opts: []Option{WithBuckets(math.NaN())}},
		{name: "unknown kind", metric: "ok", kind: Kind(42)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			_, err := reg.Register(tt.metric, "help", tt.kind, tt.labels, tt.opts...)
			var invalid *InvalidDescriptorError
			if !errors.As(err, &invalid) {
				t.Errorf("Expected InvalidDescriptorError, got %v", err)
			}
		})
	}
}

// TestRegistry_MustRegisterPanics tests that conflicts panic at startup
func TestRegistry_MustRegisterPanics(t *testing.T) {
	reg := newTestRegistry(t)

	defer func() {
		if recover() == nil {
			t.Error("Expected MustRegister to panic")
		}
	}()
	reg.MustRegister("test_in_progress", "In flight", KindCounter, nil)
}

// TestRegistry_SeriesErrors tests arity and lookup failures
func TestRegistry_SeriesErrors(t *testing.T) {
	reg := newTestRegistry(t)

	t.Run("unknown metric", func(t *testing.T) {
		_, err := reg.Series("missing_total")
		if !errors.Is(err, ErrUnknownMetric) {
			t.Errorf("Expected ErrUnknownMetric, got %v", err)
		}
	})

	t.Run("too few values", func(t *testing.T) {
		_, err := reg.Series("test_requests_total", "GET")
		var mismatch *LabelMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("Expected LabelMismatchError, got %v", err)
		}
		if mismatch.Got != 1 || len(mismatch.Expected) != 2 {
			t.Errorf("Unexpected mismatch details: %+v", mismatch)
		}
	})

	t.Run("too many values", func(t *testing.T) {
		_, err := reg.Series("test_requests_total", "GET", "200", "extra")
		var mismatch *LabelMismatchError
		if !errors.As(err, &mismatch) {
			t.Errorf("Expected LabelMismatchError, got %v", err)
		}
	})

	t.Run("wrong label names", func(t *testing.T) {
		_, err := reg.SeriesWith("test_requests_total", map[string]string{"method": "GET", "code": "200"})
		var mismatch *LabelMismatchError
		if !errors.As(err, &mismatch) {
			t.Errorf("Expected LabelMismatchError, got %v", err)
		}
	})

	t.Run("wrong kind", func(t *testing.T) {
		_, err := reg.Gauge("test_requests_total", "GET", "200")
		var kindErr *KindMismatchError
		if !errors.As(err, &kindErr) {
			t.Fatalf("Expected KindMismatchError, got %v", err)
		}
		if kindErr.Kind != KindCounter || kindErr.Requested != KindGauge {
			t.Errorf("Unexpected kinds: %+v", kindErr)
		}
	})
}

// TestRegistry_SeriesWithOrderIndependent tests that label order does not create new series
func TestRegistry_SeriesWithOrderIndependent(t *testing.T) {
	reg := newTestRegistry(t)

	a, err := reg.Series("test_requests_total", "GET", "200")
	if err != nil {
		t.Fatal(err)
	}
	b, err := reg.SeriesWith("test_requests_total", map[string]string{"status": "200", "method": "GET"})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("Expected the same series for the same label pairs")
	}

	want := LabelSet{{Name: "method", Value: "GET"}, {Name: "status", Value: "200"}}
	if !a.Labels().Equal(want) {
		t.Errorf("Labels = %v, want %v", a.Labels(), want)
	}
	if got := a.Labels().String(); got != `{method="GET",status="200"}` {
		t.Errorf("Labels().String() = %s", got)
	}
}

// TestRegistry_ConcurrentSeriesCreation tests exactly-once series creation
func TestRegistry_ConcurrentSeriesCreation(t *testing.T) {
	reg := newTestRegistry(t)

	const workers = 64
	got := make([]*Series, workers)

	var start, wg sync.WaitGroup
	start.Add(1)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			s, err := reg.Series("test_requests_total", "GET", "200")
			if err != nil {
				t.Error(err)
				return
			}
			got[i] = s
		}(i)
	}
	start.Done()
	wg.Wait()

	for i := 1; i < workers; i++ {
		if got[i] != got[0] {
			t.Fatalf("Worker %d observed a different series", i)
		}
	}

	c, _ := reg.Counter("test_requests_total", "GET", "200")
	c.Inc()

	snap, _ := Family(reg.Snapshot(), "test_requests_total")
	if len(snap.Series) != 1 {
		t.Fatalf("Expected 1 series, got %d", len(snap.Series))
	}
	if snap.Series[0].Value != 1 {
		t.Errorf("Expected value 1, got %v", snap.Series[0].Value)
	}
}

// TestCounter_Add tests that counter values are the sum of deltas
func TestCounter_Add(t *testing.T) {
	reg := newTestRegistry(t)
	c, err := reg.Counter("test_requests_total", "GET", "200")
	if err != nil {
		t.Fatal(err)
	}

	deltas := []float64{1, 0, 2.5, 100, 0.25}
	var want float64
	for _, d := range deltas {
		if err := c.Add(d); err != nil {
			t.Fatalf("Add(%v) failed: %v", d, err)
		}
		want += d
	}
	c.Inc()
	want++

	if c.Value() != want {
		t.Errorf("Value() = %v, want %v", c.Value(), want)
	}
}

// TestCounter_AddInvalid tests that negative and NaN deltas are rejected
func TestCounter_AddInvalid(t *testing.T) {
	for _, delta := range []float64{-1, -0.001, math.NaN(), math.Inf(-1)} {
		reg := newTestRegistry(t)
		c, _ := reg.Counter("test_requests_total", "GET", "200")
		_ = c.Add(3)

		err := c.Add(delta)
		var invalid *InvalidDeltaError
		if !errors.As(err, &invalid) {
			t.Errorf("Add(%v): expected InvalidDeltaError, got %v", delta, err)
		}
		if c.Value() != 3 {
			t.Errorf("Add(%v): value changed to %v", delta, c.Value())
		}
	}
}

// TestCounter_ConcurrentInc tests that concurrent increments are not lost
func TestCounter_ConcurrentInc(t *testing.T) {
	reg := newTestRegistry(t)

	const workers, perWorker = 16, 1000
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := reg.Counter("test_requests_total", "POST", "201")
			if err != nil {
				t.Error(err)
				return
			}
			for j := 0; j < perWorker; j++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()

	c, _ := reg.Counter("test_requests_total", "POST", "201")
	if c.Value() != workers*perWorker {
		t.Errorf("Value() = %v, want %d", c.Value(), workers*perWorker)
	}
}

// TestGauge tests overwrite and unbounded up/down movement
func TestGauge(t *testing.T) {
	reg := newTestRegistry(t)
	g, err := reg.Gauge("test_in_progress")
	if err != nil {
		t.Fatal(err)
	}

	g.Set(5)
	g.Set(4)
	if g.Value() != 4 {
		t.Errorf("Set should overwrite, got %v", g.Value())
	}

	g.Inc()
	g.Add(2)
	g.Sub(0.5)
	g.Dec()
	if g.Value() != 5.5 {
		t.Errorf("Value() = %v, want 5.5", g.Value())
	}

	g.Set(0)
	g.Dec()
	if g.Value() != -1 {
		t.Errorf("Gauge should go negative, got %v", g.Value())
	}
}

// TestHistogram_Observe tests cumulative buckets, sum and count
func TestHistogram_Observe(t *testing.T) {
	reg := newTestRegistry(t)
	h, err := reg.Histogram("test_duration_seconds")
	if err != nil {
		t.Fatal(err)
	}

	observations := []float64{0.05, 0.1, 0.3, 0.7, 2, 0.5}
	var sum float64
	for _, v := range observations {
		h.Observe(v)
		sum += v
	}

	snap := h.Snapshot()
	if snap.Count != uint64(len(observations)) {
		t.Errorf("Count = %d, want %d", snap.Count, len(observations))
	}
	if math.Abs(snap.Sum-sum) > 1e-9 {
		t.Errorf("Sum = %v, want %v", snap.Sum, sum)
	}

	// Bucket bounds are inclusive: 0.1 lands in le=0.1, 0.5 in le=0.5.
	wantCounts := []uint64{2, 4, 5}
	for i, b := range snap.Bounds {
		var n uint64
		for _, v := range observations {
			if v <= b {
				n++
			}
		}
		if n != wantCounts[i] {
			t.Fatalf("test expectation for le=%v is wrong: %d vs %d", b, n, wantCounts[i])
		}
		if snap.Counts[i] != wantCounts[i] {
			t.Errorf("bucket le=%v = %d, want %d", b, snap.Counts[i], wantCounts[i])
		}
		if i > 0 && snap.Counts[i] < snap.Counts[i-1] {
			t.Errorf("bucket counts must be non-decreasing at le=%v", b)
		}
	}
}

// TestHistogram_ObserveNaN tests that NaN is counted but lands in no
// finite bucket
func TestHistogram_ObserveNaN(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("nan_seconds", "NaN", KindHistogram, nil, WithBuckets(1, 2))
	h, err := reg.Histogram("nan_seconds")
	if err != nil {
		t.Fatal(err)
	}

	h.Observe(math.NaN())
	h.Observe(1.5)

	snap := h.Snapshot()
	if snap.Count != 2 {
		t.Errorf("Count = %d, want 2", snap.Count)
	}
	if !math.IsNaN(snap.Sum) {
		t.Errorf("Sum = %v, want NaN", snap.Sum)
	}
	want := []uint64{0, 1}
	for i := range want {
		if snap.Counts[i] != want[i] {
			t.Errorf("bucket le=%v = %d, want %d", snap.Bounds[i], snap.Counts[i], want[i])
		}
	}
}

// TestHistogram_DefaultBuckets tests the default latency bounds
func TestHistogram_DefaultBuckets(t *testing.T) {
	reg := NewRegistry()
	desc := reg.MustRegister("latency_seconds", "Latency", KindHistogram, nil)

	if len(desc.Buckets) != len(DefBuckets) {
		t.Fatalf("Expected %d default buckets, got %d", len(DefBuckets), len(desc.Buckets))
	}
	for i := range DefBuckets {
		if desc.Buckets[i] != DefBuckets[i] {
			t.Errorf("bucket %d = %v, want %v", i, desc.Buckets[i], DefBuckets[i])
		}
	}
}

// TestHistogram_ConcurrentObserve tests that concurrent observations stay consistent
func TestHistogram_ConcurrentObserve(t *testing.T) {
	reg := newTestRegistry(t)
	h, _ := reg.Histogram("test_duration_seconds")

	const workers, perWorker = 8, 500
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				h.Observe(0.25)
			}
		}()
	}

	// Concurrent snapshots must never see a torn histogram.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			s := h.Snapshot()
			if s.Counts[len(s.Counts)-1] != s.Count {
				t.Errorf("torn read: le=1 is %d, count is %d", s.Counts[len(s.Counts)-1], s.Count)
				return
			}
		}
	}()

	wg.Wait()
	<-done

	s := h.Snapshot()
	if s.Count != workers*perWorker {
		t.Errorf("Count = %d, want %d", s.Count, workers*perWorker)
	}
	if s.Counts[0] != 0 || s.Counts[1] != workers*perWorker {
		t.Errorf("Unexpected bucket counts %v", s.Counts)
	}
}

// TestRegistry_Snapshot tests ordering of families and series
func TestRegistry_Snapshot(t *testing.T) {
	reg := newTestRegistry(t)

	for _, lv := range [][]string{{"POST", "201"}, {"GET", "404"}, {"GET", "200"}} {
		c, _ := reg.Counter("test_requests_total", lv...)
		c.Inc()
	}

	snaps := reg.Snapshot()
	wantOrder := []string{"test_requests_total", "test_in_progress", "test_duration_seconds"}
	if len(snaps) != len(wantOrder) {
		t.Fatalf("Expected %d families, got %d", len(wantOrder), len(snaps))
	}
	for i, name := range wantOrder {
		if snaps[i].Descriptor.Name != name {
			t.Errorf("family %d = %s, want %s", i, snaps[i].Descriptor.Name, name)
		}
	}

	wantSeries := []string{
		`{method="GET",status="200"}`,
		`{method="GET",status="404"}`,
		`{method="POST",status="201"}`,
	}
	for i, want := range wantSeries {
		if got := snaps[0].Series[i].Labels.String(); got != want {
			t.Errorf("series %d = %s, want %s", i, got, want)
		}
	}

	// Unlabeled families expose their single series before any observation.
	if len(snaps[1].Series) != 1 || snaps[1].Series[0].Value != 0 {
		t.Errorf("Expected one zero-valued gauge series, got %+v", snaps[1].Series)
	}
	if h := snaps[2].Series[0].Histogram; h == nil || h.Count != 0 {
		t.Errorf("Expected an empty histogram series, got %+v", h)
	}
}
