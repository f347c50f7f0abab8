package metrics

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Registry is a collection of named metric families. It is created once at
// process start with NewRegistry and handed to every component that records
// or renders metrics; tests create as many isolated registries as they need.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	families map[string]*family
	order    []*family
}

// family holds the series of one registered metric.
type family struct {
	desc *Descriptor

	mu     sync.RWMutex
	series map[string]*Series
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		families: make(map[string]*family),
	}
}

// Register adds a metric family to the registry.
//
// Registering a name again with an identical kind, label names and buckets is
// a no-op that returns the existing descriptor. A conflicting registration
// fails with *DuplicateMetricError.
//
// Metrics without labels get their single series created immediately so
// they are exposed with a zero value before the first observation.
//
// Example:
//
//	desc, err := reg.Register("books_api_requests_total",
//		"Total number of requests to the Books API",
//		metrics.KindCounter,
//		[]string{"method", "endpoint", "status"},
//	)
func (r *Registry) Register(name, help string, kind Kind, labelNames []string, opts ...Option) (*Descriptor, error) {
	desc, err := newDescriptor(name, help, kind, labelNames, opts...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.families[name]; ok {
		if existing.desc.sameShape(desc) {
			return existing.desc, nil
		}
		return nil, &DuplicateMetricError{Name: name, Existing: existing.desc, Requested: desc}
	}

	f := &family{desc: desc, series: make(map[string]*Series)}
	if len(desc.LabelNames) == 0 {
		f.series[""] = newSeries(desc, nil)
	}
	r.families[name] = f
	r.order = append(r.order, f)

	return desc, nil
}

// MustRegister is like Register but panics on error. It is meant for
// startup code where a registration conflict is a wiring bug.
func (r *Registry) MustRegister(name, help string, kind Kind, labelNames []string, opts ...Option) *Descriptor {
	desc, err := r.Register(name, help, kind, labelNames, opts...)
	if err != nil {
		panic(err)
	}
	return desc
}

// Descriptor returns the descriptor registered under name.
func (r *Registry) Descriptor(name string) (*Descriptor, bool) {
	f := r.family(name)
	if f == nil {
		return nil, false
	}
	return f.desc, true
}

// Series returns the series of the named metric identified by labelValues,
// given in registration order. The series is created zero-valued on first
// use; concurrent first calls for the same values all get the same series.
func (r *Registry) Series(name string, labelValues ...string) (*Series, error) {
	f := r.family(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	if len(labelValues) != len(f.desc.LabelNames) {
		return nil, &LabelMismatchError{
			Metric:   name,
			Expected: f.desc.LabelNames,
			Got:      len(labelValues),
		}
	}
	return f.getOrCreate(labelValues), nil
}

// SeriesWith is like Series but takes the labels as a name/value map, so
// construction order does not matter. The map must hold exactly the
// registered label names.
func (r *Registry) SeriesWith(name string, labels map[string]string) (*Series, error) {
	f := r.family(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}

	values := make([]string, len(f.desc.LabelNames))
	ok := len(labels) == len(values)
	for i, ln := range f.desc.LabelNames {
		v, found := labels[ln]
		if !found {
			ok = false
			break
		}
		values[i] = v
	}
	if !ok {
		names := make([]string, 0, len(labels))
		for ln := range labels {
			names = append(names, ln)
		}
		sort.Strings(names)
		return nil, &LabelMismatchError{
			Metric:   name,
			Expected: f.desc.LabelNames,
			Got:      len(labels),
			Names:    names,
		}
	}
	return f.getOrCreate(values), nil
}

// Counter returns a counter handle for the given label values.
func (r *Registry) Counter(name string, labelValues ...string) (Counter, error) {
	s, err := r.typedSeries(name, KindCounter, labelValues)
	if err != nil {
		return Counter{}, err
	}
	return Counter{s: s}, nil
}

// Gauge returns a gauge handle for the given label values.
func (r *Registry) Gauge(name string, labelValues ...string) (Gauge, error) {
	s, err := r.typedSeries(name, KindGauge, labelValues)
	if err != nil {
		return Gauge{}, err
	}
	return Gauge{s: s}, nil
}

// Histogram returns a histogram handle for the given label values.
func (r *Registry) Histogram(name string, labelValues ...string) (Histogram, error) {
	s, err := r.typedSeries(name, KindHistogram, labelValues)
	if err != nil {
		return Histogram{}, err
	}
	return Histogram{s: s}, nil
}

func (r *Registry) typedSeries(name string, kind Kind, labelValues []string) (*Series, error) {
	s, err := r.Series(name, labelValues...)
	if err != nil {
		return nil, err
	}
	if s.desc.Kind != kind {
		return nil, &KindMismatchError{Metric: name, Kind: s.desc.Kind, Requested: kind}
	}
	return s, nil
}

// Snapshot returns a read-only view of every family in registration order,
// with series sorted by label values. Each series is read atomically; the
// snapshot as a whole is not a single transaction.
func (r *Registry) Snapshot() []FamilySnapshot {
	r.mu.RLock()
	order := slices.Clone(r.order)
	r.mu.RUnlock()

	out := make([]FamilySnapshot, 0, len(order))
	for _, f := range order {
		out = append(out, f.snapshot())
	}
	return out
}

func (r *Registry) family(name string) *family {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.families[name]
}

// getOrCreate returns the series for values, creating it exactly once.
func (f *family) getOrCreate(values []string) *Series {
	key := seriesKey(values)

	f.mu.RLock()
	s, ok := f.series[key]
	f.mu.RUnlock()
	if ok {
		return s
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double-check after acquiring write lock
	if s, ok := f.series[key]; ok {
		return s
	}

	s = newSeries(f.desc, f.desc.labelSet(slices.Clone(values)))
	f.series[key] = s
	return s
}

func (f *family) snapshot() FamilySnapshot {
	f.mu.RLock()
	series := make([]*Series, 0, len(f.series))
	for _, s := range f.series {
		series = append(series, s)
	}
	f.mu.RUnlock()

	sort.Slice(series, func(i, j int) bool {
		return series[i].labels.sortKey() < series[j].labels.sortKey()
	})

	snap := FamilySnapshot{
		Descriptor: f.desc,
		Series:     make([]SeriesSnapshot, len(series)),
	}
	for i, s := range series {
		snap.Series[i] = s.snapshot()
	}
	return snap
}
