package metrics

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/prometheus/common/model"
)

// Kind is the semantic type of a metric family.
type Kind int

const (
	// KindCounter is a monotonically increasing value.
	KindCounter Kind = iota
	// KindGauge is a value that can go up and down.
	KindGauge
	// KindHistogram tracks a distribution in cumulative buckets.
	KindHistogram
)

// String returns the exposition type name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DefBuckets are the default histogram bounds, in seconds. They cover
// sub-millisecond handlers up to multi-second requests.
var DefBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Descriptor describes a registered metric family. It is immutable once
// returned by Register.
type Descriptor struct {
	// Name is the process-unique metric name.
	Name string

	// Help is the human readable description emitted on the HELP line.
	Help string

	// Kind is the metric type.
	Kind Kind

	// LabelNames are the label names in registration order. Label values
	// passed to Registry.Series must follow this order.
	LabelNames []string

	// Buckets holds the ascending upper bounds of a histogram. The +Inf
	// bucket is implicit. Nil for counters and gauges.
	Buckets []float64

	// sortedIdx maps sorted label position to registration position.
	sortedIdx []int
}

// Option configures a Descriptor at registration time.
type Option func(*Descriptor)

// WithBuckets sets the upper bounds of a histogram. Bounds must be strictly
// ascending; a trailing +Inf is dropped since it is always emitted.
func WithBuckets(bounds ...float64) Option {
	return func(d *Descriptor) {
		d.Buckets = slices.Clone(bounds)
	}
}

func newDescriptor(name, help string, kind Kind, labelNames []string, opts ...Option) (*Descriptor, error) {
	d := &Descriptor{
		Name:       name,
		Help:       help,
		Kind:       kind,
		LabelNames: slices.Clone(labelNames),
	}
	for _, opt := range opts {
		opt(d)
	}

	if !model.IsValidLegacyMetricName(name) {
		return nil, &InvalidDescriptorError{Name: name, Reason: "not a valid metric name"}
	}

	switch kind {
	case KindCounter, KindGauge:
		d.Buckets = nil
	case KindHistogram:
		if len(d.Buckets) == 0 {
			d.Buckets = slices.Clone(DefBuckets)
		}
		if n := len(d.Buckets); math.IsInf(d.Buckets[n-1], +1) {
			d.Buckets = d.Buckets[:n-1]
		}
		for i, b := range d.Buckets {
			if math.IsNaN(b) {
				return nil, &InvalidDescriptorError{Name: name, Reason: "bucket bound is NaN"}
			}
			if i > 0 && b <= d.Buckets[i-1] {
				return nil, &InvalidDescriptorError{
					Name:   name,
					Reason: fmt.Sprintf("bucket bounds must be strictly ascending, %v follows %v", b, d.Buckets[i-1]),
				}
			}
		}
	default:
		return nil, &InvalidDescriptorError{Name: name, Reason: "unknown kind " + kind.String()}
	}

	seen := make(map[string]struct{}, len(d.LabelNames))
	for _, ln := range d.LabelNames {
		if !model.LabelName(ln).IsValidLegacy() || strings.HasPrefix(ln, "__") {
			return nil, &InvalidDescriptorError{Name: name, Reason: fmt.Sprintf("invalid label name %q", ln)}
		}
		if kind == KindHistogram && ln == model.BucketLabel {
			return nil, &InvalidDescriptorError{Name: name, Reason: "label \"le\" is reserved for histograms"}
		}
		if _, dup := seen[ln]; dup {
			return nil, &InvalidDescriptorError{Name: name, Reason: fmt.Sprintf("duplicate label name %q", ln)}
		}
		seen[ln] = struct{}{}
	}

	d.sortedIdx = make([]int, len(d.LabelNames))
	for i := range d.sortedIdx {
		d.sortedIdx[i] = i
	}
	sort.Slice(d.sortedIdx, func(a, b int) bool {
		return d.LabelNames[d.sortedIdx[a]] < d.LabelNames[d.sortedIdx[b]]
	})

	return d, nil
}

// sameShape reports whether two descriptors describe the same family. Help
// text is not part of the identity.
func (d *Descriptor) sameShape(o *Descriptor) bool {
	return d.Name == o.Name &&
		d.Kind == o.Kind &&
		slices.Equal(d.LabelNames, o.LabelNames) &&
		slices.Equal(d.Buckets, o.Buckets)
}

func (d *Descriptor) signature() string {
	s := fmt.Sprintf("%s[%s]", d.Kind, strings.Join(d.LabelNames, ","))
	if d.Kind == KindHistogram {
		s += fmt.Sprintf("%v", d.Buckets)
	}
	return s
}

// labelSet builds the sorted LabelSet for values given in registration order.
func (d *Descriptor) labelSet(values []string) LabelSet {
	if len(values) == 0 {
		return nil
	}
	ls := make(LabelSet, len(values))
	for i, idx := range d.sortedIdx {
		ls[i] = LabelPair{Name: d.LabelNames[idx], Value: values[idx]}
	}
	return ls
}
