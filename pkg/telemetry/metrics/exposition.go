package metrics

import (
	"bytes"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

var _ prometheus.Gatherer = (*Registry)(nil)

// Gather implements prometheus.Gatherer. Families are returned in
// registration order; families that have no series yet are skipped since
// the exposition format has nothing to say about them.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	snaps := r.Snapshot()
	out := make([]*dto.MetricFamily, 0, len(snaps))
	for _, fs := range snaps {
		if len(fs.Series) == 0 {
			continue
		}
		out = append(out, toFamily(fs))
	}
	return out, nil
}

// Render writes the registry in the Prometheus text exposition format
// (version 0.0.4). Two renders without intervening updates produce
// byte-identical output.
func (r *Registry) Render(w io.Writer) error {
	mfs, err := r.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Text renders the registry into a string. It is a convenience for tests
// and debugging.
func (r *Registry) Text() (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toFamily(fs FamilySnapshot) *dto.MetricFamily {
	d := fs.Descriptor
	mf := &dto.MetricFamily{
		Name:   proto.String(d.Name),
		Help:   proto.String(d.Help),
		Type:   metricType(d.Kind),
		Metric: make([]*dto.Metric, 0, len(fs.Series)),
	}

	for _, ss := range fs.Series {
		m := &dto.Metric{Label: toLabelPairs(ss.Labels)}
		switch d.Kind {
		case KindCounter:
			m.Counter = &dto.Counter{Value: proto.Float64(ss.Value)}
		case KindGauge:
			m.Gauge = &dto.Gauge{Value: proto.Float64(ss.Value)}
		case KindHistogram:
			m.Histogram = toHistogram(ss.Histogram)
		}
		mf.Metric = append(mf.Metric, m)
	}
	return mf
}

func metricType(k Kind) *dto.MetricType {
	switch k {
	case KindCounter:
		return dto.MetricType_COUNTER.Enum()
	case KindGauge:
		return dto.MetricType_GAUGE.Enum()
	case KindHistogram:
		return dto.MetricType_HISTOGRAM.Enum()
	default:
		return dto.MetricType_UNTYPED.Enum()
	}
}

// toLabelPairs relies on LabelSet being sorted by name already.
func toLabelPairs(ls LabelSet) []*dto.LabelPair {
	if len(ls) == 0 {
		return nil
	}
	pairs := make([]*dto.LabelPair, len(ls))
	for i, p := range ls {
		pairs[i] = &dto.LabelPair{
			Name:  proto.String(p.Name),
			Value: proto.String(p.Value),
		}
	}
	return pairs
}

// toHistogram copies cumulative buckets. The +Inf bucket is added by the
// text encoder and always equals the sample count.
func toHistogram(h *HistogramSnapshot) *dto.Histogram {
	buckets := make([]*dto.Bucket, len(h.Bounds))
	for i, b := range h.Bounds {
		buckets[i] = &dto.Bucket{
			UpperBound:      proto.Float64(b),
			CumulativeCount: proto.Uint64(h.Counts[i]),
		}
	}
	return &dto.Histogram{
		SampleCount: proto.Uint64(h.Count),
		SampleSum:   proto.Float64(h.Sum),
		Bucket:      buckets,
	}
}
