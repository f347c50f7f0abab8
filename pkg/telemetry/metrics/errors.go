package metrics

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMetric is returned when a series is requested for a metric name
// that was never registered.
var ErrUnknownMetric = errors.New("metric not registered")

// DuplicateMetricError is returned by Register when a metric name is already
// registered with a different kind, label set or bucket layout.
//
// It is a startup error: the process should refuse to start rather than
// silently shadow the existing metric.
type DuplicateMetricError struct {
	Name      string
	Existing  *Descriptor
	Requested *Descriptor
}

func (e *DuplicateMetricError) Error() string {
	return fmt.Sprintf("metric %q already registered as %s, cannot re-register as %s",
		e.Name, e.Existing.signature(), e.Requested.signature())
}

// LabelMismatchError is returned when the supplied label values do not match
// the label names the metric was registered with.
type LabelMismatchError struct {
	Metric   string
	Expected []string

	// Got is the number of positional values supplied.
	Got int

	// Names holds the label names supplied when the series was addressed by
	// a name/value map. It is nil for positional lookups.
	Names []string
}

func (e *LabelMismatchError) Error() string {
	if e.Names != nil {
		return fmt.Sprintf("metric %q expects labels [%s], got [%s]",
			e.Metric, strings.Join(e.Expected, ","), strings.Join(e.Names, ","))
	}
	return fmt.Sprintf("metric %q expects %d label values [%s], got %d",
		e.Metric, len(e.Expected), strings.Join(e.Expected, ","), e.Got)
}

// InvalidDeltaError is returned when a counter is incremented by a negative
// (or NaN) delta. The series is left unchanged.
type InvalidDeltaError struct {
	Metric string
	Delta  float64
}

func (e *InvalidDeltaError) Error() string {
	return fmt.Sprintf("counter %q cannot be incremented by %v", e.Metric, e.Delta)
}

// KindMismatchError is returned by the typed accessors (Counter, Gauge,
// Histogram) when the metric was registered with another kind.
type KindMismatchError struct {
	Metric    string
	Kind      Kind
	Requested Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("metric %q is a %s, not a %s", e.Metric, e.Kind, e.Requested)
}

// InvalidDescriptorError is returned by Register for names, label names or
// bucket layouts that cannot be exposed.
type InvalidDescriptorError struct {
	Name   string
	Reason string
}

func (e *InvalidDescriptorError) Error() string {
	return fmt.Sprintf("invalid metric %q: %s", e.Name, e.Reason)
}
