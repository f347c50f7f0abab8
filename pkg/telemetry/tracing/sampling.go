package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	// SamplerAlways samples all traces
	SamplerAlways = "always"

	// SamplerNever samples no traces
	SamplerNever = "never"

	// SamplerRatio samples a fraction of traces by trace ID
	SamplerRatio = "ratio"
)

// createSampler builds the root sampler for a strategy. It is wrapped in
// ParentBased so requests arriving with a traceparent keep the caller's
// decision.
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	var root sdktrace.Sampler

	switch strategy {
	case SamplerAlways:
		root = sdktrace.AlwaysSample()
	case SamplerNever:
		root = sdktrace.NeverSample()
	case SamplerRatio, "":
		if ratio < 0.0 || ratio > 1.0 {
			return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
		}
		root = sdktrace.TraceIDRatioBased(ratio)
	default:
		return nil, fmt.Errorf("unknown sampler strategy: %s (valid: always, never, ratio)", strategy)
	}

	return sdktrace.ParentBased(root), nil
}
