package metrics

// FamilySnapshot is the point-in-time state of one metric family.
type FamilySnapshot struct {
	Descriptor *Descriptor
	Series     []SeriesSnapshot
}

// SeriesSnapshot is the point-in-time state of one series.
type SeriesSnapshot struct {
	Labels LabelSet

	// Value holds the counter or gauge value. For histograms it mirrors
	// Histogram.Count.
	Value float64

	// Histogram is set for histogram series only.
	Histogram *HistogramSnapshot
}

// HistogramSnapshot is a consistent copy of a histogram series.
type HistogramSnapshot struct {
	// Bounds are the ascending bucket upper bounds, without +Inf.
	Bounds []float64

	// Counts are cumulative: Counts[i] is the number of observations <= Bounds[i].
	Counts []uint64

	Sum   float64
	Count uint64
}

// Family returns the snapshot of the named family, if present.
func Family(snaps []FamilySnapshot, name string) (FamilySnapshot, bool) {
	for _, fs := range snaps {
		if fs.Descriptor.Name == name {
			return fs, true
		}
	}
	return FamilySnapshot{}, false
}
