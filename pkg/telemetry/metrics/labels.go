package metrics

import (
	"strconv"
	"strings"
)

// keySeparator joins label values into a series key. 0xff never appears in
// valid UTF-8, so distinct value tuples cannot collide.
const keySeparator = "\xff"

// LabelPair is one label name/value pair.
type LabelPair struct {
	Name  string
	Value string
}

// LabelSet identifies one series within a family. Pairs are sorted by name,
// so two sets built from the same pairs in any order compare equal.
type LabelSet []LabelPair

// Get returns the value of the named label, or "" if absent.
func (ls LabelSet) Get(name string) string {
	for _, p := range ls {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// Map returns the label set as a name/value map.
func (ls LabelSet) Map() map[string]string {
	m := make(map[string]string, len(ls))
	for _, p := range ls {
		m[p.Name] = p.Value
	}
	return m
}

// Equal reports whether both sets hold the same pairs.
func (ls LabelSet) Equal(o LabelSet) bool {
	if len(ls) != len(o) {
		return false
	}
	for i := range ls {
		if ls[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders the set the way it appears in the exposition format,
// e.g. {endpoint="books",method="GET"}. An empty set renders as "".
func (ls LabelSet) String() string {
	if len(ls) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('{')
	for i, p := range ls {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		sb.WriteString(strconv.Quote(p.Value))
	}
	sb.WriteByte('}')
	return sb.String()
}

// sortKey orders series of one family for stable rendering.
func (ls LabelSet) sortKey() string {
	parts := make([]string, len(ls))
	for i, p := range ls {
		parts[i] = p.Value
	}
	return strings.Join(parts, keySeparator)
}

func seriesKey(values []string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return strings.Join(values, keySeparator)
	}
}
