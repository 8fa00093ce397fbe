package recognition

import "math"

// Unknown is the verdict name for a face that matched no enrolled identity.
const Unknown = "unknown"

// DefaultTolerance is the usual cut-off for 128-d dlib-style descriptors.
// Lower is stricter.
const DefaultTolerance = 0.6

// Verdict is the per-face identification result.
//
// Confidence is 1 - distance to the nearest record, clamped to [0, 1]; it is
// reported for unknown verdicts too.  Distance is -1 when nothing could be
// compared (empty store or no record of the probe's dimension).
type Verdict struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Distance   float64 `json:"distance"`
}

// Known reports whether the verdict names an enrolled identity.
func (v Verdict) Known() bool { return v.Name != Unknown }

// Matcher compares probes against an EncodingStore with a nearest-neighbour
// rule.
type Matcher struct {
	store     *EncodingStore
	tolerance float64
}

// NewMatcher uses DefaultTolerance when tolerance <= 0.
func NewMatcher(store *EncodingStore, tolerance float64) *Matcher {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Matcher{store: store, tolerance: tolerance}
}

func (m *Matcher) Tolerance() float64 { return m.tolerance }

// Identify returns the name of the nearest record if it lies strictly
// within tolerance, otherwise Unknown.
func (m *Matcher) Identify(probe Embedding) Verdict {
	return nearest(m.store.Snapshot(), probe, m.tolerance)
}

// IdentifyAll identifies each probe independently against one snapshot of
// the store.  Output order matches input order.
func (m *Matcher) IdentifyAll(probes []Embedding) []Verdict {
	records := m.store.Snapshot()
	out := make([]Verdict, len(probes))
	for i, p := range probes {
		out[i] = nearest(records, p, m.tolerance)
	}
	return out
}

func nearest(records []Identity, probe Embedding, tolerance float64) Verdict {
	best := -1
	bestDist := math.Inf(1)
	for i, r := range records {
		d, ok := Distance(r.Embedding, probe)
		if !ok {
			continue
		}
		// Strict less-than: on ties the first-seen record wins.
		if d < bestDist {
			best, bestDist = i, d
		}
	}

	if best < 0 {
		return Verdict{Name: Unknown, Distance: -1}
	}

	v := Verdict{
		Name:       Unknown,
		Confidence: math.Max(0, math.Min(1, 1-bestDist)),
		Distance:   bestDist,
	}
	if bestDist < tolerance {
		v.Name = records[best].Name
	}
	return v
}
