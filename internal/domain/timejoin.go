package domain

import (
	"sort"
	"time"
)

// Pair is a station observation matched with a product value.
type Pair struct {
	Station     string
	Time        time.Time // truth timestamp
	ProductTime time.Time
	Truth       float64
	Product     float64
}

// NearestJoin matches every truth sample with the product sample of the same
// station whose timestamp is closest, within tolerance. A tolerance of zero or
// less means unlimited. When allowExact is false a product sample at exactly
// the truth timestamp is not a candidate. Equidistant candidates resolve to
// the earlier product sample. Unmatched truth samples are dropped; the output
// keeps truth order.
func NearestJoin(truth, product []Sample, tolerance time.Duration, allowExact bool) []Pair {
	byStation := make(map[string][]Sample)
	for _, p := range product {
		byStation[p.Station] = append(byStation[p.Station], p)
	}
	for _, s := range byStation {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })
	}

	pairs := make([]Pair, 0, len(truth))
	for _, t := range truth {
		cands := byStation[t.Station]
		if len(cands) == 0 {
			continue
		}
		best, ok := nearest(cands, t.Time, tolerance, allowExact)
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{
			Station:     t.Station,
			Time:        t.Time,
			ProductTime: best.Time,
			Truth:       t.Value,
			Product:     best.Value,
		})
	}
	return pairs
}

// nearest finds the closest candidate to at in a time-sorted slice.
func nearest(sorted []Sample, at time.Time, tolerance time.Duration, allowExact bool) (Sample, bool) {
	// first index with Time >= at
	i := sort.Search(len(sorted), func(k int) bool { return !sorted[k].Time.Before(at) })

	// backward candidate: last sample strictly before at (or equal when exact matches are allowed)
	back := i - 1
	fwd := i
	if allowExact && i < len(sorted) && sorted[i].Time.Equal(at) {
		return sorted[i], within(0, tolerance)
	}
	for fwd < len(sorted) && sorted[fwd].Time.Equal(at) {
		fwd++
	}

	var (
		best    Sample
		bestGap time.Duration
		found   bool
	)
	if back >= 0 {
		best, bestGap, found = sorted[back], at.Sub(sorted[back].Time), true
	}
	if fwd < len(sorted) {
		gap := sorted[fwd].Time.Sub(at)
		if !found || gap < bestGap {
			best, bestGap, found = sorted[fwd], gap, true
		}
	}
	if !found || !within(bestGap, tolerance) {
		return Sample{}, false
	}
	return best, true
}

func within(gap, tolerance time.Duration) bool {
	return tolerance <= 0 || gap <= tolerance
}
