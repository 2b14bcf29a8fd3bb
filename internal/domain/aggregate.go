package domain

import (
	"sort"
	"time"
)

// AggregateHourly floors every reading to its UTC hour and averages each
// bucket. Buckets are returned in ascending time order; hours without a
// reading are absent.
func AggregateHourly(station string, readings []Reading) []HourlyReading {
	return aggregate(station, readings, time.Hour)
}

// AggregateDaily is AggregateHourly at day resolution.
func AggregateDaily(station string, readings []Reading) []HourlyReading {
	return aggregate(station, readings, 24*time.Hour)
}

func aggregate(station string, readings []Reading, step time.Duration) []HourlyReading {
	if len(readings) == 0 {
		return nil
	}

	type bucket struct {
		sum float64
		n   int
	}
	buckets := make(map[time.Time]*bucket)
	keys := make([]time.Time, 0)
	for _, r := range readings {
		k := r.Time.UTC().Truncate(step)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
			keys = append(keys, k)
		}
		b.sum += r.Celsius
		b.n++
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make([]HourlyReading, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		out = append(out, HourlyReading{
			Time:        k,
			Temperature: b.sum / float64(b.n),
			Station:     station,
		})
	}
	return out
}

// ObservedRange returns the earliest and latest timestamp among readings.
// ok is false when readings is empty.
func ObservedRange(readings []Reading) (start, end time.Time, ok bool) {
	if len(readings) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start, end = readings[0].Time, readings[0].Time
	for _, r := range readings[1:] {
		if r.Time.Before(start) {
			start = r.Time
		}
		if r.Time.After(end) {
			end = r.Time
		}
	}
	return start.UTC(), end.UTC(), true
}
