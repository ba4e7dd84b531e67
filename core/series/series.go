// Package series buckets raw player counts into calendar months.
package series

import (
	"slices"
	"time"

	"github.com/huangsam/patchpanel/schema"
)

type bucket struct {
	sum   float64
	count int
	peak  float64
}

// Normalize returns one point per calendar month of raw, oldest first.
// The monthly average is the mean of the raw averages and the peak is their maximum.
func Normalize(appID int64, raw []schema.RawSeriesPoint) []schema.MonthlySeriesPoint {
	buckets := make(map[time.Time]*bucket)
	for _, p := range raw {
		month := schema.MonthStart(p.Date)
		b, ok := buckets[month]
		if !ok {
			buckets[month] = &bucket{sum: p.Avg, count: 1, peak: p.Peak}
			continue
		}
		b.sum += p.Avg
		b.count++
		b.peak = max(b.peak, p.Peak)
	}

	points := make([]schema.MonthlySeriesPoint, 0, len(buckets))
	for month, b := range buckets {
		points = append(points, schema.MonthlySeriesPoint{
			AppID:       appID,
			Month:       month,
			AvgPlayers:  b.sum / float64(b.count),
			PeakPlayers: b.peak,
		})
	}
	slices.SortFunc(points, func(a, b schema.MonthlySeriesPoint) int {
		return a.Month.Compare(b.Month)
	})
	return points
}

// Latest returns the most recent month of a normalized series.
func Latest(points []schema.MonthlySeriesPoint) (time.Time, bool) {
	if len(points) == 0 {
		return time.Time{}, false
	}
	latest := points[0].Month
	for _, p := range points[1:] {
		if p.Month.After(latest) {
			latest = p.Month
		}
	}
	return latest, true
}

// Lookup indexes a normalized series by month.
func Lookup(points []schema.MonthlySeriesPoint) map[time.Time]schema.MonthlySeriesPoint {
	index := make(map[time.Time]schema.MonthlySeriesPoint, len(points))
	for _, p := range points {
		index[schema.MonthStart(p.Month)] = p
	}
	return index
}
