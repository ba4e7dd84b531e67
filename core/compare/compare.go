// Package compare contrasts the owner estimates of recently updated games with the rest.
package compare

import (
	"slices"

	"github.com/huangsam/patchpanel/schema"
)

// DaysPerMonth converts the comparison window from months to extraction days.
const DaysPerMonth = 30

// WindowDays is the extraction window covering months.
func WindowDays(months int) int {
	if months <= 0 {
		months = schema.DefaultCompareMonths
	}
	return months * DaysPerMonth
}

// Stats computes count, mean and median. Mean and median are nil for no values.
func Stats(values []float64) schema.GroupStats {
	if len(values) == 0 {
		return schema.GroupStats{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return schema.GroupStats{
		Count:  len(sorted),
		Mean:   schema.Ptr(sum / float64(len(sorted))),
		Median: schema.Ptr(median),
	}
}

// Summarize splits entries into the updated and not-updated groups.
// Group counts include every game; stats only cover games with an owner value.
func Summarize(entries []schema.ComparisonEntry, months int) schema.ComparisonSummary {
	summary := schema.ComparisonSummary{Months: months, TotalChecked: len(entries)}
	var updated, notUpdated []float64
	for _, e := range entries {
		if e.UpdatedRecently {
			summary.UpdatedCount++
			if e.OwnersValue != nil {
				updated = append(updated, *e.OwnersValue)
			}
			continue
		}
		summary.NotUpdatedCount++
		if e.OwnersValue != nil {
			notUpdated = append(notUpdated, *e.OwnersValue)
		}
	}
	summary.UpdatedStats = Stats(updated)
	summary.NotUpdatedStats = Stats(notUpdated)
	return summary
}

// Entry builds the comparison entry of a game from its patch summary.
// A game counts as updated when it has any patch inside the extraction window.
func Entry(summary schema.GamePatchSummary) schema.ComparisonEntry {
	return schema.ComparisonEntry{
		AppID:           summary.AppID,
		UpdatedRecently: summary.TotalPatches > 0,
		LastPatchDate:   summary.LastPatchDate,
	}
}
