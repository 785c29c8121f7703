package remote

import (
	"time"

	analytics "wastetrack-cloud/internal/analytics/domain"
)

// MockSnapshot returns the fixed development snapshot served when neither
// the local store nor the remote endpoint can produce one. The numbers are
// stable so demo charts look sane.
func MockSnapshot() analytics.Snapshot {
	return analytics.Snapshot{
		TodayRecycled:          15.6,
		TodayWaste:             3.2,
		CurrentRate:            83.0,
		WeeklyTrend:            analytics.TrendUp,
		MonthlyLandfillTotal:   45.2,
		MonthlyRecyclingTotal:  89.4,
		TotalLandfillWeight:    245.8,
		TotalRecyclingWeight:   523.6,
		PendingLandfillWeight:  12.1,
		PendingRecyclingWeight: 22.3,
		CategoryTotals: map[string]float64{
			"pet":            3.4,
			"hdpe":           2.1,
			"ldpe":           1.8,
			"pp":             2.5,
			"ps":             0.9,
			"cardboard":      4.2,
			"glass":          2.1,
			"tin":            0.5,
			"aluminum":       0.3,
			"copper":         0.1,
			"non-recyclable": 3.2,
		},
		LastUpdated: time.Now(),
	}
}
