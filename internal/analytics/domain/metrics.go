package analytics

import "time"

// Trend classifies the current recycling rate.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Snapshot is the derived dashboard document. It is recomputed whole from
// the entry collections and persisted under the dashboard-data key; readers
// never mutate it in place.
type Snapshot struct {
	TodayRecycled          float64            `json:"todayRecycled"`
	TodayWaste             float64            `json:"todayWaste"`
	CurrentRate            float64            `json:"currentRate"`
	WeeklyTrend            Trend              `json:"weeklyTrend"`
	MonthlyLandfillTotal   float64            `json:"monthlyLandfillTotal"`
	MonthlyRecyclingTotal  float64            `json:"monthlyRecyclingTotal"`
	TotalLandfillWeight    float64            `json:"totalLandfillWeight"`
	TotalRecyclingWeight   float64            `json:"totalRecyclingWeight"`
	PendingLandfillWeight  float64            `json:"pendingLandfillWeight"`
	PendingRecyclingWeight float64            `json:"pendingRecyclingWeight"`
	CategoryTotals         map[string]float64 `json:"categoryTotals"`
	LastUpdated            time.Time          `json:"lastUpdated"`
}

// SeriesPoint is one fixed-width bucket of the dashboard chart.
type SeriesPoint struct {
	Label    string  `json:"label"`
	Recycled float64 `json:"recycled"`
	Waste    float64 `json:"waste"`
}
