package application

import (
	"errors"
	"time"

	analytics "wastetrack-cloud/internal/analytics/domain"
	entries "wastetrack-cloud/internal/entries/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Aggregator derives dashboard metrics from the entry collections. All
// methods are pure apart from reading the clock; feeding the same
// collections twice yields the same snapshot.
type Aggregator struct {
	clock Clock
}

// AggregatorOption customizes the aggregator.
type AggregatorOption func(*Aggregator)

// WithClock assigns a clock.
func WithClock(clock Clock) AggregatorOption {
	return func(a *Aggregator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// NewAggregator constructs an aggregator.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	agg := &Aggregator{clock: systemClock{}}
	for _, opt := range opts {
		opt(agg)
	}
	return agg
}

// Compute derives the full dashboard snapshot.
func (a *Aggregator) Compute(waste []entries.WasteEntry, landfill []entries.LandfillEntry, recycling []entries.RecyclingEntry) (analytics.Snapshot, error) {
	if a == nil {
		return analytics.Snapshot{}, errors.New("analytics: nil aggregator")
	}
	now := a.clock.Now()
	today := entries.DayStart(now)
	monthStart := entries.MonthStart(now)
	monthEnd := monthStart.AddDate(0, 1, 0)

	var todayRecycled, todayWaste float64
	var allRecycled, allWaste float64
	var pendingRecyclable, pendingNonRecyclable float64
	for _, e := range waste {
		if !entries.ValidWeight(e.Weight) {
			continue
		}
		if e.Recyclable {
			allRecycled += e.Weight
			pendingRecyclable += e.Weight
		} else {
			allWaste += e.Weight
			pendingNonRecyclable += e.Weight
		}
		if !e.Timestamp.Before(today) {
			if e.Recyclable {
				todayRecycled += e.Weight
			} else {
				todayWaste += e.Weight
			}
		}
	}

	var monthlyLandfill, totalLandfill float64
	for _, e := range landfill {
		if !entries.ValidWeight(e.Weight) {
			continue
		}
		totalLandfill += e.Weight
		if inWindow(e.CollectionDate, monthStart, monthEnd) {
			monthlyLandfill += e.Weight
		}
	}

	var monthlyRecycling, totalRecycling float64
	for _, e := range recycling {
		if !entries.ValidWeight(e.Weight) {
			continue
		}
		totalRecycling += e.Weight
		if inWindow(e.ProcessingDate, monthStart, monthEnd) {
			monthlyRecycling += e.Weight
		}
	}

	rate := 0.0
	if total := allRecycled + allWaste; total > 0 {
		rate = allRecycled / total * 100
	}

	return analytics.Snapshot{
		TodayRecycled:          todayRecycled,
		TodayWaste:             todayWaste,
		CurrentRate:            rate,
		WeeklyTrend:            trendFor(rate),
		MonthlyLandfillTotal:   monthlyLandfill,
		MonthlyRecyclingTotal:  monthlyRecycling,
		TotalLandfillWeight:    totalLandfill,
		TotalRecyclingWeight:   totalRecycling,
		PendingLandfillWeight:  pendingWeight(pendingNonRecyclable, totalLandfill),
		PendingRecyclingWeight: pendingWeight(pendingRecyclable, totalRecycling),
		CategoryTotals:         a.CategoryTotals(waste),
		LastUpdated:            now,
	}, nil
}

// CategoryTotals sums weights per category. Every known category is present
// in the result, zero when unused.
func (a *Aggregator) CategoryTotals(waste []entries.WasteEntry) map[string]float64 {
	totals := make(map[string]float64, len(entries.AllCategories))
	for _, category := range entries.AllCategories {
		totals[string(category)] = 0
	}
	for _, e := range waste {
		if !entries.ValidWeight(e.Weight) {
			continue
		}
		totals[string(e.Category)] += e.Weight
	}
	return totals
}

// FilteredCategoryTotals sums weights per category over the entries passing
// the filter.
func (a *Aggregator) FilteredCategoryTotals(waste []entries.WasteEntry, filter entries.Filter) map[string]float64 {
	if a == nil {
		return nil
	}
	now := a.clock.Now()
	matched := make([]entries.WasteEntry, 0, len(waste))
	for _, e := range waste {
		if filter.Matches(e, now) {
			matched = append(matched, e)
		}
	}
	return a.CategoryTotals(matched)
}

// HoursSinceLastEntry reports the age of the newest waste entry in hours.
// The second return is false when there are no entries at all. The newest
// timestamp is found by scanning, so backdated appends cannot skew it.
func (a *Aggregator) HoursSinceLastEntry(waste []entries.WasteEntry) (float64, bool) {
	if a == nil || len(waste) == 0 {
		return 0, false
	}
	newest := waste[0].Timestamp
	for _, e := range waste[1:] {
		if e.Timestamp.After(newest) {
			newest = e.Timestamp
		}
	}
	return a.clock.Now().Sub(newest).Hours(), true
}

func trendFor(rate float64) analytics.Trend {
	switch {
	case rate > 75:
		return analytics.TrendUp
	case rate < 50:
		return analytics.TrendDown
	default:
		return analytics.TrendStable
	}
}

// pendingWeight floors at zero: over-disposal never produces a negative
// backlog.
func pendingWeight(logged, disposed float64) float64 {
	pending := logged - disposed
	if pending < 0 {
		return 0
	}
	return pending
}

func inWindow(t, startInclusive, endExclusive time.Time) bool {
	return !t.Before(startInclusive) && t.Before(endExclusive)
}
