package application

import (
	"errors"
	"time"

	analytics "wastetrack-cloud/internal/analytics/domain"
	entries "wastetrack-cloud/internal/entries/domain"
)

// BuildSeries buckets waste entries into the fixed-width chart series for a
// time range. The result always has the full bucket count for the range,
// zero-filled, regardless of which buckets saw entries. Bucket membership is
// half-open [start, start+width) on the local calendar.
func (a *Aggregator) BuildSeries(waste []entries.WasteEntry, rng entries.TimeRange) ([]analytics.SeriesPoint, error) {
	if a == nil {
		return nil, errors.New("analytics: nil aggregator")
	}
	if !rng.Valid() {
		return nil, errors.New("analytics: unknown time range")
	}
	now := a.clock.Now()
	if rng == entries.RangeToday {
		return a.hourlySeries(waste, now), nil
	}
	return a.dailySeries(waste, now, rng.Days()), nil
}

// hourlySeries emits 24 buckets for the current local day, labelled HH:MM.
func (a *Aggregator) hourlySeries(waste []entries.WasteEntry, now time.Time) []analytics.SeriesPoint {
	dayStart := entries.DayStart(now)
	points := make([]analytics.SeriesPoint, 24)
	for i := range points {
		points[i].Label = dayStart.Add(time.Duration(i) * time.Hour).Format("15:04")
	}
	for _, e := range waste {
		if !entries.ValidWeight(e.Weight) {
			continue
		}
		offset := e.Timestamp.Sub(dayStart)
		if offset < 0 || offset >= 24*time.Hour {
			continue
		}
		bucket := int(offset / time.Hour)
		addToPoint(&points[bucket], e)
	}
	return points
}

// dailySeries emits the trailing days buckets ending today, labelled
// YYYY-MM-DD.
func (a *Aggregator) dailySeries(waste []entries.WasteEntry, now time.Time, days int) []analytics.SeriesPoint {
	first := entries.DayStart(now).AddDate(0, 0, -(days - 1))
	points := make([]analytics.SeriesPoint, days)
	starts := make([]time.Time, days)
	for i := range points {
		starts[i] = first.AddDate(0, 0, i)
		points[i].Label = starts[i].Format("2006-01-02")
	}
	end := starts[days-1].AddDate(0, 0, 1)
	for _, e := range waste {
		if !entries.ValidWeight(e.Weight) {
			continue
		}
		if e.Timestamp.Before(first) || !e.Timestamp.Before(end) {
			continue
		}
		for i := days - 1; i >= 0; i-- {
			if !e.Timestamp.Before(starts[i]) {
				addToPoint(&points[i], e)
				break
			}
		}
	}
	return points
}

func addToPoint(point *analytics.SeriesPoint, e entries.WasteEntry) {
	if e.Recyclable {
		point.Recycled += e.Weight
	} else {
		point.Waste += e.Weight
	}
}
