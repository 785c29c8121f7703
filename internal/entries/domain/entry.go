package entries

import (
	"math"
	"time"
)

// Category identifies a waste material kind.
type Category string

const (
	CategoryPET           Category = "pet"
	CategoryHDPE          Category = "hdpe"
	CategoryLDPE          Category = "ldpe"
	CategoryPP            Category = "pp"
	CategoryPS            Category = "ps"
	CategoryCardboard     Category = "cardboard"
	CategoryGlass         Category = "glass"
	CategoryTin           Category = "tin"
	CategoryAluminum      Category = "aluminum"
	CategoryCopper        Category = "copper"
	CategoryNonRecyclable Category = "non-recyclable"
)

// AllCategories lists every category in declaration order. Evaluation and
// reporting iterate this slice so output order is stable.
var AllCategories = []Category{
	CategoryPET,
	CategoryHDPE,
	CategoryLDPE,
	CategoryPP,
	CategoryPS,
	CategoryCardboard,
	CategoryGlass,
	CategoryTin,
	CategoryAluminum,
	CategoryCopper,
	CategoryNonRecyclable,
}

// Valid returns true when the category is a known material kind.
func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Recyclable returns whether entries of this category count toward recycling.
func (c Category) Recyclable() bool {
	return c != CategoryNonRecyclable
}

// WasteEntry is a logged waste record. Weight is always kilograms; the
// display unit is a presentation concern. Immutable once created except via
// delete and recreate.
type WasteEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Category    Category  `json:"category"`
	SubCategory string    `json:"subCategory,omitempty"`
	Weight      float64   `json:"weight"`
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Recyclable  bool      `json:"isRecyclable"`
}

// LandfillEntry records waste actually taken to landfill. CollectionDate is
// the disposal instant and is editable independently of Timestamp.
type LandfillEntry struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Weight         float64   `json:"weight"`
	Timestamp      time.Time `json:"timestamp"`
	Notes          string    `json:"notes,omitempty"`
	CollectionDate time.Time `json:"collectionDate"`
}

// RecyclingEntry records waste sent for recycling processing.
type RecyclingEntry struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Weight         float64   `json:"weight"`
	Timestamp      time.Time `json:"timestamp"`
	Notes          string    `json:"notes,omitempty"`
	ProcessingDate time.Time `json:"processingDate"`
}

// ValidWeight reports whether a weight may enter the store. NaN, infinite
// and negative weights are rejected so they can never corrupt totals.
func ValidWeight(weight float64) bool {
	return !math.IsNaN(weight) && !math.IsInf(weight, 0) && weight >= 0
}

// Validate checks waste entry invariants.
func (e WasteEntry) Validate() error {
	if e.UserID == "" {
		return ErrEmptyUserID
	}
	if !e.Category.Valid() {
		return ErrUnknownCategory
	}
	if !ValidWeight(e.Weight) {
		return ErrInvalidWeight
	}
	return nil
}

// Validate checks landfill entry invariants.
func (e LandfillEntry) Validate() error {
	if e.UserID == "" {
		return ErrEmptyUserID
	}
	if !ValidWeight(e.Weight) {
		return ErrInvalidWeight
	}
	return nil
}

// Validate checks recycling entry invariants.
func (e RecyclingEntry) Validate() error {
	if e.UserID == "" {
		return ErrEmptyUserID
	}
	if !ValidWeight(e.Weight) {
		return ErrInvalidWeight
	}
	return nil
}

// TimeRange selects a chart window.
type TimeRange string

const (
	RangeToday     TimeRange = "today"
	RangeThreeDays TimeRange = "3days"
	RangeWeek      TimeRange = "week"
)

// Valid returns true for a known time range.
func (r TimeRange) Valid() bool {
	switch r {
	case RangeToday, RangeThreeDays, RangeWeek:
		return true
	default:
		return false
	}
}

// Days returns the number of daily buckets for multi-day ranges.
func (r TimeRange) Days() int {
	switch r {
	case RangeThreeDays:
		return 3
	case RangeWeek:
		return 7
	default:
		return 1
	}
}

// Filter narrows a waste entry query.
type Filter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  Category
	TimeRange TimeRange
}

// Matches reports whether an entry passes the filter. now anchors the
// relative time ranges to the local calendar day.
func (f Filter) Matches(entry WasteEntry, now time.Time) bool {
	if f.StartDate != nil && entry.Timestamp.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && entry.Timestamp.After(*f.EndDate) {
		return false
	}
	if f.Category != "" && entry.Category != f.Category {
		return false
	}
	if f.TimeRange != "" {
		today := DayStart(now)
		switch f.TimeRange {
		case RangeToday:
			return !entry.Timestamp.Before(today)
		case RangeThreeDays:
			return !entry.Timestamp.Before(today.AddDate(0, 0, -3))
		case RangeWeek:
			return !entry.Timestamp.Before(today.AddDate(0, 0, -7))
		}
	}
	return true
}

// DayStart returns local midnight for the given instant.
func DayStart(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// MonthStart returns the first local instant of the month containing t.
func MonthStart(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}
