package entries

import "errors"

// Unit is a display weight unit. Stored weights are always kilograms;
// conversion happens at the API boundary only.
type Unit string

const (
	UnitKilograms Unit = "kg"
	UnitPounds    Unit = "lb"
)

// PoundsPerKilogram converts stored kilograms to display pounds.
const PoundsPerKilogram = 2.20462

// FromKilograms converts a stored weight into this display unit.
func (u Unit) FromKilograms(kg float64) float64 {
	if u == UnitPounds {
		return kg * PoundsPerKilogram
	}
	return kg
}

// ToKilograms converts a display weight back to kilograms for storage.
func (u Unit) ToKilograms(value float64) float64 {
	if u == UnitPounds {
		return value / PoundsPerKilogram
	}
	return value
}

// Preferences is the per-installation user preference document.
type Preferences struct {
	Units Unit `json:"units"`
}

// DefaultPreferences returns the preference document used when nothing is
// stored.
func DefaultPreferences() Preferences {
	return Preferences{Units: UnitKilograms}
}

// Validate checks preference invariants.
func (p Preferences) Validate() error {
	if p.Units != UnitKilograms && p.Units != UnitPounds {
		return errors.New("entries: unknown unit")
	}
	return nil
}
