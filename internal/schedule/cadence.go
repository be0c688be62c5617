// Package schedule implements the recurring appointment engine: cadence
// arithmetic, DST-safe local-time resolution, horizon-bounded series
// expansion, and price/duration calculation. Everything here is pure — no
// I/O, no clock reads — so every branch is unit-testable.
package schedule

import (
	"github.com/groompro/backend/internal/domain"
)

// HorizonDays is the maximum forward span of a generated series. No
// occurrence is ever generated on or after the anchor date plus this many
// days.
const HorizonDays = 365

// Unit is a recurrence spacing unit.
type Unit string

const (
	UnitDay   Unit = domain.UnitDay
	UnitWeek  Unit = domain.UnitWeek
	UnitMonth Unit = domain.UnitMonth
	UnitYear  Unit = domain.UnitYear
)

// ParseUnit maps a wire-level unit string onto a Unit. Unrecognised values
// parse to UnitWeek. This leniency is deliberate and long-standing: clients
// that send a bad unit get a weekly series, not an error.
func ParseUnit(s string) Unit {
	switch Unit(s) {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return Unit(s)
	}
	return UnitWeek
}

// Cadence is the spacing of a recurring series: every Value Units.
type Cadence struct {
	Value int
	Unit  Unit
}

// NewCadence builds a Cadence from wire-level value and unit. Values below 1
// normalise to 1; the unit goes through ParseUnit.
func NewCadence(value int, unit string) Cadence {
	if value < 1 {
		value = 1
	}
	return Cadence{Value: value, Unit: ParseUnit(unit)}
}

// StepDays returns the day step between consecutive occurrences. Month and
// year use fixed 30- and 365-day approximations, not calendar arithmetic.
func (c Cadence) StepDays() int {
	v := c.Value
	if v < 1 {
		v = 1
	}
	switch c.Unit {
	case UnitDay:
		return v
	case UnitMonth:
		return v * 30
	case UnitYear:
		return v * 365
	default:
		return v * 7
	}
}

// Equal reports whether two cadences describe the same spacing.
func (c Cadence) Equal(o Cadence) bool {
	return c.Value == o.Value && c.Unit == o.Unit
}
