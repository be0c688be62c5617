package domain

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. Status changes never propagate across a recurring
// group; they always apply to a single appointment.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// ValidStatus reports whether s is one of the recognised appointment statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Recurrence units for RepeatUnit. An unrecognised unit is treated as
// UnitWeek by the schedule package rather than rejected.
const (
	UnitDay   = "day"
	UnitWeek  = "week"
	UnitMonth = "month"
	UnitYear  = "year"
)

// PetEntry is one line item on an appointment: a pet plus the selected
// catalog service and item IDs. PetID is nil for pets entered free-form.
type PetEntry struct {
	PetName    string      `json:"pet_name"`
	PetID      *uuid.UUID  `json:"pet_id,omitempty"`
	ServiceIDs []uuid.UUID `json:"services"`
	ItemIDs    []uuid.UUID `json:"items"`
}

// Appointment is one concrete calendar booking. A recurring series is not a
// separate entity: it is the set of appointments sharing a GroupID, all
// carrying the same cadence, line items, totals, and local wall-clock
// time-of-day in the business timezone.
type Appointment struct {
	ID         uuid.UUID
	UserID     string
	ClientID   uuid.UUID
	ClientName string

	// StartTime is the absolute UTC instant. EndTime is always
	// StartTime + TotalDuration minutes.
	StartTime time.Time
	EndTime   time.Time

	Status string
	Notes  string
	Pets   []PetEntry

	TotalDuration int // minutes
	TotalPrice    float64

	// IsRecurring, GroupID, RepeatValue and RepeatUnit are set together for
	// group members and cleared together when a member is detached.
	IsRecurring bool
	GroupID     *uuid.UUID
	RepeatValue int
	RepeatUnit  string

	ReminderSent bool
	CreatedAt    time.Time
}

// AppointmentPatch carries the fields of an update request. Nil pointers mean
// "not supplied". A patch with no supplied field is rejected as a no-op.
type AppointmentPatch struct {
	StartTime *time.Time
	Status    *string
	Notes     *string
	Pets      *[]PetEntry

	IsRecurring *bool
	RepeatValue *int
	RepeatUnit  *string
}

// Empty reports whether the patch supplies no fields at all.
func (p AppointmentPatch) Empty() bool {
	return p.StartTime == nil && p.Status == nil && p.Notes == nil &&
		p.Pets == nil && p.IsRecurring == nil && p.RepeatValue == nil && p.RepeatUnit == nil
}

// HasCadence reports whether the patch supplies any recurrence field.
func (p AppointmentPatch) HasCadence() bool {
	return (p.IsRecurring != nil && *p.IsRecurring) || p.RepeatValue != nil || p.RepeatUnit != nil
}
