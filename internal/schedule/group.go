package schedule

import "github.com/google/uuid"

// NewGroupID mints the opaque identifier tying a series' occurrences
// together. It is issued exactly once per logical series: at first recurring
// generation, or when a standalone appointment is converted to recurring.
// Regenerating an existing series reuses its group ID; only detaching an
// individual member ever clears one.
func NewGroupID() uuid.UUID {
	return uuid.New()
}
