package schedule

import "time"

// Expand generates the start instants of a recurring series.
//
// The anchor instant is converted to wall-clock time in loc; its hour:minute
// is the series' local time-of-day and is preserved on every occurrence, even
// when a DST transition changes the UTC offset mid-series. Candidate local
// dates start at the anchor's own date and advance by the cadence's fixed day
// step while they fall strictly inside the 365-day horizon.
//
// The first element is always the anchor date itself, re-resolved at the
// target time-of-day.
func Expand(anchor time.Time, c Cadence, loc *time.Location) []time.Time {
	local := anchor.In(loc)
	year, month, day := local.Date()
	hour, min := local.Hour(), local.Minute()

	// Walk dates in a timezone-free calendar space so the step is always a
	// whole number of local calendar days, never skewed by DST offsets.
	cur := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	limit := cur.AddDate(0, 0, HorizonDays)
	step := c.StepDays()

	var out []time.Time
	for cur.Before(limit) {
		y, m, d := cur.Date()
		out = append(out, ResolveLocal(y, m, d, hour, min, loc))
		cur = cur.AddDate(0, 0, step)
	}
	return out
}

// ShiftTimeOfDay re-resolves an existing occurrence's own local date at a new
// local time-of-day. Used by series-wide reschedules: each member keeps its
// date and independently adopts the new wall-clock time, rather than being
// shifted by a flat UTC delta.
func ShiftTimeOfDay(occurrence time.Time, hour, min int, loc *time.Location) time.Time {
	local := occurrence.In(loc)
	y, m, d := local.Date()
	return ResolveLocal(y, m, d, hour, min, loc)
}
