package schedule

import "time"

// ResolveLocal maps a local wall-clock time (date + hour:minute in loc) to an
// absolute instant, with an explicit policy for the two DST edge cases:
//
//   - the wall clock occurs twice (fall-back repeat): the later,
//     standard-time instant is chosen;
//   - the wall clock does not exist (spring-forward gap): it is shifted
//     forward one hour;
//   - otherwise the mapping is direct.
func ResolveLocal(year int, month time.Month, day, hour, min int, loc *time.Location) time.Time {
	t := time.Date(year, month, day, hour, min, 0, 0, loc)

	// time.Date normalises a nonexistent wall clock to a real instant, moving
	// the clock reading in the process. Detect the move and apply the +1h
	// policy instead of whatever the runtime picked.
	if t.Hour() != hour || t.Minute() != min {
		return time.Date(year, month, day, hour+1, min, 0, 0, loc)
	}

	// An ambiguous wall clock maps to two instants one hour apart. Whichever
	// one time.Date returned, the other renders the same local reading; when
	// that happens, keep the later (standard-time) instant.
	if u := t.Add(time.Hour); sameWall(u, t) {
		return u
	}
	return t
}

// sameWall reports whether two instants render the same local date and
// wall-clock minute.
func sameWall(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute()
}
