package debt

import "time"

// DateOf drops the clock part of t, keeping the calendar date as seen in t's
// location, and returns it as midnight UTC. All dates are stored this way.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
