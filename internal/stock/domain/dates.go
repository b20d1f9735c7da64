package domain

import "time"

// DateOnly truncates a timestamp to a calendar date in UTC. Occurred dates
// are date-valued; normalizing through this helper keeps them usable as map
// keys and comparable with ==.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC calendar date.
func Today() time.Time {
	return DateOnly(time.Now())
}
