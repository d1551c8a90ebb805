package service

import "time"

// Clock supplies "now". Services take it as a parameter instead of
// reading wall-clock time ambiently so week arithmetic is testable with
// fixed clocks.
type Clock func() time.Time

// WeekKey maps an instant to its canonical week key: the Monday of that
// week at 00:00 UTC. The rotation engine and the suggestion ledger both
// use this rule, so "current week" means the same thing everywhere.
func WeekKey(t time.Time) time.Time {
	t = t.UTC()
	// time.Weekday counts from Sunday; shift so Monday is day zero.
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, -daysSinceMonday)
}

// NextWeekKey returns the Monday following t's week key.
func NextWeekKey(t time.Time) time.Time {
	return WeekKey(t).AddDate(0, 0, 7)
}

// IsWeekKey reports whether t is already a canonical week key.
func IsWeekKey(t time.Time) bool {
	return t.Equal(WeekKey(t))
}
