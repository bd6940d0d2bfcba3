package planner

import "time"

// DateLayout is the calendar-day key format used across the planner.
const DateLayout = "2006-01-02"

// CalendarDay strips the clock and location from t, keeping its y/m/d.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats t as a calendar-day key.
func DateKey(t time.Time) string {
	return CalendarDay(t).Format(DateLayout)
}

// ParseDate parses a "2006-01-02" calendar day.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// ExpandDateRange returns every calendar day from start to end inclusive.
// end before start yields an empty slice.
func ExpandDateRange(start, end time.Time) []time.Time {
	s, e := CalendarDay(start), CalendarDay(end)
	if e.Before(s) {
		return []time.Time{}
	}
	days := make([]time.Time, 0, DaySpan(s, e))
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DaySpan is the inclusive number of calendar days between start and end,
// or 0 when end is before start.
func DaySpan(start, end time.Time) int {
	s, e := CalendarDay(start), CalendarDay(end)
	if e.Before(s) {
		return 0
	}
	// UTC midnights are exactly 24h apart, no DST drift.
	return int(e.Sub(s).Hours()/24) + 1
}
