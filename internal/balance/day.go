package balance

import "time"

const DayLayout = "2006-01-02"

// Day truncates t to UTC midnight, the log's timeline granularity.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses "YYYY-MM-DD" as a UTC day.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, time.UTC)
}

func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// Cutoff bounds a replay on the day axis.
type Cutoff struct {
	last    time.Time
	bounded bool
}

// Through includes every row dated on or before day (closing balance).
func Through(day time.Time) Cutoff {
	return Cutoff{last: Day(day), bounded: true}
}

// Before includes rows dated strictly before day (opening balance).
func Before(day time.Time) Cutoff {
	return Through(Day(day).AddDate(0, 0, -1))
}

// Unbounded includes the whole log (current stock).
func Unbounded() Cutoff {
	return Cutoff{}
}

func (c Cutoff) Includes(date time.Time) bool {
	if !c.bounded {
		return true
	}
	return !Day(date).After(c.last)
}
