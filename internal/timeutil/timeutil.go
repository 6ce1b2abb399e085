// Package timeutil provides utility functions and types for working with
// time-related operations.
package timeutil

import (
	"fmt"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

type Period string

const (
	PeriodAllTime   Period = "all-time"
	PeriodToday     Period = "today"
	PeriodYesterday Period = "yesterday"
	Period7Days     Period = "7days"
	Period30Days    Period = "30days"
	Period90Days    Period = "90days"
	Period365Days   Period = "365days"
)

// Range is the day offset of the first day of each period.
var Range = map[Period]int{
	PeriodAllTime:   0,
	PeriodToday:     0,
	PeriodYesterday: -1,
	Period7Days:     -6,
	Period30Days:    -29,
	Period90Days:    -89,
	Period365Days:   -364,
}

var PeriodCollection = []Period{
	PeriodAllTime,
	PeriodToday,
	PeriodYesterday,
	Period7Days,
	Period30Days,
	Period90Days,
	Period365Days,
}

// RoundToStart resets the given time to the start of the day.
func RoundToStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RoundToEnd resets the given time to the end of the day.
func RoundToEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// PeriodRange returns the start and end of period relative to now. The start
// of PeriodAllTime is the zero time.
func PeriodRange(period Period, now time.Time) (start, end time.Time) {
	end = RoundToEnd(now)

	switch period {
	case PeriodAllTime:
		return time.Time{}, end
	case PeriodYesterday:
		start = RoundToStart(now.AddDate(0, 0, Range[period]))
		return start, RoundToEnd(start)
	default:
		return RoundToStart(now.AddDate(0, 0, Range[period])), end
	}
}

// FromStr parses absolute or relative dates such as "2024-03-04",
// "yesterday" or "3 days ago", relative to now.
func FromStr(s string, now time.Time) (time.Time, error) {
	cfg := &dps.Configuration{
		CurrentTime: now,
	}

	dt, err := dps.Parse(cfg, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse %q as a date: %w", s, err)
	}

	return dt.Time, nil
}

// Elapsed formats a number of seconds as m:ss.s for the recorder display.
func Elapsed(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))

	mins := int(d / time.Minute)
	secs := (d % time.Minute).Seconds()

	return fmt.Sprintf("%d:%04.1f", mins, secs)
}
