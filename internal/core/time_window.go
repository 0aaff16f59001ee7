package core

import (
	"fmt"
	"time"
)

// TimeWindow is a trailing window of whole calendar days ending today.
type TimeWindow string

const (
	TimeWindow7d  TimeWindow = "7d"
	TimeWindow14d TimeWindow = "14d"
	TimeWindow30d TimeWindow = "30d"
)

var ValidTimeWindows = []TimeWindow{
	TimeWindow7d,
	TimeWindow14d,
	TimeWindow30d,
}

// Days returns the window size in days.
func (tw TimeWindow) Days() int {
	switch tw {
	case TimeWindow7d:
		return 7
	case TimeWindow14d:
		return 14
	case TimeWindow30d:
		return 30
	default:
		return 14
	}
}

func (tw TimeWindow) Label() string {
	switch tw {
	case TimeWindow7d:
		return "7 дней"
	case TimeWindow30d:
		return "30 дней"
	default:
		return "14 дней"
	}
}

func ParseTimeWindow(s string) TimeWindow {
	for _, tw := range ValidTimeWindows {
		if string(tw) == s {
			return tw
		}
	}
	return TimeWindow14d
}

// NextTimeWindow returns the next time window in the cycle.
func NextTimeWindow(current TimeWindow) TimeWindow {
	for i, tw := range ValidTimeWindows {
		if tw == current {
			return ValidTimeWindows[(i+1)%len(ValidTimeWindows)]
		}
	}
	return ValidTimeWindows[0]
}

// DayRange returns local midnight n-1 days before now, and now itself.
func DayRange(now time.Time, n int) (time.Time, time.Time) {
	if n < 1 {
		n = 1
	}
	start := startOfDay(now).AddDate(0, 0, -(n - 1))
	return start, now
}

// LastNDates builds the date columns for the last n calendar days ending on
// the day of now, oldest first.
func LastNDates(now time.Time, n int) []DateColumn {
	if n < 1 {
		return nil
	}
	day := startOfDay(now)
	out := make([]DateColumn, 0, n)
	for i := n - 1; i >= 0; i-- {
		d := day.AddDate(0, 0, -i)
		out = append(out, DateColumn{
			Label:     ShortDate(d),
			LabelFull: FullDate(d),
			ISO:       ISODate(d),
		})
	}
	return out
}

func ISODate(t time.Time) string { return t.Format("2006-01-02") }

// ShortDate formats a ru-RU day-month caption with dashes, "05-03".
func ShortDate(t time.Time) string { return t.Format("02-01") }

func FullDate(t time.Time) string { return t.Format("02-01-2006") }

func FullDateTime(t time.Time) string { return t.Format("02-01-2006 15:04") }

func ClockTime(t time.Time) string { return t.Format("15:04") }

// AgeCaption renders an age in years with the Russian plural form.
func AgeCaption(years int) string {
	last, last2 := years%10, years%100
	word := "лет"
	switch {
	case last2 >= 11 && last2 <= 14:
	case last == 1:
		word = "год"
	case last >= 2 && last <= 4:
		word = "года"
	}
	return fmt.Sprintf("%d %s", years, word)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
