// Package calendar implements working-day arithmetic for report deadlines.
package calendar

import (
	"time"

	"github.com/teambition/rrule-go"
)

var workingDays = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

// DateOf truncates t to midnight in its own location
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsWorkingDay reports whether t falls on a weekday
func IsWorkingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// AddWorkingDays advances start by n days that are not Saturday or Sunday.
// Weekend days are skipped and do not count toward n. n <= 0 returns start
// unchanged.
func AddWorkingDays(start time.Time, n int) time.Time {
	if n <= 0 {
		return start
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   start.AddDate(0, 0, 1),
		Byweekday: workingDays,
		Count:     n,
	})
	if err != nil {
		return addWorkingDaysLoop(start, n)
	}

	days := r.All()
	if len(days) != n {
		return addWorkingDaysLoop(start, n)
	}
	return days[n-1]
}

// addWorkingDaysLoop steps one calendar day at a time. Only reached if the
// recurrence rule cannot be built.
func addWorkingDaysLoop(start time.Time, n int) time.Time {
	d := start
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if IsWorkingDay(d) {
			added++
		}
	}
	return d
}
