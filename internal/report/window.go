// Package report orchestrates the weekly dispute risk report: window
// resolution, scoring, CSV rendering, and delivery to the task tracker and
// mail collaborators.
package report

import "time"

// WeekWindow returns the most recently completed calendar week relative to
// now in the given location: the preceding Monday 00:00:00.000 through
// Sunday 23:59:59.999. The window never includes the week now falls in.
func WeekWindow(now time.Time, loc *time.Location) (start, end time.Time) {
	n := now.In(loc)
	// Days since the Monday of the current week; time.Weekday counts from
	// Sunday, so shift it onto a Monday-first scale.
	sinceMonday := (int(n.Weekday()) + 6) % 7
	thisMonday := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, -sinceMonday)
	start = thisMonday.AddDate(0, 0, -7)
	end = thisMonday.Add(-time.Millisecond)
	return start, end
}
