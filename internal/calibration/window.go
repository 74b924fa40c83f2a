package calibration

import (
	"time"
	_ "time/tzdata"
)

var centralTime = loadCentral()

func loadCentral() *time.Location {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		return time.FixedZone("CT", -6*60*60)
	}
	return loc
}

// Window is a half-open time range.
type Window struct {
	Start time.Time
	End   time.Time
}

func session(day time.Time) (time.Time, time.Time) {
	y, m, d := day.In(centralTime).Date()
	return time.Date(y, m, d, 8, 30, 0, 0, centralTime), time.Date(y, m, d, 15, 0, 0, 0, centralTime)
}

// ClampedHourWindow returns the 60 minutes ending at now, clamped into the
// 08:30-15:00 Central regular session of now's day.
func ClampedHourWindow(now time.Time) Window {
	now = now.In(centralTime)
	opensAt, closesAt := session(now)

	end := now
	if end.Before(opensAt) {
		end = opensAt
	}
	if end.After(closesAt) {
		end = closesAt
	}
	start := end.Add(-60 * time.Minute)
	if start.Before(opensAt) {
		start = opensAt
	}
	return Window{Start: start, End: end}
}

// ClosingWindow is 14:50-15:00 Central on day.
func ClosingWindow(day time.Time) Window {
	_, closesAt := session(day)
	return Window{Start: closesAt.Add(-10 * time.Minute), End: closesAt}
}
