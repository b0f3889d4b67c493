package services

import "time"

const (
	CadenceDaily      = "daily"
	CadenceThreeTimes = "3x_week"
	CadenceWeekdays   = "weekdays"
	CadenceWeekly     = "weekly"
)

func refreshInterval(cadence string) time.Duration {
	switch cadence {
	case CadenceDaily:
		return 7 * 24 * time.Hour
	case CadenceThreeTimes, CadenceWeekdays:
		return 14 * 24 * time.Hour
	case CadenceWeekly:
		return 28 * 24 * time.Hour
	default:
		return 14 * 24 * time.Hour
	}
}

// NextRefresh schedules the next roadmap refresh. The result is always
// strictly in the future: a stale lastRefresh reschedules from now instead
// of returning a date already passed.
func NextRefresh(cadence string, lastRefresh *time.Time, now time.Time) time.Time {
	interval := refreshInterval(cadence)
	base := now
	if lastRefresh != nil {
		base = *lastRefresh
	}
	next := base.Add(interval)
	if !next.After(now) {
		next = now.Add(interval)
	}
	return next
}
