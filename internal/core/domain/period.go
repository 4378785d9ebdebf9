package domain

import "time"

// CheckPeriod names a look-back window for insight queries.
type CheckPeriod string

const (
	PeriodToday     CheckPeriod = "today"
	PeriodLast2Days CheckPeriod = "last2days"
	PeriodLast3Days CheckPeriod = "last3days"
	PeriodLast7Days CheckPeriod = "last7days"
	PeriodAllTime   CheckPeriod = "alltime"
)

// DateRange is a closed [Since, Until] day interval. Unbounded marks a range
// with no lower bound; Since is the zero time in that case and must not be
// sent to the ad platform as a literal date.
type DateRange struct {
	Since     time.Time
	Until     time.Time
	Unbounded bool
}

// ResolvePeriod maps a named period onto a concrete date range anchored at
// today. An empty or unknown period falls back to PeriodToday; the second
// return value reports whether the input was recognised so the caller can
// log the fallback without failing the check.
func ResolvePeriod(period CheckPeriod, today time.Time) (DateRange, bool) {
	day := today.Truncate(24 * time.Hour)
	switch period {
	case PeriodToday:
		return DateRange{Since: day, Until: day}, true
	case PeriodLast2Days:
		return DateRange{Since: day.AddDate(0, 0, -1), Until: day}, true
	case PeriodLast3Days:
		return DateRange{Since: day.AddDate(0, 0, -2), Until: day}, true
	case PeriodLast7Days:
		return DateRange{Since: day.AddDate(0, 0, -6), Until: day}, true
	case PeriodAllTime:
		return DateRange{Until: day, Unbounded: true}, true
	default:
		return DateRange{Since: day, Until: day}, false
	}
}
