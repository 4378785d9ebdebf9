package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolvePeriod(t *testing.T) {
	today := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)
	day := today.Truncate(24 * time.Hour)

	tests := []struct {
		period CheckPeriod
		since  time.Time
		known  bool
	}{
		{PeriodToday, day, true},
		{PeriodLast2Days, day.AddDate(0, 0, -1), true},
		{PeriodLast3Days, day.AddDate(0, 0, -2), true},
		{PeriodLast7Days, day.AddDate(0, 0, -6), true},
		{CheckPeriod("yesterdayish"), day, false},
		{CheckPeriod(""), day, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.period), func(t *testing.T) {
			rng, known := ResolvePeriod(tc.period, today)
			require.Equal(t, tc.known, known)
			require.False(t, rng.Unbounded)
			require.Equal(t, tc.since, rng.Since)
			require.Equal(t, day, rng.Until)
		})
	}
}

func TestResolvePeriodAllTime(t *testing.T) {
	today := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)
	rng, known := ResolvePeriod(PeriodAllTime, today)
	require.True(t, known)
	require.True(t, rng.Unbounded)
	require.True(t, rng.Since.IsZero())
	require.Equal(t, today.Truncate(24*time.Hour), rng.Until)
}

// For every valid period since never exceeds until, and until is today.
func TestResolvePeriodOrdering(t *testing.T) {
	today := time.Date(2023, 11, 2, 8, 0, 0, 0, time.UTC)
	day := today.Truncate(24 * time.Hour)
	for _, p := range []CheckPeriod{PeriodToday, PeriodLast2Days, PeriodLast3Days, PeriodLast7Days, PeriodAllTime} {
		rng, known := ResolvePeriod(p, today)
		require.True(t, known)
		require.False(t, rng.Since.After(rng.Until), "period %s", p)
		require.Equal(t, day, rng.Until, "period %s", p)
	}
}
