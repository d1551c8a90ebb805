package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWeekKeyMapsEveryWeekdayToMonday(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for offset := 0; offset < 7; offset++ {
		day := monday.AddDate(0, 0, offset).Add(15 * time.Hour)
		require.Equal(t, monday, WeekKey(day), "day offset %d", offset)
	}
}

func TestWeekKeyIsIdempotent(t *testing.T) {
	key := WeekKey(time.Date(2026, 3, 5, 23, 59, 59, 0, time.UTC))
	require.Equal(t, key, WeekKey(key))
	require.True(t, IsWeekKey(key))
}

func TestWeekKeyNormalizesZones(t *testing.T) {
	zone := time.FixedZone("UTC+9", 9*3600)
	// Monday 03:00 in UTC+9 is still Sunday in UTC, so it belongs to
	// the previous week.
	local := time.Date(2026, 3, 2, 3, 0, 0, 0, zone)
	require.Equal(t, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), WeekKey(local))
}

func TestNextWeekKey(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), NextWeekKey(now))
}

func TestIsWeekKeyRejectsMidweekAndMidday(t *testing.T) {
	require.False(t, IsWeekKey(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)))
	require.False(t, IsWeekKey(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)))
}
