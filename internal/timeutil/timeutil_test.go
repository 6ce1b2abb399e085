package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.March, 14, 15, 4, 5, 0, time.UTC)

func TestPeriodRange(t *testing.T) {
	testCases := []struct {
		Period Period
		Start  time.Time
		End    time.Time
	}{
		{
			Period: PeriodToday,
			Start:  time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC),
			End:    time.Date(2024, time.March, 14, 23, 59, 59, 0, time.UTC),
		},
		{
			Period: PeriodYesterday,
			Start:  time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC),
			End:    time.Date(2024, time.March, 13, 23, 59, 59, 0, time.UTC),
		},
		{
			Period: Period7Days,
			Start:  time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC),
			End:    time.Date(2024, time.March, 14, 23, 59, 59, 0, time.UTC),
		},
		{
			Period: PeriodAllTime,
			End:    time.Date(2024, time.March, 14, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tc := range testCases {
		t.Run(string(tc.Period), func(t *testing.T) {
			start, end := PeriodRange(tc.Period, now)

			assert.True(t, tc.Start.Equal(start), "start: %v", start)
			assert.True(t, tc.End.Equal(end), "end: %v", end)
		})
	}
}

func TestFromStr(t *testing.T) {
	got, err := FromStr("2024-03-01", now)
	require.NoError(t, err)

	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 1, got.Day())

	_, err = FromStr("not a date at all", now)
	assert.Error(t, err)
}

func TestElapsed(t *testing.T) {
	assert.Equal(t, "0:00.0", Elapsed(0))
	assert.Equal(t, "0:05.3", Elapsed(5.3))
	assert.Equal(t, "2:03.5", Elapsed(123.5))
}
