package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/corecapital/autoreports-api/pkg/errors"
)

func TestParseDateOnly(t *testing.T) {
	got, err := Parse("05/03/2024", DateOnly)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got)

	got, err = Parse("29/02/2024", DateOnly)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got)
}

func TestParseClock24(t *testing.T) {
	got, err := Parse("05/03/2024 14:30", Clock24)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), got)

	got, err = Parse("05/03/2024 14:30:45", Clock24)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 30, 45, 0, time.UTC), got)
}

func TestParseClock12(t *testing.T) {
	cases := []struct {
		text string
		want time.Time
	}{
		{"05/03/2024 9:30 AM", time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)},
		{"05/03/2024 9:30 PM", time.Date(2024, 3, 5, 21, 30, 0, 0, time.UTC)},
		{"05/03/2024 12:00 AM", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"05/03/2024 12:00 PM", time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)},
		{"05/03/2024 9:30 pm", time.Date(2024, 3, 5, 21, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := Parse(tc.text, Clock12)
		require.NoError(t, err, tc.text)
		assert.Equal(t, tc.want, got, tc.text)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		clock Clock
	}{
		{"empty", "", DateOnly},
		{"whitespace only", "   ", Clock12},
		{"two segments", "05/2024", DateOnly},
		{"four segments", "05/03/20/24", DateOnly},
		{"alpha day", "xx/03/2024", DateOnly},
		{"day out of range", "32/03/2024", DateOnly},
		{"february 30th", "30/02/2024", DateOnly},
		{"february 29th off leap year", "29/02/2023", DateOnly},
		{"april 31st", "31/04/2024", DateOnly},
		{"month zero", "05/00/2024", DateOnly},
		{"month out of range", "05/13/2024", DateOnly},
		{"two digit year", "05/03/24", DateOnly},
		{"time on date-only", "05/03/2024 10:00", DateOnly},
		{"missing time for 24h", "05/03/2024", Clock24},
		{"hour 24", "05/03/2024 24:00", Clock24},
		{"minute 60", "05/03/2024 10:60", Clock24},
		{"missing period for 12h", "05/03/2024 9:30", Clock12},
		{"bad period", "05/03/2024 9:30 XM", Clock12},
		{"hour 13 on 12h clock", "05/03/2024 13:30 PM", Clock12},
		{"hour zero on 12h clock", "05/03/2024 0:30 AM", Clock12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text, tc.clock)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, appErrors.ErrMalformedDate))
		})
	}
}

func TestSameCalendarDay(t *testing.T) {
	a := time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)
	c := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameCalendarDay(a, b))
	assert.False(t, SameCalendarDay(b, c))
}

func TestDayTruncatesToMidnight(t *testing.T) {
	got := Day(time.Date(2024, 3, 5, 17, 45, 12, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got)
}
