package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentgate/internal/domain/shared/rejection"
)

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := ParseDay(raw)
	require.NoError(t, err)
	return d
}

func mustRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	dr, err := New(day(t, start), day(t, end))
	require.NoError(t, err)
	return dr
}

func TestNewRejectsEmptyAndInvertedRanges(t *testing.T) {
	_, err := New(day(t, "2025-06-04"), day(t, "2025-06-01"))
	assert.ErrorIs(t, err, rejection.ErrInvalidRange)

	_, err = New(day(t, "2025-06-04"), day(t, "2025-06-04"))
	assert.ErrorIs(t, err, rejection.ErrInvalidRange)

	_, err = New(time.Time{}, day(t, "2025-06-04"))
	assert.ErrorIs(t, err, rejection.ErrInvalidRange)
}

func TestOverlapsIsSymmetric(t *testing.T) {
	cases := []struct {
		name string
		a, b DateRange
		want bool
	}{
		{"touching boundary", mustRange(t, "2025-06-01", "2025-06-04"), mustRange(t, "2025-06-04", "2025-06-06"), false},
		{"partial overlap", mustRange(t, "2025-06-01", "2025-06-04"), mustRange(t, "2025-06-03", "2025-06-05"), true},
		{"contained", mustRange(t, "2025-06-01", "2025-06-10"), mustRange(t, "2025-06-03", "2025-06-05"), true},
		{"identical", mustRange(t, "2025-06-01", "2025-06-02"), mustRange(t, "2025-06-01", "2025-06-02"), true},
		{"disjoint", mustRange(t, "2025-06-01", "2025-06-02"), mustRange(t, "2025-07-01", "2025-07-02"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.a.Overlaps(tc.b), tc.b.Overlaps(tc.a))
		})
	}
}

func TestDaysExcludesCheckoutDay(t *testing.T) {
	dr := mustRange(t, "2025-06-01", "2025-06-04")

	days := dr.Days()
	require.Len(t, days, 3)
	assert.Equal(t, "2025-06-01", FormatDay(days[0]))
	assert.Equal(t, "2025-06-03", FormatDay(days[2]))
	assert.Equal(t, 3, dr.Nights())
	assert.False(t, dr.ContainsDay(day(t, "2025-06-04")))
	assert.True(t, dr.ContainsDay(day(t, "2025-06-01")))
}

func TestDayKeepsLocalCalendarDate(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	late := time.Date(2025, 6, 1, 23, 30, 0, 0, loc)

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Day(late))
}

func TestParseDayAcceptsRFC3339(t *testing.T) {
	d, err := ParseDay("2025-06-01T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", FormatDay(d))

	_, err = ParseDay("01/06/2025")
	assert.ErrorIs(t, err, rejection.ErrInvalidRange)
}

func TestNewRejectsStaysLongerThanMaxNights(t *testing.T) {
	start := day(t, "2025-06-01")

	dr, err := New(start, start.AddDate(0, 0, MaxNights))
	require.NoError(t, err)
	assert.Equal(t, MaxNights, dr.Nights())

	_, err = New(start, start.AddDate(0, 0, MaxNights+1))
	assert.ErrorIs(t, err, rejection.ErrInvalidRange)
	assert.ErrorIs(t, err, ErrRangeTooLong)

	_, err = New(start, day(t, "9999-12-31"))
	assert.ErrorIs(t, err, rejection.ErrInvalidRange)

	long := DateRange{Start: start, End: day(t, "9999-12-31")}
	assert.ErrorIs(t, long.Validate(), ErrRangeTooLong)
}

func TestDaysBetweenCountsCalendarDaysBeyondDurationRange(t *testing.T) {
	assert.Equal(t, 2913903, DaysBetween(day(t, "2022-01-01"), day(t, "9999-12-31")))
	assert.Equal(t, -3, DaysBetween(day(t, "2025-06-04"), day(t, "2025-06-01")))
	assert.Equal(t, 366, DaysBetween(day(t, "2024-01-01"), day(t, "2025-01-01")))
}
