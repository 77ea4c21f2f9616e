package daterange

import (
	"strings"
	"time"

	"rentgate/internal/domain/shared/rejection"
)

const (
	Layout = "2006-01-02"
	// MaxNights bounds a single range; longer stays are rejected as invalid.
	MaxNights = 365

	secondsPerDay = 24 * 60 * 60
)

var (
	ErrInvalidRange = rejection.New(rejection.InvalidRange, "daterange: end date must be after start date")
	ErrInvalidDay   = rejection.New(rejection.InvalidRange, "daterange: dates must use YYYY-MM-DD")
	ErrRangeTooLong = rejection.Newf(rejection.InvalidRange, "daterange: a range cannot exceed %d nights", MaxNights)
)

// Day truncates t to its calendar date at midnight UTC. The calendar date is
// taken in t's own location so that a local "2025-06-01T23:30+02:00" stays June 1st.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDay
	}
	if len(raw) > len(Layout) {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return Day(t), nil
		}
	}
	t, err := time.Parse(Layout, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return t, nil
}

func FormatDay(t time.Time) string {
	return Day(t).Format(Layout)
}

// DaysBetween counts calendar days from a to b; negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int((Day(b).Unix() - Day(a).Unix()) / secondsPerDay)
}

// DateRange is a half-open interval of calendar days [Start, End).
// End is the checkout day and is not occupied by the range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Day(start), End: Day(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	if dr.Nights() > MaxNights {
		return ErrRangeTooLong
	}
	return nil
}

func (dr DateRange) IsZero() bool {
	return dr.Start.IsZero() && dr.End.IsZero()
}

func (dr DateRange) Nights() int {
	return DaysBetween(dr.Start, dr.End)
}

// Overlaps is symmetric; ranges that only touch (a.End == b.Start) do not overlap.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

func (dr DateRange) ContainsDay(t time.Time) bool {
	d := Day(t)
	return !d.Before(dr.Start) && d.Before(dr.End)
}

// Days enumerates every occupied calendar day of the range.
func (dr DateRange) Days() []time.Time {
	n := dr.Nights()
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	for d := dr.Start; d.Before(dr.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (dr DateRange) String() string {
	return FormatDay(dr.Start) + ".." + FormatDay(dr.End)
}
