package dto

import (
	"time"

	domainavailability "rentgate/internal/domain/availability"
	"rentgate/internal/domain/shared/daterange"
)

type Calendar struct {
	ListingID        string          `json:"listing_id"`
	UnavailableDates []string        `json:"unavailable_dates"`
	Blocks           []CalendarBlock `json:"blocks,omitempty"`
}

type CalendarBlock struct {
	Date   string `json:"date"`
	Source string `json:"source"`
}

type OverridesResult struct {
	ListingID   string   `json:"listing_id"`
	Dates       []string `json:"dates"`
	IsAvailable bool     `json:"is_available"`
}

// MapCalendar renders unavailable days; a zero window means the whole calendar.
func MapCalendar(cal *domainavailability.Calendar, from, to time.Time, withSources bool) Calendar {
	out := Calendar{ListingID: string(cal.ListingID), UnavailableDates: []string{}}
	for _, d := range cal.UnavailableDates() {
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && !d.Before(to) {
			continue
		}
		out.UnavailableDates = append(out.UnavailableDates, daterange.FormatDay(d))
		if withSources {
			for _, b := range cal.BlocksOn(d) {
				out.Blocks = append(out.Blocks, CalendarBlock{Date: daterange.FormatDay(d), Source: string(b.Source)})
			}
		}
	}
	return out
}

func MapOverrides(batch *domainavailability.OverrideBatch) OverridesResult {
	out := OverridesResult{ListingID: string(batch.ListingID), IsAvailable: batch.IsAvailable, Dates: make([]string, 0, len(batch.Overrides))}
	for _, o := range batch.Overrides {
		out.Dates = append(out.Dates, daterange.FormatDay(o.Date))
	}
	return out
}
