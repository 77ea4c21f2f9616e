package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"rentgate/internal/domain/listings"
	"rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/daterange"
	"rentgate/internal/domain/shared/events"
	"rentgate/internal/domain/shared/rejection"
)

var ErrNoDates = errors.New("availability: at least one date is required")

// Override is a host's explicit flag for one calendar day. The latest write per day wins.
type Override struct {
	ListingID   listings.ListingID
	Date        time.Time
	IsAvailable bool
	UpdatedBy   string
	UpdatedAt   time.Time
}

type OverrideRepository interface {
	ByListing(ctx context.Context, listingID listings.ListingID) ([]Override, error)
	Upsert(ctx context.Context, overrides []Override) error
}

type BlockSource string

const (
	SourceReservation BlockSource = "reservation"
	SourceOverride    BlockSource = "override"
)

type Block struct {
	Date      time.Time
	Source    BlockSource
	Reference string
}

// Calendar is a read model of one listing's unavailable days. It is rebuilt on every
// query from reservations and overrides and never mutated in place.
type Calendar struct {
	ListingID listings.ListingID
	blocks    map[time.Time][]Block
}

func NewCalendar(listingID listings.ListingID, reservations []*reservation.Reservation, overrides []Override) *Calendar {
	c := &Calendar{ListingID: listingID, blocks: make(map[time.Time][]Block)}
	for _, res := range reservations {
		if res == nil || res.ListingID != listingID || !res.BlocksCalendar() {
			continue
		}
		for _, d := range res.Range.Days() {
			c.blocks[d] = append(c.blocks[d], Block{Date: d, Source: SourceReservation, Reference: string(res.ID)})
		}
	}
	for _, o := range latestPerDay(listingID, overrides) {
		if o.IsAvailable {
			continue
		}
		c.blocks[o.Date] = append(c.blocks[o.Date], Block{Date: o.Date, Source: SourceOverride, Reference: o.UpdatedBy})
	}
	return c
}

func latestPerDay(listingID listings.ListingID, overrides []Override) map[time.Time]Override {
	out := make(map[time.Time]Override, len(overrides))
	for _, o := range overrides {
		if o.ListingID != listingID {
			continue
		}
		o.Date = daterange.Day(o.Date)
		if cur, ok := out[o.Date]; ok && cur.UpdatedAt.After(o.UpdatedAt) {
			continue
		}
		out[o.Date] = o
	}
	return out
}

func (c *Calendar) IsUnavailable(day time.Time) bool {
	return len(c.blocks[daterange.Day(day)]) > 0
}

func (c *Calendar) BlocksOn(day time.Time) []Block {
	return append([]Block(nil), c.blocks[daterange.Day(day)]...)
}

// UnavailableDates returns every blocked day in ascending order.
func (c *Calendar) UnavailableDates() []time.Time {
	out := make([]time.Time, 0, len(c.blocks))
	for d := range c.blocks {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// UnavailableWithin returns the blocked days of [r.Start, r.End).
func (c *Calendar) UnavailableWithin(r daterange.DateRange) []time.Time {
	var out []time.Time
	for _, d := range r.Days() {
		if c.IsUnavailable(d) {
			out = append(out, d)
		}
	}
	return out
}

func (c *Calendar) IsRangeBookable(r daterange.DateRange) bool {
	return c.CheckRange(r) == nil
}

// CheckRange explains why a range cannot be booked.
func (c *Calendar) CheckRange(r daterange.DateRange) error {
	if err := r.Validate(); err != nil {
		return rejection.New(rejection.InvalidRange, err.Error())
	}
	blocked := c.UnavailableWithin(r)
	if len(blocked) == 0 {
		return nil
	}
	return rejection.Newf(rejection.DatesUnavailable, "availability: %d night(s) unavailable starting %s", len(blocked), daterange.FormatDay(blocked[0]))
}

// OverrideBatch is the aggregate a host edits through the disponibility calendar.
type OverrideBatch struct {
	ListingID   listings.ListingID
	Overrides   []Override
	IsAvailable bool
	events.EventRecorder
}

// SetOverrides builds one override per distinct day. Only the listing owner may set them.
func SetOverrides(listing *listings.Listing, by actor.Actor, days []time.Time, isAvailable bool, now time.Time) (*OverrideBatch, error) {
	if listing == nil {
		return nil, listings.ErrNotFound
	}
	if !listing.OwnedBy(by.ID) {
		return nil, rejection.New(rejection.Unauthorized, "availability: only the listing host can edit its calendar")
	}
	if len(days) == 0 {
		return nil, ErrNoDates
	}
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	seen := make(map[time.Time]struct{}, len(days))
	batch := &OverrideBatch{ListingID: listing.ID, IsAvailable: isAvailable}
	for _, raw := range days {
		if raw.IsZero() {
			return nil, fmt.Errorf("availability: %w", daterange.ErrInvalidDay)
		}
		d := daterange.Day(raw)
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		batch.Overrides = append(batch.Overrides, Override{
			ListingID:   listing.ID,
			Date:        d,
			IsAvailable: isAvailable,
			UpdatedBy:   by.ID,
			UpdatedAt:   now,
		})
	}
	sort.Slice(batch.Overrides, func(i, j int) bool { return batch.Overrides[i].Date.Before(batch.Overrides[j].Date) })
	dates := make([]time.Time, len(batch.Overrides))
	for i, o := range batch.Overrides {
		dates[i] = o.Date
	}
	batch.Record(OverridesUpdated{ListingID: string(listing.ID), Dates: dates, IsAvailable: isAvailable, UpdatedBy: by.ID, At: now})
	return batch, nil
}
