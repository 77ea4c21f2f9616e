package availability

import (
	"context"
	"strings"
	"time"

	"rentgate/internal/app/dto"
	"rentgate/internal/app/handlers/support"
	"rentgate/internal/app/queries"
	"rentgate/internal/app/uow"
	domainavailability "rentgate/internal/domain/availability"
	domainlistings "rentgate/internal/domain/listings"
	"rentgate/internal/domain/shared/actor"
)

const getCalendarKey = "availability.calendar"

// GetCalendarQuery is public. Sources are only rendered for the listing host and admins.
type GetCalendarQuery struct {
	Viewer    actor.Actor
	ListingID string `validate:"required"`
	From      time.Time
	To        time.Time
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(strings.TrimSpace(q.ListingID)))
	if err != nil {
		return dto.Calendar{}, err
	}
	resolver := domainavailability.Resolver{Reservations: unit.Reservations(), Overrides: unit.Overrides()}
	cal, err := resolver.Calendar(execCtx, listing.ID)
	if err != nil {
		return dto.Calendar{}, err
	}
	withSources := q.Viewer.IsAdmin() || listing.OwnedBy(q.Viewer.ID)
	return dto.MapCalendar(cal, q.From, q.To, withSources), nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
