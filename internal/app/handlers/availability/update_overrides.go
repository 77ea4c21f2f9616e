package availability

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rentgate/internal/app/commands"
	"rentgate/internal/app/dto"
	"rentgate/internal/app/middleware"
	"rentgate/internal/app/outbox"
	"rentgate/internal/app/policies"
	"rentgate/internal/app/uow"
	domainavailability "rentgate/internal/domain/availability"
	domainlistings "rentgate/internal/domain/listings"
	"rentgate/internal/domain/shared/actor"
)

const updateOverridesKey = "availability.update_overrides"

type UpdateOverridesCommand struct {
	Actor       actor.Actor
	ListingID   string      `validate:"required"`
	Dates       []time.Time `validate:"required,min=1,max=366"`
	IsAvailable bool
}

func (c UpdateOverridesCommand) Key() string            { return updateOverridesKey }
func (c UpdateOverridesCommand) Principal() actor.Actor { return c.Actor }

type UpdateOverridesHandler struct {
	Clock   policies.Clock
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *UpdateOverridesHandler) Handle(ctx context.Context, cmd UpdateOverridesCommand) (*dto.OverridesResult, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(strings.TrimSpace(cmd.ListingID)))
	if err != nil {
		return nil, err
	}
	batch, err := domainavailability.SetOverrides(listing, cmd.Actor, cmd.Dates, cmd.IsAvailable, h.Clock.Now())
	if err != nil {
		if errors.Is(err, domainavailability.ErrNoDates) {
			return nil, errors.Join(middleware.ErrInvalidInput, err)
		}
		return nil, err
	}
	// Overrides change the booked-date set just like reservations do.
	if err := unit.LockCalendar(ctx, listing.ID); err != nil {
		return nil, err
	}
	if err := unit.Overrides().Upsert(ctx, batch.Overrides); err != nil {
		return nil, err
	}
	if err := outbox.Publish(ctx, h.Outbox, h.Encoder, batch); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("calendar overrides updated",
			"listing_id", listing.ID,
			"days", len(batch.Overrides),
			"is_available", batch.IsAvailable,
		)
	}
	out := dto.MapOverrides(batch)
	return &out, nil
}

var _ commands.Handler[UpdateOverridesCommand, *dto.OverridesResult] = (*UpdateOverridesHandler)(nil)
