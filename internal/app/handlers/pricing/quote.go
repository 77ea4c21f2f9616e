package pricing

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentgate/internal/app/dto"
	"rentgate/internal/app/handlers/support"
	"rentgate/internal/app/middleware"
	"rentgate/internal/app/policies"
	"rentgate/internal/app/queries"
	"rentgate/internal/app/uow"
	domainlistings "rentgate/internal/domain/listings"
	"rentgate/internal/domain/shared/daterange"
)

const getQuoteKey = "pricing.quote"

var ErrPricingRequired = errors.New("pricing: engine not configured")

// GetQuoteQuery previews the price the create flow will recompute. Start and End are
// ignored for monthly listings.
type GetQuoteQuery struct {
	ListingID string `validate:"required"`
	Mode      string
	Start     time.Time
	End       time.Time
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

type GetQuoteHandler struct {
	UoWFactory uow.UoWFactory
	Pricing    policies.PricingPort
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (dto.Quote, error) {
	if h.Pricing == nil {
		return dto.Quote{}, ErrPricingRequired
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(strings.TrimSpace(q.ListingID)))
	if err != nil {
		return dto.Quote{}, err
	}

	var requested domainlistings.RentalMode
	if strings.TrimSpace(q.Mode) != "" {
		requested, err = domainlistings.ParseRentalMode(q.Mode)
		if err != nil {
			return dto.Quote{}, errors.Join(middleware.ErrInvalidInput, err)
		}
	}
	mode, err := listing.ResolveMode(requested)
	if err != nil {
		return dto.Quote{}, errors.Join(middleware.ErrInvalidInput, err)
	}

	var stay daterange.DateRange
	if mode == domainlistings.ModeShortTerm {
		stay, err = daterange.New(q.Start, q.End)
		if err != nil {
			return dto.Quote{}, err
		}
	}
	quote, err := h.Pricing.Quote(listing, mode, stay)
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(quote), nil
}

func (h *GetQuoteHandler) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler[GetQuoteQuery, dto.Quote](bus, getQuoteKey, h)
}

var _ queries.Handler[GetQuoteQuery, dto.Quote] = (*GetQuoteHandler)(nil)
