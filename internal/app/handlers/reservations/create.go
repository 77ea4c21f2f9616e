package reservations

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
	domainpricing "rentgate/internal/domain/pricing"
	domainreservation "rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/daterange"
	"rentgate/internal/domain/shared/money"
	"rentgate/internal/domain/shared/rejection"
)

const createReservationKey = "reservations.create"

var ErrPricingRequired = errors.New("reservations: pricing port required")

// CreateReservationCommand carries the price the guest was shown. The server recomputes
// it and refuses the booking when they differ.
type CreateReservationCommand struct {
	Actor           actor.Actor
	ListingID       string `validate:"required"`
	Mode            string
	StartDate       time.Time
	EndDate         time.Time
	VisitDate       time.Time
	VisitTime       string `validate:"omitempty,max=5"`
	Message         string `validate:"max=2000"`
	QuotedTotal     int64  `validate:"gt=0"`
	QuotedDueNow    int64  `validate:"gte=0"`
	QuotedCurrency  string `validate:"omitempty,len=3"`
	IdempotencyKeyV string
}

func (c CreateReservationCommand) Key() string { return createReservationKey }

func (c CreateReservationCommand) Principal() actor.Actor { return c.Actor }

func (c CreateReservationCommand) IdempotencyKey() string {
	if c.IdempotencyKeyV == "" {
		return ""
	}
	return c.Actor.ID + ":" + c.IdempotencyKeyV
}

func (c CreateReservationCommand) ResultPrototype() any { return &dto.Reservation{} }

type CreateReservationHandler struct {
	Pricing policies.PricingPort
	Codes   domainreservation.CodeGenerator
	IDs     policies.IDGenerator
	Clock   policies.Clock
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *CreateReservationHandler) Handle(ctx context.Context, cmd CreateReservationCommand) (*dto.Reservation, error) {
	if h.Pricing == nil {
		return nil, ErrPricingRequired
	}
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(strings.TrimSpace(cmd.ListingID)))
	if err != nil {
		return nil, err
	}
	mode, err := resolveMode(listing, cmd.Mode)
	if err != nil {
		return nil, err
	}

	var stay daterange.DateRange
	if mode == domainlistings.ModeShortTerm {
		stay, err = daterange.New(cmd.StartDate, cmd.EndDate)
		if err != nil {
			return nil, err
		}
	}
	quote, err := h.Pricing.Quote(listing, mode, stay)
	if err != nil {
		return nil, err
	}
	if err := matchQuote(quote, cmd); err != nil {
		return nil, err
	}

	code, err := h.codes().NewCode()
	if err != nil {
		return nil, err
	}
	res, err := domainreservation.New(domainreservation.CreateParams{
		ID:        domainreservation.ID(h.IDs.NewID()),
		Code:      code,
		Guest:     cmd.Actor,
		Listing:   listing,
		Mode:      mode,
		Range:     stay,
		VisitDate: cmd.VisitDate,
		VisitTime: cmd.VisitTime,
		Message:   cmd.Message,
		Quote:     quote,
		Now:       h.Clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	if err := unit.LockCalendar(ctx, listing.ID); err != nil {
		return nil, err
	}
	if err := checkCalendar(ctx, unit, res); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Create(ctx, res); err != nil {
		return nil, err
	}
	if err := outbox.Publish(ctx, h.Outbox, h.Encoder, res); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("reservation created",
			"reservation_id", res.ID,
			"code", res.Code,
			"listing_id", res.ListingID,
			"guest_id", res.GuestID,
			"mode", res.Mode,
		)
	}
	out := dto.MapReservation(res, dto.ReservationView{Viewer: cmd.Actor})
	return &out, nil
}

func (h *CreateReservationHandler) codes() domainreservation.CodeGenerator {
	if h.Codes != nil {
		return h.Codes
	}
	return domainreservation.RandomCodes{}
}

func resolveMode(listing *domainlistings.Listing, raw string) (domainlistings.RentalMode, error) {
	var requested domainlistings.RentalMode
	if strings.TrimSpace(raw) != "" {
		parsed, err := domainlistings.ParseRentalMode(raw)
		if err != nil {
			return "", errors.Join(middleware.ErrInvalidInput, err)
		}
		requested = parsed
	}
	mode, err := listing.ResolveMode(requested)
	if err != nil {
		return "", errors.Join(middleware.ErrInvalidInput, err)
	}
	return mode, nil
}

func matchQuote(quote domainpricing.Quote, cmd CreateReservationCommand) error {
	expected := quote
	expected.TotalPrice = money.Money{Amount: cmd.QuotedTotal, Currency: quote.TotalPrice.Currency}
	if cmd.QuotedCurrency != "" {
		expected.TotalPrice.Currency = cmd.QuotedCurrency
	}
	if cmd.QuotedDueNow > 0 {
		expected.AmountDueNow = money.Money{Amount: cmd.QuotedDueNow, Currency: expected.TotalPrice.Currency}
	}
	if !quote.Matches(expected) {
		return rejection.Newf(rejection.PriceMismatch,
			"quoted total %d %s does not match current total %d %s",
			cmd.QuotedTotal, expected.TotalPrice.Currency, quote.TotalPrice.Amount, quote.TotalPrice.Currency)
	}
	return nil
}

// checkCalendar must run after LockCalendar so the read and the insert form one unit.
func checkCalendar(ctx context.Context, unit uow.UnitOfWork, res *domainreservation.Reservation) error {
	active, err := unit.Reservations().ActiveByListing(ctx, res.ListingID)
	if err != nil {
		return err
	}
	overrides, err := unit.Overrides().ByListing(ctx, res.ListingID)
	if err != nil {
		return err
	}
	cal := domainavailability.NewCalendar(res.ListingID, active, overrides)
	if res.Mode == domainlistings.ModeMonthly {
		if cal.IsUnavailable(res.VisitDate) {
			return rejection.Newf(rejection.DatesUnavailable, "visit date %s is unavailable", daterange.FormatDay(res.VisitDate))
		}
		return nil
	}
	return cal.CheckRange(res.Range)
}

var _ commands.Handler[CreateReservationCommand, *dto.Reservation] = (*CreateReservationHandler)(nil)
var _ middleware.IdempotentCommand = CreateReservationCommand{}
