package pricing

import (
	"errors"

	"rentgate/internal/domain/listings"
	"rentgate/internal/domain/shared/daterange"
	"rentgate/internal/domain/shared/money"
	"rentgate/internal/domain/shared/rejection"
)

const (
	DefaultNightFee int64 = 1000
	DefaultFlatFee  int64 = 1000
)

var (
	ErrListingRequired = errors.New("pricing: listing is required")
	ErrRateMissing     = errors.New("pricing: listing has no rate for the requested mode")
)

// Quote is the price a guest owes. AmountDueNow is paid up front through the platform;
// the base price is settled directly between guest and host.
type Quote struct {
	Mode         listings.RentalMode
	Nights       int
	BasePrice    money.Money
	Commission   money.Money
	TotalPrice   money.Money
	AmountDueNow money.Money
}

// Matches compares the client-visible amounts of two quotes.
func (q Quote) Matches(other Quote) bool {
	return q.Mode == other.Mode &&
		q.BasePrice.Equal(other.BasePrice) &&
		q.Commission.Equal(other.Commission) &&
		q.TotalPrice.Equal(other.TotalPrice) &&
		q.AmountDueNow.Equal(other.AmountDueNow)
}

// Engine computes quotes. It holds no state beyond its fee configuration.
type Engine struct {
	NightFee int64
	FlatFee  int64
}

func NewEngine(nightFee, flatFee int64) Engine {
	if nightFee < 0 {
		nightFee = DefaultNightFee
	}
	if flatFee < 0 {
		flatFee = DefaultFlatFee
	}
	return Engine{NightFee: nightFee, FlatFee: flatFee}
}

func DefaultEngine() Engine {
	return Engine{NightFee: DefaultNightFee, FlatFee: DefaultFlatFee}
}

// Quote prices a stay. For monthly listings the range is ignored: the booking is a
// viewing appointment and the commission is charged once.
func (e Engine) Quote(listing *listings.Listing, mode listings.RentalMode, r daterange.DateRange) (Quote, error) {
	if listing == nil {
		return Quote{}, ErrListingRequired
	}
	switch mode {
	case listings.ModeShortTerm:
		return e.shortTerm(listing, r)
	case listings.ModeMonthly:
		return e.monthly(listing)
	default:
		return Quote{}, listings.ErrInvalidMode
	}
}

func (e Engine) shortTerm(listing *listings.Listing, r daterange.DateRange) (Quote, error) {
	if err := r.Validate(); err != nil {
		return Quote{}, rejection.New(rejection.InvalidRange, err.Error())
	}
	rate := listing.NightlyPrice
	if !rate.IsPositive() || rate.Currency == "" {
		return Quote{}, ErrRateMissing
	}
	nights := r.Nights()
	if nights < 1 {
		nights = 1
	}
	base := rate.Multiply(int64(nights))
	commission := money.Money{Amount: e.NightFee * int64(nights), Currency: rate.Currency}
	return assemble(listings.ModeShortTerm, nights, base, commission)
}

func (e Engine) monthly(listing *listings.Listing) (Quote, error) {
	rate := listing.MonthlyPrice
	if !rate.IsPositive() || rate.Currency == "" {
		return Quote{}, ErrRateMissing
	}
	commission := money.Money{Amount: e.FlatFee, Currency: rate.Currency}
	return assemble(listings.ModeMonthly, 0, rate, commission)
}

func assemble(mode listings.RentalMode, nights int, base, commission money.Money) (Quote, error) {
	total, err := base.Add(commission)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Mode:         mode,
		Nights:       nights,
		BasePrice:    base,
		Commission:   commission,
		TotalPrice:   total,
		AmountDueNow: commission,
	}, nil
}
