package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentgate/internal/domain/shared/money"
)

var (
	ErrNotFound         = errors.New("listings: not found")
	ErrIDRequired       = errors.New("listings: id is required")
	ErrHostRequired     = errors.New("listings: host is required")
	ErrInvalidMode      = errors.New("listings: unknown rental mode")
	ErrModeNotOffered   = errors.New("listings: rental mode not offered by listing")
	ErrNightlyPrice     = errors.New("listings: nightly price must be positive for short-term listings")
	ErrMonthlyPrice     = errors.New("listings: monthly price must be positive for monthly listings")
	ErrCurrencyMismatch = errors.New("listings: nightly and monthly prices must share a currency")
)

type ListingID string
type HostID string

type RentalMode string

const (
	ModeShortTerm RentalMode = "short_term"
	ModeMonthly   RentalMode = "monthly"
)

func ParseRentalMode(raw string) (RentalMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "short_term", "shortterm", "night", "nightly":
		return ModeShortTerm, nil
	case "monthly", "month":
		return ModeMonthly, nil
	default:
		return "", ErrInvalidMode
	}
}

// Listing carries only the fields the reservation core reads; listing CRUD lives elsewhere.
type Listing struct {
	ID           ListingID
	Host         HostID
	Title        string
	City         string
	NightlyPrice money.Money
	MonthlyPrice money.Money
	RentalMode   RentalMode
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	ListByHost(ctx context.Context, host HostID) ([]*Listing, error)
}

type CreateParams struct {
	ID           ListingID
	Host         HostID
	Title        string
	City         string
	NightlyPrice money.Money
	MonthlyPrice money.Money
	RentalMode   RentalMode
	Now          time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, ErrHostRequired
	}
	switch params.RentalMode {
	case ModeShortTerm:
		if !params.NightlyPrice.IsPositive() {
			return nil, ErrNightlyPrice
		}
	case ModeMonthly:
		if !params.MonthlyPrice.IsPositive() {
			return nil, ErrMonthlyPrice
		}
	default:
		return nil, ErrInvalidMode
	}
	if params.NightlyPrice.Currency != "" && params.MonthlyPrice.Currency != "" &&
		!strings.EqualFold(params.NightlyPrice.Currency, params.MonthlyPrice.Currency) {
		return nil, ErrCurrencyMismatch
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Listing{
		ID:           params.ID,
		Host:         params.Host,
		Title:        strings.TrimSpace(params.Title),
		City:         strings.TrimSpace(params.City),
		NightlyPrice: params.NightlyPrice,
		MonthlyPrice: params.MonthlyPrice,
		RentalMode:   params.RentalMode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (l *Listing) OwnedBy(userID string) bool {
	return l != nil && userID != "" && string(l.Host) == userID
}

// ResolveMode returns the mode a booking request runs under, defaulting to the listing's own.
func (l *Listing) ResolveMode(requested RentalMode) (RentalMode, error) {
	if requested == "" {
		return l.RentalMode, nil
	}
	if requested != l.RentalMode {
		return "", ErrModeNotOffered
	}
	return requested, nil
}

// Currency is the currency of the listing's active rate.
func (l *Listing) Currency() string {
	if l.RentalMode == ModeMonthly {
		return l.MonthlyPrice.Currency
	}
	return l.NightlyPrice.Currency
}
