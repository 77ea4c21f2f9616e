package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentgate/internal/domain/listings"
	"rentgate/internal/domain/pricing"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/daterange"
	"rentgate/internal/domain/shared/events"
	"rentgate/internal/domain/shared/rejection"
)

var (
	ErrNotFound         = errors.New("reservation: not found")
	ErrCodeTaken        = errors.New("reservation: code already in use")
	ErrConcurrentUpdate = errors.New("reservation: concurrent update")
	ErrIDRequired       = errors.New("reservation: id is required")
	ErrCodeRequired     = errors.New("reservation: code is required")
	ErrListingRequired  = errors.New("reservation: listing is required")
)

type ID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, true
	case StatusConfirmed:
		return StatusConfirmed, true
	case StatusCancelled:
		return StatusCancelled, true
	default:
		return "", false
	}
}

type ArrivalStatus string

const (
	ArrivalNotValidated ArrivalStatus = "not_validated"
	ArrivalValidated    ArrivalStatus = "validated"
)

type HostPaymentStatus string

const (
	HostPaymentNotConfirmed HostPaymentStatus = "not_confirmed"
	HostPaymentConfirmed    HostPaymentStatus = "confirmed"
)

// PaymentEvidence summarises the ledger of a reservation for the transition guards.
// Each flag answers "does at least one transaction satisfy ...", never "does the latest".
type PaymentEvidence struct {
	Succeeded        bool
	Paid             bool
	SucceededAndPaid bool
}

type Reservation struct {
	ID                 ID
	Code               Code
	GuestID            string
	ListingID          listings.ListingID
	HostID             listings.HostID
	Mode               listings.RentalMode
	Range              daterange.DateRange
	VisitDate          time.Time
	VisitTime          string
	Message            string
	Quote              pricing.Quote
	Status             Status
	ArrivalStatus      ArrivalStatus
	HostPaymentStatus  HostPaymentStatus
	Archived           bool
	CancellationReason string
	CancelledBy        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int64
	events.EventRecorder
}

// ListFilter selects reservations for read paths. Empty fields do not constrain.
type ListFilter struct {
	GuestID         string
	HostID          listings.HostID
	ListingID       listings.ListingID
	Status          Status
	IncludeArchived bool
}

func (f ListFilter) Match(r *Reservation) bool {
	if f.GuestID != "" && r.GuestID != f.GuestID {
		return false
	}
	if f.HostID != "" && r.HostID != f.HostID {
		return false
	}
	if f.ListingID != "" && r.ListingID != f.ListingID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if r.Archived && !f.IncludeArchived {
		return false
	}
	return true
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Reservation, error)
	// Create inserts a new reservation and fails with ErrCodeTaken on a code collision.
	Create(ctx context.Context, r *Reservation) error
	// Save persists a loaded reservation, failing with ErrConcurrentUpdate when the
	// stored version moved since it was read.
	Save(ctx context.Context, r *Reservation) error
	// ActiveByListing returns every non-cancelled reservation of the listing.
	ActiveByListing(ctx context.Context, listingID listings.ListingID) ([]*Reservation, error)
	List(ctx context.Context, filter ListFilter) ([]*Reservation, error)
}

type CreateParams struct {
	ID        ID
	Code      Code
	Guest     actor.Actor
	Listing   *listings.Listing
	Mode      listings.RentalMode
	Range     daterange.DateRange
	VisitDate time.Time
	VisitTime string
	Message   string
	Quote     pricing.Quote
	Now       time.Time
}

// New creates a pending reservation. Calendar and price checks happen in the caller,
// which owns the listing lock; New validates only what the reservation itself knows.
func New(params CreateParams) (*Reservation, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if params.Code == "" {
		return nil, ErrCodeRequired
	}
	if params.Listing == nil {
		return nil, ErrListingRequired
	}
	if !params.Guest.Valid() {
		return nil, rejection.New(rejection.Unauthorized, "reservation: guest is required")
	}
	if params.Listing.OwnedBy(params.Guest.ID) {
		return nil, rejection.New(rejection.Unauthorized, "reservation: hosts cannot book their own listing")
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	r := &Reservation{
		ID:                params.ID,
		Code:              params.Code,
		GuestID:           params.Guest.ID,
		ListingID:         params.Listing.ID,
		HostID:            params.Listing.Host,
		Mode:              params.Mode,
		Message:           strings.TrimSpace(params.Message),
		Quote:             params.Quote,
		Status:            StatusPending,
		ArrivalStatus:     ArrivalNotValidated,
		HostPaymentStatus: HostPaymentNotConfirmed,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	switch params.Mode {
	case listings.ModeShortTerm:
		if err := params.Range.Validate(); err != nil {
			return nil, rejection.New(rejection.InvalidRange, err.Error())
		}
		if params.Range.Start.Before(daterange.Day(now)) {
			return nil, rejection.New(rejection.InvalidRange, "reservation: start date is in the past")
		}
		r.Range = params.Range
	case listings.ModeMonthly:
		if params.VisitDate.IsZero() {
			return nil, rejection.New(rejection.InvalidRange, "reservation: visit date is required")
		}
		visit := daterange.Day(params.VisitDate)
		if visit.Before(daterange.Day(now)) {
			return nil, rejection.New(rejection.InvalidRange, "reservation: visit date is in the past")
		}
		visitTime, err := normalizeVisitTime(params.VisitTime)
		if err != nil {
			return nil, err
		}
		r.VisitDate = visit
		r.VisitTime = visitTime
	default:
		return nil, listings.ErrInvalidMode
	}

	r.Record(ReservationCreated{
		ReservationID: r.ID,
		Code:          r.Code,
		ListingID:     r.ListingID,
		GuestID:       r.GuestID,
		Mode:          r.Mode,
		Range:         r.Range,
		VisitDate:     r.VisitDate,
		TotalPrice:    r.Quote.TotalPrice,
		AmountDueNow:  r.Quote.AmountDueNow,
		At:            now,
	})
	return r, nil
}

func normalizeVisitTime(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return "", rejection.New(rejection.InvalidRange, "reservation: visit time must use HH:MM")
	}
	return t.Format("15:04"), nil
}

func (r *Reservation) IsGuest(a actor.Actor) bool {
	return a.Is(r.GuestID)
}

func (r *Reservation) IsHost(a actor.Actor) bool {
	return a.Is(string(r.HostID))
}

// IsParty reports whether the actor is the guest or the host of the reservation.
func (r *Reservation) IsParty(a actor.Actor) bool {
	return r.IsGuest(a) || r.IsHost(a)
}

// BlocksCalendar reports whether the reservation holds nights on the listing calendar.
// Monthly reservations are viewing appointments and hold none.
func (r *Reservation) BlocksCalendar() bool {
	return r.Status != StatusCancelled && r.Mode == listings.ModeShortTerm && !r.Range.IsZero()
}

func (r *Reservation) touch(now time.Time) time.Time {
	if now.IsZero() {
		now = time.Now()
	}
	r.UpdatedAt = now.UTC()
	return r.UpdatedAt
}

// Clone returns a deep copy without pending events.
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	clone := *r
	clone.EventRecorder = events.EventRecorder{}
	return &clone
}
