package reservation

import (
	"time"

	"rentgate/internal/domain/listings"
	"rentgate/internal/domain/shared/daterange"
	"rentgate/internal/domain/shared/money"
)

type ReservationCreated struct {
	ReservationID ID
	Code          Code
	ListingID     listings.ListingID
	GuestID       string
	Mode          listings.RentalMode
	Range         daterange.DateRange
	VisitDate     time.Time
	TotalPrice    money.Money
	AmountDueNow  money.Money
	At            time.Time
}

func (e ReservationCreated) EventName() string     { return "reservation.created" }
func (e ReservationCreated) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationCreated) OccurredAt() time.Time { return e.At }

type ReservationConfirmed struct {
	ReservationID ID
	ListingID     listings.ListingID
	ConfirmedBy   string
	At            time.Time
}

func (e ReservationConfirmed) EventName() string     { return "reservation.confirmed" }
func (e ReservationConfirmed) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationConfirmed) OccurredAt() time.Time { return e.At }

type ReservationCancelled struct {
	ReservationID  ID
	ListingID      listings.ListingID
	PreviousStatus Status
	Reason         string
	CancelledBy    string
	Range          daterange.DateRange
	At             time.Time
}

func (e ReservationCancelled) EventName() string     { return "reservation.cancelled" }
func (e ReservationCancelled) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationCancelled) OccurredAt() time.Time { return e.At }

type ReservationArchived struct {
	ReservationID ID
	ArchivedBy    string
	At            time.Time
}

func (e ReservationArchived) EventName() string     { return "reservation.archived" }
func (e ReservationArchived) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationArchived) OccurredAt() time.Time { return e.At }

type ArrivalAttested struct {
	ReservationID ID
	GuestID       string
	At            time.Time
}

func (e ArrivalAttested) EventName() string     { return "reservation.arrival_validated" }
func (e ArrivalAttested) AggregateID() string   { return string(e.ReservationID) }
func (e ArrivalAttested) OccurredAt() time.Time { return e.At }

type PaymentAttested struct {
	ReservationID ID
	HostID        string
	At            time.Time
}

func (e PaymentAttested) EventName() string     { return "reservation.payment_confirmed" }
func (e PaymentAttested) AggregateID() string   { return string(e.ReservationID) }
func (e PaymentAttested) OccurredAt() time.Time { return e.At }
