package dto

import (
	"time"

	domainledger "rentgate/internal/domain/ledger"
	domainreservation "rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/daterange"
)

type Reservation struct {
	ID                 string       `json:"id"`
	Code               string       `json:"code"`
	ListingID          string       `json:"listing_id"`
	GuestID            string       `json:"guest_id"`
	HostID             string       `json:"host_id"`
	RentalMode         string       `json:"rental_mode"`
	StartDate          string       `json:"start_date,omitempty"`
	EndDate            string       `json:"end_date,omitempty"`
	VisitDate          string       `json:"visit_date,omitempty"`
	VisitTime          string       `json:"visit_time,omitempty"`
	Message            string       `json:"message,omitempty"`
	Quote              Quote        `json:"quote"`
	Status             string       `json:"status"`
	ArrivalStatus      string       `json:"client_arrival_status"`
	HostPaymentStatus  string       `json:"host_payment_status"`
	Archived           bool         `json:"archived"`
	CancellationReason string       `json:"cancellation_reason,omitempty"`
	CancelledBy        string       `json:"cancelled_by,omitempty"`
	LatestTransaction  *Transaction `json:"latest_transaction,omitempty"`
	AllowedActions     []string     `json:"allowed_actions"`
	CanViewContact     bool         `json:"can_view_contact"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
	Version            int64        `json:"version"`
}

type ReservationCollection struct {
	Items []Reservation `json:"items"`
}

// ReservationView carries what the viewer may do with the reservation.
type ReservationView struct {
	Viewer         actor.Actor
	Transactions   []*domainledger.Transaction
	CanViewContact bool
}

func MapReservation(r *domainreservation.Reservation, view ReservationView) Reservation {
	out := Reservation{
		ID:                 string(r.ID),
		Code:               string(r.Code),
		ListingID:          string(r.ListingID),
		GuestID:            r.GuestID,
		HostID:             string(r.HostID),
		RentalMode:         string(r.Mode),
		VisitTime:          r.VisitTime,
		Message:            r.Message,
		Quote:              MapQuote(r.Quote),
		Status:             string(r.Status),
		ArrivalStatus:      string(r.ArrivalStatus),
		HostPaymentStatus:  string(r.HostPaymentStatus),
		Archived:           r.Archived,
		CancellationReason: r.CancellationReason,
		CancelledBy:        r.CancelledBy,
		CanViewContact:     view.CanViewContact,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		Version:            r.Version,
	}
	if !r.Range.IsZero() {
		out.StartDate = daterange.FormatDay(r.Range.Start)
		out.EndDate = daterange.FormatDay(r.Range.End)
	}
	if !r.VisitDate.IsZero() {
		out.VisitDate = daterange.FormatDay(r.VisitDate)
	}
	if latest := domainledger.Latest(view.Transactions); latest != nil {
		tx := MapTransaction(latest, view.Viewer, view.CanViewContact)
		out.LatestTransaction = &tx
	}
	evidence := domainledger.Evidence(view.Transactions)
	transitions := r.LegalTransitions(view.Viewer, evidence)
	out.AllowedActions = make([]string, 0, len(transitions))
	for _, t := range transitions {
		out.AllowedActions = append(out.AllowedActions, string(t))
	}
	return out
}
