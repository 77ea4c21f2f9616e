package reservation

import (
	"strings"
	"time"

	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/rejection"
)

type Transition string

const (
	TransitionConfirm         Transition = "confirm"
	TransitionCancel          Transition = "cancel"
	TransitionArchive         Transition = "archive"
	TransitionValidateArrival Transition = "validate_arrival"
	TransitionConfirmPayment  Transition = "confirm_payment"
)

var allTransitions = []Transition{
	TransitionConfirm,
	TransitionCancel,
	TransitionArchive,
	TransitionValidateArrival,
	TransitionConfirmPayment,
}

// Guard reports the single reason a transition is currently refused, or nil.
func (r *Reservation) Guard(t Transition, a actor.Actor, evidence PaymentEvidence) error {
	switch t {
	case TransitionConfirm:
		return r.guardConfirm(a)
	case TransitionCancel:
		return r.guardCancel(a)
	case TransitionArchive:
		return r.guardArchive(a)
	case TransitionValidateArrival:
		return r.guardValidateArrival(a, evidence)
	case TransitionConfirmPayment:
		return r.guardConfirmPayment(a, evidence)
	default:
		return rejection.Newf(rejection.InvalidStateTransition, "reservation: unknown transition %q", t)
	}
}

// LegalTransitions lists what the actor may do right now, in a stable order.
func (r *Reservation) LegalTransitions(a actor.Actor, evidence PaymentEvidence) []Transition {
	out := make([]Transition, 0, len(allTransitions))
	for _, t := range allTransitions {
		if t == TransitionArchive && r.Archived {
			continue
		}
		if r.Guard(t, a, evidence) == nil {
			out = append(out, t)
		}
	}
	return out
}

func (r *Reservation) guardConfirm(a actor.Actor) error {
	if !r.IsHost(a) {
		return rejection.New(rejection.Unauthorized, "reservation: only the listing host can confirm")
	}
	switch r.Status {
	case StatusPending:
		return nil
	case StatusConfirmed:
		return rejection.New(rejection.AlreadyInTargetState, "reservation: already confirmed")
	default:
		return rejection.Newf(rejection.InvalidStateTransition, "reservation: cannot confirm a %s reservation", r.Status)
	}
}

func (r *Reservation) guardCancel(a actor.Actor) error {
	if !r.IsParty(a) {
		return rejection.New(rejection.Unauthorized, "reservation: only the guest or the host can cancel")
	}
	switch r.Status {
	case StatusPending, StatusConfirmed:
		return nil
	case StatusCancelled:
		return rejection.New(rejection.AlreadyInTargetState, "reservation: already cancelled")
	default:
		return rejection.Newf(rejection.InvalidStateTransition, "reservation: cannot cancel a %s reservation", r.Status)
	}
}

func (r *Reservation) guardArchive(a actor.Actor) error {
	if !r.IsHost(a) && !a.IsAdmin() {
		return rejection.New(rejection.Unauthorized, "reservation: only the host or an admin can archive")
	}
	if r.Status != StatusCancelled {
		return rejection.New(rejection.InvalidStateTransition, "reservation: only cancelled reservations can be archived")
	}
	return nil
}

func (r *Reservation) guardValidateArrival(a actor.Actor, evidence PaymentEvidence) error {
	if !r.IsGuest(a) {
		return rejection.New(rejection.Unauthorized, "reservation: only the guest can validate arrival")
	}
	if r.Status != StatusConfirmed {
		return rejection.New(rejection.InvalidStateTransition, "reservation: arrival can only be validated on a confirmed reservation")
	}
	if r.ArrivalStatus == ArrivalValidated {
		return rejection.New(rejection.AlreadyInTargetState, "reservation: arrival already validated")
	}
	if !evidence.SucceededAndPaid {
		return rejection.New(rejection.MissingSuccessfulTransaction, "reservation: no succeeded and paid transaction")
	}
	return nil
}

func (r *Reservation) guardConfirmPayment(a actor.Actor, evidence PaymentEvidence) error {
	if !r.IsHost(a) {
		return rejection.New(rejection.Unauthorized, "reservation: only the listing host can confirm payment")
	}
	if r.HostPaymentStatus == HostPaymentConfirmed {
		return rejection.New(rejection.AlreadyInTargetState, "reservation: payment already confirmed")
	}
	if !evidence.Succeeded {
		return rejection.New(rejection.MissingSuccessfulTransaction, "reservation: no succeeded transaction")
	}
	return nil
}

func (r *Reservation) Confirm(a actor.Actor, now time.Time) error {
	if err := r.guardConfirm(a); err != nil {
		return err
	}
	r.Status = StatusConfirmed
	at := r.touch(now)
	r.Record(ReservationConfirmed{ReservationID: r.ID, ListingID: r.ListingID, ConfirmedBy: a.ID, At: at})
	return nil
}

// Cancel frees the reservation's nights. The arrival status is left untouched.
func (r *Reservation) Cancel(a actor.Actor, reason string, now time.Time) error {
	if err := r.guardCancel(a); err != nil {
		return err
	}
	previous := r.Status
	r.Status = StatusCancelled
	r.CancellationReason = strings.TrimSpace(reason)
	r.CancelledBy = a.ID
	at := r.touch(now)
	r.Record(ReservationCancelled{
		ReservationID:  r.ID,
		ListingID:      r.ListingID,
		PreviousStatus: previous,
		Reason:         r.CancellationReason,
		CancelledBy:    a.ID,
		Range:          r.Range,
		At:             at,
	})
	return nil
}

// Archive is idempotent: archiving an archived reservation succeeds without change.
func (r *Reservation) Archive(a actor.Actor, now time.Time) (bool, error) {
	if err := r.guardArchive(a); err != nil {
		return false, err
	}
	if r.Archived {
		return false, nil
	}
	r.Archived = true
	at := r.touch(now)
	r.Record(ReservationArchived{ReservationID: r.ID, ArchivedBy: a.ID, At: at})
	return true, nil
}

func (r *Reservation) ValidateArrival(a actor.Actor, evidence PaymentEvidence, now time.Time) error {
	if err := r.guardValidateArrival(a, evidence); err != nil {
		return err
	}
	r.ArrivalStatus = ArrivalValidated
	at := r.touch(now)
	r.Record(ArrivalAttested{ReservationID: r.ID, GuestID: r.GuestID, At: at})
	return nil
}

func (r *Reservation) ConfirmPayment(a actor.Actor, evidence PaymentEvidence, now time.Time) error {
	if err := r.guardConfirmPayment(a, evidence); err != nil {
		return err
	}
	r.HostPaymentStatus = HostPaymentConfirmed
	at := r.touch(now)
	r.Record(PaymentAttested{ReservationID: r.ID, HostID: string(r.HostID), At: at})
	return nil
}
