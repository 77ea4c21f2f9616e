// Package access decides when reservation parties may see each other's contact details.
package access

import (
	"rentgate/internal/domain/ledger"
	"rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/actor"
)

// CanViewContact is one predicate for every contact field. Admins always pass; a party
// passes once the reservation is confirmed and some transaction is settled as paid.
// The attestation flags on the reservation play no part.
func CanViewContact(viewer actor.Actor, r *reservation.Reservation, txs []*ledger.Transaction) bool {
	if viewer.IsAdmin() {
		return true
	}
	if r == nil || !r.IsParty(viewer) {
		return false
	}
	if r.Status != reservation.StatusConfirmed {
		return false
	}
	return ledger.Evidence(txs).Paid
}

// Counterparty returns the user id whose contact the viewer would see.
func Counterparty(viewer actor.Actor, r *reservation.Reservation) string {
	if r.IsGuest(viewer) {
		return string(r.HostID)
	}
	return r.GuestID
}
