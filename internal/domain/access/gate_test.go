package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentgate/internal/domain/ledger"
	"rentgate/internal/domain/listings"
	"rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/money"
)

var (
	now      = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	guest    = actor.Actor{ID: "guest-1", Role: actor.RoleGuest}
	host     = actor.Actor{ID: "host-1", Role: actor.RoleGuest}
	admin    = actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}
	stranger = actor.Actor{ID: "guest-9", Role: actor.RoleGuest}
)

func confirmedReservation() *reservation.Reservation {
	return &reservation.Reservation{
		ID:                "res-1",
		GuestID:           guest.ID,
		HostID:            listings.HostID(host.ID),
		Mode:              listings.ModeShortTerm,
		Status:            reservation.StatusConfirmed,
		ArrivalStatus:     reservation.ArrivalNotValidated,
		HostPaymentStatus: reservation.HostPaymentNotConfirmed,
	}
}

func paidTransaction(t *testing.T) *ledger.Transaction {
	t.Helper()
	tx, err := ledger.Record(ledger.RecordParams{ID: "tx-1", ReservationID: "res-1", Method: ledger.MethodMobileMoney, Amount: money.Must(3000, "XOF"), Now: now})
	require.NoError(t, err)
	succeeded, paid := ledger.ProcessingSucceeded, ledger.SettlementPaid
	_, err = tx.UpdateStatus(admin, ledger.StatusUpdate{Processing: &succeeded, Settlement: &paid}, now)
	require.NoError(t, err)
	return tx
}

func TestAdminAlwaysSeesContact(t *testing.T) {
	for _, status := range []reservation.Status{reservation.StatusPending, reservation.StatusConfirmed, reservation.StatusCancelled} {
		r := confirmedReservation()
		r.Status = status
		assert.True(t, CanViewContact(admin, r, nil), status)
	}
}

func TestStrangerNeverSeesContact(t *testing.T) {
	txs := []*ledger.Transaction{paidTransaction(t)}
	for _, status := range []reservation.Status{reservation.StatusPending, reservation.StatusConfirmed, reservation.StatusCancelled} {
		r := confirmedReservation()
		r.Status = status
		r.ArrivalStatus = reservation.ArrivalValidated
		r.HostPaymentStatus = reservation.HostPaymentConfirmed
		assert.False(t, CanViewContact(stranger, r, txs), status)
	}
}

func TestPartiesNeedConfirmedAndPaid(t *testing.T) {
	r := confirmedReservation()
	assert.False(t, CanViewContact(guest, r, nil))
	assert.False(t, CanViewContact(host, r, nil))

	txs := []*ledger.Transaction{paidTransaction(t)}
	assert.True(t, CanViewContact(guest, r, txs))
	assert.True(t, CanViewContact(host, r, txs))

	r.Status = reservation.StatusPending
	assert.False(t, CanViewContact(guest, r, txs))
}

func TestGateIgnoresAttestationFlags(t *testing.T) {
	r := confirmedReservation()
	txs := []*ledger.Transaction{paidTransaction(t)}

	r.ArrivalStatus = reservation.ArrivalValidated
	assert.True(t, CanViewContact(guest, r, txs))
	assert.Equal(t, reservation.HostPaymentNotConfirmed, r.HostPaymentStatus)

	unpaid, err := ledger.Record(ledger.RecordParams{ID: "tx-2", ReservationID: "res-1", Method: ledger.MethodCash, Amount: money.Must(3000, "XOF"), Now: now})
	require.NoError(t, err)
	r.HostPaymentStatus = reservation.HostPaymentConfirmed
	assert.False(t, CanViewContact(host, r, []*ledger.Transaction{unpaid}))
}

func TestCounterparty(t *testing.T) {
	r := confirmedReservation()
	assert.Equal(t, host.ID, Counterparty(guest, r))
	assert.Equal(t, guest.ID, Counterparty(host, r))
}
