package reservation

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentgate/internal/domain/listings"
	"rentgate/internal/domain/pricing"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/daterange"
	"rentgate/internal/domain/shared/money"
	"rentgate/internal/domain/shared/rejection"
)

var (
	clock = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	guest = actor.Actor{ID: "guest-1", Role: actor.RoleGuest}
	host  = actor.Actor{ID: "host-1", Role: actor.RoleGuest}
	admin = actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}
	other = actor.Actor{ID: "guest-2", Role: actor.RoleGuest}

	paid = PaymentEvidence{Succeeded: true, Paid: true, SucceededAndPaid: true}
)

func testListing() *listings.Listing {
	return &listings.Listing{
		ID:           "lst-1",
		Host:         "host-1",
		NightlyPrice: money.Must(20000, "XOF"),
		MonthlyPrice: money.Must(300000, "XOF"),
		RentalMode:   listings.ModeShortTerm,
	}
}

func june(t *testing.T, from, to int) daterange.DateRange {
	t.Helper()
	r, err := daterange.New(time.Date(2025, 6, from, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, to, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return r
}

func newPending(t *testing.T) *Reservation {
	t.Helper()
	listing := testListing()
	r := june(t, 1, 4)
	q, err := pricing.DefaultEngine().Quote(listing, listings.ModeShortTerm, r)
	require.NoError(t, err)
	res, err := New(CreateParams{
		ID:      "res-1",
		Code:    "RS-ABCDEFGH",
		Guest:   guest,
		Listing: listing,
		Mode:    listings.ModeShortTerm,
		Range:   r,
		Quote:   q,
		Now:     clock,
	})
	require.NoError(t, err)
	res.ClearEvents()
	return res
}

func TestNewCreatesPendingReservation(t *testing.T) {
	listing := testListing()
	r := june(t, 1, 4)
	res, err := New(CreateParams{ID: "res-1", Code: "RS-ABCDEFGH", Guest: guest, Listing: listing, Mode: listings.ModeShortTerm, Range: r, Now: clock})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, ArrivalNotValidated, res.ArrivalStatus)
	assert.Equal(t, HostPaymentNotConfirmed, res.HostPaymentStatus)
	assert.Equal(t, listings.HostID("host-1"), res.HostID)
	assert.True(t, res.BlocksCalendar())
	events := res.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "reservation.created", events[0].EventName())
}

func TestNewRejectsInvalidWindows(t *testing.T) {
	listing := testListing()
	d := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := New(CreateParams{ID: "r", Code: "RS-ABCDEFGH", Guest: guest, Listing: listing, Mode: listings.ModeShortTerm, Range: daterange.DateRange{Start: d, End: d}, Now: clock})
	assert.ErrorIs(t, err, rejection.ErrInvalidRange)

	past, err := daterange.New(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = New(CreateParams{ID: "r", Code: "RS-ABCDEFGH", Guest: guest, Listing: listing, Mode: listings.ModeShortTerm, Range: past, Now: clock})
	assert.ErrorIs(t, err, rejection.ErrInvalidRange)

	_, err = New(CreateParams{ID: "r", Code: "RS-ABCDEFGH", Guest: guest, Listing: listing, Mode: listings.ModeMonthly, Now: clock})
	assert.ErrorIs(t, err, rejection.ErrInvalidRange)

	_, err = New(CreateParams{ID: "r", Code: "RS-ABCDEFGH", Guest: host, Listing: listing, Mode: listings.ModeShortTerm, Range: june(t, 1, 4), Now: clock})
	assert.ErrorIs(t, err, rejection.ErrUnauthorized)
}

func TestMonthlyReservationIsViewingAppointment(t *testing.T) {
	listing := testListing()
	listing.RentalMode = listings.ModeMonthly
	res, err := New(CreateParams{
		ID:        "res-m",
		Code:      "RS-MONTHLY2",
		Guest:     guest,
		Listing:   listing,
		Mode:      listings.ModeMonthly,
		VisitDate: time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC),
		VisitTime: "9:30",
		Now:       clock,
	})
	require.NoError(t, err)
	assert.Equal(t, "09:30", res.VisitTime)
	assert.False(t, res.BlocksCalendar())

	_, err = New(CreateParams{ID: "r", Code: "RS-ABCDEFGH", Guest: guest, Listing: listing, Mode: listings.ModeMonthly, VisitDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), VisitTime: "noon", Now: clock})
	assert.ErrorIs(t, err, rejection.ErrInvalidRange)
}

func TestConfirmGuards(t *testing.T) {
	res := newPending(t)

	assert.ErrorIs(t, res.Confirm(guest, clock), rejection.ErrUnauthorized)
	assert.ErrorIs(t, res.Confirm(admin, clock), rejection.ErrUnauthorized)

	require.NoError(t, res.Confirm(host, clock))
	assert.Equal(t, StatusConfirmed, res.Status)
	assert.ErrorIs(t, res.Confirm(host, clock), rejection.ErrAlreadyInTargetState)

	require.NoError(t, res.Cancel(guest, "", clock))
	assert.ErrorIs(t, res.Confirm(host, clock), rejection.ErrInvalidStateTransition)
}

func TestHostCancelsPendingReservation(t *testing.T) {
	res := newPending(t)

	require.NoError(t, res.Cancel(host, "listing under renovation", clock))

	assert.Equal(t, StatusCancelled, res.Status)
	assert.Equal(t, "listing under renovation", res.CancellationReason)
	assert.Equal(t, ArrivalNotValidated, res.ArrivalStatus)
	assert.False(t, res.BlocksCalendar())
	assert.ErrorIs(t, res.Cancel(guest, "", clock), rejection.ErrAlreadyInTargetState)
}

func TestCancelRequiresParty(t *testing.T) {
	res := newPending(t)
	assert.ErrorIs(t, res.Cancel(other, "", clock), rejection.ErrUnauthorized)
	assert.Equal(t, StatusPending, res.Status)
}

func TestArchiveOnlyFromCancelledAndIdempotent(t *testing.T) {
	res := newPending(t)

	_, err := res.Archive(host, clock)
	assert.ErrorIs(t, err, rejection.ErrInvalidStateTransition)
	_, err = res.Archive(guest, clock)
	assert.ErrorIs(t, err, rejection.ErrUnauthorized)

	require.NoError(t, res.Cancel(guest, "plans changed", clock))
	res.ClearEvents()

	changed, err := res.Archive(admin, clock)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, res.Archived)

	changed, err = res.Archive(host, clock)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, res.PendingEvents(), 1)
}

func TestValidateArrivalGuards(t *testing.T) {
	res := newPending(t)

	assert.ErrorIs(t, res.ValidateArrival(guest, paid, clock), rejection.ErrInvalidStateTransition)
	require.NoError(t, res.Confirm(host, clock))

	assert.ErrorIs(t, res.ValidateArrival(host, paid, clock), rejection.ErrUnauthorized)
	assert.ErrorIs(t, res.ValidateArrival(guest, PaymentEvidence{Succeeded: true, Paid: true}, clock), rejection.ErrMissingSuccessfulTransaction)

	require.NoError(t, res.ValidateArrival(guest, paid, clock))
	assert.Equal(t, ArrivalValidated, res.ArrivalStatus)
	assert.ErrorIs(t, res.ValidateArrival(guest, paid, clock), rejection.ErrAlreadyInTargetState)
}

func TestConfirmPaymentIndependentOfArrival(t *testing.T) {
	res := newPending(t)

	assert.ErrorIs(t, res.ConfirmPayment(guest, paid, clock), rejection.ErrUnauthorized)
	assert.ErrorIs(t, res.ConfirmPayment(host, PaymentEvidence{Paid: true}, clock), rejection.ErrMissingSuccessfulTransaction)

	require.NoError(t, res.ConfirmPayment(host, PaymentEvidence{Succeeded: true}, clock))
	assert.Equal(t, HostPaymentConfirmed, res.HostPaymentStatus)
	assert.Equal(t, ArrivalNotValidated, res.ArrivalStatus)
	assert.ErrorIs(t, res.ConfirmPayment(host, paid, clock), rejection.ErrAlreadyInTargetState)

	require.NoError(t, res.Confirm(host, clock))
	require.NoError(t, res.ValidateArrival(guest, paid, clock))
	assert.Equal(t, HostPaymentConfirmed, res.HostPaymentStatus)
}

func TestArrivalFrozenAfterCancellation(t *testing.T) {
	res := newPending(t)
	require.NoError(t, res.Confirm(host, clock))
	require.NoError(t, res.ValidateArrival(guest, paid, clock))
	require.NoError(t, res.Cancel(host, "", clock))

	assert.Equal(t, ArrivalValidated, res.ArrivalStatus)
	assert.ErrorIs(t, res.ValidateArrival(guest, paid, clock), rejection.ErrInvalidStateTransition)
}

func TestLegalTransitions(t *testing.T) {
	res := newPending(t)

	assert.Equal(t, []Transition{TransitionConfirm, TransitionCancel}, res.LegalTransitions(host, PaymentEvidence{}))
	assert.Equal(t, []Transition{TransitionCancel}, res.LegalTransitions(guest, PaymentEvidence{}))
	assert.Empty(t, res.LegalTransitions(other, paid))

	require.NoError(t, res.Confirm(host, clock))
	assert.Equal(t, []Transition{TransitionCancel, TransitionValidateArrival}, res.LegalTransitions(guest, paid))
	assert.Equal(t, []Transition{TransitionCancel, TransitionConfirmPayment}, res.LegalTransitions(host, paid))

	require.NoError(t, res.Cancel(guest, "", clock))
	assert.Equal(t, []Transition{TransitionArchive}, res.LegalTransitions(admin, PaymentEvidence{}))
}

func TestListFilterHidesArchivedByDefault(t *testing.T) {
	res := newPending(t)
	require.NoError(t, res.Cancel(guest, "", clock))
	_, err := res.Archive(host, clock)
	require.NoError(t, err)

	assert.False(t, ListFilter{GuestID: guest.ID}.Match(res))
	assert.True(t, ListFilter{GuestID: guest.ID, IncludeArchived: true}.Match(res))
	assert.False(t, ListFilter{HostID: "host-9", IncludeArchived: true}.Match(res))
}

func TestRandomCodes(t *testing.T) {
	code, err := RandomCodes{Source: bytes.NewReader([]byte{0, 1, 2, 3, 31, 32, 33, 255})}.NewCode()
	require.NoError(t, err)
	assert.Equal(t, Code("RS-ABCD9AB9"), code)
	assert.True(t, code.Valid())

	random, err := RandomCodes{}.NewCode()
	require.NoError(t, err)
	assert.True(t, random.Valid())
	assert.False(t, Code("RS-0000OOOO").Valid())
}
