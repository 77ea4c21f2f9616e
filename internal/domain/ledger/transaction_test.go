package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/money"
	"rentgate/internal/domain/shared/rejection"
)

var (
	now   = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	admin = actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}
)

func ptrProcessing(s ProcessingStatus) *ProcessingStatus { return &s }
func ptrSettlement(s SettlementStatus) *SettlementStatus { return &s }

func newTx(t *testing.T, id string, at time.Time) *Transaction {
	t.Helper()
	tx, err := Record(RecordParams{
		ID:            TransactionID(id),
		ReservationID: "res-1",
		Method:        MethodMobileMoney,
		Amount:        money.Must(3000, "XOF"),
		Payer:         Payer{Name: " Awa ", Number: "+221700000000"},
		Now:           at,
	})
	require.NoError(t, err)
	return tx
}

func TestRecordStartsPendingUnpaid(t *testing.T) {
	tx := newTx(t, "tx-1", now)

	assert.Equal(t, ProcessingPending, tx.ProcessingStatus)
	assert.Equal(t, SettlementUnpaid, tx.SettlementStatus)
	assert.Equal(t, "Awa", tx.Payer.Name)
	require.Len(t, tx.PendingEvents(), 1)

	_, err := Record(RecordParams{ID: "tx-2", ReservationID: "res-1", Method: "cheque", Amount: money.Must(1, "XOF")})
	assert.ErrorIs(t, err, ErrInvalidMethod)
	_, err = Record(RecordParams{ID: "tx-2", ReservationID: "res-1", Method: MethodCash, Amount: money.Must(0, "XOF")})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestUpdateStatusIsAdminOnly(t *testing.T) {
	tx := newTx(t, "tx-1", now)
	guest := actor.Actor{ID: "guest-1", Role: actor.RoleGuest}

	_, err := tx.UpdateStatus(guest, StatusUpdate{Processing: ptrProcessing(ProcessingSucceeded)}, now)
	assert.ErrorIs(t, err, rejection.ErrUnauthorized)

	_, err = tx.UpdateStatus(actor.System("payments"), StatusUpdate{Processing: ptrProcessing(ProcessingSucceeded)}, now)
	require.NoError(t, err)
	assert.Equal(t, ProcessingSucceeded, tx.ProcessingStatus)
}

func TestUpdateStatusAllowsAnyOrderAndWarns(t *testing.T) {
	tx := newTx(t, "tx-1", now)

	warnings, err := tx.UpdateStatus(admin, StatusUpdate{
		Processing: ptrProcessing(ProcessingFailed),
		Settlement: ptrSettlement(SettlementPaid),
	}, now)
	require.NoError(t, err)
	assert.Equal(t, []Warning{WarningPaidWhileFailed}, warnings)
	assert.Equal(t, SettlementPaid, tx.SettlementStatus)

	warnings, err = tx.UpdateStatus(admin, StatusUpdate{Settlement: ptrSettlement(SettlementPartial)}, now)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestUpdateStatusRejectsNoop(t *testing.T) {
	tx := newTx(t, "tx-1", now)

	_, err := tx.UpdateStatus(admin, StatusUpdate{}, now)
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	_, err = tx.UpdateStatus(admin, StatusUpdate{Settlement: ptrSettlement(SettlementUnpaid)}, now)
	assert.ErrorIs(t, err, rejection.ErrAlreadyInTargetState)

	_, err = tx.UpdateStatus(admin, StatusUpdate{Settlement: ptrSettlement("refunded")}, now)
	assert.ErrorIs(t, err, ErrInvalidSettlement)
}

func TestEvidenceChecksExistenceNotRecency(t *testing.T) {
	first := newTx(t, "tx-1", now)
	_, err := first.UpdateStatus(admin, StatusUpdate{
		Processing: ptrProcessing(ProcessingSucceeded),
		Settlement: ptrSettlement(SettlementPaid),
	}, now)
	require.NoError(t, err)

	retry := newTx(t, "tx-2", now.Add(time.Hour))
	_, err = retry.UpdateStatus(admin, StatusUpdate{Processing: ptrProcessing(ProcessingFailed)}, now)
	require.NoError(t, err)

	txs := []*Transaction{first, retry}
	ev := Evidence(txs)
	assert.True(t, ev.Succeeded)
	assert.True(t, ev.Paid)
	assert.True(t, ev.SucceededAndPaid)
	assert.Equal(t, retry, Latest(txs))
}

func TestEvidenceRequiresSameTransactionForSucceededAndPaid(t *testing.T) {
	succeeded := newTx(t, "tx-1", now)
	_, err := succeeded.UpdateStatus(admin, StatusUpdate{Processing: ptrProcessing(ProcessingSucceeded)}, now)
	require.NoError(t, err)
	settled := newTx(t, "tx-2", now)
	_, err = settled.UpdateStatus(admin, StatusUpdate{Settlement: ptrSettlement(SettlementPaid)}, now)
	require.NoError(t, err)

	ev := Evidence([]*Transaction{succeeded, settled})
	assert.True(t, ev.Succeeded)
	assert.True(t, ev.Paid)
	assert.False(t, ev.SucceededAndPaid)
	assert.Nil(t, Latest(nil))
}

func TestSortNewestFirst(t *testing.T) {
	a := newTx(t, "tx-a", now)
	b := newTx(t, "tx-b", now.Add(time.Minute))
	c := newTx(t, "tx-c", now)
	txs := []*Transaction{a, b, c}

	SortNewestFirst(txs)

	assert.Equal(t, []TransactionID{"tx-b", "tx-c", "tx-a"}, []TransactionID{txs[0].ID, txs[1].ID, txs[2].ID})
}
