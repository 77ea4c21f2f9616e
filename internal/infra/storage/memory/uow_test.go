package memory

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "rentgate/internal/app/outbox"
	"rentgate/internal/app/uow"
	domainreservation "rentgate/internal/domain/reservation"
)

func TestLockCalendarSerialisesUnits(t *testing.T) {
	f := NewFactory()
	ctx := context.Background()

	first, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, first.LockCalendar(ctx, "lst-1"))
	require.NoError(t, first.LockCalendar(ctx, "lst-1"))

	var acquired atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		second, err := f.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return
		}
		if err := second.LockCalendar(ctx, "lst-1"); err == nil {
			acquired.Store(true)
		}
		_ = second.Rollback(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	assert.False(t, acquired.Load())
	require.NoError(t, first.Commit(ctx))
	<-done
	assert.True(t, acquired.Load())
}

func TestLockCalendarHonoursContext(t *testing.T) {
	f := NewFactory()
	holder, err := f.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, holder.LockCalendar(context.Background(), "lst-1"))
	defer holder.Rollback(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	waiter, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	assert.ErrorIs(t, waiter.LockCalendar(ctx, "lst-1"), context.DeadlineExceeded)

	other, err := f.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	assert.NoError(t, other.LockCalendar(context.Background(), "lst-2"))
	require.NoError(t, other.Rollback(context.Background()))
}

func TestOutboxRecordsOnlySurviveCommit(t *testing.T) {
	f := NewFactory()
	f.Outbox.Retain()
	ctx := context.Background()

	rolled, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, f.Outbox.Add(uow.Bind(ctx, rolled), appoutbox.EventRecord{ID: "1", Name: "reservation.created"}))
	require.NoError(t, rolled.Rollback(ctx))
	assert.Empty(t, f.Outbox.Pending())

	committed, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, f.Outbox.Add(uow.Bind(ctx, committed), appoutbox.EventRecord{ID: "2", Name: "reservation.confirmed"}))
	assert.Empty(t, f.Outbox.Pending())
	require.NoError(t, committed.Commit(ctx))
	assert.Equal(t, []string{"reservation.confirmed"}, f.Outbox.Pending())
}

func TestOutboxClaimAndRetry(t *testing.T) {
	box := NewOutbox(true)
	ctx := context.Background()
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "a", Name: "reservation.created"}))

	msg, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "a", msg.ID)

	again, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	assert.Nil(t, again)

	require.NoError(t, box.MarkFailed(ctx, "a", time.Now().Add(-time.Second), "broker down"))
	retry, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, retry)
	assert.Equal(t, 1, retry.Attempts)

	require.NoError(t, box.MarkSent(ctx, "a"))
	assert.Empty(t, box.Pending())
}

func TestReservationSaveDetectsStaleVersion(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()
	res := &domainreservation.Reservation{ID: "res-1", Code: "RS-AAAAAAAA", ListingID: "lst-1", Status: domainreservation.StatusPending}
	require.NoError(t, repo.Create(ctx, res))
	assert.Equal(t, int64(1), res.Version)

	a, err := repo.ByID(ctx, "res-1")
	require.NoError(t, err)
	b, err := repo.ByID(ctx, "res-1")
	require.NoError(t, err)

	a.Status = domainreservation.StatusConfirmed
	require.NoError(t, repo.Save(ctx, a))
	b.Status = domainreservation.StatusCancelled
	err = repo.Save(ctx, b)
	assert.ErrorIs(t, err, domainreservation.ErrConcurrentUpdate)
	assert.ErrorIs(t, err, uow.ErrConflict)

	dup := &domainreservation.Reservation{ID: "res-2", Code: "RS-AAAAAAAA"}
	assert.ErrorIs(t, repo.Create(ctx, dup), domainreservation.ErrCodeTaken)

	active, err := repo.ActiveByListing(ctx, "lst-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, domainreservation.StatusConfirmed, active[0].Status)
}
