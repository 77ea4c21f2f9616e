package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"rentgate/internal/app/uow"
	domainlistings "rentgate/internal/domain/listings"
	domainpricing "rentgate/internal/domain/pricing"
	domainreservation "rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/daterange"
	"rentgate/internal/domain/shared/money"
)

func TestClassifyMarksWriteConflicts(t *testing.T) {
	err := classify(mongo.CommandError{Code: writeConflictCode, Message: "WriteConflict"})
	assert.ErrorIs(t, err, uow.ErrConflict)

	err = classify(mongo.CommandError{Code: 11000, Message: "E11000", Labels: []string{"TransientTransactionError"}})
	assert.ErrorIs(t, err, uow.ErrConflict)

	plain := errors.New("network down")
	assert.Equal(t, plain, classify(plain))
	assert.NoError(t, classify(nil))
}

func TestDuplicateOnMatchesIndexName(t *testing.T) {
	err := mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: rentgate.agg_reservation index: code_1 dup key",
	}}}
	assert.True(t, duplicateOn(err, "code"))
	assert.False(t, duplicateOn(err, "email"))
	assert.False(t, duplicateOn(errors.New("boom"), "code"))
}

func TestReservationDocumentKeepsCalendarDays(t *testing.T) {
	start := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	res := &domainreservation.Reservation{
		ID:        "res-1",
		Code:      "RS-ABCD2345",
		GuestID:   "guest-1",
		ListingID: "lst-1",
		HostID:    "host-1",
		Mode:      domainlistings.ModeShortTerm,
		Range:     daterange.DateRange{Start: start, End: start.AddDate(0, 0, 3)},
		Quote: domainpricing.Quote{
			Mode:         domainlistings.ModeShortTerm,
			Nights:       3,
			TotalPrice:   money.Must(63000, "XOF"),
			AmountDueNow: money.Must(3000, "XOF"),
		},
		Status:    domainreservation.StatusPending,
		CreatedAt: time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
		Version:   4,
	}

	doc := newReservationDocument(res)
	assert.Equal(t, "2026-11-02", doc.StartDate)
	assert.Equal(t, "2026-11-05", doc.EndDate)
	assert.Empty(t, doc.VisitDate)

	back := doc.toAggregate()
	require.True(t, back.Range.Start.Equal(res.Range.Start))
	assert.True(t, back.Range.End.Equal(res.Range.End))
	assert.True(t, back.VisitDate.IsZero())
	assert.Equal(t, res.Quote.TotalPrice, back.Quote.TotalPrice)
	assert.Equal(t, int64(4), back.Version)
	assert.True(t, back.CreatedAt.Equal(res.CreatedAt))
}
