package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentgate/internal/app/uow"
	domainlistings "rentgate/internal/domain/listings"
	domainpricing "rentgate/internal/domain/pricing"
	domainreservation "rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/daterange"
	"rentgate/internal/domain/shared/money"
	"rentgate/internal/domain/shared/rejection"
)

func TestClassifyMapsSQLState(t *testing.T) {
	overlap := fmt.Errorf("insert: %w", &pgconn.PgError{Code: sqlstateExclusionViolation, ConstraintName: "reservations_no_overlap"})
	assert.ErrorIs(t, classify(overlap), rejection.ErrDatesUnavailable)

	for _, code := range []string{sqlstateSerializationFailure, sqlstateDeadlockDetected} {
		assert.ErrorIs(t, classify(&pgconn.PgError{Code: code}), uow.ErrConflict, code)
	}

	plain := errors.New("connection reset")
	assert.Equal(t, plain, classify(plain))
}

func TestUniqueViolationMatchesConstraint(t *testing.T) {
	err := fmt.Errorf("create: %w", &pgconn.PgError{Code: sqlstateUniqueViolation, ConstraintName: "reservations_code_key"})
	assert.True(t, uniqueViolationOn(err, "reservations_code_key"))
	assert.False(t, uniqueViolationOn(err, "users_email_key"))
}

func TestReservationModelStoresMonthlyWithoutRange(t *testing.T) {
	visit := time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)
	res := &domainreservation.Reservation{
		ID:        "res-2",
		Code:      "RS-QWER7890",
		ListingID: "lst-monthly",
		Mode:      domainlistings.ModeMonthly,
		VisitDate: visit,
		VisitTime: "14:00",
		Quote: domainpricing.Quote{
			Mode:         domainlistings.ModeMonthly,
			TotalPrice:   money.Must(301000, "XOF"),
			AmountDueNow: money.Must(1000, "XOF"),
		},
	}
	m := newReservationModel(res)
	assert.Nil(t, m.StartDate)
	assert.Nil(t, m.EndDate)
	require.NotNil(t, m.VisitDate)

	back := m.toDomain()
	assert.True(t, back.Range.IsZero())
	assert.Equal(t, daterange.FormatDay(visit), daterange.FormatDay(back.VisitDate))
	assert.Equal(t, int64(301000), back.Quote.TotalPrice.Amount)
	assert.Equal(t, "XOF", back.Quote.AmountDueNow.Currency)
}
