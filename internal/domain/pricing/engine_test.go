package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentgate/internal/domain/listings"
	"rentgate/internal/domain/shared/daterange"
	"rentgate/internal/domain/shared/money"
	"rentgate/internal/domain/shared/rejection"
)

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := daterange.ParseDay(raw)
	require.NoError(t, err)
	return d
}

func shortTermListing() *listings.Listing {
	return &listings.Listing{
		ID:           "lst-1",
		Host:         "host-1",
		NightlyPrice: money.Must(20000, "XOF"),
		RentalMode:   listings.ModeShortTerm,
	}
}

func TestQuoteShortTermThreeNights(t *testing.T) {
	r, err := daterange.New(day(t, "2025-06-01"), day(t, "2025-06-04"))
	require.NoError(t, err)

	q, err := DefaultEngine().Quote(shortTermListing(), listings.ModeShortTerm, r)
	require.NoError(t, err)

	assert.Equal(t, 3, q.Nights)
	assert.Equal(t, int64(60000), q.BasePrice.Amount)
	assert.Equal(t, int64(3000), q.Commission.Amount)
	assert.Equal(t, int64(63000), q.TotalPrice.Amount)
	assert.Equal(t, int64(3000), q.AmountDueNow.Amount)
	assert.Equal(t, "XOF", q.TotalPrice.Currency)
}

func TestQuoteMonthlyChargesFlatFeeOnce(t *testing.T) {
	l := &listings.Listing{ID: "lst-2", Host: "h", MonthlyPrice: money.Must(250000, "XOF"), RentalMode: listings.ModeMonthly}

	q, err := DefaultEngine().Quote(l, listings.ModeMonthly, daterange.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, int64(250000), q.BasePrice.Amount)
	assert.Equal(t, int64(1000), q.Commission.Amount)
	assert.Equal(t, int64(251000), q.TotalPrice.Amount)
	assert.Equal(t, q.Commission, q.AmountDueNow)
}

func TestQuoteIsDeterministic(t *testing.T) {
	engine := NewEngine(1500, 2000)
	r, err := daterange.New(day(t, "2025-07-10"), day(t, "2025-07-17"))
	require.NoError(t, err)

	first, err := engine.Quote(shortTermListing(), listings.ModeShortTerm, r)
	require.NoError(t, err)
	second, err := engine.Quote(shortTermListing(), listings.ModeShortTerm, r)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, first.Matches(second))
	sum, err := first.BasePrice.Add(first.Commission)
	require.NoError(t, err)
	assert.Equal(t, sum, first.TotalPrice)
}

func TestQuoteRejectsEmptyRange(t *testing.T) {
	d := day(t, "2025-06-01")
	_, err := DefaultEngine().Quote(shortTermListing(), listings.ModeShortTerm, daterange.DateRange{Start: d, End: d})
	assert.ErrorIs(t, err, rejection.ErrInvalidRange)
}

func TestQuoteRequiresRateForMode(t *testing.T) {
	_, err := DefaultEngine().Quote(shortTermListing(), listings.ModeMonthly, daterange.DateRange{})
	assert.ErrorIs(t, err, ErrRateMissing)
}

func TestMatchesDetectsTampering(t *testing.T) {
	r, err := daterange.New(day(t, "2025-06-01"), day(t, "2025-06-04"))
	require.NoError(t, err)
	q, err := DefaultEngine().Quote(shortTermListing(), listings.ModeShortTerm, r)
	require.NoError(t, err)

	tampered := q
	tampered.TotalPrice = money.Must(1000, "XOF")
	assert.False(t, q.Matches(tampered))
}
