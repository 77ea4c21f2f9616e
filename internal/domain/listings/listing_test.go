package listings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentgate/internal/domain/shared/money"
)

func TestNewListingValidatesRateForMode(t *testing.T) {
	_, err := NewListing(CreateParams{ID: "l1", Host: "h1", RentalMode: ModeShortTerm})
	assert.ErrorIs(t, err, ErrNightlyPrice)

	_, err = NewListing(CreateParams{ID: "l1", Host: "h1", RentalMode: ModeMonthly, NightlyPrice: money.Must(20000, "XOF")})
	assert.ErrorIs(t, err, ErrMonthlyPrice)

	_, err = NewListing(CreateParams{ID: "l1", Host: "h1", RentalMode: "weekly", NightlyPrice: money.Must(20000, "XOF")})
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestResolveModeDefaultsToListingMode(t *testing.T) {
	l, err := NewListing(CreateParams{ID: "l1", Host: "h1", RentalMode: ModeShortTerm, NightlyPrice: money.Must(20000, "XOF")})
	require.NoError(t, err)

	mode, err := l.ResolveMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeShortTerm, mode)

	_, err = l.ResolveMode(ModeMonthly)
	assert.ErrorIs(t, err, ErrModeNotOffered)
	assert.True(t, l.OwnedBy("h1"))
	assert.False(t, l.OwnedBy("g1"))
}

func TestParseRentalMode(t *testing.T) {
	mode, err := ParseRentalMode(" Monthly ")
	require.NoError(t, err)
	assert.Equal(t, ModeMonthly, mode)

	_, err = ParseRentalMode("hourly")
	assert.ErrorIs(t, err, ErrInvalidMode)
}
