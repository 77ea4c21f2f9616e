package rejection

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelByReason(t *testing.T) {
	err := Newf(DatesUnavailable, "2025-06-03 is already booked")

	assert.ErrorIs(t, err, ErrDatesUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidRange)
	assert.Equal(t, "2025-06-03 is already booked", err.Error())
}

func TestReasonOfUnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("create reservation: %w", New(PriceMismatch, ""))

	reason, ok := ReasonOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, PriceMismatch, reason)
	assert.Equal(t, "create reservation: quoted price does not match the current price", wrapped.Error())

	_, ok = ReasonOf(errors.New("boom"))
	assert.False(t, ok)
}
