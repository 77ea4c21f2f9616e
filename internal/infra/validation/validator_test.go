package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentgate/internal/app/middleware"
)

type sample struct {
	ListingID string `json:"listing_id" validate:"required"`
	Total     int64  `json:"total" validate:"gt=0"`
	Status    string `json:"status" validate:"omitempty,oneof=pending paid"`
}

func TestValidateWrapsFieldErrorsAsInvalidInput(t *testing.T) {
	err := New().Validate(context.Background(), sample{Status: "weird"})
	require.Error(t, err)
	assert.ErrorIs(t, err, middleware.ErrInvalidInput)
	assert.Contains(t, err.Error(), "listing_id is required")
	assert.Contains(t, err.Error(), "status must be one of")
}

func TestValidateAcceptsValidAndNonStructMessages(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(context.Background(), sample{ListingID: "lst-1", Total: 10}))
	assert.NoError(t, v.Validate(context.Background(), &sample{ListingID: "lst-1", Total: 10}))
	assert.NoError(t, v.Validate(context.Background(), "not a struct"))
	assert.NoError(t, v.Validate(context.Background(), nil))
}
