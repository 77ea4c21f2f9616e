package queries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupQuery struct{ id string }

func (lookupQuery) Key() string { return "lookup" }

func TestAskReturnsTypedResult(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[lookupQuery, string](bus, "lookup", HandlerFunc[lookupQuery, string](
		func(_ context.Context, q lookupQuery) (string, error) { return "found " + q.id, nil }))

	out, err := Ask[lookupQuery, string](context.Background(), bus, lookupQuery{id: "r-1"})
	require.NoError(t, err)
	assert.Equal(t, "found r-1", out)

	_, err = Ask[lookupQuery, int](context.Background(), bus, lookupQuery{id: "r-1"})
	assert.ErrorIs(t, err, ErrResultType)

	assert.Panics(t, func() {
		RegisterHandler[lookupQuery, string](bus, "lookup", HandlerFunc[lookupQuery, string](
			func(context.Context, lookupQuery) (string, error) { return "", nil }))
	})
	assert.Equal(t, []string{"lookup"}, bus.Keys())
}

func TestAskUnknownKey(t *testing.T) {
	_, err := NewInMemoryBus().Ask(context.Background(), lookupQuery{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}
