package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentgate/internal/app/commands"
	"rentgate/internal/app/middleware"
	"rentgate/internal/app/uow"
	"rentgate/internal/infra/storage/memory"
)

type uploadCommand struct{ oneShot bool }

func (uploadCommand) Key() string     { return "test.upload" }
func (c uploadCommand) OneShot() bool { return c.oneShot }

func conflictingBus(t *testing.T, attempts *int) commands.Bus {
	t.Helper()
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[uploadCommand, any](bus, "test.upload", commands.HandlerFunc[uploadCommand, any](
		func(ctx context.Context, _ uploadCommand) (any, error) {
			_, err := uow.Require(ctx)
			require.NoError(t, err)
			*attempts++
			return nil, uow.ErrConflict
		}))
	return middleware.ChainCommands(bus, middleware.Transaction(memory.NewFactory(), nil))
}

func TestTransactionReplaysConflicts(t *testing.T) {
	attempts := 0
	_, err := conflictingBus(t, &attempts).Dispatch(context.Background(), uploadCommand{})

	assert.ErrorIs(t, err, uow.ErrConflict)
	assert.Equal(t, 3, attempts)
}

func TestTransactionRunsOneShotCommandsOnce(t *testing.T) {
	attempts := 0
	_, err := conflictingBus(t, &attempts).Dispatch(context.Background(), uploadCommand{oneShot: true})

	assert.ErrorIs(t, err, uow.ErrConflict)
	assert.Equal(t, 1, attempts)
}
