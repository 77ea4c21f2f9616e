package middleware

import (
	"context"
	"errors"
	"time"

	"rentgate/internal/app/commands"
	"rentgate/internal/app/uow"
)

const (
	defaultConflictAttempts = 3
	conflictBackoff         = 15 * time.Millisecond
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction runs each command inside its own unit of work. Units that fail with
// uow.ErrConflict are rolled back and replayed so the command re-reads fresh state.
// One-shot commands get a single attempt.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	return TransactionWithRetry(factory, optsProvider, defaultConflictAttempts)
}

func TransactionWithRetry(factory uow.UoWFactory, optsProvider TxOptionsProvider, attempts int) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	if attempts < 1 {
		attempts = 1
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			limit := attempts
			if commands.IsOneShot(cmd) {
				limit = 1
			}
			var lastErr error
			for attempt := 0; attempt < limit; attempt++ {
				if attempt > 0 {
					select {
					case <-ctx.Done():
						return nil, errors.Join(lastErr, ctx.Err())
					case <-time.After(time.Duration(attempt) * conflictBackoff):
					}
				}
				res, err := runUnit(ctx, factory, opts, nextFn, cmd)
				if err == nil {
					return res, nil
				}
				if !errors.Is(err, uow.ErrConflict) {
					return nil, err
				}
				lastErr = err
			}
			return nil, lastErr
		})
	}
}

func runUnit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions, nextFn commandFunc, cmd commands.Command) (any, error) {
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	execCtx := uow.Bind(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()

	res, err := nextFn(execCtx, cmd)
	if err != nil {
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}
