package commands

import (
	"context"
	"errors"
	"fmt"
)

// Command is a write intent routed through the bus by its key.
type Command interface {
	Key() string
}

// OneShot is implemented by commands whose payload is consumed by the first
// handling attempt, such as a streamed receipt upload. They are not replayed.
type OneShot interface {
	Command
	OneShot() bool
}

// IsOneShot reports whether cmd must run at most once per dispatch.
func IsOneShot(cmd Command) bool {
	o, ok := cmd.(OneShot)
	return ok && o.OneShot()
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// HandlerFunc adapts a method value such as TransitionHandler.Confirm to Handler.
type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

var (
	ErrHandlerNotFound  = errors.New("commands: handler not found")
	ErrDuplicateHandler = errors.New("commands: handler already registered")
	ErrInvalidCommand   = errors.New("commands: invalid command for handler")
	ErrResultType       = errors.New("commands: result type mismatch")
	ErrNilBus           = errors.New("commands: nil bus")
)

// Dispatch sends cmd through bus and asserts the handler's result type. A nil
// result (for example an idempotent replay with no body) yields the zero value.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T, want %T", ErrResultType, cmd.Key(), res, zero)
	}
	return value, nil
}
