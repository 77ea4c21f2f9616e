package middleware

import (
	"context"

	"rentgate/internal/app/commands"
	"rentgate/internal/app/queries"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/rejection"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// ActorMessage is implemented by commands and queries issued on behalf of a user.
type ActorMessage interface {
	Principal() actor.Actor
}

// RequireActor rejects messages that carry no authenticated actor. Which actor may
// perform which transition is decided by the domain guards.
type RequireActor struct{}

func (RequireActor) Authorize(_ context.Context, message any) error {
	msg, ok := message.(ActorMessage)
	if !ok {
		return nil
	}
	if !msg.Principal().Valid() {
		return rejection.New(rejection.Unauthorized, "authentication required")
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
