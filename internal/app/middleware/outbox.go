package middleware

import (
	"context"

	"buckler/internal/app/commands"
	"buckler/internal/app/outbox"
)

// Discarder is implemented by outboxes that buffer records outside the
// storage transaction and must drop them when the command fails.
type Discarder interface {
	Discard(ctx context.Context)
}

// Scoper is implemented by outboxes that keep a buffer per command.
type Scoper interface {
	Scope(ctx context.Context) context.Context
}

// OutboxFlush releases the records of a successful command and discards the
// records of a failed one.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	discarder, _ := box.(Discarder)
	scoper, _ := box.(Scoper)
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if scoper != nil {
				ctx = scoper.Scope(ctx)
			}
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				if discarder != nil {
					discarder.Discard(ctx)
				}
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
