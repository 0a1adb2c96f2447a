package middleware

import (
	"context"

	"buckler/internal/app/commands"
	"buckler/internal/app/uow"
)

// Transaction gives every command its own writable unit of work. Handlers
// reach it through uow.From; the unit commits only if the handler succeeds.
func Transaction(factory uow.UoWFactory) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			var res any
			err := uow.Run(ctx, factory, uow.TxOptions{}, func(ctx context.Context, _ uow.UnitOfWork) error {
				var err error
				res, err = next.Dispatch(ctx, cmd)
				return err
			})
			if err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
