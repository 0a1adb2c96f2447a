package middleware

import (
	"context"

	"buckler/internal/app/commands"
	"buckler/internal/app/queries"
	"buckler/internal/domain/shared/errs"
)

// Validator checks struct tags on commands and queries.
type Validator interface {
	Validate(ctx context.Context, message any) error
}

// Validation rejects a command before it reaches the transaction. Errors
// without a kind are reported as Validation.
func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := validate(ctx, v, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := validate(ctx, v, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}

func validate(ctx context.Context, v Validator, msg any) error {
	err := v.Validate(ctx, msg)
	if err == nil || errs.KindOf(err) != nil {
		return err
	}
	return errs.Wrapf(errs.ErrValidation, "%v", err)
}
