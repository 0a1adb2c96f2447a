package support

import (
	"context"

	"buckler/internal/app/uow"
)

// BeginReadOnlyUnit joins the unit bound to ctx or opens a read-only one.
// cleanup is nil when the unit was joined.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.From(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Bind(ctx, unit)
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}

// WithinUnit runs fn in the unit bound to ctx, so a handler dispatched through
// the Transaction middleware shares its commit. Called directly, it opens
// and settles its own unit.
func WithinUnit(ctx context.Context, factory uow.UoWFactory, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	if unit, ok := uow.From(ctx); ok {
		return fn(ctx, unit)
	}
	return uow.Run(ctx, factory, uow.TxOptions{}, fn)
}
