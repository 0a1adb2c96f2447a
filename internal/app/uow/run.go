package uow

import (
	"context"

	"buckler/internal/domain/shared/errs"
)

// Run begins a unit, binds it to ctx and calls fn. The unit commits when fn
// returns nil and rolls back on every other exit, panics included. Begin and
// commit failures come back as StorageUnavailable unless already classified.
func Run(ctx context.Context, factory UoWFactory, opts TxOptions, fn func(ctx context.Context, unit UnitOfWork) error) error {
	if factory == nil {
		return ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return errs.Unavailable(err)
	}
	execCtx := Bind(ctx, unit)
	settled := false
	defer func() {
		if !settled {
			_ = unit.Rollback(execCtx)
		}
	}()

	if err := fn(execCtx, unit); err != nil {
		return err
	}
	if err := unit.Commit(execCtx); err != nil {
		return errs.Unavailable(err)
	}
	settled = true
	return nil
}
