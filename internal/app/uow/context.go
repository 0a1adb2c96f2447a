package uow

import (
	"context"

	"buckler/internal/domain/shared/errs"
)

var ErrUnitOfWorkMissing = errs.New(errs.ErrStorageUnavailable, "uow: unit of work missing from context")

// ContextInjector is implemented by units that keep driver state, such as a
// Mongo session, in the context.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

type unitKey struct{}

// Bind attaches unit to ctx so nested handlers join it instead of opening
// their own.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return context.WithValue(ctx, unitKey{}, unit)
}

// From returns the unit bound to ctx.
func From(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(unitKey{}).(UnitOfWork)
	return unit, ok
}
