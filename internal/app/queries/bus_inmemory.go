package queries

import (
	"context"
	"fmt"
)

type route func(ctx context.Context, q Query) (any, error)

// InMemoryBus routes queries by key.
type InMemoryBus struct {
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

func (b *InMemoryBus) Ask(ctx context.Context, q Query) (any, error) {
	if q == nil {
		return nil, ErrInvalidQuery
	}
	r, ok := b.routes[q.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, q.Key())
	}
	return r(ctx, q)
}

// RegisterHandler binds handler to the key of Q and panics on duplicates.
func RegisterHandler[Q Query, R any](bus *InMemoryBus, handler Handler[Q, R]) {
	if bus == nil {
		panic(ErrNilBus)
	}
	var zero Q
	key := zero.Key()
	if _, taken := bus.routes[key]; taken || key == "" {
		panic(fmt.Errorf("%w: %q", ErrDuplicateHandler, key))
	}
	bus.routes[key] = func(ctx context.Context, raw Query) (any, error) {
		q, ok := raw.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidQuery, key, raw)
		}
		return handler.Handle(ctx, q)
	}
}
