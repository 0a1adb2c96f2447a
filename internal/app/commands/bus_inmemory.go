package commands

import (
	"context"
	"fmt"
	"sort"
)

type route func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus routes commands by key. Registration happens during wiring and
// is not safe to run concurrently with Dispatch.
type InMemoryBus struct {
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	if cmd == nil {
		return nil, ErrInvalidCommand
	}
	r, ok := b.routes[cmd.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, cmd.Key())
	}
	return r(ctx, cmd)
}

// Keys lists the registered command keys in order.
func (b *InMemoryBus) Keys() []string {
	keys := make([]string, 0, len(b.routes))
	for k := range b.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RegisterHandler binds handler to the key of C. It panics on a nil bus, an
// empty key or a second registration for the same key.
func RegisterHandler[C Command, R any](bus *InMemoryBus, handler Handler[C, R]) {
	if bus == nil {
		panic(ErrNilBus)
	}
	var zero C
	key := zero.Key()
	if key == "" {
		panic(fmt.Sprintf("commands: empty key for %T", zero))
	}
	if _, taken := bus.routes[key]; taken {
		panic(fmt.Errorf("%w: %s", ErrDuplicateHandler, key))
	}
	bus.routes[key] = func(ctx context.Context, raw Command) (any, error) {
		cmd, ok := raw.(C)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidCommand, key, raw)
		}
		return handler.Handle(ctx, cmd)
	}
}
