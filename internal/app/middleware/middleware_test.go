package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buckler/internal/app/commands"
	"buckler/internal/app/outbox"
	"buckler/internal/app/uow"
	"buckler/internal/domain/shared/errs"
)

type echoCommand struct {
	Value   string
	IdemKey string
}

func (c echoCommand) Key() string            { return "test.echo" }
func (c echoCommand) IdempotencyKey() string { return c.IdemKey }
func (c echoCommand) ResultPrototype() any   { return &echoResult{} }

type echoResult struct {
	Value string `json:"value"`
	Calls int    `json:"calls"`
}

type mapStore struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func (s *mapStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *mapStore) Claim(ctx context.Context, rec IdempotencyRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.items[rec.Key]; ok && !prev.Stale(rec.OccurredAt) {
		return false, nil
	}
	s.items[rec.Key] = rec
	return true, nil
}

func (s *mapStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

func (s *mapStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.items[key]; ok && rec.Pending {
		delete(s.items, key)
	}
	return nil
}

func TestIdempotencyReplaysResultAndError(t *testing.T) {
	calls := 0
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.HandlerFunc[echoCommand, *echoResult](
		func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
			calls++
			if cmd.Value == "bad" {
				return nil, errs.New(errs.ErrConflict, "taken")
			}
			return &echoResult{Value: cmd.Value, Calls: calls}, nil
		}))
	wrapped := ChainCommands(bus, Idempotency(&mapStore{items: map[string]IdempotencyRecord{}}, nil))
	ctx := context.Background()

	first, err := commands.Dispatch[echoCommand, *echoResult](ctx, wrapped, echoCommand{Value: "a", IdemKey: "k1"})
	require.NoError(t, err)
	again, err := commands.Dispatch[echoCommand, *echoResult](ctx, wrapped, echoCommand{Value: "a", IdemKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, calls)

	_, err = commands.Dispatch[echoCommand, *echoResult](ctx, wrapped, echoCommand{Value: "bad", IdemKey: "k2"})
	assert.ErrorIs(t, err, errs.ErrConflict)
	_, err = commands.Dispatch[echoCommand, *echoResult](ctx, wrapped, echoCommand{Value: "bad", IdemKey: "k2"})
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Equal(t, 2, calls)

	_, err = commands.Dispatch[echoCommand, *echoResult](ctx, wrapped, echoCommand{Value: "b"})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestIdempotencyKeyReuseWithDifferentRequest(t *testing.T) {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.HandlerFunc[echoCommand, *echoResult](
		func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
			return &echoResult{Value: cmd.Value}, nil
		}))
	store := &mapStore{items: map[string]IdempotencyRecord{}}
	wrapped := ChainCommands(bus, Idempotency(store, nil))
	ctx := context.Background()

	_, err := commands.Dispatch[echoCommand, *echoResult](ctx, wrapped, echoCommand{Value: "a", IdemKey: "k1"})
	require.NoError(t, err)
	_, err = commands.Dispatch[echoCommand, *echoResult](ctx, wrapped, echoCommand{Value: "b", IdemKey: "k1"})
	assert.ErrorIs(t, err, ErrKeyReused)
	assert.ErrorIs(t, err, errs.ErrConflict)

	require.Contains(t, store.items, "test.echo:k1")
	assert.NotEmpty(t, store.items["test.echo:k1"].Fingerprint)
}

func TestIdempotencyConcurrentRequestsDispatchOnce(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.HandlerFunc[echoCommand, *echoResult](
		func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
			calls++
			close(started)
			<-release
			return &echoResult{Value: cmd.Value, Calls: calls}, nil
		}))
	store := &mapStore{items: map[string]IdempotencyRecord{}}
	wrapped := ChainCommands(bus, Idempotency(store, nil))
	ctx := context.Background()

	var winner *echoResult
	var winnerErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		winner, winnerErr = commands.Dispatch[echoCommand, *echoResult](ctx, wrapped, echoCommand{Value: "a", IdemKey: "k1"})
	}()
	<-started

	_, err := commands.Dispatch[echoCommand, *echoResult](ctx, wrapped, echoCommand{Value: "a", IdemKey: "k1"})
	assert.ErrorIs(t, err, ErrRequestInFlight)
	assert.ErrorIs(t, err, errs.ErrConflict)

	close(release)
	<-done
	require.NoError(t, winnerErr)

	again, err := commands.Dispatch[echoCommand, *echoResult](ctx, wrapped, echoCommand{Value: "a", IdemKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, winner, again)
	assert.Equal(t, 1, calls)
	assert.False(t, store.items["test.echo:k1"].Pending)
}

func TestIdempotencyReleasesKeyOnStorageFailure(t *testing.T) {
	calls := 0
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.HandlerFunc[echoCommand, *echoResult](
		func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
			calls++
			if calls == 1 {
				return nil, errs.Unavailable(errors.New("db down"))
			}
			return &echoResult{Value: cmd.Value, Calls: calls}, nil
		}))
	store := &mapStore{items: map[string]IdempotencyRecord{}}
	wrapped := ChainCommands(bus, Idempotency(store, nil))
	ctx := context.Background()

	_, err := commands.Dispatch[echoCommand, *echoResult](ctx, wrapped, echoCommand{Value: "a", IdemKey: "k1"})
	assert.ErrorIs(t, err, errs.ErrStorageUnavailable)
	assert.NotContains(t, store.items, "test.echo:k1")

	res, err := commands.Dispatch[echoCommand, *echoResult](ctx, wrapped, echoCommand{Value: "a", IdemKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Calls)
}

func TestIdempotencyTakesOverStaleClaim(t *testing.T) {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.HandlerFunc[echoCommand, *echoResult](
		func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
			return &echoResult{Value: cmd.Value}, nil
		}))
	store := &mapStore{items: map[string]IdempotencyRecord{}}
	fingerprint, err := fingerprintOf(echoCommand{Value: "a", IdemKey: "k1"})
	require.NoError(t, err)
	store.items["test.echo:k1"] = IdempotencyRecord{
		Key:         "test.echo:k1",
		Fingerprint: fingerprint,
		Pending:     true,
		OccurredAt:  time.Now().UTC().Add(-2 * PendingLease),
	}
	wrapped := ChainCommands(bus, Idempotency(store, nil))

	res, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), wrapped, echoCommand{Value: "a", IdemKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, "a", res.Value)
}

type bufferedOutbox struct {
	added     []outbox.EventRecord
	flushed   int
	discarded int
}

func (b *bufferedOutbox) Add(ctx context.Context, rec outbox.EventRecord) error {
	b.added = append(b.added, rec)
	return nil
}

func (b *bufferedOutbox) Flush(ctx context.Context) error {
	b.flushed++
	return nil
}

func (b *bufferedOutbox) Discard(ctx context.Context) {
	b.discarded++
}

func TestOutboxFlushOnlyOnSuccess(t *testing.T) {
	box := &bufferedOutbox{}
	failing := true
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.HandlerFunc[echoCommand, *echoResult](
		func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
			if failing {
				return nil, errors.New("boom")
			}
			return &echoResult{}, nil
		}))
	wrapped := ChainCommands(bus, OutboxFlush(box))

	_, err := wrapped.Dispatch(context.Background(), echoCommand{})
	require.Error(t, err)
	assert.Equal(t, 0, box.flushed)
	assert.Equal(t, 1, box.discarded)

	failing = false
	_, err = wrapped.Dispatch(context.Background(), echoCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, box.flushed)
}

type fakeUnit struct {
	uow.UnitOfWork
	committed, rolledBack bool
	commitErr             error
}

func (u *fakeUnit) Commit(context.Context) error {
	u.committed = true
	return u.commitErr
}

func (u *fakeUnit) Rollback(context.Context) error {
	u.rolledBack = true
	return nil
}

type fakeFactory struct{ unit *fakeUnit }

func (f fakeFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	return f.unit, nil
}

func TestTransactionCommitsOrRollsBack(t *testing.T) {
	bus := commands.NewInMemoryBus()
	var fail bool
	commands.RegisterHandler(bus, commands.HandlerFunc[echoCommand, *echoResult](
		func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
			_, bound := uow.From(ctx)
			if !bound {
				return nil, errors.New("unit not bound")
			}
			if fail {
				return nil, errs.New(errs.ErrValidation, "nope")
			}
			return &echoResult{}, nil
		}))

	ok := &fakeUnit{}
	_, err := ChainCommands(bus, Transaction(fakeFactory{unit: ok})).Dispatch(context.Background(), echoCommand{})
	require.NoError(t, err)
	assert.True(t, ok.committed)
	assert.False(t, ok.rolledBack)

	fail = true
	bad := &fakeUnit{}
	_, err = ChainCommands(bus, Transaction(fakeFactory{unit: bad})).Dispatch(context.Background(), echoCommand{})
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.False(t, bad.committed)
	assert.True(t, bad.rolledBack)

	fail = false
	broken := &fakeUnit{commitErr: errors.New("disk gone")}
	_, err = ChainCommands(bus, Transaction(fakeFactory{unit: broken})).Dispatch(context.Background(), echoCommand{})
	assert.ErrorIs(t, err, errs.ErrStorageUnavailable)
	assert.True(t, broken.rolledBack)
}

type rejectAll struct{}

func (rejectAll) Validate(context.Context, any) error {
	return errs.New(errs.ErrValidation, "rejected")
}

func TestValidationStopsBeforeHandler(t *testing.T) {
	called := false
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.HandlerFunc[echoCommand, *echoResult](
		func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
			called = true
			return &echoResult{}, nil
		}))
	wrapped := ChainCommands(bus, Logging(nil), Validation(rejectAll{}))
	_, err := wrapped.Dispatch(context.Background(), echoCommand{})
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.False(t, called)
}
