package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"buckler/internal/app/commands"
	"buckler/internal/domain/shared/errs"
)

var (
	// ErrKeyReused is returned when a key comes back with a different request.
	ErrKeyReused = errs.New(errs.ErrConflict, "idempotency key reused with a different request")

	// ErrRequestInFlight is returned while another request holds the key.
	ErrRequestInFlight = errs.New(errs.ErrConflict, "idempotency key is still being processed")
)

// PendingLease bounds how long a claim blocks the key. A claim older than
// this is treated as abandoned and may be taken over.
const PendingLease = time.Minute

// IdempotentCommand is a command the caller may retry under a client key.
// ResultPrototype returns a pointer the stored result is decoded into.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any
}

// IdempotencyRecord is the stored outcome of one keyed command. A Pending
// record marks a claimed key whose command has not finished; otherwise exactly
// one of Payload or Error describes the outcome.
type IdempotencyRecord struct {
	Key         string
	Fingerprint string
	Pending     bool
	Payload     []byte
	Error       string
	ErrorKind   string
	OccurredAt  time.Time
}

// Stale reports whether a pending claim has outlived PendingLease at now.
func (r IdempotencyRecord) Stale(now time.Time) bool {
	return r.Pending && now.Sub(r.OccurredAt) > PendingLease
}

// IdempotencyStore persists keyed outcomes.
//
// Claim inserts rec unless a live record holds the key and reports whether it
// did. Expired records and stale claims do not hold the key. Save overwrites
// the record under rec.Key. Release removes a pending claim.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Claim(ctx context.Context, rec IdempotencyRecord) (bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
	Release(ctx context.Context, key string) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

// replayableKinds are the failures worth remembering. StorageUnavailable is
// not among them so a retry can succeed.
var replayableKinds = []error{
	errs.ErrNotFound,
	errs.ErrValidation,
	errs.ErrConflict,
	errs.ErrInvalidStateTransition,
	errs.ErrNotCancellable,
}

// Idempotency replays the stored outcome of a keyed command. Keys are scoped
// by command type and claimed before the command runs, so concurrent requests
// under one key dispatch once. A key seen with a different payload fails with
// ErrKeyReused.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			keyed, ok := cmd.(IdempotentCommand)
			if !ok || keyed.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := cmd.Key() + ":" + keyed.IdempotencyKey()
			fingerprint, err := fingerprintOf(cmd)
			if err != nil {
				return nil, err
			}

			claimed, err := store.Claim(ctx, IdempotencyRecord{
				Key:         key,
				Fingerprint: fingerprint,
				Pending:     true,
				OccurredAt:  time.Now().UTC(),
			})
			if err != nil {
				return nil, errs.Unavailable(err)
			}
			if !claimed {
				return replayHeld(ctx, store, key, fingerprint, keyed, codec)
			}

			// The outcome is stored even if the caller goes away mid-command.
			storeCtx := context.WithoutCancel(ctx)
			result, err := next.Dispatch(ctx, cmd)
			rec := IdempotencyRecord{Key: key, Fingerprint: fingerprint, OccurredAt: time.Now().UTC()}
			if err != nil {
				kind := errs.KindOf(err)
				if !slices.Contains(replayableKinds, kind) {
					if relErr := store.Release(storeCtx, key); relErr != nil {
						return nil, errors.Join(err, relErr)
					}
					return nil, err
				}
				rec.Error, rec.ErrorKind = err.Error(), kind.Error()
				if saveErr := store.Save(storeCtx, rec); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				if rec.Payload, err = codec.Encode(result); err != nil {
					return nil, errors.Join(err, store.Release(storeCtx, key))
				}
			}
			if err := store.Save(storeCtx, rec); err != nil {
				return nil, errs.Unavailable(err)
			}
			return result, nil
		})
	}
}

// replayHeld answers a request whose key another request already claimed.
func replayHeld(ctx context.Context, store IdempotencyStore, key, fingerprint string, cmd IdempotentCommand, codec ResultCodec) (any, error) {
	rec, found, err := store.Get(ctx, key)
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	if !found {
		return nil, ErrRequestInFlight
	}
	if rec.Fingerprint != "" && rec.Fingerprint != fingerprint {
		return nil, ErrKeyReused
	}
	if rec.Pending {
		return nil, ErrRequestInFlight
	}
	return replay(rec, cmd, codec)
}

func replay(rec IdempotencyRecord, cmd IdempotentCommand, codec ResultCodec) (any, error) {
	if rec.Error != "" {
		for _, kind := range replayableKinds {
			if kind.Error() == rec.ErrorKind {
				return nil, errs.New(kind, rec.Error)
			}
		}
		return nil, errors.New(rec.Error)
	}
	if len(rec.Payload) == 0 {
		return nil, nil
	}
	out := cmd.ResultPrototype()
	if out == nil {
		return nil, errors.New("middleware: " + cmd.Key() + " has no result prototype")
	}
	if err := codec.Decode(rec.Payload, out); err != nil {
		return nil, err
	}
	return out, nil
}

func fingerprintOf(cmd commands.Command) (string, error) {
	raw, err := json.Marshal(cmd)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
