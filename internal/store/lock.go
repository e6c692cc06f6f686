package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Lock a single-flight advisory lock on top of the KV store. Used to keep
// concurrent reconciliation runs for the same scope from interleaving.
type Lock struct {
	kv    KV
	key   string
	token string
}

// AcquireLock tries to take the lock. Returns (nil, nil) when someone else
// holds it. The TTL bounds how long a crashed holder can block others.
func AcquireLock(ctx context.Context, kv KV, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	ok, err := kv.SetNX(ctx, key, token, ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &Lock{kv: kv, key: key, token: token}, nil
}

// Release drops the lock if we still own it. A lock that expired and was
// re-acquired by another holder is left alone; the ownership check and the
// delete run as one server-side step.
func (l *Lock) Release(ctx context.Context) error {
	_, err := l.kv.DelIfEquals(ctx, l.key, l.token)
	return err
}
