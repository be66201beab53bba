// Package lock keeps two runs from writing to the same store at once.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	apperrors "github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/errors"
)

// Locker grants exclusive ownership of a run. Acquire fails with an error
// wrapping ErrLocked when another holder exists; it never waits.
type Locker interface {
	Acquire(ctx context.Context) (release func() error, err error)
}

// Nop never blocks anyone.
type Nop struct{}

func (Nop) Acquire(context.Context) (func() error, error) {
	return func() error { return nil }, nil
}

// FileLock is a cross-process advisory lock on a local file, suitable for
// the SQLite driver where every run shares one host.
type FileLock struct {
	path string
}

func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

func (l *FileLock) Acquire(context.Context) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	fl := flock.New(l.path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", l.path, err)
	}
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrLocked, "acquire file lock", "%s", l.path)
	}
	return fl.Unlock, nil
}

// KeyValueStore is the subset of pkg/redis.Client used by RedisLock.
type KeyValueStore interface {
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	DeleteIfEqual(ctx context.Context, key, value string) (bool, error)
}

// RedisLock is a TTL-bounded lock in Redis, suitable when several hosts run
// against one PostgreSQL database.
type RedisLock struct {
	kv  KeyValueStore
	key string
	ttl time.Duration
}

func NewRedisLock(kv KeyValueStore, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{kv: kv, key: key, ttl: ttl}
}

func (l *RedisLock) Acquire(ctx context.Context) (func() error, error) {
	token := uuid.NewString()
	ok, err := l.kv.SetIfAbsent(ctx, l.key, token, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquiring redis lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrLocked, "acquire redis lock", "%s", l.key)
	}
	return func() error {
		// a fresh context: the run's context may already be done
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := l.kv.DeleteIfEqual(releaseCtx, l.key, token); err != nil {
			return err
		}
		return nil
	}, nil
}
