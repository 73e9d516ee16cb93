// README: Per-booking assignment lock. Redis-backed across replicas, in-process otherwise.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"carebook/internal/types"
)

const (
	lockKeyPrefix = "assignment:booking:%s:lock"
	lockPoll      = 25 * time.Millisecond
)

// Locker serialises assignment attempts on one booking. The store's compare-and-set
// stays authoritative; the lock only keeps concurrent attempts from racing on it.
type Locker interface {
	Acquire(ctx context.Context, bookingID types.ID) (release func(), err error)
}

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisLocker holds each lock for at most ttl and waits at most ttl to acquire one.
func NewRedisLocker(redis *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{redis: redis, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, bookingID types.ID) (func(), error) {
	key := fmt.Sprintf(lockKeyPrefix, string(bookingID))
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()
	ticker := time.NewTicker(lockPoll)
	defer ticker.Stop()

	for {
		ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: acquire lock: %v", types.ErrStoreUnavailable, err)
		}
		if ok {
			return func() {
				rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
				defer rcancel()
				_ = releaseScript.Run(rctx, l.redis, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: booking %s is locked", types.ErrStoreUnavailable, bookingID)
		case <-ticker.C:
		}
	}
}

// LocalLocker is a process-local Locker keyed by booking id. An entry lives only while
// someone holds or waits for it.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[types.ID]*localLock
}

type localLock struct {
	mu   sync.Mutex
	refs int // holders plus waiters; guarded by LocalLocker.mu
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: map[types.ID]*localLock{}}
}

func (l *LocalLocker) Acquire(ctx context.Context, bookingID types.ID) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[bookingID]
	if !ok {
		e = &localLock{}
		l.locks[bookingID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.locks, bookingID)
			}
			l.mu.Unlock()
		})
	}, nil
}

func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
