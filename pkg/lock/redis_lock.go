package lock

import (
	"context"
	"errors"
	"sync"

	"github.com/bsm/redislock"
)

// RedisLockManager 基于 redislock 的锁管理器
type RedisLockManager struct {
	client *redislock.Client
}

func NewRedisLockManager(client *redislock.Client) *RedisLockManager {
	return &RedisLockManager{client: client}
}

func (m *RedisLockManager) NewLock(key string, opts *LockOptions) DistributedLock {
	if opts == nil {
		opts = DefaultLockOptions()
	}
	return &redisLock{client: m.client, key: key, opts: opts}
}

func (m *RedisLockManager) Close() error {
	return nil
}

type redisLock struct {
	client *redislock.Client
	key    string
	opts   *LockOptions

	mu   sync.Mutex
	held *redislock.Lock
}

func (l *redisLock) TryLock(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held != nil {
		err := l.held.Refresh(ctx, l.opts.TTL, nil)
		if err == nil {
			return true, nil
		}
		l.held = nil
		if !errors.Is(err, redislock.ErrNotObtained) {
			return false, NewLockError(ErrCodeLockBackend, "续期失败", err)
		}
	}

	held, err := l.client.Obtain(ctx, l.key, l.opts.TTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, NewLockError(ErrCodeLockBackend, "获取锁失败", err)
	}
	l.held = held
	return true, nil
}

func (l *redisLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held == nil {
		return NewLockError(ErrCodeLockNotHeld, "锁未被持有", nil)
	}
	err := l.held.Release(ctx)
	l.held = nil
	if err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		return NewLockError(ErrCodeLockBackend, "释放锁失败", err)
	}
	return nil
}

func (l *redisLock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held != nil
}

func (l *redisLock) GetLockKey() string {
	return l.key
}
