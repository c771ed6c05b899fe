package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLockManager 单进程部署时使用，锁只在本进程内互斥
type LocalLockManager struct {
	mu     sync.Mutex
	owners map[string]*localLock
	expiry map[string]time.Time
	now    func() time.Time
}

func NewLocalLockManager() *LocalLockManager {
	return &LocalLockManager{
		owners: make(map[string]*localLock),
		expiry: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (m *LocalLockManager) NewLock(key string, opts *LockOptions) DistributedLock {
	if opts == nil {
		opts = DefaultLockOptions()
	}
	return &localLock{manager: m, key: key, ttl: opts.TTL}
}

func (m *LocalLockManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners = make(map[string]*localLock)
	m.expiry = make(map[string]time.Time)
	return nil
}

type localLock struct {
	manager *LocalLockManager
	key     string
	ttl     time.Duration
}

func (l *localLock) TryLock(ctx context.Context) (bool, error) {
	m := l.manager
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	owner, ok := m.owners[l.key]
	if ok && owner != l && now.Before(m.expiry[l.key]) {
		return false, nil
	}
	m.owners[l.key] = l
	m.expiry[l.key] = now.Add(l.ttl)
	return true, nil
}

func (l *localLock) Unlock(ctx context.Context) error {
	m := l.manager
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.owners[l.key] != l {
		return NewLockError(ErrCodeLockNotHeld, "锁未被持有", nil)
	}
	delete(m.owners, l.key)
	delete(m.expiry, l.key)
	return nil
}

func (l *localLock) IsLocked() bool {
	m := l.manager
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owners[l.key] == l && m.now().Before(m.expiry[l.key])
}

func (l *localLock) GetLockKey() string {
	return l.key
}
