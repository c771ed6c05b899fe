package lock

import (
	"context"
	"fmt"
	"time"
)

// DistributedLock 分布式锁接口
type DistributedLock interface {
	// TryLock 尝试获取锁，不阻塞；已持有时续期
	TryLock(ctx context.Context) (bool, error)

	// Unlock 释放锁
	Unlock(ctx context.Context) error

	// IsLocked 检查锁是否被当前实例持有
	IsLocked() bool

	// GetLockKey 获取锁的键
	GetLockKey() string
}

// LockOptions 锁配置选项
type LockOptions struct {
	// TTL 锁的生存时间，持有者需在过期前续期
	TTL time.Duration
}

func DefaultLockOptions() *LockOptions {
	return &LockOptions{TTL: 30 * time.Second}
}

// LockManager 锁管理器接口
type LockManager interface {
	NewLock(key string, opts *LockOptions) DistributedLock
	Close() error
}

// LockError 锁相关错误
type LockError struct {
	Code    string
	Message string
	Cause   error
}

func (e *LockError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("锁错误 [%s]: %s, 原因: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("锁错误 [%s]: %s", e.Code, e.Message)
}

func (e *LockError) Unwrap() error {
	return e.Cause
}

const (
	ErrCodeLockNotHeld = "LOCK_NOT_HELD"
	ErrCodeLockBackend = "LOCK_BACKEND"
)

func NewLockError(code, message string, cause error) *LockError {
	return &LockError{Code: code, Message: message, Cause: cause}
}
