package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

const lockKeyPrefix = "room-booking:lock:"

// 所有トークンが一致する場合のみ操作する
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
	extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)
)

// Lock は取得済みのロック
type Lock interface {
	Release(ctx context.Context) error
	Extend(ctx context.Context, ttl time.Duration) error
}

// LockManagerInterface は BookingService が部屋ストア全体を直列化するためのロック取得手段
type LockManagerInterface interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (Lock, error)
	AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (Lock, error)
}

var _ LockManagerInterface = (*LockManager)(nil)

// LockManager は SET NX PX によるロックを発行する
type LockManager struct {
	client *redis.Client
}

func NewLockManager(client *redis.Client) *LockManager {
	return &LockManager{client: client}
}

// DistributedLock は1つのキーに対する所有トークン付きのロック
type DistributedLock struct {
	client *redis.Client
	key    string
	token  string
}

func lockKey(key string) string {
	return lockKeyPrefix + key
}

// AcquireLock は一度だけ取得を試みる。保持者がいれば ErrLockNotAcquired
func (m *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	l := &DistributedLock{client: m.client, key: lockKey(key), token: uuid.NewString()}

	ok, err := m.client.SetNX(ctx, l.key, l.token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗 (%s): %w", l.key, err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	return l, nil
}

// AcquireLockWithRetry は競合時のみ retryDelay 間隔で最大 maxRetries 回試みる
// Redis 障害や ctx のキャンセルは即座に返す
func (m *LockManager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (Lock, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 1; ; attempt++ {
		l, err := m.AcquireLock(ctx, key, ttl)
		if err == nil || !errors.Is(err, ErrLockNotAcquired) || attempt == maxRetries {
			return l, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}

// Release はトークンが一致する場合のみキーを削除する
func (l *DistributedLock) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("ロック解放に失敗 (%s): %w", l.key, err)
	}
	if n == 0 {
		return ErrLockNotOwned
	}
	return nil
}

// Extend は保持中のロックの有効期限を ttl に更新する
func (l *DistributedLock) Extend(ctx context.Context, ttl time.Duration) error {
	n, err := extendScript.Run(ctx, l.client, []string{l.key}, l.token, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("ロック延長に失敗 (%s): %w", l.key, err)
	}
	if n == 0 {
		return ErrLockNotOwned
	}
	return nil
}
