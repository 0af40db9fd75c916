package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store 市场缓存的持久化层
//
// 键为 "<exchange>"（市场列表）和 "<exchange>-index"（索引），值为 JSON。
type Store interface {
	// Get 读取键；不存在时 ok 为 false
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set 写入键，ttl <= 0 表示不过期
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete 删除键，不存在的键忽略
	Delete(ctx context.Context, keys ...string) error
}

// IndexKey 返回交易所索引的缓存键
func IndexKey(exchange string) string {
	return exchange + "-index"
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryStore 进程内缓存
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore 创建进程内缓存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.expires.IsZero() && !s.now().Before(entry.expires) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.expires.Equal(entry.expires) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expires = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	return nil
}

// RedisStore 基于 redis 的共享缓存，多个进程可共用同一份市场数据
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore 创建 redis 缓存；prefix 为空时使用 "exbridge:markets:"
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "exbridge:markets:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
