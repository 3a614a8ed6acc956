// Package store 提供 core.Store 的实现：进程内 MemoryStore 与 RedisStore。
// 目录导入（wardrobe import）写入这里，服务启动时再整体读回。
package store

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/wardrobe/core"
)

// MemoryStore 是内存实现的 Store，用于测试与单机开发。
// 支持 TTL，过期 key 在读取时忽略，并由后台协程定期清理；进程重启后数据丢失。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memEntry

	stop     chan struct{}
	stopOnce sync.Once
}

type memEntry struct {
	value    []byte
	expireAt time.Time // 零值表示永不过期
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// NewMemoryStore 创建 MemoryStore，cleanupInterval <= 0 时使用 30s。
func NewMemoryStore(cleanupInterval ...time.Duration) *MemoryStore {
	interval := 30 * time.Second
	if len(cleanupInterval) > 0 && cleanupInterval[0] > 0 {
		interval = cleanupInterval[0]
	}
	m := &MemoryStore{
		data: make(map[string]memEntry),
		stop: make(chan struct{}),
	}
	go m.cleanup(interval)
	return m
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok || e.expired(time.Now()) {
		return nil, core.ErrStoreNotFound
	}
	return e.value, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	expireAt := expiry(ttl)
	m.mu.Lock()
	m.data[key] = memEntry{value: clone(value), expireAt: expireAt}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	now := time.Now()
	result := make(map[string][]byte, len(keys))

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, k := range keys {
		if e, ok := m.data[k]; ok && !e.expired(now) {
			result[k] = e.value
		}
	}
	return result, nil
}

func (m *MemoryStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	expireAt := expiry(ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range kvs {
		m.data[k] = memEntry{value: clone(v), expireAt: expireAt}
	}
	return nil
}

// Len 返回未过期的 key 数量。
func (m *MemoryStore) Len() int {
	now := time.Now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.data {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

func (m *MemoryStore) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for k, e := range m.data {
				if e.expired(now) {
					delete(m.data, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

func expiry(ttl []int) time.Time {
	if len(ttl) > 0 && ttl[0] > 0 {
		return time.Now().Add(time.Duration(ttl[0]) * time.Second)
	}
	return time.Time{}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ core.Store = (*MemoryStore)(nil)
