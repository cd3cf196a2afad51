package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

const (
	maxMemoryEntries = 5000
	evictBatch       = 500
)

// MemoryCache 进程内实现，超过上限时淘汰最旧的一批
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*SkipEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries: make(map[string]*SkipEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, rawURL string) (*SkipEntry, bool, error) {
	key := NormalizeURL(rawURL)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.now().Sub(e.Timestamp) > m.ttl {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e, true, nil
}

func (m *MemoryCache) Put(_ context.Context, rawURL string, entry *SkipEntry) error {
	key := NormalizeURL(rawURL)

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= maxMemoryEntries {
		m.evictOldest(evictBatch)
	}
	e := *entry
	if e.Timestamp.IsZero() {
		e.Timestamp = m.now()
	}
	m.entries[key] = &e
	return nil
}

func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryCache) evictOldest(n int) {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return m.entries[keys[i]].Timestamp.Before(m.entries[keys[j]].Timestamp)
	})
	if n > len(keys) {
		n = len(keys)
	}
	for _, k := range keys[:n] {
		delete(m.entries, k)
	}
}
