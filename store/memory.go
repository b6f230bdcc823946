package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/shoprec/core"
)

// MemoryStore 是内存实现的 KeyValueStore，用于测试/开发/单机部署。
// 支持 TTL（过期时间），但进程重启后数据丢失。
type MemoryStore struct {
	mu    sync.RWMutex
	zsets map[string]map[string]float64 // zset key -> member -> score
	ttl   map[string]time.Time
	clean *time.Ticker
	done  chan struct{}
	once  sync.Once
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		zsets: make(map[string]map[string]float64),
		ttl:   make(map[string]time.Time),
		clean: time.NewTicker(10 * time.Second),
		done:  make(chan struct{}),
	}
	go ms.cleanup()
	return ms
}

var _ core.KeyValueStore = (*MemoryStore)(nil)

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.zsets, key)
	delete(m.ttl, key)
	return nil
}

func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		m.clean.Stop()
		close(m.done)
	})
	return nil
}

func (m *MemoryStore) ZAdd(_ context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.expiredLocked(key, time.Now()) {
		delete(m.zsets, key)
		delete(m.ttl, key)
	}
	if m.zsets[key] == nil {
		m.zsets[key] = make(map[string]float64)
	}
	m.zsets[key][member] = score
	return nil
}

func (m *MemoryStore) ZRevRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pairs := m.sortedLocked(key, true)
	lo, hi, ok := clampRange(int64(len(pairs)), start, stop)
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, pairs[i].member)
	}
	return out, nil
}

func (m *MemoryStore) ZCard(_ context.Context, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.expiredLocked(key, time.Now()) {
		return 0, nil
	}
	return int64(len(m.zsets[key])), nil
}

func (m *MemoryStore) ZRemRangeByRank(_ context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pairs := m.sortedLocked(key, false)
	lo, hi, ok := clampRange(int64(len(pairs)), start, stop)
	if !ok {
		return nil
	}
	for i := lo; i <= hi; i++ {
		delete(m.zsets[key], pairs[i].member)
	}
	return nil
}

func (m *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl <= 0 {
		delete(m.ttl, key)
		return nil
	}
	m.ttl[key] = time.Now().Add(ttl)
	return nil
}

type pair struct {
	member string
	score  float64
}

// sortedLocked 返回按分数排序的成员；同分时按 member 字典序（与 Redis 一致）。
func (m *MemoryStore) sortedLocked(key string, desc bool) []pair {
	if m.expiredLocked(key, time.Now()) {
		return nil
	}
	zset := m.zsets[key]
	pairs := make([]pair, 0, len(zset))
	for mem, s := range zset {
		pairs = append(pairs, pair{member: mem, score: s})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			if desc {
				return pairs[i].score > pairs[j].score
			}
			return pairs[i].score < pairs[j].score
		}
		if desc {
			return pairs[i].member > pairs[j].member
		}
		return pairs[i].member < pairs[j].member
	})
	return pairs
}

func (m *MemoryStore) expiredLocked(key string, now time.Time) bool {
	expire, ok := m.ttl[key]
	return ok && now.After(expire)
}

// clampRange 按 Redis 语义处理负下标，返回闭区间 [lo, hi]。
func clampRange(n, start, stop int64) (int64, int64, bool) {
	if n == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += n
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return 0, 0, false
	}
	return start, stop, true
}

func (m *MemoryStore) cleanup() {
	for {
		select {
		case <-m.done:
			return
		case <-m.clean.C:
			m.mu.Lock()
			now := time.Now()
			for k := range m.ttl {
				if m.expiredLocked(k, now) {
					delete(m.zsets, k)
					delete(m.ttl, k)
				}
			}
			m.mu.Unlock()
		}
	}
}
