package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/store"
)

const defaultKeyPrefix = "shoprec:history:"

// KVOptions 配置 KVStore。
type KVOptions struct {
	// KeyPrefix 是有序集合 key 前缀，默认 "shoprec:history:"
	KeyPrefix string
	// MaxEntries > 0 时每次追加后只保留最近的 MaxEntries 条
	MaxEntries int64
	// TTL > 0 时每次追加后刷新过期时间
	TTL time.Duration
}

// KVStore 把每个用户的浏览记录存为一个有序集合。
// score 为浏览时间（unix 微秒，float64 可精确表示），member 为 "nanos|productID|uuid"，
// nanos 补零到定长，同一微秒内的记录按 member 字典序即按纳秒时间排序。同一商品可重复浏览。
type KVStore struct {
	kv   core.KeyValueStore
	opts KVOptions
	now  func() time.Time
}

func NewKVStore(kv core.KeyValueStore, opts KVOptions) *KVStore {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	return &KVStore{kv: kv, opts: opts, now: time.Now}
}

// NewMemory 返回基于 store.MemoryStore 的 KVStore，用于测试和单机部署。
func NewMemory() *KVStore {
	return NewKVStore(store.NewMemoryStore(), KVOptions{})
}

var _ Store = (*KVStore)(nil)

func (s *KVStore) key(userID string) string {
	return s.opts.KeyPrefix + userID
}

func (s *KVStore) Append(ctx context.Context, userID, productID string) error {
	if err := validate(userID, productID); err != nil {
		return err
	}
	at := s.now()
	member := encodeMember(productID, at)
	key := s.key(userID)

	if err := s.kv.ZAdd(ctx, key, float64(at.UnixMicro()), member); err != nil {
		return fmt.Errorf("history append %s: %w: %w", userID, core.ErrHistoryUnavailable, err)
	}
	if s.opts.MaxEntries > 0 {
		if err := s.kv.ZRemRangeByRank(ctx, key, 0, -s.opts.MaxEntries-1); err != nil {
			return fmt.Errorf("history trim %s: %w: %w", userID, core.ErrHistoryUnavailable, err)
		}
	}
	if s.opts.TTL > 0 {
		if err := s.kv.Expire(ctx, key, s.opts.TTL); err != nil {
			return fmt.Errorf("history expire %s: %w: %w", userID, core.ErrHistoryUnavailable, err)
		}
	}
	return nil
}

func (s *KVStore) Recent(ctx context.Context, userID string, n int) ([]Entry, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n) - 1
	}
	members, err := s.kv.ZRevRange(ctx, s.key(userID), 0, stop)
	if err != nil {
		return nil, fmt.Errorf("history recent %s: %w: %w", userID, core.ErrHistoryUnavailable, err)
	}
	out := make([]Entry, 0, len(members))
	for _, m := range members {
		productID, at, ok := decodeMember(m)
		if !ok {
			continue
		}
		out = append(out, Entry{UserID: userID, ProductID: productID, ViewedAt: at})
	}
	return out, nil
}

// Close 关闭底层存储。
func (s *KVStore) Close() error {
	return s.kv.Close()
}

func encodeMember(productID string, at time.Time) string {
	return fmt.Sprintf("%019d|%s|%s", at.UnixNano(), productID, uuid.NewString())
}

// decodeMember 取第一个和最后一个 "|" 之间的部分作为 productID，productID 自身可以包含 "|"。
func decodeMember(m string) (string, time.Time, bool) {
	i := strings.IndexByte(m, '|')
	j := strings.LastIndexByte(m, '|')
	if i < 0 || j <= i {
		return "", time.Time{}, false
	}
	nanos, err := strconv.ParseInt(m[:i], 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return m[i+1 : j], time.Unix(0, nanos), true
}
