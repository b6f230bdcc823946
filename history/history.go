// Package history 保存用户浏览记录，只追加不修改。
//
// 后端：
//   - KVStore：基于 core.KeyValueStore 的有序集合（store.MemoryStore / store.RedisStore）
//   - GormStore：关系库 browsing_history 表（sqlite / postgres）
package history

import (
	"context"
	"strings"
	"time"

	"github.com/rushteam/shoprec/core"
)

// Entry 是一条浏览记录。
type Entry struct {
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	ViewedAt  time.Time `json:"viewed_at"`
}

// Store 是浏览历史的读写接口。
type Store interface {
	// Append 记录 userID 在当前时间浏览了 productID
	Append(ctx context.Context, userID, productID string) error

	// Recent 按 ViewedAt 降序返回最近 n 条，n <= 0 返回全部
	Recent(ctx context.Context, userID string, n int) ([]Entry, error)
}

// Latest 返回最近一条记录；没有记录时 ok 为 false。
func Latest(ctx context.Context, s Store, userID string) (Entry, bool, error) {
	entries, err := s.Recent(ctx, userID, 1)
	if err != nil || len(entries) == 0 {
		return Entry{}, false, err
	}
	return entries[0], true, nil
}

func validate(userID, productID string) error {
	if strings.TrimSpace(userID) == "" {
		return core.InvalidInput(core.ModuleHistory, "user id is required")
	}
	if strings.TrimSpace(productID) == "" {
		return core.InvalidInput(core.ModuleHistory, "product id is required")
	}
	return nil
}
