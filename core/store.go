package core

import (
	"context"
	"time"
)

// Store 是存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 领域层不依赖基础设施层
//
// 实现：
//   - store.MemoryStore（测试/开发）
//   - store.RedisStore（生产）
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// Close 关闭连接/释放资源
	Close() error
}

// KeyValueStore 是 Store 的扩展接口，提供有序集合操作。
// 浏览历史按用户存为有序集合：score 为时间戳，member 为事件。
type KeyValueStore interface {
	Store

	// ZAdd 向有序集合添加成员
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRevRange 按分数降序获取 [start, stop] 名次的成员（stop = -1 表示到末尾）
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// ZCard 返回有序集合成员数
	ZCard(ctx context.Context, key string) (int64, error)

	// ZRemRangeByRank 按分数升序删除 [start, stop] 名次的成员，用于裁剪历史长度
	ZRemRangeByRank(ctx context.Context, key string, start, stop int64) error

	// Expire 设置 key 的过期时间，ttl <= 0 表示永不过期
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
