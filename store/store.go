// Package store 只包含 core.KeyValueStore 的实现，接口定义在 core 包。
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
//	kv, err := store.NewRedisStore(ctx, store.RedisOptions{Addr: "127.0.0.1:6379"})
package store
