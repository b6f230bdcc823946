package store_test

import (
	"context"
	"os/exec"
	"reflect"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/history"
	"github.com/rushteam/shoprec/store"
)

func dockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// startRedis 启动一个临时 redis 容器，返回连接它的客户端。
func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in -short mode")
	}
	if !dockerAvailable() {
		t.Skip("skipping redis container test: docker not available")
	}

	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(ctx); err != nil {
			t.Logf("terminate redis container: %v", err)
		}
	})

	addr, err := c.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}
	return client
}

func TestRedisStore_SortedSet(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	mem := store.NewMemoryStore()
	t.Cleanup(func() { _ = mem.Close() })

	backends := map[string]core.KeyValueStore{
		"redis":  store.NewRedisStoreFromClient(client),
		"memory": mem,
	}
	for name, kv := range backends {
		t.Run(name, func(t *testing.T) {
			key := "shoprec:test:" + name
			for i, m := range []string{"a", "b", "c", "d"} {
				if err := kv.ZAdd(ctx, key, float64(i), m); err != nil {
					t.Fatalf("ZAdd(%s) error = %v", m, err)
				}
			}
			// 同分时按 member 逆字典序
			_ = kv.ZAdd(ctx, key, 3, "e")

			got, err := kv.ZRevRange(ctx, key, 0, -1)
			if err != nil {
				t.Fatalf("ZRevRange() error = %v", err)
			}
			if want := []string{"e", "d", "c", "b", "a"}; !reflect.DeepEqual(got, want) {
				t.Errorf("ZRevRange() = %v, want %v", got, want)
			}

			if err := kv.ZRemRangeByRank(ctx, key, 0, -3); err != nil {
				t.Fatalf("ZRemRangeByRank() error = %v", err)
			}
			if n, _ := kv.ZCard(ctx, key); n != 2 {
				t.Errorf("ZCard() after trim = %d, want 2", n)
			}

			if missing, err := kv.ZRevRange(ctx, key+":missing", 0, -1); err != nil || len(missing) != 0 {
				t.Errorf("ZRevRange(missing) = %v, %v", missing, err)
			}

			if err := kv.Delete(ctx, key); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if n, _ := kv.ZCard(ctx, key); n != 0 {
				t.Errorf("ZCard() after Delete = %d", n)
			}
		})
	}
}

func TestRedisStore_ExpireAndPersist(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	r := store.NewRedisStoreFromClient(client)

	const key = "shoprec:test:ttl"
	_ = r.ZAdd(ctx, key, 1, "a")

	if err := r.Expire(ctx, key, time.Hour); err != nil {
		t.Fatalf("Expire() error = %v", err)
	}
	if ttl := client.TTL(ctx, key).Val(); ttl <= 0 || ttl > time.Hour {
		t.Errorf("TTL after Expire = %v", ttl)
	}

	if err := r.Expire(ctx, key, 0); err != nil {
		t.Fatalf("Expire(0) error = %v", err)
	}
	if ttl := client.TTL(ctx, key).Val(); ttl != -1 {
		t.Errorf("TTL after Expire(0) = %v, want -1 (persisted)", ttl)
	}
}

func TestRedisStore_HistoryLatest(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	h := history.NewKVStore(store.NewRedisStoreFromClient(client), history.KVOptions{MaxEntries: 3, TTL: time.Hour})

	for _, pid := range []string{"P1", "P2", "P3", "P4"} {
		if err := h.Append(ctx, "u1", pid); err != nil {
			t.Fatalf("Append(%s) error = %v", pid, err)
		}
	}
	got, err := h.Recent(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	ids := make([]string, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ProductID)
	}
	if want := []string{"P4", "P3", "P2"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("Recent() = %v, want %v", ids, want)
	}
}
