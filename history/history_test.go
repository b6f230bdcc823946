package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/store"
)

// stepClock 每次调用前进一秒。
func stepClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newKV(t *testing.T, opts KVOptions) *KVStore {
	t.Helper()
	kv := store.NewMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })
	s := NewKVStore(kv, opts)
	s.now = stepClock()
	return s
}

func newGorm(t *testing.T) *GormStore {
	t.Helper()
	db, err := OpenDB("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB() error = %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s, err := NewGormStore(db)
	if err != nil {
		t.Fatalf("NewGormStore() error = %v", err)
	}
	s.now = stepClock()
	return s
}

func TestStores(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"kv":   func(t *testing.T) Store { return newKV(t, KVOptions{}) },
		"gorm": func(t *testing.T) Store { return newGorm(t) },
	}
	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t)

			for _, pid := range []string{"P1", "P2", "P1", "P3"} {
				if err := s.Append(ctx, "u1", pid); err != nil {
					t.Fatalf("Append(%s) error = %v", pid, err)
				}
			}
			_ = s.Append(ctx, "u2", "P9")

			got, err := s.Recent(ctx, "u1", 0)
			if err != nil {
				t.Fatalf("Recent() error = %v", err)
			}
			want := []string{"P3", "P1", "P2", "P1"}
			if len(got) != len(want) {
				t.Fatalf("Recent() len = %d, want %d", len(got), len(want))
			}
			for i, e := range got {
				if e.ProductID != want[i] || e.UserID != "u1" {
					t.Errorf("Recent()[%d] = %+v, want product %s", i, e, want[i])
				}
				if i > 0 && e.ViewedAt.After(got[i-1].ViewedAt) {
					t.Errorf("Recent() not sorted by ViewedAt desc at %d", i)
				}
			}

			top, _ := s.Recent(ctx, "u1", 2)
			if len(top) != 2 || top[0].ProductID != "P3" {
				t.Errorf("Recent(2) = %+v", top)
			}

			latest, ok, err := Latest(ctx, s, "u1")
			if err != nil || !ok || latest.ProductID != "P3" {
				t.Errorf("Latest() = %+v, %v, %v", latest, ok, err)
			}

			_, ok, err = Latest(ctx, s, "nobody")
			if err != nil || ok {
				t.Errorf("Latest(nobody) ok = %v, err = %v", ok, err)
			}

			if err := s.Append(ctx, "", "P1"); !core.IsInvalidInput(err) {
				t.Errorf("Append(empty user) error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

// brokenKV 模拟写入失败的有序集合后端。
type brokenKV struct {
	*store.MemoryStore
}

func (brokenKV) ZAdd(context.Context, string, float64, string) error {
	return errors.New("connection refused")
}

func (brokenKV) ZRevRange(context.Context, string, int64, int64) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestStores_BackendFailureIsUnavailable(t *testing.T) {
	ctx := context.Background()

	mem := store.NewMemoryStore()
	t.Cleanup(func() { _ = mem.Close() })
	kv := NewKVStore(brokenKV{mem}, KVOptions{})

	gs := newGorm(t)
	sqlDB, _ := gs.db.DB()
	_ = sqlDB.Close()

	backends := map[string]Store{"kv": kv, "gorm": gs}
	for name, s := range backends {
		t.Run(name, func(t *testing.T) {
			if err := s.Append(ctx, "u1", "P1"); !core.IsUnavailable(err) {
				t.Errorf("Append() error = %v, want UNAVAILABLE", err)
			}
			if _, err := s.Recent(ctx, "u1", 0); !core.IsUnavailable(err) {
				t.Errorf("Recent() error = %v, want UNAVAILABLE", err)
			}
			if err := s.Append(ctx, "", "P1"); !core.IsInvalidInput(err) {
				t.Errorf("Append(empty user) error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestKVStore_MaxEntries(t *testing.T) {
	ctx := context.Background()
	s := newKV(t, KVOptions{MaxEntries: 2, TTL: time.Hour})

	for _, pid := range []string{"A", "B", "C"} {
		_ = s.Append(ctx, "u", pid)
	}
	got, _ := s.Recent(ctx, "u", 0)
	if len(got) != 2 || got[0].ProductID != "C" || got[1].ProductID != "B" {
		t.Errorf("Recent() = %+v, want [C B]", got)
	}
}

func TestKVStore_LatestWithinOneMicrosecond(t *testing.T) {
	ctx := context.Background()
	s := newKV(t, KVOptions{})
	base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		products []string
		step     time.Duration
		want     string
	}{
		{name: "100ns apart, later id sorts first", products: []string{"P3", "P1"}, step: 100 * time.Nanosecond, want: "P1"},
		{name: "100ns apart, later id sorts last", products: []string{"P1", "P3"}, step: 100 * time.Nanosecond, want: "P3"},
		{name: "1ns apart", products: []string{"Z", "A", "M"}, step: time.Nanosecond, want: "M"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := fmt.Sprintf("u%d", i)
			at := base
			s.now = func() time.Time {
				at = at.Add(tt.step)
				return at
			}
			for _, pid := range tt.products {
				if err := s.Append(ctx, user, pid); err != nil {
					t.Fatalf("Append(%s) error = %v", pid, err)
				}
			}
			latest, ok, err := Latest(ctx, s, user)
			if err != nil || !ok || latest.ProductID != tt.want {
				t.Errorf("Latest() = %+v, %v, %v, want %s", latest, ok, err, tt.want)
			}
			got, _ := s.Recent(ctx, user, 0)
			for k := 1; k < len(got); k++ {
				if !got[k].ViewedAt.Before(got[k-1].ViewedAt) {
					t.Errorf("Recent() not strictly ordered by ViewedAt: %+v", got)
				}
			}
		})
	}
}

func TestDecodeMember(t *testing.T) {
	at := time.Unix(0, 1700000000123456789)
	pid, got, ok := decodeMember(encodeMember("a|b", at))
	if !ok || pid != "a|b" || !got.Equal(at) {
		t.Errorf("decodeMember() = %q, %v, %v", pid, got, ok)
	}
	if _, _, ok := decodeMember("garbage"); ok {
		t.Error("decodeMember(garbage) ok = true")
	}
}
