package market

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := NewMemoryStore()
	s.now = clock.Now

	if err := s.Set(ctx, "bitmex", []byte(`[]`), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, "forever", []byte(`1`), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, ok, _ := s.Get(ctx, "bitmex"); !ok || string(v) != "[]" {
		t.Fatalf("Get() = %q, %v", v, ok)
	}

	clock.Advance(time.Minute)
	if _, ok, _ := s.Get(ctx, "bitmex"); ok {
		t.Fatalf("entry should have expired")
	}
	if _, ok, _ := s.Get(ctx, "forever"); !ok {
		t.Fatalf("entry without ttl should not expire")
	}

	if err := s.Delete(ctx, "forever", "missing"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := s.Get(ctx, "forever"); ok {
		t.Fatalf("entry should be deleted")
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte("abc")
	_ = s.Set(ctx, "k", buf, 0)
	buf[0] = 'x'
	v, _, _ := s.Get(ctx, "k")
	if string(v) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %q", v)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	s := NewRedisStore(client, "exbridge:test:")
	if err := s.Set(ctx, "bitmex", []byte(`{"a":1}`), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, ok, err := s.Get(ctx, "bitmex")
	if err != nil || !ok || string(v) != `{"a":1}` {
		t.Fatalf("Get() = %q, %v, %v", v, ok, err)
	}
	if err := s.Delete(ctx, "bitmex"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, err := s.Get(ctx, "bitmex"); ok || err != nil {
		t.Fatalf("Get() after delete = %v, %v", ok, err)
	}
}
