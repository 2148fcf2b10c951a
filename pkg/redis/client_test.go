package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestSetNXOnlyFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	key := client.IdempotencyKey("notify:whatsapp", "order-1")
	first, err := client.SetNX(ctx, key, "1", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := client.SetNX(ctx, key, "1", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first || second {
		t.Fatalf("expected only the first SetNX to win, got first=%v second=%v", first, second)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	if _, err := client.SetNX(context.Background(), "k", "v", 0); err == nil {
		t.Fatal("expected error from nil store")
	}
	if _, err := client.DelIfValue(context.Background(), "k", "v"); err == nil {
		t.Fatal("expected error from nil scripter")
	}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error from nil store")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on nil raw client should be a no-op, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "oop:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.IdempotencyKey("scope", ""); got != "oop:idempotency:scope" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestMemoryStoreExpiresKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ok, err := store.SetNX(ctx, "k", 1, time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first SetNX to succeed, got ok=%v err=%v", ok, err)
	}
	if ok, _ := store.SetNX(ctx, "k", 1, time.Minute); ok {
		t.Fatal("expected duplicate SetNX to fail")
	}
	if v, err := store.Get(ctx, "k"); err != nil || v != "1" {
		t.Fatalf("unexpected get result %q %v", v, err)
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := store.SetNX(ctx, "k", 1, time.Minute); !ok {
		t.Fatal("expected SetNX to succeed after expiry")
	}
	if got := store.IdempotencyKey("a", "b"); got != "oop:idempotency:a:b" {
		t.Fatalf("unexpected key %s", got)
	}
}

func TestMemoryStoreDelIfValue(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if _, err := store.SetNX(ctx, "lock", "owner-a", time.Minute); err != nil {
		t.Fatalf("setnx: %v", err)
	}
	if ok, _ := store.DelIfValue(ctx, "lock", "owner-b"); ok {
		t.Fatal("a different owner must not delete the key")
	}
	if ok, _ := store.DelIfValue(ctx, "lock", "owner-a"); !ok {
		t.Fatal("owner should delete the key")
	}
	if _, err := store.Get(ctx, "lock"); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected key gone, got %v", err)
	}
}

type mockCmdable struct {
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
