package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewIdempotencyStore(client), s
}

func TestIdempotencyStoreFirstCallLocksKey(t *testing.T) {
	store, s := newTestStore(t)
	ctx := context.Background()

	exists, cached, err := store.CheckAndSet(ctx, "key-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if exists {
		t.Fatal("expected first call to claim the key")
	}
	if cached != nil {
		t.Fatalf("expected no cached response, got %q", cached)
	}

	if got, err := s.Get("ledger:idem:key-1"); err != nil || got != "processing" {
		t.Fatalf("expected processing placeholder, got %q (%v)", got, err)
	}
}

func TestIdempotencyStoreSecondCallReturnsCached(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "key-1", nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if err := store.Update(ctx, "key-1", []byte(`{"success":true}`), time.Minute); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	exists, cached, err := store.CheckAndSet(ctx, "key-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if !exists {
		t.Fatal("expected key to exist on replay")
	}
	if string(cached) != `{"success":true}` {
		t.Fatalf("expected stored response, got %q", cached)
	}
}

func TestIdempotencyStoreKeyExpires(t *testing.T) {
	store, s := newTestStore(t)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "key-1", nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}

	s.FastForward(2 * time.Minute)

	exists, _, err := store.CheckAndSet(ctx, "key-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if exists {
		t.Fatal("expected expired key to be claimable again")
	}
}

func TestIdempotencyStoreSetsResponseDirectly(t *testing.T) {
	store, s := newTestStore(t)
	ctx := context.Background()

	exists, _, err := store.CheckAndSet(ctx, "key-1", []byte("cached"), time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if exists {
		t.Fatal("expected fresh key")
	}

	if got, err := s.Get("ledger:idem:key-1"); err != nil || got != "cached" {
		t.Fatalf("expected response to be stored, got %q (%v)", got, err)
	}
}
