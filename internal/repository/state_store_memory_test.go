package repository

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStateStoreSetGetDelete(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("get: %q %v", got, err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = store.Get(ctx, "k")
	if err != nil || got != nil {
		t.Fatalf("deleted key still present: %q %v", got, err)
	}
}

func TestMemoryStateStoreTTL(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	exists, err := store.Exists(ctx, "k")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("expired key still exists")
	}
}

func TestMemoryStateStoreIncr(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := store.Incr(ctx, "counter", time.Minute)
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if n != want {
			t.Fatalf("expected %d, got %d", want, n)
		}
	}

	// An expired window restarts the count.
	if _, err := store.Incr(ctx, "window", 10*time.Millisecond); err != nil {
		t.Fatalf("incr: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	n, err := store.Incr(ctx, "window", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("incr after expiry: %v", err)
	}
	if n != 1 {
		t.Fatalf("window did not reset, got %d", n)
	}
}
