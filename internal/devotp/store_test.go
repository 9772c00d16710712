package devotp

import (
	"context"
	"sync"
	"testing"
	"time"

	"account-service/internal/notify"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Put(ctx, "Alice@Example.com", "123456", time.Now().UTC().Add(5*time.Minute))

	tests := []struct {
		identifier string
		want       string
		ok         bool
	}{
		{"alice@example.com", "123456", true},
		{"ALICE@EXAMPLE.COM", "123456", true},
		{" alice@example.com ", "123456", true},
		{"bob@example.com", "", false},
	}
	for _, tt := range tests {
		got, ok := store.Get(ctx, tt.identifier)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Get(%q) = %q, %v; want %q, %v", tt.identifier, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMemoryStore_PutReplaces(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	exp := time.Now().UTC().Add(time.Minute)
	store.Put(ctx, "+919876543210", "111111", exp)
	store.Put(ctx, "+919876543210", "222222", exp)
	if got, _ := store.Get(ctx, "+919876543210"); got != "222222" {
		t.Errorf("Get = %q, want latest code", got)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.nowF = func() time.Time { return now }
	store.Put(ctx, "+1555", "123456", now.Add(10*time.Minute))

	now = now.Add(10 * time.Minute)
	if _, ok := store.Get(ctx, "+1555"); !ok {
		t.Fatal("code should still be readable at exactly its expiry")
	}
	now = now.Add(time.Second)
	if _, ok := store.Get(ctx, "+1555"); ok {
		t.Fatal("expired code should not be returned")
	}
	store.mu.RLock()
	_, present := store.m["+1555"]
	store.mu.RUnlock()
	if present {
		t.Error("expired entry should be evicted")
	}
}

func TestMemoryStore_EvictionKeepsFreshPut(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Put(ctx, "+1555", "111111", now.Add(-time.Second))

	// A new code lands between the expired read and the eviction.
	replaced := false
	store.nowF = func() time.Time {
		if !replaced {
			replaced = true
			store.Put(ctx, "+1555", "222222", now.Add(10*time.Minute))
		}
		return now
	}

	if _, ok := store.Get(ctx, "+1555"); ok {
		t.Fatal("expired code should not be returned")
	}
	if got, ok := store.Get(ctx, "+1555"); !ok || got != "222222" {
		t.Errorf("Get after replacement = %q, %v; want the fresh code", got, ok)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	exp := time.Now().UTC().Add(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); store.Put(ctx, "a@b.c", "123456", exp) }()
		go func() { defer wg.Done(); _, _ = store.Get(ctx, "a@b.c") }()
	}
	wg.Wait()
}

func TestSink_Deliver(t *testing.T) {
	store := NewMemoryStore()
	sink := NewSink(store, 10*time.Minute, nil)
	if err := sink.Deliver(context.Background(), notify.ChannelSMS, "+919876543210", "482913"); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got, ok := store.Get(context.Background(), "+919876543210"); !ok || got != "482913" {
		t.Errorf("stored = %q, %v", got, ok)
	}
}
