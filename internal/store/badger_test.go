package store

import (
	"context"
	"sync"
	"testing"
	"time"
)

func setupTestBadger(t *testing.T) *Badger {
	t.Helper()
	b, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	t.Cleanup(func() {
		if cErr := b.Close(); cErr != nil {
			t.Logf("badger.Close error: %v", cErr)
		}
	})
	return b
}

func TestBadger_GetSetDel(t *testing.T) {
	b := setupTestBadger(t)
	ctx := context.Background()

	if got, err := b.Get(ctx, "missing"); err != nil || got != nil {
		t.Fatalf("Expected clean miss, got %q, %v", got, err)
	}

	if err := b.Set(ctx, "catalog:albuminfo:x", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := b.Get(ctx, "catalog:albuminfo:x")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Expected v, got %q", got)
	}

	if err := b.Del(ctx, "catalog:albuminfo:x", "never-set"); err != nil {
		t.Fatalf("Del failed: %v", err)
	}
	if got, _ := b.Get(ctx, "catalog:albuminfo:x"); got != nil {
		t.Errorf("Expected miss after Del, got %q", got)
	}
}

func TestBadger_Keys(t *testing.T) {
	b := setupTestBadger(t)
	ctx := context.Background()

	for _, k := range []string{"notfound:catalog:a", "notfound:catalog:b", "failure:catalog:a", "catalog:albuminfo:a"} {
		if err := b.Set(ctx, k, []byte("1"), 0); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	tests := []struct {
		pattern string
		want    int
	}{
		{"notfound:catalog:*", 2},
		{"*:catalog:*", 3},
		{"catalog:albuminfo:?", 1},
		{"missing:*", 0},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			keys, err := b.Keys(ctx, tt.pattern)
			if err != nil {
				t.Fatalf("Keys failed: %v", err)
			}
			if len(keys) != tt.want {
				t.Errorf("Keys(%q) = %v, want %d keys", tt.pattern, keys, tt.want)
			}
		})
	}
}

func TestBadger_IncrConcurrent(t *testing.T) {
	b := setupTestBadger(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := b.Incr(ctx, "ratelimit:catalog:count", time.Minute); err != nil {
				t.Errorf("Incr failed: %v", err)
			}
		}()
	}
	wg.Wait()

	n, err := b.Incr(ctx, "ratelimit:catalog:count", time.Minute)
	if err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	if n != 6 {
		t.Errorf("Expected 6 after concurrent increments, got %d", n)
	}
}

func TestBadger_InMemory(t *testing.T) {
	b, err := NewBadger("")
	if err != nil {
		t.Fatalf("Failed to open in-memory badger: %v", err)
	}
	defer b.Close()

	if err := b.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := b.Maintain(context.Background()); err != nil {
		t.Errorf("Maintain failed: %v", err)
	}
}
