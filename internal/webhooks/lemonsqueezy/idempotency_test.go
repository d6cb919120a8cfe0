package lemonsqueezywebhook

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type memoryIdempotencyStore struct {
	seen map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{seen: map[string]string{}}
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return m.seen[key], nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.seen[key]; ok {
		return false, nil
	}
	m.seen[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.seen, key)
	}
	return nil
}

func TestIdempotencyGuardMarksAndReleases(t *testing.T) {
	store := newMemoryIdempotencyStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "webhook:lemonsqueezy")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	ctx := context.Background()
	seen, err := guard.CheckAndMark(ctx, "evt-1")
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if seen {
		t.Fatal("expected fresh event to be unseen")
	}

	seen, err = guard.CheckAndMark(ctx, "evt-1")
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !seen {
		t.Fatal("expected replayed event to be seen")
	}

	if err := guard.Delete(ctx, "evt-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	seen, err = guard.CheckAndMark(ctx, "evt-1")
	if err != nil {
		t.Fatalf("check after delete: %v", err)
	}
	if seen {
		t.Fatal("expected event to be retryable after delete")
	}
}

func TestIdempotencyGuardRequiresEventID(t *testing.T) {
	guard, err := NewIdempotencyGuard(newMemoryIdempotencyStore(), time.Hour, "webhook:lemonsqueezy")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	if _, err := guard.CheckAndMark(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty event id")
	}
	if err := guard.Delete(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty event id")
	}
}
