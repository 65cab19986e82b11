package session

import (
	"context"
	"testing"

	"absensi/internal/model"

	"github.com/google/uuid"
)

func TestMemoryCacheSetGetClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	sid := uuid.New()

	if _, ok, _ := c.Get(ctx, sid); ok {
		t.Fatalf("expected empty cache")
	}

	p := &model.Profile{ID: uuid.New(), Name: "Dian", Role: model.RoleUser}
	if err := c.Set(ctx, sid, p); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	first, ok, _ := c.Get(ctx, sid)
	second, ok2, _ := c.Get(ctx, sid)
	if !ok || !ok2 || first.ID != p.ID || second.ID != p.ID {
		t.Fatalf("expected the same cached profile twice")
	}

	if err := c.Clear(ctx, sid); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, ok, _ := c.Get(ctx, sid); ok {
		t.Fatalf("expected cleared cache to miss")
	}
}

func TestMemoryCacheIsolatesSessions(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	a, b := uuid.New(), uuid.New()

	_ = c.Set(ctx, a, &model.Profile{Name: "A"})
	_ = c.Set(ctx, b, &model.Profile{Name: "B"})
	_ = c.Clear(ctx, a)

	if _, ok, _ := c.Get(ctx, a); ok {
		t.Fatalf("expected session a cleared")
	}
	if p, ok, _ := c.Get(ctx, b); !ok || p.Name != "B" {
		t.Fatalf("expected session b untouched")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
}

func TestMemoryCacheReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	sid := uuid.New()
	_ = c.Set(ctx, sid, &model.Profile{Role: model.RoleUser})

	got, _, _ := c.Get(ctx, sid)
	got.Role = model.RoleAdmin

	again, _, _ := c.Get(ctx, sid)
	if again.Role != model.RoleUser {
		t.Fatalf("cached entry was mutated through a returned pointer")
	}
}
