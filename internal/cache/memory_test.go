package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_setGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || got != "v" {
		t.Errorf("Get = (%q, %v), want (v, true)", got, ok)
	}
}

func TestMemory_missingKey(t *testing.T) {
	m := NewMemory()
	_, ok, err := m.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("absent key should not be found")
	}
}

func TestMemory_overwrite(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k", "old", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(ctx, "k", "new", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, _ := m.Get(ctx, "k")
	if !ok || got != "new" {
		t.Errorf("Get = (%q, %v), want (new, true)", got, ok)
	}
}

func TestMemory_expiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	if err := m.Set(ctx, "k", "v", 10*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	m.now = func() time.Time { return base.Add(10*time.Minute - time.Second) }
	if _, ok, _ := m.Get(ctx, "k"); !ok {
		t.Error("entry should survive inside its TTL")
	}

	m.now = func() time.Time { return base.Add(10 * time.Minute) }
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Error("entry should be gone at its TTL boundary")
	}
}

func TestMemory_delete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Error("deleted key should not be found")
	}
	// Deleting again is not an error.
	if err := m.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of a missing key: %v", err)
	}
}
