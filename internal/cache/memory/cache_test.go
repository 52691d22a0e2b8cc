package memory

import (
	"context"
	"testing"
	"time"

	"github.com/kitbuilder587/score-lookup/internal/cache"
)

var _ cache.Cache = (*Cache)(nil)

func TestCache_SetAndGet(t *testing.T) {
	c := New()
	defer c.Stop()

	c.Set("Gymnopédies (Satie, Erik)", "|Copyright = Public Domain", 5*time.Second)

	got, ok := c.Get("Gymnopédies (Satie, Erik)")
	if !ok {
		t.Fatal("Get() should return ok=true for existing key")
	}
	if got != "|Copyright = Public Domain" {
		t.Errorf("Get() = %q", got)
	}
}

func TestCache_GetNonExistent(t *testing.T) {
	c := New()
	defer c.Stop()

	got, ok := c.Get("non-existent")
	if ok {
		t.Error("Get() should return ok=false for non-existent key")
	}
	if got != "" {
		t.Errorf("Get() = %q, want empty", got)
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	c := New()
	defer c.Stop()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("key", "value", time.Minute)

	if _, ok := c.Get("key"); !ok {
		t.Error("key should exist before TTL expiration")
	}

	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("key"); ok {
		t.Error("key should be expired after TTL")
	}

	c.removeExpired()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after removeExpired, want 0", c.Len())
	}
}

func TestCache_ZeroTTLIsNoop(t *testing.T) {
	c := New()
	defer c.Stop()

	c.Set("key", "value", 0)
	if _, ok := c.Get("key"); ok {
		t.Error("zero TTL should not store the value")
	}
}

func TestCache_EvictsEarliestExpiry(t *testing.T) {
	c := NewWithContext(context.Background(), Options{MaxEntries: 2})
	defer c.Stop()

	c.Set("short", "1", time.Minute)
	c.Set("long", "2", time.Hour)
	c.Set("new", "3", time.Hour)

	if _, ok := c.Get("short"); ok {
		t.Error("entry with earliest expiry should be evicted")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("long-lived entry should survive")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c := NewWithContext(context.Background(), Options{MaxEntries: 1})
	defer c.Stop()

	c.Set("key", "value1", time.Hour)
	c.Set("key", "value2", time.Hour)

	got, _ := c.Get("key")
	if got != "value2" {
		t.Errorf("Get() = %q, want value2 after overwrite", got)
	}
}

func TestCache_Delete(t *testing.T) {
	c := New()
	defer c.Stop()

	c.Set("key", "value", time.Hour)
	c.Delete("key")

	if _, ok := c.Get("key"); ok {
		t.Error("key should not exist after delete")
	}
}

func TestCache_Stop(t *testing.T) {
	c := New()

	c.Stop()

	c.Stop()
}
