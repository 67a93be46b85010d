package main

import (
	"testing"
	"time"
)

// fakeClock is a settable time source
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMetadataCacheHit(t *testing.T) {
	cache := NewMetadataCache(0)
	want := ResolvedMetadata{Metadata: &Metadata{Title: "Cached"}, Strategy: "social"}

	if _, ok := cache.Get("https://x.com/a/status/1"); ok {
		t.Fatal("Get() on an empty cache should miss")
	}

	cache.Put("https://x.com/a/status/1", want)
	got, ok := cache.Get("https://x.com/a/status/1")
	if !ok {
		t.Fatal("Get() should hit right after Put()")
	}
	if got.Metadata != want.Metadata || got.Strategy != want.Strategy {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestMetadataCacheExpiry(t *testing.T) {
	clock := newFakeClock()
	cache := NewMetadataCache(DefaultCacheTTL, WithClock(clock.Now))
	cache.Put("u", ResolvedMetadata{Metadata: &Metadata{Title: "A"}})

	clock.Advance(DefaultCacheTTL)
	if _, ok := cache.Get("u"); !ok {
		t.Fatal("entry exactly at the TTL should still be served")
	}

	clock.Advance(time.Millisecond)
	if _, ok := cache.Get("u"); ok {
		t.Fatal("entry older than the TTL should miss")
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want the stale entry evicted", cache.Len())
	}
	if _, ok := cache.Get("u"); ok {
		t.Fatal("second lookup after expiry should still miss")
	}
}

func TestMetadataCachePutResetsAge(t *testing.T) {
	clock := newFakeClock()
	cache := NewMetadataCache(time.Hour, WithClock(clock.Now))

	cache.Put("u", ResolvedMetadata{Metadata: &Metadata{Title: "old"}})
	clock.Advance(50 * time.Minute)
	cache.Put("u", ResolvedMetadata{Metadata: &Metadata{Title: "new"}})
	clock.Advance(50 * time.Minute)

	got, ok := cache.Get("u")
	if !ok {
		t.Fatal("overwritten entry should be fresh")
	}
	if got.Metadata.Title != "new" {
		t.Errorf("Title = %q, want new", got.Metadata.Title)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}
