package cache

import (
	"testing"
	"time"
)

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b was least recently used and should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a should survive eviction, got %v %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return clock }

	c.Set("k", "v")
	clock = clock.Add(30 * time.Second)
	c.Set("x", "y")
	clock = clock.Add(31 * time.Second)

	if _, ok := c.Get("k"); ok {
		t.Fatal("k should have expired")
	}
	if v, ok := c.Get("x"); !ok || v != "y" {
		t.Fatalf("x should still be cached, got %q %v", v, ok)
	}

	c.Set("x", "z")
	clock = clock.Add(45 * time.Second)
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("rewriting x should restart its ttl, cleaned %d", n)
	}
	clock = clock.Add(time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected one expired entry, got %d", n)
	}
}

func TestLRUCacheCountsEvictions(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	for i, k := range []string{"a", "b", "c", "d"} {
		c.Set(k, i)
	}
	c.Set("d", 9)

	st := c.Stats()
	if st.Evictions != 2 || st.Size != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestLRUCacheStatsAndDelete(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("k", 1)
	c.Get("k")
	c.Get("missing")
	c.Delete("k")
	c.Get("k")

	st := c.Stats()
	if st.Hits != 1 || st.Misses != 2 || st.Size != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[int](1, time.Minute))
	m.Stop()
	m.Stop()
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	c.Set("k", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(2 * time.Millisecond)
	defer m.Stop()

	deadline := time.Now().Add(time.Second)
	for c.Size() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("expired entry was never cleaned")
		}
		time.Sleep(2 * time.Millisecond)
	}
}
