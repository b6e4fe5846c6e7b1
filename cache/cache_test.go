package cache

import (
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string](2, time.Minute)
	defer c.Close()

	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache returned a hit")
	}
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}

	c.Set("b", "2")
	c.Set("c", "3")
	if n := c.Len(); n != 2 {
		t.Errorf("Len() = %d, want 2 after eviction", n)
	}

	// Overwriting an existing key never evicts.
	c.Set("c", "33")
	if n := c.Len(); n != 2 {
		t.Errorf("Len() = %d after overwrite", n)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New[int](10, time.Minute)
	defer c.Close()

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Set("k", 42)
	now = now.Add(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("entry expired early")
	}
	now = now.Add(31 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry should have expired")
	}
}

func TestKeyStable(t *testing.T) {
	if Key("a", "b") != Key("a", "b") {
		t.Error("Key is not deterministic")
	}
	if Key("a|b") == Key("a", "c") {
		t.Error("distinct parts collided")
	}
}
