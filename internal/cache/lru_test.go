package cache

import (
	"errors"
	"testing"
	"time"
)

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes most recent
		t.Fatal("expected a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %d (%v)", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	now = now.Add(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should still be live")
	}
	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry should be removed on access, size=%d", c.Size())
	}
}

func TestGetOrLoad(t *testing.T) {
	c := NewLRUCache[int](4, time.Hour)
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}
	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad("answer", load)
		if err != nil || v != 42 {
			t.Fatalf("unexpected result %d, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loader should run once, ran %d times", calls)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrLoad("bad", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Fatal("errors must not be cached")
	}

	c.Delete("answer")
	if _, ok := c.Get("answer"); ok {
		t.Fatal("deleted key still present")
	}
}
