package ratingcache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestGetMemoizes(t *testing.T) {
	c := New()
	key := Key{ResultsVersion: 1, ConfigVersion: 1, View: "all"}
	calls := 0
	compute := func() (any, error) {
		calls++
		return calls, nil
	}

	v, hit, err := c.Get(key, compute)
	if err != nil || hit || v.(int) != 1 {
		t.Fatalf("first Get: v=%v hit=%v err=%v", v, hit, err)
	}
	v, hit, err = c.Get(key, compute)
	if err != nil || !hit || v.(int) != 1 {
		t.Fatalf("second Get: v=%v hit=%v err=%v", v, hit, err)
	}

	// A new config version is a different key.
	v, hit, _ = c.Get(Key{ResultsVersion: 1, ConfigVersion: 2, View: "all"}, compute)
	if hit || v.(int) != 2 {
		t.Errorf("new version should miss, got v=%v hit=%v", v, hit)
	}
	if c.Len() != 1 {
		t.Errorf("older version should be evicted, got %d entries", c.Len())
	}
}

func TestNewerVersionEvictsOlderViews(t *testing.T) {
	c := New()
	val := func(v any) func() (any, error) {
		return func() (any, error) { return v, nil }
	}

	c.Get(Key{ResultsVersion: 1, ConfigVersion: 1, View: "all"}, val("a"))
	c.Get(Key{ResultsVersion: 1, ConfigVersion: 1, View: "best=3"}, val("b"))
	if c.Len() != 2 {
		t.Fatalf("expected 2 views at version 1, got %d", c.Len())
	}

	c.Get(Key{ResultsVersion: 2, ConfigVersion: 1, View: "all"}, val("c"))
	if c.Len() != 1 {
		t.Fatalf("results bump should leave one view, got %d", c.Len())
	}

	// A late result for an old version is returned but not kept.
	v, hit, err := c.Get(Key{ResultsVersion: 1, ConfigVersion: 1, View: "all"}, val("stale"))
	if err != nil || hit || v != "stale" {
		t.Fatalf("old key: v=%v hit=%v err=%v", v, hit, err)
	}
	if c.Len() != 1 {
		t.Errorf("stale value should not be stored, got %d entries", c.Len())
	}

	c.Get(Key{ResultsVersion: 2, ConfigVersion: 3, View: "all"}, val("d"))
	if _, hit, _ := c.Get(Key{ResultsVersion: 2, ConfigVersion: 1, View: "all"}, val("x")); hit {
		t.Error("config bump should evict the older view")
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	c := New()
	key := Key{View: "all"}
	boom := errors.New("boom")
	if _, _, err := c.Get(key, func() (any, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	v, hit, err := c.Get(key, func() (any, error) { return "ok", nil })
	if err != nil || hit || v != "ok" {
		t.Errorf("retry after error: v=%v hit=%v err=%v", v, hit, err)
	}
}

func TestInvalidate(t *testing.T) {
	c := New()
	key := Key{ResultsVersion: 3, ConfigVersion: 4, View: "female"}
	c.Get(key, func() (any, error) { return "old", nil })
	c.Invalidate()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after Invalidate, got %d", c.Len())
	}
	v, hit, _ := c.Get(key, func() (any, error) { return "new", nil })
	if hit || v != "new" {
		t.Errorf("expected recompute after Invalidate, got v=%v hit=%v", v, hit)
	}
}

func TestInvalidateDuringCompute(t *testing.T) {
	c := New()
	key := Key{View: "all"}
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Get(key, func() (any, error) {
			close(started)
			<-release
			return "stale", nil
		})
	}()
	<-started
	c.Invalidate()
	close(release)
	<-done

	if c.Len() != 0 {
		t.Errorf("value computed before Invalidate must not be stored")
	}
}

func TestConcurrentMissesShareComputation(t *testing.T) {
	c := New()
	key := Key{ResultsVersion: 1, View: "all"}
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := c.Get(key, func() (any, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			if err != nil {
				t.Errorf("Get: %v", err)
			}
			results[i] = v
		}(i)
	}
	close(release)
	wg.Wait()

	for i, v := range results {
		if v.(int) != 42 {
			t.Errorf("goroutine %d: got %v", i, v)
		}
	}
	if n := calls.Load(); n < 1 || n > int32(len(results)) {
		t.Errorf("unexpected compute count %d", n)
	}
	if c.Len() != 1 {
		t.Errorf("expected a single cached entry, got %d", c.Len())
	}
}
