package querycache

import (
	"testing"
	"time"

	"github.com/therealutkarshpriyadarshi/geoknn/pkg/geo"
)

func TestGenerateKeyStableAndDistinguishing(t *testing.T) {
	k1 := GenerateKey("places", 1, 2, 0, false, 5)
	k2 := GenerateKey("places", 1, 2, 0, false, 5)
	if k1 != k2 {
		t.Fatalf("expected identical keys for identical queries")
	}
	if k1 == GenerateKey("places", 1, 2, 0, false, 6) {
		t.Fatalf("expected distinct keys for different k")
	}
	if k1 == GenerateKey("other", 1, 2, 0, false, 5) {
		t.Fatalf("expected distinct keys for different index")
	}
	if k1 == GenerateKey("places", 1, 2, 9, true, 5) {
		t.Fatalf("expected distinct keys when z is present")
	}
}

func TestCacheGetPutRoundTrip(t *testing.T) {
	c := New(10, 0)
	key := GenerateKey("places", 1, 1, 0, false, 3)
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected miss on empty cache")
	}
	want := []geo.Result{{ID: 1, Dist: 2}}
	c.Put(key, want)
	got, ok := c.Get(key)
	if !ok || len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected cached value back, got %v ok=%v", got, ok)
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("expected hits=1 misses=1, got hits=%d misses=%d", hits, misses)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2, 0)
	kA := GenerateKey("i", 1, 1, 0, false, 1)
	kB := GenerateKey("i", 2, 2, 0, false, 1)
	kC := GenerateKey("i", 3, 3, 0, false, 1)

	c.Put(kA, []geo.Result{{ID: 1}})
	c.Put(kB, []geo.Result{{ID: 2}})
	c.Get(kA) // touch A, making B the LRU entry
	c.Put(kC, []geo.Result{{ID: 3}})

	if _, ok := c.Get(kB); ok {
		t.Fatalf("expected B evicted")
	}
	if _, ok := c.Get(kA); !ok {
		t.Fatalf("expected A still cached")
	}
	if _, ok := c.Get(kC); !ok {
		t.Fatalf("expected C still cached")
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := New(10, 10*time.Millisecond)
	key := GenerateKey("i", 1, 1, 0, false, 1)
	c.Put(key, []geo.Result{{ID: 1}})
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected entry to have expired")
	}
}

func TestCacheClear(t *testing.T) {
	c := New(10, 0)
	key := GenerateKey("i", 1, 1, 0, false, 1)
	c.Put(key, []geo.Result{{ID: 1}})
	c.Clear()
	if c.Size() != 0 {
		t.Fatalf("expected empty cache after Clear")
	}
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected miss after Clear")
	}
}
