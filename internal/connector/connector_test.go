package connector

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMatrixTransitionCost(t *testing.T) {
	// 2 rids x 3 lids, resolution 10.
	table := []int16{
		0, 1, -1, // rid 0
		2, 3, 4, // rid 1
	}
	m := NewMatrix(table, 3, 10)

	if got := m.TransitionCost(0, 0); got != 0 {
		t.Errorf("TransitionCost(0,0) = %d, want 0", got)
	}
	if got := m.TransitionCost(0, 1); got != 10 {
		t.Errorf("TransitionCost(0,1) = %d, want 10", got)
	}
	if got := m.TransitionCost(0, 2); got != InvalidCost {
		t.Errorf("TransitionCost(0,2) = %d, want InvalidCost (negative raw entry)", got)
	}
	if got := m.TransitionCost(1, 2); got != 40 {
		t.Errorf("TransitionCost(1,2) = %d, want 40", got)
	}
	if got := m.TransitionCost(5, 0); got != InvalidCost {
		t.Errorf("TransitionCost(5,0) = %d, want InvalidCost (out of range)", got)
	}
}

func TestCachingConnectorMatchesUnderlying(t *testing.T) {
	table := []int16{0, 1, 2, 3, 4, 5}
	m := NewMatrix(table, 3, 1)
	cc := NewCachingConnector(m)

	cc.ResetIfNecessary(0)
	for lnodeRid := uint16(0); lnodeRid < 3; lnodeRid++ {
		want := m.TransitionCost(lnodeRid, 0)
		if got := cc.TransitionCost(lnodeRid, 0); got != want {
			t.Errorf("cached TransitionCost(%d,0) = %d, want %d", lnodeRid, got, want)
		}
		// second read must hit the cache and still agree
		if got := cc.TransitionCost(lnodeRid, 0); got != want {
			t.Errorf("second cached TransitionCost(%d,0) = %d, want %d", lnodeRid, got, want)
		}
	}

	// switching rnodeLid must invalidate the cache rather than return stale data.
	cc.ResetIfNecessary(1)
	for lnodeRid := uint16(0); lnodeRid < 3; lnodeRid++ {
		want := m.TransitionCost(lnodeRid, 1)
		if got := cc.TransitionCost(lnodeRid, 1); got != want {
			t.Errorf("after reset TransitionCost(%d,1) = %d, want %d", lnodeRid, got, want)
		}
	}
}

func TestCachingConnectorBypassesCacheAboveCacheSize(t *testing.T) {
	m := NewMatrix([]int16{7}, 1, 1)
	cc := NewCachingConnector(m)
	cc.ResetIfNecessary(0)
	got := cc.TransitionCost(CacheSize+1, 0)
	if got != InvalidCost {
		t.Errorf("TransitionCost(CacheSize+1,0) = %d, want InvalidCost", got)
	}
}

func TestStorePutLoadRoundTrip(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "matrix.db")
	s, err := OpenStore(dsn)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	table := []int16{10, -1, 20, 30}
	if err := s.Put(ctx, "main", 2, 500, table); err != nil {
		t.Fatalf("Put: %v", err)
	}
	m, err := s.Load(ctx, "main")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := m.TransitionCost(0, 0); got != 10*500 {
		t.Errorf("TransitionCost(0,0) = %d, want %d", got, 10*500)
	}
	if got := m.TransitionCost(0, 1); got != InvalidCost {
		t.Errorf("TransitionCost(0,1) = %d, want InvalidCost", got)
	}
	if got := m.TransitionCost(1, 1); got != 30*500 {
		t.Errorf("TransitionCost(1,1) = %d, want %d", got, 30*500)
	}

	// Second load for the same name should hit singleflight/db again
	// without error (not exercising the dedup path directly, but
	// confirming repeat loads remain consistent).
	m2, err := s.Load(ctx, "main")
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if got := m2.TransitionCost(1, 1); got != 30*500 {
		t.Errorf("second load TransitionCost(1,1) = %d, want %d", got, 30*500)
	}
}
