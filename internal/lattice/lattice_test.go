package lattice

import "testing"

func TestSetKeyInstallsSentinels(t *testing.T) {
	l := New()
	l.SetKey("abc")

	bos := l.Node(l.BOS())
	if bos.Type != BOS || bos.BeginPos != 0 || bos.EndPos != 0 {
		t.Fatalf("BOS = %+v, want type=BOS begin=end=0", bos)
	}
	eos := l.Node(l.EOS())
	if eos.Type != EOS || eos.BeginPos != 3 || eos.EndPos != 3 {
		t.Fatalf("EOS = %+v, want type=EOS begin=end=3", eos)
	}
	if got := l.EndNodesAt(0); got != l.BOS() {
		t.Errorf("EndNodesAt(0) = %v, want BOS", got)
	}
	if got := l.BeginNodesAt(3); got != l.EOS() {
		t.Errorf("BeginNodesAt(3) = %v, want EOS", got)
	}
}

func TestInsertChainsNodesByPosition(t *testing.T) {
	l := New()
	l.SetKey("abc")

	n1 := l.NewNode()
	l.Node(n1).Key = "a"
	n2 := l.NewNode()
	l.Node(n2).Key = "ab"
	l.Node(n1).BNext = n2

	l.Insert(0, n1)

	if got := l.BeginNodesAt(0); got != n1 {
		t.Fatalf("BeginNodesAt(0) = %v, want %v", got, n1)
	}
	if got := l.Node(n1).EndPos; got != 1 {
		t.Errorf("n1.EndPos = %d, want 1", got)
	}
	if got := l.Node(n2).EndPos; got != 2 {
		t.Errorf("n2.EndPos = %d, want 2", got)
	}
	if got := l.EndNodesAt(1); got != n1 {
		t.Errorf("EndNodesAt(1) = %v, want n1", got)
	}
	if got := l.EndNodesAt(2); got != n2 {
		t.Errorf("EndNodesAt(2) = %v, want n2", got)
	}

	// Inserting a second chain at the same position must prepend, not replace.
	n3 := l.NewNode()
	l.Node(n3).Key = "a"
	l.Insert(0, n3)
	if got := l.BeginNodesAt(0); got != n3 {
		t.Fatalf("BeginNodesAt(0) after second insert = %v, want n3 (new head)", got)
	}
	if got := l.Node(n3).BNext; got != n1 {
		t.Fatalf("n3.BNext = %v, want n1 (old chain preserved)", got)
	}
}

// TestUpdateKeyRoundTrip is property P7: after UpdateKey(k), lattice.Key()
// == k, and nodes whose end_pos is within the retained common prefix
// remain reachable.
func TestUpdateKeyRoundTrip(t *testing.T) {
	l := New()
	l.SetKey("abcde")

	n1 := l.NewNode()
	l.Node(n1).Key = "ab"
	l.Insert(0, n1) // end_pos = 2, within any common prefix >= 2

	l.UpdateKey("abcdef") // common prefix = 5 (> 5/2), should shrink+extend
	if l.Key() != "abcdef" {
		t.Fatalf("Key() = %q, want %q", l.Key(), "abcdef")
	}
	if got := l.BeginNodesAt(0); got != n1 {
		t.Fatalf("node surviving the common prefix was dropped: BeginNodesAt(0) = %v, want %v", got, n1)
	}
	eos := l.Node(l.EOS())
	if eos.BeginPos != 6 {
		t.Fatalf("EOS.BeginPos = %d, want 6 after extension", eos.BeginPos)
	}
}

func TestUpdateKeyFullRebuildOnShortCommonPrefix(t *testing.T) {
	l := New()
	l.SetKey("abcdefgh")
	n1 := l.NewNode()
	l.Node(n1).Key = "a"
	l.Insert(0, n1)

	l.UpdateKey("xyz") // common prefix 0, well under half of 8
	if l.Key() != "xyz" {
		t.Fatalf("Key() = %q, want %q", l.Key(), "xyz")
	}
	if got := l.BeginNodesAt(0); got == n1 {
		t.Fatalf("stale node survived a full rebuild")
	}
}

func TestShrinkKeyDropsNodesPastLength(t *testing.T) {
	l := New()
	l.SetKey("abcde")

	short := l.NewNode()
	l.Node(short).Key = "ab"
	l.Insert(0, short) // end_pos = 2

	long := l.NewNode()
	l.Node(long).Key = "abcd"
	l.Insert(0, long) // end_pos = 4, should be dropped by ShrinkKey(3)

	l.ShrinkKey(3)

	cur := l.BeginNodesAt(0)
	found := map[NodeID]bool{}
	for cur != NilNode {
		found[cur] = true
		cur = l.Node(cur).BNext
	}
	if !found[short] {
		t.Errorf("node ending within the shrunk length was dropped")
	}
	if found[long] {
		t.Errorf("node ending past the shrunk length was not dropped")
	}
	eos := l.Node(l.EOS())
	if eos.BeginPos != 3 {
		t.Errorf("EOS.BeginPos = %d, want 3 after shrink", eos.BeginPos)
	}
}

func TestResetNodeCostRevertsCacheEnabledAndUnlinksOthers(t *testing.T) {
	l := New()
	l.SetKey("ab")

	cached := l.NewNode()
	l.Node(cached).Key = "a"
	l.Node(cached).RawWCost = 100
	l.Node(cached).WCost = 999 // simulate a predictive-penalty adjustment
	l.Node(cached).Attributes = AttrCacheEnable
	l.Insert(0, cached)

	plain := l.NewNode()
	l.Node(plain).Key = "a"
	l.Insert(0, plain)

	l.ResetNodeCost()

	if got := l.Node(cached).WCost; got != 100 {
		t.Errorf("cache-enabled node WCost = %d, want reverted to RawWCost 100", got)
	}

	cur := l.BeginNodesAt(0)
	for cur != NilNode {
		if cur == plain {
			t.Fatalf("non-cache-enabled node was not unlinked from begin_nodes")
		}
		cur = l.Node(cur).BNext
	}
}
