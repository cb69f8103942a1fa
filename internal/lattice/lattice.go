package lattice

// BOSEOSPosID is the left/right connect id shared by BOS and EOS sentinel
// nodes. Using the same id for both sides keeps the connector's matrix
// lookups well-defined at the two ends of a path without needing a special
// case in Viterbi.
const BOSEOSPosID uint16 = 0

// slack is extra capacity reserved past the key's byte length in the
// index arrays, so EOS (installed at begin_nodes[len(key)]) always has a
// slot even when nothing else does.
const slack = 1

// arenaGrowthThreshold bounds how large the node arena may grow before
// UpdateKey gives up on incremental shrink-and-extend and falls back to a
// full rebuild. Spec.md leaves the exact number unspecified ("arena has
// grown past a threshold"); chosen generously above any single keystroke's
// worth of candidate nodes in a real dictionary.
const arenaGrowthThreshold = 1 << 16

// Lattice owns every node of one conversion and the begin/end position
// index arrays used to enumerate them. It is created once per converter
// session and reused across keystrokes via UpdateKey.
type Lattice struct {
	key string

	arena []Node // index 0 is a permanent unused sentinel slot

	beginNodes []NodeID // beginNodes[i]: head of the bnext chain starting at byte i
	endNodes   []NodeID // endNodes[i]: head of the enext chain ending at byte i
	cacheInfo  []int    // cacheInfo[i]: longest key length already looked up at i

	historyEndPos int

	bos NodeID
	eos NodeID
}

// New returns an empty lattice. Call SetKey before using it.
func New() *Lattice {
	l := &Lattice{arena: make([]Node, 1)} // slot 0 = sentinel
	return l
}

// Key returns the current lattice key (history key + conversion key).
func (l *Lattice) Key() string { return l.key }

// HistoryEndPos returns the byte offset where the conversion portion of the
// key begins.
func (l *Lattice) HistoryEndPos() int { return l.historyEndPos }

// SetHistoryEndPos records where the conversion range starts within Key().
func (l *Lattice) SetHistoryEndPos(pos int) { l.historyEndPos = pos }

// Node returns a pointer into the arena for id. The caller must not retain
// this pointer across a NewNode call, which may reallocate the backing
// slice, or across a SetKey call.
func (l *Lattice) Node(id NodeID) *Node {
	return &l.arena[id]
}

// NodeCount returns the number of allocated arena slots, including the
// unused sentinel at index 0. Search algorithms size per-node scratch
// arrays (e.g. a "reached" bitmap) from this.
func (l *Lattice) NodeCount() int { return len(l.arena) }

// BOS returns the sentinel start-of-sentence node id.
func (l *Lattice) BOS() NodeID { return l.bos }

// EOS returns the sentinel end-of-sentence node id.
func (l *Lattice) EOS() NodeID { return l.eos }

// BeginNodesAt returns the head of the bnext chain of nodes starting at pos.
func (l *Lattice) BeginNodesAt(pos int) NodeID {
	if pos < 0 || pos >= len(l.beginNodes) {
		return NilNode
	}
	return l.beginNodes[pos]
}

// EndNodesAt returns the head of the enext chain of nodes ending at pos.
func (l *Lattice) EndNodesAt(pos int) NodeID {
	if pos < 0 || pos >= len(l.endNodes) {
		return NilNode
	}
	return l.endNodes[pos]
}

// CacheInfoAt returns the longest key length already looked up at pos, used
// by lookup adapters to avoid redundant dictionary calls during prediction.
func (l *Lattice) CacheInfoAt(pos int) int {
	if pos < 0 || pos >= len(l.cacheInfo) {
		return 0
	}
	return l.cacheInfo[pos]
}

// SetCacheInfoAt records the longest key length looked up at pos.
func (l *Lattice) SetCacheInfoAt(pos, length int) {
	if pos >= 0 && pos < len(l.cacheInfo) {
		l.cacheInfo[pos] = length
	}
}

// NewNode allocates a fresh zero-value node and returns its id. Nodes are
// never freed individually; Clear (via SetKey) bulk-frees the whole arena.
func (l *Lattice) NewNode() NodeID {
	l.arena = append(l.arena, Node{})
	return NodeID(len(l.arena) - 1)
}

// SetKey resets all index arrays to len(key)+slack, discards every
// previously allocated node, and installs fresh BOS/EOS sentinels at
// position 0 and len(key) respectively.
func (l *Lattice) SetKey(key string) {
	l.key = key
	l.arena = l.arena[:1] // keep slot 0, drop every node
	n := len(key)
	l.beginNodes = make([]NodeID, n+slack)
	l.endNodes = make([]NodeID, n+slack)
	l.cacheInfo = make([]int, n+slack)
	l.historyEndPos = 0

	l.bos = l.NewNode()
	bos := l.Node(l.bos)
	bos.Type = BOS
	bos.LID, bos.RID = BOSEOSPosID, BOSEOSPosID
	bos.BeginPos, bos.EndPos = 0, 0
	l.endNodes[0] = l.bos

	l.eos = l.NewNode()
	eos := l.Node(l.eos)
	eos.Type = EOS
	eos.LID, eos.RID = BOSEOSPosID, BOSEOSPosID
	eos.BeginPos, eos.EndPos = n, n
	l.beginNodes[n] = l.eos
}

// Insert splices the bnext chain starting at head into begin_nodes[pos],
// setting BeginPos/EndPos on every node in the chain and prepending each to
// the appropriate end_nodes chain. EndPos is clamped to len(Key()).
func (l *Lattice) Insert(pos int, head NodeID) {
	maxEnd := len(l.key)
	// Walk the incoming chain once to stamp positions and splice it into
	// end_nodes; remember the chain's tail so we can re-point BNext at the
	// very end without losing the rest of the chain mid-walk.
	cur := head
	var tail NodeID
	for cur != NilNode {
		node := l.Node(cur)
		node.BeginPos = pos
		end := pos + len(node.Key)
		if end > maxEnd {
			end = maxEnd
		}
		node.EndPos = end
		node.ENext = l.endNodes[end]
		l.endNodes[end] = cur
		tail = cur
		cur = node.BNext
	}
	if head == NilNode {
		return
	}
	if l.beginNodes[pos] == NilNode {
		l.beginNodes[pos] = head
		return
	}
	l.Node(tail).BNext = l.beginNodes[pos]
	l.beginNodes[pos] = head
}

// lcp returns the length of the longest common byte prefix of a and b.
func lcp(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// UpdateKey preserves nodes whose end position lies within the retained
// common prefix of the old and new key, and drops the rest, the way a
// per-keystroke incremental update should. It falls back to a full SetKey
// when the common prefix is too short to be worth preserving, or when the
// arena has grown large enough that a rebuild is cheaper than bookkeeping
// the shrink.
func (l *Lattice) UpdateKey(newKey string) {
	oldLen := len(l.key)
	common := lcp(l.key, newKey)
	if oldLen == 0 || common <= oldLen/2 || len(l.arena) > arenaGrowthThreshold {
		l.SetKey(newKey)
		return
	}
	l.ShrinkKey(common)
	l.addSuffix(newKey[common:])
}

// ShrinkKey truncates the lattice to the first length bytes of its key:
// every node whose end position exceeds length is dropped from begin/end
// chains (though its arena slot is not reclaimed until the next SetKey),
// arrays past length are cleared, EOS is reinstalled at length, and each
// cacheInfo entry is capped so a subsequent lookup does not believe it
// already covered bytes that no longer exist at that position.
func (l *Lattice) ShrinkKey(length int) {
	for i := 0; i < length && i < len(l.beginNodes); i++ {
		var kept NodeID
		var keptTail NodeID
		cur := l.beginNodes[i]
		for cur != NilNode {
			node := l.Node(cur)
			next := node.BNext
			if node.EndPos <= length {
				node.BNext = NilNode
				if kept == NilNode {
					kept = cur
				} else {
					l.Node(keptTail).BNext = cur
				}
				keptTail = cur
			}
			cur = next
		}
		l.beginNodes[i] = kept
	}
	for i := range l.beginNodes {
		if i >= length {
			l.beginNodes[i] = NilNode
		}
	}
	for i := range l.endNodes {
		if i > length {
			l.endNodes[i] = NilNode
		} else {
			// rebuild the end_nodes[i] chain from surviving begin_nodes chains
			// would be expensive; instead filter end_nodes[i] in place.
			var kept NodeID
			var keptTail NodeID
			cur := l.endNodes[i]
			for cur != NilNode {
				node := l.Node(cur)
				next := node.ENext
				if node.EndPos <= length && node.BeginPos <= length {
					node.ENext = NilNode
					if kept == NilNode {
						kept = cur
					} else {
						l.Node(keptTail).ENext = cur
					}
					keptTail = cur
				}
				cur = next
			}
			l.endNodes[i] = kept
		}
	}
	for i := range l.cacheInfo {
		maxLookup := length - i
		if maxLookup < 0 {
			maxLookup = 0
		}
		if l.cacheInfo[i] > maxLookup {
			l.cacheInfo[i] = maxLookup
		}
	}
	l.key = l.key[:length]

	l.eos = l.NewNode()
	eos := l.Node(l.eos)
	eos.Type = EOS
	eos.LID, eos.RID = BOSEOSPosID, BOSEOSPosID
	eos.BeginPos, eos.EndPos = length, length
	if length < len(l.beginNodes) {
		l.beginNodes[length] = l.eos
	}
}

// addSuffix grows the index arrays to cover key()+suffix and moves EOS to
// the new end of key. It does not itself perform dictionary lookups: that
// is the lookup adapters' job, driven by the orchestrator.
func (l *Lattice) addSuffix(suffix string) {
	oldLen := len(l.key)
	l.key = l.key + suffix
	newLen := len(l.key)

	grown := make([]NodeID, newLen+slack)
	copy(grown, l.beginNodes)
	l.beginNodes = grown

	grownEnd := make([]NodeID, newLen+slack)
	copy(grownEnd, l.endNodes)
	l.endNodes = grownEnd

	grownCache := make([]int, newLen+slack)
	copy(grownCache, l.cacheInfo)
	l.cacheInfo = grownCache

	// EOS currently sits at oldLen; move it to newLen.
	if oldLen < len(l.beginNodes) {
		l.beginNodes[oldLen] = NilNode
	}
	eos := l.Node(l.eos)
	eos.BeginPos, eos.EndPos = newLen, newLen
	l.beginNodes[newLen] = l.eos
}

// ResetNodeCost reverts every cache-enabled node's WCost to its RawWCost
// (undoing any per-request penalty so the node can be reused verbatim
// across incremental prediction queries), and unlinks every other
// non-BOS/EOS node from its begin/end chains so a fresh search does not see
// stale hypotheses.
func (l *Lattice) ResetNodeCost() {
	for i := 1; i < len(l.arena); i++ {
		n := &l.arena[i]
		if n.Type == BOS || n.Type == EOS {
			continue
		}
		if n.Attributes.Has(AttrCacheEnable) {
			n.WCost = n.RawWCost
			continue
		}
		l.unlink(NodeID(i))
	}
}

// unlink removes id from whichever begin_nodes/end_nodes chains it is
// part of. Used only by ResetNodeCost, which already knows id is neither
// BOS nor EOS.
func (l *Lattice) unlink(id NodeID) {
	n := l.Node(id)
	if n.BeginPos >= 0 && n.BeginPos < len(l.beginNodes) {
		removeFromChain(l, id, n.BeginPos, true)
	}
	if n.EndPos >= 0 && n.EndPos < len(l.endNodes) {
		removeFromChain(l, id, n.EndPos, false)
	}
}

func removeFromChain(l *Lattice, id NodeID, pos int, begin bool) {
	var head *NodeID
	if begin {
		head = &l.beginNodes[pos]
	} else {
		head = &l.endNodes[pos]
	}
	if *head == id {
		if begin {
			*head = l.Node(id).BNext
		} else {
			*head = l.Node(id).ENext
		}
		return
	}
	cur := *head
	for cur != NilNode {
		n := l.Node(cur)
		var next NodeID
		if begin {
			next = n.BNext
		} else {
			next = n.ENext
		}
		if next == id {
			if begin {
				n.BNext = l.Node(id).BNext
			} else {
				n.ENext = l.Node(id).ENext
			}
			return
		}
		cur = next
	}
}
