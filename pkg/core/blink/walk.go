package blink

import (
	"blinkdb/pkg/common"
)

// Ascend calls fn for every record in key order until fn returns false. It
// walks the leaf sibling chain, so concurrent splits neither repeat nor skip
// records that existed when the walk started.
func (t *Tree) Ascend(fn func(common.Record) bool) {
	n := t.root.Load()
	if n == nil {
		return
	}
	for n.kind == KindInner {
		n = n.load().children[0].node
	}
	for n != nil {
		st := n.load()
		for _, rec := range st.entries {
			if !fn(rec) {
				return
			}
		}
		n = st.sibling
	}
}

// NodeInfo describes one node as seen in a single snapshot.
type NodeInfo struct {
	ID      NodeID
	Kind    Kind
	Floor   common.KeyType
	High    common.KeyType
	Open    bool // High is unbounded
	Size    int  // entries for a leaf, children for an inner node
	Keys    []common.KeyType
	Sibling NodeID // 0 when rightmost
}

// Levels lists every level from the root down, each in sibling-chain order.
func (t *Tree) Levels() [][]NodeInfo {
	var levels [][]NodeInfo
	for _, chain := range t.chains() {
		level := make([]NodeInfo, 0, len(chain))
		for _, ln := range chain {
			level = append(level, describe(ln.node, ln.state))
		}
		levels = append(levels, level)
	}
	return levels
}

type linkedNode struct {
	node  *Node
	state *nodeState
}

// chains snapshots each level's sibling chain, starting from the leftmost
// node and descending through first children.
func (t *Tree) chains() [][]linkedNode {
	var out [][]linkedNode
	first := t.root.Load()
	for first != nil {
		var chain []linkedNode
		for n := first; n != nil; {
			st := n.load()
			chain = append(chain, linkedNode{node: n, state: st})
			n = st.sibling
		}
		out = append(out, chain)

		if first.kind != KindInner {
			break
		}
		first = chain[0].state.children[0].node
	}
	return out
}

func describe(n *Node, st *nodeState) NodeInfo {
	info := NodeInfo{
		ID:    n.id,
		Kind:  n.kind,
		Floor: st.floor,
		High:  st.high.key,
		Open:  !st.high.closed,
		Size:  n.size(st),
	}
	if st.sibling != nil {
		info.Sibling = st.sibling.id
	}
	switch n.kind {
	case KindLeaf:
		for _, e := range st.entries {
			info.Keys = append(info.Keys, e.Key)
		}
	case KindInner:
		for _, c := range st.children {
			if c.sep.closed {
				info.Keys = append(info.Keys, c.sep.key)
			}
		}
	}
	return info
}
