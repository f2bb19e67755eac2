package blink

import (
	"blinkdb/pkg/common"
	"blinkdb/pkg/monitor"
)

// splitLeaf divides an overfull leaf. n is locked by the caller and is
// unlocked on return; entries is the not yet published content of n.
// published, if set, runs once entries are visible to readers.
func (t *Tree) splitLeaf(n *Node, st *nodeState, entries []common.Record, published func()) error {
	mid := (len(entries) + 1) / 2
	left, right := entries[:mid:mid], entries[mid:]
	sep := right[0].Key

	sib := t.newNode(KindLeaf, &nodeState{
		floor:   sep,
		high:    st.high,
		sibling: st.sibling,
		entries: right,
	})
	return t.finishSplit(n, &nodeState{
		floor:   st.floor,
		high:    below(sep),
		sibling: sib,
		entries: left,
	}, sib, sep, monitor.SplitLeaf, published)
}

// splitInner divides an inner node holding more than fanOut children. The
// separator pushed up is the floor of the new right node.
func (t *Tree) splitInner(n *Node, st *nodeState, children []child) error {
	mid := (len(children) + 1) / 2
	left, right := children[:mid:mid], children[mid:]
	sep := left[mid-1].sep.key

	sib := t.newNode(KindInner, &nodeState{
		floor:    sep,
		high:     st.high,
		sibling:  st.sibling,
		children: right,
	})
	return t.finishSplit(n, &nodeState{
		floor:    st.floor,
		high:     below(sep),
		sibling:  sib,
		children: left,
	}, sib, sep, monitor.SplitInner, nil)
}

// finishSplit links the new right node into the sibling chain by publishing
// n's left half, then registers it with the parent level. When n has no
// parent it is the root and a new root is installed before n's new state
// becomes visible, so the old root never appears parentless after its split.
func (t *Tree) finishSplit(n *Node, left *nodeState, sib *Node, sep common.KeyType, kind string, published func()) error {
	t.stats.RecordSplit()
	if t.metrics != nil {
		t.metrics.Splits.WithLabelValues(kind).Inc()
	}
	t.log.Debug().
		Str("kind", kind).
		Uint64("node", uint64(n.id)).
		Uint64("sibling", uint64(sib.id)).
		Str("separator", string(sep)).
		Msg("split")

	parent := n.parent.Load()
	if parent == nil {
		root := t.newNode(KindInner, &nodeState{
			floor: left.floor,
			high:  sib.load().high,
			children: []child{
				{sep: below(sep), node: n},
				{sep: sib.load().high, node: sib},
			},
		})
		n.parent.Store(root)
		sib.parent.Store(root)
		adoptChildren(sib)
		if err := t.installRoot(n, root); err != nil {
			n.mu.Unlock()
			return err
		}
		n.state.Store(left)
		n.mu.Unlock()
		if published != nil {
			published()
		}
		if t.metrics != nil {
			t.metrics.Splits.WithLabelValues(monitor.SplitRoot).Inc()
		}
		return nil
	}

	sib.parent.Store(parent)
	adoptChildren(sib)
	n.state.Store(left)
	n.mu.Unlock()
	if published != nil {
		published()
	}
	return t.insertIntoParent(parent, sep, sib)
}

// adoptChildren points the parent hints of an inner node's children at it.
func adoptChildren(n *Node) {
	if n.kind != KindInner {
		return
	}
	for _, c := range n.load().children {
		c.node.parent.Store(n)
	}
}

// insertIntoParent registers sib, whose keys start at sep, on the parent
// level. p is only a hint: the node actually covering sep is found by moving
// right. The child currently covering sep keeps the keys below sep and sib
// takes over its old bound.
func (t *Tree) insertIntoParent(p *Node, sep common.KeyType, sib *Node) error {
	p, err := lockRight(p, sep)
	if err != nil {
		return err
	}

	st := p.load()
	i := -1
	for j, c := range st.children {
		if c.sep.admits(sep) {
			i = j
			break
		}
	}
	if i < 0 {
		p.mu.Unlock()
		return noRoute(p, sep)
	}

	children := make([]child, 0, len(st.children)+1)
	children = append(children, st.children[:i]...)
	children = append(children,
		child{sep: below(sep), node: st.children[i].node},
		child{sep: st.children[i].sep, node: sib},
	)
	children = append(children, st.children[i+1:]...)
	sib.parent.Store(p)

	if len(children) <= t.fanOut {
		next := *st
		next.children = children
		p.state.Store(&next)
		p.mu.Unlock()
		return nil
	}
	return t.splitInner(p, st, children)
}
