package blink

// Validate checks the structural invariants of a quiescent tree: strictly
// increasing separators, contiguous sibling chains on every level, one
// descent path per node, leaves at a single depth and the parent hints.
// Running it concurrently with writers may report in-flight splits.
func (t *Tree) Validate() error {
	chains := t.chains()
	if len(chains) == 0 {
		if t.Len() != 0 {
			return invalid("empty tree reports %d entries", t.Len())
		}
		return nil
	}
	if h := len(chains) - 1; h != t.Height() {
		return invalid("tree has %d inner levels but records height %d", h, t.Height())
	}
	if len(chains[0]) != 1 {
		return invalid("root level holds %d nodes", len(chains[0]))
	}
	if p := chains[0][0].node.parent.Load(); p != nil {
		return invalid("root %d has parent %d", chains[0][0].node.id, p.id)
	}

	total := 0
	for depth, chain := range chains {
		leafLevel := depth == len(chains)-1
		for i, ln := range chain {
			n, st := ln.node, ln.state
			if leafLevel != (n.kind == KindLeaf) {
				return invalid("%s node %d found at depth %d of %d", n.kind, n.id, depth, len(chains))
			}
			if err := checkChainLink(chain, i); err != nil {
				return err
			}
			switch n.kind {
			case KindLeaf:
				if err := t.checkLeaf(n, st); err != nil {
					return err
				}
				total += len(st.entries)
			case KindInner:
				if err := t.checkInner(n, st); err != nil {
					return err
				}
			}
		}
		if !leafLevel {
			if err := checkSingleParent(chain, chains[depth+1]); err != nil {
				return err
			}
		}
	}
	if total != t.Len() {
		return invalid("leaves hold %d entries but tree counted %d", total, t.Len())
	}
	return nil
}

// checkChainLink verifies that node i continues exactly where its left
// neighbour stops.
func checkChainLink(chain []linkedNode, i int) error {
	n, st := chain[i].node, chain[i].state
	if i == 0 && st.floor != "" {
		return invalid("leftmost node %d starts at %q", n.id, string(st.floor))
	}
	if i > 0 {
		prev := chain[i-1].state
		if !prev.high.closed || prev.high.key != st.floor {
			return invalid("node %d starts at %q but its left neighbour ends at %s", n.id, string(st.floor), prev.high)
		}
	}
	if last := i == len(chain)-1; last == st.high.closed {
		return invalid("node %d has high key %s at position %d of %d", n.id, st.high, i, len(chain))
	}
	if st.high.closed && st.high.key <= st.floor {
		return invalid("node %d has empty range [%q, %s)", n.id, string(st.floor), st.high)
	}
	return nil
}

func (t *Tree) checkLeaf(n *Node, st *nodeState) error {
	if len(st.entries) == 0 || len(st.entries) > t.leafCap {
		return invalid("leaf %d holds %d entries, capacity %d", n.id, len(st.entries), t.leafCap)
	}
	for i, e := range st.entries {
		if i > 0 && st.entries[i-1].Key >= e.Key {
			return invalid("leaf %d keys out of order at %d", n.id, i)
		}
		if e.Key < st.floor || !st.high.admits(e.Key) {
			return invalid("leaf %d key %q outside [%q, %s)", n.id, string(e.Key), string(st.floor), st.high)
		}
	}
	return nil
}

func (t *Tree) checkInner(n *Node, st *nodeState) error {
	if len(st.children) == 0 || len(st.children) > t.fanOut {
		return invalid("inner %d holds %d children, fan-out %d", n.id, len(st.children), t.fanOut)
	}
	floor := st.floor
	for i, c := range st.children {
		if i > 0 && !st.children[i-1].sep.before(c.sep) {
			return invalid("inner %d separators not increasing at %d", n.id, i)
		}
		cs := c.node.load()
		if cs.floor != floor || !sameBound(cs.high, c.sep) {
			return invalid("child %d covers [%q, %s) but inner %d routes [%q, %s) to it",
				c.node.id, string(cs.floor), cs.high, n.id, string(floor), c.sep)
		}
		if p := c.node.parent.Load(); p != n {
			return invalid("child %d of inner %d has a stale parent hint", c.node.id, n.id)
		}
		floor = c.sep.key
	}
	if last := st.children[len(st.children)-1].sep; !sameBound(last, st.high) {
		return invalid("inner %d ends at %s but its last separator is %s", n.id, st.high, last)
	}
	return nil
}

// checkSingleParent verifies that the children of one level, read left to
// right, are exactly the sibling chain of the level below.
func checkSingleParent(upper, lower []linkedNode) error {
	k := 0
	for _, ln := range upper {
		for _, c := range ln.state.children {
			if k >= len(lower) || lower[k].node != c.node {
				return invalid("child %d of inner %d is not next in its level's sibling chain", c.node.id, ln.node.id)
			}
			k++
		}
	}
	if k != len(lower) {
		return invalid("%d nodes on a level are reachable only through siblings", len(lower)-k)
	}
	return nil
}

func sameBound(a, b bound) bool {
	return a.closed == b.closed && (!a.closed || a.key == b.key)
}
