package blink

import (
	"cmp"
	"slices"

	"blinkdb/pkg/common"
)

// isInRangeOf routes key to the first child whose separator sorts after it.
func isInRangeOf(key, separator common.KeyType) bool {
	return key < separator
}

// isMatched is the leaf filter: exact equality only.
func isMatched(key, entryKey common.KeyType) bool {
	return key == entryKey
}

// route picks the child of inner node n responsible for key. When none of the
// separators admit key the node is stale and the search continues at the
// sibling on the same level.
func route(n *Node, st *nodeState, key common.KeyType) (*Node, error) {
	for _, c := range st.children {
		if c.sep.admits(key) {
			return c.node, nil
		}
	}
	if st.sibling != nil {
		return st.sibling, nil
	}
	return nil, noRoute(n, key)
}

// descend walks from the root to the leaf level without taking any lock.
// The returned leaf may have split since it was linked; callers finish with
// moveRight or lockRight.
func (t *Tree) descend(key common.KeyType) (*Node, error) {
	n := t.root.Load()
	if n == nil {
		return nil, nil
	}
	for {
		switch n.kind {
		case KindLeaf:
			return n, nil
		case KindInner:
			next, err := route(n, n.load(), key)
			if err != nil {
				return nil, err
			}
			n = next
		default:
			return nil, invalid("node %d has unknown kind %d", n.id, n.kind)
		}
	}
}

// moveRight follows sibling links until it reaches the node whose range
// admits key. It returns the state it checked so the caller reads a
// consistent snapshot.
func moveRight(n *Node, key common.KeyType) (*Node, *nodeState, error) {
	for {
		st := n.load()
		if st.high.admits(key) {
			return n, st, nil
		}
		if st.sibling == nil {
			return nil, nil, noRoute(n, key)
		}
		n = st.sibling
	}
}

// lockRight is moveRight for writers: it returns n locked, holding at most
// one lock at any time while stepping right.
func lockRight(n *Node, key common.KeyType) (*Node, error) {
	n.mu.Lock()
	for {
		st := n.load()
		if st.high.admits(key) {
			return n, nil
		}
		next := st.sibling
		n.mu.Unlock()
		if next == nil {
			return nil, noRoute(n, key)
		}
		n = next
		n.mu.Lock()
	}
}

// leafFor returns the leaf responsible for key and the snapshot that proves
// it, or nil for an empty tree.
func (t *Tree) leafFor(key common.KeyType) (*Node, *nodeState, error) {
	n, err := t.descend(key)
	if err != nil || n == nil {
		return nil, nil, err
	}
	return moveRight(n, key)
}

// search returns the position of key in sorted entries, or the insertion
// point when absent.
func search(entries []common.Record, key common.KeyType) (int, bool) {
	return slices.BinarySearchFunc(entries, key, func(r common.Record, k common.KeyType) int {
		return cmp.Compare(r.Key, k)
	})
}
