package blink

import (
	"sync"
	"sync/atomic"

	"blinkdb/pkg/common"
)

type Kind uint8

const (
	KindLeaf Kind = iota
	KindInner
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindInner:
		return "inner"
	default:
		return "unknown"
	}
}

type NodeID uint64

// bound is an exclusive upper limit on keys. The zero value is open: it
// admits every key and marks the rightmost node or child of a level.
type bound struct {
	key    common.KeyType
	closed bool
}

func below(key common.KeyType) bound {
	return bound{key: key, closed: true}
}

func (b bound) admits(key common.KeyType) bool {
	return !b.closed || isInRangeOf(key, b.key)
}

// before orders bounds with the open bound last.
func (b bound) before(o bound) bool {
	switch {
	case !b.closed:
		return false
	case !o.closed:
		return true
	default:
		return b.key < o.key
	}
}

func (b bound) String() string {
	if !b.closed {
		return "+inf"
	}
	return string(b.key)
}

// child is one (separator, child) pair of an inner node. The separator is
// the exclusive upper bound of keys routed to node.
type child struct {
	sep  bound
	node *Node
}

// nodeState is the published content of a node. It is never modified after
// being stored; writers build a new one.
type nodeState struct {
	floor    common.KeyType
	high     bound
	sibling  *Node
	entries  []common.Record // leaf only, sorted by key
	children []child         // inner only, separators strictly increasing
}

// Node is a leaf or inner node. kind and id never change; parent is a hint
// that may lag behind a split of the parent level.
type Node struct {
	id     NodeID
	kind   Kind
	mu     sync.Mutex
	parent atomic.Pointer[Node]
	state  atomic.Pointer[nodeState]
}

func (n *Node) ID() NodeID { return n.id }
func (n *Node) Kind() Kind { return n.kind }

func (n *Node) load() *nodeState {
	return n.state.Load()
}

func (n *Node) size(st *nodeState) int {
	if n.kind == KindLeaf {
		return len(st.entries)
	}
	return len(st.children)
}
