package blink

import (
	"errors"
	"fmt"

	"blinkdb/pkg/common"
)

// ErrStructuralCorruption reports a broken routing invariant. It is never
// transient and callers should not retry.
var ErrStructuralCorruption = errors.New("b-link tree structure is corrupt")

func noRoute(n *Node, key common.KeyType) error {
	return fmt.Errorf("%w: %s node %d has no child or sibling for key %q", ErrStructuralCorruption, n.kind, n.id, string(key))
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrStructuralCorruption, fmt.Sprintf(format, args...))
}
