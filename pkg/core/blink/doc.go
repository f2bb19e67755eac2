// Package blink implements an in-memory B-link tree: a B+ tree whose nodes
// also link to their right sibling, so a reader that lands on a node after it
// was split can still reach the right leaf by stepping right.
//
// # Concurrency
//
// Readers never lock. Each node publishes an immutable snapshot of its
// entries, high key and sibling link through an atomic pointer; a split
// replaces that snapshot in one store. Writers lock one node at a time and
// release it before locking the next one.
//
// # Usage
//
//	tree, err := blink.NewTree(config.Default().Tree)
//
//	err = tree.Upsert("uid=alice", []byte("payload"))
//
//	records, err := tree.Query("uid=alice")
package blink
