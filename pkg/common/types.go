package common

import (
	"bytes"
	"fmt"
)

// KeyType is the index key. Keys compare lexicographically by byte.
type KeyType string

// ValueType is the opaque payload stored under a key.
type ValueType []byte

// Record is the unit stored in a leaf. It is never mutated once built.
type Record struct {
	Key   KeyType
	Value ValueType
}

// NewRecord copies value so the caller may reuse its buffer.
func NewRecord(key KeyType, value ValueType) Record {
	return Record{Key: key, Value: bytes.Clone(value)}
}

// String 方便调试打印
func (r Record) String() string {
	return fmt.Sprintf("Record{Key: %q, ValLen: %d}", string(r.Key), len(r.Value))
}
