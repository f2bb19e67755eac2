package memory

import (
	"sync"

	"github.com/google/btree"

	"blinkdb/pkg/common"
	"blinkdb/pkg/core"
)

type Item struct {
	Key common.KeyType
	Val common.ValueType
}

func (i Item) Less(than btree.Item) bool {
	return i.Key < than.(Item).Key
}

// MemTable is a single-lock ordered index used as the reference model for
// the B-link tree and as its benchmark baseline.
type MemTable struct {
	tree *btree.BTree
	lock sync.RWMutex
	size int
}

var _ core.Index = (*MemTable)(nil)

func NewMemTable(degree int) *MemTable {
	return &MemTable{
		tree: btree.New(degree),
	}
}

func (mt *MemTable) Put(key common.KeyType, val common.ValueType) {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	item := Item{Key: key, Val: append(common.ValueType(nil), val...)}
	if old := mt.tree.ReplaceOrInsert(item); old != nil {
		mt.size -= len(old.(Item).Key) + len(old.(Item).Val)
	}
	mt.size += len(key) + len(val)
}

func (mt *MemTable) Get(key common.KeyType) (common.ValueType, bool) {
	mt.lock.RLock()
	defer mt.lock.RUnlock()

	res := mt.tree.Get(Item{Key: key})
	if res == nil {
		return nil, false
	}
	return res.(Item).Val, true
}

func (mt *MemTable) Query(key common.KeyType) ([]common.Record, error) {
	val, ok := mt.Get(key)
	if !ok {
		return nil, nil
	}
	return []common.Record{{Key: key, Value: val}}, nil
}

func (mt *MemTable) Upsert(key common.KeyType, val common.ValueType) error {
	mt.Put(key, val)
	return nil
}

// Size is the approximate payload footprint in bytes.
func (mt *MemTable) Size() int {
	mt.lock.RLock()
	defer mt.lock.RUnlock()
	return mt.size
}

func (mt *MemTable) Iterator(fn func(key common.KeyType, val common.ValueType) bool) {
	mt.lock.RLock()
	defer mt.lock.RUnlock()

	mt.tree.Ascend(func(i btree.Item) bool {
		item := i.(Item)
		return fn(item.Key, item.Val)
	})
}

func (mt *MemTable) Len() int {
	mt.lock.RLock()
	defer mt.lock.RUnlock()
	return mt.tree.Len()
}

func (mt *MemTable) Type() string {
	return "BTree"
}
