package core

import "blinkdb/pkg/common"

// Index 抽象接口，屏蔽 B-link 树与参考实现的差异
type Index interface {
	Query(key common.KeyType) ([]common.Record, error)
	Upsert(key common.KeyType, value common.ValueType) error
	Len() int
	Type() string // "BLink", "BTree"
}
