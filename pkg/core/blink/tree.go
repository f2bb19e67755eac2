package blink

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"blinkdb/pkg/common"
	"blinkdb/pkg/config"
	"blinkdb/pkg/core"
	"blinkdb/pkg/core/structure"
	"blinkdb/pkg/monitor"
)

// Tree owns the root pointer. Query and Upsert are safe for concurrent use.
type Tree struct {
	root     atomic.Pointer[Node]
	rootMu   sync.Mutex // serializes root installation
	leafCap  int
	fanOut   int
	nextID   atomic.Uint64
	count    atomic.Int64
	height   atomic.Int32
	filter   *structure.BloomFilter
	stats    *monitor.WorkloadStats
	metrics  *monitor.Metrics
	log      zerolog.Logger
	noFilter bool
}

var _ core.Index = (*Tree)(nil)

type Option func(*Tree)

func WithLogger(l zerolog.Logger) Option {
	return func(t *Tree) { t.log = l }
}

// WithMetrics reports tree activity to m. Without it only the atomic
// workload counters are kept.
func WithMetrics(m *monitor.Metrics) Option {
	return func(t *Tree) { t.metrics = m }
}

// WithFilter replaces the filter built from the config. A nil filter turns
// negative-lookup filtering off.
func WithFilter(f *structure.BloomFilter) Option {
	return func(t *Tree) {
		t.filter = f
		t.noFilter = f == nil
	}
}

// NewTree returns an empty tree. Capacities below 2 are rejected here so a
// split never sees a node it cannot divide.
func NewTree(cfg config.TreeConfig, opts ...Option) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Tree{
		leafCap: cfg.LeafCapacity,
		fanOut:  cfg.FanOut,
		stats:   monitor.NewWorkloadStats(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.filter == nil && !t.noFilter && cfg.BloomSize > 0 {
		t.filter = structure.NewBloomFilter(cfg.BloomSize, cfg.BloomFalseProb)
	}
	return t, nil
}

func (t *Tree) newNode(kind Kind, st *nodeState) *Node {
	n := &Node{id: NodeID(t.nextID.Add(1)), kind: kind}
	n.state.Store(st)
	return n
}

// Query returns the records stored under key, in leaf order. An empty tree
// yields an empty result.
func (t *Tree) Query(key common.KeyType) ([]common.Record, error) {
	t.stats.RecordRead()
	if t.metrics != nil {
		t.metrics.Queries.Inc()
	}
	if t.filter != nil && !t.filter.MayContain(key) {
		return nil, nil
	}

	_, st, err := t.leafFor(key)
	if err != nil {
		t.logCorruption(err, key)
		return nil, err
	}
	if st == nil {
		return nil, nil
	}

	var results []common.Record
	i, _ := search(st.entries, key)
	for ; i < len(st.entries) && isMatched(key, st.entries[i].Key); i++ {
		results = append(results, st.entries[i])
	}
	if len(results) > 0 {
		t.stats.RecordHit()
		if t.metrics != nil {
			t.metrics.Hits.Inc()
		}
	}
	return results, nil
}

// Get is Query for callers that want a single value.
func (t *Tree) Get(key common.KeyType) (common.ValueType, bool, error) {
	recs, err := t.Query(key)
	if err != nil || len(recs) == 0 {
		return nil, false, err
	}
	return recs[0].Value, true, nil
}

// Upsert stores value under key, replacing the record if the key exists.
// The value is copied.
func (t *Tree) Upsert(key common.KeyType, value common.ValueType) error {
	t.stats.RecordWrite()
	if t.metrics != nil {
		t.metrics.Upserts.Inc()
	}
	// the filter must learn the key before any reader can find it
	if t.filter != nil {
		t.filter.Add(key)
	}

	rec := common.NewRecord(key, value)
	if t.installFirstLeaf(rec) {
		t.inserted()
		return nil
	}

	n, err := t.descend(key)
	if err == nil {
		n, err = lockRight(n, key)
	}
	if err != nil {
		t.logCorruption(err, key)
		return err
	}

	st := n.load()
	i, found := search(st.entries, key)
	var entries []common.Record
	if found {
		entries = make([]common.Record, len(st.entries))
		copy(entries, st.entries)
		entries[i] = rec
	} else {
		entries = make([]common.Record, 0, len(st.entries)+1)
		entries = append(entries, st.entries[:i]...)
		entries = append(entries, rec)
		entries = append(entries, st.entries[i:]...)
	}
	// count a new key only once its leaf is published
	added := func() {
		if !found {
			t.inserted()
		}
	}

	if len(entries) <= t.leafCap {
		next := *st
		next.entries = entries
		n.state.Store(&next)
		n.mu.Unlock()
		added()
		return nil
	}
	if err := t.splitLeaf(n, st, entries, added); err != nil {
		t.logCorruption(err, key)
		return err
	}
	return nil
}

// installFirstLeaf creates the root leaf of an empty tree. It reports false
// when the tree already has a root.
func (t *Tree) installFirstLeaf(rec common.Record) bool {
	if t.root.Load() != nil {
		return false
	}
	t.rootMu.Lock()
	defer t.rootMu.Unlock()
	if t.root.Load() != nil {
		return false
	}
	t.root.Store(t.newNode(KindLeaf, &nodeState{entries: []common.Record{rec}}))
	t.log.Debug().Msg("created root leaf")
	return true
}

// installRoot replaces the root after the old root split. The caller holds
// the old root's lock.
func (t *Tree) installRoot(old, root *Node) error {
	t.rootMu.Lock()
	defer t.rootMu.Unlock()
	if t.root.Load() != old {
		return invalid("node %d split without a parent but is not the root", old.id)
	}
	t.root.Store(root)
	h := t.height.Add(1)
	if t.metrics != nil {
		t.metrics.Height.Set(float64(h))
	}
	t.log.Info().Int32("height", h).Uint64("root", uint64(root.id)).Msg("tree grew a level")
	return nil
}

func (t *Tree) inserted() {
	c := t.count.Add(1)
	if t.metrics != nil {
		t.metrics.Inserts.Inc()
		t.metrics.Entries.Set(float64(c))
	}
}

func (t *Tree) logCorruption(err error, key common.KeyType) {
	if errors.Is(err, ErrStructuralCorruption) {
		t.log.Error().Err(err).Str("key", string(key)).Msg("routing invariant violated")
	}
}

// Len is the number of distinct keys.
func (t *Tree) Len() int {
	return int(t.count.Load())
}

// Height is the number of inner levels above the leaves.
func (t *Tree) Height() int {
	return int(t.height.Load())
}

func (t *Tree) Type() string {
	return "BLink"
}

func (t *Tree) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"entries":       t.Len(),
		"height":        t.Height(),
		"leaf_capacity": t.leafCap,
		"fan_out":       t.fanOut,
		"splits":        atomic.LoadUint64(&t.stats.SplitCount),
		"rw_ratio":      t.stats.GetReadWriteRatio(),
		"hit_ratio":     t.stats.GetHitRatio(),
	}
	if t.filter != nil {
		for k, v := range t.filter.Stats() {
			stats[k] = v
		}
	}
	return stats
}
