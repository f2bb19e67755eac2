package blink

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"blinkdb/pkg/common"
)

// Median splits leave nodes anywhere between half and completely full, so
// the height after n inserts depends on the insertion order and only a range
// holds: at least ceil(log_F(n/C)), at most the height of a tree whose nodes
// are all minimally occupied.

// minHeight is the smallest h with leafCap*fanOut^h >= n.
func minHeight(n, leafCap, fanOut int) int {
	h := 0
	for capacity := leafCap; capacity < n; capacity *= fanOut {
		h++
	}
	return h
}

// maxHeight is the tallest tree whose nodes are all at least half full after
// median splits; the root has at least two children.
func maxHeight(n, leafCap, fanOut int) int {
	minLeaf, minFan := (leafCap+1)/2, (fanOut+1)/2
	h := 0
	for least := 2 * minLeaf; least <= n; least *= minFan {
		h++
	}
	return h
}

func keysOf(n int) []common.KeyType {
	keys := make([]common.KeyType, n)
	for i := range keys {
		keys[i] = common.KeyType(fmt.Sprintf("key-%06d", i))
	}
	return keys
}

func TestHeightBounds(t *testing.T) {
	cases := []struct {
		n, leafCap, fanOut int
	}{
		{100, 4, 4},
		{1000, 8, 3},
		{500, 2, 5},
		{2000, 16, 16},
		{3000, 3, 3},
		{64, 64, 4},
	}
	for _, tc := range cases {
		for _, order := range []string{"ascending", "descending", "shuffled"} {
			t.Run(fmt.Sprintf("n=%d/C=%d/F=%d/%s", tc.n, tc.leafCap, tc.fanOut, order), func(t *testing.T) {
				keys := keysOf(tc.n)
				switch order {
				case "descending":
					sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })
				case "shuffled":
					rng := rand.New(rand.NewSource(int64(tc.n)))
					rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
				}

				tree := newTestTree(t, tc.leafCap, tc.fanOut)
				for _, k := range keys {
					require.NoError(t, tree.Upsert(k, common.ValueType(k)))
				}
				require.NoError(t, tree.Validate())
				require.Equal(t, tc.n, tree.Len())

				h := tree.Height()
				require.GreaterOrEqual(t, h, minHeight(tc.n, tc.leafCap, tc.fanOut))
				require.LessOrEqual(t, h, maxHeight(tc.n, tc.leafCap, tc.fanOut))
				require.Len(t, tree.Levels(), h+1)
			})
		}
	}
}

func TestSeparatorsStrictlyIncrease(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewSource(seed))
		tree := newTestTree(t, 2+rng.Intn(4), 2+rng.Intn(4))
		for i := 0; i < 400; i++ {
			k := common.KeyType(fmt.Sprintf("%x", rng.Int63n(1000)))
			require.NoError(t, tree.Upsert(k, nil))
		}

		for _, level := range tree.Levels() {
			for _, info := range level {
				if info.Kind != KindInner {
					continue
				}
				for i := 1; i < len(info.Keys); i++ {
					require.Less(t, info.Keys[i-1], info.Keys[i], "inner %d", info.ID)
				}
			}
		}
		require.NoError(t, tree.Validate())
	}
}

func TestSiblingChainsPartitionKeys(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tree := newTestTree(t, 3, 3)
	inserted := map[common.KeyType]bool{}
	for i := 0; i < 300; i++ {
		k := common.KeyType(fmt.Sprintf("%04d", rng.Intn(5000)))
		inserted[k] = true
		require.NoError(t, tree.Upsert(k, common.ValueType(k)))
	}
	want := make([]common.KeyType, 0, len(inserted))
	for k := range inserted {
		want = append(want, k)
	}
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

	for depth, level := range tree.Levels() {
		require.Empty(t, level[0].Floor, "level %d", depth)
		require.True(t, level[len(level)-1].Open, "level %d", depth)
		for i := 1; i < len(level); i++ {
			require.False(t, level[i-1].Open)
			require.Equal(t, level[i-1].High, level[i].Floor, "level %d node %d", depth, i)
			require.Equal(t, level[i].ID, level[i-1].Sibling)
		}
	}

	levels := tree.Levels()
	var got []common.KeyType
	for _, leaf := range levels[len(levels)-1] {
		require.Equal(t, KindLeaf, leaf.Kind)
		for _, k := range leaf.Keys {
			require.GreaterOrEqual(t, k, leaf.Floor)
			if !leaf.Open {
				require.Less(t, k, leaf.High)
			}
		}
		got = append(got, leaf.Keys...)
	}
	require.Equal(t, want, got)
}

func TestSplitMedian(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, tree.Upsert(common.KeyType(k), nil))
	}
	leaves := tree.Levels()[1]
	require.Len(t, leaves, 2)
	require.Equal(t, []common.KeyType{"a", "b", "c"}, leaves[0].Keys)
	require.Equal(t, []common.KeyType{"d", "e"}, leaves[1].Keys)
	require.Equal(t, common.KeyType("d"), leaves[0].High)
	require.Equal(t, common.KeyType("d"), leaves[1].Floor)
}

func TestInnerSplitPropagatesToRoot(t *testing.T) {
	tree := newTestTree(t, 2, 2)
	for _, k := range keysOf(9) {
		require.NoError(t, tree.Upsert(k, nil))
		require.NoError(t, tree.Validate())
	}
	require.GreaterOrEqual(t, tree.Height(), 2)

	root := tree.root.Load()
	require.Equal(t, KindInner, root.Kind())
	require.Nil(t, root.parent.Load())
	for _, c := range root.load().children {
		require.Same(t, root, c.node.parent.Load())
	}
}

func TestOldRootStaysRoutable(t *testing.T) {
	tree := newTestTree(t, 2, 2)
	require.NoError(t, tree.Upsert("a", nil))
	require.NoError(t, tree.Upsert("b", nil))
	oldRoot := tree.root.Load()

	for _, k := range []string{"c", "d", "e", "f", "g"} {
		require.NoError(t, tree.Upsert(common.KeyType(k), common.ValueType(k)))
	}
	require.NotSame(t, oldRoot, tree.root.Load())

	// a reader still holding the old root reaches every key by stepping right
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		n, st, err := moveRight(oldRoot, common.KeyType(k))
		require.NoError(t, err)
		_, found := search(st.entries, common.KeyType(k))
		require.True(t, found, "key %s via node %d", k, n.ID())
	}
}
