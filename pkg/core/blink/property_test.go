package blink

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"blinkdb/pkg/common"
	"blinkdb/pkg/config"
	"blinkdb/pkg/core/memory"
)

// pairs flattens records so nil and empty payloads compare equal.
func pairs(recs []common.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, string(r.Key)+"="+string(r.Value))
	}
	return out
}

func TestTreeMatchesOrderedModel(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		leafCap := rapid.IntRange(2, 6).Draw(rt, "leafCap")
		fanOut := rapid.IntRange(2, 6).Draw(rt, "fanOut")
		tree, err := NewTree(config.TreeConfig{LeafCapacity: leafCap, FanOut: fanOut})
		require.NoError(rt, err)
		model := memory.NewMemTable(2)

		keyGen := rapid.StringMatching(`[a-f]{0,3}`)
		valGen := rapid.SliceOfN(rapid.Byte(), 0, 8)

		rt.Repeat(map[string]func(*rapid.T){
			"upsert": func(rt *rapid.T) {
				k := common.KeyType(keyGen.Draw(rt, "key"))
				v := valGen.Draw(rt, "value")
				require.NoError(rt, tree.Upsert(k, v))
				model.Put(k, v)
			},
			"query": func(rt *rapid.T) {
				k := common.KeyType(keyGen.Draw(rt, "key"))
				got, err := tree.Query(k)
				require.NoError(rt, err)
				want, _ := model.Query(k)
				require.Equal(rt, pairs(want), pairs(got))
			},
			"": func(rt *rapid.T) {
				require.NoError(rt, tree.Validate())
				require.Equal(rt, model.Len(), tree.Len())

				var want, got []common.Record
				model.Iterator(func(k common.KeyType, v common.ValueType) bool {
					want = append(want, common.Record{Key: k, Value: v})
					return true
				})
				tree.Ascend(func(r common.Record) bool {
					got = append(got, r)
					return true
				})
				require.Equal(rt, pairs(want), pairs(got))

				if n := tree.Len(); n > 0 {
					require.GreaterOrEqual(rt, tree.Height(), minHeight(n, leafCap, fanOut))
				}
				if fanOut >= 3 {
					require.LessOrEqual(rt, tree.Height(), maxHeight(tree.Len(), leafCap, fanOut))
				}
			},
		})
	})
}
