package structure

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"blinkdb/pkg/common"
)

func TestBloomNoFalseNegatives(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)
	for i := 0; i < 1000; i++ {
		bf.Add(common.KeyType(fmt.Sprintf("key-%04d", i)))
	}
	for i := 0; i < 1000; i++ {
		require.True(t, bf.MayContain(common.KeyType(fmt.Sprintf("key-%04d", i))), "key-%04d", i)
	}

	falsePositives := 0
	for i := 0; i < 1000; i++ {
		if bf.MayContain(common.KeyType(fmt.Sprintf("absent-%04d", i))) {
			falsePositives++
		}
	}
	// 1% target; leave generous headroom
	require.Less(t, falsePositives, 100)
}

func TestBloomConcurrentAdd(t *testing.T) {
	bf := NewBloomFilter(4000, 0.01)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				bf.Add(common.KeyType(fmt.Sprintf("w%d-%d", w, i)))
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < 4; w++ {
		for i := 0; i < 1000; i++ {
			require.True(t, bf.MayContain(common.KeyType(fmt.Sprintf("w%d-%d", w, i))))
		}
	}
	require.EqualValues(t, 4000, bf.Stats()["bloom_count"])
}

func TestBloomTinySizing(t *testing.T) {
	bf := NewBloomFilter(0, 0.5)
	bf.Add("a")
	require.True(t, bf.MayContain("a"))
	require.GreaterOrEqual(t, bf.Stats()["bloom_bits_size"].(uint), uint(64))
}

func TestBloomOutOfRangeProbability(t *testing.T) {
	for _, p := range []float64{0, -1, 1, 1.5} {
		var bf *BloomFilter
		require.NotPanics(t, func() { bf = NewBloomFilter(100, p) }, "p=%v", p)
		require.Equal(t, NewBloomFilter(100, 0.01).Stats()["bloom_bits_size"], bf.Stats()["bloom_bits_size"])
		bf.Add("a")
		require.True(t, bf.MayContain("a"))
	}
}
