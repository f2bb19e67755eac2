package structure

import (
	"hash/fnv"
	"math"
	"math/bits"
	"sync/atomic"

	"blinkdb/pkg/common"
)

// BloomFilter answers "definitely absent" for keys never added. Bits live in
// atomic words so readers and writers never block each other.
type BloomFilter struct {
	words []atomic.Uint64
	k     uint
	m     uint
	count atomic.Uint64
}

const defaultFalseProb = 0.01

// NewBloomFilter sizes a filter for n keys at false-positive rate p. A p
// outside (0, 1) falls back to 1%.
func NewBloomFilter(n uint, p float64) *BloomFilter {
	if n == 0 {
		n = 1
	}
	if !(p > 0 && p < 1) {
		p = defaultFalseProb
	}
	// 理论最佳公式
	// m = - (n * ln(p)) / (ln(2)^2)
	// k = (m / n) * ln(2)
	m := uint(math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)))
	if m < 64 {
		m = 64
	}
	k := uint(math.Ceil((float64(m) / float64(n)) * math.Ln2))
	if k == 0 {
		k = 1
	}

	return &BloomFilter{
		words: make([]atomic.Uint64, (m+63)/64),
		k:     k,
		m:     m,
	}
}

func (bf *BloomFilter) Add(key common.KeyType) {
	h1, h2 := hashes(key)
	for i := uint(0); i < bf.k; i++ {
		pos := (h1 + uint64(i)*h2) % uint64(bf.m)
		w := &bf.words[pos/64]
		mask := uint64(1) << (pos % 64)
		for {
			old := w.Load()
			if old&mask != 0 || w.CompareAndSwap(old, old|mask) {
				break
			}
		}
	}
	bf.count.Add(1)
}

// MayContain is false only for keys that were never added.
func (bf *BloomFilter) MayContain(key common.KeyType) bool {
	h1, h2 := hashes(key)
	for i := uint(0); i < bf.k; i++ {
		pos := (h1 + uint64(i)*h2) % uint64(bf.m)
		if bf.words[pos/64].Load()&(uint64(1)<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

func hashes(key common.KeyType) (uint64, uint64) {
	h := fnv.New64a()
	h.Write([]byte(key))
	sum := h.Sum64()
	// odd step keeps the probe sequence from collapsing onto one bit
	return sum, bits.RotateLeft64(sum, 32) | 1
}

func (bf *BloomFilter) Stats() map[string]interface{} {
	set := 0
	for i := range bf.words {
		set += bits.OnesCount64(bf.words[i].Load())
	}
	return map[string]interface{}{
		"bloom_bits_size": bf.m,
		"bloom_bits_set":  set,
		"bloom_hashes":    bf.k,
		"bloom_count":     bf.count.Load(),
	}
}
