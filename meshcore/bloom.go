package meshcore

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/bits-and-blooms/bitset"
)

// BloomK is the number of independent hash functions used by every state
// summary (spec §4.3).
const BloomK = 7

// DefaultBloomBits is the default filter width (8192 bits = 1 KiB),
// matching search-common/src/bloom.rs.
const DefaultBloomBits = 8192

// BloomFilter is a fixed-width membership filter used as a state summary.
// It backs its bit storage with github.com/bits-and-blooms/bitset rather
// than a hand-rolled byte slice, replacing the Rust Vec<u8> bit array in
// search-common/src/bloom.rs.
type BloomFilter struct {
	bits    *bitset.BitSet
	numBits uint64
}

// NewBloomFilter creates an empty filter with the given bit width.
func NewBloomFilter(numBits uint64) *BloomFilter {
	if numBits == 0 {
		numBits = DefaultBloomBits
	}
	return &BloomFilter{
		bits:    bitset.New(uint(numBits)),
		numBits: numBits,
	}
}

// NumBits reports the filter's bit width. Two filters are only compatible
// (comparable by Contains across peers) when their widths are equal.
func (f *BloomFilter) NumBits() uint64 { return f.numBits }

// Insert adds item's k positions to the filter.
func (f *BloomFilter) Insert(item []byte) {
	for i := 0; i < BloomK; i++ {
		f.bits.Set(uint(hashPosition(item, byte(i), f.numBits)))
	}
}

// Contains reports whether item's k positions are all set. False positives
// are possible (and safe, per spec §4.3); false negatives are not.
func (f *BloomFilter) Contains(item []byte) bool {
	for i := 0; i < BloomK; i++ {
		if !f.bits.Test(uint(hashPosition(item, byte(i), f.numBits))) {
			return false
		}
	}
	return true
}

// bloomWire is the canonical on-wire shape of a BloomFilter: a bit width
// plus a packed byte array, independent of the backing bitset library's own
// internal word layout so serialization stays stable across versions.
type bloomWire struct {
	NumBits uint64 `cbor:"1,keyasint"`
	Packed  []byte `cbor:"2,keyasint"`
}

// Bytes serializes the filter to its canonical wire form.
func (f *BloomFilter) Bytes() []byte {
	packed := make([]byte, (f.numBits+7)/8)
	for i := uint64(0); i < f.numBits; i++ {
		if f.bits.Test(uint(i)) {
			packed[i/8] |= 1 << (i % 8)
		}
	}
	out, err := Marshal(bloomWire{NumBits: f.numBits, Packed: packed})
	if err != nil {
		// Marshal of a plain struct of scalars/bytes cannot fail under the
		// canonical encoder; a failure here indicates a corrupt build.
		panic("meshcore: bloom filter encode: " + err.Error())
	}
	return out
}

// BloomFilterFromBytes deserializes a filter previously produced by Bytes.
func BloomFilterFromBytes(data []byte) (*BloomFilter, error) {
	var w bloomWire
	if err := Unmarshal(data, &w); err != nil {
		return nil, err
	}
	if w.NumBits == 0 {
		return nil, InvalidState("bloom filter: zero-width filter")
	}
	if uint64(len(w.Packed)) != (w.NumBits+7)/8 {
		return nil, InvalidState("bloom filter: packed length mismatch")
	}
	f := NewBloomFilter(w.NumBits)
	for i := uint64(0); i < w.NumBits; i++ {
		if w.Packed[i/8]&(1<<(i%8)) != 0 {
			f.bits.Set(uint(i))
		}
	}
	return f, nil
}

// hashPosition computes position_i(item) = be_u64(first 8 bytes of
// H(i as u8 ++ item)) mod num_bits, per spec §6.
func hashPosition(item []byte, prefix byte, numBits uint64) uint64 {
	h := sha256.New()
	h.Write([]byte{prefix})
	h.Write(item)
	sum := h.Sum(nil)
	v := binary.BigEndian.Uint64(sum[:8])
	return v % numBits
}
