package meshcore

import (
	"crypto/sha256"
	"encoding/binary"
)

// MetadataHash computes H(title, description, snippet) as defined in spec
// §6: a length-prefixed SHA-256 digest over title, description, then
// snippet, each preceded by its length as a big-endian u64. Length
// prefixing is mandatory — plain concatenation collides across different
// field splits. Grounded on search-common/src/hashing.rs::metadata_hash,
// translated from the reference hash family (SHA-256) named in spec §6.
func MetadataHash(title, description, snippet string) [32]byte {
	h := sha256.New()
	writeLenPrefixed(h, title)
	writeLenPrefixed(h, description)
	writeLenPrefixed(h, snippet)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeLenPrefixed(h interface{ Write([]byte) (int, error) }, s string) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(s)))
	_, _ = h.Write(lenBuf[:])
	_, _ = h.Write([]byte(s))
}

// ShardForTerm computes shard(term) = be_u32(first 4 bytes of H(term)) mod
// shardCount, as defined in spec §6. Grounded on
// search-common/src/hashing.rs::shard_for_word.
func ShardForTerm(term string, shardCount uint8) uint8 {
	sum := sha256.Sum256([]byte(term))
	v := binary.BigEndian.Uint32(sum[:4])
	return uint8(v % uint32(shardCount))
}
