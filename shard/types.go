// Package shard implements the Shard CRDT: a sharded inverted index mapping
// terms to contract keys with max-wins TF-IDF scoring. Grounded on
// contract-fulltext-shard/src/lib.rs.
package shard

// ShardCount is the number of shards terms are routed across (spec §6).
const ShardCount = 16

// AntifloodToken mirrors catalog.AntifloodToken; carried independently here
// since the shard contract has no cross-package dependency on catalog.
type AntifloodToken struct {
	Nonce      []byte `cbor:"1,keyasint"`
	Difficulty uint8  `cbor:"2,keyasint"`
}

// TermEntry is one contract's posting under a term.
type TermEntry struct {
	ContractKey string `cbor:"1,keyasint"`
	Snippet     string `cbor:"2,keyasint"`
	TFIDFScore  uint32 `cbor:"3,keyasint"`
}

// ShardState is one shard's inverted index: term -> postings, sorted by
// contract_key, at most one entry per (term, contract_key) pair.
type ShardState struct {
	ShardID uint8                   `cbor:"1,keyasint"`
	Index   map[string][]*TermEntry `cbor:"2,keyasint"`
}

// NewShardState returns an empty state for the given shard.
func NewShardState(shardID uint8) *ShardState {
	return &ShardState{ShardID: shardID, Index: make(map[string][]*TermEntry)}
}

// ShardDeltaEntry is one posting proposed for addition to a shard.
type ShardDeltaEntry struct {
	Word        string `cbor:"1,keyasint"`
	ContractKey string `cbor:"2,keyasint"`
	Snippet     string `cbor:"3,keyasint"`
	TFIDFScore  uint32 `cbor:"4,keyasint"`
}

// ShardDelta is a batch of postings carrying one shared antiflood token.
type ShardDelta struct {
	Entries        []ShardDeltaEntry `cbor:"1,keyasint"`
	AntifloodToken AntifloodToken    `cbor:"2,keyasint"`
}
