package shard

import "searchmesh.dev/node/meshcore"

// bloomKey builds the fingerprint for one (word, contract_key) posting:
// word bytes, a 0xFF separator (which cannot occur in a UTF-8-encoded
// word), then contract_key bytes. Grounded on
// contract-fulltext-shard/src/lib.rs::bloom_key.
func bloomKey(word, contractKey string) []byte {
	key := make([]byte, 0, len(word)+1+len(contractKey))
	key = append(key, word...)
	key = append(key, 0xFF)
	key = append(key, contractKey...)
	return key
}

// Summarize builds a bloom-filter fingerprint of state: one key per
// (word, contract_key) posting. Grounded on
// contract-fulltext-shard/src/lib.rs::summarize_state.
func Summarize(state *ShardState) []byte {
	bloom := meshcore.NewBloomFilter(meshcore.DefaultBloomBits)
	for word, entries := range state.Index {
		for _, e := range entries {
			bloom.Insert(bloomKey(word, e.ContractKey))
		}
	}
	return bloom.Bytes()
}

// Diff decodes a peer's summary and returns the postings missing from it, as
// a single delta batch carrying a placeholder antiflood token — shard sync
// deltas are peer-to-peer catch-up traffic, not new contributor
// submissions, so they carry a nominal token rather than a real one.
// Grounded on contract-fulltext-shard/src/lib.rs::get_state_delta.
func Diff(state *ShardState, summary []byte) (*ShardDelta, error) {
	bloom, err := meshcore.BloomFilterFromBytes(summary)
	if err != nil {
		return nil, meshcore.InvalidState("malformed summary: " + err.Error())
	}

	var missing []ShardDeltaEntry
	for word, entries := range state.Index {
		for _, e := range entries {
			if bloom.Contains(bloomKey(word, e.ContractKey)) {
				continue
			}
			missing = append(missing, ShardDeltaEntry{
				Word:        word,
				ContractKey: e.ContractKey,
				Snippet:     e.Snippet,
				TFIDFScore:  e.TFIDFScore,
			})
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}
	return &ShardDelta{
		Entries:        missing,
		AntifloodToken: AntifloodToken{Nonce: make([]byte, 8), Difficulty: 1},
	}, nil
}
