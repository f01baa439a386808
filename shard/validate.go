package shard

import "searchmesh.dev/node/meshcore"

// ValidateState checks that every word in state's index routes to the
// state's own shard_id, and that no (word, contract_key) pair repeats.
// Grounded on contract-fulltext-shard/src/lib.rs::validate_state.
func ValidateState(state *ShardState, shardForWord func(word string, shardCount uint8) uint8) error {
	for word, entries := range state.Index {
		if shardForWord(word, ShardCount) != state.ShardID {
			return meshcore.InvalidState("word does not route to this shard")
		}
		seen := make(map[string]struct{}, len(entries))
		for _, e := range entries {
			if _, dup := seen[e.ContractKey]; dup {
				return meshcore.InvalidState("duplicate contract_key under a term")
			}
			seen[e.ContractKey] = struct{}{}
		}
	}
	return nil
}
