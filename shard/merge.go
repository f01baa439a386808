package shard

import (
	"sort"

	"searchmesh.dev/node/meshcore"
)

// ValidateDelta enforces structural invariants: a non-empty antiflood token,
// non-empty words, and every word routing to this shard's ID. Grounded on
// contract-fulltext-shard/src/lib.rs::validate_shard_delta.
func ValidateDelta(state *ShardState, delta *ShardDelta, shardForWord func(word string, shardCount uint8) uint8) error {
	if len(delta.AntifloodToken.Nonce) == 0 || delta.AntifloodToken.Difficulty == 0 {
		return meshcore.InvalidUpdate("malformed antiflood token")
	}
	for _, e := range delta.Entries {
		if e.Word == "" {
			return meshcore.InvalidUpdate("empty word")
		}
		if shardForWord(e.Word, ShardCount) != state.ShardID {
			return meshcore.InvalidUpdate("word routes to a different shard")
		}
	}
	return nil
}

// ApplyDelta folds delta's postings into state: max-wins on tf_idf_score,
// with snippet following the winning score. Grounded on
// contract-fulltext-shard/src/lib.rs::apply_shard_delta.
//
// Callers must run ValidateDelta first; ApplyDelta does not re-validate.
func ApplyDelta(state *ShardState, delta *ShardDelta) {
	for _, deltaEntry := range delta.Entries {
		entries := state.Index[deltaEntry.Word]
		if existing := findByContractKey(entries, deltaEntry.ContractKey); existing != nil {
			if deltaEntry.TFIDFScore > existing.TFIDFScore {
				existing.TFIDFScore = deltaEntry.TFIDFScore
				existing.Snippet = deltaEntry.Snippet
			}
		} else {
			entries = append(entries, &TermEntry{
				ContractKey: deltaEntry.ContractKey,
				Snippet:     deltaEntry.Snippet,
				TFIDFScore:  deltaEntry.TFIDFScore,
			})
		}
		sortByContractKey(entries)
		state.Index[deltaEntry.Word] = entries
	}
}

// Merge folds b's index into a: union per term, max-wins on tf_idf_score,
// snippet follows the winning score. Grounded on
// contract-fulltext-shard/src/lib.rs::merge_shard_states.
func Merge(a, b *ShardState) {
	for word, bEntries := range b.Index {
		aEntries := a.Index[word]
		for _, bEntry := range bEntries {
			if existing := findByContractKey(aEntries, bEntry.ContractKey); existing != nil {
				if bEntry.TFIDFScore > existing.TFIDFScore {
					existing.TFIDFScore = bEntry.TFIDFScore
					existing.Snippet = bEntry.Snippet
				}
			} else {
				aEntries = append(aEntries, &TermEntry{
					ContractKey: bEntry.ContractKey,
					Snippet:     bEntry.Snippet,
					TFIDFScore:  bEntry.TFIDFScore,
				})
			}
		}
		sortByContractKey(aEntries)
		a.Index[word] = aEntries
	}
}

func findByContractKey(entries []*TermEntry, contractKey string) *TermEntry {
	for _, e := range entries {
		if e.ContractKey == contractKey {
			return e
		}
	}
	return nil
}

func sortByContractKey(entries []*TermEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ContractKey < entries[j].ContractKey
	})
}
