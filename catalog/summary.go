package catalog

import (
	"bytes"
	"encoding/binary"
	"sort"

	"searchmesh.dev/node/meshcore"
)

// sortedHashVariantKeys returns entry.HashVariants' keys in ascending byte
// order, matching the BTreeMap iteration order the original Rust relies on.
// Go's map iteration order is re-randomized per range call, so any scan that
// picks a "best"/"winning" variant must walk a sorted slice instead, or two
// runs over the same logical state can disagree on ties.
func sortedHashVariantKeys(variants map[MetadataHash]*HashVariant) []MetadataHash {
	keys := make([]MetadataHash, 0, len(variants))
	for hash := range variants {
		keys = append(keys, hash)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	return keys
}

// bloomKey builds the fingerprint used to summarize one entry: its contract
// key, the metadata hash of its best variant (by total_weight), and that
// variant's total_weight. Ties are broken by byte order of the hash: scanning
// ascending and keeping the greater-or-equal candidate means the
// lexicographically largest hash among tied variants wins, matching Rust's
// ascending-BTreeMap-then-max_by_key (last-wins-on-ties) semantics. Grounded
// on contract-catalog/src/lib.rs::bloom_key.
func bloomKey(entry *CatalogEntry) []byte {
	var bestHash MetadataHash
	var bestWeight uint32
	for _, hash := range sortedHashVariantKeys(entry.HashVariants) {
		variant := entry.HashVariants[hash]
		if variant.TotalWeight >= bestWeight {
			bestHash = hash
			bestWeight = variant.TotalWeight
		}
	}

	key := make([]byte, 0, len(entry.ContractKey)+len(bestHash)+4)
	key = append(key, entry.ContractKey...)
	key = append(key, bestHash[:]...)
	var weightBuf [4]byte
	binary.BigEndian.PutUint32(weightBuf[:], bestWeight)
	key = append(key, weightBuf[:]...)
	return key
}

// Summarize builds a bloom-filter fingerprint of state: one key per entry,
// derived from bloomKey. Grounded on
// contract-catalog/src/lib.rs::summarize_state.
func Summarize(state *CatalogState) []byte {
	bloom := meshcore.NewBloomFilter(meshcore.DefaultBloomBits)
	for _, entry := range state.Entries {
		bloom.Insert(bloomKey(entry))
	}
	return bloom.Bytes()
}

// Diff decodes a peer's summary and returns the deltas — one per
// (contributor, variant) pair — for every entry whose fingerprint is absent
// from the summary. Grounded on
// contract-catalog/src/lib.rs::get_state_delta.
func Diff(state *CatalogState, summary []byte) ([]CatalogDelta, error) {
	bloom, err := meshcore.BloomFilterFromBytes(summary)
	if err != nil {
		return nil, meshcore.InvalidState("malformed summary: " + err.Error())
	}

	var missing []CatalogDelta
	for _, entry := range state.Entries {
		key := bloomKey(entry)
		if bloom.Contains(key) {
			continue
		}
		for hash, variant := range entry.HashVariants {
			for _, att := range variant.Attestations {
				missing = append(missing, CatalogDelta{
					ContractKey:  entry.ContractKey,
					Title:        variant.Title,
					Description:  variant.Description,
					MiniSnippet:  variant.MiniSnippet,
					Snippet:      variant.MiniSnippet,
					SizeBytes:    entry.SizeBytes,
					Version:      entry.Version,
					MetadataHash: hash,
					Attestation:  att,
				})
			}
		}
	}
	return missing, nil
}
