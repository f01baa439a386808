package catalog

import (
	"searchmesh.dev/node/meshcore"
)

// ValidateDelta enforces the structural invariants a delta must satisfy
// before it is applied (spec §6, B1, B2): non-empty contract key, byte
// length bounds on title/description, a non-empty antiflood nonce with
// difficulty ≥ 1, a non-zero contributor pubkey, a non-zero token
// timestamp, and a metadata hash matching the carried text. Grounded on
// contract-catalog/src/lib.rs::validate_delta.
func ValidateDelta(delta *CatalogDelta) error {
	if delta.ContractKey == "" {
		return meshcore.InvalidUpdate("empty contract_key")
	}
	if len(delta.Title) > meshcore.MaxTitleBytes {
		return meshcore.InvalidUpdate("title exceeds max length")
	}
	if len(delta.Description) > meshcore.MaxDescriptionBytes {
		return meshcore.InvalidUpdate("description exceeds max length")
	}
	if len(delta.Attestation.AntifloodToken.Nonce) == 0 || delta.Attestation.AntifloodToken.Difficulty == 0 {
		return meshcore.InvalidUpdate("malformed antiflood token")
	}
	if delta.Attestation.ContributorPubkey == (PubKey{}) {
		return meshcore.InvalidUpdate("all-zero contributor pubkey")
	}
	if delta.Attestation.TokenCreatedAt == 0 {
		return meshcore.InvalidUpdate("zero token_created_at")
	}
	expected := meshcore.MetadataHash(delta.Title, delta.Description, delta.Snippet)
	if MetadataHash(expected) != delta.MetadataHash {
		return meshcore.InvalidUpdate("metadata_hash mismatch")
	}
	return nil
}

// ValidateState checks every structural invariant a CatalogState must hold
// at rest: non-empty contract keys, per-variant metadata hash agreement
// (I1), no duplicate contributor pubkeys within a variant (I2), and
// total_weight consistency (I3). Grounded on
// contract-catalog/src/lib.rs::validate_state.
func ValidateState(state *CatalogState) error {
	for _, entry := range state.Entries {
		if entry.ContractKey == "" {
			return meshcore.InvalidState("entry with empty contract_key")
		}

		for hash, variant := range entry.HashVariants {
			expected := meshcore.MetadataHash(variant.Title, variant.Description, variant.MiniSnippet)
			if MetadataHash(expected) != hash {
				return meshcore.InvalidState("metadata_hash does not match variant text")
			}

			seen := make(map[PubKey]struct{}, len(variant.Attestations))
			for _, att := range variant.Attestations {
				if _, dup := seen[att.ContributorPubkey]; dup {
					return meshcore.InvalidState("duplicate contributor pubkey in variant")
				}
				seen[att.ContributorPubkey] = struct{}{}
			}

			if sumWeights(variant.Attestations) != variant.TotalWeight {
				return meshcore.InvalidState("total_weight does not match attestation sum")
			}
		}
	}
	return nil
}
