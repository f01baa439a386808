package catalog

// ApplyDelta folds a validated delta into state. The contributor's current
// trust score (0 if unseen) sets the new attestation's weight as
// 1 + trust_score; size/version take max-wins; first_seen/last_seen track
// the token's timestamp. Grounded on
// contract-catalog/src/lib.rs::apply_delta_to_state.
//
// Callers must run ValidateDelta first; ApplyDelta does not re-validate.
func ApplyDelta(state *CatalogState, delta *CatalogDelta) {
	var trustScore uint32
	if c, ok := state.Contributors[delta.Attestation.ContributorPubkey]; ok {
		trustScore = c.TrustScore
	}
	weight := 1 + trustScore

	entry, ok := state.Entries[delta.ContractKey]
	if !ok {
		entry = newCatalogEntry(delta.ContractKey)
		state.Entries[delta.ContractKey] = entry
	}

	variant, ok := entry.HashVariants[delta.MetadataHash]
	if !ok {
		variant = &HashVariant{}
		entry.HashVariants[delta.MetadataHash] = variant
	}

	// All variants sharing a hash are required by I1 to carry identical
	// text, so this overwrite is a no-op on conflict.
	variant.Title = delta.Title
	variant.Description = delta.Description
	variant.MiniSnippet = delta.Snippet

	if !hasAttestation(variant.Attestations, delta.Attestation.ContributorPubkey) {
		att := delta.Attestation
		att.Weight = weight
		variant.Attestations = append(variant.Attestations, att)
		sortAttestations(variant.Attestations)
	}
	variant.TotalWeight = sumWeights(variant.Attestations)

	if delta.SizeBytes > entry.SizeBytes {
		entry.SizeBytes = delta.SizeBytes
	}
	entry.Version = mergeVersion(entry.Version, delta.Version)

	if delta.Attestation.TokenCreatedAt < entry.FirstSeen {
		entry.FirstSeen = delta.Attestation.TokenCreatedAt
	}
	if delta.Attestation.TokenCreatedAt > entry.LastSeen {
		entry.LastSeen = delta.Attestation.TokenCreatedAt
	}
}
