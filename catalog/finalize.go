package catalog

// deriveStatus derives an entry's lifecycle status from attestation COUNT
// (not total_weight), keeping status derivation independent of
// trust-weighted totals and therefore commutative under merge. Grounded on
// contract-catalog/src/lib.rs::derive_status.
func deriveStatus(entry *CatalogEntry, threshold uint32) Status {
	counts := make([]uint32, 0, len(entry.HashVariants))
	for _, v := range entry.HashVariants {
		counts = append(counts, uint32(len(v.Attestations)))
	}
	var best, second uint32
	for _, c := range counts {
		if c > best {
			second = best
			best = c
		} else if c > second {
			second = c
		}
	}

	if best >= threshold {
		if second > 0 && second*100 > best*30 {
			return StatusDisputed
		}
		return StatusConfirmed
	}
	return StatusPending
}

// computeTrustFromEntries counts, for every contributor, how many
// confirmed-or-disputed entries' winning variant (by attestation count)
// they attested to. On a count tie, the variant with the lexicographically
// largest metadata hash wins (ascending scan, last-greater-or-equal-wins),
// matching bloomKey's tie-break so trust and the bloom fingerprint always
// agree on which variant an entry's tie resolved to. Grounded on
// contract-catalog/src/lib.rs::compute_trust_from_entries.
func computeTrustFromEntries(state *CatalogState, threshold uint32) map[PubKey]uint32 {
	trust := make(map[PubKey]uint32)

	for _, entry := range state.Entries {
		status := deriveStatus(entry, threshold)
		if status != StatusConfirmed && status != StatusDisputed {
			continue
		}

		var best *HashVariant
		var bestCount int
		for _, hash := range sortedHashVariantKeys(entry.HashVariants) {
			v := entry.HashVariants[hash]
			if len(v.Attestations) >= bestCount {
				best = v
				bestCount = len(v.Attestations)
			}
		}
		if best == nil {
			continue
		}
		for _, att := range best.Attestations {
			trust[att.ContributorPubkey]++
		}
	}

	return trust
}

// Finalize is the CRDT's deterministic finalization pass, run after every
// update: recompute trust scores from confirmed/disputed entries, then
// recompute every attestation's weight from the refreshed trust table, then
// re-derive every entry's status. Running finalization twice in a row is a
// no-op (idempotent), satisfying the separation between monotone merge and
// deterministic derived fields. Grounded on
// contract-catalog/src/lib.rs::finalize_state.
func Finalize(state *CatalogState, threshold uint32) {
	computedTrust := computeTrustFromEntries(state, threshold)

	for pk, trust := range computedTrust {
		score, ok := state.Contributors[pk]
		if !ok {
			score = &ContributorScore{Pubkey: pk}
			state.Contributors[pk] = score
		}
		if trust > score.TrustScore {
			score.TrustScore = trust
		}
		if trust > score.TotalContributions {
			score.TotalContributions = trust
		}
	}

	for _, entry := range state.Entries {
		for _, variant := range entry.HashVariants {
			for i := range variant.Attestations {
				att := &variant.Attestations[i]
				var trustScore uint32
				if c, ok := state.Contributors[att.ContributorPubkey]; ok {
					trustScore = c.TrustScore
				}
				att.Weight = 1 + trustScore
			}
			variant.TotalWeight = sumWeights(variant.Attestations)
		}
	}

	for _, entry := range state.Entries {
		entry.Status = deriveStatus(entry, threshold)
	}
}
