package catalog

import "sort"

// Merge folds b's entries and contributor scores into a (in place): union of
// variants, union-with-dedup by pubkey on attestations, max-wins on
// size/version/last_seen and on both contributor scalars, min-wins on
// first_seen. Where both sides hold an attestation from the same pubkey,
// a's copy (and its weight) is kept; Finalize recomputes every weight
// afterwards. Merging the same state twice changes nothing. Grounded on
// contract-catalog/src/lib.rs::merge_catalog_states.
func Merge(a, b *CatalogState) {
	for key, bEntry := range b.Entries {
		aEntry, ok := a.Entries[key]
		if !ok {
			aEntry = newCatalogEntry(key)
			a.Entries[key] = aEntry
		}

		for hash, bVariant := range bEntry.HashVariants {
			aVariant, ok := aEntry.HashVariants[hash]
			if !ok {
				aVariant = &HashVariant{
					Title:       bVariant.Title,
					Description: bVariant.Description,
					MiniSnippet: bVariant.MiniSnippet,
				}
				aEntry.HashVariants[hash] = aVariant
			}

			for _, bAtt := range bVariant.Attestations {
				if !hasAttestation(aVariant.Attestations, bAtt.ContributorPubkey) {
					aVariant.Attestations = append(aVariant.Attestations, bAtt)
				}
			}
			sortAttestations(aVariant.Attestations)
			aVariant.TotalWeight = sumWeights(aVariant.Attestations)
		}

		if bEntry.SizeBytes > aEntry.SizeBytes {
			aEntry.SizeBytes = bEntry.SizeBytes
		}
		aEntry.Version = mergeVersion(aEntry.Version, bEntry.Version)
		if bEntry.FirstSeen < aEntry.FirstSeen {
			aEntry.FirstSeen = bEntry.FirstSeen
		}
		if bEntry.LastSeen > aEntry.LastSeen {
			aEntry.LastSeen = bEntry.LastSeen
		}
	}

	for pk, bScore := range b.Contributors {
		aScore, ok := a.Contributors[pk]
		if !ok {
			aScore = &ContributorScore{Pubkey: pk}
			a.Contributors[pk] = aScore
		}
		if bScore.TrustScore > aScore.TrustScore {
			aScore.TrustScore = bScore.TrustScore
		}
		if bScore.TotalContributions > aScore.TotalContributions {
			aScore.TotalContributions = bScore.TotalContributions
		}
	}
}

func hasAttestation(atts []Attestation, pk PubKey) bool {
	for _, a := range atts {
		if a.ContributorPubkey == pk {
			return true
		}
	}
	return false
}

func sortAttestations(atts []Attestation) {
	sort.Slice(atts, func(i, j int) bool {
		return lessPubKey(atts[i].ContributorPubkey, atts[j].ContributorPubkey)
	})
}

func lessPubKey(a, b PubKey) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func sumWeights(atts []Attestation) uint32 {
	var sum uint32
	for _, a := range atts {
		sum += a.Weight
	}
	return sum
}

func mergeVersion(a, b *uint64) *uint64 {
	switch {
	case a != nil && b != nil:
		if *a >= *b {
			return a
		}
		return b
	case a != nil:
		return a
	case b != nil:
		return b
	default:
		return nil
	}
}
