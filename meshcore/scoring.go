package meshcore

import "math/bits"

// Status is the lifecycle status of a catalog entry, shared between the
// Catalog CRDT's finalization pass and the rank-scoring formula below.
// Grounded on search-common/src/types.rs::Status.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusDisputed  Status = "Disputed"
	StatusExpired   Status = "Expired"
)

// IntegerTFIDF computes the ×10000-scaled TF-IDF score, per spec §6:
//
//	tf  := (term_count * 10000) / total_terms
//	idf := floor(log2(total_docs / docs_with_term)) * 10000 + 10000
//	score := (tf * idf) / 10000
//
// Grounded on search-common/src/scoring.rs::integer_tf_idf.
func IntegerTFIDF(termCount, totalTerms, totalDocs, docsWithTerm uint32) uint32 {
	if totalTerms == 0 || docsWithTerm == 0 {
		return 0
	}
	tf := uint64(termCount) * 10000 / uint64(totalTerms)
	ratio := uint64(totalDocs) * 10000 / uint64(docsWithTerm)
	idf := integerLog2Scaled(ratio) + 10000
	return uint32((tf * idf) / 10000)
}

// integerLog2Scaled returns floor(log2(x/10000)) * 10000 for x already
// scaled by 10000 (so x == 10000 represents a ratio of 1.0, whose log2 is 0).
func integerLog2Scaled(x uint64) uint64 {
	ratio := x / 10000
	if ratio <= 1 {
		return 0
	}
	return (uint64(bits.Len64(ratio)) - 1) * 10000
}

// logScale returns bit-length(x) * 500, a cheap integer-only stand-in for
// log2(x) * 500 used to blend magnitudes of very different scale (vote
// counts, version numbers, subscriber counts) onto one ×10000 axis.
func logScale(x uint64) uint64 {
	if x == 0 {
		return 0
	}
	return uint64(bits.Len64(x)) * 500
}

// RankScore blends three log-scaled magnitudes — weighted attestation
// count, publication version, and subscriber count — with a status
// bonus/penalty, per spec §6. Grounded on
// search-common/src/scoring.rs::rank_score.
func RankScore(weightedAttestations uint32, version uint64, subscribers uint32, status Status) uint32 {
	attScore := logScale(uint64(weightedAttestations))
	verScore := logScale(version)
	subScore := logScale(uint64(subscribers))

	base := (attScore*4000 + verScore*3000 + subScore*3000) / 10000

	var bonus int64
	switch status {
	case StatusConfirmed:
		bonus = 3000
	case StatusPending:
		bonus = 0
	case StatusDisputed:
		bonus = -2000
	case StatusExpired:
		bonus = -1000
	}

	result := int64(base) + bonus
	if result < 0 {
		return 0
	}
	return uint32(result)
}

// CombinedScore blends a relevance score (e.g. TF-IDF) and a rank score
// 70/30, per spec §6. Grounded on
// search-common/src/scoring.rs::combined_score.
func CombinedScore(relevance, rank uint32) uint32 {
	r := uint64(relevance)
	k := uint64(rank)
	return uint32((r*7000 + k*3000) / 10000)
}
