package catalog

import (
	"strings"
	"testing"

	"searchmesh.dev/node/meshcore"
)

func pubkey(b byte) PubKey {
	var pk PubKey
	pk[0] = b
	pk[31] = b
	return pk
}

func makeDelta(contractKey, title, description, snippet string, contributor PubKey) CatalogDelta {
	hash := meshcore.MetadataHash(title, description, snippet)
	return CatalogDelta{
		ContractKey: contractKey,
		Title:       title,
		Description: description,
		MiniSnippet: snippet,
		Snippet:     snippet,
		SizeBytes:   1024,
		MetadataHash: MetadataHash(hash),
		Attestation: Attestation{
			ContributorPubkey: contributor,
			AntifloodToken:    AntifloodToken{Nonce: []byte{0x01}, Difficulty: 1},
			TokenCreatedAt:    1,
		},
	}
}

func TestValidateDeltaRejectsEmptyContractKey(t *testing.T) {
	d := makeDelta("", "t", "d", "s", pubkey(1))
	if err := ValidateDelta(&d); err == nil {
		t.Fatal("expected error for empty contract_key")
	}
}

func TestValidateDeltaTitleLengthBoundary(t *testing.T) {
	ok := makeDelta("k", strings.Repeat("a", meshcore.MaxTitleBytes), "d", "s", pubkey(1))
	if err := ValidateDelta(&ok); err != nil {
		t.Fatalf("expected 256-byte title to be accepted, got %v", err)
	}

	tooLong := makeDelta("k", strings.Repeat("a", meshcore.MaxTitleBytes+1), "d", "s", pubkey(1))
	if err := ValidateDelta(&tooLong); err == nil {
		t.Fatal("expected 257-byte title to be rejected")
	}
}

func TestValidateDeltaDescriptionLengthBoundary(t *testing.T) {
	ok := makeDelta("k", "t", strings.Repeat("a", meshcore.MaxDescriptionBytes), "s", pubkey(1))
	if err := ValidateDelta(&ok); err != nil {
		t.Fatalf("expected 1024-byte description to be accepted, got %v", err)
	}

	tooLong := makeDelta("k", "t", strings.Repeat("a", meshcore.MaxDescriptionBytes+1), "s", pubkey(1))
	if err := ValidateDelta(&tooLong); err == nil {
		t.Fatal("expected 1025-byte description to be rejected")
	}
}

func TestValidateDeltaRejectsMissingAntifloodToken(t *testing.T) {
	d := makeDelta("k", "t", "d", "s", pubkey(1))
	d.Attestation.AntifloodToken.Nonce = nil
	if err := ValidateDelta(&d); err == nil {
		t.Fatal("expected error for empty nonce")
	}
}

func TestValidateDeltaRejectsZeroPubkey(t *testing.T) {
	d := makeDelta("k", "t", "d", "s", PubKey{})
	if err := ValidateDelta(&d); err == nil {
		t.Fatal("expected error for all-zero contributor pubkey")
	}
}

func TestValidateDeltaRejectsZeroTokenTimestamp(t *testing.T) {
	d := makeDelta("k", "t", "d", "s", pubkey(1))
	d.Attestation.TokenCreatedAt = 0
	if err := ValidateDelta(&d); err == nil {
		t.Fatal("expected error for zero token_created_at")
	}
}

func TestValidateDeltaRejectsHashMismatch(t *testing.T) {
	d := makeDelta("k", "t", "d", "s", pubkey(1))
	d.MetadataHash[0] ^= 0xFF
	if err := ValidateDelta(&d); err == nil {
		t.Fatal("expected error for metadata_hash mismatch")
	}
}

// S1: two-contributor confirmation — threshold=3, three distinct pubkeys,
// identical title/description/snippet, valid tokens. Expected: one
// variant, three attestations sorted by pubkey, status Confirmed, each
// contributor's trust_score >= 1.
func TestSeedS1ConfirmedSingleVariant(t *testing.T) {
	state := NewCatalogState()
	for i := byte(1); i <= 3; i++ {
		d := makeDelta("contract-trust", "Title", "Description", "Snippet", pubkey(i))
		if err := ValidateDelta(&d); err != nil {
			t.Fatalf("unexpected validation error: %v", err)
		}
		ApplyDelta(state, &d)
	}
	Finalize(state, 3)

	entry := state.Entries["contract-trust"]
	if entry == nil {
		t.Fatal("expected entry to exist")
	}
	if len(entry.HashVariants) != 1 {
		t.Fatalf("expected exactly one variant, got %d", len(entry.HashVariants))
	}
	if entry.Status != StatusConfirmed {
		t.Fatalf("expected Confirmed, got %v", entry.Status)
	}
	for _, variant := range entry.HashVariants {
		if len(variant.Attestations) != 3 {
			t.Fatalf("expected 3 attestations, got %d", len(variant.Attestations))
		}
		for i := 1; i < len(variant.Attestations); i++ {
			if !lessPubKey(variant.Attestations[i-1].ContributorPubkey, variant.Attestations[i].ContributorPubkey) {
				t.Fatal("expected attestations sorted by pubkey")
			}
		}
	}
	for i := byte(1); i <= 3; i++ {
		score, ok := state.Contributors[pubkey(i)]
		if !ok || score.TrustScore < 1 {
			t.Fatalf("expected contributor %d trust_score >= 1", i)
		}
	}
}

// buildS2State constructs the S2 scenario: two variants of the same entry,
// each attested by 3 distinct pubkeys, so both variants tie on attestation
// count (and, since every attestation starts at weight 1, on total_weight
// too). This is the exact tie bloomKey/computeTrustFromEntries must break
// deterministically instead of depending on Go's randomized map iteration
// order.
func buildS2State() *CatalogState {
	state := NewCatalogState()
	for i := byte(1); i <= 3; i++ {
		d := makeDelta("contract-dispute", "A", "Description", "Snippet", pubkey(i))
		ApplyDelta(state, &d)
	}
	for i := byte(10); i <= 12; i++ {
		d := makeDelta("contract-dispute", "B", "Description", "Snippet", pubkey(i))
		ApplyDelta(state, &d)
	}
	return state
}

// S2: disputed variants — threshold=3, two competing 3-pubkey groups with
// different metadata_hash. Expected status = Disputed.
func TestSeedS2DisputedVariants(t *testing.T) {
	state := buildS2State()
	Finalize(state, 3)

	entry := state.Entries["contract-dispute"]
	if entry.Status != StatusDisputed {
		t.Fatalf("expected Disputed, got %v", entry.Status)
	}
}

// On the S2 tie, bloomKey's "best variant" and computeTrustFromEntries'
// "winning variant" must agree on every independently-built, logically
// identical state — map iteration order must never leak into which
// tied variant wins.
func TestSeedS2TieBreakIsDeterministicAcrossRebuilds(t *testing.T) {
	const runs = 8

	var wantSummary []byte
	var wantTrustedPubkeys map[PubKey]bool

	for i := 0; i < runs; i++ {
		state := buildS2State()
		Finalize(state, 3)

		summary := Summarize(state)
		trusted := make(map[PubKey]bool)
		for pk, score := range state.Contributors {
			if score.TrustScore > 0 {
				trusted[pk] = true
			}
		}

		if i == 0 {
			wantSummary = summary
			wantTrustedPubkeys = trusted
			if len(wantTrustedPubkeys) != 3 {
				t.Fatalf("expected exactly one 3-pubkey group to win the tie, got %d trusted pubkeys", len(wantTrustedPubkeys))
			}
			continue
		}

		if string(summary) != string(wantSummary) {
			t.Fatalf("run %d: Summarize fingerprint differs across logically identical rebuilds", i)
		}
		if len(trusted) != len(wantTrustedPubkeys) {
			t.Fatalf("run %d: trusted pubkey set size differs: got %d, want %d", i, len(trusted), len(wantTrustedPubkeys))
		}
		for pk := range wantTrustedPubkeys {
			if !trusted[pk] {
				t.Fatalf("run %d: trust tie-break disagrees with run 0 on pubkey %x", i, pk)
			}
		}
	}
}

func TestMergeIsCommutative(t *testing.T) {
	a1 := NewCatalogState()
	d1 := makeDelta("k", "t", "d", "s", pubkey(1))
	ApplyDelta(a1, &d1)

	a2 := NewCatalogState()
	d2 := makeDelta("k", "t", "d", "s", pubkey(2))
	ApplyDelta(a2, &d2)

	left := NewCatalogState()
	ApplyDelta(left, &d1)
	right := NewCatalogState()
	ApplyDelta(right, &d2)
	Merge(left, right)

	leftThenRight := len(left.Entries["k"].HashVariants[MetadataHash(meshcore.MetadataHash("t", "d", "s"))].Attestations)

	left2 := NewCatalogState()
	ApplyDelta(left2, &d2)
	right2 := NewCatalogState()
	ApplyDelta(right2, &d1)
	Merge(left2, right2)
	rightThenLeft := len(left2.Entries["k"].HashVariants[MetadataHash(meshcore.MetadataHash("t", "d", "s"))].Attestations)

	if leftThenRight != rightThenLeft {
		t.Fatalf("merge not commutative: %d vs %d", leftThenRight, rightThenLeft)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	state := NewCatalogState()
	d := makeDelta("k", "t", "d", "s", pubkey(1))
	ApplyDelta(state, &d)

	other := NewCatalogState()
	ApplyDelta(other, &d)

	Merge(state, other)
	before, _ := meshcore.Marshal(state)
	Merge(state, other)
	after, _ := meshcore.Marshal(state)

	if string(before) != string(after) {
		t.Fatal("expected merge to be idempotent")
	}
}

func TestValidateStateDetectsTotalWeightMismatch(t *testing.T) {
	state := NewCatalogState()
	d := makeDelta("k", "t", "d", "s", pubkey(1))
	ApplyDelta(state, &d)

	for _, entry := range state.Entries {
		for _, variant := range entry.HashVariants {
			variant.TotalWeight += 100
		}
	}

	if err := ValidateState(state); err == nil {
		t.Fatal("expected total_weight mismatch to be rejected")
	}
}

func TestSummarizeAndDiffRoundTrip(t *testing.T) {
	state := NewCatalogState()
	d := makeDelta("k", "t", "d", "s", pubkey(1))
	ApplyDelta(state, &d)

	empty := NewCatalogState()
	summary := Summarize(empty)

	missing, err := Diff(state, summary)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(missing) == 0 {
		t.Fatal("expected missing deltas for an entry absent from the peer summary")
	}

	selfSummary := Summarize(state)
	missingFromSelf, err := Diff(state, selfSummary)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(missingFromSelf) != 0 {
		t.Fatalf("expected no missing deltas against our own summary, got %d", len(missingFromSelf))
	}
}
