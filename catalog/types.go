// Package catalog implements the Catalog CRDT: a grow-only map of indexed
// web contracts, keyed by contract identifier, with max-wins attestation
// weighting and deterministic status finalization. Grounded on
// contract-catalog/src/lib.rs.
package catalog

import "searchmesh.dev/node/meshcore"

// PubKey is a 32-byte Ed25519 public key used as a contributor identifier.
type PubKey [32]byte

// MetadataHash identifies a (title, description, snippet) variant.
type MetadataHash [32]byte

// AntifloodToken is a proof-of-work style rate-limiting token attached to
// every attestation (spec §4.1, §6).
type AntifloodToken struct {
	Nonce      []byte `cbor:"1,keyasint"`
	Difficulty uint8  `cbor:"2,keyasint"`
}

// Attestation is one contributor's vouching for a hash variant.
type Attestation struct {
	ContributorPubkey PubKey         `cbor:"1,keyasint"`
	AntifloodToken    AntifloodToken `cbor:"2,keyasint"`
	TokenCreatedAt    uint64         `cbor:"3,keyasint"`
	Weight            uint32         `cbor:"4,keyasint"`
}

// HashVariant is a (title, description, mini_snippet) triple identified by
// its metadata hash, carrying the attestations that vouch for it.
//
// Invariant I2: Attestations is sorted by ContributorPubkey and contains at
// most one entry per pubkey. Invariant I3: TotalWeight equals the sum of
// Attestations[].Weight.
type HashVariant struct {
	Title        string        `cbor:"1,keyasint"`
	Description  string        `cbor:"2,keyasint"`
	MiniSnippet  string        `cbor:"3,keyasint"`
	Attestations []Attestation `cbor:"4,keyasint"`
	TotalWeight  uint32        `cbor:"5,keyasint"`
}

// Status is the lifecycle status of a catalog entry.
type Status = meshcore.Status

const (
	StatusPending   = meshcore.StatusPending
	StatusConfirmed = meshcore.StatusConfirmed
	StatusDisputed  = meshcore.StatusDisputed
	StatusExpired   = meshcore.StatusExpired
)

// CatalogEntry aggregates every known variant for one contract key.
type CatalogEntry struct {
	ContractKey  string                       `cbor:"1,keyasint"`
	HashVariants map[MetadataHash]*HashVariant `cbor:"2,keyasint"`
	SizeBytes    uint64                        `cbor:"3,keyasint"`
	Version      *uint64                       `cbor:"4,keyasint"`
	Status       Status                        `cbor:"5,keyasint"`
	FirstSeen    uint64                        `cbor:"6,keyasint"`
	LastSeen     uint64                        `cbor:"7,keyasint"`
}

func newCatalogEntry(contractKey string) *CatalogEntry {
	return &CatalogEntry{
		ContractKey:  contractKey,
		HashVariants: make(map[MetadataHash]*HashVariant),
		Status:       StatusPending,
		FirstSeen:    ^uint64(0),
		LastSeen:     0,
	}
}

// ContributorScore is a contributor's reputation accounting.
type ContributorScore struct {
	Pubkey             PubKey `cbor:"1,keyasint"`
	TrustScore         uint32 `cbor:"2,keyasint"`
	TotalContributions uint32 `cbor:"3,keyasint"`
}

// CatalogState is the full CRDT state: every known entry plus the
// contributor reputation table.
type CatalogState struct {
	Entries      map[string]*CatalogEntry     `cbor:"1,keyasint"`
	Contributors map[PubKey]*ContributorScore `cbor:"2,keyasint"`
}

// NewCatalogState returns an empty state.
func NewCatalogState() *CatalogState {
	return &CatalogState{
		Entries:      make(map[string]*CatalogEntry),
		Contributors: make(map[PubKey]*ContributorScore),
	}
}

// CatalogDelta is one contributor's proposed addition: a single attestation
// for a single (contract_key, title, description, snippet) variant.
type CatalogDelta struct {
	ContractKey  string       `cbor:"1,keyasint"`
	Title        string       `cbor:"2,keyasint"`
	Description  string       `cbor:"3,keyasint"`
	MiniSnippet  string       `cbor:"4,keyasint"`
	Snippet      string       `cbor:"5,keyasint"`
	SizeBytes    uint64       `cbor:"6,keyasint"`
	Version      *uint64      `cbor:"7,keyasint"`
	MetadataHash MetadataHash `cbor:"8,keyasint"`
	Attestation  Attestation  `cbor:"9,keyasint"`
}

// CatalogParameters configures the contract's deterministic finalization
// pass. ConfirmationWeightThreshold is the minimum attestation count a
// variant needs to be eligible for Confirmed/Disputed status.
type CatalogParameters struct {
	ConfirmationWeightThreshold uint32 `cbor:"1,keyasint"`
}
