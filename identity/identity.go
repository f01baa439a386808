// Package identity provides Ed25519 keypair generation, signing, and
// verification for contributor identity throughout the Catalog CRDT and
// the signed publication contract. Grounded on
// delegate-identity/src/lib.rs; the algorithm itself (Ed25519, strict
// verification) is spec-mandated (spec §4.5), so this package uses
// crypto/ed25519 from the standard library rather than an ecosystem
// signing library.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// PublicKeySize and SecretKeySize are the Ed25519 raw key sizes used as
// wire-level contributor identifiers.
const (
	PublicKeySize = ed25519.PublicKeySize
	SecretKeySize = ed25519.SeedSize
	SignatureSize = ed25519.SignatureSize
)

// KeyPair holds a contributor's Ed25519 secret seed and public key. The
// secret is never serialized alongside catalog or publication state; it is
// only ever passed to Sign.
type KeyPair struct {
	Secret [SecretKeySize]byte
	Public [PublicKeySize]byte
}

// GenerateKeyPair produces a new Ed25519 keypair using a cryptographic RNG.
// Grounded on delegate-identity/src/lib.rs::generate_keypair.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("identity: generate keypair: %w", err)
	}
	var kp KeyPair
	copy(kp.Public[:], pub)
	// priv is the 64-byte expanded form (seed || public); Seed() recovers
	// the 32-byte seed that reconstructs the same signing key.
	copy(kp.Secret[:], priv.Seed())
	return kp, nil
}

// Sign signs data with secret, returning a 64-byte signature. Grounded on
// delegate-identity/src/lib.rs::sign_data.
func Sign(secret [SecretKeySize]byte, data []byte) [SignatureSize]byte {
	priv := ed25519.NewKeyFromSeed(secret[:])
	sig := ed25519.Sign(priv, data)
	var out [SignatureSize]byte
	copy(out[:], sig)
	return out
}

// Verify checks signature against public and data using Ed25519's strict,
// non-malleable verification path. Grounded on
// delegate-identity/src/lib.rs::verify_signature.
func Verify(public [PublicKeySize]byte, data []byte, signature [SignatureSize]byte) bool {
	return ed25519.Verify(public[:], data, signature[:])
}
