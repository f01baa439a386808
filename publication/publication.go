// Package publication implements the signed publication contract: an
// immutable-ish web container whose state advances only by monotonically
// increasing version under a fixed Ed25519 verification key. Grounded on
// web-container-contract/src/lib.rs.
package publication

import (
	"encoding/binary"

	"searchmesh.dev/node/identity"
	"searchmesh.dev/node/meshcore"
)

// Metadata is the Ed25519-signed header carried in every publication
// frame's metadata section.
type Metadata struct {
	Version   uint32                       `cbor:"1,keyasint"`
	Signature [identity.SignatureSize]byte `cbor:"2,keyasint"`
}

// signedMessage reconstructs the exact byte sequence the signature covers:
// the version as 4 big-endian bytes, then the raw web payload. Grounded on
// web-container-contract/src/lib.rs's `message` construction.
func signedMessage(version uint32, web []byte) []byte {
	msg := make([]byte, 4+len(web))
	binary.BigEndian.PutUint32(msg[:4], version)
	copy(msg[4:], web)
	return msg
}

// VerifyingKey extracts the 32-byte Ed25519 verification key from the
// contract's parameters. Additional bytes (a vanity nonce) are ignored.
// Grounded on web-container-contract/src/lib.rs::validate_state.
func VerifyingKey(parameters []byte) ([identity.PublicKeySize]byte, error) {
	var key [identity.PublicKeySize]byte
	if len(parameters) < identity.PublicKeySize {
		return key, meshcore.Other("parameters must be at least 32 bytes (Ed25519 public key)")
	}
	copy(key[:], parameters[:identity.PublicKeySize])
	return key, nil
}

// Validate decodes a frame, enforces the §4.4 size caps, rejects a zero
// version, reconstructs the signed message, and verifies the signature
// strictly against verifyingKey. Grounded on
// web-container-contract/src/lib.rs::validate_state.
func Validate(parameters, state []byte) error {
	verifyingKey, err := VerifyingKey(parameters)
	if err != nil {
		return err
	}

	metaBytes, web, ok := meshcore.ParseFrame(state)
	if !ok {
		return meshcore.Other("malformed publication frame")
	}
	if uint64(len(metaBytes)) > meshcore.MaxWebContainerMetadataBytes {
		return meshcore.Other("metadata size exceeds maximum allowed size")
	}
	if uint64(len(web)) > meshcore.MaxWebContainerPayloadBytes {
		return meshcore.Other("web size exceeds maximum allowed size")
	}

	var metadata Metadata
	if err := meshcore.Unmarshal(metaBytes, &metadata); err != nil {
		return meshcore.Other("failed to decode metadata: " + err.Error())
	}
	if metadata.Version == 0 {
		return meshcore.InvalidState("version must be non-zero")
	}

	message := signedMessage(metadata.Version, web)
	if !identity.Verify(verifyingKey, message, metadata.Signature) {
		return meshcore.Other("signature verification failed")
	}
	return nil
}

// currentVersion decodes just the version out of an existing (possibly
// empty) publication state. An empty state has version 0.
func currentVersion(state []byte) (uint32, error) {
	if len(state) == 0 {
		return 0, nil
	}
	metaBytes, _, ok := meshcore.ParseFrame(state)
	if !ok {
		return 0, meshcore.Other("malformed publication frame")
	}
	var metadata Metadata
	if err := meshcore.Unmarshal(metaBytes, &metadata); err != nil {
		return 0, meshcore.Other("failed to decode metadata: " + err.Error())
	}
	return metadata.Version, nil
}

// Update accepts a single full replacement state and requires its version
// to strictly exceed the current state's version (Q7). Grounded on
// web-container-contract/src/lib.rs::update_state.
func Update(currentState, newState []byte) ([]byte, error) {
	current, err := currentVersion(currentState)
	if err != nil {
		return nil, err
	}
	next, err := currentVersion(newState)
	if err != nil {
		return nil, err
	}
	if next <= current {
		return nil, meshcore.InvalidUpdateWithInfo("new state version must be higher than current version")
	}
	return newState, nil
}

// Summarize returns the CBOR-encoded version number, or an empty summary
// for an empty state. Grounded on
// web-container-contract/src/lib.rs::summarize_state.
func Summarize(state []byte) ([]byte, error) {
	if len(state) == 0 {
		return nil, nil
	}
	version, err := currentVersion(state)
	if err != nil {
		return nil, err
	}
	return meshcore.Marshal(version)
}

// Diff returns the full state when its version exceeds the peer's summary
// version, or an empty delta otherwise. Grounded on
// web-container-contract/src/lib.rs::get_state_delta.
func Diff(state, summary []byte) ([]byte, error) {
	if len(state) == 0 {
		return nil, nil
	}
	current, err := currentVersion(state)
	if err != nil {
		return nil, err
	}

	var summaryVersion uint32
	if len(summary) > 0 {
		if err := meshcore.Unmarshal(summary, &summaryVersion); err != nil {
			return nil, meshcore.Other("failed to decode summary: " + err.Error())
		}
	}

	if current > summaryVersion {
		return state, nil
	}
	return nil, nil
}
