package meshcore

import (
	"github.com/fxamacker/cbor/v2"
)

// canonicalEncMode produces byte-stable output for equal logical values:
// map keys sorted length-first (RFC 7049 §3.9 canonical CBOR), integers and
// lengths in their shortest form, no indefinite-length items. Required for Bloom
// fingerprinting and for validate-after-merge equality checks (spec §6).
var canonicalEncMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic("meshcore: invalid canonical cbor options: " + err.Error())
	}
	return mode
}

// Marshal encodes val using the canonical CBOR encoding mode. Mirrors the
// cbor_serialize helper every original contract used over ciborium.
func Marshal(val any) ([]byte, error) {
	return canonicalEncMode.Marshal(val)
}

// Unmarshal decodes CBOR bytes into val. Decoding failures are the caller's
// responsibility to translate into InvalidState/InvalidUpdate.
func Unmarshal(data []byte, val any) error {
	return cbor.Unmarshal(data, val)
}
