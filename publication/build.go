package publication

import (
	"encoding/binary"

	"searchmesh.dev/node/identity"
	"searchmesh.dev/node/meshcore"
)

// BuildState signs web with secret under the given version and assembles a
// complete publication frame: [metadata_size u64 BE][metadata][web_size u64
// BE][web]. Used by producers (and by tests) to construct states that
// Validate accepts.
func BuildState(secret [identity.SecretKeySize]byte, version uint32, web []byte) ([]byte, error) {
	signature := identity.Sign(secret, signedMessage(version, web))
	metadata := Metadata{Version: version, Signature: signature}

	metaBytes, err := meshcore.Marshal(metadata)
	if err != nil {
		return nil, meshcore.Other("encode metadata: " + err.Error())
	}

	out := make([]byte, 0, 8+len(metaBytes)+8+len(web))
	out = appendUint64BE(out, uint64(len(metaBytes)))
	out = append(out, metaBytes...)
	out = appendUint64BE(out, uint64(len(web)))
	out = append(out, web...)
	return out, nil
}

func appendUint64BE(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}
