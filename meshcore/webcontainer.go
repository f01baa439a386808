package meshcore

import (
	"archive/tar"
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/ulikunitz/xz"
)

// MaxDecompressBytes bounds the output of web-container decompression so a
// producer cannot crash a consumer with a decompression bomb (spec §6).
const MaxDecompressBytes = 30 * 1024 * 1024

// MaxWebContainerMetadataBytes and MaxWebContainerPayloadBytes bound the two
// frame sections before any parsing is attempted (spec §6, §4.4).
const (
	MaxWebContainerMetadataBytes = 1024
	MaxWebContainerPayloadBytes  = 100 * 1024 * 1024
)

// DetectWebContainer reports whether state looks like a well-formed
// web-container frame: [metadata_size u64 BE][metadata][web_size u64
// BE][web bytes], without decoding either section. Grounded on
// search-common/src/web_container.rs::detect_web_container.
func DetectWebContainer(state []byte) bool {
	_, _, ok := webContainerOffsets(state)
	return ok
}

// ParseFrame validates and splits the two-section length-prefixed frame
// shared by the web-container codec and the signed publication contract
// (spec §4.4, §6): [metadata_size u64 BE][metadata][payload_size u64
// BE][payload]. It performs no decoding of either section's contents.
func ParseFrame(data []byte) (metadata, payload []byte, ok bool) {
	return webContainerOffsets(data)
}

// webContainerOffsets validates the frame and returns the metadata and
// payload byte ranges.
func webContainerOffsets(state []byte) (meta, payload []byte, ok bool) {
	if len(state) < 16 {
		return nil, nil, false
	}
	metaSize := binary.BigEndian.Uint64(state[:8])
	if metaSize == 0 || metaSize > MaxWebContainerMetadataBytes {
		return nil, nil, false
	}
	webOffset := 8 + metaSize
	if uint64(len(state)) < webOffset+8 {
		return nil, nil, false
	}
	webSize := binary.BigEndian.Uint64(state[webOffset : webOffset+8])
	if webSize == 0 || webSize > MaxWebContainerPayloadBytes {
		return nil, nil, false
	}
	expectedTotal := 8 + metaSize + 8 + webSize
	if expectedTotal != uint64(len(state)) {
		return nil, nil, false
	}
	meta = state[8:webOffset]
	payload = state[webOffset+8 : webOffset+8+webSize]
	return meta, payload, true
}

// limitedWriter caps the bytes it will accept, matching
// search-common/src/web_container.rs::LimitedWriter: decompression stops
// (with an error) rather than growing without bound.
type limitedWriter struct {
	buf   bytes.Buffer
	limit int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return 0, errors.New("decompression limit reached")
	}
	n := len(p)
	if n > remaining {
		n = remaining
	}
	w.buf.Write(p[:n])
	return n, nil
}

// DecompressWebContainer parses the frame and XZ-decompresses the tar
// payload, capped at MaxDecompressBytes. Returns nil when the frame is
// malformed, decompression fails, or the output would exceed the cap — a
// producer's bad data yields no metadata rather than an error surfaced to
// the caller.
func DecompressWebContainer(state []byte) []byte {
	_, payload, ok := webContainerOffsets(state)
	if !ok {
		return nil
	}
	r, err := xz.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil
	}
	out := &limitedWriter{limit: MaxDecompressBytes}
	if _, err := io.Copy(out, r); err != nil {
		return nil
	}
	if out.buf.Len() == 0 {
		return nil
	}
	return out.buf.Bytes()
}

// FindFileInTar scans tarData for the first entry whose name ends with
// filename and returns its content. Uses archive/tar rather than a
// hand-rolled header walk — the tar format itself is not a mesh-specific
// concern, so the standard library's reader is the idiomatic choice here.
func FindFileInTar(tarData []byte, filename string) (string, bool) {
	tr := tar.NewReader(bytes.NewReader(tarData))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return "", false
		}
		if err != nil {
			return "", false
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if !hasSuffix(hdr.Name, filename) {
			continue
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return "", false
		}
		return string(content), true
	}
}

func hasSuffix(name, suffix string) bool {
	if len(suffix) > len(name) {
		return false
	}
	return name[len(name)-len(suffix):] == suffix
}
