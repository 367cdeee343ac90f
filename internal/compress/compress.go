// Package compress wraps the LZMA stage applied to a block's plaintext
// before encryption (spec §4.1: "plaintext is compressed, then
// encrypted"). Helix treats the compression algorithm itself as a
// Non-goal and reaches for an off-the-shelf implementation rather than
// designing one.
package compress

import (
	"bytes"

	"github.com/ulikunitz/xz/lzma"
)

// Compress returns the LZMA-compressed form of data.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress inverts Compress.
func Decompress(data []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
