package archive

import (
	"testing"

	"github.com/strandgate/helix/pkg/model"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestArchiveHeader_RoundTrip(t *testing.T) {
	h := model.DefaultHeader([16]byte{1, 2, 3, 4}, "GCTACGATCGTAGCTAGCTA", "CGATCGTAGCTAGCTAGCTA")

	buf := EncodeHeader(h)
	got, err := DecodeHeader(buf)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestDecodeHeader_RejectsTruncated(t *testing.T) {
	h := model.DefaultHeader([16]byte{1}, "GCTACGATCGTAGCTAGCTA", "CGATCGTAGCTAGCTAGCTA")
	buf := EncodeHeader(h)

	if _, err := DecodeHeader(buf[:10]); err == nil {
		t.Fatal("expected DecodeHeader to fail on a truncated buffer")
	}
}

func TestArchiveHeader_Property_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var salt [16]byte
		copy(salt[:], rapid.SliceOfN(rapid.Byte(), 16, 16).Draw(t, "salt"))
		fwd := rapid.StringN(0, 40, -1).Draw(t, "fwd")
		rev := rapid.StringN(0, 40, -1).Draw(t, "rev")

		h := model.DefaultHeader(salt, fwd, rev)
		h.N = uint8(rapid.IntRange(1, 255).Draw(t, "n"))
		h.K = uint8(rapid.IntRange(0, 255).Draw(t, "k"))
		h.BlockSize = rapid.Uint32().Draw(t, "blockSize")
		h.MaxRetries = rapid.IntRange(0, 1000).Draw(t, "maxRetries")

		buf := EncodeHeader(h)
		got, err := DecodeHeader(buf)
		if err != nil {
			t.Fatalf("DecodeHeader failed: %v", err)
		}
		if got != h {
			t.Fatalf("round-trip mismatch: got %+v want %+v", got, h)
		}
	})
}
