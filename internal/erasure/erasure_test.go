package erasure

import (
	"bytes"
	"testing"

	"github.com/strandgate/helix/pkg/model"
	"pgregory.net/rapid"
)

func TestSplitJoin_RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("deep time archival"), 100)

	shards, err := Split(1, data, 10, 5)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(shards) != 15 {
		t.Fatalf("got %d shards, want 15", len(shards))
	}

	got, err := Join(shards, 10, 5, uint64(len(data)))
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("round-trip mismatch")
	}
}

func TestJoin_ToleratesDroppedShards(t *testing.T) {
	data := bytes.Repeat([]byte("erasure coded payload"), 50)

	shards, err := Split(1, data, 10, 5)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	// Drop up to k=5 shards (any 5, including data shards) and still
	// recover exactly.
	surviving := make([]model.Shard, 0, len(shards))
	dropped := map[int]bool{0: true, 3: true, 7: true, 11: true, 14: true}
	for i, s := range shards {
		if !dropped[i] {
			surviving = append(surviving, s)
		}
	}

	got, err := Join(surviving, 10, 5, uint64(len(data)))
	if err != nil {
		t.Fatalf("Join failed with 5 shards dropped: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("reconstruction mismatch")
	}
}

func TestJoin_InsufficientShardsFails(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 1000)

	shards, err := Split(1, data, 10, 5)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	// Keep only 9 of the 10 required shards.
	surviving := shards[:9]

	if _, err := Join(surviving, 10, 5, uint64(len(data))); err == nil {
		t.Fatal("expected Join to fail with fewer than n shards")
	}
}

func TestSplit_ShardsHaveRoleAndEqualLength(t *testing.T) {
	data := bytes.Repeat([]byte("role check"), 30)

	shards, err := Split(5, data, 10, 5)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	want := len(shards[0].Bytes)
	for i, s := range shards {
		if len(s.Bytes) != want {
			t.Fatalf("shard %d length %d != shard 0 length %d", i, len(s.Bytes), want)
		}
		if s.BlockID != 5 {
			t.Fatalf("shard %d block id %d != 5", i, s.BlockID)
		}
		wantRole := model.RoleData
		if i >= 10 {
			wantRole = model.RoleParity
		}
		if s.Role != wantRole {
			t.Fatalf("shard %d role %v != %v", i, s.Role, wantRole)
		}
	}
}

func TestReconstructData_RecoversPaddedPrefix(t *testing.T) {
	data := bytes.Repeat([]byte("framed header and ciphertext"), 40)

	shards, err := Split(1, data, 10, 5)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	surviving := append([]model.Shard{}, shards[1:]...) // drop shard 0, a parity-tolerable loss

	padded, err := ReconstructData(surviving, 10, 5)
	if err != nil {
		t.Fatalf("ReconstructData failed: %v", err)
	}
	if len(padded) < len(data) {
		t.Fatalf("padded output shorter than original data: got %d want >= %d", len(padded), len(data))
	}
	if !bytes.Equal(padded[:len(data)], data) {
		t.Fatal("reconstructed prefix does not match original data")
	}
}

func TestReconstructData_InsufficientShardsFails(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 1000)

	shards, err := Split(1, data, 10, 5)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if _, err := ReconstructData(shards[:9], 10, 5); err == nil {
		t.Fatal("expected ReconstructData to fail with fewer than n shards")
	}
}

func TestSplitJoin_Property_RoundTripUnderErasure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 8192).Draw(t, "data")
		n := uint8(rapid.IntRange(2, 12).Draw(t, "n"))
		k := uint8(rapid.IntRange(1, 6).Draw(t, "k"))

		shards, err := Split(1, data, n, k)
		if err != nil {
			t.Fatalf("Split failed: %v", err)
		}

		dropCount := rapid.IntRange(0, int(k)).Draw(t, "dropCount")
		dropped := map[int]bool{}
		for len(dropped) < dropCount {
			idx := rapid.IntRange(0, len(shards)-1).Draw(t, "dropIdx")
			dropped[idx] = true
		}

		surviving := make([]model.Shard, 0, len(shards))
		for i, s := range shards {
			if !dropped[i] {
				surviving = append(surviving, s)
			}
		}

		got, err := Join(surviving, n, k, uint64(len(data)))
		if err != nil {
			t.Fatalf("Join failed with %d of %d+%d shards dropped: %v", dropCount, n, k, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatal("reconstruction mismatch")
		}
	})
}
