package pipeline

import (
	"errors"
	"testing"

	"github.com/strandgate/helix/internal/crypto"
	"github.com/strandgate/helix/internal/oligo"
	"github.com/strandgate/helix/internal/stability"
	"github.com/strandgate/helix/pkg/model"
	"github.com/strandgate/helix/pkg/workerpool"
)

// permissiveGate never rejects a candidate on GC or Tm, isolating these
// tests from the stability gate's own pass/fail logic (covered by
// internal/stability's tests) so they exercise orchestration only.
func permissiveGate(fwd, rev string) stability.Gate {
	return stability.Gate{
		GCMin: 0, GCMax: 100,
		TmMin: -1e9, TmMax: 1e9,
		PrimerFwd: fwd, PrimerRev: rev,
		FuzzyTolerance: 3,
	}
}

func testHeader() model.ArchiveHeader {
	h := model.DefaultHeader([16]byte{9, 9, 9}, oligo.DefaultFwdPrimer, oligo.DefaultRevPrimer)
	h.N = 4
	h.K = 2
	return h
}

func strandsOf(oligos []model.Oligo) []string {
	out := make([]string, len(oligos))
	for i, o := range oligos {
		out[i] = o.String()
	}
	return out
}

func TestCompileRestoreBlock_RoundTrip(t *testing.T) {
	pool := workerpool.NewWorkerPool(workerpool.Config{WorkerCount: 4})
	header := testHeader()
	masterKey := crypto.DeriveMasterKey("correct horse battery staple", header.GlobalSalt)
	gate := permissiveGate(header.PrimerFwd, header.PrimerRev)
	plaintext := []byte("the archive that outlives its archivists")

	result, err := CompileBlock(pool, 7, plaintext, header, masterKey, gate, header.PrimerFwd, header.PrimerRev, false)
	if err != nil {
		t.Fatalf("CompileBlock failed: %v", err)
	}
	if result.Attempts != 1 {
		t.Fatalf("expected the permissive gate to pass on the first attempt, got %d attempts", result.Attempts)
	}
	if len(result.Oligos) != int(header.N)+int(header.K) {
		t.Fatalf("got %d oligos, want %d", len(result.Oligos), header.N+header.K)
	}

	demux := NewDemultiplexer(pool, header, masterKey)
	results := demux.Feed(strandsOf(result.Oligos), header.PrimerFwd, header.PrimerRev)
	if len(results) != 1 {
		t.Fatalf("expected the block to reconstruct from its own strands, got %d results", len(results))
	}
	if results[0].BlockID != 7 {
		t.Fatalf("got block id %d, want 7", results[0].BlockID)
	}
	if string(results[0].Plaintext) != string(plaintext) {
		t.Fatalf("round-trip mismatch: got %q want %q", results[0].Plaintext, plaintext)
	}
}

func TestDemultiplexer_ToleratesDroppedStrands(t *testing.T) {
	pool := workerpool.NewWorkerPool(workerpool.Config{WorkerCount: 4})
	header := testHeader()
	masterKey := crypto.DeriveMasterKey("pw", header.GlobalSalt)
	gate := permissiveGate(header.PrimerFwd, header.PrimerRev)
	plaintext := []byte("erasure tolerant restore path")

	result, err := CompileBlock(pool, 3, plaintext, header, masterKey, gate, header.PrimerFwd, header.PrimerRev, false)
	if err != nil {
		t.Fatalf("CompileBlock failed: %v", err)
	}
	strands := strandsOf(result.Oligos)

	// Drop the first two data shards (indices 0,1); keep the remaining
	// two data shards and both parity shards, exactly N=4 present, so
	// Reed-Solomon must genuinely reconstruct the missing data.
	surviving := append(append([]string{}, strands[2:4]...), strands[4:6]...)

	demux := NewDemultiplexer(pool, header, masterKey)
	results := demux.Feed(surviving, header.PrimerFwd, header.PrimerRev)
	if len(results) != 1 {
		t.Fatalf("expected reconstruction from exactly N surviving strands, got %d results", len(results))
	}
	if string(results[0].Plaintext) != string(plaintext) {
		t.Fatalf("round-trip mismatch under erasure: got %q want %q", results[0].Plaintext, plaintext)
	}
}

func TestDemultiplexer_FeedFinalizesAfterFailedFlushAndSecondBatch(t *testing.T) {
	pool := workerpool.NewWorkerPool(workerpool.Config{WorkerCount: 4})
	header := testHeader()
	masterKey := crypto.DeriveMasterKey("pw", header.GlobalSalt)
	gate := permissiveGate(header.PrimerFwd, header.PrimerRev)

	result, err := CompileBlock(pool, 5, []byte("streamed across batch boundaries"), header, masterKey, gate, header.PrimerFwd, header.PrimerRev, false)
	if err != nil {
		t.Fatalf("CompileBlock failed: %v", err)
	}
	strands := strandsOf(result.Oligos)

	demux := NewDemultiplexer(pool, header, masterKey)

	first := demux.Feed(strands[:2], header.PrimerFwd, header.PrimerRev)
	if len(first) != 0 {
		t.Fatalf("expected no early success with only 2 of %d required shards, got %d results", header.N, len(first))
	}
	if len(demux.Flush()) != 0 {
		t.Fatal("expected Flush to fail to reconstruct from only 2 shards")
	}
	if pending := demux.Pending(); len(pending) != 1 || pending[0] != 5 {
		t.Fatalf("expected block 5 pending, got %v", pending)
	}

	second := demux.Feed(strands[2:], header.PrimerFwd, header.PrimerRev)
	if len(second) != 1 {
		t.Fatalf("expected early success once the remaining shards arrived, got %d results", len(second))
	}
	if len(demux.Pending()) != 0 {
		t.Fatal("expected no pending blocks after a successful reconstruction")
	}
}

func TestDemultiplexer_WrongMasterKeyNeverFinalizes(t *testing.T) {
	pool := workerpool.NewWorkerPool(workerpool.Config{WorkerCount: 4})
	header := testHeader()
	rightKey := crypto.DeriveMasterKey("right", header.GlobalSalt)
	wrongKey := crypto.DeriveMasterKey("wrong", header.GlobalSalt)
	gate := permissiveGate(header.PrimerFwd, header.PrimerRev)

	result, err := CompileBlock(pool, 2, []byte("secret payload"), header, rightKey, gate, header.PrimerFwd, header.PrimerRev, false)
	if err != nil {
		t.Fatalf("CompileBlock failed: %v", err)
	}

	demux := NewDemultiplexer(pool, header, wrongKey)
	results := demux.Feed(strandsOf(result.Oligos), header.PrimerFwd, header.PrimerRev)
	if len(results) != 0 {
		t.Fatal("expected the wrong master key to never successfully finalize a block")
	}
	if pending := demux.Pending(); len(pending) != 1 || pending[0] != 2 {
		t.Fatalf("expected block 2 to remain pending under the wrong key, got %v", pending)
	}
}

func TestCompileBlock_ExhaustsRetriesWithoutForce(t *testing.T) {
	pool := workerpool.NewWorkerPool(workerpool.Config{WorkerCount: 2})
	header := testHeader()
	header.MaxRetries = 2
	masterKey := crypto.DeriveMasterKey("pw", header.GlobalSalt)
	impossible := stability.Gate{
		GCMin: 1000, GCMax: 2000,
		TmMin: -1e9, TmMax: 1e9,
		PrimerFwd: header.PrimerFwd, PrimerRev: header.PrimerRev,
		FuzzyTolerance: 3,
	}

	_, err := CompileBlock(pool, 1, []byte("never passes"), header, masterKey, impossible, header.PrimerFwd, header.PrimerRev, false)
	if !errors.Is(err, model.ErrStabilityFailure) {
		t.Fatalf("expected ErrStabilityFailure, got %v", err)
	}
}

func TestCompileBlock_ForceOverridesStabilityFailure(t *testing.T) {
	pool := workerpool.NewWorkerPool(workerpool.Config{WorkerCount: 2})
	header := testHeader()
	header.MaxRetries = 2
	masterKey := crypto.DeriveMasterKey("pw", header.GlobalSalt)
	impossible := stability.Gate{
		GCMin: 1000, GCMax: 2000,
		TmMin: -1e9, TmMax: 1e9,
		PrimerFwd: header.PrimerFwd, PrimerRev: header.PrimerRev,
		FuzzyTolerance: 3,
	}

	result, err := CompileBlock(pool, 1, []byte("forced through anyway"), header, masterKey, impossible, header.PrimerFwd, header.PrimerRev, true)
	if err != nil {
		t.Fatalf("expected force to suppress the stability failure, got %v", err)
	}
	if !result.Forced {
		t.Fatal("expected result.Forced to be true")
	}
	if result.Attempts != header.MaxRetries {
		t.Fatalf("got %d attempts, want %d", result.Attempts, header.MaxRetries)
	}
}
