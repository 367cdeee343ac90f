package archive

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestWriteRecord(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecord(&buf, 3, 1, "ACGT"); err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}
	want := ">3:1\nACGT\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestBatchReader_SplitsByItemCount(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 5; i++ {
		buf.WriteString(">rec\nACGTACGT\n")
	}

	r := NewBatchReader(&buf, 2, 1<<20)

	total := 0
	for {
		batch, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if len(batch) > 2 {
			t.Fatalf("batch exceeded max items: got %d", len(batch))
		}
		total += len(batch)
	}
	if total != 5 {
		t.Fatalf("got %d total records, want 5", total)
	}
}

func TestBatchReader_HandlesMultiLineSequence(t *testing.T) {
	input := ">rec1\nACGT\nACGT\n>rec2\nTTTT\n"
	r := NewBatchReader(strings.NewReader(input), 100, 1<<20)

	batch, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("got %d records, want 2", len(batch))
	}
	if batch[0].Sequence != "ACGTACGT" {
		t.Fatalf("multi-line sequence not joined: got %q", batch[0].Sequence)
	}
	if batch[1].Sequence != "TTTT" {
		t.Fatalf("second record mismatch: got %q", batch[1].Sequence)
	}
}

func TestBatchReader_IgnoresHeaderWithNoSequence(t *testing.T) {
	input := ">empty\n>rec\nACGT\n"
	r := NewBatchReader(strings.NewReader(input), 100, 1<<20)

	batch, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("got %d records, want 1 (empty header should be dropped)", len(batch))
	}
	if batch[0].Header != ">rec" {
		t.Fatalf("wrong record survived: %q", batch[0].Header)
	}
}

func TestBatchReader_EmptyInput(t *testing.T) {
	r := NewBatchReader(strings.NewReader(""), 100, 1<<20)
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF on empty input, got %v", err)
	}
}

func TestBatchReader_SplitsByByteSize(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 10; i++ {
		buf.WriteString(">rec\n")
		buf.WriteString(strings.Repeat("A", 100))
		buf.WriteString("\n")
	}

	r := NewBatchReader(&buf, 1000, 200)

	batches := 0
	total := 0
	for {
		batch, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		batches++
		total += len(batch)
	}
	if total != 10 {
		t.Fatalf("got %d total records, want 10", total)
	}
	if batches < 2 {
		t.Fatalf("expected byte-size limit to force multiple batches, got %d", batches)
	}
}
