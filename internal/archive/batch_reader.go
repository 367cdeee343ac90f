package archive

import (
	"bufio"
	"io"
	"strings"

	"github.com/strandgate/helix/internal/oligo"
)

// BatchReader is a memory-bounded FASTA record reader: it emits batches
// capped by either item count or accumulated byte size, whichever comes
// first, so the search and simulate commands can process an
// arbitrarily large soup file without loading it into memory at once
// (spec §5). It correctly carries a record spanning a batch boundary and
// tolerates multi-line sequences and blank lines, matching a standard
// FASTA reader's leniency.
type BatchReader struct {
	scanner  *bufio.Scanner
	maxItems int
	maxBytes int

	pendingHeader string
	pendingSeq    strings.Builder
	haveHeader    bool
	exhausted     bool
}

// NewBatchReader wraps r, flushing a batch once it reaches maxItems
// records or maxBytes of estimated record size.
func NewBatchReader(r io.Reader, maxItems, maxBytes int) *BatchReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &BatchReader{scanner: scanner, maxItems: maxItems, maxBytes: maxBytes}
}

// Next returns the next batch of records, or (nil, io.EOF) once the
// underlying reader and any pending partial record are exhausted.
func (r *BatchReader) Next() ([]oligo.FastaRecord, error) {
	if r.exhausted {
		return nil, io.EOF
	}

	var batch []oligo.FastaRecord
	batchBytes := 0

	flushPending := func() {
		if r.haveHeader {
			seq := r.pendingSeq.String()
			if seq != "" {
				batch = append(batch, oligo.FastaRecord{Header: r.pendingHeader, Sequence: seq})
				batchBytes += len(r.pendingHeader) + len(seq) + 48
			}
		}
		r.haveHeader = false
		r.pendingSeq.Reset()
	}

	for {
		if len(batch) > 0 && (len(batch) >= r.maxItems || batchBytes >= r.maxBytes) {
			return batch, nil
		}

		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return nil, err
			}
			r.exhausted = true
			flushPending()
			if len(batch) == 0 {
				return nil, io.EOF
			}
			return batch, nil
		}

		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ">") {
			flushPending()
			r.pendingHeader = line
			r.haveHeader = true
		} else {
			r.pendingSeq.WriteString(line)
		}
	}
}
