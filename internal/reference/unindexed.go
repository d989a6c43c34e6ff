package reference

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// UnindexedReader streams records from a FASTA file without an index. It
// only supports iteration, and only one pass over the file.
type UnindexedReader struct {
	file    *os.File
	gz      *gzip.Reader
	scanner *bufio.Scanner

	// nextName is the header already consumed for the following record.
	nextName string
}

// OpenUnindexed opens a plain or gzip-compressed FASTA for streaming.
func OpenUnindexed(path string) (*UnindexedReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open fasta file: %v", ErrNotFound, err)
	}

	var gz *gzip.Reader
	br := bufio.NewReader(f)
	var r io.Reader = br

	// Check for gzip magic number (0x1f, 0x8b); BGZF is valid gzip.
	if sig, err := br.Peek(2); err == nil && sig[0] == 0x1f && sig[1] == 0x8b {
		gz, err = gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: open gzip reader: %v", ErrDataLoss, err)
		}
		r = gz
	}

	u := NewUnindexedReader(r)
	u.file = f
	u.gz = gz
	return u, nil
}

// NewUnindexedReader streams FASTA records from r. Closing it does not close r.
func NewUnindexedReader(r io.Reader) *UnindexedReader {
	scanner := bufio.NewScanner(r)
	// Unwrapped FASTA puts a whole contig on one line.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1<<30)
	return &UnindexedReader{scanner: scanner}
}

// Iterate returns an iterator that continues from the current position in
// the stream.
func (u *UnindexedReader) Iterate() (Iterator, error) {
	if u.scanner == nil {
		return nil, fmt.Errorf("%w: can't iterate a closed UnindexedReader", ErrFailedPrecondition)
	}
	return &streamIterator{u: u}, nil
}

// Close closes the underlying file.
func (u *UnindexedReader) Close() error {
	if u.scanner == nil {
		return fmt.Errorf("%w: UnindexedReader already closed", ErrFailedPrecondition)
	}
	u.scanner = nil
	if u.gz != nil {
		u.gz.Close()
	}
	if u.file != nil {
		return u.file.Close()
	}
	return nil
}

type streamIterator struct {
	u *UnindexedReader
}

// headerName returns the record name of a header line: the text after '>'
// up to the first space.
func headerName(line string) string {
	name := strings.TrimPrefix(line, ">")
	if idx := strings.IndexAny(name, " \t"); idx != -1 {
		name = name[:idx]
	}
	return name
}

func (it *streamIterator) Next() (*Record, error) {
	if it.u.scanner == nil {
		return nil, fmt.Errorf("%w: reader closed during iteration", ErrFailedPrecondition)
	}

	var name string
	var seq strings.Builder
	if it.u.nextName != "" {
		name, it.u.nextName = it.u.nextName, ""
	}

	for it.u.scanner.Scan() {
		line := it.u.scanner.Text()
		if line == "" {
			continue
		}

		if line[0] == '>' {
			if name == "" {
				name = headerName(line)
				continue
			}
			it.u.nextName = headerName(line)
			return &Record{Name: name, Bases: seq.String()}, nil
		}

		if name == "" {
			return nil, fmt.Errorf("%w: sequence line before any FASTA header", ErrDataLoss)
		}
		seq.WriteString(strings.ToUpper(strings.TrimRight(line, " \t\r")))
	}

	if err := it.u.scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan FASTA: %v", ErrDataLoss, err)
	}
	if name == "" {
		return nil, nil
	}
	return &Record{Name: name, Bases: seq.String()}, nil
}
