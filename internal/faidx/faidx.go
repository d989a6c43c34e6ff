// Package faidx provides random access to FASTA files through a samtools
// .fai index. BGZF-compressed FASTA files are supported when a .gzi block
// map is present next to the file.
package faidx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/biogo/hts/fai"
)

// ErrNoSequence is returned by Fetch for a contig the index does not know.
var ErrNoSequence = errors.New("faidx: no sequence")

// Index is an open FASTA file together with its .fai index.
type Index struct {
	path  string
	file  *os.File
	bgzf  *blockReaderAt // nil for uncompressed FASTA
	idx   fai.Index
	names []string // contig names in file order
	seqs  *fai.File
}

// Load opens the FASTA at fastaPath with the index at faiPath. gziPath is
// only consulted when the FASTA is BGZF compressed.
func Load(fastaPath, faiPath, gziPath string) (*Index, error) {
	idx, err := readFAI(faiPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fastaPath)
	if err != nil {
		return nil, fmt.Errorf("open fasta file: %w", err)
	}

	compressed, err := isGzip(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read fasta file: %w", err)
	}

	x := &Index{
		path:  fastaPath,
		file:  f,
		idx:   idx,
		names: orderedNames(idx),
	}

	var ra io.ReaderAt = f
	if compressed {
		gzi, err := readGZI(gziPath)
		if err != nil {
			f.Close()
			return nil, err
		}
		x.bgzf, err = newBlockReaderAt(f, gzi)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open bgzf reader: %w", err)
		}
		ra = x.bgzf
	}
	x.seqs = fai.NewFile(ra, idx)

	return x, nil
}

func readFAI(path string) (fai.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fai index: %w", err)
	}
	defer f.Close()

	idx, err := fai.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("parse fai index %s: %w", path, err)
	}
	return idx, nil
}

// isGzip reports whether f starts with the gzip magic number and rewinds it.
func isGzip(f *os.File) (bool, error) {
	var sig [2]byte
	n, err := f.Read(sig[:])
	if err != nil && err != io.EOF {
		return false, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	return n == 2 && sig[0] == 0x1f && sig[1] == 0x8b, nil
}

// orderedNames returns the index names sorted by their offset in the file,
// which is the order the records appear in the FASTA.
func orderedNames(idx fai.Index) []string {
	names := make([]string, 0, len(idx))
	for name := range idx {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return idx[names[i]].Start < idx[names[j]].Start
	})
	return names
}

// Path returns the FASTA path this index was loaded for.
func (x *Index) Path() string {
	return x.path
}

// Compressed reports whether the FASTA is BGZF compressed.
func (x *Index) Compressed() bool {
	return x.bgzf != nil
}

// ContigCount returns the number of sequences in the index.
func (x *Index) ContigCount() int {
	return len(x.names)
}

// ContigName returns the name of the i-th sequence in file order, or "" when
// i is out of range.
func (x *Index) ContigName(i int) string {
	if i < 0 || i >= len(x.names) {
		return ""
	}
	return x.names[i]
}

// ContigLength returns the number of bases of the named sequence, or -1 if
// the index has no such sequence.
func (x *Index) ContigLength(name string) int64 {
	rec, ok := x.idx[name]
	if !ok {
		return -1
	}
	return int64(rec.Length)
}

// Fetch reads bases [start, end] of the named sequence. Both bounds are
// zero-based and inclusive. Like htslib, a negative start is treated as 0 and
// an end past the sequence is truncated to the last base, so the result may
// be shorter than requested or empty.
//
// The returned slice is only valid until release is called; callers copy
// what they need and release the buffer on every path.
func (x *Index) Fetch(name string, start, end int64) ([]byte, func(), error) {
	if x.seqs == nil {
		return nil, nil, errors.New("faidx: fetch from closed index")
	}
	rec, ok := x.idx[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrNoSequence, name)
	}

	if start < 0 {
		start = 0
	}
	if last := int64(rec.Length) - 1; end > last {
		end = last
	}
	if start > end {
		return nil, func() {}, nil
	}

	seq, err := x.seqs.SeqRange(name, int(start), int(end+1))
	if err != nil {
		return nil, nil, fmt.Errorf("seek %s:%d-%d: %w", name, start, end, err)
	}

	buf := getBuffer(int(end - start + 1))
	n, err := io.ReadFull(seq, *buf)
	if err != nil {
		putBuffer(buf)
		return nil, nil, fmt.Errorf("read %s:%d-%d: %w", name, start, end, err)
	}

	return (*buf)[:n], func() { putBuffer(buf) }, nil
}

// Close releases the FASTA file and any decompression state.
func (x *Index) Close() error {
	if x.file == nil {
		return errors.New("faidx: index already closed")
	}
	var err error
	if x.bgzf != nil {
		err = x.bgzf.Close()
	}
	if cerr := x.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	x.file = nil
	x.bgzf = nil
	x.seqs = nil
	return err
}

// Fetch buffers are recycled between calls; a reference scan issues many
// small reads of the same size.
var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 64*1024)
		return &b
	},
}

func getBuffer(n int) *[]byte {
	buf := bufferPool.Get().(*[]byte)
	if cap(*buf) < n {
		*buf = make([]byte, n)
	}
	*buf = (*buf)[:n]
	return buf
}

func putBuffer(buf *[]byte) {
	bufferPool.Put(buf)
}
