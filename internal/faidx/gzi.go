package faidx

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/biogo/hts/bgzf"
)

// gziEntry maps the start of a BGZF block in the compressed file to the
// offset of its first byte in the uncompressed stream.
type gziEntry struct {
	compressed   int64
	uncompressed int64
}

// readGZI reads a bgzip .gzi file: a little-endian uint64 entry count
// followed by (compressed, uncompressed) uint64 pairs. The implicit first
// block at (0, 0) is included in the result.
func readGZI(path string) ([]gziEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gzi index: %w", err)
	}
	defer f.Close()

	entries, err := parseGZI(f)
	if err != nil {
		return nil, fmt.Errorf("parse gzi index %s: %w", path, err)
	}
	return entries, nil
}

func parseGZI(r io.Reader) ([]gziEntry, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read entry count: %w", err)
	}

	entries := make([]gziEntry, 0, n+1)
	entries = append(entries, gziEntry{})
	pair := make([]uint64, 2)
	for i := uint64(0); i < n; i++ {
		if err := binary.Read(r, binary.LittleEndian, pair); err != nil {
			return nil, fmt.Errorf("read entry %d: %w", i, err)
		}
		e := gziEntry{compressed: int64(pair[0]), uncompressed: int64(pair[1])}
		if last := entries[len(entries)-1]; e.compressed < last.compressed || e.uncompressed < last.uncompressed {
			return nil, fmt.Errorf("entry %d out of order", i)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// blockReaderAt exposes the uncompressed stream of a BGZF file as an
// io.ReaderAt by seeking to the block that holds the requested offset.
type blockReaderAt struct {
	mu     sync.Mutex
	r      *bgzf.Reader
	blocks []gziEntry
}

func newBlockReaderAt(f *os.File, blocks []gziEntry) (*blockReaderAt, error) {
	r, err := bgzf.NewReader(f, 1)
	if err != nil {
		return nil, err
	}
	return &blockReaderAt{r: r, blocks: blocks}, nil
}

// block returns the last block starting at or before off.
func (b *blockReaderAt) block(off int64) gziEntry {
	i := sort.Search(len(b.blocks), func(i int) bool {
		return b.blocks[i].uncompressed > off
	})
	return b.blocks[i-1]
}

// ReadAt implements io.ReaderAt. The bgzf reader is stateful, so calls are
// serialized.
func (b *blockReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("bgzf: negative offset %d", off)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	blk := b.block(off)
	if err := b.r.Seek(bgzf.Offset{File: blk.compressed}); err != nil {
		return 0, fmt.Errorf("bgzf: seek to block at %d: %w", blk.compressed, err)
	}
	if skip := off - blk.uncompressed; skip > 0 {
		if _, err := io.CopyN(io.Discard, b.r, skip); err != nil {
			return 0, err
		}
	}
	n, err := io.ReadFull(b.r, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}

func (b *blockReaderAt) Close() error {
	return b.r.Close()
}
