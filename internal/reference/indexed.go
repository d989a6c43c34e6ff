package reference

import (
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-ref/internal/faidx"
)

// IndexProvider gives random access to the bases of an indexed FASTA.
// *faidx.Index is the production implementation.
type IndexProvider interface {
	ContigCount() int
	ContigName(i int) string
	// ContigLength returns -1 for an unknown contig.
	ContigLength(name string) int64
	// Fetch returns bases [start, end] (inclusive) of the named contig. The
	// slice is valid until release is called.
	Fetch(name string, start, end int64) (bases []byte, release func(), err error)
	Close() error
}

// DefaultCacheSize is the read-ahead window used when none is configured.
const DefaultCacheSize = 64 * 1024

// IndexedReader serves bases from an indexed FASTA with a single-window
// read-ahead cache. It is not safe for concurrent use.
type IndexedReader struct {
	provider IndexProvider // nil once closed
	contigs  *catalog
	cache    rangeCache
	stats    CacheStats
	logger   *zap.Logger
}

// Open loads the FASTA at fastaPath with its .fai index. An empty faiPath
// means fastaPath + ".fai"; BGZF-compressed files also need fastaPath +
// ".gzi". cacheSizeBases is the read-ahead window; 0 disables caching.
func Open(fastaPath, faiPath string, cacheSizeBases int) (*IndexedReader, error) {
	if cacheSizeBases < 0 {
		return nil, fmt.Errorf("%w: cache size %d is negative", ErrInvalidArgument, cacheSizeBases)
	}
	if faiPath == "" {
		faiPath = fastaPath + ".fai"
	}

	idx, err := faidx.Load(fastaPath, faiPath, fastaPath+".gzi")
	if err != nil {
		return nil, fmt.Errorf("%w: could not load fasta and/or fai for fasta %s: %v", ErrNotFound, fastaPath, err)
	}

	r, err := NewIndexedReader(idx, cacheSizeBases)
	if err != nil {
		idx.Close()
		return nil, err
	}
	return r, nil
}

// NewIndexedReader builds a reader over an already loaded index. The reader
// takes ownership of provider and closes it on Close.
func NewIndexedReader(provider IndexProvider, cacheSizeBases int) (*IndexedReader, error) {
	if cacheSizeBases < 0 {
		return nil, fmt.Errorf("%w: cache size %d is negative", ErrInvalidArgument, cacheSizeBases)
	}

	contigs, err := newCatalog(provider)
	if err != nil {
		return nil, err
	}

	r := &IndexedReader{
		provider: provider,
		contigs:  contigs,
		cache:    rangeCache{size: int64(cacheSizeBases)},
		logger:   zap.NewNop(),
	}
	runtime.SetFinalizer(r, finalizeIndexedReader)
	return r, nil
}

// finalizeIndexedReader closes a reader dropped while still open. A failure
// here means the index is inconsistent with earlier successful reads.
func finalizeIndexedReader(r *IndexedReader) {
	if r.provider == nil {
		return
	}
	if err := r.Close(); err != nil {
		panic(fmt.Sprintf("reference: closing abandoned reader: %v", err))
	}
}

// SetLogger sets the logger for cache and fetch diagnostics.
func (r *IndexedReader) SetLogger(l *zap.Logger) {
	r.logger = l
}

// CacheSize returns the read-ahead window in bases.
func (r *IndexedReader) CacheSize() int64 {
	return r.cache.size
}

// Stats returns counters of how requests have been served so far.
func (r *IndexedReader) Stats() CacheStats {
	return r.stats
}

func (r *IndexedReader) Contigs() []Contig {
	return r.contigs.All()
}

func (r *IndexedReader) Contig(name string) (Contig, error) {
	return r.contigs.ByName(name)
}

func (r *IndexedReader) HasContig(name string) bool {
	return r.contigs.Has(name)
}

func (r *IndexedReader) ContigNames() []string {
	return r.contigs.Names()
}

func (r *IndexedReader) IsValidInterval(rng Range) bool {
	return validRange(rng, r.contigs)
}

// Bases returns the uppercase bases of rng.
func (r *IndexedReader) Bases(rng Range) (string, error) {
	if r.provider == nil {
		return "", fmt.Errorf("%w: can't read from closed IndexedReader", ErrFailedPrecondition)
	}
	if !validRange(rng, r.contigs) {
		return "", fmt.Errorf("%w: invalid interval %s [%d, %d)", ErrInvalidArgument, rng.Contig, rng.Start, rng.End)
	}
	// Empty regions are answered here; the index cannot fetch zero bases.
	if rng.Empty() {
		return "", nil
	}

	useCache := r.cache.shouldUse(rng)
	toFetch := rng
	if useCache {
		if bases, ok := r.cache.lookup(rng); ok {
			r.stats.Hits++
			return bases, nil
		}
		r.stats.Misses++
		ct, _ := r.contigs.ByName(rng.Contig)
		toFetch = r.cache.planRefill(rng, ct.Length)
		r.logger.Debug("refilling cache",
			zap.String("contig", toFetch.Contig),
			zap.Int64("start", toFetch.Start),
			zap.Int64("end", toFetch.End))
	} else {
		r.stats.Bypasses++
	}

	bases, err := r.fetch(toFetch)
	if err != nil {
		return "", fmt.Errorf("couldn't fetch bases for %s [%d, %d): %w", rng.Contig, rng.Start, rng.End, err)
	}

	if !useCache {
		return bases, nil
	}
	r.cache.install(toFetch, bases)
	return bases[:rng.Len()], nil
}

// fetch reads rng from the index and returns it uppercased. The provider's
// buffer is released before returning on every path.
func (r *IndexedReader) fetch(rng Range) (string, error) {
	r.stats.Fetches++
	// The index takes an inclusive end.
	raw, release, err := r.provider.Fetch(rng.Contig, rng.Start, rng.End-1)
	if err != nil {
		r.logger.Debug("fetch failed", zap.Stringer("range", rng), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if release != nil {
		defer release()
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: index returned no bases", ErrInvalidArgument)
	}
	if n := int64(len(raw)); n != rng.Len() {
		return "", fmt.Errorf("%w: index returned %d bases for %s, want %d", ErrInvalidArgument, n, rng, rng.Len())
	}
	return upper(raw), nil
}

// upper returns an owned uppercase copy of b.
func upper(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// Iterate returns an iterator over every contig's full sequence. Each call
// starts a new iteration from the first contig.
func (r *IndexedReader) Iterate() (Iterator, error) {
	if r.provider == nil {
		return nil, fmt.Errorf("%w: can't iterate a closed IndexedReader", ErrFailedPrecondition)
	}
	return &contigIterator{ref: r, contigs: r.contigs, alive: r.isOpen}, nil
}

func (r *IndexedReader) isOpen() bool {
	return r.provider != nil
}

// Close releases the index. Further reads fail with ErrFailedPrecondition.
func (r *IndexedReader) Close() error {
	if r.provider == nil {
		return fmt.Errorf("%w: IndexedReader already closed", ErrFailedPrecondition)
	}
	runtime.SetFinalizer(r, nil)
	err := r.provider.Close()
	r.provider = nil
	r.cache.reset()
	return err
}
