// Package reference provides random access to reference genome sequences.
//
// The main implementation, IndexedReader, serves bases from a FASTA file
// through its .fai index and keeps the most recently fetched window in a
// single-slot read-ahead cache, so scans that move forward in small steps
// only touch the file once per window.
//
// Readers are not safe for concurrent use. Use one reader per goroutine, or a
// pool of readers, when fetching in parallel.
package reference

// Record is one contig produced by iteration.
type Record struct {
	Name  string
	Bases string
}

// Iterator walks the contigs of a reference in order.
type Iterator interface {
	// Next returns the next record, or nil, nil when there are no more.
	Next() (*Record, error)
}

// Iterable is a source of contig records that holds resources until closed.
type Iterable interface {
	Iterate() (Iterator, error)
	Close() error
}

// Reference is a random-access reference genome.
type Reference interface {
	Iterable

	// Contigs returns the contigs in file order.
	Contigs() []Contig
	// Contig returns the named contig or an ErrNotFound error.
	Contig(name string) (Contig, error)
	HasContig(name string) bool
	ContigNames() []string
	// IsValidInterval reports whether r lies within a known contig.
	IsValidInterval(r Range) bool
	// Bases returns the uppercase bases of r.
	Bases(r Range) (string, error)
}
