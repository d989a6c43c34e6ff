package reference

import "fmt"

// contigIterator yields each contig of a catalog in order by reading its
// full range. It keeps its own position, so iterations are independent of
// each other and of the reader's cache.
type contigIterator struct {
	ref interface {
		Bases(Range) (string, error)
	}
	contigs *catalog
	alive   func() bool
	pos     int
}

func (it *contigIterator) Next() (*Record, error) {
	if !it.alive() {
		return nil, fmt.Errorf("%w: reader closed during iteration", ErrFailedPrecondition)
	}
	if it.pos >= it.contigs.Len() {
		return nil, nil
	}

	ct := it.contigs.At(it.pos)
	bases, err := it.ref.Bases(ct.Range())
	if err != nil {
		return nil, fmt.Errorf("read contig %s: %w", ct.Name, err)
	}
	it.pos++
	return &Record{Name: ct.Name, Bases: bases}, nil
}
