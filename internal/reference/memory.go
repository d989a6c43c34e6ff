package reference

import (
	"fmt"
	"strings"
)

// Sequence holds the bases of one region of a contig.
type Sequence struct {
	Region Range
	Bases  string
}

// InMemory is a Reference backed by sequences held in memory. Each contig may
// carry at most one Sequence, which need not span the whole contig; queries
// outside the stored region fail with ErrInvalidArgument.
type InMemory struct {
	contigs *catalog
	seqs    map[string]Sequence
	closed  bool
}

// NewInMemory builds a reference from contig descriptions and the stored
// sequences. Bases are uppercased.
func NewInMemory(contigs []Contig, seqs []Sequence) (*InMemory, error) {
	cat, err := catalogOf(contigs)
	if err != nil {
		return nil, err
	}

	m := &InMemory{contigs: cat, seqs: make(map[string]Sequence, len(seqs))}
	for _, s := range seqs {
		reg := s.Region
		if reg.Contig == "" || reg.Start < 0 || reg.Start > reg.End {
			return nil, fmt.Errorf("%w: malformed region %s [%d, %d)", ErrInvalidArgument, reg.Contig, reg.Start, reg.End)
		}
		if reg.Len() != int64(len(s.Bases)) {
			return nil, fmt.Errorf("%w: region size %d not equal to %d bases", ErrInvalidArgument, reg.Len(), len(s.Bases))
		}
		if _, dup := m.seqs[reg.Contig]; dup {
			return nil, fmt.Errorf("%w: multiple sequences on contig %s", ErrInvalidArgument, reg.Contig)
		}
		s.Bases = strings.ToUpper(s.Bases)
		m.seqs[reg.Contig] = s
	}
	return m, nil
}

// FromRecords builds an InMemory reference holding complete contigs, in the
// order given.
func FromRecords(records []Record) (*InMemory, error) {
	contigs := make([]Contig, len(records))
	seqs := make([]Sequence, len(records))
	for i, rec := range records {
		contigs[i] = Contig{Name: rec.Name, Length: int64(len(rec.Bases)), Position: i}
		seqs[i] = Sequence{Region: contigs[i].Range(), Bases: rec.Bases}
	}
	return NewInMemory(contigs, seqs)
}

func (m *InMemory) Contigs() []Contig {
	return m.contigs.All()
}

func (m *InMemory) Contig(name string) (Contig, error) {
	return m.contigs.ByName(name)
}

func (m *InMemory) HasContig(name string) bool {
	return m.contigs.Has(name)
}

func (m *InMemory) ContigNames() []string {
	return m.contigs.Names()
}

func (m *InMemory) IsValidInterval(r Range) bool {
	return validRange(r, m.contigs)
}

func (m *InMemory) Bases(r Range) (string, error) {
	if m.closed {
		return "", fmt.Errorf("%w: can't read from closed InMemory reference", ErrFailedPrecondition)
	}
	if !validRange(r, m.contigs) {
		return "", fmt.Errorf("%w: invalid interval %s [%d, %d)", ErrInvalidArgument, r.Contig, r.Start, r.End)
	}
	s, ok := m.seqs[r.Contig]
	if !ok || !s.Region.Contains(r) {
		return "", fmt.Errorf("%w: cannot query %s [%d, %d), bases are only held for %s [%d, %d)",
			ErrInvalidArgument, r.Contig, r.Start, r.End, s.Region.Contig, s.Region.Start, s.Region.End)
	}
	off := r.Start - s.Region.Start
	return s.Bases[off : off+r.Len()], nil
}

// Iterate yields the stored bases of each contig in order, stopping at the
// first contig that has no stored sequence.
func (m *InMemory) Iterate() (Iterator, error) {
	if m.closed {
		return nil, fmt.Errorf("%w: can't iterate a closed InMemory reference", ErrFailedPrecondition)
	}
	return &memoryIterator{m: m}, nil
}

func (m *InMemory) Close() error {
	if m.closed {
		return fmt.Errorf("%w: InMemory reference already closed", ErrFailedPrecondition)
	}
	m.closed = true
	return nil
}

type memoryIterator struct {
	m   *InMemory
	pos int
}

func (it *memoryIterator) Next() (*Record, error) {
	if it.m.closed {
		return nil, fmt.Errorf("%w: reference closed during iteration", ErrFailedPrecondition)
	}
	if it.pos >= it.m.contigs.Len() {
		return nil, nil
	}
	name := it.m.contigs.At(it.pos).Name
	s, ok := it.m.seqs[name]
	if !ok {
		return nil, nil
	}
	it.pos++
	return &Record{Name: name, Bases: s.Bases}, nil
}
