package reference

import "fmt"

// Contig describes one named reference sequence.
type Contig struct {
	Name        string
	Length      int64 // number of bases
	Position    int   // ordinal position in the FASTA
	Description string
}

// Range returns the interval covering the whole contig.
func (c Contig) Range() Range {
	return Range{Contig: c.Name, Start: 0, End: c.Length}
}

// catalog is the ordered set of contigs of a reference, built once and never
// modified.
type catalog struct {
	contigs []Contig
	byName  map[string]int
}

// contigSource is the part of an index needed to enumerate its contigs.
type contigSource interface {
	ContigCount() int
	ContigName(i int) string
	ContigLength(name string) int64
}

// newCatalog reads every contig of src in index order. An empty name or a
// negative length means the index is corrupt and no catalog is returned.
func newCatalog(src contigSource) (*catalog, error) {
	n := src.ContigCount()
	c := &catalog{
		contigs: make([]Contig, 0, n),
		byName:  make(map[string]int, n),
	}
	for i := 0; i < n; i++ {
		name := src.ContigName(i)
		if name == "" {
			return nil, fmt.Errorf("%w: name of contig %d is empty", ErrCorruptIndex, i)
		}
		length := src.ContigLength(name)
		if length < 0 {
			return nil, fmt.Errorf("%w: contig %s has %d bases", ErrCorruptIndex, name, length)
		}
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("%w: contig %s listed twice", ErrCorruptIndex, name)
		}
		c.byName[name] = len(c.contigs)
		c.contigs = append(c.contigs, Contig{Name: name, Length: length, Position: i})
	}
	return c, nil
}

// catalogOf builds a catalog from already validated contigs.
func catalogOf(contigs []Contig) (*catalog, error) {
	c := &catalog{
		contigs: make([]Contig, len(contigs)),
		byName:  make(map[string]int, len(contigs)),
	}
	for i, ct := range contigs {
		if ct.Name == "" || ct.Length < 0 {
			return nil, fmt.Errorf("%w: malformed contig %+v", ErrInvalidArgument, ct)
		}
		if _, dup := c.byName[ct.Name]; dup {
			return nil, fmt.Errorf("%w: contig %s listed twice", ErrInvalidArgument, ct.Name)
		}
		c.byName[ct.Name] = i
		c.contigs[i] = ct
	}
	return c, nil
}

func (c *catalog) Len() int {
	return len(c.contigs)
}

func (c *catalog) At(i int) Contig {
	return c.contigs[i]
}

func (c *catalog) ByName(name string) (Contig, error) {
	i, ok := c.byName[name]
	if !ok {
		return Contig{}, fmt.Errorf("%w: unknown contig %s", ErrNotFound, name)
	}
	return c.contigs[i], nil
}

func (c *catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// All returns a copy of the contigs in order.
func (c *catalog) All() []Contig {
	out := make([]Contig, len(c.contigs))
	copy(out, c.contigs)
	return out
}

func (c *catalog) Names() []string {
	names := make([]string, len(c.contigs))
	for i, ct := range c.contigs {
		names[i] = ct.Name
	}
	return names
}
