package reference

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is a half-open interval [Start, End) of zero-based positions on a
// contig. Start == End denotes an empty region.
type Range struct {
	Contig string
	Start  int64
	End    int64
}

// Len returns the number of bases in r.
func (r Range) Len() int64 {
	return r.End - r.Start
}

// Empty reports whether r covers no bases.
func (r Range) Empty() bool {
	return r.Start == r.End
}

// Contains reports whether other lies entirely inside r on the same contig.
func (r Range) Contains(other Range) bool {
	return r.Contig == other.Contig && r.Start <= other.Start && other.End <= r.End
}

// String formats r as a samtools-style 1-based inclusive region.
func (r Range) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Contig, r.Start+1, r.End)
}

// validRange reports whether r names a known contig and lies within it.
func validRange(r Range, c *catalog) bool {
	ct, err := c.ByName(r.Contig)
	if err != nil {
		return false
	}
	return 0 <= r.Start && r.Start <= r.End && r.End <= ct.Length
}

// ResolveRegion parses a samtools-style region against ref. "chr1" selects
// the whole contig and "chr1:11-20" selects bases 11 through 20 (1-based,
// inclusive), which is Range{chr1, 10, 20}. "chr1:11" selects a single base.
// Thousands separators are accepted. The result is not validated against the
// contig length; Bases does that.
func ResolveRegion(ref Reference, region string) (Range, error) {
	if ct, err := ref.Contig(region); err == nil {
		return ct.Range(), nil
	}

	i := strings.LastIndexByte(region, ':')
	if i <= 0 {
		return Range{}, fmt.Errorf("%w: unknown contig %s", ErrNotFound, region)
	}
	name, span := region[:i], strings.ReplaceAll(region[i+1:], ",", "")
	if !ref.HasContig(name) {
		return Range{}, fmt.Errorf("%w: unknown contig %s", ErrNotFound, name)
	}

	startStr, endStr, hasEnd := strings.Cut(span, "-")
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return Range{}, fmt.Errorf("%w: region %s: bad start %q", ErrInvalidArgument, region, startStr)
	}
	end := start
	if hasEnd {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return Range{}, fmt.Errorf("%w: region %s: bad end %q", ErrInvalidArgument, region, endStr)
		}
	}
	if start < 1 {
		return Range{}, fmt.Errorf("%w: region %s: start must be >= 1", ErrInvalidArgument, region)
	}
	return Range{Contig: name, Start: start - 1, End: end}, nil
}
