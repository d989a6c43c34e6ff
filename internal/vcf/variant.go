package vcf

import "strings"

// Variant is a single VCF data line.
type Variant struct {
	Chrom  string                 // Chromosome name (e.g., "12", "chr12")
	Pos    int64                  // 1-based genomic position
	ID     string                 // Variant identifier, "." if missing
	Ref    string                 // Reference allele
	Alt    string                 // Alternate alleles, comma separated
	Qual   float64                // Quality score, 0 if missing
	Filter string                 // Filter status (PASS or filter names)
	Info   map[string]interface{} // INFO key-value pairs; flags map to true

	// RawInfo is the INFO column as read, used to keep key order on output.
	RawInfo string
	// SampleColumns holds FORMAT and the sample columns, tab separated.
	SampleColumns string
}

// RefSpan returns the zero-based half-open interval covered by the
// reference allele.
func (v *Variant) RefSpan() (start, end int64) {
	start = v.Pos - 1
	return start, start + int64(len(v.Ref))
}

// SetInfo sets an INFO value. A true value is written as a flag.
func (v *Variant) SetInfo(key string, value interface{}) {
	if v.Info == nil {
		v.Info = make(map[string]interface{})
	}
	v.Info[key] = value
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (v *Variant) NormalizeChrom() string {
	if len(v.Chrom) > 3 && v.Chrom[:3] == "chr" {
		return v.Chrom[3:]
	}
	return v.Chrom
}

// ChromAliases returns the names under which the chromosome may appear in a
// reference: as written, then with the "chr" prefix toggled. The
// mitochondrial contig is also tried as chrM/MT.
func (v *Variant) ChromAliases() []string {
	names := []string{v.Chrom}
	if strings.HasPrefix(v.Chrom, "chr") {
		names = append(names, v.Chrom[3:])
	} else {
		names = append(names, "chr"+v.Chrom)
	}
	switch v.NormalizeChrom() {
	case "M":
		names = append(names, "MT")
	case "MT":
		names = append(names, "chrM")
	}
	return names
}
