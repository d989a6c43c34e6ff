// Package refcheck verifies VCF reference alleles against a reference genome.
package refcheck

import (
	"fmt"

	"github.com/inodb/vibe-ref/internal/reference"
	"github.com/inodb/vibe-ref/internal/vcf"
)

// Status is the outcome of checking one variant.
type Status string

const (
	StatusMatch         Status = "MATCH"
	StatusMismatch      Status = "MISMATCH"
	StatusUnknownContig Status = "UNKNOWN_CONTIG"
	StatusOutOfRange    Status = "OUT_OF_RANGE"
)

// InfoKey is the INFO field that carries the Status on output.
const InfoKey = "REFCHECK"

// InfoHeader declares InfoKey in an output header.
var InfoHeader = vcf.InfoField{
	ID:          InfoKey,
	Number:      "1",
	Type:        "String",
	Description: "Reference allele check: MATCH, MISMATCH, UNKNOWN_CONTIG or OUT_OF_RANGE",
}

// Result is the check of a single variant.
type Result struct {
	Variant *vcf.Variant
	Contig  string // reference contig the chromosome resolved to, if any
	Status  Status
	// Observed holds the reference bases for MATCH and MISMATCH.
	Observed string
}

// Checker compares reference alleles with one reference handle. It is not
// safe for concurrent use; give each goroutine its own Checker.
type Checker struct {
	ref reference.Reference
}

func NewChecker(ref reference.Reference) *Checker {
	return &Checker{ref: ref}
}

// resolve returns the reference contig for v's chromosome, trying the name
// as written and then with the chr prefix toggled.
func (c *Checker) resolve(v *vcf.Variant) (string, bool) {
	for _, name := range v.ChromAliases() {
		if c.ref.HasContig(name) {
			return name, true
		}
	}
	return "", false
}

// Check compares v.Ref with the reference. Errors are reserved for reader
// failures; unknown contigs and out-of-range alleles are statuses.
func (c *Checker) Check(v *vcf.Variant) (Result, error) {
	res := Result{Variant: v}

	contig, ok := c.resolve(v)
	if !ok {
		res.Status = StatusUnknownContig
		return res, nil
	}
	res.Contig = contig

	start, end := v.RefSpan()
	rng := reference.Range{Contig: contig, Start: start, End: end}
	if !c.ref.IsValidInterval(rng) {
		res.Status = StatusOutOfRange
		return res, nil
	}

	bases, err := c.ref.Bases(rng)
	if err != nil {
		return res, fmt.Errorf("check %s:%d: %w", v.Chrom, v.Pos, err)
	}
	res.Observed = bases
	if bases == v.Ref {
		res.Status = StatusMatch
	} else {
		res.Status = StatusMismatch
	}
	return res, nil
}
