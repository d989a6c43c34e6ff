// Package vcf reads and writes VCF files.
package vcf

// VariantParser is the interface for sources of variant records.
type VariantParser interface {
	// Next reads the next variant.
	// Returns nil, nil when there are no more variants.
	Next() (*Variant, error)

	// Close closes the parser and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}

// VariantWriter is the interface for sinks of variant records.
type VariantWriter interface {
	Write(v *Variant) error
	Close() error
}
