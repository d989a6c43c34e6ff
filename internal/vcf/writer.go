package vcf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/hts/bgzf"

	"github.com/inodb/vibe-ref/internal/reference"
)

// ErrUnsupportedFormat is returned by Create for BCF output.
var ErrUnsupportedFormat = errors.New("unsupported variant file format")

// WriterOptions controls how variants are rendered.
type WriterOptions struct {
	// ExcludedInfoFields are dropped from every record's INFO column.
	ExcludedInfoFields []string
	// RoundQual rounds QUAL to one digit past the decimal point.
	RoundQual bool
}

// Writer writes a header and variant records in VCF text format.
type Writer struct {
	w       *bufio.Writer
	closers []io.Closer // closed in order after the final flush
	opts    WriterOptions
	exclude map[string]bool
	closed  bool
}

// Create opens path for writing and writes header. Paths ending in .gz are
// BGZF compressed; .bcf and .bcf.gz are rejected.
func Create(path string, header *Header, opts WriterOptions) (*Writer, error) {
	if strings.HasSuffix(path, ".bcf") || strings.HasSuffix(path, ".bcf.gz") {
		return nil, fmt.Errorf("%w: BCF output %s", ErrUnsupportedFormat, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create vcf file: %w", err)
	}

	var out io.Writer = f
	closers := []io.Closer{f}
	if strings.HasSuffix(path, ".gz") {
		bw := bgzf.NewWriter(f, 1)
		out = bw
		closers = []io.Closer{bw, f}
	}

	w := newWriter(out, opts)
	w.closers = closers
	if err := w.writeHeader(header); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// NewWriter writes header to w and returns a Writer for its records.
// Closing the Writer flushes but does not close w.
func NewWriter(w io.Writer, header *Header, opts WriterOptions) (*Writer, error) {
	vw := newWriter(w, opts)
	if err := vw.writeHeader(header); err != nil {
		return nil, err
	}
	return vw, nil
}

func newWriter(w io.Writer, opts WriterOptions) *Writer {
	exclude := make(map[string]bool, len(opts.ExcludedInfoFields))
	for _, f := range opts.ExcludedInfoFields {
		exclude[f] = true
	}
	return &Writer{w: bufio.NewWriter(w), opts: opts, exclude: exclude}
}

func (vw *Writer) writeHeader(h *Header) error {
	if h == nil {
		h = &Header{}
	}
	for _, line := range h.Lines() {
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write vcf header: %w", err)
		}
	}
	return nil
}

// Write appends one record.
func (vw *Writer) Write(v *Variant) error {
	if vw.closed {
		return fmt.Errorf("%w: cannot write to closed VCF stream", reference.ErrFailedPrecondition)
	}

	var lb strings.Builder
	lb.Grow(128)
	lb.WriteString(v.Chrom)
	lb.WriteByte('\t')
	lb.WriteString(strconv.FormatInt(v.Pos, 10))
	lb.WriteByte('\t')
	lb.WriteString(orMissing(v.ID))
	lb.WriteByte('\t')
	lb.WriteString(v.Ref)
	lb.WriteByte('\t')
	lb.WriteString(orMissing(v.Alt))
	lb.WriteByte('\t')
	lb.WriteString(vw.formatQual(v.Qual))
	lb.WriteByte('\t')
	lb.WriteString(orMissing(v.Filter))
	lb.WriteByte('\t')
	lb.WriteString(vw.formatInfo(v))
	if v.SampleColumns != "" {
		lb.WriteByte('\t')
		lb.WriteString(v.SampleColumns)
	}
	lb.WriteByte('\n')

	if _, err := vw.w.WriteString(lb.String()); err != nil {
		return fmt.Errorf("write vcf record: %w", err)
	}
	return nil
}

func orMissing(s string) string {
	if s == "" {
		return "."
	}
	return s
}

func (vw *Writer) formatQual(q float64) string {
	if q == 0 {
		return "."
	}
	if vw.opts.RoundQual {
		q = math.Floor(q*10+0.5) / 10
	}
	return strconv.FormatFloat(q, 'g', -1, 64)
}

// formatInfo renders INFO in the order the keys appeared in RawInfo, with
// keys added since parsing appended in sorted order. The Info map decides
// which keys exist and their values.
func (vw *Writer) formatInfo(v *Variant) string {
	seen := make(map[string]bool, len(v.Info))
	var parts []string
	add := func(key string) {
		if seen[key] || vw.exclude[key] {
			return
		}
		seen[key] = true
		val, ok := v.Info[key]
		if !ok {
			return
		}
		switch x := val.(type) {
		case bool:
			if x {
				parts = append(parts, key)
			}
		case string:
			parts = append(parts, key+"="+x)
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", key, x))
		}
	}

	if v.RawInfo != "" && v.RawInfo != "." {
		for _, field := range strings.Split(v.RawInfo, ";") {
			key, _, _ := strings.Cut(field, "=")
			add(key)
		}
	}
	added := make([]string, 0, len(v.Info))
	for key := range v.Info {
		if !seen[key] {
			added = append(added, key)
		}
	}
	sort.Strings(added)
	for _, key := range added {
		add(key)
	}

	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, ";")
}

// Close flushes buffered records and closes any file Create opened.
func (vw *Writer) Close() error {
	if vw.closed {
		return fmt.Errorf("%w: cannot close an already closed VCF writer", reference.ErrFailedPrecondition)
	}
	vw.closed = true

	err := vw.w.Flush()
	for _, c := range vw.closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
