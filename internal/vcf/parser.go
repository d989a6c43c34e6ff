package vcf

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// gzipMagic starts every gzip member, BGZF blocks included.
var gzipMagic = []byte{0x1f, 0x8b}

// Parser streams records from a VCF text file.
type Parser struct {
	br      *bufio.Reader
	closers []io.Closer // released in order by Close
	line    int
	meta    []string // ## lines and the #CHROM line, as read
	samples []string
}

// NewParser opens a plain or gzip/BGZF-compressed VCF. "-" reads stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}
	p := &Parser{closers: []io.Closer{f}}

	br := bufio.NewReader(f)
	if sig, err := br.Peek(len(gzipMagic)); err == nil && string(sig) == string(gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip stream %s: %w", path, err)
		}
		p.closers = append([]io.Closer{zr}, p.closers...)
		br = bufio.NewReader(zr)
	}
	p.br = br

	if err := p.readMeta(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// NewParserFromReader reads an uncompressed VCF from r. Close does not
// close r.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{br: bufio.NewReader(r)}
	if err := p.readMeta(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.line, Message: fmt.Sprintf(format, args...)}
}

// nextLine returns the next line without its terminator. A last line
// without a newline is still returned.
func (p *Parser) nextLine() (string, error) {
	s, err := p.br.ReadString('\n')
	switch {
	case err == io.EOF && s == "":
		return "", io.EOF
	case err != nil && err != io.EOF:
		return "", err
	}
	p.line++
	return strings.TrimRight(s, "\r\n"), nil
}

// readMeta consumes the header through the #CHROM line.
func (p *Parser) readMeta() error {
	for {
		s, err := p.nextLine()
		if err == io.EOF {
			return p.errorf("no #CHROM header line found")
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		if strings.HasPrefix(s, "##") {
			p.meta = append(p.meta, s)
			continue
		}
		if !strings.HasPrefix(s, "#CHROM") {
			return p.errorf("expected #CHROM header line")
		}
		p.meta = append(p.meta, s)
		if cols := strings.Split(s, "\t"); len(cols) > 9 {
			p.samples = cols[9:]
		}
		return nil
	}
}

// Next returns the next record, skipping blank lines, or nil at the end of
// the input.
func (p *Parser) Next() (*Variant, error) {
	for {
		s, err := p.nextLine()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		if s == "" {
			continue
		}
		return p.record(s)
	}
}

// record splits a data line into the eight fixed columns plus the sample
// columns, which are kept as one unparsed string.
func (p *Parser) record(s string) (*Variant, error) {
	cols := strings.SplitN(s, "\t", 9)
	if len(cols) < 8 {
		return nil, p.errorf("expected at least 8 columns, found %d", len(cols))
	}

	pos, err := strconv.ParseInt(cols[1], 10, 64)
	if err != nil || pos < 1 {
		return nil, p.errorf("invalid position: %s", cols[1])
	}

	var qual float64
	if cols[5] != "." {
		if qual, err = strconv.ParseFloat(cols[5], 64); err != nil {
			return nil, p.errorf("invalid quality: %s", cols[5])
		}
	}

	v := &Variant{
		Chrom:   cols[0],
		Pos:     pos,
		ID:      cols[2],
		Ref:     strings.ToUpper(cols[3]),
		Alt:     cols[4],
		Qual:    qual,
		Filter:  cols[6],
		Info:    infoMap(cols[7]),
		RawInfo: cols[7],
	}
	if len(cols) == 9 {
		v.SampleColumns = cols[8]
	}
	return v, nil
}

// infoMap maps INFO keys to their string value, or to true for flags.
func infoMap(raw string) map[string]interface{} {
	m := make(map[string]interface{})
	if raw == "" || raw == "." {
		return m
	}
	for _, field := range strings.Split(raw, ";") {
		key, val, hasVal := strings.Cut(field, "=")
		if hasVal {
			m[key] = val
		} else {
			m[key] = true
		}
	}
	return m
}

// SplitMultiAllelic returns one variant per ALT allele. Each copy gets its
// own INFO map.
func SplitMultiAllelic(v *Variant) []*Variant {
	if !strings.Contains(v.Alt, ",") {
		return []*Variant{v}
	}

	var out []*Variant
	for _, alt := range strings.Split(v.Alt, ",") {
		cp := *v
		cp.Alt = alt
		cp.Info = maps.Clone(v.Info)
		out = append(out, &cp)
	}
	return out
}

// Header returns the header lines as read, #CHROM line included.
func (p *Parser) Header() []string {
	return p.meta
}

// ParsedHeader parses Header into a new Header value on every call, so the
// caller may modify the result.
func (p *Parser) ParsedHeader() (*Header, error) {
	return ParseHeader(p.meta)
}

// SampleNames returns the sample columns named on the #CHROM line, or nil.
func (p *Parser) SampleNames() []string {
	return p.samples
}

// LineNumber is the number of lines read so far.
func (p *Parser) LineNumber() int {
	return p.line
}

// Close releases the file and decompressor opened by NewParser.
func (p *Parser) Close() error {
	var err error
	for _, c := range p.closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	p.closers = nil
	return err
}

// ParseError reports malformed input with the line it was found on.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
