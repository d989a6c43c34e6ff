package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

const fileFormatLine = "##fileformat=VCFv4.2"

// KV is one key="value" pair of a structured header line.
type KV struct {
	Key   string
	Value string
}

// FilterInfo describes a ##FILTER line.
type FilterInfo struct {
	ID          string
	Description string
}

// InfoField describes a ##INFO line. Source and Version are optional.
type InfoField struct {
	ID          string
	Number      string
	Type        string
	Description string
	Source      string
	Version     string
}

// FormatField describes a ##FORMAT line.
type FormatField struct {
	ID          string
	Number      string
	Type        string
	Description string
}

// StructuredExtra is any other ##key=<k="v",...> line.
type StructuredExtra struct {
	Key    string
	Fields []KV
}

// Extra is an unstructured ##key=value line.
type Extra struct {
	Key   string
	Value string
}

// ContigInfo describes a ##contig line. A zero Length is omitted on output.
type ContigInfo struct {
	Name        string
	Length      int64
	Description string
	Extra       []KV
}

// Header is the meta-information and sample names of a VCF file.
type Header struct {
	Filters          []FilterInfo
	Infos            []InfoField
	Formats          []FormatField
	StructuredExtras []StructuredExtra
	Extras           []Extra
	Contigs          []ContigInfo
	SampleNames      []string
}

// HasInfo reports whether an INFO field with the given ID is declared.
func (h *Header) HasInfo(id string) bool {
	for _, f := range h.Infos {
		if f.ID == id {
			return true
		}
	}
	return false
}

// Lines renders the header in output order. The file format line and the
// PASS filter always come first.
func (h *Header) Lines() []string {
	lines := []string{
		fileFormatLine,
		`##FILTER=<ID=PASS,Description="All filters passed">`,
	}
	for _, f := range h.Filters {
		if f.ID == "PASS" {
			continue
		}
		lines = append(lines, fmt.Sprintf(`##FILTER=<ID=%s,Description="%s">`, f.ID, f.Description))
	}
	for _, f := range h.Infos {
		var extra string
		if f.Source != "" {
			extra += fmt.Sprintf(`,Source="%s"`, f.Source)
		}
		if f.Version != "" {
			extra += fmt.Sprintf(`,Version="%s"`, f.Version)
		}
		lines = append(lines, fmt.Sprintf(`##INFO=<ID=%s,Number=%s,Type=%s,Description="%s"%s>`,
			f.ID, f.Number, f.Type, f.Description, extra))
	}
	for _, f := range h.Formats {
		lines = append(lines, fmt.Sprintf(`##FORMAT=<ID=%s,Number=%s,Type=%s,Description="%s">`,
			f.ID, f.Number, f.Type, f.Description))
	}
	for _, s := range h.StructuredExtras {
		fields := make([]string, len(s.Fields))
		for i, kv := range s.Fields {
			fields[i] = fmt.Sprintf(`%s="%s"`, kv.Key, kv.Value)
		}
		lines = append(lines, fmt.Sprintf("##%s=<%s>", s.Key, strings.Join(fields, ",")))
	}
	for _, e := range h.Extras {
		lines = append(lines, fmt.Sprintf("##%s=%s", e.Key, e.Value))
	}
	for _, c := range h.Contigs {
		var b strings.Builder
		b.WriteString("##contig=<ID=")
		b.WriteString(c.Name)
		if c.Length > 0 {
			b.WriteString(",length=")
			b.WriteString(strconv.FormatInt(c.Length, 10))
		}
		if c.Description != "" {
			fmt.Fprintf(&b, `,description="%s"`, c.Description)
		}
		for _, kv := range c.Extra {
			fmt.Fprintf(&b, `,%s="%s"`, kv.Key, kv.Value)
		}
		b.WriteByte('>')
		lines = append(lines, b.String())
	}

	cols := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO"
	if len(h.SampleNames) > 0 {
		cols += "\tFORMAT\t" + strings.Join(h.SampleNames, "\t")
	}
	return append(lines, cols)
}

// ParseHeader builds a Header from raw header lines as returned by
// Parser.Header. The ##fileformat line is dropped; Lines writes its own.
func ParseHeader(lines []string) (*Header, error) {
	h := &Header{}
	for i, line := range lines {
		if strings.HasPrefix(line, "#CHROM") {
			if fields := strings.Split(line, "\t"); len(fields) > 9 {
				h.SampleNames = append([]string(nil), fields[9:]...)
			}
			continue
		}
		if !strings.HasPrefix(line, "##") {
			return nil, &ParseError{Line: i + 1, Message: fmt.Sprintf("not a header line: %q", line)}
		}

		key, value, ok := strings.Cut(line[2:], "=")
		if !ok {
			return nil, &ParseError{Line: i + 1, Message: fmt.Sprintf("header line without '=': %q", line)}
		}
		if key == "fileformat" {
			continue
		}
		if !strings.HasPrefix(value, "<") || !strings.HasSuffix(value, ">") {
			h.Extras = append(h.Extras, Extra{Key: key, Value: value})
			continue
		}

		fields := splitStructured(value[1 : len(value)-1])
		get := func(k string) string {
			for _, kv := range fields {
				if kv.Key == k {
					return kv.Value
				}
			}
			return ""
		}

		switch key {
		case "FILTER":
			h.Filters = append(h.Filters, FilterInfo{ID: get("ID"), Description: get("Description")})
		case "INFO":
			h.Infos = append(h.Infos, InfoField{
				ID:          get("ID"),
				Number:      get("Number"),
				Type:        get("Type"),
				Description: get("Description"),
				Source:      get("Source"),
				Version:     get("Version"),
			})
		case "FORMAT":
			h.Formats = append(h.Formats, FormatField{
				ID:          get("ID"),
				Number:      get("Number"),
				Type:        get("Type"),
				Description: get("Description"),
			})
		case "contig":
			c := ContigInfo{Name: get("ID"), Description: get("description")}
			if l := get("length"); l != "" {
				n, err := strconv.ParseInt(l, 10, 64)
				if err != nil {
					return nil, &ParseError{Line: i + 1, Message: fmt.Sprintf("invalid contig length: %s", l)}
				}
				c.Length = n
			}
			for _, kv := range fields {
				switch kv.Key {
				case "ID", "length", "description":
				default:
					c.Extra = append(c.Extra, kv)
				}
			}
			h.Contigs = append(h.Contigs, c)
		default:
			h.StructuredExtras = append(h.StructuredExtras, StructuredExtra{Key: key, Fields: fields})
		}
	}
	return h, nil
}

// splitStructured splits `ID=x,Description="a, b"` into key/value pairs,
// honoring quotes. Quotes are removed from values.
func splitStructured(s string) []KV {
	var (
		out     []KV
		field   strings.Builder
		inQuote bool
	)
	flush := func() {
		k, v, _ := strings.Cut(field.String(), "=")
		if k != "" {
			out = append(out, KV{Key: k, Value: strings.Trim(v, `"`)})
		}
		field.Reset()
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			field.WriteByte(c)
		case c == ',' && !inQuote:
			flush()
		default:
			field.WriteByte(c)
		}
	}
	flush()
	return out
}
