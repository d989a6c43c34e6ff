package vcf

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-ref/internal/reference"
)

func recordLines(out string) []string {
	var recs []string
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if !strings.HasPrefix(line, "#") {
			recs = append(recs, line)
		}
	}
	return recs
}

func TestWriter_Records(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, &Header{SampleNames: []string{"S1"}}, WriterOptions{})
	require.NoError(t, err)

	v := &Variant{
		Chrom: "chr1", Pos: 10, ID: "rs1", Ref: "A", Alt: "G", Qual: 29.96, Filter: "PASS",
		Info:          map[string]interface{}{"DP": "10", "SOMATIC": true, "AF": "0.5"},
		RawInfo:       "SOMATIC;DP=10;AF=0.5",
		SampleColumns: "GT\t0/1",
	}
	require.NoError(t, w.Write(v))

	v2 := &Variant{Chrom: "chr1", Pos: 20, Ref: "C"}
	v2.SetInfo("REFCHECK", "MATCH")
	v2.SetInfo("AC", 3)
	require.NoError(t, w.Write(v2))
	require.NoError(t, w.Close())

	assert.Equal(t, []string{
		"chr1\t10\trs1\tA\tG\t29.96\tPASS\tSOMATIC;DP=10;AF=0.5\tGT\t0/1",
		"chr1\t20\t.\tC\t.\t.\t.\tAC=3;REFCHECK=MATCH",
	}, recordLines(buf.String()))
	assert.True(t, strings.HasPrefix(buf.String(), "##fileformat=VCFv4.2\n"))
}

func TestWriter_AddedInfoFollowsRawOrder(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, nil, WriterOptions{})
	require.NoError(t, err)

	v := &Variant{Chrom: "1", Pos: 1, Ref: "A", Alt: "T", Info: parseInfo("DP=3;DB"), RawInfo: "DP=3;DB"}
	v.SetInfo("REFCHECK", "MISMATCH")
	v.SetInfo("DB", false)
	require.NoError(t, w.Write(v))
	require.NoError(t, w.Close())

	assert.Equal(t, []string{"1\t1\t.\tA\tT\t.\t.\tDP=3;REFCHECK=MISMATCH"}, recordLines(buf.String()))
}

func TestWriter_Options(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, nil, WriterOptions{ExcludedInfoFields: []string{"DP", "CSQ"}, RoundQual: true})
	require.NoError(t, err)

	v := &Variant{Chrom: "1", Pos: 1, Ref: "A", Alt: "T", Qual: 29.96, Info: parseInfo("DP=3;CSQ=x"), RawInfo: "DP=3;CSQ=x"}
	require.NoError(t, w.Write(v))
	require.NoError(t, w.Close())

	assert.Equal(t, []string{"1\t1\t.\tA\tT\t30\t.\t."}, recordLines(buf.String()))
}

func TestWriter_Closed(t *testing.T) {
	w, err := NewWriter(&bytes.Buffer{}, nil, WriterOptions{})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	err = w.Write(&Variant{Chrom: "1", Pos: 1, Ref: "A"})
	assert.True(t, errors.Is(err, reference.ErrFailedPrecondition))
	assert.True(t, errors.Is(w.Close(), reference.ErrFailedPrecondition))
}

func TestCreate_RoundTrip(t *testing.T) {
	header := &Header{
		Infos:   []InfoField{{ID: "DP", Number: "1", Type: "Integer", Description: "Depth"}},
		Contigs: []ContigInfo{{Name: "chr1", Length: 1000}},
	}
	in := &Variant{Chrom: "chr1", Pos: 42, ID: ".", Ref: "G", Alt: "A", Filter: "PASS", Info: parseInfo("DP=7"), RawInfo: "DP=7"}

	for _, name := range []string{"out.vcf", "out.vcf.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			w, err := Create(path, header, WriterOptions{})
			require.NoError(t, err)
			require.NoError(t, w.Write(in))
			require.NoError(t, w.Close())

			p, err := NewParser(path)
			require.NoError(t, err)
			defer p.Close()

			parsed, err := p.ParsedHeader()
			require.NoError(t, err)
			assert.Equal(t, header.Contigs, parsed.Contigs)
			assert.True(t, parsed.HasInfo("DP"))

			out := readAll(t, p)
			require.Len(t, out, 1)
			assert.Equal(t, in.Chrom, out[0].Chrom)
			assert.Equal(t, in.Pos, out[0].Pos)
			assert.Equal(t, in.Info, out[0].Info)
		})
	}
}

func TestCreate_BCFUnsupported(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.bcf", "out.bcf.gz"} {
		_, err := Create(filepath.Join(dir, name), &Header{}, WriterOptions{})
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), name)
	}
}
