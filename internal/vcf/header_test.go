package vcf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader_Lines(t *testing.T) {
	h := &Header{
		Filters: []FilterInfo{{ID: "PASS", Description: "ignored"}, {ID: "q10", Description: "Quality below 10"}},
		Infos: []InfoField{
			{ID: "DP", Number: "1", Type: "Integer", Description: "Depth"},
			{ID: "AF", Number: "A", Type: "Float", Description: "Allele frequency", Source: "dbsnp", Version: "138"},
		},
		Formats:          []FormatField{{ID: "GT", Number: "1", Type: "String", Description: "Genotype"}},
		StructuredExtras: []StructuredExtra{{Key: "META", Fields: []KV{{"ID", "Assay"}, {"Type", "String"}}}},
		Extras:           []Extra{{Key: "reference", Value: "GRCh38"}},
		Contigs: []ContigInfo{
			{Name: "chr1", Length: 248956422, Description: "first", Extra: []KV{{"assembly", "hg38"}}},
			{Name: "chrUn"},
		},
		SampleNames: []string{"S1", "S2"},
	}

	assert.Equal(t, []string{
		"##fileformat=VCFv4.2",
		`##FILTER=<ID=PASS,Description="All filters passed">`,
		`##FILTER=<ID=q10,Description="Quality below 10">`,
		`##INFO=<ID=DP,Number=1,Type=Integer,Description="Depth">`,
		`##INFO=<ID=AF,Number=A,Type=Float,Description="Allele frequency",Source="dbsnp",Version="138">`,
		`##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">`,
		`##META=<ID="Assay",Type="String">`,
		"##reference=GRCh38",
		`##contig=<ID=chr1,length=248956422,description="first",assembly="hg38">`,
		"##contig=<ID=chrUn>",
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\tS2",
	}, h.Lines())
}

func TestHeader_LinesEmpty(t *testing.T) {
	h := &Header{}
	lines := h.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO", lines[2])
}

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader(strings.Split(strings.TrimSpace(`##fileformat=VCFv4.2
##FILTER=<ID=q10,Description="Quality, below 10">
##INFO=<ID=DP,Number=1,Type=Integer,Description="Depth",Source="caller">
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
##contig=<ID=chr1,length=1000,assembly=hg38>
##META=<ID=Assay,Type=String>
##source=test
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	S1`), "\n"))
	require.NoError(t, err)

	assert.Equal(t, []FilterInfo{{ID: "q10", Description: "Quality, below 10"}}, h.Filters)
	assert.Equal(t, []InfoField{{ID: "DP", Number: "1", Type: "Integer", Description: "Depth", Source: "caller"}}, h.Infos)
	assert.Equal(t, []FormatField{{ID: "GT", Number: "1", Type: "String", Description: "Genotype"}}, h.Formats)
	assert.Equal(t, []ContigInfo{{Name: "chr1", Length: 1000, Extra: []KV{{"assembly", "hg38"}}}}, h.Contigs)
	assert.Equal(t, []StructuredExtra{{Key: "META", Fields: []KV{{"ID", "Assay"}, {"Type", "String"}}}}, h.StructuredExtras)
	assert.Equal(t, []Extra{{Key: "source", Value: "test"}}, h.Extras)
	assert.Equal(t, []string{"S1"}, h.SampleNames)
	assert.True(t, h.HasInfo("DP"))
	assert.False(t, h.HasInfo("AF"))
}

func TestParseHeader_Errors(t *testing.T) {
	_, err := ParseHeader([]string{"#fileformat"})
	assert.Error(t, err)
	_, err = ParseHeader([]string{"##noequals"})
	assert.Error(t, err)
	_, err = ParseHeader([]string{"##contig=<ID=chr1,length=abc>"})
	assert.Error(t, err)
}
