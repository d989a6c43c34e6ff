package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-ref/internal/duckdb"
	"github.com/inodb/vibe-ref/internal/refcheck"
	"github.com/inodb/vibe-ref/internal/testutil"
)

var testRecords = []testutil.Record{
	{Name: "chr1", Seq: "ACGTACGTACGTACGTACGTACGT"},
	{Name: "chr2", Description: "second", Seq: "GGGGCCCCAAAATTTT"},
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root, a := newRootCmd()
	t.Cleanup(a.teardown)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFetchCommand(t *testing.T) {
	fa := testutil.WriteFASTA(t, t.TempDir(), "ref.fa", testRecords, 10)

	out, err := execute(t, "fetch", fa, "chr1:3-6", "chr2", "-w", "8")
	require.NoError(t, err)
	assert.Equal(t, ">chr1:3-6\nGTAC\n>chr2\nGGGGCCCC\nAAAATTTT\n", out)
}

func TestFetchCommand_UnknownContig(t *testing.T) {
	fa := testutil.WriteFASTA(t, t.TempDir(), "ref.fa", testRecords, 10)

	_, err := execute(t, "fetch", fa, "chr9:1-2")
	assert.Error(t, err)
}

func TestContigsCommand(t *testing.T) {
	fa := testutil.WriteBGZF(t, t.TempDir(), "ref.fa.gz", testRecords, 10, 16)

	out, err := execute(t, "contigs", fa)
	require.NoError(t, err)
	assert.Equal(t, "chr1\t24\nchr2\t16\n", out)
}

func TestExportCommand_FASTA(t *testing.T) {
	dir := t.TempDir()
	fa := testutil.WriteFASTA(t, dir, "ref.fa", testRecords, 10)
	dst := filepath.Join(dir, "copy.fa")

	_, err := execute(t, "export", fa, "-o", dst, "-w", "12")
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, ">chr1\nACGTACGTACGT\nACGTACGTACGT\n>chr2\nGGGGCCCCAAAA\nTTTT\n", string(data))

	out, err := execute(t, "contigs", dst)
	require.NoError(t, err)
	assert.Equal(t, "chr1\t24\nchr2\t16\n", out)
}

func TestExportCommand_DuckDB(t *testing.T) {
	dir := t.TempDir()
	fa := testutil.WriteFASTA(t, dir, "ref.fa", testRecords, 10)
	dbPath := filepath.Join(dir, "ref.duckdb")

	_, err := execute(t, "export", fa, "-o", dbPath)
	require.NoError(t, err)
	// Unchanged input is skipped.
	_, err = execute(t, "export", fa, "-o", dbPath)
	require.NoError(t, err)

	store, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.ContigCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	seq, err := store.ContigSequence("chr2", 4, 8)
	require.NoError(t, err)
	assert.Equal(t, "CCCC", seq)
}

func TestExportCommand_DuckDBSwitchingInputs(t *testing.T) {
	dir := t.TempDir()
	faA := testutil.WriteFASTA(t, dir, "a.fa", testRecords, 10)
	faB := testutil.WriteFASTA(t, dir, "b.fa", []testutil.Record{{Name: "chrB", Seq: "TTTT"}}, 10)
	dbPath := filepath.Join(dir, "ref.duckdb")

	for _, fa := range []string{faA, faB, faA} {
		_, err := execute(t, "export", fa, "-o", dbPath)
		require.NoError(t, err)
	}

	store, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	contigs, err := store.Contigs()
	require.NoError(t, err)
	require.Len(t, contigs, 2)
	assert.Equal(t, "chr1", contigs[0].Name)
	assert.Equal(t, "chr2", contigs[1].Name)
}

func TestCheckRefCommand(t *testing.T) {
	dir := t.TempDir()
	fa := testutil.WriteFASTA(t, dir, "ref.fa", testRecords, 10)

	input := "##fileformat=VCFv4.2\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"chr1\t1\t.\tAC\tA\t.\tPASS\tDP=10\n" +
		"1\t2\t.\tG\tT\t.\tPASS\t.\n" +
		"chr3\t1\t.\tA\tT\t.\tPASS\t.\n" +
		"chr2\t16\t.\tTA\tT\t.\tPASS\t.\n"
	vcfPath := filepath.Join(dir, "in.vcf")
	require.NoError(t, os.WriteFile(vcfPath, []byte(input), 0o644))

	out, err := execute(t, "check-ref", fa, vcfPath, "--workers", "2")
	require.NoError(t, err)

	var records []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if !strings.HasPrefix(line, "#") {
			records = append(records, line)
		}
	}
	assert.Equal(t, []string{
		"chr1\t1\t.\tAC\tA\t.\tPASS\tDP=10;REFCHECK=MATCH",
		"1\t2\t.\tG\tT\t.\tPASS\tREFCHECK=MISMATCH",
		"chr3\t1\t.\tA\tT\t.\tPASS\tREFCHECK=UNKNOWN_CONTIG",
		"chr2\t16\t.\tTA\tT\t.\tPASS\tREFCHECK=OUT_OF_RANGE",
	}, records)
	assert.Contains(t, out, "##INFO=<ID=REFCHECK,")
	assert.Contains(t, out, "##contig=<ID=chr1,length=24>")
}

func TestCheckRefCommand_FailOnMismatch(t *testing.T) {
	dir := t.TempDir()
	fa := testutil.WriteFASTA(t, dir, "ref.fa", testRecords, 10)

	input := "##fileformat=VCFv4.2\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"chr1\t1\t.\tT\tA\t.\tPASS\t.\n"
	vcfPath := filepath.Join(dir, "in.vcf")
	require.NoError(t, os.WriteFile(vcfPath, []byte(input), 0o644))

	_, err := execute(t, "check-ref", fa, vcfPath, "-o", filepath.Join(dir, "out.vcf"), "--fail-on-mismatch")
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExitError, ee.code)
}

func TestCheckRefCommand_Database(t *testing.T) {
	dir := t.TempDir()
	fa := testutil.WriteFASTA(t, dir, "ref.fa", testRecords, 10)

	input := "##fileformat=VCFv4.2\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"chr1\t1\t.\tA\tC\t.\tPASS\t.\n" +
		"chr1\t2\t.\tA\tC\t.\tPASS\t.\n"
	vcfPath := filepath.Join(dir, "in.vcf")
	require.NoError(t, os.WriteFile(vcfPath, []byte(input), 0o644))
	dbPath := filepath.Join(dir, "checks.duckdb")

	_, err := execute(t, "check-ref", fa, vcfPath, "-o", filepath.Join(dir, "out.vcf.gz"), "--db", dbPath)
	require.NoError(t, err)

	store, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	counts, err := store.CountRefChecks()
	require.NoError(t, err)
	assert.Equal(t, 1, counts[refcheck.StatusMatch])
	assert.Equal(t, 1, counts[refcheck.StatusMismatch])
}

func TestRun_UsageErrors(t *testing.T) {
	assert.Equal(t, ExitUsage, run([]string{"fetch"}))
	assert.Equal(t, ExitUsage, run([]string{"contigs", "--no-such-flag", "x"}))
	assert.Equal(t, ExitError, run([]string{"contigs", filepath.Join(t.TempDir(), "missing.fa")}))
}

func TestConfigSet_Validation(t *testing.T) {
	_, err := execute(t, "config", "set", "no_such_key", "1")
	var ue *usageError
	require.ErrorAs(t, err, &ue)

	_, err = execute(t, "config", "set", keyPoolSize, "0")
	require.ErrorAs(t, err, &ue)

	_, err = execute(t, "config", "set", keyLogLevel, "loud")
	require.ErrorAs(t, err, &ue)
}

func TestConfigSet_WritesFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "cfg.yaml")

	out, err := execute(t, "--config", cfg, "config", "set", keyPoolSize, "6")
	require.NoError(t, err)
	assert.Contains(t, out, "serve.pool_size = 6")

	data, err := os.ReadFile(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pool_size: 6")
}
