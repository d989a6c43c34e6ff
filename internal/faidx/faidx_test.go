package faidx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-ref/internal/testutil"
)

var testRecords = []testutil.Record{
	{Name: "chrM", Seq: "GATCACAGGTCTATCACCCTATTAACCACTCACGGGAGCTCTCCATGCATTTGGTATTTT"},
	{Name: "chr1", Description: "first", Seq: strings.Repeat("ACGTacgtNN", 50)},
	{Name: "chr2", Seq: "TTTTGGGGCCCCAAAA"},
}

func fetchString(t *testing.T, x *Index, name string, start, end int64) string {
	t.Helper()
	b, release, err := x.Fetch(name, start, end)
	require.NoError(t, err)
	defer release()
	return string(b)
}

func TestLoad_ContigOrder(t *testing.T) {
	path := testutil.WriteFASTA(t, t.TempDir(), "ref.fa", testRecords, 17)

	x, err := Load(path, path+".fai", path+".gzi")
	require.NoError(t, err)
	defer x.Close()

	assert.False(t, x.Compressed())
	require.Equal(t, 3, x.ContigCount())
	assert.Equal(t, "chrM", x.ContigName(0))
	assert.Equal(t, "chr1", x.ContigName(1))
	assert.Equal(t, "chr2", x.ContigName(2))
	assert.Equal(t, "", x.ContigName(3))
	assert.Equal(t, "", x.ContigName(-1))

	assert.Equal(t, int64(500), x.ContigLength("chr1"))
	assert.Equal(t, int64(16), x.ContigLength("chr2"))
	assert.Equal(t, int64(-1), x.ContigLength("chrX"))
}

func TestLoad_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFASTA(t, dir, "ref.fa", testRecords, 60)

	_, err := Load(path, path+".missing", "")
	assert.Error(t, err)

	_, err = Load(dir+"/nope.fa", path+".fai", "")
	assert.Error(t, err)
}

func TestFetch_InclusiveBounds(t *testing.T) {
	path := testutil.WriteFASTA(t, t.TempDir(), "ref.fa", testRecords, 7)

	x, err := Load(path, path+".fai", "")
	require.NoError(t, err)
	defer x.Close()

	assert.Equal(t, "GATCACAGGT", fetchString(t, x, "chrM", 0, 9))
	assert.Equal(t, "C", fetchString(t, x, "chrM", 5, 5))
	// Spans several wrapped lines.
	assert.Equal(t, testRecords[1].Seq[3:40], fetchString(t, x, "chr1", 3, 39))
	assert.Equal(t, "TTTTGGGGCCCCAAAA", fetchString(t, x, "chr2", 0, 15))
}

func TestFetch_ClampsLikeHtslib(t *testing.T) {
	path := testutil.WriteFASTA(t, t.TempDir(), "ref.fa", testRecords, 60)

	x, err := Load(path, path+".fai", "")
	require.NoError(t, err)
	defer x.Close()

	assert.Equal(t, "CCAAAA", fetchString(t, x, "chr2", 10, 100))
	assert.Equal(t, "TTTT", fetchString(t, x, "chr2", -5, 3))
	assert.Equal(t, "", fetchString(t, x, "chr2", 16, 20))
}

func TestFetch_UnknownContig(t *testing.T) {
	path := testutil.WriteFASTA(t, t.TempDir(), "ref.fa", testRecords, 60)

	x, err := Load(path, path+".fai", "")
	require.NoError(t, err)
	defer x.Close()

	_, _, err = x.Fetch("chrUn", 0, 10)
	assert.True(t, errors.Is(err, ErrNoSequence))
}

func TestFetch_BGZF(t *testing.T) {
	path := testutil.WriteBGZF(t, t.TempDir(), "ref.fa.gz", testRecords, 13, 50)

	x, err := Load(path, path+".fai", path+".gzi")
	require.NoError(t, err)
	defer x.Close()

	assert.True(t, x.Compressed())
	assert.Equal(t, testRecords[0].Seq, fetchString(t, x, "chrM", 0, int64(len(testRecords[0].Seq)-1)))
	assert.Equal(t, testRecords[1].Seq, fetchString(t, x, "chr1", 0, 499))
	assert.Equal(t, testRecords[1].Seq[240:260], fetchString(t, x, "chr1", 240, 259))
	assert.Equal(t, "GGCC", fetchString(t, x, "chr2", 6, 9))
}

func TestLoad_BGZFWithoutGZI(t *testing.T) {
	path := testutil.WriteBGZF(t, t.TempDir(), "ref.fa.gz", testRecords, 60, 64)

	_, err := Load(path, path+".fai", path+".nogzi")
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	path := testutil.WriteFASTA(t, t.TempDir(), "ref.fa", testRecords, 60)

	x, err := Load(path, path+".fai", "")
	require.NoError(t, err)

	require.NoError(t, x.Close())
	assert.Error(t, x.Close())

	_, _, err = x.Fetch("chr2", 0, 3)
	assert.Error(t, err)
}

func TestParseGZI(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, []uint64{2, 100, 65280, 210, 130560}))

	entries, err := parseGZI(&buf)
	require.NoError(t, err)
	assert.Equal(t, []gziEntry{{0, 0}, {100, 65280}, {210, 130560}}, entries)

	b := &blockReaderAt{blocks: entries}
	assert.Equal(t, gziEntry{0, 0}, b.block(0))
	assert.Equal(t, gziEntry{0, 0}, b.block(65279))
	assert.Equal(t, gziEntry{100, 65280}, b.block(65280))
	assert.Equal(t, gziEntry{210, 130560}, b.block(1 << 20))
}

func TestParseGZI_Errors(t *testing.T) {
	_, err := parseGZI(bytes.NewReader(nil))
	assert.Error(t, err)

	var truncated bytes.Buffer
	require.NoError(t, binary.Write(&truncated, binary.LittleEndian, []uint64{2, 100, 200}))
	_, err = parseGZI(&truncated)
	assert.Error(t, err)

	var unordered bytes.Buffer
	require.NoError(t, binary.Write(&unordered, binary.LittleEndian, []uint64{2, 100, 200, 50, 300}))
	_, err = parseGZI(&unordered)
	assert.Error(t, err)
}
