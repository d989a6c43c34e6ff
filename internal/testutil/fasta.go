// Package testutil writes FASTA fixtures with their .fai (and .gzi) indexes
// for package tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/stretchr/testify/require"
)

// Record is one FASTA entry.
type Record struct {
	Name        string
	Description string
	Seq         string
}

// formatFASTA renders records wrapped at lineWidth bases and returns the
// matching .fai content.
func formatFASTA(records []Record, lineWidth int) (fasta, index []byte) {
	var fa, fai bytes.Buffer
	for _, r := range records {
		header := ">" + r.Name
		if r.Description != "" {
			header += " " + r.Description
		}
		fa.WriteString(header + "\n")
		fmt.Fprintf(&fai, "%s\t%d\t%d\t%d\t%d\n", r.Name, len(r.Seq), fa.Len(), lineWidth, lineWidth+1)
		for i := 0; i < len(r.Seq); i += lineWidth {
			end := min(i+lineWidth, len(r.Seq))
			fa.WriteString(r.Seq[i:end] + "\n")
		}
	}
	return fa.Bytes(), fai.Bytes()
}

// WriteFASTA writes an uncompressed FASTA named name into dir together with
// name.fai and returns the FASTA path.
func WriteFASTA(t testing.TB, dir, name string, records []Record, lineWidth int) string {
	t.Helper()

	fasta, index := formatFASTA(records, lineWidth)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, fasta, 0o644))
	require.NoError(t, os.WriteFile(path+".fai", index, 0o644))
	return path
}

// WriteBGZF writes a BGZF-compressed FASTA named name into dir, splitting the
// uncompressed stream into blocks of blockSize bytes, and writes name.fai and
// name.gzi next to it. It returns the FASTA path.
func WriteBGZF(t testing.TB, dir, name string, records []Record, lineWidth, blockSize int) string {
	t.Helper()

	fasta, index := formatFASTA(records, lineWidth)

	var out bytes.Buffer
	w := bgzf.NewWriter(&out, 1)

	var gzi [][2]uint64
	for off := 0; off < len(fasta); off += blockSize {
		if off > 0 {
			gzi = append(gzi, [2]uint64{uint64(out.Len()), uint64(off)})
		}
		end := min(off+blockSize, len(fasta))
		_, err := w.Write(fasta[off:end])
		require.NoError(t, err)
		require.NoError(t, w.Flush())
		require.NoError(t, w.Wait())
	}
	require.NoError(t, w.Close())

	var gziBuf bytes.Buffer
	require.NoError(t, binary.Write(&gziBuf, binary.LittleEndian, uint64(len(gzi))))
	for _, e := range gzi {
		require.NoError(t, binary.Write(&gziBuf, binary.LittleEndian, e))
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(path+".fai", index, 0o644))
	require.NoError(t, os.WriteFile(path+".gzi", gziBuf.Bytes(), 0o644))
	return path
}
