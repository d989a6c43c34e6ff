package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-ref/internal/reference"
)

// openIndexed opens an indexed FASTA with the configured cache size.
func (a *app) openIndexed(path, faiPath string) (*reference.IndexedReader, error) {
	r, err := reference.Open(path, faiPath, viper.GetInt(keyCacheSize))
	if err != nil {
		return nil, err
	}
	r.SetLogger(a.logger.Named("reference"))
	return r, nil
}

// opener returns a function opening independent handles on the same FASTA.
func (a *app) opener(path, faiPath string) func() (reference.Reference, error) {
	return func() (reference.Reference, error) {
		return a.openIndexed(path, faiPath)
	}
}

func (a *app) logStats(r *reference.IndexedReader) {
	st := r.Stats()
	a.logger.Debug("cache statistics",
		zap.Uint64("hits", st.Hits),
		zap.Uint64("misses", st.Misses),
		zap.Uint64("bypasses", st.Bypasses),
		zap.Uint64("fetches", st.Fetches))
}

// fastaWriter writes FASTA records wrapped at a fixed width and records the
// .fai line of each record.
type fastaWriter struct {
	w         *bufio.Writer
	lineWidth int
	offset    int64
	index     []string
}

func newFASTAWriter(w io.Writer, lineWidth int) *fastaWriter {
	return &fastaWriter{w: bufio.NewWriter(w), lineWidth: lineWidth}
}

func (fw *fastaWriter) write(name, bases string) error {
	header := ">" + name + "\n"
	if _, err := fw.w.WriteString(header); err != nil {
		return err
	}
	fw.offset += int64(len(header))

	width := fw.lineWidth
	if width <= 0 {
		width = max(len(bases), 1)
	}
	fw.index = append(fw.index, fmt.Sprintf("%s\t%d\t%d\t%d\t%d", name, len(bases), fw.offset, width, width+1))

	for i := 0; i < len(bases); i += width {
		line := bases[i:min(i+width, len(bases))]
		if _, err := fw.w.WriteString(line); err != nil {
			return err
		}
		if err := fw.w.WriteByte('\n'); err != nil {
			return err
		}
		fw.offset += int64(len(line)) + 1
	}
	return nil
}

func (fw *fastaWriter) flush() error {
	return fw.w.Flush()
}

// writeIndex writes the .fai content for everything written so far.
func (fw *fastaWriter) writeIndex(w io.Writer) error {
	for _, line := range fw.index {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
