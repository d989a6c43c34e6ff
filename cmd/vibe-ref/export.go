package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-ref/internal/duckdb"
	"github.com/inodb/vibe-ref/internal/reference"
)

type exportOptions struct {
	format    string
	output    string
	faiPath   string
	unindexed bool
	lineWidth int
	force     bool
}

func newExportCmd(a *app) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export <fasta>",
		Short: "Export every contig of a reference to FASTA or DuckDB",
		Long: `Export every contig of a reference, in file order, with bases uppercased.

FASTA output goes to stdout unless --output is given. A plain FASTA output
file gets a .fai index next to it; an output ending in .gz is BGZF
compressed. DuckDB output stores contigs in the "contigs" table and skips
the export when the database already holds this exact input file.`,
		Example: `  vibe-ref export ref.fa.gz -o ref.upper.fa
  vibe-ref export --unindexed contigs.fa.gz -o contigs.duckdb
  vibe-ref export ref.fa --format duckdb -o ref.duckdb --force`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := opts.format
			if format == "" {
				format = "fasta"
				if ext := filepath.Ext(opts.output); ext == ".duckdb" || ext == ".db" {
					format = "duckdb"
				}
			}

			switch format {
			case "fasta":
				return a.exportFASTA(cmd.OutOrStdout(), args[0], opts)
			case "duckdb":
				if opts.output == "" || opts.output == "-" {
					return &usageError{fmt.Errorf("--output is required for duckdb export")}
				}
				return a.exportDuckDB(args[0], opts)
			default:
				return &usageError{fmt.Errorf("unknown export format %q", format)}
			}
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "", "output format: fasta or duckdb (default from --output extension)")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	f.StringVar(&opts.faiPath, "fai", "", "FASTA index (default <fasta>.fai)")
	f.BoolVar(&opts.unindexed, "unindexed", false, "stream the FASTA without an index")
	f.IntVarP(&opts.lineWidth, "line-width", "w", 60, "bases per output line (0 for one line)")
	f.BoolVar(&opts.force, "force", false, "re-export even if the database is up to date")
	return cmd
}

// openIterable opens path for a full pass over its records.
func (a *app) openIterable(path string, opts exportOptions) (reference.Iterable, error) {
	if opts.unindexed {
		return reference.OpenUnindexed(path)
	}
	return a.openIndexed(path, opts.faiPath)
}

func (a *app) exportFASTA(stdout io.Writer, input string, opts exportOptions) (err error) {
	src, err := a.openIterable(input, opts)
	if err != nil {
		return err
	}
	defer src.Close()

	it, err := src.Iterate()
	if err != nil {
		return err
	}

	out := stdout
	var closers []io.Closer
	writeIndex := false
	if opts.output != "" && opts.output != "-" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		out = f
		closers = append(closers, f)
		if strings.HasSuffix(opts.output, ".gz") {
			bw := bgzf.NewWriter(f, 1)
			out = bw
			closers = append([]io.Closer{bw}, closers...)
		} else {
			writeIndex = true
		}
	}
	defer func() {
		for _, c := range closers {
			if cerr := c.Close(); err == nil {
				err = cerr
			}
		}
	}()

	fw := newFASTAWriter(out, opts.lineWidth)
	n := 0
	for {
		rec, err := it.Next()
		if err != nil {
			return err
		}
		if rec == nil {
			break
		}
		if err := fw.write(rec.Name, rec.Bases); err != nil {
			return fmt.Errorf("write %s: %w", rec.Name, err)
		}
		n++
	}
	if err := fw.flush(); err != nil {
		return err
	}

	if writeIndex {
		fai, err := os.Create(opts.output + ".fai")
		if err != nil {
			return fmt.Errorf("create index: %w", err)
		}
		if err := fw.writeIndex(fai); err != nil {
			fai.Close()
			return fmt.Errorf("write index: %w", err)
		}
		if err := fai.Close(); err != nil {
			return err
		}
	}

	a.logger.Info("exported contigs", zap.Int("contigs", n), zap.String("output", opts.output))
	return nil
}

func (a *app) exportDuckDB(input string, opts exportOptions) error {
	fp, err := duckdb.StatFile(input)
	if err != nil {
		return fmt.Errorf("%w: %v", reference.ErrNotFound, err)
	}

	store, err := duckdb.Open(opts.output)
	if err != nil {
		return err
	}
	defer store.Close()

	if !opts.force {
		current, err := store.SourceCurrent(fp)
		if err != nil {
			return err
		}
		if current {
			a.logger.Info("database already up to date", zap.String("input", input), zap.String("db", opts.output))
			return nil
		}
	}

	src, err := a.openIterable(input, opts)
	if err != nil {
		return err
	}
	defer src.Close()

	it, err := src.Iterate()
	if err != nil {
		return err
	}
	if err := store.ClearContigs(); err != nil {
		return fmt.Errorf("clear contigs: %w", err)
	}
	n, err := store.ExportRecords(it)
	if err != nil {
		return err
	}
	if err := store.RecordSource(fp); err != nil {
		return err
	}

	a.logger.Info("exported contigs", zap.Int("contigs", n), zap.String("db", opts.output))
	return nil
}
