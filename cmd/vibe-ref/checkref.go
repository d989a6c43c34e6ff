package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-ref/internal/duckdb"
	"github.com/inodb/vibe-ref/internal/refcheck"
	"github.com/inodb/vibe-ref/internal/vcf"
)

type checkOptions struct {
	output         string
	faiPath        string
	dbPath         string
	excludeInfo    []string
	roundQual      bool
	failOnMismatch bool
}

func newCheckRefCmd(a *app) *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check-ref <fasta> <vcf>",
		Short: "Check VCF reference alleles against a reference genome",
		Long: `Compare the REF allele of every VCF record with the reference genome and
annotate it with INFO REFCHECK=MATCH, MISMATCH, UNKNOWN_CONTIG or
OUT_OF_RANGE. Contig names are matched with and without a "chr" prefix.
Records are written in input order; an output ending in .gz is BGZF
compressed.`,
		Example: `  vibe-ref check-ref ref.fa input.vcf.gz -o checked.vcf.gz
  vibe-ref check-ref ref.fa input.vcf --db checks.duckdb --fail-on-mismatch
  cat input.vcf | vibe-ref check-ref ref.fa -`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheckRef(cmd, args[0], args[1], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "-", "output VCF (- for stdout)")
	f.StringVar(&opts.faiPath, "fai", "", "FASTA index (default <fasta>.fai)")
	f.StringVar(&opts.dbPath, "db", "", "also store results in this DuckDB database")
	f.StringSliceVar(&opts.excludeInfo, "exclude-info", nil, "INFO fields to drop from the output")
	f.BoolVar(&opts.roundQual, "round-qual", false, "round QUAL to one decimal")
	f.BoolVar(&opts.failOnMismatch, "fail-on-mismatch", false, "exit with an error if any record does not MATCH")
	f.Int("workers", 0, "parallel workers, each with its own reader (0 = number of CPUs)")
	viper.BindPFlag(keyWorkers, f.Lookup("workers"))
	return cmd
}

func (a *app) runCheckRef(cmd *cobra.Command, fastaPath, vcfPath string, opts checkOptions) error {
	parser, err := vcf.NewParser(vcfPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w (check that the file path is correct)", err)
		}
		return err
	}
	defer parser.Close()

	header, err := parser.ParsedHeader()
	if err != nil {
		return err
	}
	if !header.HasInfo(refcheck.InfoKey) {
		header.Infos = append(header.Infos, refcheck.InfoHeader)
	}

	// Fail on a bad reference before creating any output.
	probe, err := a.openIndexed(fastaPath, opts.faiPath)
	if err != nil {
		return err
	}
	if len(header.Contigs) == 0 {
		for _, ct := range probe.Contigs() {
			header.Contigs = append(header.Contigs, vcf.ContigInfo{Name: ct.Name, Length: ct.Length})
		}
	}
	probe.Close()

	wopts := vcf.WriterOptions{ExcludedInfoFields: opts.excludeInfo, RoundQual: opts.roundQual}
	var writer *vcf.Writer
	if opts.output == "-" {
		writer, err = vcf.NewWriter(cmd.OutOrStdout(), header, wopts)
	} else {
		writer, err = vcf.Create(opts.output, header, wopts)
	}
	if err != nil {
		return err
	}

	runner := refcheck.NewRunner(a.opener(fastaPath, opts.faiPath), viper.GetInt(keyWorkers))
	runner.SetLogger(a.logger.Named("refcheck"))

	if opts.dbPath != "" {
		store, err := duckdb.Open(opts.dbPath)
		if err != nil {
			writer.Close()
			return err
		}
		defer store.Close()
		runner.SetSink(store)
	}

	sum, err := runner.CheckAll(cmd.Context(), parser, writer)
	if cerr := writer.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if opts.failOnMismatch {
		if bad := sum.Checked - sum.ByStatus[refcheck.StatusMatch]; bad > 0 || sum.Failed > 0 {
			a.logger.Warn("reference alleles do not match",
				zap.Int("non_matching", bad),
				zap.Int("failed", sum.Failed))
			return &exitError{code: ExitError, err: fmt.Errorf("%d of %d records did not match the reference", bad+sum.Failed, sum.Variants)}
		}
	}
	return nil
}
