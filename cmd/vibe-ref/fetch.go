package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-ref/internal/reference"
)

func newFetchCmd(a *app) *cobra.Command {
	var (
		faiPath   string
		lineWidth int
	)

	cmd := &cobra.Command{
		Use:   "fetch <fasta> <region>...",
		Short: "Print the bases of one or more regions as FASTA",
		Long: `Print the bases of one or more regions as FASTA. Regions are samtools style:
"chr1" for a whole contig, "chr1:11-20" for bases 11 to 20 (1-based,
inclusive) and "chr1:11" for a single base.`,
		Example: `  vibe-ref fetch ref.fa chr1:1,000,001-1,000,100
  vibe-ref fetch ref.fa.gz chrM chr2:5`,
		Args: usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openIndexed(args[0], faiPath)
			if err != nil {
				return err
			}
			defer r.Close()

			fw := newFASTAWriter(cmd.OutOrStdout(), lineWidth)
			for _, region := range args[1:] {
				rng, err := reference.ResolveRegion(r, region)
				if err != nil {
					return err
				}
				bases, err := r.Bases(rng)
				if err != nil {
					return fmt.Errorf("fetch %s: %w", region, err)
				}
				if err := fw.write(region, bases); err != nil {
					return err
				}
			}
			a.logStats(r)
			return fw.flush()
		},
	}

	cmd.Flags().StringVar(&faiPath, "fai", "", "FASTA index (default <fasta>.fai)")
	cmd.Flags().IntVarP(&lineWidth, "line-width", "w", 60, "bases per output line (0 for one line)")
	return cmd
}

func newContigsCmd(a *app) *cobra.Command {
	var faiPath string

	cmd := &cobra.Command{
		Use:   "contigs <fasta>",
		Short: "List the contigs of an indexed FASTA",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openIndexed(args[0], faiPath)
			if err != nil {
				return err
			}
			defer r.Close()

			out := cmd.OutOrStdout()
			for _, ct := range r.Contigs() {
				if _, err := fmt.Fprintf(out, "%s\t%d\n", ct.Name, ct.Length); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&faiPath, "fai", "", "FASTA index (default <fasta>.fai)")
	return cmd
}
