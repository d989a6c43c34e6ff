package refcheck

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-ref/internal/vcf"
)

// Sink persists check results in batches.
type Sink interface {
	WriteRefChecks(results []Result) error
}

// Summary counts the outcome of a CheckAll run.
type Summary struct {
	Variants int            // records read, before multi-allelic splitting
	Checked  int            // records checked and written
	Failed   int            // records whose check hit a reader error
	ByStatus map[Status]int // checked records per status
}

// Runner drives the check of a whole variant stream.
type Runner struct {
	open      Opener
	workers   int
	batchSize int
	sink      Sink
	logger    *zap.Logger
}

// NewRunner creates a Runner that opens one reference handle per worker.
// If workers is 0, runtime.NumCPU() is used.
func NewRunner(open Opener, workers int) *Runner {
	return &Runner{
		open:      open,
		workers:   workers,
		batchSize: 1000,
		logger:    zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and info messages.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// SetSink makes CheckAll also persist results to s.
func (r *Runner) SetSink(s Sink) {
	r.sink = s
}

// CheckAll checks every variant from parser and writes it, annotated with
// INFO REFCHECK, to writer in input order. Multi-allelic records are
// checked once; the reference allele is shared by every ALT. Variants whose
// check fails are logged and written unannotated.
func (r *Runner) CheckAll(ctx context.Context, parser vcf.VariantParser, writer vcf.VariantWriter) (Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sum := Summary{ByStatus: make(map[Status]int)}
	items := make(chan WorkItem, 2*max(r.workers, 1))

	results, err := ParallelCheck(ctx, r.open, items, r.workers)
	if err != nil {
		close(items)
		return sum, err
	}

	var parseErr error
	go func() {
		defer close(items)
		for seq := 0; ; seq++ {
			v, err := parser.Next()
			if err != nil {
				parseErr = fmt.Errorf("read variant: %w", err)
				return
			}
			if v == nil {
				return
			}
			select {
			case items <- WorkItem{Seq: seq, Variant: v}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var batch []Result
	flush := func() error {
		if r.sink == nil || len(batch) == 0 {
			return nil
		}
		if err := r.sink.WriteRefChecks(batch); err != nil {
			return fmt.Errorf("persist reference checks: %w", err)
		}
		batch = nil
		return nil
	}

	emit := func(wr WorkResult) error {
		sum.Variants++
		v := wr.Result.Variant
		if wr.Err != nil {
			sum.Failed++
			r.logger.Warn("failed to check reference allele",
				zap.String("chrom", v.Chrom),
				zap.Int64("pos", v.Pos),
				zap.Error(wr.Err))
		} else {
			sum.Checked++
			sum.ByStatus[wr.Result.Status]++
			v.SetInfo(InfoKey, string(wr.Result.Status))
			if wr.Result.Status != StatusMatch {
				r.logger.Debug("reference allele differs",
					zap.String("chrom", v.Chrom),
					zap.Int64("pos", v.Pos),
					zap.String("ref", v.Ref),
					zap.String("status", string(wr.Result.Status)))
			}
			if r.sink != nil {
				batch = append(batch, wr.Result)
				if len(batch) >= r.batchSize {
					if err := flush(); err != nil {
						return err
					}
				}
			}
		}
		if err := writer.Write(v); err != nil {
			return fmt.Errorf("write variant: %w", err)
		}
		return nil
	}

	err = OrderedCollect(results, func(wr WorkResult) error {
		if err := emit(wr); err != nil {
			// Stop the reader so the remaining results drain quickly.
			cancel()
			return err
		}
		return nil
	})
	if err != nil {
		return sum, err
	}
	// Results already written to the VCF are persisted even when reading
	// stopped early.
	if err := flush(); err != nil {
		return sum, err
	}
	if parseErr != nil {
		return sum, parseErr
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	if sum.Variants == 0 {
		r.logger.Info("0 variants processed")
	} else {
		r.logger.Info("reference check complete",
			zap.Int("variants", sum.Variants),
			zap.Int("match", sum.ByStatus[StatusMatch]),
			zap.Int("mismatch", sum.ByStatus[StatusMismatch]),
			zap.Int("unknown_contig", sum.ByStatus[StatusUnknownContig]),
			zap.Int("out_of_range", sum.ByStatus[StatusOutOfRange]),
			zap.Int("failed", sum.Failed))
	}
	return sum, nil
}
