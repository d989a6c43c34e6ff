package duckdb

import (
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-ref/internal/refcheck"
)

// RefCheckRow is one stored reference-allele check.
type RefCheckRow struct {
	Chrom    string
	Pos      int64
	Ref      string
	Alt      string
	Contig   string
	Status   refcheck.Status
	Observed string
}

// WriteRefChecks batch-inserts check results. It satisfies refcheck.Sink.
func (s *Store) WriteRefChecks(results []refcheck.Result) error {
	if len(results) == 0 {
		return nil
	}
	return s.withAppender("ref_checks", func(a *goduckdb.Appender) error {
		for _, r := range results {
			v := r.Variant
			if err := a.AppendRow(v.Chrom, v.Pos, v.Ref, v.Alt, r.Contig, string(r.Status), r.Observed); err != nil {
				return fmt.Errorf("append reference check: %w", err)
			}
		}
		return nil
	})
}

// LookupRefChecks returns the stored checks at a VCF position.
func (s *Store) LookupRefChecks(chrom string, pos int64) ([]RefCheckRow, error) {
	rows, err := s.db.Query(`SELECT chrom, pos, ref, alt, contig, status, observed
		FROM ref_checks WHERE chrom = ? AND pos = ?`, chrom, pos)
	if err != nil {
		return nil, fmt.Errorf("query reference checks: %w", err)
	}
	defer rows.Close()

	var out []RefCheckRow
	for rows.Next() {
		var r RefCheckRow
		var status string
		if err := rows.Scan(&r.Chrom, &r.Pos, &r.Ref, &r.Alt, &r.Contig, &status, &r.Observed); err != nil {
			return nil, fmt.Errorf("scan reference check: %w", err)
		}
		r.Status = refcheck.Status(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference checks: %w", err)
	}
	return out, nil
}

// CountRefChecks returns the number of stored checks per status.
func (s *Store) CountRefChecks() (map[refcheck.Status]int, error) {
	rows, err := s.db.Query("SELECT status, count(*) FROM ref_checks GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count reference checks: %w", err)
	}
	defer rows.Close()

	counts := make(map[refcheck.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan reference check count: %w", err)
		}
		counts[refcheck.Status(status)] = n
	}
	return counts, rows.Err()
}

// ClearRefChecks removes all stored checks.
func (s *Store) ClearRefChecks() error {
	_, err := s.db.Exec("DELETE FROM ref_checks")
	return err
}
