package duckdb

import (
	"database/sql"
	"errors"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-ref/internal/reference"
)

// ContigRow is one exported contig.
type ContigRow struct {
	Name        string
	Position    int
	Length      int64
	Description string
	Sequence    string
}

// WriteContigs batch-inserts contigs using the Appender API.
func (s *Store) WriteContigs(rows []ContigRow) error {
	if len(rows) == 0 {
		return nil
	}
	return s.withAppender("contigs", func(a *goduckdb.Appender) error {
		for _, r := range rows {
			if err := appendContig(a, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func appendContig(a *goduckdb.Appender, r ContigRow) error {
	if err := a.AppendRow(r.Name, int32(r.Position), r.Length, r.Description, r.Sequence); err != nil {
		return fmt.Errorf("append contig %s: %w", r.Name, err)
	}
	return nil
}

// ExportRecords streams every record of it into the contigs table and
// returns the number written. Positions follow iteration order.
func (s *Store) ExportRecords(it reference.Iterator) (int, error) {
	n := 0
	err := s.withAppender("contigs", func(a *goduckdb.Appender) error {
		for {
			rec, err := it.Next()
			if err != nil {
				return fmt.Errorf("read contig: %w", err)
			}
			if rec == nil {
				return nil
			}
			row := ContigRow{Name: rec.Name, Position: n, Length: int64(len(rec.Bases)), Sequence: rec.Bases}
			if err := appendContig(a, row); err != nil {
				return err
			}
			n++
		}
	})
	return n, err
}

// ContigCount returns the number of stored contigs.
func (s *Store) ContigCount() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT count(*) FROM contigs").Scan(&n); err != nil {
		return 0, fmt.Errorf("count contigs: %w", err)
	}
	return n, nil
}

// Contigs returns the stored contig descriptions in position order.
func (s *Store) Contigs() ([]reference.Contig, error) {
	rows, err := s.db.Query("SELECT name, length, position, description FROM contigs ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query contigs: %w", err)
	}
	defer rows.Close()

	var out []reference.Contig
	for rows.Next() {
		var c reference.Contig
		var desc sql.NullString
		if err := rows.Scan(&c.Name, &c.Length, &c.Position, &desc); err != nil {
			return nil, fmt.Errorf("scan contig: %w", err)
		}
		c.Description = desc.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contigs: %w", err)
	}
	return out, nil
}

// ContigSequence returns bases [start, end) of a stored contig.
func (s *Store) ContigSequence(name string, start, end int64) (string, error) {
	var length int64
	var seq string
	err := s.db.QueryRow(
		"SELECT length, substr(sequence, ?, ?) FROM contigs WHERE name = ?",
		start+1, max(end-start, 0), name,
	).Scan(&length, &seq)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: unknown contig %s", reference.ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("query contig %s: %w", name, err)
	}
	if start < 0 || start > end || end > length {
		return "", fmt.Errorf("%w: invalid interval %s [%d, %d)", reference.ErrInvalidArgument, name, start, end)
	}
	return seq, nil
}

// ClearContigs removes all stored contigs together with the source
// fingerprints they were exported from.
func (s *Store) ClearContigs() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"contigs", "source_files"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}
