package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// RecordSource stores fp as the source of the data exported under fp.Path,
// replacing any earlier record for that path.
func (s *Store) RecordSource(fp FileFingerprint) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO source_files VALUES (?, ?, ?, ?)",
		fp.Path, fp.Size, fp.ModTime.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record source %s: %w", fp.Path, err)
	}
	return nil
}

// SourceCurrent reports whether fp matches the recorded fingerprint for its
// path. Modification times are compared at microsecond precision, the
// resolution of a DuckDB TIMESTAMP.
func (s *Store) SourceCurrent(fp FileFingerprint) (bool, error) {
	var size int64
	var mod time.Time
	err := s.db.QueryRow("SELECT size, mod_time FROM source_files WHERE path = ?", fp.Path).Scan(&size, &mod)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query source %s: %w", fp.Path, err)
	}
	return size == fp.Size && mod.UnixMicro() == fp.ModTime.UnixMicro(), nil
}
