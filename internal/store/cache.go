// Package store provides a SQLite-backed cache for aggregated transaction data.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/salescast/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

const dayLayout = "2006-01-02"

// Cache provides SQLite-backed daily series caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a data file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// Entry is a cached aggregation of one transaction file.
type Entry struct {
	FileInfo
	Summary model.DataSummary
	Daily   []model.DailyQty
}

// Tracked returns the file info recorded for path, or ok=false.
func (c *Cache) Tracked(path string) (FileInfo, bool, error) {
	var fi FileInfo
	err := c.db.QueryRow("SELECT mtime_ns, size_bytes FROM data_files WHERE file_path = ?", path).
		Scan(&fi.MtimeNs, &fi.SizeBytes)
	if errors.Is(err, sql.ErrNoRows) {
		return FileInfo{}, false, nil
	}
	if err != nil {
		return FileInfo{}, false, err
	}
	return fi, true, nil
}

// Save replaces the cached aggregation for path.
func (c *Cache) Save(path string, e Entry) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	if _, err := tx.Exec("DELETE FROM daily_qty WHERE file_path = ?", path); err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO data_files
		(file_path, mtime_ns, size_bytes, record_count, first_date, last_date, total_qty, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		path, e.MtimeNs, e.SizeBytes, e.Summary.Records,
		e.Summary.FirstDate.Format(dayLayout), e.Summary.LastDate.Format(dayLayout),
		e.Summary.TotalQty, now,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO daily_qty (file_path, day, qty) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, d := range e.Daily {
		if _, err := stmt.Exec(path, d.Date.Format(dayLayout), d.Qty); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Load reads the cached aggregation for path. ok is false when nothing is cached.
func (c *Cache) Load(path string) (Entry, bool, error) {
	var (
		e           Entry
		first, last string
	)
	err := c.db.QueryRow(`SELECT mtime_ns, size_bytes, record_count, first_date, last_date, total_qty
		FROM data_files WHERE file_path = ?`, path).
		Scan(&e.MtimeNs, &e.SizeBytes, &e.Summary.Records, &first, &last, &e.Summary.TotalQty)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	if e.Summary.FirstDate, err = time.Parse(dayLayout, first); err != nil {
		return Entry{}, false, fmt.Errorf("cached first_date: %w", err)
	}
	if e.Summary.LastDate, err = time.Parse(dayLayout, last); err != nil {
		return Entry{}, false, fmt.Errorf("cached last_date: %w", err)
	}

	rows, err := c.db.Query("SELECT day, qty FROM daily_qty WHERE file_path = ? ORDER BY day", path)
	if err != nil {
		return Entry{}, false, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var day string
		var d model.DailyQty
		if err := rows.Scan(&day, &d.Qty); err != nil {
			return Entry{}, false, err
		}
		if d.Date, err = time.Parse(dayLayout, day); err != nil {
			return Entry{}, false, fmt.Errorf("cached day %q: %w", day, err)
		}
		e.Daily = append(e.Daily, d)
	}
	if err := rows.Err(); err != nil {
		return Entry{}, false, err
	}

	return e, true, nil
}

// Delete removes the cached aggregation for path.
func (c *Cache) Delete(path string) error {
	_, err := c.db.Exec("DELETE FROM data_files WHERE file_path = ?", path)
	return err
}

// FileCount returns the number of cached data files.
func (c *Cache) FileCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM data_files").Scan(&count)
	return count, err
}
