package translator

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// The lookup workbook is slow to read, so the built table is cached in a
// local SQLite database between runs. Rebuilding the cache is idempotent.

const cacheSchema = `
CREATE TABLE IF NOT EXISTS id_map (
	short_id TEXT PRIMARY KEY,
	long_id  INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_id_map_long ON id_map(long_id);
`

// SaveCache writes the table to the cache database, replacing existing pairs.
func SaveCache(t *Table, path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open translator cache: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(cacheSchema); err != nil {
		return fmt.Errorf("failed to create translator cache schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO id_map (short_id, long_id) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for shortID, longID := range t.forward {
		if _, err := stmt.Exec(shortID, longID); err != nil {
			return fmt.Errorf("failed to cache pair %s -> %d: %w", shortID, longID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit translator cache: %w", err)
	}
	return nil
}

// LoadCache reads a previously cached table. An empty cache is an error so
// callers fall back to the workbook instead of running with no mappings.
func LoadCache(path string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("translator cache not available: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open translator cache: %w", err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT short_id, long_id FROM id_map")
	if err != nil {
		return nil, fmt.Errorf("failed to query translator cache: %w", err)
	}
	defer rows.Close()

	table := New()
	for rows.Next() {
		var shortID string
		var longID int64
		if err := rows.Scan(&shortID, &longID); err != nil {
			return nil, fmt.Errorf("failed to scan cached pair: %w", err)
		}
		table.Add(shortID, longID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate translator cache: %w", err)
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("translator cache %s is empty", path)
	}
	return table, nil
}

// Build returns the translator table, preferring the cache and falling back
// to the workbook. A fresh workbook read refreshes the cache; cache write
// failures are logged, not fatal.
func Build(workbookPath, cachePath string) (*Table, error) {
	if cachePath != "" {
		if table, err := LoadCache(cachePath); err == nil {
			log.Printf("Translator: loaded %d ID pairs from cache %s", table.Len(), cachePath)
			return table, nil
		}
	}

	table, err := LoadWorkbook(workbookPath)
	if err != nil {
		return nil, err
	}
	log.Printf("Translator: loaded %d ID pairs from workbook %s", table.Len(), workbookPath)

	if cachePath != "" {
		if err := SaveCache(table, cachePath); err != nil {
			log.Printf("Warning: failed to write translator cache: %v", err)
		}
	}
	return table, nil
}
