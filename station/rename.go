package station

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// RenameLedgers renames month-day-named ledger workbooks
// ("餐线消费数据-May 13.xlsx") to their ISO-dated form so the daily loader can
// find them directly. Files whose target name already exists are skipped.
// It returns the number of files renamed.
func RenameLedgers(dir, prefix string, year int) (int, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	pattern, err := regexp.Compile("^" + regexp.QuoteMeta(prefix) + `([A-Za-z]+ \d+)\.xlsx$`)
	if err != nil {
		return 0, fmt.Errorf("failed to compile ledger name pattern: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read ledger directory: %w", err)
	}

	renamed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xlsx") {
			continue
		}
		match := pattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		day, err := ParseSheetDay(match[1], year)
		if err != nil {
			log.Printf("Skipping ledger %s: %v", entry.Name(), err)
			continue
		}

		oldPath := filepath.Join(dir, entry.Name())
		newPath := filepath.Join(dir, prefix+day+".xlsx")
		if _, err := os.Stat(newPath); err == nil {
			log.Printf("Ledger %s already exists, keeping %s", filepath.Base(newPath), entry.Name())
			continue
		}
		if err := os.Rename(oldPath, newPath); err != nil {
			return renamed, fmt.Errorf("failed to rename ledger %s: %w", entry.Name(), err)
		}
		renamed++
	}
	return renamed, nil
}
