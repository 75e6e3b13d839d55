package translator

import (
	"fmt"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Lookup workbook column headers. 会员编号 is the member (card) number as used
// by the point-of-sale terminals, 卡号 the weighing-service member ID.
const (
	ColumnShortID = "会员编号"
	ColumnLongID  = "卡号"
)

// LoadWorkbook builds a table from the static lookup workbook. Columns are
// located by header, not position. Rows with unparsable IDs are skipped and
// counted; a missing column is ErrMalformedSource.
func LoadWorkbook(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in lookup workbook %s", path)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup workbook rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("lookup workbook %s has no data rows", path)
	}

	shortCol, longCol := -1, -1
	for i, header := range rows[0] {
		switch strings.TrimSpace(header) {
		case ColumnShortID:
			shortCol = i
		case ColumnLongID:
			longCol = i
		}
	}
	if shortCol == -1 || longCol == -1 {
		return nil, fmt.Errorf("%w: want %s and %s, got %v",
			ErrMalformedSource, ColumnShortID, ColumnLongID, rows[0])
	}

	table := New()
	skipped := 0
	for _, row := range rows[1:] {
		if shortCol >= len(row) || longCol >= len(row) {
			skipped++
			continue
		}
		shortID := CanonicalShort(row[shortCol])
		if shortID == "" {
			skipped++
			continue
		}
		longID, err := CanonicalLong(row[longCol])
		if err != nil {
			skipped++
			continue
		}
		table.Add(shortID, longID)
	}

	if skipped > 0 {
		log.Printf("Lookup table: skipped %d unparsable rows out of %d", skipped, len(rows)-1)
	}
	return table, nil
}
