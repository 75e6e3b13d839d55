// Package station loads the daily point-of-sale ledgers exported by the
// canteen terminals as Excel workbooks.
package station

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"fwat/store"
)

// DefaultPrefix is the ledger filename prefix used by the terminal export
// ("canteen line consumption data").
const DefaultPrefix = "餐线消费数据-"

// Ledger workbook column headers: member (card) number and POS terminal name.
const (
	ColumnShortID = "会员编号"
	ColumnCounter = "POS机名称"
)

// ErrMalformedSource indicates a ledger sheet is missing a required column.
var ErrMalformedSource = errors.New("station ledger is missing a required column")

// Visit is one point-of-sale event: a card seen at a counter.
type Visit struct {
	ShortID string
	Counter string
}

// Loader reads per-day ledgers from a data directory. A day's visits come
// either from a dedicated <prefix><day>.xlsx workbook or from a month
// workbook with one sheet per day (sheets named like "Jun 3").
type Loader struct {
	dir    string
	prefix string

	mu         sync.Mutex
	monthCache map[string]map[string][]Visit // month file path -> day -> visits
}

// NewLoader creates a loader over dir. An empty prefix selects DefaultPrefix.
func NewLoader(dir, prefix string) *Loader {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Loader{
		dir:        dir,
		prefix:     prefix,
		monthCache: make(map[string]map[string][]Visit),
	}
}

// Load returns the visits recorded on day (ISO date), in row order.
// Days with no ledger return (nil, nil): absent, not an error.
func (l *Loader) Load(day string) ([]Visit, error) {
	date, err := time.Parse(store.DayLayout, day)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}

	dailyPath := filepath.Join(l.dir, l.prefix+day+".xlsx")
	if _, err := os.Stat(dailyPath); err == nil {
		visits, err := readSheetVisits(dailyPath, "")
		if err != nil {
			return nil, err
		}
		return visits, nil
	}

	return l.loadFromMonthWorkbook(date, day)
}

// loadFromMonthWorkbook serves days out of a month workbook such as
// "餐线消费数据-June.xlsx", whose sheets are named "Jun 3". The workbook is
// parsed once and cached.
func (l *Loader) loadFromMonthWorkbook(date time.Time, day string) ([]Visit, error) {
	path := filepath.Join(l.dir, l.prefix+date.Month().String()+".xlsx")
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	byDay, ok := l.monthCache[path]
	if !ok {
		var err error
		byDay, err = readMonthWorkbook(path, date.Year())
		if err != nil {
			return nil, err
		}
		l.monthCache[path] = byDay
	}
	return byDay[day], nil
}

// readMonthWorkbook parses every sheet of a month workbook, keying visits by
// the ISO date derived from the sheet name and the given year.
func readMonthWorkbook(path string, year int) (map[string][]Visit, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open month workbook: %w", err)
	}
	defer f.Close()

	byDay := make(map[string][]Visit)
	for _, sheet := range f.GetSheetList() {
		date, err := ParseSheetDay(sheet, year)
		if err != nil {
			continue // sheets that are not day-named carry no ledger data
		}
		visits, err := sheetVisits(f, sheet)
		if err != nil {
			return nil, err
		}
		byDay[date] = visits
	}
	return byDay, nil
}

// ParseSheetDay converts a "Jun 3" style sheet name to an ISO date in year.
func ParseSheetDay(name string, year int) (string, error) {
	date, err := time.Parse("Jan 2", strings.TrimSpace(name))
	if err != nil {
		return "", fmt.Errorf("sheet %q is not day-named: %w", name, err)
	}
	return date.AddDate(year, 0, 0).Format(store.DayLayout), nil
}

// readSheetVisits reads one workbook sheet's visits. An empty sheet name
// selects the first sheet.
func readSheetVisits(path, sheet string) ([]Visit, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open station ledger: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("no sheets found in station ledger %s", path)
		}
	}
	return sheetVisits(f, sheet)
}

func sheetVisits(f *excelize.File, sheet string) ([]Visit, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read station ledger rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idCol, counterCol := -1, -1
	for i, header := range rows[0] {
		switch strings.TrimSpace(header) {
		case ColumnShortID:
			idCol = i
		case ColumnCounter:
			counterCol = i
		}
	}
	if idCol == -1 || counterCol == -1 {
		return nil, fmt.Errorf("%w: want %s and %s, got %v",
			ErrMalformedSource, ColumnShortID, ColumnCounter, rows[0])
	}

	var visits []Visit
	for _, row := range rows[1:] {
		if idCol >= len(row) || counterCol >= len(row) {
			continue
		}
		shortID := strings.TrimSpace(row[idCol])
		counter := strings.TrimSpace(row[counterCol])
		if shortID == "" || counter == "" {
			continue
		}
		visits = append(visits, Visit{ShortID: shortID, Counter: counter})
	}
	return visits, nil
}
