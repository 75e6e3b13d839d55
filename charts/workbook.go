// Package charts renders aggregation series as line charts inside an Excel
// workbook, one sheet per plot. The workbook is what gets mailed to staff.
package charts

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
)

// Excel sheet names are capped at 31 characters.
const maxSheetName = 31

// Workbook accumulates chart sheets and saves them as one .xlsx file.
type Workbook struct {
	f      *excelize.File
	sheets int
}

// NewWorkbook creates an empty chart workbook.
func NewWorkbook() *Workbook {
	return &Workbook{f: excelize.NewFile()}
}

// AddLineChart writes one sheet holding the series data block (days across
// the top, one row per series) and a line chart over it. Series keys are
// series names, values are day -> value maps; days lists the category axis
// in order.
func (w *Workbook) AddLineChart(name, title string, series map[string]map[string]float64, days []string) error {
	if len(series) == 0 || len(days) == 0 {
		return fmt.Errorf("chart %q has no data", name)
	}

	sheet := sanitizeSheetName(name)
	if w.sheets == 0 {
		// excelize starts every workbook with a default sheet; reuse it.
		if err := w.f.SetSheetName(w.f.GetSheetName(0), sheet); err != nil {
			return fmt.Errorf("failed to rename chart sheet: %w", err)
		}
	} else {
		if _, err := w.f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create chart sheet: %w", err)
		}
	}
	w.sheets++

	// Header row: day labels from B1.
	for i, day := range days {
		cell, err := excelize.CoordinatesToCellName(i+2, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := w.f.SetCellValue(sheet, cell, day); err != nil {
			return fmt.Errorf("failed to write day header: %w", err)
		}
	}

	names := make([]string, 0, len(series))
	for n := range series {
		names = append(names, n)
	}
	sort.Strings(names)

	lastCol, err := excelize.ColumnNumberToName(len(days) + 1)
	if err != nil {
		return fmt.Errorf("failed to compute last column: %w", err)
	}

	chartSeries := make([]excelize.ChartSeries, 0, len(names))
	for rowIdx, seriesName := range names {
		row := rowIdx + 2
		nameCell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("failed to compute series name cell: %w", err)
		}
		if err := w.f.SetCellValue(sheet, nameCell, seriesName); err != nil {
			return fmt.Errorf("failed to write series name: %w", err)
		}

		values := series[seriesName]
		for i, day := range days {
			if value, ok := values[day]; ok {
				cell, err := excelize.CoordinatesToCellName(i+2, row)
				if err != nil {
					return fmt.Errorf("failed to compute value cell: %w", err)
				}
				if err := w.f.SetCellValue(sheet, cell, value); err != nil {
					return fmt.Errorf("failed to write series value: %w", err)
				}
			}
		}

		chartSeries = append(chartSeries, excelize.ChartSeries{
			Name:       fmt.Sprintf("'%s'!$A$%d", sheet, row),
			Categories: fmt.Sprintf("'%s'!$B$1:$%s$1", sheet, lastCol),
			Values:     fmt.Sprintf("'%s'!$B$%d:$%s$%d", sheet, row, lastCol, row),
		})
	}

	anchor, err := excelize.CoordinatesToCellName(1, len(names)+3)
	if err != nil {
		return fmt.Errorf("failed to compute chart anchor: %w", err)
	}
	if err := w.f.AddChart(sheet, anchor, &excelize.Chart{
		Type:   excelize.Line,
		Series: chartSeries,
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "bottom"},
	}); err != nil {
		return fmt.Errorf("failed to add chart %q: %w", name, err)
	}
	return nil
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	if w.sheets == 0 {
		return fmt.Errorf("chart workbook is empty")
	}
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save chart workbook: %w", err)
	}
	return nil
}

// Close releases the underlying file resources.
func (w *Workbook) Close() error {
	return w.f.Close()
}

func sanitizeSheetName(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}
