package charts

import (
	"fmt"

	"fwat/aggregate"
	"fwat/store"
)

// AddCounterRecap adds the standard per-counter plots — daily averages,
// cumulative waste, cumulative purchases — as three sheets.
func (w *Workbook) AddCounterRecap(s store.Store, r aggregate.Range) error {
	report := aggregate.Totals(s, r)
	if len(report.Total) == 0 {
		return fmt.Errorf("no counter data in range %s to %s",
			r.Start.Format(store.DayLayout), r.End.Format(store.DayLayout))
	}
	days := r.Days()

	if err := w.AddLineChart("Counter Averages", "Counter Averages Over Time",
		report.DailyAverage, days); err != nil {
		return err
	}

	waste := make(map[string]map[string]float64)
	for counter, daily := range aggregate.DailyWastePerCounter(s, r) {
		waste[counter] = aggregate.CumulativeSeries(daily)
	}
	if err := w.AddLineChart("Cumulative Waste", "Cumulative Food Waste Over Time",
		waste, days); err != nil {
		return err
	}

	purchases := make(map[string]map[string]float64)
	for counter, daily := range report.Purchases {
		floats := make(map[string]float64, len(daily))
		for day, count := range daily {
			floats[day] = float64(count)
		}
		purchases[counter] = aggregate.CumulativeSeries(floats)
	}
	return w.AddLineChart("Cumulative Purchases", "Cumulative Purchases Over Time",
		purchases, days)
}

// AddCategoryRecap adds one attribute's cumulative and per-member
// daily-average plots as two sheets.
func (w *Workbook) AddCategoryRecap(s store.Store, r aggregate.Range,
	attr aggregate.Attribute, allowedYearGroups []string) error {
	series := aggregate.GroupTotals(s, r, attr, allowedYearGroups)
	if len(series.Total) == 0 {
		return fmt.Errorf("no %s data in range %s to %s",
			attr, r.Start.Format(store.DayLayout), r.End.Format(store.DayLayout))
	}
	days := r.Days()

	title := string(attr)
	if err := w.AddLineChart("Cumulative "+title, "Cumulative Waste by "+title,
		series.Cumulative(r), days); err != nil {
		return err
	}
	return w.AddLineChart("Daily Average "+title, "Daily Waste per Member by "+title,
		series.DailyAveragePerMember(), days)
}

// BuildReportWorkbook renders the per-counter recap into a workbook at path.
func BuildReportWorkbook(s store.Store, r aggregate.Range, path string) error {
	wb := NewWorkbook()
	defer wb.Close()
	if err := wb.AddCounterRecap(s, r); err != nil {
		return err
	}
	return wb.SaveAs(path)
}

// BuildCategoryWorkbook renders one category attribute's recap into a
// workbook at path.
func BuildCategoryWorkbook(s store.Store, r aggregate.Range, attr aggregate.Attribute,
	allowedYearGroups []string, path string) error {
	wb := NewWorkbook()
	defer wb.Close()
	if err := wb.AddCategoryRecap(s, r, attr, allowedYearGroups); err != nil {
		return err
	}
	return wb.SaveAs(path)
}
