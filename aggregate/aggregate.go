// Package aggregate derives per-counter and per-category wastage statistics
// from a unified store. Every function is pure: the store is never mutated
// and nothing is cached between calls.
package aggregate

import (
	"fmt"
	"time"

	"fwat/store"
)

// Range is an inclusive calendar-day filter.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange parses an inclusive ISO date range.
func NewRange(start, end string) (Range, error) {
	s, err := time.Parse(store.DayLayout, start)
	if err != nil {
		return Range{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.Parse(store.DayLayout, end)
	if err != nil {
		return Range{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if e.Before(s) {
		return Range{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return Range{Start: s, End: e}, nil
}

// Contains reports whether the ISO day falls inside the range. Unparsable
// keys (stray attribute keys in foreign snapshots) are outside by definition.
func (r Range) Contains(day string) bool {
	d, err := time.Parse(store.DayLayout, day)
	if err != nil {
		return false
	}
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days lists every day of the range in order.
func (r Range) Days() []string {
	var days []string
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(store.DayLayout))
	}
	return days
}

// Report is the per-counter aggregation output consumed by presentation.
// Wastage figures are grams. A day's total weight is split evenly across the
// counters visited that day: the scales cannot attribute waste to a specific
// counter, so a member who visited 3 counters and wasted 300g credits each
// with 100g. This is a known approximation, kept because the downstream
// averages depend on it.
type Report struct {
	Store        store.Store                   `json:"-"`
	Average      map[string]float64            `json:"average_wastage"`
	Total        map[string]float64            `json:"total_wastage"`
	Tally        map[string]int                `json:"tally"`
	Purchases    map[string]map[string]int     `json:"purchases_per_day"`
	DailyAverage map[string]map[string]float64 `json:"daily_average_wastage"`
}

// Totals computes the per-counter totals, tallies, per-day purchase counts
// and per-day average wastage over the filtered range. Only (member, day)
// records with both visits and weights contribute; partial records are
// excluded, not treated as zero.
func Totals(s store.Store, r Range) *Report {
	report := &Report{
		Store:        s,
		Average:      make(map[string]float64),
		Total:        make(map[string]float64),
		Tally:        make(map[string]int),
		Purchases:    make(map[string]map[string]int),
		DailyAverage: make(map[string]map[string]float64),
	}

	dailyTotal := make(map[string]map[string]float64)
	dailyCount := make(map[string]map[string]int)

	for _, member := range s {
		for day, rec := range member.Days {
			if !r.Contains(day) {
				continue
			}
			if !rec.HasWeights() || !rec.HasStations() {
				continue
			}

			weightPerCounter := rec.TotalWeight() / float64(len(rec.Stations))
			for _, counter := range rec.Stations {
				report.Total[counter] += weightPerCounter
				report.Tally[counter]++

				if report.Purchases[counter] == nil {
					report.Purchases[counter] = make(map[string]int)
				}
				report.Purchases[counter][day]++

				if dailyTotal[counter] == nil {
					dailyTotal[counter] = make(map[string]float64)
					dailyCount[counter] = make(map[string]int)
				}
				dailyTotal[counter][day] += weightPerCounter
				dailyCount[counter][day]++
			}
		}
	}

	for counter, total := range report.Total {
		report.Average[counter] = total / float64(report.Tally[counter])
	}
	for counter, days := range dailyTotal {
		report.DailyAverage[counter] = make(map[string]float64, len(days))
		for day, total := range days {
			report.DailyAverage[counter][day] = total / float64(dailyCount[counter][day])
		}
	}
	return report
}

// Categories counts every (member, day) record in exactly one of six
// mutually exclusive buckets. Multiple-combination buckets take precedence
// over the single ones; "both" only applies when neither does.
type Categories struct {
	WeightsNoCounters         int `json:"weights_no_counters"`
	CountersNoWeights         int `json:"counters_no_weights"`
	Both                      int `json:"both"`
	MultipleWeightsNoCounters int `json:"multiple_weights_no_counters"`
	MultipleCountersNoWeights int `json:"multiple_counters_no_weights"`
	MultipleBoth              int `json:"multiple_both"`
}

// Categorize classifies the filtered records and additionally counts, per
// day, how many members had both visits and weights.
func Categorize(s store.Store, r Range) (Categories, map[string]int) {
	var cats Categories
	bothPerDay := make(map[string]int)

	for _, member := range s {
		for day, rec := range member.Days {
			if !r.Contains(day) {
				continue
			}
			hasWeights := rec.HasWeights()
			hasCounters := rec.HasStations()
			multipleWeights := len(rec.Weights) > 1
			multipleCounters := len(rec.Stations) > 1

			switch {
			case multipleWeights && !hasCounters:
				cats.MultipleWeightsNoCounters++
			case multipleCounters && !hasWeights:
				cats.MultipleCountersNoWeights++
			case multipleWeights && multipleCounters:
				cats.MultipleBoth++
			case hasWeights && !hasCounters:
				cats.WeightsNoCounters++
			case hasCounters && !hasWeights:
				cats.CountersNoWeights++
			case hasWeights && hasCounters:
				cats.Both++
				bothPerDay[day]++
			}
		}
	}
	return cats, bothPerDay
}
