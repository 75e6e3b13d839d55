package aggregate

import (
	"sort"

	"fwat/store"
)

// Attribute selects the member attribute a category series groups by.
type Attribute string

const (
	AttrHouse        Attribute = "house"
	AttrYearGroup    Attribute = "yeargroup"
	AttrFormClass    Attribute = "formclass"
	AttrStaffStudent Attribute = "staff_student"
)

// Staff/student bucket names. A member with attributes but no year group is
// staff; members without attributes cannot be classified and are skipped.
const (
	BucketStaff   = "staff"
	BucketStudent = "student"
)

// GroupSeries holds per-(category, day) wastage totals and contributing
// member-visit counts.
type GroupSeries struct {
	Total   map[string]map[string]float64
	Members map[string]map[string]int
}

// GroupTotals groups members by attr and accumulates, for every day in range
// with at least one measurement, the category's total weight and member
// count. Form classes are only unique within a year group, so AttrFormClass
// keeps members whose year group is in allowedYearGroups (empty list: keep
// all).
func GroupTotals(s store.Store, r Range, attr Attribute, allowedYearGroups []string) GroupSeries {
	series := GroupSeries{
		Total:   make(map[string]map[string]float64),
		Members: make(map[string]map[string]int),
	}

	allowed := make(map[string]bool, len(allowedYearGroups))
	for _, yg := range allowedYearGroups {
		allowed[yg] = true
	}

	for _, member := range s {
		category, ok := memberCategory(member, attr)
		if !ok {
			continue
		}
		if attr == AttrFormClass && len(allowed) > 0 && !allowed[member.YearGroup] {
			continue
		}

		for day, rec := range member.Days {
			if !r.Contains(day) || !rec.HasWeights() {
				continue
			}
			if series.Total[category] == nil {
				series.Total[category] = make(map[string]float64)
				series.Members[category] = make(map[string]int)
			}
			series.Total[category][day] += rec.TotalWeight()
			series.Members[category][day]++
		}
	}
	return series
}

func memberCategory(m *store.MemberRecord, attr Attribute) (string, bool) {
	switch attr {
	case AttrHouse:
		return m.House, m.House != ""
	case AttrYearGroup:
		return m.YearGroup, m.YearGroup != ""
	case AttrFormClass:
		return m.FormClass, m.FormClass != ""
	case AttrStaffStudent:
		if !m.HasAttributes() {
			return "", false
		}
		if m.YearGroup == "" {
			return BucketStaff, true
		}
		return BucketStudent, true
	}
	return "", false
}

// Cumulative returns each category's running total over the full requested
// range. Days with no data contribute 0 but still appear, so every series
// spans the whole range.
func (g GroupSeries) Cumulative(r Range) map[string]map[string]float64 {
	days := r.Days()
	out := make(map[string]map[string]float64, len(g.Total))
	for category, daily := range g.Total {
		running := 0.0
		series := make(map[string]float64, len(days))
		for _, day := range days {
			running += daily[day]
			series[day] = running
		}
		out[category] = series
	}
	return out
}

// DailyAveragePerMember returns each category's per-member daily average.
// Days with zero contributing members are omitted rather than divided by
// zero.
func (g GroupSeries) DailyAveragePerMember() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(g.Total))
	for category, daily := range g.Total {
		series := make(map[string]float64, len(daily))
		for day, total := range daily {
			count := g.Members[category][day]
			if count == 0 {
				continue
			}
			series[day] = total / float64(count)
		}
		out[category] = series
	}
	return out
}

// DailyWastePerCounter accumulates, per counter and day, the full (unsplit)
// total weight of every member who visited that counter. The cumulative
// waste plot has always charged each visited counter the whole day's weight;
// feed the result through CumulativeSeries to reproduce it.
func DailyWastePerCounter(s store.Store, r Range) map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	for _, member := range s {
		for day, rec := range member.Days {
			if !r.Contains(day) || !rec.HasWeights() || !rec.HasStations() {
				continue
			}
			total := rec.TotalWeight()
			for _, counter := range rec.Stations {
				if out[counter] == nil {
					out[counter] = make(map[string]float64)
				}
				out[counter][day] += total
			}
		}
	}
	return out
}

// CumulativeSeries converts a per-day map into a cumulative one over its own
// sorted days. Used for per-counter purchase and wastage plots.
func CumulativeSeries(daily map[string]float64) map[string]float64 {
	days := make([]string, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make(map[string]float64, len(daily))
	running := 0.0
	for _, day := range days {
		running += daily[day]
		out[day] = running
	}
	return out
}
