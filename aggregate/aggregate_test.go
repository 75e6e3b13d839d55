package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fwat/store"
)

func mustRange(t *testing.T, start, end string) Range {
	t.Helper()
	r, err := NewRange(start, end)
	require.NoError(t, err)
	return r
}

func member(days map[string]*store.DailyRecord) *store.MemberRecord {
	return &store.MemberRecord{Days: days}
}

func TestNewRangeRejectsInvertedAndGarbage(t *testing.T) {
	_, err := NewRange("2024-05-14", "2024-05-13")
	assert.Error(t, err)

	_, err = NewRange("not-a-date", "2024-05-13")
	assert.Error(t, err)
}

func TestRangeContains(t *testing.T) {
	r := mustRange(t, "2024-05-13", "2024-05-15")
	assert.True(t, r.Contains("2024-05-13"))
	assert.True(t, r.Contains("2024-05-15"))
	assert.False(t, r.Contains("2024-05-12"))
	assert.False(t, r.Contains("2024-05-16"))

	// Attribute keys that leak into a foreign snapshot are outside the range.
	assert.False(t, r.Contains("name"))
}

func TestRangeDays(t *testing.T) {
	r := mustRange(t, "2024-05-30", "2024-06-02")
	assert.Equal(t, []string{"2024-05-30", "2024-05-31", "2024-06-01", "2024-06-02"}, r.Days())
}

// A single member who visited two counters and wasted 300g credits each
// counter with 150g.
func TestTotalsSplitsWeightEvenlyAcrossCounters(t *testing.T) {
	s := store.Store{
		"001": member(map[string]*store.DailyRecord{
			"2024-05-13": {Stations: []string{"主食A", "面档"}, Weights: []float64{200, 100}},
		}),
	}

	report := Totals(s, mustRange(t, "2024-05-13", "2024-05-13"))
	assert.InDelta(t, 150, report.Total["主食A"], 1e-9)
	assert.InDelta(t, 150, report.Total["面档"], 1e-9)
	assert.Equal(t, 1, report.Tally["主食A"])
	assert.Equal(t, 1, report.Purchases["主食A"]["2024-05-13"])
	assert.InDelta(t, 150, report.Average["主食A"], 1e-9)
	assert.InDelta(t, 150, report.DailyAverage["主食A"]["2024-05-13"], 1e-9)
}

// Partial records (one source only) are excluded from counter totals, not
// treated as zero waste.
func TestTotalsExcludesPartialRecords(t *testing.T) {
	s := store.Store{
		"001": member(map[string]*store.DailyRecord{
			"2024-05-13": {Stations: []string{"主食A"}},
		}),
		"002": member(map[string]*store.DailyRecord{
			"2024-05-13": {Weights: []float64{80}},
		}),
		"003": member(map[string]*store.DailyRecord{
			"2024-05-13": {Stations: []string{"主食A"}, Weights: []float64{60}},
		}),
	}

	report := Totals(s, mustRange(t, "2024-05-13", "2024-05-13"))
	assert.InDelta(t, 60, report.Total["主食A"], 1e-9)
	assert.Equal(t, 1, report.Tally["主食A"])
	assert.InDelta(t, 60, report.Average["主食A"], 1e-9)
}

func TestTotalsAveragesAcrossMembersAndDays(t *testing.T) {
	s := store.Store{
		"001": member(map[string]*store.DailyRecord{
			"2024-05-13": {Stations: []string{"主食A"}, Weights: []float64{100}},
			"2024-05-14": {Stations: []string{"主食A"}, Weights: []float64{50}},
		}),
		"002": member(map[string]*store.DailyRecord{
			"2024-05-13": {Stations: []string{"主食A"}, Weights: []float64{30}},
		}),
	}

	report := Totals(s, mustRange(t, "2024-05-13", "2024-05-14"))
	assert.InDelta(t, 180, report.Total["主食A"], 1e-9)
	assert.Equal(t, 3, report.Tally["主食A"])
	assert.InDelta(t, 60, report.Average["主食A"], 1e-9)

	// Daily average divides that day's split weight by that day's visitors.
	assert.InDelta(t, 65, report.DailyAverage["主食A"]["2024-05-13"], 1e-9)
	assert.InDelta(t, 50, report.DailyAverage["主食A"]["2024-05-14"], 1e-9)
	assert.Equal(t, 2, report.Purchases["主食A"]["2024-05-13"])
}

func TestTotalsRespectsRangeFilter(t *testing.T) {
	s := store.Store{
		"001": member(map[string]*store.DailyRecord{
			"2024-05-13": {Stations: []string{"主食A"}, Weights: []float64{100}},
			"2024-06-01": {Stations: []string{"主食A"}, Weights: []float64{999}},
		}),
	}

	report := Totals(s, mustRange(t, "2024-05-13", "2024-05-31"))
	assert.InDelta(t, 100, report.Total["主食A"], 1e-9)
	assert.NotContains(t, report.Purchases["主食A"], "2024-06-01")
}

// Aggregation is pure: running it twice over the same store yields identical
// reports and never mutates the input.
func TestTotalsIsIdempotent(t *testing.T) {
	s := store.Store{
		"001": member(map[string]*store.DailyRecord{
			"2024-05-13": {Stations: []string{"主食A", "面档"}, Weights: []float64{90}},
		}),
	}
	r := mustRange(t, "2024-05-13", "2024-05-13")

	first := Totals(s, r)
	second := Totals(s, r)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Average, second.Average)
	assert.Equal(t, []float64{90}, s["001"].Days["2024-05-13"].Weights)
	assert.Equal(t, []string{"主食A", "面档"}, s["001"].Days["2024-05-13"].Stations)
}

func TestCategorizeBuckets(t *testing.T) {
	s := store.Store{
		"w1": member(map[string]*store.DailyRecord{
			"2024-05-13": {Weights: []float64{10}},
		}),
		"c1": member(map[string]*store.DailyRecord{
			"2024-05-13": {Stations: []string{"主食A"}},
		}),
		"b1": member(map[string]*store.DailyRecord{
			"2024-05-13": {Stations: []string{"主食A"}, Weights: []float64{10}},
		}),
		"mw": member(map[string]*store.DailyRecord{
			"2024-05-13": {Weights: []float64{10, 20}},
		}),
		"mc": member(map[string]*store.DailyRecord{
			"2024-05-13": {Stations: []string{"主食A", "面档"}},
		}),
		"mb": member(map[string]*store.DailyRecord{
			"2024-05-13": {Stations: []string{"主食A", "面档"}, Weights: []float64{10, 20}},
		}),
	}

	cats, bothPerDay := Categorize(s, mustRange(t, "2024-05-13", "2024-05-13"))
	assert.Equal(t, 1, cats.WeightsNoCounters)
	assert.Equal(t, 1, cats.CountersNoWeights)
	assert.Equal(t, 1, cats.Both)
	assert.Equal(t, 1, cats.MultipleWeightsNoCounters)
	assert.Equal(t, 1, cats.MultipleCountersNoWeights)
	assert.Equal(t, 1, cats.MultipleBoth)
	assert.Equal(t, 1, bothPerDay["2024-05-13"])
}

// Multiple weights with a single counter is still "both": the multiple
// buckets require the other source to be missing or also multiple.
func TestCategorizeMixedMultiplicityIsBoth(t *testing.T) {
	s := store.Store{
		"001": member(map[string]*store.DailyRecord{
			"2024-05-13": {Stations: []string{"主食A"}, Weights: []float64{10, 20}},
		}),
		"002": member(map[string]*store.DailyRecord{
			"2024-05-13": {Stations: []string{"主食A", "面档"}, Weights: []float64{10}},
		}),
	}

	cats, _ := Categorize(s, mustRange(t, "2024-05-13", "2024-05-13"))
	assert.Equal(t, 2, cats.Both)
	assert.Equal(t, 0, cats.MultipleBoth)
	assert.Equal(t, 0, cats.MultipleWeightsNoCounters)
	assert.Equal(t, 0, cats.MultipleCountersNoWeights)
}

// Every filtered record lands in exactly one bucket.
func TestCategorizeIsExhaustive(t *testing.T) {
	s := store.Store{
		"001": member(map[string]*store.DailyRecord{
			"2024-05-13": {Stations: []string{"主食A"}, Weights: []float64{10}},
			"2024-05-14": {Weights: []float64{10}},
			"2024-05-15": {Stations: []string{"主食A", "面档"}},
		}),
	}

	cats, _ := Categorize(s, mustRange(t, "2024-05-13", "2024-05-15"))
	sum := cats.WeightsNoCounters + cats.CountersNoWeights + cats.Both +
		cats.MultipleWeightsNoCounters + cats.MultipleCountersNoWeights + cats.MultipleBoth
	assert.Equal(t, 3, sum)
}
