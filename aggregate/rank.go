package aggregate

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// RankedEntry is one counter with its ranked value.
type RankedEntry struct {
	Counter string  `json:"counter"`
	Value   float64 `json:"value"`
}

// Rank orders counters by descending value. Ties are broken by collating the
// counter names (the POS names are Chinese), keeping rankings stable across
// runs despite map iteration order.
func Rank(values map[string]float64) []RankedEntry {
	entries := make([]RankedEntry, 0, len(values))
	for counter, value := range values {
		entries = append(entries, RankedEntry{Counter: counter, Value: value})
	}

	coll := collate.New(language.Chinese)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return coll.CompareString(entries[i].Counter, entries[j].Counter) < 0
	})
	return entries
}

// RankInts is Rank for integer-valued tallies.
func RankInts(values map[string]int) []RankedEntry {
	floats := make(map[string]float64, len(values))
	for counter, value := range values {
		floats[counter] = float64(value)
	}
	return Rank(floats)
}
