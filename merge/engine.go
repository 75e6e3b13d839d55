// Package merge reconciles the two canteen data sources — station ledgers
// keyed by short card IDs and weighing records keyed by long API IDs — into
// the unified per-member store.
package merge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fwat/station"
	"fwat/store"
	"fwat/translator"
	"fwat/weights"
)

// ErrNoData is returned when both sources are empty over the whole requested
// range. No snapshot is written in that case.
var ErrNoData = errors.New("no station or weight data found for the requested range")

// Translator is the bidirectional ID mapping the engine translates through.
type Translator interface {
	Forward(shortID string) (int64, bool)
	Reverse(longID int64) (string, bool)
}

// StationLoader supplies one day's point-of-sale visits.
type StationLoader interface {
	Load(day string) ([]station.Visit, error)
}

// WeightLoader supplies the weighing events and attribute side table for a
// date range.
type WeightLoader interface {
	Load(ctx context.Context, start, end time.Time) (weights.ByDay, weights.AttributeTable, error)
}

// Stats are the diagnostic counters emitted by a merge run. They are
// telemetry for the operator, not part of the data contract.
type Stats struct {
	StationMatched   int `json:"station_matched"`
	StationUnmatched int `json:"station_unmatched"`
	StationNoMatch   int `json:"station_no_match_sentinel"`
	WeightMatched    int `json:"weight_matched"`
	WeightUnmatched  int `json:"weight_unmatched"`

	MembersWithAttributes    int `json:"members_with_attributes"`
	MembersWithoutAttributes int `json:"members_without_attributes"`
}

// Summary renders the post-run operator report.
func (s Stats) Summary() string {
	return fmt.Sprintf(
		"station visits: %d matched, %d unmatched, %d 'No Match' rows; "+
			"weight events: %d matched, %d unmatched; "+
			"members: %d with attributes, %d without",
		s.StationMatched, s.StationUnmatched, s.StationNoMatch,
		s.WeightMatched, s.WeightUnmatched,
		s.MembersWithAttributes, s.MembersWithoutAttributes)
}

// Engine builds a fresh unified store for a date range. A run recomputes the
// whole store; it never updates an existing one incrementally.
type Engine struct {
	translator Translator
	stations   StationLoader
	weights    WeightLoader
}

// New creates a merge engine over the given translator and loaders.
func New(t Translator, stations StationLoader, weightLoader WeightLoader) *Engine {
	return &Engine{
		translator: t,
		stations:   stations,
		weights:    weightLoader,
	}
}

// Run merges both sources for every day from start to end inclusive.
// Per-day loader failures leave that day empty for that source; a malformed
// ledger (structural, not a data gap) aborts the run. If neither source
// produced anything, ErrNoData is returned and the store is discarded.
func (e *Engine) Run(ctx context.Context, start, end time.Time) (store.Store, Stats, error) {
	var stats Stats
	if end.Before(start) {
		return nil, stats, fmt.Errorf("end date %s is before start date %s",
			end.Format(store.DayLayout), start.Format(store.DayLayout))
	}

	weightsByDay, attrs, err := e.weights.Load(ctx, start, end)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to load weight events: %w", err)
	}

	result := store.Store{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		day := d.Format(store.DayLayout)

		visits, err := e.stations.Load(day)
		if err != nil {
			if errors.Is(err, station.ErrMalformedSource) {
				return nil, stats, fmt.Errorf("station ledger for %s: %w", day, err)
			}
			log.Printf("Station ledger for %s unavailable, treating as empty: %v", day, err)
			visits = nil
		}
		e.mergeStationDay(result, day, visits, attrs, &stats)
		e.mergeWeightDay(result, day, weightsByDay[day], attrs, &stats)
	}

	for _, member := range result {
		if member.HasAttributes() {
			stats.MembersWithAttributes++
		} else {
			stats.MembersWithoutAttributes++
		}
	}

	if len(result) == 0 && stats.StationNoMatch == 0 &&
		stats.StationUnmatched == 0 && stats.WeightUnmatched == 0 {
		return nil, stats, ErrNoData
	}
	return result, stats, nil
}

// mergeStationDay appends one day's counter visits in loader order.
// Sentinel and untranslatable IDs are counted and skipped; they never create
// a member record.
func (e *Engine) mergeStationDay(result store.Store, day string, visits []station.Visit,
	attrs weights.AttributeTable, stats *Stats) {
	for _, visit := range visits {
		if visit.ShortID == translator.NoMatchSentinel {
			stats.StationNoMatch++
			continue
		}
		shortID := translator.CanonicalShort(visit.ShortID)
		longID, ok := e.translator.Forward(shortID)
		if !ok {
			stats.StationUnmatched++
			continue
		}
		stats.StationMatched++

		member := result.Ensure(shortID)
		rec := member.EnsureDay(day)
		rec.Stations = append(rec.Stations, visit.Counter)

		if a, ok := attrs[longID]; ok {
			member.SetAttributesIfAbsent(a)
		}
	}
}

// mergeWeightDay extends members' weight series with one day's measurements.
func (e *Engine) mergeWeightDay(result store.Store, day string, events map[int64][]float64,
	attrs weights.AttributeTable, stats *Stats) {
	for longID, measurements := range events {
		shortID, ok := e.translator.Reverse(longID)
		if !ok {
			stats.WeightUnmatched++
			continue
		}
		stats.WeightMatched++

		member := result.Ensure(shortID)
		rec := member.EnsureDay(day)
		rec.Weights = append(rec.Weights, measurements...)

		if a, ok := attrs[longID]; ok {
			member.SetAttributesIfAbsent(a)
		}
	}
}
