package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"fwat/aggregate"
	"fwat/merge"
	apperrors "fwat/server/errors"
	"fwat/store"
)

// Series presentations.
const (
	PresentationCumulative   = "cumulative"
	PresentationDailyAverage = "daily_average"
)

// ReportService runs merges and serves aggregations over the persisted
// store. Merge runs are serialized: one store rebuild at a time.
type ReportService struct {
	engine     *merge.Engine
	storePath  string
	yearGroups []string

	mu        sync.Mutex
	lastStats *merge.Stats
}

// NewReportService creates the service. yearGroups is the allow-list applied
// to form-class series.
func NewReportService(engine *merge.Engine, storePath string, yearGroups []string) *ReportService {
	return &ReportService{
		engine:     engine,
		storePath:  storePath,
		yearGroups: yearGroups,
	}
}

// RunMerge rebuilds the store for the range and persists the snapshot. The
// returned stats are the operator summary; they are also kept for later
// retrieval.
func (s *ReportService) RunMerge(ctx context.Context, start, end string) (merge.Stats, error) {
	r, err := aggregate.NewRange(start, end)
	if err != nil {
		return merge.Stats{}, apperrors.NewValidationError("invalid date range", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, stats, err := s.engine.Run(ctx, r.Start, r.End)
	if err != nil {
		if err == merge.ErrNoData {
			return stats, apperrors.NewNotFoundError("no data found for the requested range", err)
		}
		return stats, fmt.Errorf("merge run failed: %w", err)
	}

	if err := store.Save(result, s.storePath); err != nil {
		return stats, fmt.Errorf("failed to persist merged store: %w", err)
	}
	log.Printf("Merge run complete (%s): %s", start+" to "+end, stats.Summary())

	s.lastStats = &stats
	return stats, nil
}

// LastStats returns the stats of the most recent merge run, or nil.
func (s *ReportService) LastStats() *merge.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStats
}

// LoadStore reads the persisted snapshot.
func (s *ReportService) LoadStore() (store.Store, error) {
	result, err := store.Load(s.storePath)
	if err != nil {
		return nil, apperrors.NewNotFoundError("no merged store available, run a merge first", err)
	}
	return result, nil
}

// CounterReport computes per-counter totals over the range from the
// persisted snapshot.
func (s *ReportService) CounterReport(start, end string) (*aggregate.Report, error) {
	r, err := aggregate.NewRange(start, end)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date range", err)
	}
	data, err := s.LoadStore()
	if err != nil {
		return nil, err
	}
	return aggregate.Totals(data, r), nil
}

// CategoryReport classifies the range's records into the six diagnostic
// buckets.
func (s *ReportService) CategoryReport(start, end string) (aggregate.Categories, map[string]int, error) {
	r, err := aggregate.NewRange(start, end)
	if err != nil {
		return aggregate.Categories{}, nil, apperrors.NewValidationError("invalid date range", err)
	}
	data, err := s.LoadStore()
	if err != nil {
		return aggregate.Categories{}, nil, err
	}
	cats, bothPerDay := aggregate.Categorize(data, r)
	return cats, bothPerDay, nil
}

// Series computes one attribute's grouped time series in the requested
// presentation.
func (s *ReportService) Series(start, end string, attr aggregate.Attribute,
	presentation string) (map[string]map[string]float64, error) {
	r, err := aggregate.NewRange(start, end)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date range", err)
	}
	data, err := s.LoadStore()
	if err != nil {
		return nil, err
	}

	series := aggregate.GroupTotals(data, r, attr, s.yearGroups)
	switch presentation {
	case PresentationCumulative:
		return series.Cumulative(r), nil
	case PresentationDailyAverage:
		return series.DailyAveragePerMember(), nil
	default:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unknown presentation %q", presentation), nil)
	}
}

// YearGroups returns the configured form-class year-group allow-list.
func (s *ReportService) YearGroups() []string {
	return s.yearGroups
}
