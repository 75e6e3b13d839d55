// Command report runs a one-shot merge over a date range and prints the
// ranked counter report to the console.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"

	"fwat/aggregate"
	"fwat/internal/config"
	"fwat/merge"
	"fwat/station"
	"fwat/store"
	"fwat/translator"
	"fwat/weights"
)

func main() {
	start := flag.String("start", "", "start date (YYYY-MM-DD)")
	end := flag.String("end", "", "end date (YYYY-MM-DD)")
	rename := flag.Bool("rename-ledgers", false, "rename month-day ledger files to ISO dates first")
	flag.Parse()

	if *start == "" || *end == "" {
		log.Fatal("both -start and -end are required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *rename {
		renamed, err := station.RenameLedgers(cfg.DataDir, cfg.StationPrefix, cfg.LedgerYear)
		if err != nil {
			log.Fatalf("Failed to rename ledgers: %v", err)
		}
		log.Printf("Renamed %d ledger files", renamed)
	}

	r, err := aggregate.NewRange(*start, *end)
	if err != nil {
		log.Fatalf("Invalid date range: %v", err)
	}

	table, err := translator.Build(cfg.LookupWorkbookPath, cfg.TranslatorCache)
	if err != nil {
		log.Fatalf("Failed to build ID translator: %v", err)
	}

	engine := merge.New(table,
		station.NewLoader(cfg.DataDir, cfg.StationPrefix),
		weights.NewClient(cfg.WeightAPIBaseURL, cfg.WeightAPITimeout, cfg.WeightAPIRateLimit))

	result, stats, err := engine.Run(context.Background(), r.Start, r.End)
	if err != nil {
		log.Fatalf("Merge failed: %v", err)
	}
	if err := store.Save(result, cfg.StorePath); err != nil {
		log.Fatalf("Failed to persist store: %v", err)
	}

	fmt.Println(stats.Summary())
	fmt.Println()

	cats, bothPerDay := aggregate.Categorize(result, r)
	fmt.Printf("weights_no_counters: %d days\n", cats.WeightsNoCounters)
	fmt.Printf("counters_no_weights: %d days\n", cats.CountersNoWeights)
	fmt.Printf("both: %d days\n", cats.Both)
	fmt.Printf("multiple_weights_no_counters: %d days\n", cats.MultipleWeightsNoCounters)
	fmt.Printf("multiple_counters_no_weights: %d days\n", cats.MultipleCountersNoWeights)
	fmt.Printf("multiple_both: %d days\n", cats.MultipleBoth)

	fmt.Println("\nMembers with both counters and weights per day:")
	days := make([]string, 0, len(bothPerDay))
	for day := range bothPerDay {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		fmt.Printf("%s: %d occurrences\n", day, bothPerDay[day])
	}

	report := aggregate.Totals(result, r)

	fmt.Println("\nAverage Wastage Ranking:")
	for _, entry := range aggregate.Rank(report.Average) {
		fmt.Printf("%s: %.1f grams\n", entry.Counter, entry.Value)
	}

	fmt.Println("\nTotal Wastage Ranking:")
	for _, entry := range aggregate.Rank(report.Total) {
		fmt.Printf("%s: %.1f grams\n", entry.Counter, entry.Value)
	}

	fmt.Println("\nCounter Buys Ranking:")
	for _, entry := range aggregate.RankInts(report.Tally) {
		fmt.Printf("%s: %.0f buys\n", entry.Counter, entry.Value)
	}
}
