package cmd

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/signalnine/tspselect/internal/config"
	"github.com/signalnine/tspselect/internal/geometry"
	"github.com/signalnine/tspselect/internal/runs"
)

// loadLabels aggregates the configured run log, or reads a previously
// written label file when no log is configured.
func loadLabels(cfg *config.Config) (*runs.Labels, error) {
	d := cfg.Data
	if d.RunLog == "" {
		if d.LabelFile == "" {
			return nil, &config.ConfigError{Field: "data.run_log", Err: errors.New("neither run_log nor label_file is set")}
		}
		labels, err := runs.ReadLabels(d.LabelFile)
		if err != nil {
			return nil, err
		}
		if len(cfg.Algorithms) > 0 {
			labels.Algorithms = cfg.Algorithms
		}
		return labels, nil
	}

	raw, err := runs.ReadLog(d.RunLog)
	if err != nil {
		return nil, err
	}
	opts := runs.Options{NumRuns: d.NumRuns, Timeout: d.Timeout}
	summaries := runs.Aggregate(raw, opts)
	if n := runs.Dropped(raw, opts, len(summaries)); n > 0 {
		log.Printf("warning: dropped %d misaligned blocks of %d runs", n, d.NumRuns)
	}
	if rest := len(raw) % d.NumRuns; rest > 0 {
		log.Printf("warning: ignored %d trailing runs of an unfinished block", rest)
	}
	algorithms := cfg.Algorithms
	if len(algorithms) == 0 {
		algorithms = runs.Algorithms(raw)
	}
	return &runs.Labels{
		Algorithms: algorithms,
		NumRuns:    d.NumRuns,
		Timeout:    d.Timeout,
		Summaries:  summaries,
	}, nil
}

// bestCounts tallies how often each algorithm is fastest, sentinel included.
func bestCounts(summaries []runs.Summary) map[string]int {
	counts := map[string]int{}
	for _, s := range summaries {
		counts[s.Best]++
	}
	return counts
}

func printBestCounts(summaries []runs.Summary) {
	counts := bestCounts(summaries)
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		fmt.Printf("  %-12s %d\n", name, counts[name])
	}
}

// datasetCounts groups instance ids by their dataset component.
func datasetCounts(summaries []runs.Summary) map[string]int {
	counts := map[string]int{}
	for _, s := range summaries {
		name := geometry.DatasetOf(s.ID)
		if name == "" {
			name = "-"
		}
		counts[name]++
	}
	return counts
}
