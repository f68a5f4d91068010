package runs

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

const (
	DefaultNumRuns = 30
	DefaultTimeout = 900.0
	// PenaltyFactor scales the timeout into the runtime stored for an
	// algorithm whose median never finished.
	PenaltyFactor = 10.0
)

type Options struct {
	NumRuns int
	Timeout float64
}

func (o Options) withDefaults() Options {
	if o.NumRuns <= 0 {
		o.NumRuns = DefaultNumRuns
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Aggregate folds consecutive blocks of NumRuns records into one Summary per
// block. Blocks mixing instance ids are dropped, as is a trailing partial
// block. The result keeps log order.
func Aggregate(runs []RawRun, opts Options) []Summary {
	opts = opts.withDefaults()
	var out []Summary
	for start := 0; start+opts.NumRuns <= len(runs); start += opts.NumRuns {
		s, ok := summarize(runs[start:start+opts.NumRuns], opts.Timeout)
		if ok {
			out = append(out, s)
		}
	}
	return out
}

// Dropped returns how many full blocks Aggregate would discard as misaligned.
func Dropped(runs []RawRun, opts Options, kept int) int {
	opts = opts.withDefaults()
	return len(runs)/opts.NumRuns - kept
}

func summarize(block []RawRun, timeout float64) (Summary, bool) {
	id := block[0].InstanceID
	var order []string
	byAlgo := map[string][]float64{}
	for _, r := range block {
		if r.InstanceID != id {
			return Summary{}, false
		}
		if _, ok := byAlgo[r.Algorithm]; !ok {
			order = append(order, r.Algorithm)
		}
		rt := r.Runtime
		if !finishedStatus(r.Status) && rt < timeout {
			rt = timeout
		}
		byAlgo[r.Algorithm] = append(byAlgo[r.Algorithm], rt)
	}

	s := Summary{
		ID:       id,
		Best:     NoneFinished,
		Order:    order,
		Medians:  make(map[string]float64, len(order)),
		Runtimes: make(map[string]float64, len(order)),
		Penalty:  timeout * PenaltyFactor,
	}
	bestRuntime := timeout
	for _, a := range order {
		m := Median(byAlgo[a])
		s.Medians[a] = m
		if m >= timeout {
			s.Runtimes[a] = s.Penalty
			continue
		}
		s.Runtimes[a] = m
		if m < bestRuntime {
			bestRuntime = m
			s.Best = a
		}
	}
	return s, true
}

func finishedStatus(status string) bool {
	return status == "" || strings.EqualFold(status, "ok")
}

// Median sorts a copy of xs and returns its middle value; for even lengths
// it averages the two middle values.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return stat.Mean(sorted[n/2-1:n/2+1], nil)
}

// Algorithms lists algorithm names in the order they first appear.
func Algorithms(runs []RawRun) []string {
	seen := map[string]bool{}
	var names []string
	for _, r := range runs {
		if !seen[r.Algorithm] {
			seen[r.Algorithm] = true
			names = append(names, r.Algorithm)
		}
	}
	return names
}

// Index maps instance ids to their summaries. A later block for the same
// instance replaces an earlier one.
func Index(summaries []Summary) map[string]*Summary {
	idx := make(map[string]*Summary, len(summaries))
	for i := range summaries {
		idx[summaries[i].ID] = &summaries[i]
	}
	return idx
}

// Keys returns the distinct instance ids in log order.
func Keys(summaries []Summary) []string {
	seen := map[string]bool{}
	keys := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if !seen[s.ID] {
			seen[s.ID] = true
			keys = append(keys, s.ID)
		}
	}
	return keys
}
