package runs

import "fmt"

// NoneFinished is the best-algorithm sentinel for instances on which no
// algorithm's median runtime stays below the timeout.
const NoneFinished = "all"

// RawRun is one benchmark execution record as read from the run log.
type RawRun struct {
	InstanceID string
	Algorithm  string
	Repeat     int
	Status     string
	Runtime    float64
	Line       int
}

// Summary is the per-instance aggregate of one block of runs.
type Summary struct {
	ID   string `json:"id"`
	Best string `json:"best"`
	// Order lists algorithms in the order they first appear in the block.
	Order []string `json:"order"`
	// Medians holds the raw median runtime per algorithm.
	Medians map[string]float64 `json:"medians"`
	// Runtimes holds the median after the timeout penalty was applied.
	Runtimes map[string]float64 `json:"runtimes"`
	Penalty  float64            `json:"penalty"`
}

// Vector returns the penalized runtimes in the given algorithm order.
// Algorithms that never ran on the instance get the timeout penalty.
func (s *Summary) Vector(algorithms []string) []float64 {
	v := make([]float64, len(algorithms))
	for i, a := range algorithms {
		rt, ok := s.Runtimes[a]
		if !ok {
			rt = s.Penalty
		}
		v[i] = rt
	}
	return v
}

// Finished reports whether at least one algorithm finished below the timeout.
func (s *Summary) Finished() bool {
	return s.Best != NoneFinished
}

// ParseError reports a malformed run-log row.
type ParseError struct {
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("run log line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("run log line %d: field %s: %v", e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
