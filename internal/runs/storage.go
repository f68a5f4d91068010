package runs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Labels is the persisted form of an aggregated run log.
type Labels struct {
	Algorithms []string  `json:"algorithms"`
	NumRuns    int       `json:"num_runs"`
	Timeout    float64   `json:"timeout"`
	Summaries  []Summary `json:"summaries"`
}

func WriteLabels(path string, labels *Labels) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating labels dir: %w", err)
	}
	data, err := json.MarshalIndent(labels, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling labels: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func ReadLabels(path string) (*Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}
	var labels Labels
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("parsing labels: %w", err)
	}
	return &labels, nil
}
