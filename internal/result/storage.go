package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func CreateRunDir(baseDir string) (string, error) {
	runsDir := filepath.Join(baseDir, "runs")
	stamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	runDir := filepath.Join(runsDir, stamp)
	runDir, err := filepath.Abs(runDir)
	if err != nil {
		return "", fmt.Errorf("resolving run dir: %w", err)
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("creating run dir: %w", err)
	}
	latest := filepath.Join(baseDir, "latest")
	os.Remove(latest)
	if err := os.Symlink(runDir, latest); err != nil {
		return "", fmt.Errorf("creating latest symlink: %w", err)
	}
	return runDir, nil
}

func FoldDir(runDir string, fold int) string {
	return filepath.Join(runDir, "folds", fmt.Sprintf("fold-%d", fold))
}

func WriteFoldMeta(foldDir string, meta *FoldMeta) error {
	return WriteJSON(foldDir, "meta.json", meta)
}

func ReadFoldMeta(path string) (*FoldMeta, error) {
	var meta FoldMeta
	if err := readJSON(path, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func WriteSummary(runDir string, s *CVSummary) error {
	return WriteJSON(runDir, "summary.json", s)
}

func ReadSummary(runDir string) (*CVSummary, error) {
	var s CVSummary
	if err := readJSON(filepath.Join(runDir, "summary.json"), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// WriteJSON stores any value as indented JSON under dir.
func WriteJSON(dir, name string, v any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}
