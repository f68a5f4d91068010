// Package geometry loads per-instance city coordinates from disk.
package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatJSON   Format = "json"
	FormatTSPLIB Format = "tsplib"
)

func (f Format) Ext() string {
	if f == FormatTSPLIB {
		return ".tsp"
	}
	return ".json"
}

func (f Format) Valid() bool {
	return f == FormatJSON || f == FormatTSPLIB
}

// Record is one instance's geometry. Adjacency is optional.
type Record struct {
	ID        string       `json:"id"`
	Coords    [][2]float64 `json:"x"`
	Adjacency [][]float64  `json:"adj,omitempty"`
}

// LoadError is returned when an instance's geometry cannot be read.
type LoadError struct {
	ID   string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading geometry for %s from %s: %v", e.ID, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// PathFor maps an instance id to its geometry file under root.
//
// Ids containing "/" use their last two components as dataset/name
// ("set/rue/100-1" -> rue/100-1). Otherwise the text before the first "_"
// is the dataset ("rue_100-1" -> rue/100-1). Morphed instances encode their
// two sources as "A---B" and are stored as "<nodes>---A.tsp---B.tsp", where
// <nodes> is the text of A before its first "-".
func PathFor(root, id string, format Format) string {
	dataset, name := splitID(id)
	if dataset == "morphed" {
		name = morphedName(name)
	}
	return filepath.Join(root, dataset, name+format.Ext())
}

// DatasetOf returns the dataset component of id, or "" when it has none.
func DatasetOf(id string) string {
	dataset, _ := splitID(id)
	return dataset
}

func splitID(id string) (dataset, name string) {
	id = strings.TrimSpace(id)
	if strings.Contains(id, "/") {
		parts := strings.Split(strings.Trim(id, "/"), "/")
		if len(parts) == 1 {
			return "", parts[0]
		}
		return parts[len(parts)-2], parts[len(parts)-1]
	}
	if i := strings.Index(id, "_"); i >= 0 {
		return id[:i], id[i+1:]
	}
	return "", id
}

func morphedName(name string) string {
	parts := strings.SplitN(name, "---", 2)
	if len(parts) != 2 {
		return name
	}
	nodes, _, _ := strings.Cut(name, "-")
	return nodes + "---" + parts[0] + ".tsp---" + parts[1] + ".tsp"
}

// Load reads the record for id from root.
func Load(root, id string, format Format) (*Record, error) {
	path := PathFor(root, id, format)
	rec, err := ReadFile(path, format)
	if err != nil {
		return nil, &LoadError{ID: id, Path: path, Err: err}
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, nil
}

// ReadFile decodes one geometry file.
func ReadFile(path string, format Format) (*Record, error) {
	var (
		rec *Record
		err error
	)
	switch format {
	case FormatJSON:
		rec, err = readJSON(path)
	case FormatTSPLIB:
		rec, err = ParseTSPLIBFile(path)
	default:
		return nil, fmt.Errorf("unsupported geometry format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if err := rec.validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func readJSON(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &rec, nil
}

func (r *Record) validate() error {
	if len(r.Coords) == 0 {
		return errors.New("no coordinates")
	}
	if r.Adjacency == nil {
		return nil
	}
	if len(r.Adjacency) != len(r.Coords) {
		return fmt.Errorf("adjacency has %d rows for %d cities", len(r.Adjacency), len(r.Coords))
	}
	for i, row := range r.Adjacency {
		if len(row) != len(r.Coords) {
			return fmt.Errorf("adjacency row %d has %d entries for %d cities", i, len(row), len(r.Coords))
		}
	}
	return nil
}

// WriteJSON stores a record in the JSON geometry format.
func WriteJSON(path string, rec *Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating geometry dir: %w", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling geometry: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
