package geometry

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseTSPLIBFile reads NODE_COORD_SECTION coordinates and, when present, a
// FULL_MATRIX EDGE_WEIGHT_SECTION.
func ParseTSPLIBFile(filename string) (*Record, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var (
		rec       Record
		dimension int
		section   string
		weights   []float64
	)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "EOF" {
			break
		}

		if key, value, ok := strings.Cut(line, ":"); ok && section == "" {
			key, value = strings.TrimSpace(key), strings.TrimSpace(value)
			switch key {
			case "NAME":
				rec.ID = value
			case "DIMENSION":
				dimension, err = strconv.Atoi(value)
				if err != nil {
					return nil, fmt.Errorf("parsing DIMENSION: %w", err)
				}
			case "EDGE_WEIGHT_FORMAT":
				if value != "FULL_MATRIX" {
					return nil, fmt.Errorf("unsupported EDGE_WEIGHT_FORMAT %s", value)
				}
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "NODE_COORD_SECTION"):
			section = "coords"
			continue
		case strings.HasPrefix(line, "EDGE_WEIGHT_SECTION"):
			section = "weights"
			continue
		case strings.HasSuffix(line, "_SECTION"):
			section = "skip"
			continue
		}

		fields := strings.Fields(line)
		switch section {
		case "coords":
			if len(fields) < 3 {
				return nil, fmt.Errorf("coordinate line %q: expected index x y", line)
			}
			x, errX := strconv.ParseFloat(fields[1], 64)
			y, errY := strconv.ParseFloat(fields[2], 64)
			if errX != nil || errY != nil {
				return nil, fmt.Errorf("coordinate line %q: invalid number", line)
			}
			rec.Coords = append(rec.Coords, [2]float64{x, y})
		case "weights":
			for _, f := range fields {
				w, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, fmt.Errorf("edge weight %q: %w", f, err)
				}
				weights = append(weights, w)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if dimension > 0 && len(rec.Coords) != dimension {
		return nil, fmt.Errorf("read %d coordinates, DIMENSION is %d", len(rec.Coords), dimension)
	}
	if len(weights) > 0 {
		n := len(rec.Coords)
		if len(weights) != n*n {
			return nil, fmt.Errorf("the total numbers in matrix (%d) does not match expected dimension squared (%d)", len(weights), n*n)
		}
		rec.Adjacency = make([][]float64, n)
		for i := range rec.Adjacency {
			rec.Adjacency[i] = weights[i*n : (i+1)*n]
		}
	}
	return &rec, nil
}
