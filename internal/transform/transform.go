// Package transform turns instance geometry into fixed-shape tensors.
package transform

import (
	"fmt"

	"github.com/signalnine/tspselect/internal/geometry"
)

// Tensor is a dense row-major array.
type Tensor struct {
	Shape []int
	Data  []float64
}

func (t Tensor) Len() int { return len(t.Data) }

// Transform produces a representation of one instance. Implementations must
// be safe for concurrent use and must not modify the record.
type Transform interface {
	Apply(rec *geometry.Record) (Tensor, error)
	// Shape is the shape of every tensor Apply returns.
	Shape() []int
}

type Kind string

const (
	KindImage Kind = "image"
	KindGraph Kind = "graph"
)

// Config selects and parameterizes a transform.
type Config struct {
	Kind      Kind    `yaml:"kind"`
	Grid      int     `yaml:"grid"`
	Rotations int     `yaml:"rotations"`
	Scale     float64 `yaml:"scale"`
	Flip      bool    `yaml:"flip"`
	Size      int     `yaml:"size"`
	Neighbors int     `yaml:"neighbors"`
	Keep      float64 `yaml:"keep"`
	Seed      int64   `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Kind:      KindImage,
		Grid:      32,
		Rotations: 1,
		Scale:     1.0,
		Size:      64,
		Neighbors: 8,
		Keep:      0.5,
	}
}

func New(cfg Config) (Transform, error) {
	switch cfg.Kind {
	case KindImage, "":
		if cfg.Grid < 2 {
			return nil, fmt.Errorf("image grid must be at least 2, got %d", cfg.Grid)
		}
		if cfg.Scale <= 0 {
			return nil, fmt.Errorf("image scale must be positive, got %v", cfg.Scale)
		}
		return &Image{Grid: cfg.Grid, Rotations: max(cfg.Rotations, 1), Scale: cfg.Scale, Flip: cfg.Flip}, nil
	case KindGraph:
		if cfg.Size < 2 {
			return nil, fmt.Errorf("graph size must be at least 2, got %d", cfg.Size)
		}
		if cfg.Neighbors < 1 {
			return nil, fmt.Errorf("graph neighbors must be positive, got %d", cfg.Neighbors)
		}
		if cfg.Keep <= 0 || cfg.Keep > 1 {
			return nil, fmt.Errorf("graph keep fraction must be in (0, 1], got %v", cfg.Keep)
		}
		return &Graph{Size: cfg.Size, Neighbors: cfg.Neighbors, Keep: cfg.Keep, Seed: cfg.Seed}, nil
	}
	return nil, fmt.Errorf("unknown transform kind %q", cfg.Kind)
}

// unitSquare rescales coordinates into [0,1]^2 keeping the aspect ratio.
func unitSquare(coords [][2]float64) [][2]float64 {
	minX, minY := coords[0][0], coords[0][1]
	maxX, maxY := minX, minY
	for _, c := range coords[1:] {
		minX, maxX = min(minX, c[0]), max(maxX, c[0])
		minY, maxY = min(minY, c[1]), max(maxY, c[1])
	}
	span := max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	out := make([][2]float64, len(coords))
	for i, c := range coords {
		out[i] = [2]float64{(c[0] - minX) / span, (c[1] - minY) / span}
	}
	return out
}
