package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalnine/tspselect/internal/geometry"
	"github.com/signalnine/tspselect/internal/label"
	"github.com/signalnine/tspselect/internal/transform"
)

// Config is loaded once and treated as read-only afterwards.
type Config struct {
	Data       Data             `yaml:"data"`
	Algorithms []string         `yaml:"algorithms"`
	Baseline   string           `yaml:"baseline"`
	Labels     Labels           `yaml:"labels"`
	Transform  transform.Config `yaml:"transform"`
	Training   Training         `yaml:"training"`
	Results    Results          `yaml:"results"`

	// Family is resolved from Labels.Loss by Validate.
	Family label.Family `yaml:"-"`
}

type Data struct {
	RunLog    string          `yaml:"run_log"`
	LabelFile string          `yaml:"label_file"`
	Instances string          `yaml:"instances"`
	Format    geometry.Format `yaml:"format"`
	NumRuns   int             `yaml:"num_runs"`
	Timeout   float64         `yaml:"timeout"`
}

type Labels struct {
	Loss         string `yaml:"loss"`
	label.Params `yaml:",inline"`
}

type Training struct {
	Folds         int     `yaml:"folds"`
	Epochs        int     `yaml:"epochs"`
	BatchSize     int     `yaml:"batch_size"`
	LearningRate  float64 `yaml:"learning_rate"`
	WeightDecay   float64 `yaml:"weight_decay"`
	DecayFactor   float64 `yaml:"decay_factor"`
	DecayPatience int     `yaml:"decay_patience"`
	Workers       int     `yaml:"workers"`
	Device        string  `yaml:"device"`
	Seed          int64   `yaml:"seed"`
}

type Results struct {
	Dir string `yaml:"dir"`
}

// ConfigError reports an invalid or unsupported configuration value.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func invalid(field, format string, args ...any) error {
	return &ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate fills defaults and rejects unusable values. It is idempotent so
// callers may re-run it after applying command-line overrides.
func (cfg *Config) Validate() error {
	d := &cfg.Data
	if d.Format == "" {
		d.Format = geometry.FormatJSON
	}
	if !d.Format.Valid() {
		return invalid("data.format", "unsupported geometry format %q", d.Format)
	}
	if d.NumRuns == 0 {
		d.NumRuns = 30
	}
	if d.NumRuns < 1 {
		return invalid("data.num_runs", "must be positive, got %d", d.NumRuns)
	}
	if d.Timeout == 0 {
		d.Timeout = 900
	}
	if d.Timeout < 0 {
		return invalid("data.timeout", "must be positive, got %v", d.Timeout)
	}

	seen := map[string]bool{}
	for i, a := range cfg.Algorithms {
		if strings.TrimSpace(a) == "" {
			return invalid("algorithms", "entry %d is empty", i)
		}
		if seen[a] {
			return invalid("algorithms", "duplicate algorithm %q", a)
		}
		seen[a] = true
	}
	if cfg.Baseline != "" && len(cfg.Algorithms) > 0 && !seen[cfg.Baseline] {
		return invalid("baseline", "%q is not a configured algorithm", cfg.Baseline)
	}

	l := &cfg.Labels
	if l.Loss == "" {
		l.Loss = "nll"
	}
	fam, err := label.ParseFamily(l.Loss)
	if err != nil {
		return &ConfigError{Field: "labels.loss", Err: err}
	}
	cfg.Family = fam
	defaults := label.DefaultParams()
	if l.SCEExp == 0 {
		l.SCEExp = defaults.SCEExp
	}
	if l.BCEDecay == 0 {
		l.BCEDecay = defaults.BCEDecay
	}
	if l.WeightExp == 0 {
		l.WeightExp = defaults.WeightExp
	}
	if l.BCEDecay < 0 || l.BCEDecay > 1 {
		return invalid("labels.bce_decay", "must be in [0, 1], got %v", l.BCEDecay)
	}

	tr := &cfg.Transform
	td := transform.DefaultConfig()
	if tr.Kind == "" {
		tr.Kind = td.Kind
	}
	if tr.Grid == 0 {
		tr.Grid = td.Grid
	}
	if tr.Rotations == 0 {
		tr.Rotations = td.Rotations
	}
	if tr.Scale == 0 {
		tr.Scale = td.Scale
	}
	if tr.Size == 0 {
		tr.Size = td.Size
	}
	if tr.Neighbors == 0 {
		tr.Neighbors = td.Neighbors
	}
	if tr.Keep == 0 {
		tr.Keep = td.Keep
	}
	if _, err := transform.New(*tr); err != nil {
		return &ConfigError{Field: "transform", Err: err}
	}

	t := &cfg.Training
	if t.Folds == 0 {
		t.Folds = 5
	}
	if t.Folds < 2 {
		return invalid("training.folds", "need at least 2 folds, got %d", t.Folds)
	}
	if t.Epochs == 0 {
		t.Epochs = 100
	}
	if t.BatchSize == 0 {
		t.BatchSize = 16
	}
	if t.LearningRate == 0 {
		t.LearningRate = 1e-3
	}
	if t.DecayFactor == 0 {
		t.DecayFactor = 0.99
	}
	if t.DecayPatience == 0 {
		t.DecayPatience = 10
	}
	switch {
	case t.Epochs < 1:
		return invalid("training.epochs", "must be positive, got %d", t.Epochs)
	case t.BatchSize < 1:
		return invalid("training.batch_size", "must be positive, got %d", t.BatchSize)
	case t.LearningRate < 0:
		return invalid("training.learning_rate", "must be positive, got %v", t.LearningRate)
	case t.WeightDecay < 0:
		return invalid("training.weight_decay", "must not be negative, got %v", t.WeightDecay)
	case t.DecayFactor < 0 || t.DecayFactor > 1:
		return invalid("training.decay_factor", "must be in (0, 1], got %v", t.DecayFactor)
	case t.DecayPatience < 1:
		return invalid("training.decay_patience", "must be positive, got %d", t.DecayPatience)
	case t.Workers < 0:
		return invalid("training.workers", "must not be negative, got %d", t.Workers)
	}
	if t.Device == "" || t.Device == "auto" {
		t.Device = "cpu"
	}
	if t.Device != "cpu" {
		return invalid("training.device", "unsupported device %q (only cpu)", t.Device)
	}

	if cfg.Results.Dir == "" {
		cfg.Results.Dir = "results"
	}
	return nil
}

// IsConfigError reports whether err carries a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
