package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"pddlenv/internal/heuristic"
	"pddlenv/internal/search"

	"gopkg.in/yaml.v3"
)

// Config holds all pddlenv configuration.
type Config struct {
	Search    SearchConfig    `yaml:"search"`
	Heuristic HeuristicConfig `yaml:"heuristic"`
	Grounding GroundingConfig `yaml:"grounding"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SearchConfig selects the search algorithm and its limits.
type SearchConfig struct {
	Algorithm      string `yaml:"algorithm"` // gbfs, hill
	MaxExpansions  int    `yaml:"max_expansions"`
	MaxEvaluations int    `yaml:"max_evaluations"`
	TimeLimit      string `yaml:"time_limit"` // empty = unlimited
	DetectMinima   bool   `yaml:"detect_minima"`
	Workers        int    `yaml:"workers"` // concurrent searches for multi-start runs
}

// HeuristicConfig configures the heuristic wrapper.
type HeuristicConfig struct {
	Name              string  `yaml:"name"`
	Discount          float64 `yaml:"discount"`
	FunctionCacheSize int     `yaml:"function_cache_size"` // 0 disables, -1 unbounded
	ValueCacheSize    int     `yaml:"value_cache_size"`
}

// GroundingConfig configures action grounding.
type GroundingConfig struct {
	Workers int `yaml:"workers"`
}

// StoreConfig configures the run metrics database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ValidAlgorithms lists the supported search algorithms.
var ValidAlgorithms = []string{"gbfs", "hill"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Algorithm:      "gbfs",
			MaxExpansions:  0,
			MaxEvaluations: 0,
			TimeLimit:      "",
			Workers:        4,
		},
		Heuristic: HeuristicConfig{
			Name:              "hadd",
			Discount:          1,
			FunctionCacheSize: 8,
			ValueCacheSize:    100000,
		},
		Grounding: GroundingConfig{
			Workers: 1,
		},
		Analysis: AnalysisConfig{
			Enabled:      true,
			FactLimit:    1000000,
			QueryTimeout: "30s",
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    "data/runs.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if name := os.Getenv("PDDLENV_HEURISTIC"); name != "" {
		c.Heuristic.Name = name
	}
	if algo := os.Getenv("PDDLENV_ALGORITHM"); algo != "" {
		c.Search.Algorithm = strings.ToLower(algo)
	}
	// Setting a store path implies the store is wanted.
	if path := os.Getenv("PDDLENV_STORE"); path != "" {
		c.Store.Path = path
		c.Store.Enabled = true
	}
	if level := os.Getenv("PDDLENV_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetTimeLimit returns the search time limit; zero means unlimited.
func (c *Config) GetTimeLimit() time.Duration {
	if c.Search.TimeLimit == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Search.TimeLimit)
	if err != nil {
		return 0
	}
	return d
}

// SearchLimits returns the configured search limits.
func (c *Config) SearchLimits() search.Limits {
	return search.Limits{
		Expansions:  c.Search.MaxExpansions,
		Evaluations: c.Search.MaxEvaluations,
		Time:        c.GetTimeLimit(),
	}
}

// HeuristicOptions returns the heuristic wrapper options.
func (c *Config) HeuristicOptions() heuristic.Options {
	return heuristic.Options{
		Discount:          c.Heuristic.Discount,
		FunctionCacheSize: c.Heuristic.FunctionCacheSize,
		ValueCacheSize:    c.Heuristic.ValueCacheSize,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !slices.Contains(ValidAlgorithms, c.Search.Algorithm) {
		return fmt.Errorf("invalid search algorithm: %s (valid: %v)", c.Search.Algorithm, ValidAlgorithms)
	}
	if !slices.Contains(heuristic.Names(), c.Heuristic.Name) {
		return fmt.Errorf("invalid heuristic: %s (valid: %v)", c.Heuristic.Name, heuristic.Names())
	}
	if c.Heuristic.Discount < 0 || c.Heuristic.Discount > 1 {
		return fmt.Errorf("heuristic discount must be in [0, 1], got %v", c.Heuristic.Discount)
	}
	if c.Heuristic.FunctionCacheSize < heuristic.Unbounded || c.Heuristic.ValueCacheSize < heuristic.Unbounded {
		return fmt.Errorf("cache sizes must be >= %d", heuristic.Unbounded)
	}
	if c.Search.MaxExpansions < 0 || c.Search.MaxEvaluations < 0 {
		return fmt.Errorf("search limits must be >= 0")
	}
	if c.Search.TimeLimit != "" {
		if d, err := time.ParseDuration(c.Search.TimeLimit); err != nil || d < 0 {
			return fmt.Errorf("invalid search time_limit: %q", c.Search.TimeLimit)
		}
	}
	if c.Grounding.Workers < 0 || c.Search.Workers < 0 {
		return fmt.Errorf("worker counts must be >= 0")
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store enabled without a path")
	}
	return c.Analysis.validate()
}
