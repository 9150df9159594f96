package config

import (
	"fmt"
	"time"

	"pddlenv/internal/mangle"
)

// AnalysisConfig configures the Datalog reachability check run before search.
type AnalysisConfig struct {
	Enabled      bool   `yaml:"enabled"`
	FactLimit    int    `yaml:"fact_limit"`
	QueryTimeout string `yaml:"query_timeout"`
}

// GetQueryTimeout returns the Mangle query timeout as a duration.
func (c *AnalysisConfig) GetQueryTimeout() time.Duration {
	d, err := time.ParseDuration(c.QueryTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// MangleConfig returns the engine configuration. Rules are evaluated after
// every insertion batch.
func (c *AnalysisConfig) MangleConfig() mangle.Config {
	return mangle.Config{
		FactLimit:    c.FactLimit,
		QueryTimeout: c.GetQueryTimeout(),
		AutoEval:     true,
	}
}

func (c *AnalysisConfig) validate() error {
	if c.FactLimit < 0 {
		return fmt.Errorf("analysis fact_limit must be >= 0")
	}
	return nil
}
