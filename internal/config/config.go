// Package config implements cfgctl's configuration: defaults, TOML file
// discovery/merge, and validation, covering the handful of settings an
// analyze run actually needs.
package config

import "fmt"

// AnalysesConfig toggles which analyzer passes a run performs. Hammock
// requires Dominator and PostDominator; SafeRegion requires Cycle;
// Validate enforces that.
type AnalysesConfig struct {
	Cycle         bool `mapstructure:"cycle" toml:"cycle" yaml:"cycle"`
	Dominator     bool `mapstructure:"dominator" toml:"dominator" yaml:"dominator"`
	PostDominator bool `mapstructure:"post_dominator" toml:"post_dominator" yaml:"post_dominator"`
	Hammock       bool `mapstructure:"hammock" toml:"hammock" yaml:"hammock"`
	SafeRegion    bool `mapstructure:"safe_region" toml:"safe_region" yaml:"safe_region"`
}

// OutputConfig controls report formatting.
type OutputConfig struct {
	// Format is one of "json", "yaml", "text".
	Format string `mapstructure:"format" toml:"format" yaml:"format"`

	// Directory is where batch reports are written; empty means stdout
	// for a single-file run.
	Directory string `mapstructure:"directory" toml:"directory" yaml:"directory"`
}

// DiscoveryConfig controls how cfgctl finds program-description files in
// batch mode.
type DiscoveryConfig struct {
	IncludePatterns []string `mapstructure:"include_patterns" toml:"include_patterns" yaml:"include_patterns"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" toml:"exclude_patterns" yaml:"exclude_patterns"`
}

// ConcurrencyConfig controls the batch worker pool.
type ConcurrencyConfig struct {
	// MaxWorkers is the maximum number of files analyzed concurrently.
	// 0 means use runtime.GOMAXPROCS.
	MaxWorkers int `mapstructure:"max_workers" toml:"max_workers" yaml:"max_workers"`

	// ShowProgress controls whether a progress bar is rendered to stderr.
	ShowProgress bool `mapstructure:"show_progress" toml:"show_progress" yaml:"show_progress"`
}

// Config is cfgctl's full configuration.
type Config struct {
	Analyses    AnalysesConfig    `mapstructure:"analyses" toml:"analyses" yaml:"analyses"`
	Output      OutputConfig      `mapstructure:"output" toml:"output" yaml:"output"`
	Discovery   DiscoveryConfig   `mapstructure:"discovery" toml:"discovery" yaml:"discovery"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" toml:"concurrency" yaml:"concurrency"`
}

// DefaultConfig returns the configuration used when no config file is
// found: every analysis enabled, JSON output to stdout, recursive YAML
// program-description discovery.
func DefaultConfig() *Config {
	return &Config{
		Analyses: AnalysesConfig{
			Cycle:         true,
			Dominator:     true,
			PostDominator: true,
			Hammock:       true,
			SafeRegion:    true,
		},
		Output: OutputConfig{
			Format:    "json",
			Directory: "",
		},
		Discovery: DiscoveryConfig{
			IncludePatterns: []string{"**/*.cfg.yaml", "**/*.cfg.yml"},
			ExcludePatterns: []string{},
		},
		Concurrency: ConcurrencyConfig{
			MaxWorkers:   0,
			ShowProgress: true,
		},
	}
}

// Validate checks Config for internally inconsistent settings; each rule
// names the offending field and its value.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "json", "yaml", "text":
	default:
		return fmt.Errorf("invalid output.format %q, must be one of: json, yaml, text", c.Output.Format)
	}

	if c.Analyses.Hammock && !(c.Analyses.Dominator && c.Analyses.PostDominator) {
		return fmt.Errorf("analyses.hammock requires both analyses.dominator and analyses.post_dominator")
	}
	if c.Analyses.SafeRegion && !c.Analyses.Cycle {
		return fmt.Errorf("analyses.safe_region requires analyses.cycle")
	}

	if c.Concurrency.MaxWorkers < 0 {
		return fmt.Errorf("concurrency.max_workers must be >= 0, got %d", c.Concurrency.MaxWorkers)
	}

	if len(c.Discovery.IncludePatterns) == 0 {
		return fmt.Errorf("discovery.include_patterns cannot be empty")
	}

	return nil
}
