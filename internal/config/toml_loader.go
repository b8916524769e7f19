package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// TomlConfig is the on-disk shape of .cfgctl.toml. Every field is a pointer
// (or left as a slice/string) so the loader can distinguish "absent" from
// "explicitly zero value" while merging over DefaultConfig.
type TomlConfig struct {
	Analyses    AnalysesTomlConfig    `toml:"analyses"`
	Output      OutputTomlConfig      `toml:"output"`
	Discovery   DiscoveryTomlConfig   `toml:"discovery"`
	Concurrency ConcurrencyTomlConfig `toml:"concurrency"`
}

type AnalysesTomlConfig struct {
	Cycle         *bool `toml:"cycle"`
	Dominator     *bool `toml:"dominator"`
	PostDominator *bool `toml:"post_dominator"`
	Hammock       *bool `toml:"hammock"`
	SafeRegion    *bool `toml:"safe_region"`
}

type OutputTomlConfig struct {
	Format    string `toml:"format"`
	Directory string `toml:"directory"`
}

type DiscoveryTomlConfig struct {
	IncludePatterns []string `toml:"include_patterns"`
	ExcludePatterns []string `toml:"exclude_patterns"`
}

type ConcurrencyTomlConfig struct {
	MaxWorkers   *int  `toml:"max_workers"`
	ShowProgress *bool `toml:"show_progress"`
}

// TomlConfigLoader finds and loads .cfgctl.toml, walking up from a start
// directory toward the filesystem root until it finds one.
type TomlConfigLoader struct{}

// NewTomlConfigLoader builds a loader.
func NewTomlConfigLoader() *TomlConfigLoader {
	return &TomlConfigLoader{}
}

// ResolveConfigPath resolves the effective config file path: an explicit
// path must exist; otherwise targetPath (or cwd) is searched upward for
// .cfgctl.toml.
func (l *TomlConfigLoader) ResolveConfigPath(configPath, targetPath string) (string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", configPath)
		}
		return configPath, nil
	}

	searchPath := targetPath
	if searchPath == "" {
		searchPath = "."
	}
	return l.findConfigFile(searchPath), nil
}

func (l *TomlConfigLoader) findConfigFile(startPath string) string {
	dir, err := filepath.Abs(startPath)
	if err != nil {
		return ""
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		candidate := filepath.Join(dir, ".cfgctl.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadConfig loads and merges the TOML file at path over DefaultConfig. An
// empty path returns the defaults untouched.
func (l *TomlConfigLoader) LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var parsed TomlConfig
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	mergeInto(cfg, &parsed)
	return cfg, nil
}

func mergeInto(cfg *Config, parsed *TomlConfig) {
	if v := parsed.Analyses.Cycle; v != nil {
		cfg.Analyses.Cycle = *v
	}
	if v := parsed.Analyses.Dominator; v != nil {
		cfg.Analyses.Dominator = *v
	}
	if v := parsed.Analyses.PostDominator; v != nil {
		cfg.Analyses.PostDominator = *v
	}
	if v := parsed.Analyses.Hammock; v != nil {
		cfg.Analyses.Hammock = *v
	}
	if v := parsed.Analyses.SafeRegion; v != nil {
		cfg.Analyses.SafeRegion = *v
	}

	if parsed.Output.Format != "" {
		cfg.Output.Format = parsed.Output.Format
	}
	if parsed.Output.Directory != "" {
		cfg.Output.Directory = parsed.Output.Directory
	}

	if len(parsed.Discovery.IncludePatterns) > 0 {
		cfg.Discovery.IncludePatterns = parsed.Discovery.IncludePatterns
	}
	if len(parsed.Discovery.ExcludePatterns) > 0 {
		cfg.Discovery.ExcludePatterns = parsed.Discovery.ExcludePatterns
	}

	if v := parsed.Concurrency.MaxWorkers; v != nil {
		cfg.Concurrency.MaxWorkers = *v
	}
	if v := parsed.Concurrency.ShowProgress; v != nil {
		cfg.Concurrency.ShowProgress = *v
	}
}

// LoadConfigWithTarget resolves and loads the effective config for a CLI
// invocation, validating the result.
func LoadConfigWithTarget(configPath, targetPath string) (*Config, error) {
	loader := NewTomlConfigLoader()

	resolved, err := loader.ResolveConfigPath(configPath, targetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configuration: %w", err)
	}

	cfg, err := loader.LoadConfig(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
