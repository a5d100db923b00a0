// Package config loads application configuration from a YAML file,
// applies environment variable overrides, and fills defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"data_source"`
	Synthetic struct {
		Spot    float64 `yaml:"spot"`
		FlatVol float64 `yaml:"flat_vol"`
		Rate    float64 `yaml:"rate"`
	} `yaml:"synthetic"`
	Defaults struct {
		Samples int     `yaml:"samples"`
		Rate    float64 `yaml:"rate"`
	} `yaml:"defaults"`
	OutputDir string `yaml:"output_dir"`
	Verbosity int    `yaml:"verbosity"` // 0=errors,1=info,2=debug,3=trace
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is not an error; overrides and defaults
// still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("OPTION_LAB_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("MASSIVE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("MASSIVE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("OPTION_LAB_VERBOSITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Verbosity = n
		}
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Synthetic.Spot == 0 {
		cfg.Synthetic.Spot = 100
	}
	if cfg.Synthetic.FlatVol == 0 {
		cfg.Synthetic.FlatVol = 0.2
	}
	if cfg.Defaults.Samples == 0 {
		cfg.Defaults.Samples = 100
	}
	if cfg.Defaults.Rate == 0 {
		cfg.Defaults.Rate = 0.05
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./out"
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Defaults.Samples < 2 {
		return fmt.Errorf("defaults.samples must be >= 2, got %d", c.Defaults.Samples)
	}
	if c.Synthetic.Spot <= 0 {
		return fmt.Errorf("synthetic.spot must be positive")
	}
	if c.Synthetic.FlatVol <= 0 {
		return fmt.Errorf("synthetic.flat_vol must be positive")
	}
	return nil
}
