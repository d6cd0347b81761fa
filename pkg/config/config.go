package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	API struct {
		BaseURL       string        `yaml:"base_url"`
		ClientVersion string        `yaml:"client_version"`
		TimeoutFloor  time.Duration `yaml:"timeout_floor"`
	} `yaml:"api"`

	Panel struct {
		Address   string `yaml:"address"`
		AssetRoot string `yaml:"asset_root"`
		DataDir   string `yaml:"data_dir"`
	} `yaml:"panel"`

	Liveness struct {
		CheckInterval time.Duration `yaml:"check_interval"`
	} `yaml:"liveness"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limiting"`

	Monitoring struct {
		MetricsEnabled bool `yaml:"metrics_enabled"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.TimeoutFloor <= 0 {
		return fmt.Errorf("api.timeout_floor must be > 0")
	}
	if c.Panel.Address == "" {
		return fmt.Errorf("panel.address must not be empty")
	}
	if c.Panel.DataDir == "" {
		return fmt.Errorf("panel.data_dir must not be empty")
	}
	if c.Liveness.CheckInterval <= 0 {
		return fmt.Errorf("liveness.check_interval must be > 0")
	}
	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Burst <= 0 {
			return fmt.Errorf("rate_limiting.burst must be > 0 when rate limiting is enabled")
		}
	}
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}
	return nil
}

// Load reads configuration from a YAML file, fills in defaults, and applies
// LIVEDOCK_* environment overrides. A missing file is not an error; defaults
// and environment variables are used instead.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://api.live.example.com"
	}
	if cfg.API.ClientVersion == "" {
		cfg.API.ClientVersion = "1.0.0"
	}
	if cfg.API.TimeoutFloor == 0 {
		cfg.API.TimeoutFloor = 10 * time.Second
	}
	if cfg.Panel.Address == "" {
		cfg.Panel.Address = "127.0.0.1:0"
	}
	if cfg.Panel.DataDir == "" {
		cfg.Panel.DataDir = defaultDataDir()
	}
	if cfg.Liveness.CheckInterval == 0 {
		cfg.Liveness.CheckInterval = 30 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIVEDOCK_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("LIVEDOCK_PANEL_ADDRESS"); v != "" {
		cfg.Panel.Address = v
	}
	if v := os.Getenv("LIVEDOCK_DATA_DIR"); v != "" {
		cfg.Panel.DataDir = v
	}
	if v := os.Getenv("LIVEDOCK_ASSET_ROOT"); v != "" {
		cfg.Panel.AssetRoot = v
	}
	if v := os.Getenv("LIVEDOCK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".livedock"
	}
	return home + "/.livedock"
}
