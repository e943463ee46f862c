package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/matthianna/honeypot-dashboard-sub003/pkg/timewindow"
)

type validator interface {
	validate() error
}

type APIConfig struct {
	URL     string `yaml:"url"`
	Token   string
	Timeout time.Duration `yaml:"timeout"`
}

func (cfg APIConfig) validate() error {
	if cfg.URL == "" {
		return errors.New("analytics API url is not set, provide api.url in the config file or API_URL")
	}
	if cfg.Timeout <= 0 {
		return errors.New("api timeout must be positive")
	}
	return nil
}

type RefreshConfig struct {
	Interval         time.Duration `yaml:"interval"`
	FailureThreshold int           `yaml:"failureThreshold"`
}

func (cfg RefreshConfig) validate() error {
	if cfg.Interval <= 0 {
		return errors.New("refresh interval must be positive")
	}
	if cfg.FailureThreshold < 1 {
		return errors.New("refresh failure threshold must be at least 1")
	}
	return nil
}

type WindowConfig struct {
	Default string `yaml:"default"`
}

func (cfg WindowConfig) validate() error {
	if _, err := timewindow.FromPreset(timewindow.Preset(cfg.Default)); err != nil {
		return fmt.Errorf("unknown default window '%s', expected one of %v", cfg.Default, timewindow.Presets())
	}
	return nil
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func (cfg ServerConfig) validate() error {
	if cfg.Addr == "" {
		return errors.New("server listen address is not set")
	}
	return nil
}

type PanelsConfig struct {
	TopLimit         int    `yaml:"topLimit"`
	RecentLimit      int    `yaml:"recentLimit"`
	TimelineInterval string `yaml:"timelineInterval"`
}

func (cfg PanelsConfig) validate() error {
	if cfg.TopLimit < 1 {
		return errors.New("panels topLimit must be at least 1")
	}
	if cfg.RecentLimit < 1 {
		return errors.New("panels recentLimit must be at least 1")
	}
	if _, err := time.ParseDuration(cfg.TimelineInterval); err != nil {
		return fmt.Errorf("invalid panels timelineInterval '%s'", cfg.TimelineInterval)
	}
	return nil
}

type VaultConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Mount   string `yaml:"mount"`
	Path    string `yaml:"path"`
	Token   string
	Timeout time.Duration `yaml:"timeout"`
}

func (cfg VaultConfig) validate() error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.URL == "" {
		return errors.New("vault is enabled but vault.url/VAULT_ADDR is not set")
	}
	if cfg.Token == "" {
		return errors.New("vault is enabled but VAULT_TOKEN is not set")
	}
	return nil
}

type ThreatConfig struct {
	Enabled bool   `yaml:"enabled"`
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	Path    string `yaml:"path"`
	Ref     string `yaml:"ref"`
	PAT     string
}

func (cfg ThreatConfig) validate() error {
	if cfg.Enabled && (cfg.Owner == "" || cfg.Repo == "") {
		return errors.New("threat feed is enabled but threat.owner/threat.repo are not set")
	}
	return nil
}

type DataDogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Site    string `yaml:"site"`
	ApiKey  string
	AppKey  string
	Tags    []string `yaml:"tags"`
}

func (cfg DataDogConfig) validate() error {
	if cfg.Enabled && (cfg.ApiKey == "" || cfg.AppKey == "") {
		return errors.New("datadog notifier is enabled but DD_API_KEY/DD_APP_KEY are not set")
	}
	return nil
}

// Validate checks every section and collects all problems instead of
// stopping at the first one.
func (cfg *Config) Validate() []error {
	validators := []validator{
		cfg.API,
		cfg.Refresh,
		cfg.Window,
		cfg.Server,
		cfg.Panels,
		cfg.Vault,
		cfg.Threat,
		cfg.DataDog,
	}

	var result []error
	for _, validator := range validators {
		if err := validator.validate(); err != nil {
			result = append(result, err)
		}
	}
	return result
}

// Default generates default config
func Default() *Config {
	return &Config{
		API: APIConfig{
			Timeout: 10 * time.Second,
		},
		Refresh: RefreshConfig{
			Interval:         30 * time.Second,
			FailureThreshold: 3,
		},
		Window: WindowConfig{
			Default: "24h",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Panels: PanelsConfig{
			TopLimit:         10,
			RecentLimit:      50,
			TimelineInterval: "5m",
		},
		Vault: VaultConfig{
			Mount:   "secret",
			Path:    "honeypot/analytics",
			Timeout: 5 * time.Second,
		},
		Threat: ThreatConfig{
			Path: "blocklist.txt",
			Ref:  "main",
		},
		DataDog: DataDogConfig{
			Site: "datadoghq.com",
		},
	}
}
