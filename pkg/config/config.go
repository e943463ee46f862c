package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API     APIConfig     `yaml:"api"`
	Refresh RefreshConfig `yaml:"refresh"`
	Window  WindowConfig  `yaml:"window"`
	Server  ServerConfig  `yaml:"server"`
	Panels  PanelsConfig  `yaml:"panels"`
	Vault   VaultConfig   `yaml:"vault"`
	Threat  ThreatConfig  `yaml:"threat"`
	DataDog DataDogConfig `yaml:"datadog"`

	reader io.Reader
}

func (cfg *Config) WithReader(r io.Reader) *Config {
	if r != nil {
		cfg.reader = r
	}
	return cfg
}

// Load loads the config in the following sequence:
// Default < Config file < ENV variables
// If there is no config file, then it is skipped
func (cfg *Config) Load() (*Config, error) {
	var tmp *Config
	var err error
	if cfg.reader != nil {
		tmp, err = cfg.loadFromReader()
		if err != nil {
			return nil, err
		}
	}
	if tmp != nil {
		cfg.merge(tmp)
	}
	tmp, err = readFromEnv()
	if err != nil {
		return nil, err
	}
	cfg.merge(tmp)
	return cfg, nil
}

func (cfg *Config) loadFromReader() (*Config, error) {
	decoder := yaml.NewDecoder(cfg.reader)
	decoder.KnownFields(true)
	tmp := &Config{}
	err := decoder.Decode(tmp)
	if err != nil {
		// Check if this is an empty file or no data
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't decode config: %w", err)
	}
	return tmp, nil
}

func readFromEnv() (*Config, error) {
	cfg := &Config{}

	// Only set values if environment variables are actually set
	if apiURL := GetEnv("API_URL", ""); apiURL != "" {
		cfg.API.URL = apiURL
	}
	if apiToken := GetEnv("API_TOKEN", ""); apiToken != "" {
		cfg.API.Token = apiToken
	}
	if timeoutStr := GetEnv("API_TIMEOUT", ""); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid duration value: %s", timeoutStr)
		}
		cfg.API.Timeout = timeout
	}
	if intervalStr := GetEnv("REFRESH_INTERVAL", ""); intervalStr != "" {
		interval, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("invalid duration value: %s", intervalStr)
		}
		cfg.Refresh.Interval = interval
	}
	if thresholdStr := GetEnv("FAILURE_THRESHOLD", ""); thresholdStr != "" {
		threshold, err := strconv.Atoi(thresholdStr)
		if err != nil {
			return nil, fmt.Errorf("invalid failure threshold value: %s", thresholdStr)
		}
		cfg.Refresh.FailureThreshold = threshold
	}
	if window := GetEnv("DEFAULT_WINDOW", ""); window != "" {
		cfg.Window.Default = window
	}
	if addr := GetEnv("LISTEN_ADDR", ""); addr != "" {
		cfg.Server.Addr = addr
	}
	if vaultAddr := GetEnv("VAULT_ADDR", ""); vaultAddr != "" {
		cfg.Vault.URL = vaultAddr
	}
	if vaultToken := GetEnv("VAULT_TOKEN", ""); vaultToken != "" {
		cfg.Vault.Token = vaultToken
	}
	if pat := GetEnv("THREAT_PAT", ""); pat != "" {
		cfg.Threat.PAT = pat
	}
	if apiKey := GetEnv("DD_API_KEY", ""); apiKey != "" {
		cfg.DataDog.ApiKey = apiKey
	}
	if appKey := GetEnv("DD_APP_KEY", ""); appKey != "" {
		cfg.DataDog.AppKey = appKey
	}
	if tagsStr := GetEnv("DD_TAGS", ""); tagsStr != "" {
		cfg.DataDog.Tags = strings.Split(strings.TrimSuffix(tagsStr, ","), ",")
	}

	return cfg, nil
}

// merge merges this config with another config
// if another config has empty values, then original values are not overwritten
func (cfg *Config) merge(config *Config) {
	if config == nil {
		return
	}
	if config.API.URL != "" {
		cfg.API.URL = config.API.URL
	}
	if config.API.Token != "" {
		cfg.API.Token = config.API.Token
	}
	if config.API.Timeout != 0 {
		cfg.API.Timeout = config.API.Timeout
	}
	if config.Refresh.Interval != 0 {
		cfg.Refresh.Interval = config.Refresh.Interval
	}
	if config.Refresh.FailureThreshold != 0 {
		cfg.Refresh.FailureThreshold = config.Refresh.FailureThreshold
	}
	if config.Window.Default != "" {
		cfg.Window.Default = config.Window.Default
	}
	if config.Server.Addr != "" {
		cfg.Server.Addr = config.Server.Addr
	}
	if config.Panels.TopLimit != 0 {
		cfg.Panels.TopLimit = config.Panels.TopLimit
	}
	if config.Panels.RecentLimit != 0 {
		cfg.Panels.RecentLimit = config.Panels.RecentLimit
	}
	if config.Panels.TimelineInterval != "" {
		cfg.Panels.TimelineInterval = config.Panels.TimelineInterval
	}
	if config.Vault.Enabled {
		cfg.Vault.Enabled = true
	}
	if config.Vault.URL != "" {
		cfg.Vault.URL = config.Vault.URL
	}
	if config.Vault.Mount != "" {
		cfg.Vault.Mount = config.Vault.Mount
	}
	if config.Vault.Path != "" {
		cfg.Vault.Path = config.Vault.Path
	}
	if config.Vault.Token != "" {
		cfg.Vault.Token = config.Vault.Token
	}
	if config.Vault.Timeout != 0 {
		cfg.Vault.Timeout = config.Vault.Timeout
	}
	if config.Threat.Enabled {
		cfg.Threat.Enabled = true
	}
	if config.Threat.Owner != "" {
		cfg.Threat.Owner = config.Threat.Owner
	}
	if config.Threat.Repo != "" {
		cfg.Threat.Repo = config.Threat.Repo
	}
	if config.Threat.Path != "" {
		cfg.Threat.Path = config.Threat.Path
	}
	if config.Threat.Ref != "" {
		cfg.Threat.Ref = config.Threat.Ref
	}
	if config.Threat.PAT != "" {
		cfg.Threat.PAT = config.Threat.PAT
	}
	if config.DataDog.Enabled {
		cfg.DataDog.Enabled = true
	}
	if config.DataDog.Site != "" {
		cfg.DataDog.Site = config.DataDog.Site
	}
	if config.DataDog.ApiKey != "" {
		cfg.DataDog.ApiKey = config.DataDog.ApiKey
	}
	if config.DataDog.AppKey != "" {
		cfg.DataDog.AppKey = config.DataDog.AppKey
	}
	if len(config.DataDog.Tags) != 0 {
		cfg.DataDog.Tags = config.DataDog.Tags
	}
}

func GetEnv(key, defaultValue string) string {
	if val, ok := os.LookupEnv(key); ok {
		return strings.ReplaceAll(val, " ", "")
	}
	return defaultValue
}
