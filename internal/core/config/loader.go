package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.RequestInterval == 0 {
		cfg.API.RequestInterval = 400 * time.Millisecond
	}
	if cfg.API.MaxRetries == 0 {
		cfg.API.MaxRetries = 3
	}
	if cfg.API.RetryDelay == 0 {
		cfg.API.RetryDelay = 2 * time.Second
	}
	if cfg.API.MaxConsecutive == 0 {
		cfg.API.MaxConsecutive = 10
	}
	if cfg.API.SearchRadius == 0 {
		cfg.API.SearchRadius = 8
	}
	if cfg.Auth.LoginCommand == "" {
		cfg.Auth.LoginCommand = "./grab_token.sh"
	}
	if cfg.Auth.TokenEnv == "" {
		cfg.Auth.TokenEnv = "TOKEN"
	}
	if cfg.Auth.MemberEnv == "" {
		cfg.Auth.MemberEnv = "MEMBERUUID"
	}
	if cfg.Geocode.URL == "" {
		cfg.Geocode.URL = "https://nominatim.openstreetmap.org/search"
	}
	if cfg.Geocode.UserAgent == "" {
		cfg.Geocode.UserAgent = "rxmeter-collector/1.0"
	}
	if cfg.Geocode.Delay == 0 {
		cfg.Geocode.Delay = 100 * time.Millisecond
	}
	if cfg.Paths.ResultsDir == "" {
		cfg.Paths.ResultsDir = "results"
	}
	if cfg.Paths.LocationCache == "" {
		cfg.Paths.LocationCache = "results/geocoding_cache.json"
	}
	if cfg.Paths.UUIDCache == "" {
		cfg.Paths.UUIDCache = "uuid_cache.json"
	}
}
