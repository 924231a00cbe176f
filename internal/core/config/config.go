package config

import (
	"time"

	"github.com/rxmeter/collector/internal/core/domain"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server  ServerConfig   `yaml:"server"`
	API     APIConfig      `yaml:"api"`
	Auth    AuthConfig     `yaml:"auth"`
	Geocode GeocodeConfig  `yaml:"geocode"`
	Regions []RegionConfig `yaml:"regions"`
	Paths   PathsConfig    `yaml:"paths"`
	Logging LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds status server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// APIConfig holds settings for the upstream pricing API.
//
// The API enforces two request ceilings: 20 requests per second and
// 10,000 requests per hour. The default interval of 400ms (2.5 req/s,
// 9,000 req/h) keeps a safety margin under both.
type APIConfig struct {
	DetailURL       string        `yaml:"detail_url"`
	SearchURL       string        `yaml:"search_url"`
	Origin          string        `yaml:"origin"`
	Timeout         time.Duration `yaml:"timeout"`
	RequestInterval time.Duration `yaml:"request_interval"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	MaxConsecutive  int           `yaml:"max_consecutive_failures"`
	SearchRadius    int           `yaml:"search_radius"`
}

// AuthConfig holds credential acquisition settings. LoginCommand is an
// external helper whose stdout carries TOKEN= and MEMBERUUID= lines.
type AuthConfig struct {
	LoginCommand string `yaml:"login_command"`
	TokenEnv     string `yaml:"token_env"`
	MemberEnv    string `yaml:"member_env"`
}

// GeocodeConfig holds settings for the zip code geocoding collaborator.
type GeocodeConfig struct {
	URL       string        `yaml:"url"`
	UserAgent string        `yaml:"user_agent"`
	Delay     time.Duration `yaml:"delay"` // politeness delay between lookups
}

// RegionConfig maps a region code to its newline-delimited zip list.
type RegionConfig struct {
	Code    domain.Region `yaml:"code"`
	ZipFile string        `yaml:"zip_file"`
}

// PathsConfig holds file locations for inputs, caches, and results.
type PathsConfig struct {
	ResultsDir    string `yaml:"results_dir"`
	Catalog       string `yaml:"catalog"`
	LocationCache string `yaml:"location_cache"`
	UUIDCache     string `yaml:"uuid_cache"`
}
