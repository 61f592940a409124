// Package config loads the application configuration from TOML files.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// CurrentVersion of the config file format. Bumped when a field changes
// meaning; a mismatch fails startup rather than running with misread
// settings.
const CurrentVersion = 1

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version int   `koanf:"version"`
	Debug   Debug `koanf:"debug"`
	Redis   Redis `koanf:"redis"`
	Cache   Cache `koanf:"cache"`
}

// Debug contains development settings.
type Debug struct {
	// Log at debug level.
	LogLevel string `koanf:"log_level"`
	// Track encoded entity sizes and warn about undersized pre-allocation
	// hints. Costs a lock per encode; leave off in production.
	CodecInstrumentation bool `koanf:"codec_instrumentation"`
}

// Redis contains the backing store connection settings.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
	// Connection pool size per client.
	PoolSize int `koanf:"pool_size"`
}

// Cache contains cache behavior settings.
type Cache struct {
	// Cold resume snapshot expiry in seconds.
	ColdResumeTTL int `koanf:"cold_resume_ttl"`
	// Guilds per cold resume chunk.
	GuildsPerChunk int `koanf:"guilds_per_chunk"`
}

// LoadConfig loads the config file from the search paths and returns the
// parsed configuration plus the directory it was found in.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configPaths := []string{
		".statecache",
		homeDir + "/.statecache/config",
		"/etc/statecache/config",
		"/app/config",
		"config",
		".",
	}

	var usedConfigPath string

	for _, path := range configPaths {
		configPath := path + "/config.toml"
		if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
			usedConfigPath = path
			break
		}
	}

	if usedConfigPath == "" {
		return nil, "", fmt.Errorf("%w: config.toml", ErrConfigFileNotFound)
	}

	config := defaultConfig()
	if err := k.Unmarshal("", config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.Version != CurrentVersion {
		return nil, "", fmt.Errorf("%w: expected %d, found %d",
			ErrConfigVersionMismatch, CurrentVersion, config.Version)
	}

	return config, usedConfigPath, nil
}

func defaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Debug: Debug{
			LogLevel: "info",
		},
		Redis: Redis{
			Host:     "127.0.0.1",
			Port:     6379,
			PoolSize: 16,
		},
		Cache: Cache{
			ColdResumeTTL:  180,
			GuildsPerChunk: 100_000,
		},
	}
}
