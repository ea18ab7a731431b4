package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/cesargomez89/nowplaying/internal/constants"
)

// EnvPrefix is stripped from environment variables before they are mapped
// onto config keys: NOWPLAYING_LASTFM_API_KEY -> lastfm.api_key.
const EnvPrefix = "NOWPLAYING_"

// ConfigPathEnv names an optional TOML file loaded between defaults and env.
const ConfigPathEnv = "NOWPLAYING_CONFIG"

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Cache       CacheConfig       `koanf:"cache"`
	Log         LogConfig         `koanf:"log"`
	Admin       AdminConfig       `koanf:"admin"`
	Lastfm      LastfmConfig      `koanf:"lastfm"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	MusicBrainz MusicBrainzConfig `koanf:"musicbrainz"`
	Stream      StreamConfig      `koanf:"stream"`
}

type ServerConfig struct {
	Port        string `koanf:"port"`
	CORSOrigins string `koanf:"cors_origins"` // comma separated
}

type CacheConfig struct {
	Backend string `koanf:"backend"` // sqlite, badger
	Path    string `koanf:"path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type AdminConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

type LastfmConfig struct {
	APIKey    string        `koanf:"api_key"`
	APISecret string        `koanf:"api_secret"`
	User      string        `koanf:"user"`
	Timeout   time.Duration `koanf:"timeout"`
}

type CatalogConfig struct {
	BaseURL            string        `koanf:"base_url"`
	Storefront         string        `koanf:"storefront"`
	FallbackStorefront string        `koanf:"fallback_storefront"`
	Token              string        `koanf:"token"`
	TeamID             string        `koanf:"team_id"`
	KeyID              string        `koanf:"key_id"`
	KeyPath            string        `koanf:"key_path"`
	Timeout            time.Duration `koanf:"timeout"`
	RequestsPerSecond  float64       `koanf:"requests_per_second"`
}

// Enabled reports whether any catalog credentials are configured.
func (c CatalogConfig) Enabled() bool {
	return c.Token != "" || (c.TeamID != "" && c.KeyID != "" && c.KeyPath != "")
}

type MusicBrainzConfig struct {
	URL     string `koanf:"url"`
	Enabled bool   `koanf:"enabled"`
}

type StreamConfig struct {
	ConnectLimit  int           `koanf:"connect_limit"`
	ConnectWindow time.Duration `koanf:"connect_window"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{Port: constants.DefaultPort},
		Cache: CacheConfig{
			Backend: constants.DefaultCacheBackend,
			Path:    constants.DefaultDBPath,
		},
		Log:   LogConfig{Level: "info", Format: "text"},
		Admin: AdminConfig{Username: constants.DefaultUsername},
		Lastfm: LastfmConfig{
			Timeout: constants.DefaultHTTPTimeout,
		},
		Catalog: CatalogConfig{
			BaseURL:            constants.DefaultCatalogURL,
			Storefront:         constants.DefaultStorefront,
			FallbackStorefront: constants.DefaultFallbackFront,
			Timeout:            constants.DefaultHTTPTimeout,
			RequestsPerSecond:  constants.DefaultCatalogRPS,
		},
		MusicBrainz: MusicBrainzConfig{
			URL:     constants.DefaultMusicBrainz,
			Enabled: true,
		},
		Stream: StreamConfig{
			ConnectLimit:  constants.DefaultStreamLimit,
			ConnectWindow: constants.DefaultStreamWindow,
		},
	}
}

// Load layers defaults, an optional TOML file and NOWPLAYING_* environment
// variables, in that order of precedence (last wins).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := os.Getenv(ConfigPathEnv); path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// envKey maps NOWPLAYING_CATALOG_FALLBACK_STOREFRONT to catalog.fallback_storefront.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, key, found := strings.Cut(s, "_")
	if !found {
		return s
	}
	return section + "." + key
}

// CORSOrigins returns the configured origins as a list.
func (c *Config) CORSOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.Server.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	// Validate Port
	if c.Server.Port == "" {
		errors = append(errors, "server.port cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Server.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("server.port must be a valid number, got: %s", c.Server.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("server.port must be between 1 and 65535, got: %d", port))
		}
	}

	// Validate cache
	switch c.Cache.Backend {
	case constants.CacheBackendSQLite, constants.CacheBackendBadger:
	default:
		errors = append(errors, fmt.Sprintf("cache.backend must be one of: sqlite, badger, got: %s", c.Cache.Backend))
	}
	if c.Cache.Path == "" {
		errors = append(errors, "cache.path cannot be empty")
	}

	// Validate LogLevel
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Log.Level] {
		errors = append(errors, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got: %s", c.Log.Level))
	}

	// Validate LogFormat
	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.Log.Format] {
		errors = append(errors, fmt.Sprintf("log.format must be one of: text, json, got: %s", c.Log.Format))
	}

	if c.Admin.Username == "" {
		errors = append(errors, "admin.username cannot be empty")
	}
	if c.Admin.Password == "" {
		errors = append(errors, "admin.password cannot be empty")
	}

	// Validate Last.fm
	if c.Lastfm.APIKey == "" {
		errors = append(errors, "lastfm.api_key cannot be empty")
	}
	if c.Lastfm.User == "" {
		errors = append(errors, "lastfm.user cannot be empty")
	}
	if c.Lastfm.Timeout <= 0 {
		errors = append(errors, "lastfm.timeout must be positive")
	}

	// Validate catalog
	if _, err := url.ParseRequestURI(c.Catalog.BaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("catalog.base_url is not a valid URL: %s", c.Catalog.BaseURL))
	}
	if c.Catalog.Storefront == "" {
		errors = append(errors, "catalog.storefront cannot be empty")
	}
	if c.Catalog.Timeout <= 0 {
		errors = append(errors, "catalog.timeout must be positive")
	}
	if c.Catalog.RequestsPerSecond <= 0 {
		errors = append(errors, "catalog.requests_per_second must be positive")
	}

	if c.MusicBrainz.Enabled {
		if _, err := url.ParseRequestURI(c.MusicBrainz.URL); err != nil {
			errors = append(errors, fmt.Sprintf("musicbrainz.url is not a valid URL: %s", c.MusicBrainz.URL))
		}
	}

	if c.Stream.ConnectLimit < 1 {
		errors = append(errors, "stream.connect_limit must be at least 1")
	}
	if c.Stream.ConnectWindow <= 0 {
		errors = append(errors, "stream.connect_window must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
