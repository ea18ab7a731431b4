package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cesargomez89/nowplaying/internal/constants"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Admin.Password = "testpass"
	cfg.Lastfm.APIKey = "key"
	cfg.Lastfm.User = "listener"
	return cfg
}

func TestLoad(t *testing.T) {
	// Test default values
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != constants.DefaultPort {
		t.Errorf("Expected Port to be %s, got %s", constants.DefaultPort, cfg.Server.Port)
	}

	if cfg.Cache.Path != constants.DefaultDBPath {
		t.Errorf("Expected cache path to be %s, got %s", constants.DefaultDBPath, cfg.Cache.Path)
	}

	if cfg.Catalog.Storefront != constants.DefaultStorefront {
		t.Errorf("Expected storefront to be %s, got %s", constants.DefaultStorefront, cfg.Catalog.Storefront)
	}

	if cfg.Catalog.Timeout != constants.DefaultHTTPTimeout {
		t.Errorf("Expected catalog timeout %v, got %v", constants.DefaultHTTPTimeout, cfg.Catalog.Timeout)
	}
}

func TestLoadWithEnvVars(t *testing.T) {
	t.Setenv("NOWPLAYING_SERVER_PORT", "9090")
	t.Setenv("NOWPLAYING_CACHE_BACKEND", "badger")
	t.Setenv("NOWPLAYING_LASTFM_API_KEY", "abc123")
	t.Setenv("NOWPLAYING_CATALOG_FALLBACK_STOREFRONT", "jp")
	t.Setenv("NOWPLAYING_CATALOG_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected Port to be 9090, got %s", cfg.Server.Port)
	}
	if cfg.Cache.Backend != "badger" {
		t.Errorf("Expected backend badger, got %s", cfg.Cache.Backend)
	}
	if cfg.Lastfm.APIKey != "abc123" {
		t.Errorf("Expected api key abc123, got %s", cfg.Lastfm.APIKey)
	}
	if cfg.Catalog.FallbackStorefront != "jp" {
		t.Errorf("Expected fallback storefront jp, got %s", cfg.Catalog.FallbackStorefront)
	}
	if cfg.Catalog.Timeout != 3*time.Second {
		t.Errorf("Expected catalog timeout 3s, got %v", cfg.Catalog.Timeout)
	}
}

func TestLoadWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[lastfm]\nuser = \"from-file\"\n\n[server]\nport = \"7070\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnv, path)
	t.Setenv("NOWPLAYING_SERVER_PORT", "6060")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Lastfm.User != "from-file" {
		t.Errorf("Expected user from file, got %s", cfg.Lastfm.User)
	}
	if cfg.Server.Port != "6060" {
		t.Errorf("Expected env to override file port, got %s", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "missing.toml"))
	if _, err := Load(); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"NOWPLAYING_SERVER_PORT":                 "server.port",
		"NOWPLAYING_LASTFM_API_KEY":              "lastfm.api_key",
		"NOWPLAYING_CATALOG_FALLBACK_STOREFRONT": "catalog.fallback_storefront",
		"NOWPLAYING_DEBUG":                       "debug",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"invalid port - not a number", func(c *Config) { c.Server.Port = "abc" }, true},
		{"invalid port - out of range", func(c *Config) { c.Server.Port = "99999" }, true},
		{"empty port", func(c *Config) { c.Server.Port = "" }, true},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "redis" }, true},
		{"empty cache path", func(c *Config) { c.Cache.Path = "" }, true},
		{"invalid log level", func(c *Config) { c.Log.Level = "invalid" }, true},
		{"invalid log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"missing password", func(c *Config) { c.Admin.Password = "" }, true},
		{"missing lastfm key", func(c *Config) { c.Lastfm.APIKey = "" }, true},
		{"missing lastfm user", func(c *Config) { c.Lastfm.User = "" }, true},
		{"bad catalog url", func(c *Config) { c.Catalog.BaseURL = "not a url" }, true},
		{"zero catalog rate", func(c *Config) { c.Catalog.RequestsPerSecond = 0 }, true},
		{"bad musicbrainz url ignored when disabled", func(c *Config) {
			c.MusicBrainz.Enabled = false
			c.MusicBrainz.URL = "::"
		}, false},
		{"zero connect limit", func(c *Config) { c.Stream.ConnectLimit = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = ""
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "server.port") || !strings.Contains(err.Error(), "log.format") {
		t.Errorf("Expected both problems in error, got %v", err)
	}
}

func TestCatalogEnabled(t *testing.T) {
	c := CatalogConfig{}
	if c.Enabled() {
		t.Error("Expected catalog disabled without credentials")
	}
	c.Token = "t"
	if !c.Enabled() {
		t.Error("Expected catalog enabled with static token")
	}
	c = CatalogConfig{TeamID: "team", KeyID: "kid", KeyPath: "/key.p8"}
	if !c.Enabled() {
		t.Error("Expected catalog enabled with signing key")
	}
}

func TestCORSOrigins(t *testing.T) {
	cfg := validConfig()
	cfg.Server.CORSOrigins = "https://a.example, https://b.example,,"
	got := cfg.CORSOrigins()
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("unexpected origins: %v", got)
	}
}
