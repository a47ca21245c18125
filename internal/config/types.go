package config

import (
	"os"
	"time"
)

// Config represents the complete drawbridge configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Backend  BackendConfig  `yaml:"backend"`
	Exchange ExchangeConfig `yaml:"exchange"`
	API      APIConfig      `yaml:"api,omitempty"`
	History  HistoryConfig  `yaml:"history"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	LogLevel string `yaml:"log_level"`
}

// BackendConfig selects the drawing backend.
type BackendConfig struct {
	// Mode is auto, fileipc or memdoc. auto probes for a live AutoCAD
	// window and falls back to the in-memory engine.
	Mode string `yaml:"mode"`
}

// ExchangeConfig defines the file exchange shared with the companion
// script inside AutoCAD.
type ExchangeConfig struct {
	Dir            string        `yaml:"dir"`
	Prefix         string        `yaml:"prefix"`
	TriggerCommand string        `yaml:"trigger_command"`
	Timeout        time.Duration `yaml:"timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	StaleAfter     time.Duration `yaml:"stale_after"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	// ResultEncoding is the IANA name of the legacy single-byte encoding
	// used when a result file is not valid UTF-8. Empty means strict UTF-8.
	ResultEncoding string `yaml:"result_encoding"`
	// Headless skips the window probe and keystroke trigger so a responder
	// polling the exchange dir (cmd/fakecad) can answer on any host.
	Headless bool `yaml:"headless,omitempty"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool          `yaml:"enabled"`
	Listen  string        `yaml:"listen"`
	Auth    APIAuthConfig `yaml:"auth"`
}

// APIAuthConfig defines API authentication settings.
type APIAuthConfig struct {
	// APIKey is the legacy single bearer token (admin/full access).
	// Prefer Tokens for scoped access.
	APIKey string     `yaml:"api_key"`
	Tokens []APIToken `yaml:"tokens,omitempty"`
}

// APIToken defines a bearer token and its scopes.
type APIToken struct {
	Token  string   `yaml:"token"`
	Scopes []string `yaml:"scopes"`
}

// HistoryConfig defines the call journal storage.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// CatalogConfig points at the P&ID symbol library root.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// ChecksumManifest is the parsed .checksums file.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			LogLevel: "info",
		},
		Backend: BackendConfig{
			Mode: "auto",
		},
		Exchange: ExchangeConfig{
			Dir:            os.TempDir(),
			Prefix:         "drawbridge",
			TriggerCommand: "(c:drawbridge-dispatch)",
			Timeout:        10 * time.Second,
			PollInterval:   100 * time.Millisecond,
			SettleDelay:    50 * time.Millisecond,
			StaleAfter:     60 * time.Second,
			SweepInterval:  60 * time.Second,
			ResultEncoding: "windows-1252",
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8080",
			Auth: APIAuthConfig{
				APIKey: "",
			},
		},
		History: HistoryConfig{
			Path: "./data/history.db",
		},
		Catalog: CatalogConfig{
			Path: "",
		},
	}
}
