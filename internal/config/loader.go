package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/encoding/ianaindex"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file or a directory holding
// config.yaml. Environment overrides apply after the file, then defaults,
// checksum verification and validation.
func Load(configPath string) (*Config, error) {
	absPath, err := ResolveConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfigFile(absPath)
	if err != nil {
		return nil, err
	}

	cfg = applyConfigDefaults(cfg)
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := verifyConfigHash(absPath); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ResolveConfigFile turns a file-or-directory path into the absolute path
// of the config file itself.
func ResolveConfigFile(configPath string) (string, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return "", fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}
	return absPath, nil
}

// DiscoverConfigDir finds the config location by checking standard places.
// Priority order: $DRAWBRIDGE_CONFIG, ~/.config/drawbridge, /etc/drawbridge,
// ./config.yaml (legacy single file).
func DiscoverConfigDir() (string, error) {
	if dir := os.Getenv("DRAWBRIDGE_CONFIG"); dir != "" {
		if _, err := os.Stat(dir); err == nil {
			return dir, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfigDir := filepath.Join(homeDir, ".config", "drawbridge")
		if _, err := os.Stat(userConfigDir); err == nil {
			return userConfigDir, nil
		}
	}

	systemConfigDir := "/etc/drawbridge"
	if _, err := os.Stat(systemConfigDir); err == nil {
		return systemConfigDir, nil
	}

	legacyConfigPath := "./config.yaml"
	if _, err := os.Stat(legacyConfigPath); err == nil {
		return legacyConfigPath, nil
	}

	return "", fmt.Errorf("no config found (checked: $DRAWBRIDGE_CONFIG, ~/.config/drawbridge, /etc/drawbridge, ./config.yaml)")
}

// loadConfigFile loads and parses a single config file.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	interpolated := interpolateEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies DRAWBRIDGE_* environment overrides on top of
// the file values.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DRAWBRIDGE_EXCHANGE_DIR"); v != "" {
		cfg.Exchange.Dir = v
	}
	if v := os.Getenv("DRAWBRIDGE_BACKEND"); v != "" {
		cfg.Backend.Mode = v
	}
	if v := os.Getenv("DRAWBRIDGE_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("DRAWBRIDGE_IPC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DRAWBRIDGE_IPC_TIMEOUT: invalid duration %q: %w", v, err)
		}
		cfg.Exchange.Timeout = d
	}
	if v := os.Getenv("DRAWBRIDGE_EXCHANGE_HEADLESS"); v != "" {
		cfg.Exchange.Headless = v == "1" || strings.EqualFold(v, "true")
	}
	return nil
}

// verifyConfigHash checks the config file against a .checksums manifest in
// the same directory. A missing manifest skips verification; a manifest
// that exists but does not cover or match the file is an error.
func verifyConfigHash(path string) error {
	dir := filepath.Dir(path)
	checksums, err := LoadChecksums(dir)
	if err != nil {
		return nil
	}

	basename := filepath.Base(path)
	expectedHash, ok := checksums.Hashes[basename]
	if !ok {
		return fmt.Errorf("config file %s has no hash in checksums at %s\n"+
			"Run: drawbridge config lock --config %s", basename, dir, dir)
	}

	if err := VerifyFileHash(path, expectedHash); err != nil {
		return fmt.Errorf("config verification failed for %s: %w\n"+
			"This indicates tampering or unauthorized modification.\n"+
			"If you edited this file intentionally, run: drawbridge config lock --config %s", path, err, dir)
	}
	return nil
}

// applyConfigDefaults merges default values into config where not explicitly set.
func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Backend.Mode == "" {
		cfg.Backend.Mode = defaults.Backend.Mode
	}

	if cfg.Exchange.Dir == "" {
		cfg.Exchange.Dir = defaults.Exchange.Dir
	}
	if cfg.Exchange.Prefix == "" {
		cfg.Exchange.Prefix = defaults.Exchange.Prefix
	}
	if cfg.Exchange.TriggerCommand == "" {
		cfg.Exchange.TriggerCommand = defaults.Exchange.TriggerCommand
	}
	if cfg.Exchange.Timeout == 0 {
		cfg.Exchange.Timeout = defaults.Exchange.Timeout
	}
	if cfg.Exchange.PollInterval == 0 {
		cfg.Exchange.PollInterval = defaults.Exchange.PollInterval
	}
	if cfg.Exchange.SettleDelay == 0 {
		cfg.Exchange.SettleDelay = defaults.Exchange.SettleDelay
	}
	if cfg.Exchange.StaleAfter == 0 {
		cfg.Exchange.StaleAfter = defaults.Exchange.StaleAfter
	}
	if cfg.Exchange.SweepInterval == 0 {
		cfg.Exchange.SweepInterval = defaults.Exchange.SweepInterval
	}
	if cfg.Exchange.ResultEncoding == "" {
		cfg.Exchange.ResultEncoding = defaults.Exchange.ResultEncoding
	}

	if !cfg.API.Enabled && cfg.API.Listen == "" {
		cfg.API = defaults.API
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}

	if cfg.History.Path == "" {
		cfg.History.Path = defaults.History.Path
	}

	return cfg
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

var validScopes = map[string]bool{
	"draw:ro":    true,
	"draw:rw":    true,
	"history:ro": true,
	"events:ro":  true,
	"*":          true,
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	switch cfg.Backend.Mode {
	case "auto", "fileipc", "memdoc":
	default:
		return fmt.Errorf("backend.mode must be one of: auto, fileipc, memdoc (got %q)", cfg.Backend.Mode)
	}

	if cfg.Exchange.Prefix == "" {
		return fmt.Errorf("exchange.prefix is required")
	}
	if cfg.Exchange.Timeout <= 0 {
		return fmt.Errorf("exchange.timeout must be positive")
	}
	if cfg.Exchange.PollInterval <= 0 {
		return fmt.Errorf("exchange.poll_interval must be positive")
	}
	if cfg.Exchange.PollInterval >= cfg.Exchange.Timeout {
		return fmt.Errorf("exchange.poll_interval (%s) must be shorter than exchange.timeout (%s)",
			cfg.Exchange.PollInterval, cfg.Exchange.Timeout)
	}
	if cfg.Exchange.SettleDelay < 0 {
		return fmt.Errorf("exchange.settle_delay must not be negative")
	}
	if cfg.Exchange.StaleAfter <= 0 {
		return fmt.Errorf("exchange.stale_after must be positive")
	}
	if cfg.Exchange.SweepInterval <= 0 {
		return fmt.Errorf("exchange.sweep_interval must be positive")
	}
	if cfg.Exchange.ResultEncoding != "" {
		enc, err := ianaindex.IANA.Encoding(cfg.Exchange.ResultEncoding)
		if err != nil || enc == nil {
			return fmt.Errorf("exchange.result_encoding: unknown encoding %q", cfg.Exchange.ResultEncoding)
		}
	}

	if cfg.API.Enabled {
		if envVarPattern.MatchString(cfg.API.Auth.APIKey) {
			matches := envVarPattern.FindStringSubmatch(cfg.API.Auth.APIKey)
			if len(matches) > 1 {
				return fmt.Errorf("api.auth.api_key: environment variable ${%s} is not set", matches[1])
			}
			return fmt.Errorf("api.auth.api_key: unresolved environment variable")
		}
		for i, tok := range cfg.API.Auth.Tokens {
			if tok.Token == "" {
				return fmt.Errorf("api.auth.tokens[%d].token is required", i)
			}
			if envVarPattern.MatchString(tok.Token) {
				matches := envVarPattern.FindStringSubmatch(tok.Token)
				if len(matches) > 1 {
					return fmt.Errorf("api.auth.tokens[%d].token: environment variable ${%s} is not set", i, matches[1])
				}
				return fmt.Errorf("api.auth.tokens[%d].token: unresolved environment variable", i)
			}
			if len(tok.Scopes) == 0 {
				return fmt.Errorf("api.auth.tokens[%d].scopes must be non-empty", i)
			}
			for _, scope := range tok.Scopes {
				if !validScopes[scope] {
					return fmt.Errorf("api.auth.tokens[%d]: unknown scope %q (valid: draw:ro, draw:rw, history:ro, events:ro, *)", i, scope)
				}
			}
		}
	}

	if cfg.History.Path == "" {
		return fmt.Errorf("history.path is required")
	}

	return nil
}
