// Package doctor validates drawbridge configuration and the runtime
// environment it will operate in.
package doctor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/drafthaus/drawbridge/internal/config"
	"github.com/drafthaus/drawbridge/internal/storage"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates configuration against the host it runs on.
type Doctor struct {
	cfg *config.Config

	// goos is overridable so platform checks can be tested anywhere.
	goos string
}

// New creates a Doctor from a loaded config.
func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg, goos: runtime.GOOS}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateBackendMode(r)
	d.validateExchangeDir(r)
	d.warnNetworkFilesystem(r)
	d.warnLeftoverArtifacts(r)
	d.validateTimings(r)
	d.validateHistoryPath(r)
	d.warnMissingCatalog(r)
	d.validateAPIConfig(r)
	d.warnDeprecatedSyntax(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// usesExchange reports whether the configured backend mode can end up
// talking to AutoCAD through the exchange directory.
func (d *Doctor) usesExchange() bool {
	return d.cfg.Backend.Mode != "memdoc"
}

// validateBackendMode flags backend choices that cannot work on this host.
// A headless exchange has no window to probe, so any host can run it.
func (d *Doctor) validateBackendMode(r *Result) {
	if d.cfg.Backend.Mode == "fileipc" && d.goos != "windows" && !d.cfg.Exchange.Headless {
		d.addError(r, "backend", "backend.mode",
			fmt.Sprintf("fileipc requires a Windows host with AutoCAD (running on %s); use auto or memdoc, or set exchange.headless with a polling responder", d.goos))
	}
}

// validateExchangeDir checks the exchange directory exists (creating it if
// needed) and is writable, using a probe file.
func (d *Doctor) validateExchangeDir(r *Result) {
	if !d.usesExchange() {
		return
	}
	dir := d.cfg.Exchange.Dir
	if dir == "" {
		d.addError(r, "exchange", "exchange.dir", "exchange.dir is required")
		return
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			d.addError(r, "exchange", "exchange.dir",
				fmt.Sprintf("directory %s does not exist and cannot be created: %v", dir, mkErr))
			return
		}
		d.addWarning(r, "exchange", "exchange.dir",
			fmt.Sprintf("directory %s did not exist; created it", dir))
	case err != nil:
		d.addError(r, "exchange", "exchange.dir",
			fmt.Sprintf("cannot access %s: %v", dir, err))
		return
	case !info.IsDir():
		d.addError(r, "exchange", "exchange.dir",
			fmt.Sprintf("%s is not a directory", dir))
		return
	}

	probe, err := os.CreateTemp(dir, ".drawbridge-probe-*")
	if err != nil {
		d.addError(r, "exchange", "exchange.dir",
			fmt.Sprintf("directory %s is not writable: %v", dir, err))
		return
	}
	probe.Close()
	os.Remove(probe.Name())
}

// warnNetworkFilesystem warns when the exchange directory sits on a network
// filesystem, where rename visibility and mtimes can lag behind writes.
func (d *Doctor) warnNetworkFilesystem(r *Result) {
	if !d.usesExchange() || d.cfg.Exchange.Dir == "" {
		return
	}
	fsType, err := storage.FilesystemType(d.cfg.Exchange.Dir)
	if err != nil {
		return
	}
	if storage.IsNetworkFilesystem(fsType) {
		d.addWarning(r, "exchange", "exchange.dir",
			fmt.Sprintf("directory is on a network filesystem (%s); result pickup may be unreliable", fsType))
	}
}

// warnLeftoverArtifacts counts stranded exchange files from earlier runs.
func (d *Doctor) warnLeftoverArtifacts(r *Result) {
	if !d.usesExchange() || d.cfg.Exchange.Dir == "" || d.cfg.Exchange.Prefix == "" {
		return
	}
	matches, err := filepath.Glob(filepath.Join(d.cfg.Exchange.Dir, d.cfg.Exchange.Prefix+"_*"))
	if err != nil || len(matches) == 0 {
		return
	}
	d.addWarning(r, "exchange", "",
		fmt.Sprintf("%d leftover exchange file(s) in %s; the stale sweep removes them after %s",
			len(matches), d.cfg.Exchange.Dir, d.cfg.Exchange.StaleAfter))
}

// validateTimings cross-checks the exchange timing knobs.
func (d *Doctor) validateTimings(r *Result) {
	ex := d.cfg.Exchange
	if ex.PollInterval >= ex.Timeout {
		d.addError(r, "timing", "exchange.poll_interval",
			fmt.Sprintf("poll_interval (%s) must be shorter than timeout (%s)", ex.PollInterval, ex.Timeout))
	}
	if ex.StaleAfter < ex.Timeout {
		d.addWarning(r, "timing", "exchange.stale_after",
			fmt.Sprintf("stale_after (%s) is shorter than timeout (%s); the sweep may remove results for calls still in flight",
				ex.StaleAfter, ex.Timeout))
	}
}

// validateHistoryPath checks the history database location is usable.
func (d *Doctor) validateHistoryPath(r *Result) {
	path := d.cfg.History.Path
	if path == "" {
		d.addError(r, "history", "history.path", "history.path is required")
		return
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		d.addError(r, "history", "history.path",
			fmt.Sprintf("cannot create database directory %s: %v", dir, err))
		return
	}
	probe, err := os.CreateTemp(dir, ".drawbridge-probe-*")
	if err != nil {
		d.addError(r, "history", "history.path",
			fmt.Sprintf("database directory %s is not writable: %v", dir, err))
		return
	}
	probe.Close()
	os.Remove(probe.Name())
}

// warnMissingCatalog notes when no symbol library directory is available.
// The built-in catalog still serves, so this is never an error.
func (d *Doctor) warnMissingCatalog(r *Result) {
	path := d.cfg.Catalog.Path
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		d.addWarning(r, "catalog", "catalog.path",
			fmt.Sprintf("symbol library %s not found; built-in symbols only", path))
	}
}

// validateAPIConfig checks that an enabled API has credentials guarding it.
func (d *Doctor) validateAPIConfig(r *Result) {
	if !d.cfg.API.Enabled {
		return
	}
	if d.cfg.API.Listen == "" {
		d.addError(r, "api", "api.listen", "listen address is required when the API is enabled")
	}
	if d.cfg.API.Auth.APIKey == "" && len(d.cfg.API.Auth.Tokens) == 0 {
		d.addWarning(r, "api", "api.auth",
			"API enabled with no api_key or tokens; every request will be rejected")
	}
	for i, token := range d.cfg.API.Auth.Tokens {
		if token.Token == "" {
			d.addWarning(r, "api", fmt.Sprintf("api.auth.tokens[%d].token", i),
				"token value is empty (possibly unresolved environment variable)")
		}
	}
}

// warnDeprecatedSyntax warns about legacy config patterns.
func (d *Doctor) warnDeprecatedSyntax(r *Result) {
	if d.cfg.API.Auth.APIKey != "" && len(d.cfg.API.Auth.Tokens) > 0 {
		d.addWarning(r, "deprecated", "api.auth",
			"both api_key and tokens configured; prefer tokens array only")
	}
	if d.cfg.API.Auth.APIKey != "" && len(d.cfg.API.Auth.Tokens) == 0 {
		d.addWarning(r, "deprecated", "api.auth.api_key",
			"legacy api_key grants full access; migrate to tokens array with scopes")
	}
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid && len(r.Warnings) > 0 {
		b.WriteString("Configuration valid")
		fmt.Fprintf(&b, " (%d warning(s))\n", len(r.Warnings))
	}

	if !r.Valid {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Fprintf(&b, "  ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "  ERROR [%s] %s\n", e.Category, e.Message)
		}
	}
	for _, w := range r.Warnings {
		if w.Field != "" {
			fmt.Fprintf(&b, "  WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
		} else {
			fmt.Fprintf(&b, "  WARN  [%s] %s\n", w.Category, w.Message)
		}
	}

	return b.String()
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
