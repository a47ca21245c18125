package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/drafthaus/drawbridge/internal/batch"
	"github.com/drafthaus/drawbridge/internal/cad"
	"github.com/drafthaus/drawbridge/internal/catalog"
	"github.com/drafthaus/drawbridge/internal/config"
	"github.com/drafthaus/drawbridge/internal/doctor"
	"github.com/drafthaus/drawbridge/internal/events"
	"github.com/drafthaus/drawbridge/internal/history"
	"github.com/drafthaus/drawbridge/internal/lock"
	"github.com/drafthaus/drawbridge/internal/log"
	"github.com/drafthaus/drawbridge/internal/storage"
	"github.com/drafthaus/drawbridge/internal/tools"
	"gopkg.in/yaml.v3"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	if cmd == "--version" {
		return runVersion(args)
	}

	switch cmd {
	// --- NOUNS ---
	case "system":
		return runSystemNoun(args)
	case "config":
		return runConfigNoun(args)
	case "symbol":
		return runSymbolNoun(args)
	case "batch":
		return runBatchNoun(args)

	// --- VERB-STYLE ROOT COMMANDS ---
	case "call":
		if hasHelpFlag(args) {
			printCallHelp()
			return 0
		}
		return runCall(args)
	case "start":
		return runStart(args)
	case "doctor":
		return runConfigCheck(args)
	case "version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: drawbridge version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("drawbridge %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}

	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	resolvedCommit := strings.TrimSpace(gitCommit)
	if resolvedCommit == "" || resolvedCommit == "unknown" {
		resolvedCommit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if resolvedCommit != "" {
		info.Commit = shortenCommit(resolvedCommit)
	}

	resolvedBuildTime := strings.TrimSpace(buildDate)
	if resolvedBuildTime == "" || resolvedBuildTime == "unknown" {
		resolvedBuildTime = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if normalizedBuildTime, ok := normalizeBuildTimeUTC(resolvedBuildTime); ok {
		info.BuildTime = normalizedBuildTime
	}

	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func normalizeBuildTimeUTC(raw string) (string, bool) {
	if raw == "" || raw == "unknown" {
		return "", false
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", false
	}

	return t.UTC().Format(time.RFC3339), true
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`drawbridge - AutoCAD LT drawing operations bridge

Usage:
  drawbridge <noun> <action> [flags]

Core Resources (Nouns):
  system    Daemon lifecycle and health
  config    Configuration validation and integrity
  symbol    P&ID symbol catalog
  batch     Scripted command sequences

System Commands:
  system start      Start the bridge daemon in foreground
  system status     Offline health checks (config, database, locks)
  system init       Probe AutoCAD and initialize a session once

Config Commands:
  config check      Validate configuration and environment
  config lock       Authorize current config (update integrity hashes)
  config show       Print the resolved configuration

Drawing Commands:
  call <tool> <operation>   One-shot tool call against the backend
  symbol list [category]    List catalog categories or symbols
  batch run <file.yaml>     Run a YAML command sequence

General:
  --version         Show version information
  version           Show version information
  help              Show this help message

Use 'drawbridge <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSystemNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			printSystemStartHelp()
			return 0
		}
		return runStart(actionArgs)
	case "status":
		if hasHelpFlag(actionArgs) {
			printSystemStatusHelp()
			return 0
		}
		return runSystemStatus(actionArgs)
	case "init":
		if hasHelpFlag(actionArgs) {
			printSystemInitHelp()
			return 0
		}
		return runSystemInit(actionArgs)
	case "help":
		printSystemNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}

	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runConfigCheck(actionArgs)
	case "lock":
		if hasHelpFlag(actionArgs) {
			printConfigLockHelp()
			return 0
		}
		return runConfigLock(actionArgs)
	case "show":
		if hasHelpFlag(actionArgs) {
			printConfigShowHelp()
			return 0
		}
		return runConfigShow(actionArgs)
	case "help":
		printConfigNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func runSymbolNoun(args []string) int {
	if len(args) < 1 {
		printSymbolNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSymbolNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		if hasHelpFlag(actionArgs) {
			printSymbolListHelp()
			return 0
		}
		return runSymbolList(actionArgs)
	case "help":
		printSymbolNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown symbol action: %s\n", action)
		return 1
	}
}

func runBatchNoun(args []string) int {
	if len(args) < 1 {
		printBatchNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printBatchNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "run":
		if hasHelpFlag(actionArgs) {
			printBatchRunHelp()
			return 0
		}
		return runBatchRun(actionArgs)
	case "help":
		printBatchNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown batch action: %s\n", action)
		return 1
	}
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: drawbridge system <action>")
	fmt.Fprintln(w, "Actions: start, status, init")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: drawbridge config <action> [flags]")
	fmt.Fprintln(w, "Actions: check, lock, show")
}

func printSymbolNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: drawbridge symbol <action>")
	fmt.Fprintln(w, "Actions: list")
}

func printBatchNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: drawbridge batch <action>")
	fmt.Fprintln(w, "Actions: run")
}

func printSystemStartHelp() {
	fmt.Println("Usage: drawbridge system start [--config PATH]")
	fmt.Println("Start the bridge daemon in the foreground.")
}

func printSystemStatusHelp() {
	fmt.Println("Usage: drawbridge system status [--config PATH] [--json]")
	fmt.Println("Offline health checks: config, history database, PID lock, exchange dir.")
	fmt.Println("")
	fmt.Println("Exit codes:")
	fmt.Println("  0  All required checks passed")
	fmt.Println("  1  One or more checks failed")
}

func printSystemInitHelp() {
	fmt.Println("Usage: drawbridge system init [--config PATH] [--json]")
	fmt.Println("Build a backend and initialize a session once, then report.")
	fmt.Println("Useful on the AutoCAD host before system start.")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: drawbridge config check [--config PATH] [--format human|json] [--strict] [--json]")
	fmt.Println("Validate configuration, platform fit, and the exchange environment.")
}

func printConfigLockHelp() {
	fmt.Println("Usage: drawbridge config lock [--config PATH] [-v|--verbose] [--dry-run]")
	fmt.Println("Authorize the current configuration by regenerating integrity hashes.")
}

func printConfigShowHelp() {
	fmt.Println("Usage: drawbridge config show [--config PATH] [--json]")
	fmt.Println("Print the fully resolved configuration.")
}

func printCallHelp() {
	fmt.Println("Usage: drawbridge call <tool> <operation> [--data JSON] [--config PATH] [--json]")
	fmt.Println("Run a single tool operation against the configured backend.")
	fmt.Println("")
	fmt.Println("Example:")
	fmt.Println(`  drawbridge call entity create-line --data '{"x1":0,"y1":0,"x2":100,"y2":0,"layer":"WALLS"}'`)
}

func printSymbolListHelp() {
	fmt.Println("Usage: drawbridge symbol list [category] [--config PATH] [--json]")
	fmt.Println("List symbol catalog categories, or the symbols in one category.")
}

func printBatchRunHelp() {
	fmt.Println("Usage: drawbridge batch run <file.yaml> [--config PATH] [--json]")
	fmt.Println("Run a YAML command sequence against the configured backend.")
	fmt.Println("")
	fmt.Println("Exit codes:")
	fmt.Println("  0  All steps succeeded")
	fmt.Println("  1  One or more steps failed")
}

func loadConfigForTool(configPath string) (*config.Config, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfigDir()
		if err != nil {
			return nil, err
		}
		configPath = discovered
	}
	return config.Load(configPath)
}

func getPIDLockPath(cfg *config.Config) string {
	dbPath := cfg.History.Path
	dbDir := filepath.Dir(dbPath)
	dbBase := filepath.Base(dbPath)
	ext := filepath.Ext(dbBase)
	nameWithoutExt := dbBase[:len(dbBase)-len(ext)]
	return filepath.Join(dbDir, nameWithoutExt+".pid")
}

// --- ACTION IMPLEMENTATIONS ---

type statusCheck struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	Detail    string `json:"detail,omitempty"`
	ActivePID int    `json:"active_pid,omitempty"`
}

type statusReport struct {
	Healthy bool          `json:"healthy"`
	Checks  []statusCheck `json:"checks"`
}

func runSystemStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output the status report as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	report := statusReport{Healthy: true}
	add := func(c statusCheck) {
		if !c.OK {
			report.Healthy = false
		}
		report.Checks = append(report.Checks, c)
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		add(statusCheck{Name: "config_load", OK: false, Detail: err.Error()})
		add(statusCheck{Name: "history_db", OK: false, Detail: "skipped: config not loaded"})
		add(statusCheck{Name: "pid_lock", OK: false, Detail: "skipped: config not loaded"})
		add(statusCheck{Name: "exchange_dir", OK: false, Detail: "skipped: config not loaded"})
		printStatusReport(report, *jsonOut)
		return 1
	}
	add(statusCheck{Name: "config_load", OK: true})

	db, err := storage.OpenSQLite(context.Background(), cfg.History.Path)
	if err != nil {
		add(statusCheck{Name: "history_db", OK: false, Detail: err.Error()})
	} else {
		_ = db.Close()
		add(statusCheck{Name: "history_db", OK: true, Detail: cfg.History.Path})
	}

	lockPath := getPIDLockPath(cfg)
	if pid := lock.ReadLockPID(lockPath); pid != 0 && lock.ProcessAlive(pid) {
		add(statusCheck{Name: "pid_lock", OK: false, ActivePID: pid,
			Detail: fmt.Sprintf("daemon appears to be running (pid %d, lock %s)", pid, lockPath)})
	} else {
		add(statusCheck{Name: "pid_lock", OK: true, Detail: "no active daemon"})
	}

	add(checkExchangeDirStatus(cfg))

	printStatusReport(report, *jsonOut)
	if !report.Healthy {
		return 1
	}
	return 0
}

func checkExchangeDirStatus(cfg *config.Config) statusCheck {
	if cfg.Backend.Mode == "memdoc" {
		return statusCheck{Name: "exchange_dir", OK: true, Detail: "not used (memdoc backend)"}
	}
	dir := cfg.Exchange.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return statusCheck{Name: "exchange_dir", OK: false, Detail: err.Error()}
	}
	probe, err := os.CreateTemp(dir, ".drawbridge-probe-*")
	if err != nil {
		return statusCheck{Name: "exchange_dir", OK: false,
			Detail: fmt.Sprintf("not writable: %v", err)}
	}
	probe.Close()
	os.Remove(probe.Name())
	return statusCheck{Name: "exchange_dir", OK: true, Detail: dir}
}

func printStatusReport(report statusReport, jsonOut bool) {
	if jsonOut {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}
	for _, c := range report.Checks {
		if c.OK {
			fmt.Printf("%s: OK", c.Name)
			if c.Detail != "" {
				fmt.Printf(" (%s)", c.Detail)
			}
			fmt.Println()
		} else {
			fmt.Printf("%s: FAIL (%s)\n", c.Name, c.Detail)
		}
	}
	if report.Healthy {
		fmt.Println("Healthy")
	} else {
		fmt.Println("Unhealthy")
	}
}

func runSystemInit(args []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output the init result as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	hub := events.NewHub(16)
	b, res := buildBackend(context.Background(), cfg, hub, log.WithComponent("init"))
	if b != nil {
		defer b.Close()
	}

	if *jsonOut {
		out := map[string]any{"ok": res.OK}
		if b != nil {
			out["backend"] = b.Name()
		}
		if res.Payload != nil {
			out["payload"] = res.Payload
		}
		if res.Err != "" {
			out["error"] = res.Err
			out["hint"] = cad.Hint(res.Err)
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
	} else if res.OK {
		if b != nil {
			fmt.Printf("Backend: %s\n", b.Name())
		}
		fmt.Println("Session initialized.")
		if payload, ok := res.Payload.(map[string]any); ok {
			if title, _ := payload["window_title"].(string); title != "" {
				fmt.Printf("Window: %s\n", title)
			}
		}
	} else {
		fmt.Printf("Init failed: %s\n", res.Err)
		fmt.Printf("Hint: %s\n", cad.Hint(res.Err))
	}

	if !res.OK {
		return 1
	}
	return 0
}

func runConfigCheck(args []string) int {
	var configPath string
	var strict, jsonOut bool
	var format string

	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&strict, "strict", false, "Treat warnings as errors")
	fs.StringVar(&format, "format", "human", "Output format (human, json)")
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if jsonOut {
		format = "json"
	}

	cfg, err := loadConfigForTool(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		return 1
	}

	doc := doctor.New(cfg)
	result := doc.Validate()

	switch format {
	case "json":
		out, err := doctor.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		fmt.Println(out)
	default:
		fmt.Print(doctor.FormatHuman(result))
	}

	if !result.Valid {
		return 1
	}
	if strict && len(result.Warnings) > 0 {
		return 2
	}
	return 0
}

func runConfigLock(args []string) int {
	var configPath string
	var verbose, verboseShort, dryRun bool

	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&verboseShort, "v", false, "Verbose output")
	fs.BoolVar(&dryRun, "dry-run", false, "Dry run")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	isVerbose := verbose || verboseShort

	if configPath == "" {
		discovered, err := config.DiscoverConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		configPath = discovered
	}

	resolved, err := config.ResolveConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve config: %v\n", err)
		return 1
	}

	dir := filepath.Dir(resolved)
	report, err := config.GenerateChecksumsWithReport(dir, []string{filepath.Base(resolved)}, dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock config in %s: %v\n", dir, err)
		return 1
	}

	if isVerbose {
		for _, file := range report.Files {
			if file.Exists {
				fmt.Printf("  HASH %s: %s\n", file.Filename, file.Hash)
				continue
			}
			fmt.Printf("  SKIP %s: not found (optional)\n", file.Filename)
		}
		if dryRun {
			fmt.Printf("  DRY-RUN .checksums: %s (not written)\n", report.ChecksumPath)
		} else {
			fmt.Printf("  WROTE .checksums: %s\n", report.ChecksumPath)
		}
	}

	if dryRun {
		fmt.Printf("Dry run completed (no files written): %s\n", dir)
	} else {
		fmt.Printf("Successfully locked configuration: %s\n", dir)
	}
	return 0
}

func runConfigShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(cfg, "", "  ")
		fmt.Println(string(data))
	} else {
		data, _ := yaml.Marshal(cfg)
		fmt.Print(string(data))
	}
	return 0
}

type callOutput struct {
	OK         bool   `json:"ok"`
	Backend    string `json:"backend"`
	Payload    any    `json:"payload,omitempty"`
	Error      string `json:"error,omitempty"`
	Hint       string `json:"hint,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

func runCall(args []string) int {
	// Custom flag parsing so flags may follow the positionals, like
	// 'drawbridge call entity create-line --data {...}'.
	var configPath, dataJSON string
	var jsonOut bool

	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.StringVar(&dataJSON, "data", "", "Operation parameters as a JSON object")
	fs.BoolVar(&jsonOut, "json", false, "Output the full result envelope as JSON")

	var positionals []string
	var remainingArgs []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") && len(positionals) < 2 {
			positionals = append(positionals, arg)
			continue
		}
		remainingArgs = append(remainingArgs, arg)
		// Keep flag values paired with their flag.
		if (arg == "--data" || arg == "-data" || arg == "--config" || arg == "-config") && i+1 < len(args) {
			remainingArgs = append(remainingArgs, args[i+1])
			i++
		}
	}

	if err := fs.Parse(remainingArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if len(positionals) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: drawbridge call <tool> <operation> [--data JSON] [--config PATH] [--json]")
		return 1
	}
	tool, operation := positionals[0], positionals[1]

	var data cad.Params
	if dataJSON != "" {
		if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --data JSON: %v\n", err)
			return 1
		}
	}

	cfg, err := loadConfigForTool(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx := context.Background()
	hub := events.NewHub(16)
	b, res := buildBackend(ctx, cfg, hub, log.WithComponent("call"))
	if b == nil {
		fmt.Fprintf(os.Stderr, "Backend unavailable: %s\n", res.Err)
		return 1
	}
	defer b.Close()
	if !res.OK {
		fmt.Fprintf(os.Stderr, "Backend not ready: %s\n", res.Err)
		fmt.Fprintf(os.Stderr, "Hint: %s\n", cad.Hint(res.Err))
		return 1
	}

	registry := tools.NewRegistry()
	start := time.Now()
	result := registry.Execute(ctx, b, tool, operation, data)
	elapsed := time.Since(start)

	journalOneShot(cfg, b, tool, operation, data, result, elapsed)

	out := callOutput{
		OK:         result.OK,
		Backend:    b.Name(),
		Payload:    result.Payload,
		Error:      result.Err,
		DurationMS: elapsed.Milliseconds(),
	}
	if !result.OK {
		out.Hint = cad.Hint(result.Err)
	}

	if jsonOut {
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
	} else if result.OK {
		fmt.Printf("OK (%dms)\n", out.DurationMS)
		if result.Payload != nil {
			data, _ := json.MarshalIndent(result.Payload, "", "  ")
			fmt.Println(string(data))
		}
	} else {
		fmt.Printf("FAILED: %s\n", result.Err)
		fmt.Printf("Hint: %s\n", out.Hint)
	}

	if !result.OK {
		return 1
	}
	return 0
}

// journalOneShot records CLI calls in the same history database the daemon
// uses. Best effort: a locked or missing database never fails the call.
func journalOneShot(cfg *config.Config, b cad.Backend, tool, operation string, data cad.Params, res cad.Result, elapsed time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := storage.OpenSQLite(ctx, cfg.History.Path)
	if err != nil {
		return
	}
	defer db.Close()

	var command string
	if len(data) > 0 {
		if raw, err := json.Marshal(data); err == nil {
			command = string(raw)
		}
	}
	_, _ = history.New(db).Append(ctx, history.Entry{
		Tool:       tool,
		Operation:  operation,
		Command:    command,
		OK:         res.OK,
		Error:      res.Err,
		DurationMS: elapsed.Milliseconds(),
		Backend:    b.Name(),
	})
}

func runSymbolList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	jsonOut := fs.Bool("json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	// Config is optional here: with no config the built-in catalog serves.
	root := ""
	if cfg, err := loadConfigForTool(*configPath); err == nil {
		root = cfg.Catalog.Path
	} else if *configPath != "" {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	lib := catalog.New(root)

	if fs.NArg() == 0 {
		categories := lib.Categories()
		if *jsonOut {
			data, _ := json.MarshalIndent(map[string]any{"categories": categories}, "", "  ")
			fmt.Println(string(data))
			return 0
		}
		for _, c := range categories {
			fmt.Println(c)
		}
		return 0
	}

	category := fs.Arg(0)
	symbols := lib.Symbols(category)
	if len(symbols) == 0 {
		fmt.Fprintf(os.Stderr, "Unknown category: %s (valid: %s)\n", category, strings.Join(lib.Categories(), ", "))
		return 1
	}
	if *jsonOut {
		data, _ := json.MarshalIndent(map[string]any{"category": category, "symbols": symbols}, "", "  ")
		fmt.Println(string(data))
		return 0
	}
	for _, s := range symbols {
		fmt.Println(s)
	}
	return 0
}

func runBatchRun(args []string) int {
	var configPath string
	var jsonOut bool

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&jsonOut, "json", false, "Output the run summary as JSON")

	var batchFile string
	var remainingArgs []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") && batchFile == "" {
			batchFile = arg
			continue
		}
		remainingArgs = append(remainingArgs, arg)
		if (arg == "--config" || arg == "-config") && i+1 < len(args) {
			remainingArgs = append(remainingArgs, args[i+1])
			i++
		}
	}

	if err := fs.Parse(remainingArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if batchFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: drawbridge batch run <file.yaml> [--config PATH] [--json]")
		return 1
	}

	cfg, err := loadConfigForTool(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	registry := tools.NewRegistry()
	seq, err := batch.Load(batchFile, registry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Batch load error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	hub := events.NewHub(16)
	b, res := buildBackend(ctx, cfg, hub, log.WithComponent("batch"))
	if b == nil {
		fmt.Fprintf(os.Stderr, "Backend unavailable: %s\n", res.Err)
		return 1
	}
	defer b.Close()
	if !res.OK {
		fmt.Fprintf(os.Stderr, "Backend not ready: %s\n", res.Err)
		fmt.Fprintf(os.Stderr, "Hint: %s\n", cad.Hint(res.Err))
		return 1
	}

	var journal batch.Journal
	if db, err := storage.OpenSQLite(ctx, cfg.History.Path); err == nil {
		defer db.Close()
		journal = history.New(db)
	}

	sum := batch.NewRunner(registry, journal).Run(ctx, b, seq)

	if jsonOut {
		data, _ := json.MarshalIndent(sum, "", "  ")
		fmt.Println(string(data))
	} else {
		for _, r := range sum.Results {
			if r.OK {
				fmt.Printf("  OK   %s/%s (%dms)\n", r.Tool, r.Operation, r.DurationMS)
			} else {
				fmt.Printf("  FAIL %s/%s: %s (%dms)\n", r.Tool, r.Operation, r.Error, r.DurationMS)
			}
		}
		fmt.Printf("%d step(s), %d failed, %dms total\n", sum.Steps, sum.Failed, sum.DurationMS)
	}

	if sum.Failed > 0 {
		return 1
	}
	return 0
}
