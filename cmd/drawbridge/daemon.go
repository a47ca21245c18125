package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/drafthaus/drawbridge/internal/api"
	"github.com/drafthaus/drawbridge/internal/auth"
	"github.com/drafthaus/drawbridge/internal/cad"
	"github.com/drafthaus/drawbridge/internal/catalog"
	"github.com/drafthaus/drawbridge/internal/config"
	"github.com/drafthaus/drawbridge/internal/events"
	"github.com/drafthaus/drawbridge/internal/fileipc"
	"github.com/drafthaus/drawbridge/internal/history"
	"github.com/drafthaus/drawbridge/internal/lock"
	"github.com/drafthaus/drawbridge/internal/log"
	"github.com/drafthaus/drawbridge/internal/memdoc"
	"github.com/drafthaus/drawbridge/internal/storage"
	"github.com/drafthaus/drawbridge/internal/tools"
)

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if *configPath == "" {
		discovered, err := config.DiscoverConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		*configPath = discovered
		fmt.Fprintf(os.Stderr, "Using discovered config: %s\n", *configPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("drawbridge starting", "version", version, "config", *configPath)

	pidLockPath := getPIDLockPath(cfg)
	pidLock, err := lock.AcquirePIDLock(pidLockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.History.Path)
	if err != nil {
		logger.Error("failed to open history database", "path", cfg.History.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("history database opened", "path", cfg.History.Path)

	journal := history.New(db)
	hub := events.NewHub(256)

	provider := &backendProvider{cfg: cfg, hub: hub, logger: logger}
	b, res := buildBackend(ctx, cfg, hub, logger)
	if b == nil {
		logger.Error("backend construction failed", "error", res.Err)
		return 1
	}
	provider.backend = b
	defer func() {
		if cur := provider.Current(); cur != nil {
			_ = cur.Close()
		}
	}()

	if res.OK {
		logger.Info("backend ready", "backend", b.Name())
	} else {
		logger.Warn("backend not ready, POST /system/init once AutoCAD is up",
			"backend", b.Name(), "error", res.Err, "hint", cad.Hint(res.Err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)

	if cfg.API.Enabled {
		tokens := make([]auth.TokenConfig, 0, len(cfg.API.Auth.Tokens))
		for _, t := range cfg.API.Auth.Tokens {
			tokens = append(tokens, auth.TokenConfig{
				Token:  t.Token,
				Scopes: t.Scopes,
			})
		}
		apiConfig := api.Config{
			Listen: cfg.API.Listen,
			APIKey: cfg.API.Auth.APIKey,
			Tokens: tokens,
		}
		apiServer := api.New(apiConfig, provider, tools.NewRegistry(), journal, hub, log.WithComponent("api"))
		go func() {
			if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	} else {
		logger.Warn("API disabled; only the session sweeper is running")
	}

	logger.Info("drawbridge running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("drawbridge stopped")
	return 0
}

// backendProvider owns the live backend for the API. Rebuild swaps or
// re-initializes it under the lock so handlers never see a half-built one.
type backendProvider struct {
	cfg    *config.Config
	hub    *events.Hub
	logger *slog.Logger

	mu      sync.Mutex
	backend cad.Backend
}

func (p *backendProvider) Current() cad.Backend {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backend
}

// Rebuild re-initializes a drawing session in place when one exists, and
// otherwise builds a fresh backend per the configured mode. In auto mode a
// failed re-init falls back to the in-memory engine; a later Rebuild retries
// the live window first.
func (p *backendProvider) Rebuild(ctx context.Context) (cad.Backend, cad.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.backend.(*fileipc.Session); ok {
		res := s.Init(ctx)
		if res.OK || p.cfg.Backend.Mode == "fileipc" {
			return s, res
		}
		_ = s.Close()
		p.backend = nil
	}

	b, res := buildBackend(ctx, p.cfg, p.hub, p.logger)
	if b != nil {
		if p.backend != nil && p.backend != b {
			_ = p.backend.Close()
		}
		p.backend = b
	}
	return p.backend, res
}

// buildBackend constructs and initializes a backend for the configured mode.
// auto probes for a drawing window first and falls back to memdoc. The
// returned Result is the Init outcome; a fileipc session is returned even
// when Init fails so INIT_FAILED still shows up in /status.
func buildBackend(ctx context.Context, cfg *config.Config, hub *events.Hub, logger *slog.Logger) (cad.Backend, cad.Result) {
	switch cfg.Backend.Mode {
	case "memdoc":
		return newMemdocBackend(ctx, cfg, hub)
	case "fileipc":
		s, err := newFileIPCSession(cfg, hub)
		if err != nil {
			return nil, cad.FailResult(err.Error())
		}
		return s, s.Init(ctx)
	default: // auto
		s, err := newFileIPCSession(cfg, hub)
		if err == nil {
			res := s.Init(ctx)
			if res.OK {
				return s, res
			}
			_ = s.Close()
			logger.Info("no drawing session, using in-memory backend", "error", res.Err)
		}
		return newMemdocBackend(ctx, cfg, hub)
	}
}

func newFileIPCSession(cfg *config.Config, hub *events.Hub) (*fileipc.Session, error) {
	opts := []fileipc.Option{
		fileipc.WithLogger(log.WithBackend("fileipc")),
		fileipc.WithNotify(func(event string, data map[string]any) {
			hub.Publish(event, data)
		}),
	}
	if cfg.Exchange.Headless {
		// No window, no keystrokes: a responder polling the exchange dir
		// (cmd/fakecad) answers instead of a live AutoCAD session.
		opts = append(opts,
			fileipc.WithWindowProbe(func() (*fileipc.WindowInfo, error) {
				return &fileipc.WindowInfo{Title: "headless exchange"}, nil
			}),
			fileipc.WithTrigger(func(uintptr, string, time.Duration) error {
				return nil
			}),
		)
	}
	return fileipc.New(fileipc.Config{
		ExchangeDir:    cfg.Exchange.Dir,
		Prefix:         cfg.Exchange.Prefix,
		TriggerCommand: cfg.Exchange.TriggerCommand,
		ResultEncoding: cfg.Exchange.ResultEncoding,
		Timeout:        cfg.Exchange.Timeout,
		PollInterval:   cfg.Exchange.PollInterval,
		SettleDelay:    cfg.Exchange.SettleDelay,
		StaleAfter:     cfg.Exchange.StaleAfter,
		SweepInterval:  cfg.Exchange.SweepInterval,
	}, opts...)
}

func newMemdocBackend(ctx context.Context, cfg *config.Config, hub *events.Hub) (cad.Backend, cad.Result) {
	opts := []memdoc.Option{memdoc.WithLogger(log.WithBackend("memdoc"))}
	if cfg.Catalog.Path != "" {
		opts = append(opts, memdoc.WithLibrary(catalog.New(cfg.Catalog.Path)))
	}
	b := memdoc.New(opts...)
	res := b.Init(ctx)
	if res.OK {
		hub.Publish(events.TypeSessionState, map[string]any{
			"state":   "READY",
			"backend": b.Name(),
		})
	}
	return b, res
}
