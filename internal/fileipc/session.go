// Package fileipc drives a live AutoCAD LT session through a file exchange
// directory. Commands are staged as JSON files, a keystroke trigger makes the
// drawing-side dispatcher pick them up, and results come back as JSON files
// polled until a deadline.
package fileipc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/drafthaus/drawbridge/internal/cad"
	"github.com/drafthaus/drawbridge/internal/log"
	"github.com/drafthaus/drawbridge/internal/screenshot"
)

// DispatcherScript is the companion AutoLISP file that must be loaded in the
// drawing session for any command to complete.
const DispatcherScript = "drawbridge_dispatch.lsp"

// Defaults for Config fields left zero.
const (
	DefaultPrefix        = "drawbridge"
	DefaultTrigger       = "(c:drawbridge-dispatch)"
	DefaultEncoding      = "windows-1252"
	DefaultTimeout       = 10 * time.Second
	DefaultPollInterval  = 100 * time.Millisecond
	DefaultSettleDelay   = 50 * time.Millisecond
	DefaultStaleAfter    = 60 * time.Second
	DefaultSweepInterval = 60 * time.Second
)

// State tracks the session lifecycle. Transitions are driven by Init and by
// each dispatched command; INIT_FAILED is terminal until Init is called again.
type State int

const (
	StateUninitialized State = iota
	StateDiscoveringWindow
	StateVerifyingDispatcher
	StateReady
	StateDispatching
	StateAwaitingResult
	StateInitFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateDiscoveringWindow:
		return "DISCOVERING_WINDOW"
	case StateVerifyingDispatcher:
		return "VERIFYING_DISPATCHER"
	case StateReady:
		return "READY"
	case StateDispatching:
		return "DISPATCHING"
	case StateAwaitingResult:
		return "AWAITING_RESULT"
	case StateInitFailed:
		return "INIT_FAILED"
	default:
		return fmt.Sprintf("STATE(%d)", int(s))
	}
}

// Config carries the session tunables. Zero fields take the package defaults.
type Config struct {
	ExchangeDir    string
	Prefix         string
	TriggerCommand string
	ResultEncoding string
	Timeout        time.Duration
	PollInterval   time.Duration
	SettleDelay    time.Duration
	StaleAfter     time.Duration
	SweepInterval  time.Duration
}

func (c *Config) applyDefaults() {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.TriggerCommand == "" {
		c.TriggerCommand = DefaultTrigger
	}
	if c.ResultEncoding == "" {
		c.ResultEncoding = DefaultEncoding
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = DefaultStaleAfter
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
}

// Session is the file exchange backend. One command is in flight at a time;
// concurrent callers queue on an internal gate and run strictly one after
// another. The exchange directory and keystroke trigger are process-global
// resources, so a second in-flight command would corrupt the hand-off.
type Session struct {
	cfg    Config
	codec  *Codec
	logger *slog.Logger

	probe   func() (*WindowInfo, error)
	trigger func(target uintptr, command string, settle time.Duration) error
	capture func(hwnd uintptr) (string, error)
	notify  func(event string, data map[string]any)

	gate chan struct{}

	mu      sync.Mutex
	state   State
	window  *WindowInfo
	initErr error

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// Option adjusts a Session at construction time.
type Option func(*Session)

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithWindowProbe replaces window discovery, for tests and headless hosts.
func WithWindowProbe(probe func() (*WindowInfo, error)) Option {
	return func(s *Session) { s.probe = probe }
}

// WithTrigger replaces the keystroke trigger, for tests and headless hosts.
func WithTrigger(trigger func(target uintptr, command string, settle time.Duration) error) Option {
	return func(s *Session) { s.trigger = trigger }
}

// WithCapture replaces the window capture used by Screenshot.
func WithCapture(capture func(hwnd uintptr) (string, error)) Option {
	return func(s *Session) { s.capture = capture }
}

// WithNotify registers a hook for lifecycle notifications: "session.state"
// with every state transition and "sweep.removed" per stale artifact. The
// hook runs on the dispatch path and the sweep ticker and must not block.
func WithNotify(fn func(event string, data map[string]any)) Option {
	return func(s *Session) { s.notify = fn }
}

// New builds a Session over the given exchange directory. The session starts
// UNINITIALIZED; call Init before dispatching commands.
func New(cfg Config, opts ...Option) (*Session, error) {
	cfg.applyDefaults()
	codec, err := NewCodec(cfg.ExchangeDir, cfg.Prefix, cfg.ResultEncoding)
	if err != nil {
		return nil, err
	}
	s := &Session{
		cfg:     cfg,
		codec:   codec,
		logger:  log.WithComponent("fileipc"),
		probe:   findDrawingWindow,
		trigger: postTrigger,
		capture: screenshot.CaptureWindow,
		gate:    make(chan struct{}, 1),
		state:   StateUninitialized,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Name identifies the backend in status payloads and logs.
func (s *Session) Name() string { return "fileipc" }

// Capabilities reports what a live drawing session can do, which is
// everything the command set covers.
func (s *Session) Capabilities() cad.Capabilities {
	return cad.Capabilities{
		ReadDrawing:    true,
		ModifyEntities: true,
		CreateEntities: true,
		Screenshot:     true,
		Save:           true,
		PlotPDF:        true,
		Zoom:           true,
		QueryEntities:  true,
		FileOperations: true,
		Undo:           true,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Init discovers the drawing window, sweeps stale exchange files and verifies
// the dispatcher with a ping. It is the only way out of INIT_FAILED. The
// context is honored while waiting for the in-flight gate; once initialization
// starts it runs to completion or to its own deadline.
func (s *Session) Init(ctx context.Context) cad.Result {
	select {
	case s.gate <- struct{}{}:
		defer func() { <-s.gate }()
	case <-ctx.Done():
		return cad.FailResult(ctx.Err().Error())
	}
	if err := s.initLocked(); err != nil {
		return cad.FailResult(err.Error())
	}
	s.mu.Lock()
	title := ""
	if s.window != nil {
		title = s.window.Title
	}
	s.mu.Unlock()
	return cad.OKResult(map[string]any{
		"backend":      "fileipc",
		"window_title": title,
		"exchange_dir": s.cfg.ExchangeDir,
	})
}

func (s *Session) initLocked() error {
	s.stopSweeper()
	s.setState(StateDiscoveringWindow)
	s.logger.Info("discovering drawing window", "dir", s.cfg.ExchangeDir)

	if err := os.MkdirAll(s.cfg.ExchangeDir, 0o755); err != nil {
		return s.fail(fmt.Errorf("create exchange dir: %w", err))
	}
	win, err := s.probe()
	if err != nil {
		return s.fail(err)
	}
	s.mu.Lock()
	s.window = win
	s.mu.Unlock()
	s.logger.Info("drawing window found", "title", win.Title)

	sweepStale(s.cfg.ExchangeDir, s.cfg.Prefix, s.cfg.StaleAfter, s.logger, s.sweepRemoved)

	s.setState(StateVerifyingDispatcher)
	if res := s.roundTrip("ping", nil); !res.OK {
		return s.fail(fmt.Errorf(
			"AutoCAD LT detected but the %s dispatcher is not loaded. Run APPLOAD in AutoCAD, load %s, then try again (%s)",
			DispatcherScript, DispatcherScript, res.Err))
	}

	s.mu.Lock()
	s.initErr = nil
	s.state = StateReady
	s.mu.Unlock()
	s.emitState(StateReady)
	s.startSweeper()
	s.logger.Info("session ready", "window", win.Title)
	return nil
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.state = StateInitFailed
	s.initErr = err
	s.mu.Unlock()
	s.emitState(StateInitFailed)
	s.logger.Error("session init failed", "error", err)
	return err
}

// Ping round-trips a no-op through the dispatcher.
func (s *Session) Ping(ctx context.Context) cad.Result {
	return s.dispatch(ctx, "ping", nil)
}

// dispatch runs one command through the exchange directory. The context is
// honored only while queueing for the gate: once the trigger keystrokes are
// posted the drawing session owns the command, so cancellation mid-flight
// would desynchronize both sides.
func (s *Session) dispatch(ctx context.Context, command string, params cad.Params) cad.Result {
	select {
	case s.gate <- struct{}{}:
		defer func() { <-s.gate }()
	case <-ctx.Done():
		return cad.FailResult(ctx.Err().Error())
	}

	s.mu.Lock()
	st, initErr := s.state, s.initErr
	s.mu.Unlock()
	switch st {
	case StateReady:
	case StateInitFailed:
		return cad.FailResult(fmt.Sprintf("session not initialized: %s", initErr))
	default:
		return cad.FailResult("session not initialized (run system init first)")
	}

	s.setState(StateDispatching)
	res := s.roundTrip(command, params)
	s.setState(StateReady)
	return res
}

// roundTrip stages the command file, fires the trigger and polls for the
// result. Exchange artifacts for this request are removed on every path.
func (s *Session) roundTrip(command string, params cad.Params) cad.Result {
	id := NewRequestID()
	defer s.codec.Cleanup(id)

	if err := s.codec.WriteCommand(id, command, params); err != nil {
		return cad.FailResult(fmt.Sprintf("write command: %s", err))
	}
	s.logger.Debug("command staged", "request_id", id, "command", command)

	s.mu.Lock()
	win := s.window
	s.mu.Unlock()
	var target uintptr
	if win != nil {
		target = win.Target()
	}
	// Posted keystrokes have no delivery feedback channel, so a trigger
	// error proves nothing about whether the dispatcher saw the command.
	// Log it and poll anyway; the deadline is the only surfaced failure.
	if err := s.trigger(target, s.cfg.TriggerCommand, s.cfg.SettleDelay); err != nil {
		s.logger.Warn("trigger delivery failed", "request_id", id, "error", err)
	}

	s.markAwaiting()
	return s.awaitResult(id)
}

// markAwaiting flips DISPATCHING to AWAITING_RESULT. The init-time ping polls
// from VERIFYING_DISPATCHER and must not disturb that state.
func (s *Session) markAwaiting() {
	s.mu.Lock()
	flipped := s.state == StateDispatching
	if flipped {
		s.state = StateAwaitingResult
	}
	s.mu.Unlock()
	if flipped {
		s.emitState(StateAwaitingResult)
	}
}

// awaitResult polls the result file until it decodes for this request id or
// the deadline passes. Every decode failure counts as not-ready: the writer
// is not atomic, so partial or foreign files are expected along the way.
func (s *Session) awaitResult(id string) cad.Result {
	deadline := time.Now().Add(s.cfg.Timeout)
	for {
		res, err := s.codec.ReadResult(id)
		if err == nil {
			return res
		}
		if time.Now().After(deadline) {
			return cad.FailResult(fmt.Sprintf("Timeout waiting for result (request_id=%s)", id))
		}
		time.Sleep(s.cfg.PollInterval)
	}
}

// Status reports the session state without touching the exchange directory.
func (s *Session) Status(ctx context.Context) cad.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload := map[string]any{
		"backend":      "fileipc",
		"state":        s.state.String(),
		"ready":        s.state == StateReady,
		"exchange_dir": s.cfg.ExchangeDir,
		"prefix":       s.cfg.Prefix,
	}
	if s.window != nil {
		payload["window_title"] = s.window.Title
	}
	if s.initErr != nil {
		payload["init_error"] = s.initErr.Error()
	}
	return cad.OKResult(payload)
}

// Screenshot captures the drawing window directly; it does not round-trip
// through the dispatcher and so does not queue on the in-flight gate.
func (s *Session) Screenshot(ctx context.Context) cad.Result {
	s.mu.Lock()
	win := s.window
	s.mu.Unlock()
	if win == nil {
		return cad.FailResult("Screenshot capture failed")
	}
	data, err := s.capture(win.Handle)
	if err != nil || data == "" {
		if err != nil {
			s.logger.Warn("screenshot capture failed", "error", err)
		}
		return cad.FailResult("Screenshot capture failed")
	}
	return cad.OKResult(data)
}

// Close stops the background sweeper and forgets the window. It waits for
// any in-flight call to finish first, so a completed call cannot flip a
// closed session back to READY. The exchange directory is left as-is; lisp
// scripts age out through the stale sweep of a later session.
func (s *Session) Close() error {
	s.gate <- struct{}{}
	defer func() { <-s.gate }()
	s.stopSweeper()
	s.mu.Lock()
	s.state = StateUninitialized
	s.window = nil
	s.mu.Unlock()
	return nil
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.emitState(st)
}

func (s *Session) emit(event string, data map[string]any) {
	if s.notify != nil {
		s.notify(event, data)
	}
}

func (s *Session) emitState(st State) {
	s.emit("session.state", map[string]any{"backend": "fileipc", "state": st.String()})
}

func (s *Session) sweepRemoved(path string, age time.Duration) {
	s.emit("sweep.removed", map[string]any{
		"path": path,
		"age":  age.Round(time.Second).String(),
	})
}

func (s *Session) startSweeper() {
	s.mu.Lock()
	if s.sweepStop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	s.sweepStop, s.sweepDone = stop, done
	s.mu.Unlock()

	go func() {
		defer close(done)
		t := time.NewTicker(s.cfg.SweepInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				sweepStale(s.cfg.ExchangeDir, s.cfg.Prefix, s.cfg.StaleAfter, s.logger, s.sweepRemoved)
			case <-stop:
				return
			}
		}
	}()
}

func (s *Session) stopSweeper() {
	s.mu.Lock()
	stop, done := s.sweepStop, s.sweepDone
	s.sweepStop, s.sweepDone = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
