package fileipc

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/drafthaus/drawbridge/internal/cad"
	"github.com/drafthaus/drawbridge/internal/log"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR") // Suppress logs in tests
	os.Exit(m.Run())
}

func fakeProbe() (*WindowInfo, error) {
	return &WindowInfo{Handle: 0xBEEF, Title: "AutoCAD LT 2024 - [Drawing1.dwg]"}, nil
}

func noTrigger(uintptr, string, time.Duration) error { return nil }

func newTestSession(t *testing.T, dir string, opts ...Option) *Session {
	t.Helper()
	base := []Option{
		WithWindowProbe(fakeProbe),
		WithTrigger(noTrigger),
	}
	s, err := New(Config{
		ExchangeDir:   dir,
		Timeout:       2 * time.Second,
		PollInterval:  10 * time.Millisecond,
		StaleAfter:    time.Minute,
		SweepInterval: time.Hour,
	}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// responder plays the drawing-side dispatcher: it polls for command files,
// answers them through the handler and removes the consumed command. It also
// flags any moment where more than one command is staged at once.
type responder struct {
	t      *testing.T
	dir    string
	prefix string
	handle func(command string, params map[string]any) cad.Result

	mu     sync.Mutex
	served int

	stop chan struct{}
	done chan struct{}
}

func startResponder(t *testing.T, dir string, handle func(command string, params map[string]any) cad.Result) *responder {
	t.Helper()
	r := &responder{
		t:      t,
		dir:    dir,
		prefix: DefaultPrefix,
		handle: handle,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go r.loop()
	t.Cleanup(func() {
		close(r.stop)
		<-r.done
	})
	return r
}

func (r *responder) loop() {
	defer close(r.done)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			matches, _ := filepath.Glob(filepath.Join(r.dir, r.prefix+"_cmd_*.json"))
			if len(matches) > 1 {
				r.t.Errorf("found %d staged commands at once, want at most 1", len(matches))
			}
			for _, m := range matches {
				data, err := os.ReadFile(m)
				if err != nil {
					continue
				}
				var env commandEnvelope
				if json.Unmarshal(data, &env) != nil {
					continue
				}
				res := r.handle(env.Command, env.Params)
				out := map[string]any{"request_id": env.RequestID, "ok": res.OK}
				if res.OK {
					out["payload"] = res.Payload
				} else {
					out["error"] = res.Err
				}
				b, _ := json.Marshal(out)
				// Count before publishing the result: callers unblock the
				// moment the file appears.
				r.mu.Lock()
				r.served++
				r.mu.Unlock()
				resultPath := filepath.Join(r.dir, r.prefix+"_result_"+env.RequestID+".json")
				if err := os.WriteFile(resultPath, b, 0o644); err != nil {
					r.t.Errorf("responder write result: %v", err)
				}
				os.Remove(m)
			}
		}
	}
}

func (r *responder) servedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.served
}

func okHandler(command string, params map[string]any) cad.Result {
	return cad.OKResult(map[string]any{"echo": command})
}

func mustInit(t *testing.T, s *Session) {
	t.Helper()
	if res := s.Init(context.Background()); !res.OK {
		t.Fatalf("Init failed: %s", res.Err)
	}
}

func TestSession_Init_WindowNotFound(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, dir, WithWindowProbe(func() (*WindowInfo, error) {
		return nil, errors.New("AutoCAD LT window not found")
	}))

	res := s.Init(context.Background())
	if res.OK {
		t.Fatal("Init succeeded without a window")
	}
	if !strings.Contains(res.Err, "AutoCAD LT window not found") {
		t.Errorf("error = %q, want window-not-found text", res.Err)
	}
	if got := s.State(); got != StateInitFailed {
		t.Errorf("state = %s, want INIT_FAILED", got)
	}
}

func TestSession_Init_DispatcherNotLoaded(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, dir)
	s.cfg.Timeout = 100 * time.Millisecond // nobody will answer the ping

	res := s.Init(context.Background())
	if res.OK {
		t.Fatal("Init succeeded without a dispatcher")
	}
	if !strings.Contains(res.Err, DispatcherScript) {
		t.Errorf("error = %q, want mention of %s", res.Err, DispatcherScript)
	}
	if !strings.Contains(res.Err, "APPLOAD") {
		t.Errorf("error = %q, want APPLOAD remediation", res.Err)
	}
	if got := s.State(); got != StateInitFailed {
		t.Errorf("state = %s, want INIT_FAILED", got)
	}
}

func TestSession_Init_Success(t *testing.T) {
	dir := t.TempDir()
	startResponder(t, dir, okHandler)
	s := newTestSession(t, dir)

	res := s.Init(context.Background())
	if !res.OK {
		t.Fatalf("Init failed: %s", res.Err)
	}
	payload, ok := res.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type %T, want map", res.Payload)
	}
	if payload["window_title"] != "AutoCAD LT 2024 - [Drawing1.dwg]" {
		t.Errorf("window_title = %v", payload["window_title"])
	}
	if got := s.State(); got != StateReady {
		t.Errorf("state = %s, want READY", got)
	}
}

func TestSession_Dispatch_FailsFastBeforeInit(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, dir)

	res := s.CreateLine(context.Background(), 0, 0, 1, 1, "")
	if res.OK {
		t.Fatal("dispatch succeeded on uninitialized session")
	}
	if !strings.Contains(res.Err, "not initialized") {
		t.Errorf("error = %q, want not-initialized text", res.Err)
	}

	// Fail-fast means no exchange traffic at all.
	matches, _ := filepath.Glob(filepath.Join(dir, "drawbridge_*"))
	if len(matches) != 0 {
		t.Errorf("fail-fast dispatch left files behind: %v", matches)
	}
}

func TestSession_Dispatch_FailsFastAfterFailedInit(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, dir, WithWindowProbe(func() (*WindowInfo, error) {
		return nil, errors.New("AutoCAD LT window not found")
	}))
	s.Init(context.Background())

	res := s.Ping(context.Background())
	if res.OK {
		t.Fatal("dispatch succeeded after failed init")
	}
	if !strings.Contains(res.Err, "AutoCAD LT window not found") {
		t.Errorf("error = %q, want recall of the init failure", res.Err)
	}
}

func TestSession_Reinit_AfterFailure(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, dir)
	s.cfg.Timeout = 100 * time.Millisecond

	if res := s.Init(context.Background()); res.OK {
		t.Fatal("first Init should fail without a responder")
	}
	if got := s.State(); got != StateInitFailed {
		t.Fatalf("state = %s, want INIT_FAILED", got)
	}

	startResponder(t, dir, okHandler)
	s.cfg.Timeout = 2 * time.Second
	if res := s.Init(context.Background()); !res.OK {
		t.Fatalf("reinit failed: %s", res.Err)
	}
	if got := s.State(); got != StateReady {
		t.Errorf("state = %s, want READY", got)
	}
}

func TestSession_Dispatch_Success(t *testing.T) {
	dir := t.TempDir()
	type seen struct {
		command string
		params  map[string]any
	}
	got := make(chan seen, 16)
	startResponder(t, dir, func(command string, params map[string]any) cad.Result {
		got <- seen{command, params}
		if command == "create-line" {
			return cad.OKResult(map[string]any{"handle": "1A2"})
		}
		return cad.OKResult(nil)
	})

	s := newTestSession(t, dir)
	mustInit(t, s)
	<-got // init ping

	res := s.CreateLine(context.Background(), 0, 0, 100, 50, "")
	if !res.OK {
		t.Fatalf("CreateLine failed: %s", res.Err)
	}
	payload, ok := res.Payload.(map[string]any)
	if !ok || payload["handle"] != "1A2" {
		t.Errorf("payload = %v, want handle 1A2", res.Payload)
	}

	call := <-got
	if call.command != "create-line" {
		t.Errorf("command = %q, want create-line", call.command)
	}
	if call.params["x2"] != 100.0 || call.params["y2"] != 50.0 {
		t.Errorf("params = %v", call.params)
	}
	if _, present := call.params["layer"]; present {
		t.Errorf("empty layer was sent: %v", call.params)
	}

	// Exchange artifacts for the call are gone once it returns.
	matches, _ := filepath.Glob(filepath.Join(dir, "drawbridge_cmd_*"))
	matches2, _ := filepath.Glob(filepath.Join(dir, "drawbridge_result_*"))
	if len(matches)+len(matches2) != 0 {
		t.Errorf("artifacts left after call: %v %v", matches, matches2)
	}
	if got := s.State(); got != StateReady {
		t.Errorf("state = %s, want READY after call", got)
	}
}

func TestSession_Dispatch_Timeout(t *testing.T) {
	dir := t.TempDir()
	startResponder(t, dir, okHandler)
	s := newTestSession(t, dir)
	mustInit(t, s)

	// Swap in a handler that never answers by stopping result delivery:
	// redirect commands to a prefix nobody is watching.
	s.cfg.Timeout = 200 * time.Millisecond
	s.codec.prefix = "orphan"

	res := s.Ping(context.Background())
	if res.OK {
		t.Fatal("expected timeout failure")
	}
	if !strings.HasPrefix(res.Err, "Timeout waiting for result (request_id=") || !strings.HasSuffix(res.Err, ")") {
		t.Errorf("error = %q, want timeout format with request_id", res.Err)
	}

	// The staged command is cleaned up even though nothing answered.
	matches, _ := filepath.Glob(filepath.Join(dir, "orphan_cmd_*"))
	if len(matches) != 0 {
		t.Errorf("command file left after timeout: %v", matches)
	}
	if got := s.State(); got != StateReady {
		t.Errorf("state = %s, want READY after timeout", got)
	}
}

func TestSession_Dispatch_TriggerFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	startResponder(t, dir, okHandler)
	s := newTestSession(t, dir, WithTrigger(func(uintptr, string, time.Duration) error {
		return errors.New("post WM_CHAR failed")
	}))
	mustInit(t, s)

	// Posted keystrokes carry no delivery acknowledgment, so a trigger error
	// proves nothing: with a responder watching the directory the call still
	// succeeds.
	if res := s.Ping(context.Background()); !res.OK {
		t.Fatalf("ping with erroring trigger: %s", res.Err)
	}

	// With nobody answering, the only surfaced failure is the poll deadline,
	// never the trigger error.
	s.cfg.Timeout = 200 * time.Millisecond
	s.codec.prefix = "orphan"

	res := s.Ping(context.Background())
	if res.OK {
		t.Fatal("expected timeout failure")
	}
	if strings.Contains(res.Err, "trigger") {
		t.Errorf("trigger error surfaced to the caller: %q", res.Err)
	}
	if !strings.HasPrefix(res.Err, "Timeout waiting for result (request_id=") {
		t.Errorf("error = %q, want timeout format with request_id", res.Err)
	}
}

func TestSession_Close_WaitsForInFlightCall(t *testing.T) {
	dir := t.TempDir()
	startResponder(t, dir, okHandler)
	s := newTestSession(t, dir)
	mustInit(t, s)

	// Stall the next call inside the gate until released.
	started := make(chan struct{})
	release := make(chan struct{})
	s.trigger = func(uintptr, string, time.Duration) error {
		close(started)
		<-release
		return nil
	}

	callDone := make(chan cad.Result, 1)
	go func() { callDone <- s.Ping(context.Background()) }()
	<-started

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a call was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if res := <-callDone; !res.OK {
		t.Fatalf("in-flight call failed: %s", res.Err)
	}
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after the call completed")
	}

	// The completed call must not flip the closed session back to READY.
	if got := s.State(); got != StateUninitialized {
		t.Errorf("state after Close = %s, want UNINITIALIZED", got)
	}
}

func TestSession_Dispatch_IgnoresForeignResultUntilMatch(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, dir)
	s.setState(StateReady) // skip init, exercise the poll loop directly

	// Dispatcher stand-in that first writes a result for another request at
	// the right path, then the real one. The session must keep polling
	// through the mismatch.
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			matches, _ := filepath.Glob(filepath.Join(dir, "drawbridge_cmd_*.json"))
			if len(matches) == 0 {
				continue
			}
			data, err := os.ReadFile(matches[0])
			if err != nil {
				continue
			}
			var env commandEnvelope
			if json.Unmarshal(data, &env) != nil {
				continue
			}
			resultPath := filepath.Join(dir, "drawbridge_result_"+env.RequestID+".json")
			os.WriteFile(resultPath, []byte(`{"request_id": "ffffffffffff", "ok": true, "payload": "wrong"}`), 0o644)
			time.Sleep(50 * time.Millisecond)
			os.WriteFile(resultPath, []byte(`{"request_id": "`+env.RequestID+`", "ok": true, "payload": "right"}`), 0o644)
			os.Remove(matches[0])
			return
		}
	}()

	res := s.Ping(context.Background())
	if !res.OK {
		t.Fatalf("Ping failed: %s", res.Err)
	}
	if res.Payload != "right" {
		t.Errorf("payload = %v, want the matching result", res.Payload)
	}
}

func TestSession_Dispatch_SerializesConcurrentCalls(t *testing.T) {
	dir := t.TempDir()
	r := startResponder(t, dir, okHandler)
	s := newTestSession(t, dir)
	mustInit(t, s)

	const calls = 8
	var wg sync.WaitGroup
	errs := make(chan string, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res := s.Ping(context.Background()); !res.OK {
				errs <- res.Err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Errorf("concurrent ping failed: %s", e)
	}

	if served := r.servedCount(); served != calls+1 { // +1 for the init ping
		t.Errorf("served = %d, want %d", served, calls+1)
	}
}

func TestSession_Dispatch_ContextCancelledWhileQueued(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.gate <- struct{}{} // occupy the gate so the call must queue
	defer func() { <-s.gate }()

	res := s.Ping(ctx)
	if res.OK {
		t.Fatal("expected failure for cancelled context")
	}
	if !strings.Contains(res.Err, "context canceled") {
		t.Errorf("error = %q, want context cancellation", res.Err)
	}
}

func TestSession_ExecuteLisp_StagesScript(t *testing.T) {
	dir := t.TempDir()
	got := make(chan map[string]any, 16)
	startResponder(t, dir, func(command string, params map[string]any) cad.Result {
		if command == "execute-lisp" {
			got <- params
		}
		return cad.OKResult(nil)
	})
	s := newTestSession(t, dir)
	mustInit(t, s)

	code := `(princ "hello")`
	res := s.ExecuteLisp(context.Background(), code)
	if !res.OK {
		t.Fatalf("ExecuteLisp failed: %s", res.Err)
	}

	params := <-got
	codeFile, _ := params["code_file"].(string)
	if codeFile == "" {
		t.Fatalf("code_file missing: %v", params)
	}
	if strings.Contains(codeFile, `\`) {
		t.Errorf("code_file %q contains backslashes", codeFile)
	}
	if !strings.Contains(codeFile, "drawbridge_lisp_") || !strings.HasSuffix(codeFile, ".lsp") {
		t.Errorf("code_file %q does not follow the script naming", codeFile)
	}

	data, err := os.ReadFile(filepath.FromSlash(codeFile))
	if err != nil {
		t.Fatalf("script file missing after call: %v", err)
	}
	if string(data) != code {
		t.Errorf("script content = %q, want %q", data, code)
	}
}

func TestSession_Status(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, dir)

	res := s.Status(context.Background())
	if !res.OK {
		t.Fatalf("Status failed: %s", res.Err)
	}
	payload := res.Payload.(map[string]any)
	if payload["state"] != "UNINITIALIZED" {
		t.Errorf("state = %v, want UNINITIALIZED", payload["state"])
	}
	if payload["ready"] != false {
		t.Errorf("ready = %v, want false", payload["ready"])
	}

	startResponder(t, dir, okHandler)
	mustInit(t, s)

	payload = s.Status(context.Background()).Payload.(map[string]any)
	if payload["state"] != "READY" {
		t.Errorf("state = %v, want READY", payload["state"])
	}
	if payload["window_title"] != "AutoCAD LT 2024 - [Drawing1.dwg]" {
		t.Errorf("window_title = %v", payload["window_title"])
	}
}

func TestSession_Screenshot(t *testing.T) {
	dir := t.TempDir()
	startResponder(t, dir, okHandler)
	s := newTestSession(t, dir, WithCapture(func(hwnd uintptr) (string, error) {
		return "iVBORfake", nil
	}))

	// No window before init.
	if res := s.Screenshot(context.Background()); res.OK {
		t.Error("Screenshot succeeded without a window")
	}

	mustInit(t, s)
	res := s.Screenshot(context.Background())
	if !res.OK {
		t.Fatalf("Screenshot failed: %s", res.Err)
	}
	if res.Payload != "iVBORfake" {
		t.Errorf("payload = %v, want captured image", res.Payload)
	}
}

func TestSession_Capabilities(t *testing.T) {
	s := newTestSession(t, t.TempDir())
	caps := s.Capabilities()
	if !caps.ReadDrawing || !caps.Screenshot || !caps.Undo || !caps.FileOperations {
		t.Errorf("capabilities = %+v, want everything enabled", caps)
	}
	if s.Name() != "fileipc" {
		t.Errorf("name = %q, want fileipc", s.Name())
	}
}

func TestSession_NotifyEmitsLifecycle(t *testing.T) {
	dir := t.TempDir()
	startResponder(t, dir, okHandler)

	var mu sync.Mutex
	var states []string
	s := newTestSession(t, dir, WithNotify(func(event string, data map[string]any) {
		if event != "session.state" {
			return
		}
		mu.Lock()
		states = append(states, data["state"].(string))
		mu.Unlock()
	}))

	mustInit(t, s)
	if res := s.Ping(context.Background()); !res.OK {
		t.Fatalf("Ping failed: %s", res.Err)
	}

	mu.Lock()
	got := append([]string(nil), states...)
	mu.Unlock()

	want := []string{
		"DISCOVERING_WINDOW",
		"VERIFYING_DISPATCHER",
		"READY",
		"DISPATCHING",
		"AWAITING_RESULT",
		"READY",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d state events %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("state[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSession_NotifySweepRemoved(t *testing.T) {
	dir := t.TempDir()
	startResponder(t, dir, okHandler)

	stale := filepath.Join(dir, "drawbridge_result_old.json")
	if err := os.WriteFile(stale, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * time.Minute)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var removed []string
	s := newTestSession(t, dir, WithNotify(func(event string, data map[string]any) {
		if event != "sweep.removed" {
			return
		}
		mu.Lock()
		removed = append(removed, data["path"].(string))
		mu.Unlock()
	}))
	mustInit(t, s)

	mu.Lock()
	defer mu.Unlock()
	if len(removed) != 1 || removed[0] != stale {
		t.Fatalf("sweep.removed paths = %v, want [%s]", removed, stale)
	}
}
