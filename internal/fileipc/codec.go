package fileipc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/drafthaus/drawbridge/internal/cad"
)

// errNotReady marks a result file that cannot be trusted yet: missing,
// observed mid-write, or left over from a different request. The poller
// retries on it until the deadline.
var errNotReady = errors.New("result not ready")

// commandEnvelope is the command artifact shape read by the companion script.
// Params never contain nulls; the remote parser cannot represent absence, so
// unset values are omitted entirely.
type commandEnvelope struct {
	RequestID string     `json:"request_id"`
	Command   string     `json:"command"`
	Params    cad.Params `json:"params"`
	TS        float64    `json:"ts"`
}

// resultEnvelope is the result artifact shape produced by the companion
// script. Some script versions add a "ts" field; unknown fields are ignored.
type resultEnvelope struct {
	RequestID string `json:"request_id"`
	OK        bool   `json:"ok"`
	Payload   any    `json:"payload"`
	Error     string `json:"error"`
}

// Codec builds command artifacts and parses result artifacts for one
// exchange directory.
type Codec struct {
	dir      string
	prefix   string
	fallback encoding.Encoding
}

// NewCodec builds a codec for dir with the given artifact name prefix.
// fallbackEncoding names the legacy single-byte encoding (IANA name, e.g.
// "windows-1252") tried when a result file is not valid UTF-8; empty
// disables the fallback.
func NewCodec(dir, prefix, fallbackEncoding string) (*Codec, error) {
	if dir == "" {
		return nil, fmt.Errorf("exchange directory is required")
	}
	if prefix == "" {
		return nil, fmt.Errorf("artifact prefix is required")
	}

	c := &Codec{dir: dir, prefix: prefix}
	if fallbackEncoding != "" {
		enc, err := ianaindex.IANA.Encoding(fallbackEncoding)
		if err != nil || enc == nil {
			return nil, fmt.Errorf("unknown result encoding %q", fallbackEncoding)
		}
		c.fallback = enc
	}
	return c, nil
}

// NewRequestID returns a fresh 12-hex-character request token. Roughly 48
// bits of entropy; collision over a session's lifetime is negligible.
func NewRequestID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:12]
}

// Dir returns the exchange directory.
func (c *Codec) Dir() string { return c.dir }

// Prefix returns the artifact name prefix.
func (c *Codec) Prefix() string { return c.prefix }

// CommandPath is where the companion script looks for a command.
func (c *Codec) CommandPath(requestID string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_cmd_%s.json", c.prefix, requestID))
}

// TempPath is the staging sibling of CommandPath. Content is written here in
// full and renamed onto CommandPath, so the remote side never observes a
// partial command file.
func (c *Codec) TempPath(requestID string) string {
	return strings.TrimSuffix(c.CommandPath(requestID), ".json") + ".tmp"
}

// ResultPath is where the companion script writes its response.
func (c *Codec) ResultPath(requestID string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_result_%s.json", c.prefix, requestID))
}

// ScriptPath is where ad-hoc LISP code is staged for execute-lisp. These
// persist for the session and are removed by the staleness sweep, not by
// per-call cleanup.
func (c *Codec) ScriptPath(requestID string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_lisp_%s.lsp", c.prefix, requestID))
}

// WriteCommand serializes (command, params) under requestID and lands it
// atomically at CommandPath. Nil-valued params are stripped first.
func (c *Codec) WriteCommand(requestID, command string, params cad.Params) error {
	if params == nil {
		params = cad.Params{}
	}
	env := commandEnvelope{
		RequestID: requestID,
		Command:   command,
		Params:    params.Stripped(),
		TS:        float64(time.Now().UnixNano()) / 1e9,
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode command %s: %w", command, err)
	}

	tmp := c.TempPath(requestID)
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write command file: %w", err)
	}
	if err := os.Rename(tmp, c.CommandPath(requestID)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish command file: %w", err)
	}
	return nil
}

// ReadResult parses the result artifact for requestID. Any error means "not
// ready": the caller keeps polling until its deadline. The writer side has
// no atomicity guarantee for the result path, so a half-written file is
// expected and must not be surfaced.
func (c *Codec) ReadResult(requestID string) (cad.Result, error) {
	data, err := os.ReadFile(c.ResultPath(requestID))
	if err != nil {
		return cad.Result{}, fmt.Errorf("%w: %v", errNotReady, err)
	}

	text, err := c.decodeBytes(data)
	if err != nil {
		return cad.Result{}, fmt.Errorf("%w: %v", errNotReady, err)
	}

	var env resultEnvelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return cad.Result{}, fmt.Errorf("%w: %v", errNotReady, err)
	}

	// A leftover file from an abandoned call carries a different id; keep
	// waiting for ours instead of trusting it.
	if env.RequestID != requestID {
		return cad.Result{}, fmt.Errorf("%w: request_id mismatch (got %q)", errNotReady, env.RequestID)
	}
	if !env.OK && env.Error == "" {
		return cad.Result{}, fmt.Errorf("%w: failed result without error message", errNotReady)
	}

	if env.OK {
		return cad.OKResult(env.Payload), nil
	}
	return cad.FailResult(env.Error), nil
}

// decodeBytes decodes result bytes as UTF-8, falling back to the configured
// legacy single-byte encoding. AutoLISP on some regional installs writes
// results in the ANSI code page rather than UTF-8.
func (c *Codec) decodeBytes(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	if c.fallback == nil {
		return "", fmt.Errorf("result is not valid UTF-8 and no fallback encoding is configured")
	}
	decoded, err := c.fallback.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("fallback decode: %w", err)
	}
	return string(decoded), nil
}

// Cleanup removes the per-call artifacts for requestID: the command file,
// its staging sibling, and the result file. Missing files are fine; cleanup
// runs on every exit path and must be idempotent.
func (c *Codec) Cleanup(requestID string) {
	// Best effort; the staleness sweep catches anything left behind.
	for _, p := range []string{
		c.CommandPath(requestID),
		c.TempPath(requestID),
		c.ResultPath(requestID),
	} {
		_ = os.Remove(p)
	}
}
