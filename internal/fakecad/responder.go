// Package fakecad answers the drawbridge file exchange the way the AutoCAD
// companion script does, backed by the in-memory drawing engine. It polls the
// exchange directory instead of waiting for keystrokes, so the full fileipc
// stack can run end to end on hosts without AutoCAD. Pair it with a session
// configured with exchange.headless.
package fakecad

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/drafthaus/drawbridge/internal/cad"
	"github.com/drafthaus/drawbridge/internal/fileipc"
	"github.com/drafthaus/drawbridge/internal/memdoc"
)

// Wire envelopes, shape-compatible with the session codec.

type commandEnvelope struct {
	RequestID string         `json:"request_id"`
	Command   string         `json:"command"`
	Params    map[string]any `json:"params"`
	TS        float64        `json:"ts"`
}

type resultEnvelope struct {
	RequestID string `json:"request_id"`
	OK        bool   `json:"ok"`
	Payload   any    `json:"payload"`
	Error     string `json:"error"`
}

// Config locates the exchange the responder answers.
type Config struct {
	// ExchangeDir is the directory shared with the session. Required.
	ExchangeDir string
	// Prefix namespaces the exchange files. Defaults to the session default.
	Prefix string
	// PollInterval is how often Run scans for command files. Default 50ms.
	PollInterval time.Duration
}

// Responder serves command files from the exchange directory.
type Responder struct {
	dir      string
	prefix   string
	interval time.Duration
	backend  cad.Backend
	owned    bool
	logger   *slog.Logger
}

// Option configures a Responder.
type Option func(*Responder)

// WithLogger sets the responder logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Responder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithBackend answers verbs through the given backend instead of a private
// in-memory engine. The caller keeps ownership: Run will not Init or Close it.
func WithBackend(b cad.Backend) Option {
	return func(r *Responder) {
		r.backend = b
		r.owned = false
	}
}

// New builds a responder for the given exchange.
func New(cfg Config, opts ...Option) (*Responder, error) {
	if cfg.ExchangeDir == "" {
		return nil, fmt.Errorf("fakecad: exchange dir is required")
	}
	r := &Responder{
		dir:      cfg.ExchangeDir,
		prefix:   cfg.Prefix,
		interval: cfg.PollInterval,
		backend:  memdoc.New(),
		owned:    true,
		logger:   slog.Default(),
	}
	if r.prefix == "" {
		r.prefix = fileipc.DefaultPrefix
	}
	if r.interval <= 0 {
		r.interval = 50 * time.Millisecond
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run polls the exchange directory until ctx is cancelled.
func (r *Responder) Run(ctx context.Context) error {
	if r.owned {
		if res := r.backend.Init(ctx); !res.OK {
			return fmt.Errorf("fakecad: backend init: %s", res.Err)
		}
		defer r.backend.Close()
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("fakecad: exchange dir: %w", err)
	}
	r.logger.Info("fakecad answering",
		"dir", r.dir,
		"prefix", r.prefix,
		"backend", r.backend.Name())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.ProcessPending(ctx); err != nil {
				r.logger.Warn("exchange scan failed", "error", err)
			}
		}
	}
}

// ProcessPending answers every command file currently in the exchange
// directory, oldest name first, and reports how many it handled. Exposed so
// tests can step the responder without the polling loop.
func (r *Responder) ProcessPending(ctx context.Context) (int, error) {
	matches, err := filepath.Glob(filepath.Join(r.dir, r.prefix+"_cmd_*.json"))
	if err != nil {
		return 0, err
	}
	sort.Strings(matches)
	handled := 0
	for _, path := range matches {
		if ctx.Err() != nil {
			return handled, nil
		}
		if r.serveOne(ctx, path) {
			handled++
		}
	}
	return handled, nil
}

func (r *Responder) serveOne(ctx context.Context, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		// Lost a race with the session's cleanup or stale sweep.
		return false
	}
	var env commandEnvelope
	if err := json.Unmarshal(data, &env); err != nil || env.RequestID == "" {
		// Commands are renamed into place, so this is garbage rather than a
		// half-written file.
		_ = os.Remove(path)
		r.logger.Warn("dropped unreadable command file", "path", path)
		return false
	}
	// Delete before dispatching so a crashed verb cannot replay.
	_ = os.Remove(path)

	started := time.Now()
	res := r.dispatch(ctx, env.Command, env.Params)
	r.writeResult(env.RequestID, res)
	r.logger.Debug("answered",
		"command", env.Command,
		"request_id", env.RequestID,
		"ok", res.OK,
		"duration_ms", time.Since(started).Milliseconds())
	return true
}

func (r *Responder) writeResult(id string, res cad.Result) {
	env := resultEnvelope{RequestID: id, OK: res.OK, Payload: res.Payload, Error: res.Err}
	data, err := json.Marshal(env)
	if err != nil {
		data = []byte(fmt.Sprintf(
			`{"request_id":%q,"ok":false,"payload":null,"error":"result not serializable"}`, id))
	}
	path := filepath.Join(r.dir, fmt.Sprintf("%s_result_%s.json", r.prefix, id))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		r.logger.Error("cannot write result", "path", path, "error", err)
	}
}

// dispatch maps a wire verb onto the backend call it stands for. The verb
// names and parameter keys mirror what the session sends; see the verb layer
// on the session side for the forward direction.
func (r *Responder) dispatch(ctx context.Context, command string, p map[string]any) cad.Result {
	if p == nil {
		p = map[string]any{}
	}
	b := r.backend
	switch command {
	case "ping":
		return b.Ping(ctx)
	case "execute-lisp":
		return r.executeLisp(ctx, str(p, "code_file"))

	case "drawing-info":
		return b.DrawingInfo(ctx)
	case "drawing-save":
		return b.DrawingSave(ctx, str(p, "path"))
	case "drawing-save-as-dxf":
		return b.DrawingSaveAsDXF(ctx, str(p, "path"))
	case "drawing-create":
		return b.DrawingCreate(ctx, str(p, "name"))
	case "drawing-open":
		return b.DrawingOpen(ctx, str(p, "path"))
	case "drawing-purge":
		return b.DrawingPurge(ctx)
	case "drawing-plot-pdf":
		return b.DrawingPlotPDF(ctx, str(p, "path"))
	case "drawing-get-variables":
		return b.DrawingGetVariables(ctx, splitList(str(p, "names_str")))
	case "undo":
		return b.Undo(ctx)
	case "redo":
		return b.Redo(ctx)

	case "create-line":
		return b.CreateLine(ctx, num(p, "x1"), num(p, "y1"), num(p, "x2"), num(p, "y2"), str(p, "layer"))
	case "create-circle":
		return b.CreateCircle(ctx, num(p, "cx"), num(p, "cy"), num(p, "radius"), str(p, "layer"))
	case "create-polyline":
		return b.CreatePolyline(ctx, points(p), str(p, "closed") == "1", str(p, "layer"))
	case "create-rectangle":
		return b.CreateRectangle(ctx, num(p, "x1"), num(p, "y1"), num(p, "x2"), num(p, "y2"), str(p, "layer"))
	case "create-arc":
		return b.CreateArc(ctx, num(p, "cx"), num(p, "cy"), num(p, "radius"),
			num(p, "start_angle"), num(p, "end_angle"), str(p, "layer"))
	case "create-ellipse":
		return b.CreateEllipse(ctx, num(p, "cx"), num(p, "cy"),
			num(p, "major_x"), num(p, "major_y"), num(p, "ratio"), str(p, "layer"))
	case "create-text":
		return b.CreateText(ctx, num(p, "x"), num(p, "y"), str(p, "text"),
			num(p, "height"), num(p, "rotation"), str(p, "layer"))
	case "create-mtext":
		return b.CreateMText(ctx, num(p, "x"), num(p, "y"), num(p, "width"),
			str(p, "text"), num(p, "height"), str(p, "layer"))
	case "create-hatch":
		return b.CreateHatch(ctx, str(p, "entity_id"), str(p, "pattern"))

	case "entity-list":
		return b.EntityList(ctx, str(p, "layer"))
	case "entity-count":
		return b.EntityCount(ctx, str(p, "layer"))
	case "entity-get":
		return b.EntityGet(ctx, str(p, "entity_id"))
	case "entity-erase":
		return b.EntityErase(ctx, str(p, "entity_id"))
	case "entity-copy":
		return b.EntityCopy(ctx, str(p, "entity_id"), num(p, "dx"), num(p, "dy"))
	case "entity-move":
		return b.EntityMove(ctx, str(p, "entity_id"), num(p, "dx"), num(p, "dy"))
	case "entity-rotate":
		return b.EntityRotate(ctx, str(p, "entity_id"), num(p, "cx"), num(p, "cy"), num(p, "angle"))
	case "entity-scale":
		return b.EntityScale(ctx, str(p, "entity_id"), num(p, "cx"), num(p, "cy"), num(p, "factor"))
	case "entity-mirror":
		return b.EntityMirror(ctx, str(p, "entity_id"),
			num(p, "x1"), num(p, "y1"), num(p, "x2"), num(p, "y2"))
	case "entity-offset":
		return b.EntityOffset(ctx, str(p, "entity_id"), num(p, "distance"))
	case "entity-array":
		return b.EntityArray(ctx, str(p, "entity_id"),
			intOf(p, "rows"), intOf(p, "cols"), num(p, "row_dist"), num(p, "col_dist"))
	case "entity-fillet":
		return b.EntityFillet(ctx, str(p, "id1"), str(p, "id2"), num(p, "radius"))
	case "entity-chamfer":
		return b.EntityChamfer(ctx, str(p, "id1"), str(p, "id2"), num(p, "dist1"), num(p, "dist2"))

	case "layer-list":
		return b.LayerList(ctx)
	case "layer-create":
		return b.LayerCreate(ctx, str(p, "name"), p["color"], str(p, "linetype"))
	case "layer-set-current":
		return b.LayerSetCurrent(ctx, str(p, "name"))
	case "layer-set-properties":
		return b.LayerSetProperties(ctx, str(p, "name"), p["color"],
			str(p, "linetype"), str(p, "lineweight"))
	case "layer-freeze":
		return b.LayerFreeze(ctx, str(p, "name"))
	case "layer-thaw":
		return b.LayerThaw(ctx, str(p, "name"))
	case "layer-lock":
		return b.LayerLock(ctx, str(p, "name"))
	case "layer-unlock":
		return b.LayerUnlock(ctx, str(p, "name"))

	case "block-list":
		return b.BlockList(ctx)
	case "block-insert":
		return b.BlockInsert(ctx, str(p, "name"), num(p, "x"), num(p, "y"),
			num(p, "scale"), num(p, "rotation"), str(p, "block_id"))
	case "block-insert-with-attributes":
		return b.BlockInsertWithAttributes(ctx, str(p, "name"), num(p, "x"), num(p, "y"),
			num(p, "scale"), num(p, "rotation"), attrs(p, "attributes"))
	case "block-get-attributes":
		return b.BlockGetAttributes(ctx, str(p, "entity_id"))
	case "block-update-attribute":
		return b.BlockUpdateAttribute(ctx, str(p, "entity_id"), str(p, "tag"), str(p, "value"))
	case "block-define":
		return b.BlockDefine(ctx, str(p, "name"), defs(p, "entities"))

	case "create-dimension-linear":
		return b.CreateDimensionLinear(ctx, num(p, "x1"), num(p, "y1"),
			num(p, "x2"), num(p, "y2"), num(p, "dim_x"), num(p, "dim_y"))
	case "create-dimension-aligned":
		return b.CreateDimensionAligned(ctx, num(p, "x1"), num(p, "y1"),
			num(p, "x2"), num(p, "y2"), num(p, "offset"))
	case "create-dimension-angular":
		return b.CreateDimensionAngular(ctx, num(p, "cx"), num(p, "cy"),
			num(p, "x1"), num(p, "y1"), num(p, "x2"), num(p, "y2"))
	case "create-dimension-radius":
		return b.CreateDimensionRadius(ctx, num(p, "cx"), num(p, "cy"),
			num(p, "radius"), num(p, "angle"))
	case "create-leader":
		return b.CreateLeader(ctx, points(p), str(p, "text"))

	case "pid-setup-layers":
		return b.PIDSetupLayers(ctx)
	case "pid-insert-symbol":
		return b.PIDInsertSymbol(ctx, str(p, "category"), str(p, "symbol"),
			num(p, "x"), num(p, "y"), num(p, "scale"), num(p, "rotation"))
	case "pid-list-symbols":
		return b.PIDListSymbols(ctx, str(p, "category"))
	case "pid-draw-process-line":
		return b.PIDDrawProcessLine(ctx, num(p, "x1"), num(p, "y1"), num(p, "x2"), num(p, "y2"))
	case "pid-connect-equipment":
		return b.PIDConnectEquipment(ctx, num(p, "x1"), num(p, "y1"), num(p, "x2"), num(p, "y2"))
	case "pid-add-flow-arrow":
		return b.PIDAddFlowArrow(ctx, num(p, "x"), num(p, "y"), num(p, "rotation"))
	case "pid-add-equipment-tag":
		return b.PIDAddEquipmentTag(ctx, num(p, "x"), num(p, "y"),
			str(p, "tag"), str(p, "description"))
	case "pid-add-line-number":
		return b.PIDAddLineNumber(ctx, num(p, "x"), num(p, "y"),
			str(p, "line_num"), str(p, "spec"))
	case "pid-insert-valve":
		return b.PIDInsertValve(ctx, num(p, "x"), num(p, "y"),
			str(p, "valve_type"), num(p, "rotation"), attrs(p, "attributes"))
	case "pid-insert-instrument":
		return b.PIDInsertInstrument(ctx, num(p, "x"), num(p, "y"),
			str(p, "instrument_type"), num(p, "rotation"),
			str(p, "tag_id"), str(p, "range_value"))
	case "pid-insert-pump":
		return b.PIDInsertPump(ctx, num(p, "x"), num(p, "y"),
			str(p, "pump_type"), num(p, "rotation"), attrs(p, "attributes"))
	case "pid-insert-tank":
		return b.PIDInsertTank(ctx, num(p, "x"), num(p, "y"),
			str(p, "tank_type"), num(p, "scale"), attrs(p, "attributes"))

	case "zoom-extents":
		return b.ZoomExtents(ctx)
	case "zoom-window":
		return b.ZoomWindow(ctx, num(p, "x1"), num(p, "y1"), num(p, "x2"), num(p, "y2"))
	}
	return cad.FailResult("Unknown command: " + command)
}

// executeLisp relays the code file's contents; the in-memory engine decides
// what to make of them.
func (r *Responder) executeLisp(ctx context.Context, codeFile string) cad.Result {
	if codeFile == "" {
		return cad.FailResult("missing parameter: code_file")
	}
	code, err := os.ReadFile(codeFile)
	if err != nil {
		return cad.FailResult(fmt.Sprintf("File not found: %s", codeFile))
	}
	return r.backend.ExecuteLisp(ctx, string(code))
}

func str(p map[string]any, key string) string {
	v, _ := p[key].(string)
	return v
}

func num(p map[string]any, key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func intOf(p map[string]any, key string) int {
	return int(num(p, key))
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// points decodes the "x,y;x,y" wire form.
func points(p map[string]any) []cad.Point {
	s := str(p, "points_str")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	pts := make([]cad.Point, 0, len(parts))
	for _, part := range parts {
		xy := strings.SplitN(part, ",", 2)
		if len(xy) != 2 {
			continue
		}
		x, _ := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		y, _ := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		pts = append(pts, cad.Point{x, y})
	}
	return pts
}

func attrs(p map[string]any, key string) map[string]string {
	raw, _ := p[key].(map[string]any)
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch s := v.(type) {
		case string:
			out[k] = s
		default:
			if v != nil {
				out[k] = fmt.Sprint(v)
			}
		}
	}
	return out
}

func defs(p map[string]any, key string) []map[string]any {
	raw, _ := p[key].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, e := range raw {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
