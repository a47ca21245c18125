package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drafthaus/drawbridge/internal/cad"
	"github.com/drafthaus/drawbridge/internal/catalog"
	"github.com/drafthaus/drawbridge/internal/log"
	"github.com/drafthaus/drawbridge/internal/memdoc"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR")
	os.Exit(m.Run())
}

// captureBackend records the typed parameters each verb receives, so tests
// can check coercion and defaults without a real document.
type captureBackend struct {
	cad.Unsupported
	calls map[string][]any
}

func newCapture() *captureBackend {
	return &captureBackend{calls: map[string][]any{}}
}

func (c *captureBackend) record(verb string, params ...any) cad.Result {
	c.calls[verb] = params
	return cad.OKResult("ok")
}

func (c *captureBackend) CreateText(_ context.Context, x, y float64, text string, height, rotation float64, layer string) cad.Result {
	return c.record("CreateText", x, y, text, height, rotation, layer)
}

func (c *captureBackend) CreateMText(_ context.Context, x, y, width float64, text string, height float64, layer string) cad.Result {
	return c.record("CreateMText", x, y, width, text, height, layer)
}

func (c *captureBackend) CreateHatch(_ context.Context, entityID, pattern string) cad.Result {
	return c.record("CreateHatch", entityID, pattern)
}

func (c *captureBackend) CreatePolyline(_ context.Context, points []cad.Point, closed bool, layer string) cad.Result {
	return c.record("CreatePolyline", points, closed, layer)
}

func (c *captureBackend) CreateCircle(_ context.Context, cx, cy, radius float64, layer string) cad.Result {
	return c.record("CreateCircle", cx, cy, radius, layer)
}

func (c *captureBackend) LayerCreate(_ context.Context, name string, color any, linetype string) cad.Result {
	return c.record("LayerCreate", name, color, linetype)
}

func (c *captureBackend) BlockInsert(_ context.Context, name string, x, y, scale, rotation float64, blockID string) cad.Result {
	return c.record("BlockInsert", name, x, y, scale, rotation, blockID)
}

func (c *captureBackend) DrawingGetVariables(_ context.Context, names []string) cad.Result {
	return c.record("DrawingGetVariables", names)
}

func (c *captureBackend) PIDInsertInstrument(_ context.Context, x, y float64, instrumentType string, rotation float64, tagID, rangeValue string) cad.Result {
	return c.record("PIDInsertInstrument", x, y, instrumentType, rotation, tagID, rangeValue)
}

func (c *captureBackend) PIDInsertValve(_ context.Context, x, y float64, valveType string, rotation float64, attributes map[string]string) cad.Result {
	return c.record("PIDInsertValve", x, y, valveType, rotation, attributes)
}

func (c *captureBackend) EntityArray(_ context.Context, entityID string, rows, cols int, rowDist, colDist float64) cad.Result {
	return c.record("EntityArray", entityID, rows, cols, rowDist, colDist)
}

func TestRegistryDescribe(t *testing.T) {
	r := NewRegistry()
	infos := r.Describe()

	var names []string
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{
		"drawing", "entity", "layer", "block",
		"annotation", "pid", "view", "system",
	}, names)

	for _, info := range infos {
		assert.NotEmpty(t, info.Summary, "tool %s has no summary", info.Name)
		assert.NotEmpty(t, info.Operations, "tool %s has no operations", info.Name)
	}

	drawing := infos[0]
	var ops []string
	for _, op := range drawing.Operations {
		ops = append(ops, op.Name)
	}
	assert.Contains(t, ops, "save-as-dxf")
	assert.Contains(t, ops, "execute-lisp")
	assert.NotContains(t, ops, "save_as_dxf")
}

func TestRegistryKind(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		tool      string
		operation string
		want      Kind
		found     bool
	}{
		{"entity", "list", KindRead, true},
		{"entity", "create-line", KindWrite, true},
		{"entity", "erase", KindWrite, true},
		{"drawing", "info", KindRead, true},
		{"drawing", "get-variables", KindRead, true},
		{"drawing", "save", KindWrite, true},
		{"layer", "list", KindRead, true},
		{"layer", "freeze", KindWrite, true},
		{"block", "get-attributes", KindRead, true},
		{"annotation", "create-leader", KindWrite, true},
		{"pid", "list-symbols", KindRead, true},
		{"pid", "setup-layers", KindWrite, true},
		{"view", "zoom-extents", KindRead, true},
		{"view", "screenshot", KindRead, true},
		{"system", "status", KindRead, true},
		{"system", "init", KindWrite, true},
		{"entity", "explode", "", false},
		{"nope", "list", "", false},
	}
	for _, tt := range tests {
		kind, ok := r.Kind(tt.tool, tt.operation)
		assert.Equal(t, tt.found, ok, "%s/%s found", tt.tool, tt.operation)
		assert.Equal(t, tt.want, kind, "%s/%s kind", tt.tool, tt.operation)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.Execute(context.Background(), newCapture(), "widget", "list", nil)
	assert.False(t, res.OK)
	assert.Equal(t, "Unknown tool: widget (valid: drawing, entity, layer, block, annotation, pid, view, system)", res.Err)
}

func TestExecuteUnknownOperation(t *testing.T) {
	r := NewRegistry()
	res := r.Execute(context.Background(), newCapture(), "view", "pan", nil)
	assert.False(t, res.OK)
	assert.Contains(t, res.Err, "Unknown view operation: pan")
	assert.Contains(t, res.Err, "zoom-extents, zoom-window, screenshot")
}

func TestExecuteAppliesDefaults(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	tests := []struct {
		name      string
		tool      string
		operation string
		data      cad.Params
		verb      string
		want      []any
	}{
		{
			name: "text height and rotation",
			tool: "annotation", operation: "create-text",
			data: cad.Params{"x": 1.0, "y": 2.0, "text": "HELLO"},
			verb: "CreateText",
			want: []any{1.0, 2.0, "HELLO", 2.5, 0.0, ""},
		},
		{
			name: "mtext height",
			tool: "entity", operation: "create-mtext",
			data: cad.Params{"x": 0.0, "y": 0.0, "width": 40.0, "text": "NOTE"},
			verb: "CreateMText",
			want: []any{0.0, 0.0, 40.0, "NOTE", 2.5, ""},
		},
		{
			name: "hatch pattern",
			tool: "entity", operation: "create-hatch",
			data: cad.Params{"entity_id": "mem_1"},
			verb: "CreateHatch",
			want: []any{"mem_1", "ANSI31"},
		},
		{
			name: "layer color and linetype",
			tool: "layer", operation: "create",
			data: cad.Params{"name": "EQUIP"},
			verb: "LayerCreate",
			want: []any{"EQUIP", "white", "CONTINUOUS"},
		},
		{
			name: "block scale and rotation",
			tool: "block", operation: "insert",
			data: cad.Params{"name": "VALVE", "x": 5.0, "y": 5.0},
			verb: "BlockInsert",
			want: []any{"VALVE", 5.0, 5.0, 1.0, 0.0, ""},
		},
		{
			name: "instrument tag and range",
			tool: "pid", operation: "insert-instrument",
			data: cad.Params{"x": 0.0, "y": 0.0, "instrument_type": "PT"},
			verb: "PIDInsertInstrument",
			want: []any{0.0, 0.0, "PT", 0.0, "", ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newCapture()
			res := r.Execute(ctx, b, tt.tool, tt.operation, tt.data)
			assert.True(t, res.OK, "unexpected failure: %s", res.Err)
			assert.Equal(t, tt.want, b.calls[tt.verb])
		})
	}
}

func TestExecuteCoercesWireShapes(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	t.Run("polyline points from json arrays", func(t *testing.T) {
		b := newCapture()
		res := r.Execute(ctx, b, "entity", "create-polyline", cad.Params{
			"points": []any{[]any{0.0, 0.0}, []any{10.0, 0.0}, []any{10.0, 5.0}},
			"closed": true,
		})
		assert.True(t, res.OK)
		assert.Equal(t, []any{
			[]cad.Point{{0, 0}, {10, 0}, {10, 5}}, true, "",
		}, b.calls["CreatePolyline"])
	})

	t.Run("valve attributes stringified", func(t *testing.T) {
		b := newCapture()
		res := r.Execute(ctx, b, "pid", "insert-valve", cad.Params{
			"x": 0.0, "y": 0.0, "valve_type": "gate",
			"attributes": map[string]any{"SIZE": 2.5, "RATING": 150},
		})
		assert.True(t, res.OK)
		assert.Equal(t, []any{
			0.0, 0.0, "gate", 0.0,
			map[string]string{"SIZE": "2.5", "RATING": "150"},
		}, b.calls["PIDInsertValve"])
	})

	t.Run("array counts as ints", func(t *testing.T) {
		b := newCapture()
		res := r.Execute(ctx, b, "entity", "array", cad.Params{
			"entity_id": "mem_1",
			"rows":      2.0, "cols": 3.0,
			"row_dist": 10.0, "col_dist": 5.0,
		})
		assert.True(t, res.OK)
		assert.Equal(t, []any{"mem_1", 2, 3, 10.0, 5.0}, b.calls["EntityArray"])
	})

	t.Run("variable names from json array", func(t *testing.T) {
		b := newCapture()
		res := r.Execute(ctx, b, "drawing", "get-variables", cad.Params{
			"names": []any{"CLAYER", "DWGNAME"},
		})
		assert.True(t, res.OK)
		assert.Equal(t, []any{[]string{"CLAYER", "DWGNAME"}}, b.calls["DrawingGetVariables"])
	})
}

func TestExecuteCoercionFailures(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	t.Run("missing parameter stops before the backend", func(t *testing.T) {
		b := newCapture()
		res := r.Execute(ctx, b, "entity", "create-circle", cad.Params{"cx": 0.0, "cy": 0.0})
		assert.False(t, res.OK)
		assert.Equal(t, "Missing required parameter: radius", res.Err)
		assert.Empty(t, b.calls)
	})

	t.Run("wrong type stops before the backend", func(t *testing.T) {
		b := newCapture()
		res := r.Execute(ctx, b, "entity", "create-circle", cad.Params{
			"cx": 0.0, "cy": 0.0, "radius": "big",
		})
		assert.False(t, res.OK)
		assert.Equal(t, "Parameter radius has the wrong type", res.Err)
		assert.Empty(t, b.calls)
	})

	t.Run("nil data still reports the first missing key", func(t *testing.T) {
		b := newCapture()
		res := r.Execute(ctx, b, "entity", "create-line", nil)
		assert.False(t, res.OK)
		assert.Equal(t, "Missing required parameter: x1", res.Err)
	})
}

func TestExecuteAgainstDocument(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	b := memdoc.New(memdoc.WithLibrary(catalog.New(filepath.Join(t.TempDir(), "missing"))))

	res := r.Execute(ctx, b, "system", "init", nil)
	assert.True(t, res.OK, "init failed: %s", res.Err)

	res = r.Execute(ctx, b, "entity", "create-line", cad.Params{
		"x1": 0.0, "y1": 0.0, "x2": 10.0, "y2": 5.0,
	})
	assert.True(t, res.OK, "create-line failed: %s", res.Err)
	payload := res.Payload.(map[string]any)
	assert.Equal(t, "LINE", payload["entity_type"])
	handle := payload["handle"].(string)

	res = r.Execute(ctx, b, "entity", "count", nil)
	assert.True(t, res.OK)
	assert.Equal(t, 1, res.Payload.(map[string]any)["count"])

	res = r.Execute(ctx, b, "entity", "get", cad.Params{"entity_id": handle})
	assert.True(t, res.OK)
	assert.Equal(t, "LINE", res.Payload.(map[string]any)["type"])

	res = r.Execute(ctx, b, "system", "health", nil)
	assert.True(t, res.OK)
	assert.Equal(t, map[string]any{"backend": "memdoc", "healthy": true}, res.Payload)

	res = r.Execute(ctx, b, "system", "backend", nil)
	assert.True(t, res.OK)
	info := res.Payload.(map[string]any)
	assert.Equal(t, "memdoc", info["backend"])
	caps := info["capabilities"].(cad.Capabilities)
	assert.True(t, caps.Screenshot)
	assert.False(t, caps.Zoom)
}
