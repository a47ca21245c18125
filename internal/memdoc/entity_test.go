package memdoc

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/drafthaus/drawbridge/internal/cad"
)

func entityCount(t *testing.T, b *Backend) int {
	t.Helper()
	return payload(t, b.EntityCount(context.Background(), ""))["count"].(int)
}

func TestBackend_CreateEntities(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	tests := []struct {
		name     string
		call     func() cad.Result
		wantType string
	}{
		{"line", func() cad.Result { return b.CreateLine(ctx, 0, 0, 10, 10, "") }, "LINE"},
		{"circle", func() cad.Result { return b.CreateCircle(ctx, 5, 5, 3, "") }, "CIRCLE"},
		{"polyline", func() cad.Result {
			return b.CreatePolyline(ctx, []cad.Point{{0, 0}, {5, 0}, {5, 5}}, false, "")
		}, "LWPOLYLINE"},
		{"rectangle", func() cad.Result { return b.CreateRectangle(ctx, 0, 0, 4, 3, "") }, "LWPOLYLINE"},
		{"arc", func() cad.Result { return b.CreateArc(ctx, 0, 0, 5, 0, 90, "") }, "ARC"},
		{"ellipse", func() cad.Result { return b.CreateEllipse(ctx, 0, 0, 10, 0, 0.5, "") }, "ELLIPSE"},
		{"text", func() cad.Result { return b.CreateText(ctx, 1, 1, "note", 2.5, 0, "") }, "TEXT"},
		{"mtext", func() cad.Result { return b.CreateMText(ctx, 1, 1, 40, "para", 2.5, "") }, "MTEXT"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := payload(t, tt.call())
			if got["entity_type"] != tt.wantType {
				t.Errorf("entity_type = %v, want %v", got["entity_type"], tt.wantType)
			}
			handle := got["handle"].(string)
			if !strings.HasPrefix(handle, "mem_") {
				t.Errorf("handle = %q, want mem_ prefix", handle)
			}
			if n := entityCount(t, b); n != i+1 {
				t.Errorf("entity count = %d, want %d", n, i+1)
			}
		})
	}
}

func TestBackend_CreateOnNamedLayer(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	payload(t, b.CreateCircle(ctx, 0, 0, 1, "EQUIP"))
	list := payload(t, b.EntityList(ctx, "EQUIP"))
	if list["count"] != 1 {
		t.Fatalf("count = %v, want 1 on EQUIP", list["count"])
	}
	// The layer was auto-created.
	layers := payload(t, b.DrawingInfo(ctx))["layers"].([]string)
	found := false
	for _, l := range layers {
		if l == "EQUIP" {
			found = true
		}
	}
	if !found {
		t.Errorf("EQUIP not auto-created: %v", layers)
	}
}

func TestBackend_EntityGet(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	line := payload(t, b.CreateLine(ctx, 1, 2, 3, 4, ""))["handle"].(string)
	got := payload(t, b.EntityGet(ctx, line))
	start := got["start"].([]float64)
	end := got["end"].([]float64)
	if start[0] != 1 || start[1] != 2 || end[0] != 3 || end[1] != 4 {
		t.Errorf("line geometry = %v %v, want (1,2)-(3,4)", start, end)
	}

	circle := payload(t, b.CreateCircle(ctx, 5, 6, 7, ""))["handle"].(string)
	got = payload(t, b.EntityGet(ctx, circle))
	center := got["center"].([]float64)
	if center[0] != 5 || center[1] != 6 || got["radius"] != 7.0 {
		t.Errorf("circle geometry = %v r=%v, want (5,6) r=7", center, got["radius"])
	}

	if res := b.EntityGet(ctx, "mem_99"); res.OK || res.Err != "Entity mem_99 not found" {
		t.Errorf("got (%v, %q), want not-found failure", res.OK, res.Err)
	}
}

func TestBackend_EntityErase(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	first := payload(t, b.CreateLine(ctx, 0, 0, 1, 1, ""))["handle"].(string)
	payload(t, b.CreateCircle(ctx, 0, 0, 1, ""))

	got := payload(t, b.EntityErase(ctx, "last"))
	if got["erased"] != "last" {
		t.Errorf("erased = %v, want literal 'last'", got["erased"])
	}
	if n := entityCount(t, b); n != 1 {
		t.Fatalf("count = %d, want 1 after erasing last", n)
	}

	payload(t, b.EntityErase(ctx, first))
	if n := entityCount(t, b); n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}

	if res := b.EntityErase(ctx, first); res.OK {
		t.Error("erasing a gone entity should fail")
	}
}

func TestBackend_EntityMoveRotateScale(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	id := payload(t, b.CreateCircle(ctx, 10, 0, 2, ""))["handle"].(string)

	got := payload(t, b.EntityMove(ctx, id, 5, -3))
	if got["moved"] != id {
		t.Errorf("moved = %v, want %v", got["moved"], id)
	}
	e := b.doc.Entity(id)
	if e.Center[0] != 15 || e.Center[1] != -3 {
		t.Errorf("center = %v, want (15,-3)", e.Center)
	}

	b.EntityMove(ctx, id, -5, 3) // back to (10,0)
	payload(t, b.EntityRotate(ctx, id, 0, 0, 90))
	e = b.doc.Entity(id)
	if math.Abs(e.Center[0]) > 1e-9 || math.Abs(e.Center[1]-10) > 1e-9 {
		t.Errorf("center after rotate = %v, want (0,10)", e.Center)
	}

	payload(t, b.EntityScale(ctx, id, 0, 10, 2))
	e = b.doc.Entity(id)
	if e.Radius != 4 {
		t.Errorf("radius = %v, want 4 after 2x scale", e.Radius)
	}
	if math.Abs(e.Center[1]-10) > 1e-9 {
		t.Errorf("center moved off the scale origin: %v", e.Center)
	}
}

func TestBackend_EntityMirror(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	id := payload(t, b.CreateLine(ctx, 2, 1, 10, 1, ""))["handle"].(string)

	// Mirror across the vertical axis x=0.
	got := payload(t, b.EntityMirror(ctx, id, 0, -1, 0, 1))
	copyID := got["handle"].(string)
	if copyID == id {
		t.Fatal("mirror must return a new handle")
	}

	orig := b.doc.Entity(id)
	if orig.Points[0][0] != 2 {
		t.Errorf("original moved: %v", orig.Points)
	}
	c := b.doc.Entity(copyID)
	if math.Abs(c.Points[0][0]+2) > 1e-9 || math.Abs(c.Points[1][0]+10) > 1e-9 {
		t.Errorf("mirrored points = %v, want x negated", c.Points)
	}
	if math.Abs(c.Points[0][1]-1) > 1e-9 {
		t.Errorf("y changed under vertical mirror: %v", c.Points)
	}

	if res := b.EntityMirror(ctx, id, 3, 3, 3, 3); res.OK || res.Err != "Mirror line has zero length" {
		t.Errorf("got (%v, %q), want zero-length failure", res.OK, res.Err)
	}
	// The failed mirror must not leave a partial copy behind.
	if n := entityCount(t, b); n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestBackend_EntityMirrorArcStaysCounterclockwise(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	id := payload(t, b.CreateArc(ctx, 0, 0, 5, 0, 90, ""))["handle"].(string)

	// Reflect across the x axis: the 0..90 arc maps to 270..360.
	copyID := payload(t, b.EntityMirror(ctx, id, -1, 0, 1, 0))["handle"].(string)
	c := b.doc.Entity(copyID)
	if math.Abs(c.StartAngle-270) > 1e-9 {
		t.Errorf("start angle = %v, want 270", c.StartAngle)
	}
	if math.Abs(c.EndAngle) > 1e-9 && math.Abs(c.EndAngle-360) > 1e-9 {
		t.Errorf("end angle = %v, want 0 or 360", c.EndAngle)
	}
}

func TestBackend_EntityCopy(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	id := payload(t, b.CreateCircle(ctx, 0, 0, 1, ""))["handle"].(string)

	copyID := payload(t, b.EntityCopy(ctx, id, 7, 8))["handle"].(string)
	if copyID == id {
		t.Fatal("copy must get a new handle")
	}
	c := b.doc.Entity(copyID)
	if c.Center[0] != 7 || c.Center[1] != 8 {
		t.Errorf("copy center = %v, want (7,8)", c.Center)
	}
	if orig := b.doc.Entity(id); orig.Center[0] != 0 || orig.Center[1] != 0 {
		t.Errorf("original moved: %v", orig.Center)
	}
}

func TestBackend_EntityArray(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	id := payload(t, b.CreateCircle(ctx, 0, 0, 1, ""))["handle"].(string)

	got := payload(t, b.EntityArray(ctx, id, 2, 3, 10, 5))
	if got["copies"] != 5 {
		t.Fatalf("copies = %v, want 5 (origin cell skipped)", got["copies"])
	}
	handles := got["handles"].([]string)
	if len(handles) != 5 {
		t.Fatalf("handles = %v, want 5 entries", handles)
	}
	if n := entityCount(t, b); n != 6 {
		t.Errorf("count = %d, want 6", n)
	}

	// Last cell is row 1, col 2: offset (2*5, 1*10).
	last := b.doc.Entity(handles[len(handles)-1])
	if last.Center[0] != 10 || last.Center[1] != 10 {
		t.Errorf("last cell center = %v, want (10,10)", last.Center)
	}
}

func TestBackend_EntityList_FilterByLayer(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	b.CreateLine(ctx, 0, 0, 1, 1, "A")
	b.CreateLine(ctx, 0, 0, 1, 1, "B")
	b.CreateCircle(ctx, 0, 0, 1, "A")

	list := payload(t, b.EntityList(ctx, "a"))
	if list["count"] != 2 {
		t.Errorf("count on A = %v, want 2", list["count"])
	}
	all := payload(t, b.EntityList(ctx, ""))
	if all["count"] != 3 {
		t.Errorf("count = %v, want 3", all["count"])
	}
}

func TestBackend_CreateHatch(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	rect := payload(t, b.CreateRectangle(ctx, 0, 0, 10, 10, ""))["handle"].(string)
	got := payload(t, b.CreateHatch(ctx, rect, "ANSI31"))
	if got["entity_type"] != "HATCH" {
		t.Errorf("entity_type = %v, want HATCH", got["entity_type"])
	}

	circle := payload(t, b.CreateCircle(ctx, 0, 0, 1, ""))["handle"].(string)
	if res := b.CreateHatch(ctx, circle, ""); res.OK || !strings.Contains(res.Err, "hatch boundary") {
		t.Errorf("hatch on circle: got (%v, %q)", res.OK, res.Err)
	}

	if res := b.CreateHatch(ctx, "mem_99", ""); res.OK || res.Err != "Entity mem_99 not found" {
		t.Errorf("hatch on missing: got (%v, %q)", res.OK, res.Err)
	}
}

func TestBackend_Dimensions(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	results := map[string]cad.Result{
		"linear":  b.CreateDimensionLinear(ctx, 0, 0, 10, 0, 5, 5),
		"aligned": b.CreateDimensionAligned(ctx, 0, 0, 10, 10, 2),
		"angular": b.CreateDimensionAngular(ctx, 0, 0, 10, 0, 0, 10),
		"radius":  b.CreateDimensionRadius(ctx, 0, 0, 5, 45),
	}
	for name, res := range results {
		got := payload(t, res)
		if got["entity_type"] != "DIMENSION" {
			t.Errorf("%s: entity_type = %v, want DIMENSION", name, got["entity_type"])
		}
		if _, ok := got["handle"]; ok {
			t.Errorf("%s: dimension payloads carry no handle", name)
		}
	}
	if n := entityCount(t, b); n != 4 {
		t.Errorf("count = %d, want 4", n)
	}
}

func TestBackend_CreateLeader(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	got := payload(t, b.CreateLeader(ctx, []cad.Point{{0, 0}, {5, 5}, {10, 5}}, "see detail A"))
	if got["entity_type"] != "LEADER" {
		t.Errorf("entity_type = %v, want LEADER", got["entity_type"])
	}
	// Leader line plus the companion note.
	if n := entityCount(t, b); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	note := b.doc.Last()
	if note.Type != "MTEXT" || note.Text != "see detail A" {
		t.Errorf("companion = %s %q, want MTEXT with the note", note.Type, note.Text)
	}
	if note.Insert[0] != 12 || note.Insert[1] != 5 {
		t.Errorf("note insert = %v, want (12,5)", note.Insert)
	}

	if res := b.CreateLeader(ctx, nil, "x"); res.OK {
		t.Error("leader with no points should fail")
	}
}

func TestBackend_NamedUnsupportedMessages(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	if res := b.EntityOffset(ctx, "mem_1", 2); res.Err != "Offset not supported on memdoc backend" {
		t.Errorf("offset error = %q", res.Err)
	}
	if res := b.EntityFillet(ctx, "a", "b", 1); res.Err != "Fillet not supported on memdoc backend" {
		t.Errorf("fillet error = %q", res.Err)
	}
	if res := b.EntityChamfer(ctx, "a", "b", 1, 1); res.Err != "Chamfer not supported on memdoc backend" {
		t.Errorf("chamfer error = %q", res.Err)
	}
}
