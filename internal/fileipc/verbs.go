package fileipc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/drafthaus/drawbridge/internal/cad"
)

// joinPoints encodes a point list as "x,y;x,y". The drawing-side parser
// splits on ";" then "," and has no list type of its own.
func joinPoints(points []cad.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = strconv.FormatFloat(p[0], 'g', -1, 64) + "," + strconv.FormatFloat(p[1], 'g', -1, 64)
	}
	return strings.Join(parts, ";")
}

func nonNil(attrs map[string]string) map[string]string {
	if attrs == nil {
		return map[string]string{}
	}
	return attrs
}

// Drawing and document operations.

func (s *Session) DrawingInfo(ctx context.Context) cad.Result {
	return s.dispatch(ctx, "drawing-info", nil)
}

func (s *Session) DrawingSave(ctx context.Context, path string) cad.Result {
	return s.dispatch(ctx, "drawing-save", cad.Params{}.SetOpt("path", path))
}

func (s *Session) DrawingSaveAsDXF(ctx context.Context, path string) cad.Result {
	return s.dispatch(ctx, "drawing-save-as-dxf", cad.Params{"path": path})
}

func (s *Session) DrawingCreate(ctx context.Context, name string) cad.Result {
	return s.dispatch(ctx, "drawing-create", cad.Params{"name": name})
}

func (s *Session) DrawingPurge(ctx context.Context) cad.Result {
	return s.dispatch(ctx, "drawing-purge", nil)
}

func (s *Session) DrawingPlotPDF(ctx context.Context, path string) cad.Result {
	return s.dispatch(ctx, "drawing-plot-pdf", cad.Params{"path": path})
}

// DrawingGetVariables asks for system variables by name. Leading "$" is
// stripped so headless-style names ($ACADVER) work against a live session,
// and the list is joined with ";" because params carry scalars only.
func (s *Session) DrawingGetVariables(ctx context.Context, names []string) cad.Result {
	namesStr := ""
	if len(names) > 0 {
		clean := make([]string, len(names))
		for i, n := range names {
			clean[i] = strings.TrimLeft(n, "$")
		}
		namesStr = strings.Join(clean, ";")
	}
	return s.dispatch(ctx, "drawing-get-variables", cad.Params{"names_str": namesStr})
}

func (s *Session) DrawingOpen(ctx context.Context, path string) cad.Result {
	return s.dispatch(ctx, "drawing-open", cad.Params{"path": path})
}

func (s *Session) Undo(ctx context.Context) cad.Result {
	return s.dispatch(ctx, "undo", nil)
}

func (s *Session) Redo(ctx context.Context) cad.Result {
	return s.dispatch(ctx, "redo", nil)
}

// ExecuteLisp stages the code as a script file in the exchange directory and
// sends only its path. The script persists for the session; the staleness
// sweep reclaims it later. Forward slashes because the drawing-side reader
// treats backslashes as escapes.
func (s *Session) ExecuteLisp(ctx context.Context, code string) cad.Result {
	path := s.codec.ScriptPath(NewRequestID())
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return cad.FailResult(fmt.Sprintf("stage lisp script: %s", err))
	}
	return s.dispatch(ctx, "execute-lisp", cad.Params{"code_file": filepath.ToSlash(path)})
}

// Entity creation.

func (s *Session) CreateLine(ctx context.Context, x1, y1, x2, y2 float64, layer string) cad.Result {
	return s.dispatch(ctx, "create-line", cad.Params{"x1": x1, "y1": y1, "x2": x2, "y2": y2}.SetOpt("layer", layer))
}

func (s *Session) CreateCircle(ctx context.Context, cx, cy, radius float64, layer string) cad.Result {
	return s.dispatch(ctx, "create-circle", cad.Params{"cx": cx, "cy": cy, "radius": radius}.SetOpt("layer", layer))
}

func (s *Session) CreatePolyline(ctx context.Context, points []cad.Point, closed bool, layer string) cad.Result {
	closedStr := "0"
	if closed {
		closedStr = "1"
	}
	return s.dispatch(ctx, "create-polyline", cad.Params{
		"points_str": joinPoints(points),
		"closed":     closedStr,
	}.SetOpt("layer", layer))
}

func (s *Session) CreateRectangle(ctx context.Context, x1, y1, x2, y2 float64, layer string) cad.Result {
	return s.dispatch(ctx, "create-rectangle", cad.Params{"x1": x1, "y1": y1, "x2": x2, "y2": y2}.SetOpt("layer", layer))
}

func (s *Session) CreateArc(ctx context.Context, cx, cy, radius, startAngle, endAngle float64, layer string) cad.Result {
	return s.dispatch(ctx, "create-arc", cad.Params{
		"cx": cx, "cy": cy, "radius": radius,
		"start_angle": startAngle, "end_angle": endAngle,
	}.SetOpt("layer", layer))
}

func (s *Session) CreateEllipse(ctx context.Context, cx, cy, majorX, majorY, ratio float64, layer string) cad.Result {
	return s.dispatch(ctx, "create-ellipse", cad.Params{
		"cx": cx, "cy": cy, "major_x": majorX, "major_y": majorY, "ratio": ratio,
	}.SetOpt("layer", layer))
}

func (s *Session) CreateText(ctx context.Context, x, y float64, text string, height, rotation float64, layer string) cad.Result {
	return s.dispatch(ctx, "create-text", cad.Params{
		"x": x, "y": y, "text": text, "height": height, "rotation": rotation,
	}.SetOpt("layer", layer))
}

func (s *Session) CreateMText(ctx context.Context, x, y, width float64, text string, height float64, layer string) cad.Result {
	return s.dispatch(ctx, "create-mtext", cad.Params{
		"x": x, "y": y, "width": width, "text": text, "height": height,
	}.SetOpt("layer", layer))
}

func (s *Session) CreateHatch(ctx context.Context, entityID, pattern string) cad.Result {
	return s.dispatch(ctx, "create-hatch", cad.Params{"entity_id": entityID, "pattern": pattern})
}

// Entity inspection and modification.

func (s *Session) EntityList(ctx context.Context, layer string) cad.Result {
	return s.dispatch(ctx, "entity-list", cad.Params{}.SetOpt("layer", layer))
}

func (s *Session) EntityCount(ctx context.Context, layer string) cad.Result {
	return s.dispatch(ctx, "entity-count", cad.Params{}.SetOpt("layer", layer))
}

func (s *Session) EntityGet(ctx context.Context, entityID string) cad.Result {
	return s.dispatch(ctx, "entity-get", cad.Params{"entity_id": entityID})
}

func (s *Session) EntityErase(ctx context.Context, entityID string) cad.Result {
	return s.dispatch(ctx, "entity-erase", cad.Params{"entity_id": entityID})
}

func (s *Session) EntityCopy(ctx context.Context, entityID string, dx, dy float64) cad.Result {
	return s.dispatch(ctx, "entity-copy", cad.Params{"entity_id": entityID, "dx": dx, "dy": dy})
}

func (s *Session) EntityMove(ctx context.Context, entityID string, dx, dy float64) cad.Result {
	return s.dispatch(ctx, "entity-move", cad.Params{"entity_id": entityID, "dx": dx, "dy": dy})
}

func (s *Session) EntityRotate(ctx context.Context, entityID string, cx, cy, angle float64) cad.Result {
	return s.dispatch(ctx, "entity-rotate", cad.Params{"entity_id": entityID, "cx": cx, "cy": cy, "angle": angle})
}

func (s *Session) EntityScale(ctx context.Context, entityID string, cx, cy, factor float64) cad.Result {
	return s.dispatch(ctx, "entity-scale", cad.Params{"entity_id": entityID, "cx": cx, "cy": cy, "factor": factor})
}

func (s *Session) EntityMirror(ctx context.Context, entityID string, x1, y1, x2, y2 float64) cad.Result {
	return s.dispatch(ctx, "entity-mirror", cad.Params{"entity_id": entityID, "x1": x1, "y1": y1, "x2": x2, "y2": y2})
}

func (s *Session) EntityOffset(ctx context.Context, entityID string, distance float64) cad.Result {
	return s.dispatch(ctx, "entity-offset", cad.Params{"entity_id": entityID, "distance": distance})
}

func (s *Session) EntityArray(ctx context.Context, entityID string, rows, cols int, rowDist, colDist float64) cad.Result {
	return s.dispatch(ctx, "entity-array", cad.Params{
		"entity_id": entityID, "rows": rows, "cols": cols,
		"row_dist": rowDist, "col_dist": colDist,
	})
}

func (s *Session) EntityFillet(ctx context.Context, id1, id2 string, radius float64) cad.Result {
	return s.dispatch(ctx, "entity-fillet", cad.Params{"id1": id1, "id2": id2, "radius": radius})
}

func (s *Session) EntityChamfer(ctx context.Context, id1, id2 string, dist1, dist2 float64) cad.Result {
	return s.dispatch(ctx, "entity-chamfer", cad.Params{"id1": id1, "id2": id2, "dist1": dist1, "dist2": dist2})
}

// Layers.

func (s *Session) LayerList(ctx context.Context) cad.Result {
	return s.dispatch(ctx, "layer-list", nil)
}

func (s *Session) LayerCreate(ctx context.Context, name string, color any, linetype string) cad.Result {
	return s.dispatch(ctx, "layer-create", cad.Params{"name": name, "color": color, "linetype": linetype})
}

func (s *Session) LayerSetCurrent(ctx context.Context, name string) cad.Result {
	return s.dispatch(ctx, "layer-set-current", cad.Params{"name": name})
}

func (s *Session) LayerSetProperties(ctx context.Context, name string, color any, linetype, lineweight string) cad.Result {
	return s.dispatch(ctx, "layer-set-properties", cad.Params{
		"name": name, "color": color, "linetype": linetype, "lineweight": lineweight,
	})
}

func (s *Session) LayerFreeze(ctx context.Context, name string) cad.Result {
	return s.dispatch(ctx, "layer-freeze", cad.Params{"name": name})
}

func (s *Session) LayerThaw(ctx context.Context, name string) cad.Result {
	return s.dispatch(ctx, "layer-thaw", cad.Params{"name": name})
}

func (s *Session) LayerLock(ctx context.Context, name string) cad.Result {
	return s.dispatch(ctx, "layer-lock", cad.Params{"name": name})
}

func (s *Session) LayerUnlock(ctx context.Context, name string) cad.Result {
	return s.dispatch(ctx, "layer-unlock", cad.Params{"name": name})
}

// Blocks.

func (s *Session) BlockList(ctx context.Context) cad.Result {
	return s.dispatch(ctx, "block-list", nil)
}

func (s *Session) BlockInsert(ctx context.Context, name string, x, y, scale, rotation float64, blockID string) cad.Result {
	return s.dispatch(ctx, "block-insert", cad.Params{
		"name": name, "x": x, "y": y, "scale": scale, "rotation": rotation,
	}.SetOpt("block_id", blockID))
}

func (s *Session) BlockInsertWithAttributes(ctx context.Context, name string, x, y, scale, rotation float64, attributes map[string]string) cad.Result {
	return s.dispatch(ctx, "block-insert-with-attributes", cad.Params{
		"name": name, "x": x, "y": y, "scale": scale, "rotation": rotation,
		"attributes": nonNil(attributes),
	})
}

func (s *Session) BlockGetAttributes(ctx context.Context, entityID string) cad.Result {
	return s.dispatch(ctx, "block-get-attributes", cad.Params{"entity_id": entityID})
}

func (s *Session) BlockUpdateAttribute(ctx context.Context, entityID, tag, value string) cad.Result {
	return s.dispatch(ctx, "block-update-attribute", cad.Params{"entity_id": entityID, "tag": tag, "value": value})
}

func (s *Session) BlockDefine(ctx context.Context, name string, entities []map[string]any) cad.Result {
	return s.dispatch(ctx, "block-define", cad.Params{"name": name, "entities": entities})
}

// Annotation.

func (s *Session) CreateDimensionLinear(ctx context.Context, x1, y1, x2, y2, dimX, dimY float64) cad.Result {
	return s.dispatch(ctx, "create-dimension-linear", cad.Params{
		"x1": x1, "y1": y1, "x2": x2, "y2": y2, "dim_x": dimX, "dim_y": dimY,
	})
}

func (s *Session) CreateDimensionAligned(ctx context.Context, x1, y1, x2, y2, offset float64) cad.Result {
	return s.dispatch(ctx, "create-dimension-aligned", cad.Params{
		"x1": x1, "y1": y1, "x2": x2, "y2": y2, "offset": offset,
	})
}

func (s *Session) CreateDimensionAngular(ctx context.Context, cx, cy, x1, y1, x2, y2 float64) cad.Result {
	return s.dispatch(ctx, "create-dimension-angular", cad.Params{
		"cx": cx, "cy": cy, "x1": x1, "y1": y1, "x2": x2, "y2": y2,
	})
}

func (s *Session) CreateDimensionRadius(ctx context.Context, cx, cy, radius, angle float64) cad.Result {
	return s.dispatch(ctx, "create-dimension-radius", cad.Params{
		"cx": cx, "cy": cy, "radius": radius, "angle": angle,
	})
}

func (s *Session) CreateLeader(ctx context.Context, points []cad.Point, text string) cad.Result {
	return s.dispatch(ctx, "create-leader", cad.Params{"points_str": joinPoints(points), "text": text})
}

// P&ID symbols and helpers.

func (s *Session) PIDSetupLayers(ctx context.Context) cad.Result {
	return s.dispatch(ctx, "pid-setup-layers", nil)
}

func (s *Session) PIDInsertSymbol(ctx context.Context, category, symbol string, x, y, scale, rotation float64) cad.Result {
	return s.dispatch(ctx, "pid-insert-symbol", cad.Params{
		"category": category, "symbol": symbol, "x": x, "y": y, "scale": scale, "rotation": rotation,
	})
}

func (s *Session) PIDListSymbols(ctx context.Context, category string) cad.Result {
	return s.dispatch(ctx, "pid-list-symbols", cad.Params{"category": category})
}

func (s *Session) PIDDrawProcessLine(ctx context.Context, x1, y1, x2, y2 float64) cad.Result {
	return s.dispatch(ctx, "pid-draw-process-line", cad.Params{"x1": x1, "y1": y1, "x2": x2, "y2": y2})
}

func (s *Session) PIDConnectEquipment(ctx context.Context, x1, y1, x2, y2 float64) cad.Result {
	return s.dispatch(ctx, "pid-connect-equipment", cad.Params{"x1": x1, "y1": y1, "x2": x2, "y2": y2})
}

func (s *Session) PIDAddFlowArrow(ctx context.Context, x, y, rotation float64) cad.Result {
	return s.dispatch(ctx, "pid-add-flow-arrow", cad.Params{"x": x, "y": y, "rotation": rotation})
}

func (s *Session) PIDAddEquipmentTag(ctx context.Context, x, y float64, tag, description string) cad.Result {
	return s.dispatch(ctx, "pid-add-equipment-tag", cad.Params{"x": x, "y": y, "tag": tag, "description": description})
}

func (s *Session) PIDAddLineNumber(ctx context.Context, x, y float64, lineNum, spec string) cad.Result {
	return s.dispatch(ctx, "pid-add-line-number", cad.Params{"x": x, "y": y, "line_num": lineNum, "spec": spec})
}

func (s *Session) PIDInsertValve(ctx context.Context, x, y float64, valveType string, rotation float64, attributes map[string]string) cad.Result {
	return s.dispatch(ctx, "pid-insert-valve", cad.Params{
		"x": x, "y": y, "valve_type": valveType, "rotation": rotation,
		"attributes": nonNil(attributes),
	})
}

func (s *Session) PIDInsertInstrument(ctx context.Context, x, y float64, instrumentType string, rotation float64, tagID, rangeValue string) cad.Result {
	return s.dispatch(ctx, "pid-insert-instrument", cad.Params{
		"x": x, "y": y, "instrument_type": instrumentType, "rotation": rotation,
		"tag_id": tagID, "range_value": rangeValue,
	})
}

func (s *Session) PIDInsertPump(ctx context.Context, x, y float64, pumpType string, rotation float64, attributes map[string]string) cad.Result {
	return s.dispatch(ctx, "pid-insert-pump", cad.Params{
		"x": x, "y": y, "pump_type": pumpType, "rotation": rotation,
		"attributes": nonNil(attributes),
	})
}

func (s *Session) PIDInsertTank(ctx context.Context, x, y float64, tankType string, scale float64, attributes map[string]string) cad.Result {
	return s.dispatch(ctx, "pid-insert-tank", cad.Params{
		"x": x, "y": y, "tank_type": tankType, "scale": scale,
		"attributes": nonNil(attributes),
	})
}

// View.

func (s *Session) ZoomExtents(ctx context.Context) cad.Result {
	return s.dispatch(ctx, "zoom-extents", nil)
}

func (s *Session) ZoomWindow(ctx context.Context, x1, y1, x2, y2 float64) cad.Result {
	return s.dispatch(ctx, "zoom-window", cad.Params{"x1": x1, "y1": y1, "x2": x2, "y2": y2})
}
