package tools

import (
	"context"

	"github.com/drafthaus/drawbridge/internal/cad"
)

func drawingTool() Tool {
	return Tool{
		Name:    "drawing",
		Summary: "Drawing file management",
		Operations: []Operation{
			{Name: "create", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				name := a.StrOr("name", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.DrawingCreate(ctx, name)
			}},
			{Name: "info", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				return b.DrawingInfo(ctx)
			}},
			{Name: "save", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				path := a.StrOr("path", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.DrawingSave(ctx, path)
			}},
			{Name: "save-as-dxf", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				path := a.Str("path")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.DrawingSaveAsDXF(ctx, path)
			}},
			{Name: "plot-pdf", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				path := a.Str("path")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.DrawingPlotPDF(ctx, path)
			}},
			{Name: "purge", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				return b.DrawingPurge(ctx)
			}},
			{Name: "get-variables", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				names := a.Names("names")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.DrawingGetVariables(ctx, names)
			}},
			{Name: "open", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				path := a.Str("path")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.DrawingOpen(ctx, path)
			}},
			{Name: "undo", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				return b.Undo(ctx)
			}},
			{Name: "redo", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				return b.Redo(ctx)
			}},
			{Name: "execute-lisp", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				code := a.Str("code")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.ExecuteLisp(ctx, code)
			}},
		},
	}
}

func entityTool() Tool {
	return Tool{
		Name:    "entity",
		Summary: "Entity creation, querying, and modification",
		Operations: []Operation{
			{Name: "create-line", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x1, y1 := a.Num("x1"), a.Num("y1")
				x2, y2 := a.Num("x2"), a.Num("y2")
				layer := a.StrOr("layer", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.CreateLine(ctx, x1, y1, x2, y2, layer)
			}},
			{Name: "create-circle", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				cx, cy := a.Num("cx"), a.Num("cy")
				radius := a.Num("radius")
				layer := a.StrOr("layer", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.CreateCircle(ctx, cx, cy, radius, layer)
			}},
			{Name: "create-polyline", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				points := a.PointsOr("points")
				closed := a.BoolOr("closed", false)
				layer := a.StrOr("layer", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.CreatePolyline(ctx, points, closed, layer)
			}},
			{Name: "create-rectangle", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x1, y1 := a.Num("x1"), a.Num("y1")
				x2, y2 := a.Num("x2"), a.Num("y2")
				layer := a.StrOr("layer", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.CreateRectangle(ctx, x1, y1, x2, y2, layer)
			}},
			{Name: "create-arc", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				cx, cy := a.Num("cx"), a.Num("cy")
				radius := a.Num("radius")
				start, end := a.Num("start_angle"), a.Num("end_angle")
				layer := a.StrOr("layer", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.CreateArc(ctx, cx, cy, radius, start, end, layer)
			}},
			{Name: "create-ellipse", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				cx, cy := a.Num("cx"), a.Num("cy")
				majorX, majorY := a.Num("major_x"), a.Num("major_y")
				ratio := a.Num("ratio")
				layer := a.StrOr("layer", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.CreateEllipse(ctx, cx, cy, majorX, majorY, ratio, layer)
			}},
			{Name: "create-mtext", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x, y := a.Num("x"), a.Num("y")
				width := a.Num("width")
				text := a.Str("text")
				height := a.NumOr("height", 2.5)
				layer := a.StrOr("layer", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.CreateMText(ctx, x, y, width, text, height, layer)
			}},
			{Name: "create-hatch", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				entityID := a.Str("entity_id")
				pattern := a.StrOr("pattern", "ANSI31")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.CreateHatch(ctx, entityID, pattern)
			}},
			{Name: "list", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				layer := a.StrOr("layer", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.EntityList(ctx, layer)
			}},
			{Name: "count", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				layer := a.StrOr("layer", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.EntityCount(ctx, layer)
			}},
			{Name: "get", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				entityID := a.Str("entity_id")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.EntityGet(ctx, entityID)
			}},
			{Name: "copy", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				entityID := a.Str("entity_id")
				dx, dy := a.Num("dx"), a.Num("dy")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.EntityCopy(ctx, entityID, dx, dy)
			}},
			{Name: "move", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				entityID := a.Str("entity_id")
				dx, dy := a.Num("dx"), a.Num("dy")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.EntityMove(ctx, entityID, dx, dy)
			}},
			{Name: "rotate", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				entityID := a.Str("entity_id")
				cx, cy := a.Num("cx"), a.Num("cy")
				angle := a.Num("angle")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.EntityRotate(ctx, entityID, cx, cy, angle)
			}},
			{Name: "scale", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				entityID := a.Str("entity_id")
				cx, cy := a.Num("cx"), a.Num("cy")
				factor := a.Num("factor")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.EntityScale(ctx, entityID, cx, cy, factor)
			}},
			{Name: "mirror", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				entityID := a.Str("entity_id")
				x1, y1 := a.Num("x1"), a.Num("y1")
				x2, y2 := a.Num("x2"), a.Num("y2")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.EntityMirror(ctx, entityID, x1, y1, x2, y2)
			}},
			{Name: "offset", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				entityID := a.Str("entity_id")
				distance := a.Num("distance")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.EntityOffset(ctx, entityID, distance)
			}},
			{Name: "array", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				entityID := a.Str("entity_id")
				rows, cols := a.Int("rows"), a.Int("cols")
				rowDist, colDist := a.Num("row_dist"), a.Num("col_dist")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.EntityArray(ctx, entityID, rows, cols, rowDist, colDist)
			}},
			{Name: "fillet", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				id1, id2 := a.Str("id1"), a.Str("id2")
				radius := a.Num("radius")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.EntityFillet(ctx, id1, id2, radius)
			}},
			{Name: "chamfer", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				id1, id2 := a.Str("id1"), a.Str("id2")
				dist1, dist2 := a.Num("dist1"), a.Num("dist2")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.EntityChamfer(ctx, id1, id2, dist1, dist2)
			}},
			{Name: "erase", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				entityID := a.Str("entity_id")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.EntityErase(ctx, entityID)
			}},
		},
	}
}

func layerTool() Tool {
	return Tool{
		Name:    "layer",
		Summary: "Layer creation and management",
		Operations: []Operation{
			{Name: "list", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				return b.LayerList(ctx)
			}},
			{Name: "create", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				name := a.Str("name")
				color := a.AnyOr("color", "white")
				linetype := a.StrOr("linetype", "CONTINUOUS")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.LayerCreate(ctx, name, color, linetype)
			}},
			{Name: "set-current", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				name := a.Str("name")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.LayerSetCurrent(ctx, name)
			}},
			{Name: "set-properties", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				name := a.Str("name")
				color := a.AnyOr("color", nil)
				linetype := a.StrOr("linetype", "")
				lineweight := a.StrOr("lineweight", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.LayerSetProperties(ctx, name, color, linetype, lineweight)
			}},
			{Name: "freeze", Kind: KindWrite, Run: layerNameOp(func(ctx context.Context, b cad.Backend, name string) cad.Result {
				return b.LayerFreeze(ctx, name)
			})},
			{Name: "thaw", Kind: KindWrite, Run: layerNameOp(func(ctx context.Context, b cad.Backend, name string) cad.Result {
				return b.LayerThaw(ctx, name)
			})},
			{Name: "lock", Kind: KindWrite, Run: layerNameOp(func(ctx context.Context, b cad.Backend, name string) cad.Result {
				return b.LayerLock(ctx, name)
			})},
			{Name: "unlock", Kind: KindWrite, Run: layerNameOp(func(ctx context.Context, b cad.Backend, name string) cad.Result {
				return b.LayerUnlock(ctx, name)
			})},
		},
	}
}

// layerNameOp adapts the freeze/thaw/lock/unlock family, which differ only
// in the verb applied to a required layer name.
func layerNameOp(verb func(ctx context.Context, b cad.Backend, name string) cad.Result) func(context.Context, cad.Backend, cad.Params) cad.Result {
	return func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
		a := newArgs(d)
		name := a.Str("name")
		if res, failed := a.fail(); failed {
			return res
		}
		return verb(ctx, b, name)
	}
}

func blockTool() Tool {
	return Tool{
		Name:    "block",
		Summary: "Block definition, insertion, and attribute management",
		Operations: []Operation{
			{Name: "list", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				return b.BlockList(ctx)
			}},
			{Name: "insert", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				name := a.Str("name")
				x, y := a.Num("x"), a.Num("y")
				scale := a.NumOr("scale", 1.0)
				rotation := a.NumOr("rotation", 0.0)
				blockID := a.StrOr("block_id", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.BlockInsert(ctx, name, x, y, scale, rotation, blockID)
			}},
			{Name: "insert-with-attributes", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				name := a.Str("name")
				x, y := a.Num("x"), a.Num("y")
				scale := a.NumOr("scale", 1.0)
				rotation := a.NumOr("rotation", 0.0)
				attrs := a.Attrs("attributes")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.BlockInsertWithAttributes(ctx, name, x, y, scale, rotation, attrs)
			}},
			{Name: "get-attributes", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				entityID := a.Str("entity_id")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.BlockGetAttributes(ctx, entityID)
			}},
			{Name: "update-attribute", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				entityID := a.Str("entity_id")
				tag := a.Str("tag")
				value := a.Str("value")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.BlockUpdateAttribute(ctx, entityID, tag, value)
			}},
			{Name: "define", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				name := a.Str("name")
				entities := a.Entities("entities")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.BlockDefine(ctx, name, entities)
			}},
		},
	}
}

func annotationTool() Tool {
	return Tool{
		Name:    "annotation",
		Summary: "Text, dimensions, and leaders",
		Operations: []Operation{
			{Name: "create-text", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x, y := a.Num("x"), a.Num("y")
				text := a.Str("text")
				height := a.NumOr("height", 2.5)
				rotation := a.NumOr("rotation", 0.0)
				layer := a.StrOr("layer", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.CreateText(ctx, x, y, text, height, rotation, layer)
			}},
			{Name: "create-dimension-linear", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x1, y1 := a.Num("x1"), a.Num("y1")
				x2, y2 := a.Num("x2"), a.Num("y2")
				dimX, dimY := a.Num("dim_x"), a.Num("dim_y")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.CreateDimensionLinear(ctx, x1, y1, x2, y2, dimX, dimY)
			}},
			{Name: "create-dimension-aligned", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x1, y1 := a.Num("x1"), a.Num("y1")
				x2, y2 := a.Num("x2"), a.Num("y2")
				offset := a.Num("offset")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.CreateDimensionAligned(ctx, x1, y1, x2, y2, offset)
			}},
			{Name: "create-dimension-angular", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				cx, cy := a.Num("cx"), a.Num("cy")
				x1, y1 := a.Num("x1"), a.Num("y1")
				x2, y2 := a.Num("x2"), a.Num("y2")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.CreateDimensionAngular(ctx, cx, cy, x1, y1, x2, y2)
			}},
			{Name: "create-dimension-radius", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				cx, cy := a.Num("cx"), a.Num("cy")
				radius := a.Num("radius")
				angle := a.Num("angle")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.CreateDimensionRadius(ctx, cx, cy, radius, angle)
			}},
			{Name: "create-leader", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				points := a.Points("points")
				text := a.Str("text")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.CreateLeader(ctx, points, text)
			}},
		},
	}
}

func pidTool() Tool {
	return Tool{
		Name:    "pid",
		Summary: "P&ID drawing with the CTO symbol library",
		Operations: []Operation{
			{Name: "setup-layers", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				return b.PIDSetupLayers(ctx)
			}},
			{Name: "insert-symbol", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				category := a.Str("category")
				symbol := a.Str("symbol")
				x, y := a.Num("x"), a.Num("y")
				scale := a.NumOr("scale", 1.0)
				rotation := a.NumOr("rotation", 0.0)
				if res, failed := a.fail(); failed {
					return res
				}
				return b.PIDInsertSymbol(ctx, category, symbol, x, y, scale, rotation)
			}},
			{Name: "list-symbols", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				category := a.Str("category")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.PIDListSymbols(ctx, category)
			}},
			{Name: "draw-process-line", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x1, y1 := a.Num("x1"), a.Num("y1")
				x2, y2 := a.Num("x2"), a.Num("y2")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.PIDDrawProcessLine(ctx, x1, y1, x2, y2)
			}},
			{Name: "connect-equipment", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x1, y1 := a.Num("x1"), a.Num("y1")
				x2, y2 := a.Num("x2"), a.Num("y2")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.PIDConnectEquipment(ctx, x1, y1, x2, y2)
			}},
			{Name: "add-flow-arrow", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x, y := a.Num("x"), a.Num("y")
				rotation := a.NumOr("rotation", 0.0)
				if res, failed := a.fail(); failed {
					return res
				}
				return b.PIDAddFlowArrow(ctx, x, y, rotation)
			}},
			{Name: "add-equipment-tag", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x, y := a.Num("x"), a.Num("y")
				tag := a.Str("tag")
				description := a.StrOr("description", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.PIDAddEquipmentTag(ctx, x, y, tag, description)
			}},
			{Name: "add-line-number", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x, y := a.Num("x"), a.Num("y")
				lineNum := a.Str("line_num")
				spec := a.Str("spec")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.PIDAddLineNumber(ctx, x, y, lineNum, spec)
			}},
			{Name: "insert-valve", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x, y := a.Num("x"), a.Num("y")
				valveType := a.Str("valve_type")
				rotation := a.NumOr("rotation", 0.0)
				attrs := a.Attrs("attributes")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.PIDInsertValve(ctx, x, y, valveType, rotation, attrs)
			}},
			{Name: "insert-instrument", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x, y := a.Num("x"), a.Num("y")
				instrumentType := a.Str("instrument_type")
				rotation := a.NumOr("rotation", 0.0)
				tagID := a.StrOr("tag_id", "")
				rangeValue := a.StrOr("range_value", "")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.PIDInsertInstrument(ctx, x, y, instrumentType, rotation, tagID, rangeValue)
			}},
			{Name: "insert-pump", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x, y := a.Num("x"), a.Num("y")
				pumpType := a.Str("pump_type")
				rotation := a.NumOr("rotation", 0.0)
				attrs := a.Attrs("attributes")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.PIDInsertPump(ctx, x, y, pumpType, rotation, attrs)
			}},
			{Name: "insert-tank", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x, y := a.Num("x"), a.Num("y")
				tankType := a.Str("tank_type")
				scale := a.NumOr("scale", 1.0)
				attrs := a.Attrs("attributes")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.PIDInsertTank(ctx, x, y, tankType, scale, attrs)
			}},
		},
	}
}

func viewTool() Tool {
	return Tool{
		Name:    "view",
		Summary: "Viewport control and screenshot capture",
		Operations: []Operation{
			{Name: "zoom-extents", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				return b.ZoomExtents(ctx)
			}},
			{Name: "zoom-window", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				a := newArgs(d)
				x1, y1 := a.Num("x1"), a.Num("y1")
				x2, y2 := a.Num("x2"), a.Num("y2")
				if res, failed := a.fail(); failed {
					return res
				}
				return b.ZoomWindow(ctx, x1, y1, x2, y2)
			}},
			{Name: "screenshot", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				return b.Screenshot(ctx)
			}},
		},
	}
}

func systemTool() Tool {
	return Tool{
		Name:    "system",
		Summary: "Service status and management",
		Operations: []Operation{
			{Name: "status", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				return b.Status(ctx)
			}},
			{Name: "health", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				res := b.Ping(ctx)
				if !res.OK {
					return res
				}
				return cad.OKResult(map[string]any{"backend": b.Name(), "healthy": true})
			}},
			{Name: "backend", Kind: KindRead, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				return cad.OKResult(map[string]any{
					"backend":      b.Name(),
					"capabilities": b.Capabilities(),
				})
			}},
			{Name: "init", Kind: KindWrite, Run: func(ctx context.Context, b cad.Backend, d cad.Params) cad.Result {
				return b.Init(ctx)
			}},
		},
	}
}
