package cad

import "context"

// Point is a 2D drawing coordinate.
type Point [2]float64

// Backend is the uniform command contract over an execution environment:
// either a live AutoCAD session reached over the file exchange protocol, or
// the headless in-memory document engine. Every verb returns a Result and
// never panics; verbs a backend does not implement return NotSupported()
// without attempting any I/O. Embed Unsupported to get that default.
type Backend interface {
	// Lifecycle. Init is called once by the selection probe before the
	// backend accepts verbs; Close releases any background resources.
	Name() string
	Init(ctx context.Context) Result
	Status(ctx context.Context) Result
	Capabilities() Capabilities
	Close() error

	Ping(ctx context.Context) Result

	// Drawing and document operations.
	DrawingInfo(ctx context.Context) Result
	DrawingSave(ctx context.Context, path string) Result
	DrawingSaveAsDXF(ctx context.Context, path string) Result
	DrawingCreate(ctx context.Context, name string) Result
	DrawingPurge(ctx context.Context) Result
	DrawingPlotPDF(ctx context.Context, path string) Result
	DrawingGetVariables(ctx context.Context, names []string) Result
	DrawingOpen(ctx context.Context, path string) Result
	Undo(ctx context.Context) Result
	Redo(ctx context.Context) Result
	ExecuteLisp(ctx context.Context, code string) Result

	// Entity creation. Empty layer means the current layer.
	CreateLine(ctx context.Context, x1, y1, x2, y2 float64, layer string) Result
	CreateCircle(ctx context.Context, cx, cy, radius float64, layer string) Result
	CreatePolyline(ctx context.Context, points []Point, closed bool, layer string) Result
	CreateRectangle(ctx context.Context, x1, y1, x2, y2 float64, layer string) Result
	CreateArc(ctx context.Context, cx, cy, radius, startAngle, endAngle float64, layer string) Result
	CreateEllipse(ctx context.Context, cx, cy, majorX, majorY, ratio float64, layer string) Result
	CreateText(ctx context.Context, x, y float64, text string, height, rotation float64, layer string) Result
	CreateMText(ctx context.Context, x, y, width float64, text string, height float64, layer string) Result
	CreateHatch(ctx context.Context, entityID, pattern string) Result

	// Entity inspection and modification.
	EntityList(ctx context.Context, layer string) Result
	EntityCount(ctx context.Context, layer string) Result
	EntityGet(ctx context.Context, entityID string) Result
	EntityErase(ctx context.Context, entityID string) Result
	EntityCopy(ctx context.Context, entityID string, dx, dy float64) Result
	EntityMove(ctx context.Context, entityID string, dx, dy float64) Result
	EntityRotate(ctx context.Context, entityID string, cx, cy, angle float64) Result
	EntityScale(ctx context.Context, entityID string, cx, cy, factor float64) Result
	EntityMirror(ctx context.Context, entityID string, x1, y1, x2, y2 float64) Result
	EntityOffset(ctx context.Context, entityID string, distance float64) Result
	EntityArray(ctx context.Context, entityID string, rows, cols int, rowDist, colDist float64) Result
	EntityFillet(ctx context.Context, id1, id2 string, radius float64) Result
	EntityChamfer(ctx context.Context, id1, id2 string, dist1, dist2 float64) Result

	// Layers. Color accepts an ACI number or a well-known color name.
	LayerList(ctx context.Context) Result
	LayerCreate(ctx context.Context, name string, color any, linetype string) Result
	LayerSetCurrent(ctx context.Context, name string) Result
	LayerSetProperties(ctx context.Context, name string, color any, linetype, lineweight string) Result
	LayerFreeze(ctx context.Context, name string) Result
	LayerThaw(ctx context.Context, name string) Result
	LayerLock(ctx context.Context, name string) Result
	LayerUnlock(ctx context.Context, name string) Result

	// Blocks.
	BlockList(ctx context.Context) Result
	BlockInsert(ctx context.Context, name string, x, y, scale, rotation float64, blockID string) Result
	BlockInsertWithAttributes(ctx context.Context, name string, x, y, scale, rotation float64, attributes map[string]string) Result
	BlockGetAttributes(ctx context.Context, entityID string) Result
	BlockUpdateAttribute(ctx context.Context, entityID, tag, value string) Result
	BlockDefine(ctx context.Context, name string, entities []map[string]any) Result

	// Annotation.
	CreateDimensionLinear(ctx context.Context, x1, y1, x2, y2, dimX, dimY float64) Result
	CreateDimensionAligned(ctx context.Context, x1, y1, x2, y2, offset float64) Result
	CreateDimensionAngular(ctx context.Context, cx, cy, x1, y1, x2, y2 float64) Result
	CreateDimensionRadius(ctx context.Context, cx, cy, radius, angle float64) Result
	CreateLeader(ctx context.Context, points []Point, text string) Result

	// P&ID symbols and helpers.
	PIDSetupLayers(ctx context.Context) Result
	PIDInsertSymbol(ctx context.Context, category, symbol string, x, y, scale, rotation float64) Result
	PIDListSymbols(ctx context.Context, category string) Result
	PIDDrawProcessLine(ctx context.Context, x1, y1, x2, y2 float64) Result
	PIDConnectEquipment(ctx context.Context, x1, y1, x2, y2 float64) Result
	PIDAddFlowArrow(ctx context.Context, x, y, rotation float64) Result
	PIDAddEquipmentTag(ctx context.Context, x, y float64, tag, description string) Result
	PIDAddLineNumber(ctx context.Context, x, y float64, lineNum, spec string) Result
	PIDInsertValve(ctx context.Context, x, y float64, valveType string, rotation float64, attributes map[string]string) Result
	PIDInsertInstrument(ctx context.Context, x, y float64, instrumentType string, rotation float64, tagID, rangeValue string) Result
	PIDInsertPump(ctx context.Context, x, y float64, pumpType string, rotation float64, attributes map[string]string) Result
	PIDInsertTank(ctx context.Context, x, y float64, tankType string, scale float64, attributes map[string]string) Result

	// View.
	ZoomExtents(ctx context.Context) Result
	ZoomWindow(ctx context.Context, x1, y1, x2, y2 float64) Result
	Screenshot(ctx context.Context) Result
}

// Unsupported implements every Backend verb with a fixed "not supported"
// failure. Real backends embed it and override the verbs they implement, so
// adding a verb to the interface never breaks an existing backend.
type Unsupported struct{}

func (Unsupported) Name() string                       { return "unsupported" }
func (Unsupported) Init(context.Context) Result        { return NotSupported() }
func (Unsupported) Status(context.Context) Result      { return NotSupported() }
func (Unsupported) Capabilities() Capabilities         { return Capabilities{} }
func (Unsupported) Close() error                       { return nil }
func (Unsupported) Ping(context.Context) Result        { return NotSupported() }
func (Unsupported) DrawingInfo(context.Context) Result { return NotSupported() }
func (Unsupported) DrawingSave(context.Context, string) Result {
	return NotSupported()
}
func (Unsupported) DrawingSaveAsDXF(context.Context, string) Result {
	return NotSupported()
}
func (Unsupported) DrawingCreate(context.Context, string) Result {
	return NotSupported()
}
func (Unsupported) DrawingPurge(context.Context) Result { return NotSupported() }
func (Unsupported) DrawingPlotPDF(context.Context, string) Result {
	return NotSupported()
}
func (Unsupported) DrawingGetVariables(context.Context, []string) Result {
	return NotSupported()
}
func (Unsupported) DrawingOpen(context.Context, string) Result {
	return NotSupported()
}
func (Unsupported) Undo(context.Context) Result { return NotSupported() }
func (Unsupported) Redo(context.Context) Result { return NotSupported() }
func (Unsupported) ExecuteLisp(context.Context, string) Result {
	return NotSupported()
}
func (Unsupported) CreateLine(_ context.Context, _, _, _, _ float64, _ string) Result {
	return NotSupported()
}
func (Unsupported) CreateCircle(_ context.Context, _, _, _ float64, _ string) Result {
	return NotSupported()
}
func (Unsupported) CreatePolyline(_ context.Context, _ []Point, _ bool, _ string) Result {
	return NotSupported()
}
func (Unsupported) CreateRectangle(_ context.Context, _, _, _, _ float64, _ string) Result {
	return NotSupported()
}
func (Unsupported) CreateArc(_ context.Context, _, _, _, _, _ float64, _ string) Result {
	return NotSupported()
}
func (Unsupported) CreateEllipse(_ context.Context, _, _, _, _, _ float64, _ string) Result {
	return NotSupported()
}
func (Unsupported) CreateText(_ context.Context, _, _ float64, _ string, _, _ float64, _ string) Result {
	return NotSupported()
}
func (Unsupported) CreateMText(_ context.Context, _, _, _ float64, _ string, _ float64, _ string) Result {
	return NotSupported()
}
func (Unsupported) CreateHatch(_ context.Context, _, _ string) Result {
	return NotSupported()
}
func (Unsupported) EntityList(_ context.Context, _ string) Result  { return NotSupported() }
func (Unsupported) EntityCount(_ context.Context, _ string) Result { return NotSupported() }
func (Unsupported) EntityGet(_ context.Context, _ string) Result   { return NotSupported() }
func (Unsupported) EntityErase(_ context.Context, _ string) Result { return NotSupported() }
func (Unsupported) EntityCopy(_ context.Context, _ string, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) EntityMove(_ context.Context, _ string, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) EntityRotate(_ context.Context, _ string, _, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) EntityScale(_ context.Context, _ string, _, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) EntityMirror(_ context.Context, _ string, _, _, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) EntityOffset(_ context.Context, _ string, _ float64) Result {
	return NotSupported()
}
func (Unsupported) EntityArray(_ context.Context, _ string, _, _ int, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) EntityFillet(_ context.Context, _, _ string, _ float64) Result {
	return NotSupported()
}
func (Unsupported) EntityChamfer(_ context.Context, _, _ string, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) LayerList(context.Context) Result { return NotSupported() }
func (Unsupported) LayerCreate(_ context.Context, _ string, _ any, _ string) Result {
	return NotSupported()
}
func (Unsupported) LayerSetCurrent(_ context.Context, _ string) Result {
	return NotSupported()
}
func (Unsupported) LayerSetProperties(_ context.Context, _ string, _ any, _, _ string) Result {
	return NotSupported()
}
func (Unsupported) LayerFreeze(_ context.Context, _ string) Result { return NotSupported() }
func (Unsupported) LayerThaw(_ context.Context, _ string) Result   { return NotSupported() }
func (Unsupported) LayerLock(_ context.Context, _ string) Result   { return NotSupported() }
func (Unsupported) LayerUnlock(_ context.Context, _ string) Result { return NotSupported() }
func (Unsupported) BlockList(context.Context) Result               { return NotSupported() }
func (Unsupported) BlockInsert(_ context.Context, _ string, _, _, _, _ float64, _ string) Result {
	return NotSupported()
}
func (Unsupported) BlockInsertWithAttributes(_ context.Context, _ string, _, _, _, _ float64, _ map[string]string) Result {
	return NotSupported()
}
func (Unsupported) BlockGetAttributes(_ context.Context, _ string) Result {
	return NotSupported()
}
func (Unsupported) BlockUpdateAttribute(_ context.Context, _, _, _ string) Result {
	return NotSupported()
}
func (Unsupported) BlockDefine(_ context.Context, _ string, _ []map[string]any) Result {
	return NotSupported()
}
func (Unsupported) CreateDimensionLinear(_ context.Context, _, _, _, _, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) CreateDimensionAligned(_ context.Context, _, _, _, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) CreateDimensionAngular(_ context.Context, _, _, _, _, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) CreateDimensionRadius(_ context.Context, _, _, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) CreateLeader(_ context.Context, _ []Point, _ string) Result {
	return NotSupported()
}
func (Unsupported) PIDSetupLayers(context.Context) Result { return NotSupported() }
func (Unsupported) PIDInsertSymbol(_ context.Context, _, _ string, _, _, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) PIDListSymbols(_ context.Context, _ string) Result {
	return NotSupported()
}
func (Unsupported) PIDDrawProcessLine(_ context.Context, _, _, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) PIDConnectEquipment(_ context.Context, _, _, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) PIDAddFlowArrow(_ context.Context, _, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) PIDAddEquipmentTag(_ context.Context, _, _ float64, _, _ string) Result {
	return NotSupported()
}
func (Unsupported) PIDAddLineNumber(_ context.Context, _, _ float64, _, _ string) Result {
	return NotSupported()
}
func (Unsupported) PIDInsertValve(_ context.Context, _, _ float64, _ string, _ float64, _ map[string]string) Result {
	return NotSupported()
}
func (Unsupported) PIDInsertInstrument(_ context.Context, _, _ float64, _ string, _ float64, _, _ string) Result {
	return NotSupported()
}
func (Unsupported) PIDInsertPump(_ context.Context, _, _ float64, _ string, _ float64, _ map[string]string) Result {
	return NotSupported()
}
func (Unsupported) PIDInsertTank(_ context.Context, _, _ float64, _ string, _ float64, _ map[string]string) Result {
	return NotSupported()
}
func (Unsupported) ZoomExtents(context.Context) Result { return NotSupported() }
func (Unsupported) ZoomWindow(_ context.Context, _, _, _, _ float64) Result {
	return NotSupported()
}
func (Unsupported) Screenshot(context.Context) Result { return NotSupported() }
