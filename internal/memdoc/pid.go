package memdoc

import (
	"context"
	"math"

	"github.com/drafthaus/drawbridge/internal/cad"
)

// The standard P&ID layer set with ACI colors.
var pidLayers = []struct {
	name  string
	color int
}{
	{"PID-EQUIPMENT", 6},
	{"PID-PROCESS-PIPING", 4},
	{"PID-UTILITY-PIPING", 3},
	{"PID-INSTRUMENTS", 5},
	{"PID-ELECTRICAL", 1},
	{"PID-ANNOTATION", 7},
	{"PID-VALVES", 2},
}

func (b *Backend) PIDSetupLayers(ctx context.Context) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		for _, l := range pidLayers {
			if d.LayerNamed(l.name) == nil {
				d.AddLayer(l.name, l.color, "CONTINUOUS")
			}
		}
		return cad.OKResult(map[string]any{"layers_created": len(pidLayers)})
	})
}

// PIDListSymbols needs no document; it answers straight from the catalog.
func (b *Backend) PIDListSymbols(ctx context.Context, category string) cad.Result {
	symbols := b.library.Symbols(category)
	return cad.OKResult(map[string]any{
		"category": category,
		"symbols":  symbols,
		"count":    len(symbols),
	})
}

func pidText(d *Document, x, y float64, text string, height float64) *Entity {
	d.EnsureLayer("PID-ANNOTATION")
	return d.Add(&Entity{
		Type:   "TEXT",
		Layer:  "PID-ANNOTATION",
		Insert: cad.Point{x, y},
		Text:   text,
		Height: height,
	})
}

// PIDInsertSymbol stands in for the real block: a labeled square sized by
// scale. The symbol name is resolved through the catalog so display names
// and stems both work; unknown names are drawn as given.
func (b *Backend) PIDInsertSymbol(ctx context.Context, category, symbol string, x, y, scale, rotation float64) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		label := symbol
		if res, ok := b.library.Resolve(category, symbol); ok {
			label = res.Stem
		}
		d.EnsureLayer("PID-EQUIPMENT")
		half := 5 * scale
		e := d.Add(&Entity{
			Type:  "LWPOLYLINE",
			Layer: "PID-EQUIPMENT",
			Points: []cad.Point{
				{x - half, y - half}, {x + half, y - half},
				{x + half, y + half}, {x - half, y + half},
			},
			Closed: true,
		})
		pidText(d, x, y, label, 1.5*scale)
		return cad.OKResult(map[string]any{"symbol": label, "handle": e.ID})
	})
}

// PIDInsertValve draws the simplified diamond with the type label below.
func (b *Backend) PIDInsertValve(ctx context.Context, x, y float64, valveType string, rotation float64, attributes map[string]string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		d.EnsureLayer("PID-VALVES")
		size := 3.0
		e := d.Add(&Entity{
			Type:  "LWPOLYLINE",
			Layer: "PID-VALVES",
			Points: []cad.Point{
				{x - size, y}, {x, y + size}, {x + size, y}, {x, y - size},
			},
			Closed: true,
		})
		pidText(d, x, y-size-2, valveType, 1.5)
		return cad.OKResult(map[string]any{"valve_type": valveType, "handle": e.ID})
	})
}

// PIDInsertInstrument draws the ISA bubble: circle, crosshair line, and the
// tag (falling back to the instrument type) below.
func (b *Backend) PIDInsertInstrument(ctx context.Context, x, y float64, instrumentType string, rotation float64, tagID, rangeValue string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		d.EnsureLayer("PID-INSTRUMENTS")
		e := d.Add(&Entity{
			Type:   "CIRCLE",
			Layer:  "PID-INSTRUMENTS",
			Center: cad.Point{x, y},
			Radius: 4,
		})
		d.Add(&Entity{
			Type:   "LINE",
			Layer:  "PID-INSTRUMENTS",
			Points: []cad.Point{{x - 4, y}, {x + 4, y}},
		})
		label := tagID
		if label == "" {
			label = instrumentType
		}
		pidText(d, x, y-6, label, 1.5)
		return cad.OKResult(map[string]any{"instrument_type": instrumentType, "handle": e.ID})
	})
}

// PIDInsertPump draws a circle with a direction triangle at the rotation
// angle.
func (b *Backend) PIDInsertPump(ctx context.Context, x, y float64, pumpType string, rotation float64, attributes map[string]string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		d.EnsureLayer("PID-EQUIPMENT")
		e := d.Add(&Entity{
			Type:   "CIRCLE",
			Layer:  "PID-EQUIPMENT",
			Center: cad.Point{x, y},
			Radius: 6,
		})
		rad := rotation * math.Pi / 180
		d.Add(&Entity{
			Type:  "LWPOLYLINE",
			Layer: "PID-EQUIPMENT",
			Points: []cad.Point{
				{x + 6*math.Cos(rad+0.5), y + 6*math.Sin(rad+0.5)},
				{x + 8*math.Cos(rad), y + 8*math.Sin(rad)},
				{x + 6*math.Cos(rad-0.5), y + 6*math.Sin(rad-0.5)},
			},
			Closed: true,
		})
		pidText(d, x, y-8, pumpType, 1.5)
		return cad.OKResult(map[string]any{"pump_type": pumpType, "handle": e.ID})
	})
}

// PIDInsertTank draws the rectangle footprint with the label above.
func (b *Backend) PIDInsertTank(ctx context.Context, x, y float64, tankType string, scale float64, attributes map[string]string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		d.EnsureLayer("PID-EQUIPMENT")
		w := 10 * scale
		h := 15 * scale
		e := d.Add(&Entity{
			Type:  "LWPOLYLINE",
			Layer: "PID-EQUIPMENT",
			Points: []cad.Point{
				{x - w, y}, {x + w, y}, {x + w, y + h}, {x - w, y + h},
			},
			Closed: true,
		})
		pidText(d, x, y+h+2, tankType, 2.0*scale)
		return cad.OKResult(map[string]any{"tank_type": tankType, "handle": e.ID})
	})
}

func (b *Backend) PIDDrawProcessLine(ctx context.Context, x1, y1, x2, y2 float64) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		d.EnsureLayer("PID-PROCESS-PIPING")
		e := d.Add(&Entity{
			Type:   "LINE",
			Layer:  "PID-PROCESS-PIPING",
			Points: []cad.Point{{x1, y1}, {x2, y2}},
		})
		return cad.OKResult(map[string]any{"entity_type": "LINE", "handle": e.ID})
	})
}

// PIDConnectEquipment routes orthogonally through the horizontal midpoint.
func (b *Backend) PIDConnectEquipment(ctx context.Context, x1, y1, x2, y2 float64) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		d.EnsureLayer("PID-PROCESS-PIPING")
		midX := (x1 + x2) / 2
		e := d.Add(&Entity{
			Type:  "LWPOLYLINE",
			Layer: "PID-PROCESS-PIPING",
			Points: []cad.Point{
				{x1, y1}, {midX, y1}, {midX, y2}, {x2, y2},
			},
		})
		return cad.OKResult(map[string]any{"entity_type": "LWPOLYLINE", "handle": e.ID})
	})
}

// PIDAddFlowArrow places a small solid triangle pointing along rotation.
func (b *Backend) PIDAddFlowArrow(ctx context.Context, x, y, rotation float64) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		d.EnsureLayer("PID-ANNOTATION")
		rad := rotation * math.Pi / 180
		size := 2.0
		e := d.Add(&Entity{
			Type:  "LWPOLYLINE",
			Layer: "PID-ANNOTATION",
			Points: []cad.Point{
				{x + size*math.Cos(rad), y + size*math.Sin(rad)},
				{x + size*0.5*math.Cos(rad+2.4), y + size*0.5*math.Sin(rad+2.4)},
				{x + size*0.5*math.Cos(rad-2.4), y + size*0.5*math.Sin(rad-2.4)},
			},
			Closed: true,
		})
		return cad.OKResult(map[string]any{"entity_type": "LWPOLYLINE", "handle": e.ID})
	})
}

// PIDAddEquipmentTag writes the tag text, with an optional description line
// beneath it reported through description_handle.
func (b *Backend) PIDAddEquipmentTag(ctx context.Context, x, y float64, tag, description string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := pidText(d, x, y, tag, 2.5)
		payload := map[string]any{"entity_type": "TEXT", "handle": e.ID, "tag": tag}
		if description != "" {
			desc := pidText(d, x, y-3.5, description, 1.8)
			payload["description_handle"] = desc.ID
		}
		return cad.OKResult(payload)
	})
}

func (b *Backend) PIDAddLineNumber(ctx context.Context, x, y float64, lineNum, spec string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := pidText(d, x, y, lineNum+"-"+spec, 2.0)
		return cad.OKResult(map[string]any{"entity_type": "TEXT", "handle": e.ID})
	})
}
