package memdoc

import (
	"context"
	"fmt"
	"strings"

	"github.com/drafthaus/drawbridge/internal/cad"
)

func layerMissing(name string) cad.Result {
	return cad.FailResult(fmt.Sprintf("Layer '%s' does not exist", name))
}

func (b *Backend) LayerList(ctx context.Context) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		layers := make([]map[string]any, 0, len(d.Layers))
		for _, l := range d.Layers {
			layers = append(layers, map[string]any{
				"name":      l.Name,
				"color":     l.Color,
				"linetype":  l.Linetype,
				"is_frozen": l.Frozen,
				"is_locked": l.Locked,
			})
		}
		return cad.OKResult(map[string]any{"layers": layers})
	})
}

// LayerCreate accepts an ACI number or color name; creating an existing
// layer is a no-op reported through the existed flag.
func (b *Backend) LayerCreate(ctx context.Context, name string, color any, linetype string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		if d.LayerNamed(name) != nil {
			return cad.OKResult(map[string]any{"name": name, "existed": true})
		}
		ci := colorToInt(color)
		if linetype == "" {
			linetype = "CONTINUOUS"
		}
		d.AddLayer(name, ci, linetype)
		return cad.OKResult(map[string]any{"name": name, "color": ci})
	})
}

func (b *Backend) LayerSetCurrent(ctx context.Context, name string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		l := d.LayerNamed(name)
		if l == nil {
			return layerMissing(name)
		}
		d.Header["$CLAYER"] = l.Name
		return cad.OKResult(map[string]any{"current_layer": l.Name})
	})
}

// LayerSetProperties updates color and linetype when given. Lineweight is
// accepted for wire compatibility but not modeled.
func (b *Backend) LayerSetProperties(ctx context.Context, name string, color any, linetype, lineweight string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		l := d.LayerNamed(name)
		if l == nil {
			return layerMissing(name)
		}
		if color != nil {
			l.Color = colorToInt(color)
		}
		if linetype != "" {
			l.Linetype = linetype
		}
		return cad.OKResult(map[string]any{"name": name})
	})
}

func (b *Backend) LayerFreeze(ctx context.Context, name string) cad.Result {
	return b.setLayerFlag(name, "frozen", true)
}

func (b *Backend) LayerThaw(ctx context.Context, name string) cad.Result {
	return b.setLayerFlag(name, "frozen", false)
}

func (b *Backend) LayerLock(ctx context.Context, name string) cad.Result {
	return b.setLayerFlag(name, "locked", true)
}

func (b *Backend) LayerUnlock(ctx context.Context, name string) cad.Result {
	return b.setLayerFlag(name, "locked", false)
}

func (b *Backend) setLayerFlag(name, flag string, value bool) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		l := d.LayerNamed(name)
		if l == nil {
			return layerMissing(name)
		}
		if flag == "frozen" {
			l.Frozen = value
		} else {
			l.Locked = value
		}
		return cad.OKResult(map[string]any{"name": name, flag: value})
	})
}

func (b *Backend) BlockList(ctx context.Context) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		blocks := make([]string, 0, len(d.Blocks))
		for _, blk := range d.Blocks {
			blocks = append(blocks, blk.Name)
		}
		return cad.OKResult(map[string]any{"blocks": blocks})
	})
}

// BlockDefine registers a block from simple entity descriptions: LINE
// (x1,y1,x2,y2), CIRCLE (cx,cy,radius) and ATTDEF (tag,x,y,height).
// Unknown description types are skipped.
func (b *Backend) BlockDefine(ctx context.Context, name string, entities []map[string]any) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		if d.BlockNamed(name) != nil {
			return cad.FailResult(fmt.Sprintf("Block '%s' already defined", name))
		}
		blk := &Block{Name: name}
		for _, def := range entities {
			switch defStr(def, "type", "LINE") {
			case "LINE":
				blk.Entities = append(blk.Entities, &Entity{
					Type: "LINE",
					Points: []cad.Point{
						{defNum(def, "x1", 0), defNum(def, "y1", 0)},
						{defNum(def, "x2", 0), defNum(def, "y2", 0)},
					},
				})
			case "CIRCLE":
				blk.Entities = append(blk.Entities, &Entity{
					Type:   "CIRCLE",
					Center: cad.Point{defNum(def, "cx", 0), defNum(def, "cy", 0)},
					Radius: defNum(def, "radius", 1),
				})
			case "ATTDEF":
				blk.Entities = append(blk.Entities, &Entity{
					Type:   "ATTDEF",
					Tag:    defStr(def, "tag", "TAG"),
					Insert: cad.Point{defNum(def, "x", 0), defNum(def, "y", 0)},
					Height: defNum(def, "height", 2.5),
				})
			}
		}
		d.AddBlock(blk)
		return cad.OKResult(map[string]any{"block": name, "entity_count": len(entities)})
	})
}

func (b *Backend) BlockInsert(ctx context.Context, name string, x, y, scale, rotation float64, blockID string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		blk := d.BlockNamed(name)
		if blk == nil {
			return cad.FailResult(fmt.Sprintf("Block '%s' not defined", name))
		}
		attribs := map[string]string{}
		if blockID != "" {
			attribs["ID"] = blockID
		}
		e := d.Add(&Entity{
			Type:     "INSERT",
			Layer:    d.placementLayer(""),
			Block:    blk.Name,
			Insert:   cad.Point{x, y},
			Scale:    scale,
			Rotation: rotation,
			Attribs:  attribs,
		})
		return created(e)
	})
}

func (b *Backend) BlockInsertWithAttributes(ctx context.Context, name string, x, y, scale, rotation float64, attributes map[string]string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		blk := d.BlockNamed(name)
		if blk == nil {
			return cad.FailResult(fmt.Sprintf("Block '%s' not defined", name))
		}
		attribs := make(map[string]string, len(attributes))
		for k, v := range attributes {
			attribs[k] = v
		}
		e := d.Add(&Entity{
			Type:     "INSERT",
			Layer:    d.placementLayer(""),
			Block:    blk.Name,
			Insert:   cad.Point{x, y},
			Scale:    scale,
			Rotation: rotation,
			Attribs:  attribs,
		})
		return created(e)
	})
}

func (b *Backend) BlockGetAttributes(ctx context.Context, entityID string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Entity(entityID)
		if e == nil || e.Type != "INSERT" {
			return cad.FailResult("Not an INSERT entity")
		}
		attribs := map[string]string{}
		for k, v := range e.Attribs {
			attribs[k] = v
		}
		return cad.OKResult(map[string]any{"attributes": attribs})
	})
}

// BlockUpdateAttribute matches the tag case-insensitively and keeps the
// stored spelling.
func (b *Backend) BlockUpdateAttribute(ctx context.Context, entityID, tag, value string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Entity(entityID)
		if e == nil || e.Type != "INSERT" {
			return cad.FailResult("Not an INSERT entity")
		}
		for k := range e.Attribs {
			if strings.EqualFold(k, tag) {
				e.Attribs[k] = value
				return cad.OKResult(map[string]any{"tag": tag, "value": value})
			}
		}
		return cad.FailResult(fmt.Sprintf("Attribute '%s' not found", tag))
	})
}

func defNum(def map[string]any, key string, fallback float64) float64 {
	switch v := def[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func defStr(def map[string]any, key, fallback string) string {
	if v, ok := def[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}
