package memdoc

import (
	"context"
	"fmt"
	"strings"

	"github.com/drafthaus/drawbridge/internal/cad"
)

func entityNotFound(id string) cad.Result {
	return cad.FailResult(fmt.Sprintf("Entity %s not found", id))
}

func (b *Backend) EntityList(ctx context.Context, layer string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		entities := make([]map[string]any, 0, len(d.Entities))
		for _, e := range d.Entities {
			if layer != "" && !strings.EqualFold(e.Layer, layer) {
				continue
			}
			entities = append(entities, map[string]any{
				"type":   e.Type,
				"handle": e.ID,
				"layer":  e.Layer,
			})
		}
		return cad.OKResult(map[string]any{"entities": entities, "count": len(entities)})
	})
}

func (b *Backend) EntityCount(ctx context.Context, layer string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		count := 0
		for _, e := range d.Entities {
			if layer == "" || strings.EqualFold(e.Layer, layer) {
				count++
			}
		}
		return cad.OKResult(map[string]any{"count": count})
	})
}

// EntityGet returns the common fields plus geometry details for lines and
// circles.
func (b *Backend) EntityGet(ctx context.Context, entityID string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Entity(entityID)
		if e == nil {
			return entityNotFound(entityID)
		}
		info := map[string]any{"type": e.Type, "handle": e.ID, "layer": e.Layer}
		switch e.Type {
		case "LINE":
			if len(e.Points) == 2 {
				info["start"] = []float64{e.Points[0][0], e.Points[0][1]}
				info["end"] = []float64{e.Points[1][0], e.Points[1][1]}
			}
		case "CIRCLE":
			info["center"] = []float64{e.Center[0], e.Center[1]}
			info["radius"] = e.Radius
		}
		return cad.OKResult(info)
	})
}

// EntityErase deletes by handle; the id "last" erases the most recently
// created entity.
func (b *Backend) EntityErase(ctx context.Context, entityID string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Entity(entityID)
		if e == nil && entityID == "last" {
			e = d.Last()
		}
		if e == nil {
			return entityNotFound(entityID)
		}
		d.Remove(e)
		return cad.OKResult(map[string]any{"erased": entityID})
	})
}

func (b *Backend) EntityCopy(ctx context.Context, entityID string, dx, dy float64) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Entity(entityID)
		if e == nil {
			return entityNotFound(entityID)
		}
		c := e.clone()
		c.ID = ""
		c.transform(translate(dx, dy))
		d.Add(c)
		return cad.OKResult(map[string]any{"handle": c.ID})
	})
}

func (b *Backend) EntityMove(ctx context.Context, entityID string, dx, dy float64) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Entity(entityID)
		if e == nil {
			return entityNotFound(entityID)
		}
		e.transform(translate(dx, dy))
		return cad.OKResult(map[string]any{"moved": entityID})
	})
}

func (b *Backend) EntityRotate(ctx context.Context, entityID string, cx, cy, angle float64) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Entity(entityID)
		if e == nil {
			return entityNotFound(entityID)
		}
		e.transform(rotateAbout(cx, cy, angle))
		return cad.OKResult(map[string]any{"rotated": entityID})
	})
}

func (b *Backend) EntityScale(ctx context.Context, entityID string, cx, cy, factor float64) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Entity(entityID)
		if e == nil {
			return entityNotFound(entityID)
		}
		e.transform(scaleAbout(cx, cy, factor))
		return cad.OKResult(map[string]any{"scaled": entityID})
	})
}

// EntityMirror reflects a copy of the entity across the given line and
// returns the copy's handle. The original stays in place.
func (b *Backend) EntityMirror(ctx context.Context, entityID string, x1, y1, x2, y2 float64) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Entity(entityID)
		if e == nil {
			return entityNotFound(entityID)
		}
		dx, dy := x2-x1, y2-y1
		if dx*dx+dy*dy == 0 {
			return cad.FailResult("Mirror line has zero length")
		}
		c := e.clone()
		c.ID = ""
		c.transform(mirrorAcross(x1, y1, x2, y2))
		d.Add(c)
		return cad.OKResult(map[string]any{"handle": c.ID})
	})
}

func (b *Backend) EntityOffset(ctx context.Context, entityID string, distance float64) cad.Result {
	return cad.FailResult("Offset not supported on memdoc backend")
}

// EntityArray clones the entity into a rows x cols grid, skipping the
// original cell.
func (b *Backend) EntityArray(ctx context.Context, entityID string, rows, cols int, rowDist, colDist float64) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Entity(entityID)
		if e == nil {
			return entityNotFound(entityID)
		}
		handles := []string{}
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if r == 0 && c == 0 {
					continue
				}
				cp := e.clone()
				cp.ID = ""
				cp.transform(translate(float64(c)*colDist, float64(r)*rowDist))
				d.Add(cp)
				handles = append(handles, cp.ID)
			}
		}
		return cad.OKResult(map[string]any{"copies": len(handles), "handles": handles})
	})
}

func (b *Backend) EntityFillet(ctx context.Context, id1, id2 string, radius float64) cad.Result {
	return cad.FailResult("Fillet not supported on memdoc backend")
}

func (b *Backend) EntityChamfer(ctx context.Context, id1, id2 string, dist1, dist2 float64) cad.Result {
	return cad.FailResult("Chamfer not supported on memdoc backend")
}
