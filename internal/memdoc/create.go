package memdoc

import (
	"context"
	"fmt"

	"github.com/drafthaus/drawbridge/internal/cad"
)

func created(e *Entity) cad.Result {
	return cad.OKResult(map[string]any{"entity_type": e.Type, "handle": e.ID})
}

func (b *Backend) CreateLine(ctx context.Context, x1, y1, x2, y2 float64, layer string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Add(&Entity{
			Type:   "LINE",
			Layer:  d.placementLayer(layer),
			Points: []cad.Point{{x1, y1}, {x2, y2}},
		})
		return created(e)
	})
}

func (b *Backend) CreateCircle(ctx context.Context, cx, cy, radius float64, layer string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Add(&Entity{
			Type:   "CIRCLE",
			Layer:  d.placementLayer(layer),
			Center: cad.Point{cx, cy},
			Radius: radius,
		})
		return created(e)
	})
}

func (b *Backend) CreatePolyline(ctx context.Context, points []cad.Point, closed bool, layer string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Add(&Entity{
			Type:   "LWPOLYLINE",
			Layer:  d.placementLayer(layer),
			Points: append([]cad.Point(nil), points...),
			Closed: closed,
		})
		return created(e)
	})
}

// CreateRectangle is a closed polyline over the four corners.
func (b *Backend) CreateRectangle(ctx context.Context, x1, y1, x2, y2 float64, layer string) cad.Result {
	pts := []cad.Point{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}}
	return b.CreatePolyline(ctx, pts, true, layer)
}

func (b *Backend) CreateArc(ctx context.Context, cx, cy, radius, startAngle, endAngle float64, layer string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Add(&Entity{
			Type:       "ARC",
			Layer:      d.placementLayer(layer),
			Center:     cad.Point{cx, cy},
			Radius:     radius,
			StartAngle: startAngle,
			EndAngle:   endAngle,
		})
		return created(e)
	})
}

// CreateEllipse takes the major axis endpoint in absolute coordinates and
// stores it as a vector relative to the center.
func (b *Backend) CreateEllipse(ctx context.Context, cx, cy, majorX, majorY, ratio float64, layer string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Add(&Entity{
			Type:   "ELLIPSE",
			Layer:  d.placementLayer(layer),
			Center: cad.Point{cx, cy},
			Major:  cad.Point{majorX - cx, majorY - cy},
			Ratio:  ratio,
		})
		return created(e)
	})
}

func (b *Backend) CreateText(ctx context.Context, x, y float64, text string, height, rotation float64, layer string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Add(&Entity{
			Type:     "TEXT",
			Layer:    d.placementLayer(layer),
			Insert:   cad.Point{x, y},
			Text:     text,
			Height:   height,
			Rotation: rotation,
		})
		return created(e)
	})
}

func (b *Backend) CreateMText(ctx context.Context, x, y, width float64, text string, height float64, layer string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		e := d.Add(&Entity{
			Type:   "MTEXT",
			Layer:  d.placementLayer(layer),
			Insert: cad.Point{x, y},
			Text:   text,
			Height: height,
			Width:  width,
		})
		return created(e)
	})
}

// CreateHatch fills the boundary of an existing closed polyline. The
// boundary points are copied, so later edits to the source entity do not
// move the hatch.
func (b *Backend) CreateHatch(ctx context.Context, entityID, pattern string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		src := d.Entity(entityID)
		if src == nil {
			return entityNotFound(entityID)
		}
		if src.Type != "LWPOLYLINE" || len(src.Points) == 0 {
			return cad.FailResult(fmt.Sprintf("Entity %s cannot be used as a hatch boundary", entityID))
		}
		if pattern == "" {
			pattern = "ANSI31"
		}
		e := d.Add(&Entity{
			Type:    "HATCH",
			Layer:   src.Layer,
			Points:  append([]cad.Point(nil), src.Points...),
			Closed:  true,
			Pattern: pattern,
		})
		return created(e)
	})
}

func (b *Backend) CreateDimensionLinear(ctx context.Context, x1, y1, x2, y2, dimX, dimY float64) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		d.Add(&Entity{
			Type:   "DIMENSION",
			Dim:    "linear",
			Layer:  d.placementLayer(""),
			Points: []cad.Point{{x1, y1}, {x2, y2}, {dimX, dimY}},
		})
		return cad.OKResult(map[string]any{"entity_type": "DIMENSION"})
	})
}

func (b *Backend) CreateDimensionAligned(ctx context.Context, x1, y1, x2, y2, offset float64) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		d.Add(&Entity{
			Type:   "DIMENSION",
			Dim:    "aligned",
			Layer:  d.placementLayer(""),
			Points: []cad.Point{{x1, y1}, {x2, y2}},
			Offset: offset,
		})
		return cad.OKResult(map[string]any{"entity_type": "DIMENSION"})
	})
}

func (b *Backend) CreateDimensionAngular(ctx context.Context, cx, cy, x1, y1, x2, y2 float64) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		d.Add(&Entity{
			Type:   "DIMENSION",
			Dim:    "angular",
			Layer:  d.placementLayer(""),
			Center: cad.Point{cx, cy},
			Points: []cad.Point{{x1, y1}, {x2, y2}},
		})
		return cad.OKResult(map[string]any{"entity_type": "DIMENSION"})
	})
}

// CreateDimensionRadius places the measurement at the given angle on the
// circle, in degrees.
func (b *Backend) CreateDimensionRadius(ctx context.Context, cx, cy, radius, angle float64) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		d.Add(&Entity{
			Type:       "DIMENSION",
			Dim:        "radius",
			Layer:      d.placementLayer(""),
			Center:     cad.Point{cx, cy},
			Radius:     radius,
			StartAngle: angle,
		})
		return cad.OKResult(map[string]any{"entity_type": "DIMENSION"})
	})
}

// CreateLeader draws the leader polyline and places the note text as a
// separate MTEXT just past the last point.
func (b *Backend) CreateLeader(ctx context.Context, points []cad.Point, text string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		if len(points) == 0 {
			return cad.FailResult("Leader needs at least one point")
		}
		layer := d.placementLayer("")
		d.Add(&Entity{
			Type:   "LEADER",
			Layer:  layer,
			Points: append([]cad.Point(nil), points...),
		})
		last := points[len(points)-1]
		d.Add(&Entity{
			Type:   "MTEXT",
			Layer:  layer,
			Insert: cad.Point{last[0] + 2, last[1]},
			Text:   text,
			Height: 2.5,
			Width:  30,
		})
		return cad.OKResult(map[string]any{"entity_type": "LEADER"})
	})
}
