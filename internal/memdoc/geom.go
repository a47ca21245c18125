package memdoc

import (
	"fmt"
	"math"

	"github.com/drafthaus/drawbridge/internal/cad"
)

// matrix is a 2D affine transform:
//
//	| a b tx |
//	| c d ty |
type matrix struct {
	a, b, c, d, tx, ty float64
}

func translate(dx, dy float64) matrix {
	return matrix{a: 1, d: 1, tx: dx, ty: dy}
}

// mul composes transforms: (m.mul(n)).apply(p) == m.apply(n.apply(p)).
func (m matrix) mul(n matrix) matrix {
	return matrix{
		a:  m.a*n.a + m.b*n.c,
		b:  m.a*n.b + m.b*n.d,
		c:  m.c*n.a + m.d*n.c,
		d:  m.c*n.b + m.d*n.d,
		tx: m.a*n.tx + m.b*n.ty + m.tx,
		ty: m.c*n.tx + m.d*n.ty + m.ty,
	}
}

func (m matrix) apply(p cad.Point) cad.Point {
	return cad.Point{
		m.a*p[0] + m.b*p[1] + m.tx,
		m.c*p[0] + m.d*p[1] + m.ty,
	}
}

// applyVec transforms a direction vector, ignoring translation.
func (m matrix) applyVec(p cad.Point) cad.Point {
	return cad.Point{m.a*p[0] + m.b*p[1], m.c*p[0] + m.d*p[1]}
}

func (m matrix) det() float64 {
	return m.a*m.d - m.b*m.c
}

// scale is the uniform scale factor carried by the transform. All transforms
// built here are conformal, so sqrt(|det|) is exact.
func (m matrix) scale() float64 {
	return math.Sqrt(math.Abs(m.det()))
}

// mapAngle transforms a direction given in degrees and returns the resulting
// direction normalized to [0, 360).
func (m matrix) mapAngle(deg float64) float64 {
	rad := deg * math.Pi / 180
	v := m.applyVec(cad.Point{math.Cos(rad), math.Sin(rad)})
	out := math.Atan2(v[1], v[0]) * 180 / math.Pi
	out = math.Mod(out, 360)
	if out < 0 {
		out += 360
	}
	return out
}

// rotateAbout rotates by degrees counterclockwise around (cx, cy).
func rotateAbout(cx, cy, degrees float64) matrix {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	rot := matrix{a: cos, b: -sin, c: sin, d: cos}
	return translate(cx, cy).mul(rot).mul(translate(-cx, -cy))
}

// scaleAbout scales uniformly by factor around (cx, cy).
func scaleAbout(cx, cy, factor float64) matrix {
	sc := matrix{a: factor, d: factor}
	return translate(cx, cy).mul(sc).mul(translate(-cx, -cy))
}

// mirrorAcross reflects across the line through (x1,y1) and (x2,y2). The
// reflection through the origin with line direction angle a is
//
//	| cos2a  sin2a |
//	| sin2a -cos2a |
//
// conjugated by the translation to the line's base point. The line must have
// nonzero length; callers validate.
func mirrorAcross(x1, y1, x2, y2 float64) matrix {
	a := math.Atan2(y2-y1, x2-x1)
	cos2a, sin2a := math.Cos(2*a), math.Sin(2*a)
	ref := matrix{a: cos2a, b: sin2a, c: sin2a, d: -cos2a}
	return translate(x1, y1).mul(ref).mul(translate(-x1, -y1))
}

// transform applies m to the entity in place. Scalar fields scale by the
// uniform factor; angle fields follow the transformed directions, and arcs
// swap endpoints under orientation-flipping transforms to stay
// counterclockwise.
func (e *Entity) transform(m matrix) {
	for i := range e.Points {
		e.Points[i] = m.apply(e.Points[i])
	}
	e.Center = m.apply(e.Center)
	e.Insert = m.apply(e.Insert)
	e.Major = m.applyVec(e.Major)

	s := m.scale()
	e.Radius *= s
	e.Height *= s
	e.Width *= s
	e.Scale *= s
	e.Offset *= s

	switch e.Type {
	case "ARC":
		start, end := m.mapAngle(e.StartAngle), m.mapAngle(e.EndAngle)
		if m.det() < 0 {
			start, end = end, start
		}
		e.StartAngle, e.EndAngle = start, end
	case "TEXT", "MTEXT", "INSERT":
		e.Rotation = m.mapAngle(e.Rotation)
	case "DIMENSION":
		if e.Dim == "radius" {
			e.StartAngle = m.mapAngle(e.StartAngle)
		}
	}
}

func dimLine(layer string, a, b cad.Point) *Entity {
	return &Entity{Type: "LINE", Layer: layer, Points: []cad.Point{a, b}}
}

func dimText(layer string, at cad.Point, text string) *Entity {
	return &Entity{Type: "TEXT", Layer: layer, Insert: at, Text: text, Height: 2.5}
}

// dimPrimitives decomposes a dimension into the lines, arcs and text that
// depict it. Export and rendering share this; the primitives are transient
// and never registered in the document.
func dimPrimitives(e *Entity) []*Entity {
	switch e.Dim {
	case "linear":
		if len(e.Points) != 3 {
			return nil
		}
		p1, p2, base := e.Points[0], e.Points[1], e.Points[2]
		a := cad.Point{p1[0], base[1]}
		b := cad.Point{p2[0], base[1]}
		return []*Entity{
			dimLine(e.Layer, p1, a),
			dimLine(e.Layer, p2, b),
			dimLine(e.Layer, a, b),
			dimText(e.Layer,
				cad.Point{(p1[0] + p2[0]) / 2, base[1] + 1},
				fmt.Sprintf("%.4f", math.Abs(p2[0]-p1[0]))),
		}
	case "aligned":
		if len(e.Points) != 2 {
			return nil
		}
		p1, p2 := e.Points[0], e.Points[1]
		dx, dy := p2[0]-p1[0], p2[1]-p1[1]
		length := math.Hypot(dx, dy)
		if length == 0 {
			return []*Entity{dimText(e.Layer, p1, "0.0000")}
		}
		nx, ny := -dy/length*e.Offset, dx/length*e.Offset
		a := cad.Point{p1[0] + nx, p1[1] + ny}
		b := cad.Point{p2[0] + nx, p2[1] + ny}
		return []*Entity{
			dimLine(e.Layer, p1, a),
			dimLine(e.Layer, p2, b),
			dimLine(e.Layer, a, b),
			dimText(e.Layer,
				cad.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2},
				fmt.Sprintf("%.4f", length)),
		}
	case "angular":
		if len(e.Points) != 2 {
			return nil
		}
		c := e.Center
		p1, p2 := e.Points[0], e.Points[1]
		d1 := math.Hypot(p1[0]-c[0], p1[1]-c[1])
		d2 := math.Hypot(p2[0]-c[0], p2[1]-c[1])
		r := 0.7 * math.Max(d1, d2)
		if r == 0 {
			return nil
		}
		a1 := math.Atan2(p1[1]-c[1], p1[0]-c[0]) * 180 / math.Pi
		a2 := math.Atan2(p2[1]-c[1], p2[0]-c[0]) * 180 / math.Pi
		sweep := math.Mod(a2-a1, 360)
		if sweep <= 0 {
			sweep += 360
		}
		mid := (a1 + sweep/2) * math.Pi / 180
		return []*Entity{
			{Type: "ARC", Layer: e.Layer, Center: c, Radius: r, StartAngle: a1, EndAngle: a1 + sweep},
			dimText(e.Layer,
				cad.Point{c[0] + 1.2*r*math.Cos(mid), c[1] + 1.2*r*math.Sin(mid)},
				fmt.Sprintf("%.1f", sweep)),
		}
	case "radius":
		rad := e.StartAngle * math.Pi / 180
		p := cad.Point{
			e.Center[0] + e.Radius*math.Cos(rad),
			e.Center[1] + e.Radius*math.Sin(rad),
		}
		return []*Entity{
			dimLine(e.Layer, e.Center, p),
			dimText(e.Layer, p, fmt.Sprintf("R%.4f", e.Radius)),
		}
	}
	return nil
}
