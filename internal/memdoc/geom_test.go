package memdoc

import (
	"math"
	"testing"

	"github.com/drafthaus/drawbridge/internal/cad"
)

func almostEqual(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRotateAbout(t *testing.T) {
	m := rotateAbout(0, 0, 90)
	p := m.apply(cad.Point{10, 0})
	almostEqual(t, p[0], 0)
	almostEqual(t, p[1], 10)

	// Rotating about the point itself is a no-op for that point.
	m = rotateAbout(3, 4, 137)
	p = m.apply(cad.Point{3, 4})
	almostEqual(t, p[0], 3)
	almostEqual(t, p[1], 4)
}

func TestScaleAbout(t *testing.T) {
	m := scaleAbout(10, 10, 2)
	p := m.apply(cad.Point{15, 10})
	almostEqual(t, p[0], 20)
	almostEqual(t, p[1], 10)
	almostEqual(t, m.scale(), 2)
	if m.det() <= 0 {
		t.Errorf("det = %v, want positive", m.det())
	}
}

func TestMirrorAcross(t *testing.T) {
	// Across the line y=x the coordinates swap.
	m := mirrorAcross(0, 0, 1, 1)
	p := m.apply(cad.Point{3, 0})
	almostEqual(t, p[0], 0)
	almostEqual(t, p[1], 3)

	if m.det() >= 0 {
		t.Errorf("det = %v, want negative for a reflection", m.det())
	}
	almostEqual(t, m.scale(), 1)

	// Across a vertical line x=5.
	m = mirrorAcross(5, 0, 5, 1)
	p = m.apply(cad.Point{7, 2})
	almostEqual(t, p[0], 3)
	almostEqual(t, p[1], 2)
}

func TestMatrixCompose(t *testing.T) {
	m := translate(1, 2).mul(rotateAbout(0, 0, 90))
	// Rotate first, then translate.
	p := m.apply(cad.Point{10, 0})
	almostEqual(t, p[0], 1)
	almostEqual(t, p[1], 12)
}

func TestMapAngle_Reflection(t *testing.T) {
	m := mirrorAcross(-1, 0, 1, 0) // x axis
	almostEqual(t, m.mapAngle(90), 270)
	almostEqual(t, m.mapAngle(0), 0)
}

func TestDimPrimitives_Linear(t *testing.T) {
	e := &Entity{
		Type:   "DIMENSION",
		Dim:    "linear",
		Layer:  "0",
		Points: []cad.Point{{0, 0}, {10, 0}, {5, 5}},
	}
	prims := dimPrimitives(e)
	lines, texts := 0, 0
	var label string
	for _, p := range prims {
		switch p.Type {
		case "LINE":
			lines++
		case "TEXT":
			texts++
			label = p.Text
		}
	}
	if lines != 3 || texts != 1 {
		t.Fatalf("got %d lines and %d texts, want 3 and 1", lines, texts)
	}
	if label != "10.0000" {
		t.Errorf("label = %q, want 10.0000", label)
	}
}

func TestDimPrimitives_Angular(t *testing.T) {
	e := &Entity{
		Type:   "DIMENSION",
		Dim:    "angular",
		Layer:  "0",
		Center: cad.Point{0, 0},
		Points: []cad.Point{{10, 0}, {0, 10}},
	}
	prims := dimPrimitives(e)
	var arc, text *Entity
	for _, p := range prims {
		switch p.Type {
		case "ARC":
			arc = p
		case "TEXT":
			text = p
		}
	}
	if arc == nil || text == nil {
		t.Fatalf("want an arc and a text, got %d primitives", len(prims))
	}
	almostEqual(t, arc.Radius, 7)
	almostEqual(t, arc.StartAngle, 0)
	almostEqual(t, arc.EndAngle, 90)
	if text.Text != "90.0" {
		t.Errorf("label = %q, want 90.0", text.Text)
	}
}

func TestDimPrimitives_Radius(t *testing.T) {
	e := &Entity{
		Type:       "DIMENSION",
		Dim:        "radius",
		Layer:      "0",
		Center:     cad.Point{0, 0},
		Radius:     5,
		StartAngle: 0,
	}
	prims := dimPrimitives(e)
	if len(prims) != 2 {
		t.Fatalf("got %d primitives, want 2", len(prims))
	}
	var label string
	for _, p := range prims {
		if p.Type == "TEXT" {
			label = p.Text
		}
	}
	if label != "R5.0000" {
		t.Errorf("label = %q, want R5.0000", label)
	}
}

func TestEntityTransform_ArcOrientation(t *testing.T) {
	e := &Entity{Type: "ARC", Center: cad.Point{0, 0}, Radius: 5, StartAngle: 0, EndAngle: 90}
	e.transform(rotateAbout(0, 0, 45))
	almostEqual(t, e.StartAngle, 45)
	almostEqual(t, e.EndAngle, 135)

	// A reflection reverses orientation, so the endpoints swap.
	e = &Entity{Type: "ARC", Center: cad.Point{0, 0}, Radius: 5, StartAngle: 0, EndAngle: 90}
	e.transform(mirrorAcross(-1, 0, 1, 0))
	almostEqual(t, e.StartAngle, 270)
	if math.Abs(e.EndAngle) > 1e-9 && math.Abs(e.EndAngle-360) > 1e-9 {
		t.Errorf("end angle = %v, want 0 or 360", e.EndAngle)
	}
}

func TestEntityTransform_ScalesScalars(t *testing.T) {
	e := &Entity{Type: "TEXT", Insert: cad.Point{1, 1}, Height: 2.5, Rotation: 0}
	e.transform(scaleAbout(0, 0, 3))
	almostEqual(t, e.Height, 7.5)
	almostEqual(t, e.Insert[0], 3)

	c := &Entity{Type: "CIRCLE", Center: cad.Point{2, 0}, Radius: 1}
	c.transform(scaleAbout(0, 0, 0.5))
	almostEqual(t, c.Radius, 0.5)
	almostEqual(t, c.Center[0], 1)
}

func TestColorToInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{3, 3},
		{int64(5), 5},
		{2.0, 2},
		{"red", 1},
		{"Cyan", 4},
		{"grey", 8},
		{"gray", 8},
		{"chartreuse", 7},
		{nil, 7},
	}
	for _, tt := range tests {
		if got := colorToInt(tt.in); got != tt.want {
			t.Errorf("colorToInt(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
