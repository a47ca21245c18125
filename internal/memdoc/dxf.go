package memdoc

import (
	"math"
	"strconv"
	"strings"
)

// dxfWriter emits DXF group-code pairs, one code and one value per line.
type dxfWriter struct {
	b strings.Builder
}

func (w *dxfWriter) str(code int, value string) {
	w.b.WriteString(strconv.Itoa(code))
	w.b.WriteByte('\n')
	w.b.WriteString(value)
	w.b.WriteByte('\n')
}

func (w *dxfWriter) num(code int, v float64) {
	w.str(code, strconv.FormatFloat(v, 'f', -1, 64))
}

func (w *dxfWriter) inum(code, v int) {
	w.str(code, strconv.Itoa(v))
}

// encodeDXF serializes the document as ASCII DXF with HEADER, TABLES,
// BLOCKS and ENTITIES sections. Dimensions and leaders are decomposed into
// primitive records; hatches are written as their boundary polyline.
func encodeDXF(d *Document) []byte {
	w := &dxfWriter{}

	w.str(0, "SECTION")
	w.str(2, "HEADER")
	w.str(9, "$ACADVER")
	w.str(1, d.Header["$ACADVER"])
	w.str(9, "$CLAYER")
	w.str(8, d.CurrentLayer())
	if v := d.Header["$INSUNITS"]; v != "" {
		w.str(9, "$INSUNITS")
		w.str(70, v)
	}
	w.str(0, "ENDSEC")

	w.str(0, "SECTION")
	w.str(2, "TABLES")
	w.str(0, "TABLE")
	w.str(2, "LAYER")
	w.inum(70, len(d.Layers))
	for _, l := range d.Layers {
		w.str(0, "LAYER")
		w.str(2, l.Name)
		flags := 0
		if l.Frozen {
			flags |= 1
		}
		if l.Locked {
			flags |= 4
		}
		w.inum(70, flags)
		w.inum(62, l.Color)
		w.str(6, l.Linetype)
	}
	w.str(0, "ENDTAB")
	w.str(0, "ENDSEC")

	w.str(0, "SECTION")
	w.str(2, "BLOCKS")
	for _, blk := range d.Blocks {
		w.str(0, "BLOCK")
		w.str(8, "0")
		w.str(2, blk.Name)
		w.inum(70, 0)
		w.num(10, 0)
		w.num(20, 0)
		w.str(3, blk.Name)
		for _, e := range blk.Entities {
			writeEntity(w, e)
		}
		w.str(0, "ENDBLK")
	}
	w.str(0, "ENDSEC")

	w.str(0, "SECTION")
	w.str(2, "ENTITIES")
	for _, e := range d.Entities {
		writeEntity(w, e)
	}
	w.str(0, "ENDSEC")

	w.str(0, "EOF")
	return []byte(w.b.String())
}

func writeEntity(w *dxfWriter, e *Entity) {
	layer := e.Layer
	if layer == "" {
		layer = "0"
	}
	switch e.Type {
	case "LINE":
		if len(e.Points) != 2 {
			return
		}
		w.str(0, "LINE")
		w.str(8, layer)
		w.num(10, e.Points[0][0])
		w.num(20, e.Points[0][1])
		w.num(11, e.Points[1][0])
		w.num(21, e.Points[1][1])
	case "CIRCLE":
		w.str(0, "CIRCLE")
		w.str(8, layer)
		w.num(10, e.Center[0])
		w.num(20, e.Center[1])
		w.num(40, e.Radius)
	case "ARC":
		w.str(0, "ARC")
		w.str(8, layer)
		w.num(10, e.Center[0])
		w.num(20, e.Center[1])
		w.num(40, e.Radius)
		w.num(50, e.StartAngle)
		w.num(51, e.EndAngle)
	case "ELLIPSE":
		w.str(0, "ELLIPSE")
		w.str(8, layer)
		w.num(10, e.Center[0])
		w.num(20, e.Center[1])
		w.num(11, e.Major[0])
		w.num(21, e.Major[1])
		w.num(40, e.Ratio)
		w.num(41, 0)
		w.num(42, 2*math.Pi)
	case "LWPOLYLINE", "LEADER", "HATCH":
		if len(e.Points) == 0 {
			return
		}
		w.str(0, "LWPOLYLINE")
		w.str(8, layer)
		w.inum(90, len(e.Points))
		flags := 0
		if e.Closed {
			flags = 1
		}
		w.inum(70, flags)
		for _, p := range e.Points {
			w.num(10, p[0])
			w.num(20, p[1])
		}
	case "TEXT":
		w.str(0, "TEXT")
		w.str(8, layer)
		w.num(10, e.Insert[0])
		w.num(20, e.Insert[1])
		w.num(40, e.Height)
		w.str(1, e.Text)
		w.num(50, e.Rotation)
	case "MTEXT":
		w.str(0, "MTEXT")
		w.str(8, layer)
		w.num(10, e.Insert[0])
		w.num(20, e.Insert[1])
		w.num(40, e.Height)
		w.num(41, e.Width)
		w.str(1, e.Text)
	case "INSERT":
		scale := e.Scale
		if scale == 0 {
			scale = 1
		}
		w.str(0, "INSERT")
		w.str(8, layer)
		w.str(2, e.Block)
		w.num(10, e.Insert[0])
		w.num(20, e.Insert[1])
		w.num(41, scale)
		w.num(42, scale)
		w.num(43, scale)
		w.num(50, e.Rotation)
	case "ATTDEF":
		w.str(0, "ATTDEF")
		w.str(8, layer)
		w.num(10, e.Insert[0])
		w.num(20, e.Insert[1])
		w.num(40, e.Height)
		w.str(1, "")
		w.str(3, "")
		w.str(2, e.Tag)
		w.inum(70, 0)
	case "DIMENSION":
		for _, p := range dimPrimitives(e) {
			writeEntity(w, p)
		}
	}
}
