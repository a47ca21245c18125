package memdoc

import (
	"math"
	"strings"

	"github.com/fogleman/gg"

	"github.com/drafthaus/drawbridge/internal/cad"
	"github.com/drafthaus/drawbridge/internal/screenshot"
)

const (
	frameWidth  = 1200
	frameHeight = 900
	frameMargin = 40.0
)

// viewport maps drawing coordinates to pixels: fit with margin, centered,
// drawing Y up flipped to image Y down.
type viewport struct {
	minX, minY float64
	scale      float64
	offX, offY float64
}

func (v viewport) x(x float64) float64 {
	return v.offX + (x-v.minX)*v.scale
}

func (v viewport) y(y float64) float64 {
	return frameHeight - (v.offY + (y-v.minY)*v.scale)
}

func fitViewport(d *Document, hidden map[string]bool) viewport {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	add := func(x, y float64) {
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	for _, e := range d.Entities {
		if hidden[strings.ToUpper(e.Layer)] {
			continue
		}
		boundsOf(d, e, add)
	}
	if minX > maxX {
		minX, minY, maxX, maxY = 0, 0, 100, 100
	}
	spanX, spanY := maxX-minX, maxY-minY
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}
	s := math.Min((frameWidth-2*frameMargin)/spanX, (frameHeight-2*frameMargin)/spanY)
	return viewport{
		minX: minX, minY: minY, scale: s,
		offX: (frameWidth - s*spanX) / 2,
		offY: (frameHeight - s*spanY) / 2,
	}
}

func boundsOf(d *Document, e *Entity, add func(x, y float64)) {
	switch e.Type {
	case "LINE", "LWPOLYLINE", "LEADER", "HATCH":
		for _, p := range e.Points {
			add(p[0], p[1])
		}
	case "CIRCLE", "ARC":
		add(e.Center[0]-e.Radius, e.Center[1]-e.Radius)
		add(e.Center[0]+e.Radius, e.Center[1]+e.Radius)
	case "ELLIPSE":
		m := math.Hypot(e.Major[0], e.Major[1])
		add(e.Center[0]-m, e.Center[1]-m)
		add(e.Center[0]+m, e.Center[1]+m)
	case "TEXT", "MTEXT":
		add(e.Insert[0], e.Insert[1])
	case "INSERT":
		scale := e.Scale
		if scale == 0 {
			scale = 1
		}
		ext := 0.0
		if blk := d.BlockNamed(e.Block); blk != nil {
			for _, be := range blk.Entities {
				for _, p := range be.Points {
					ext = math.Max(ext, math.Hypot(p[0], p[1]))
				}
				switch be.Type {
				case "CIRCLE":
					ext = math.Max(ext, math.Hypot(be.Center[0], be.Center[1])+be.Radius)
				case "ATTDEF":
					ext = math.Max(ext, math.Hypot(be.Insert[0], be.Insert[1]))
				}
			}
		}
		ext *= scale
		add(e.Insert[0]-ext, e.Insert[1]-ext)
		add(e.Insert[0]+ext, e.Insert[1]+ext)
	case "DIMENSION":
		for _, p := range dimPrimitives(e) {
			boundsOf(d, p, add)
		}
	}
}

// renderPNG draws a wireframe of the document fitted to a fixed frame and
// returns it base64-encoded. Entities on frozen layers are omitted.
func renderPNG(d *Document) (string, error) {
	dc := gg.NewContext(frameWidth, frameHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0.1, 0.1, 0.1)
	dc.SetLineWidth(1)

	frozen := map[string]bool{}
	for _, l := range d.Layers {
		if l.Frozen {
			frozen[strings.ToUpper(l.Name)] = true
		}
	}
	v := fitViewport(d, frozen)
	for _, e := range d.Entities {
		if frozen[strings.ToUpper(e.Layer)] {
			continue
		}
		drawEntity(dc, d, v, e)
	}
	return screenshot.EncodeBase64PNG(dc.Image())
}

func drawEntity(dc *gg.Context, d *Document, v viewport, e *Entity) {
	switch e.Type {
	case "LINE":
		if len(e.Points) == 2 {
			dc.DrawLine(
				v.x(e.Points[0][0]), v.y(e.Points[0][1]),
				v.x(e.Points[1][0]), v.y(e.Points[1][1]))
			dc.Stroke()
		}
	case "LWPOLYLINE", "LEADER":
		if len(e.Points) < 2 {
			return
		}
		pathPoints(dc, v, e.Points)
		if e.Closed {
			dc.ClosePath()
		}
		dc.Stroke()
	case "HATCH":
		if len(e.Points) < 3 {
			return
		}
		pathPoints(dc, v, e.Points)
		dc.ClosePath()
		dc.SetRGB(0.85, 0.85, 0.85)
		dc.FillPreserve()
		dc.SetRGB(0.1, 0.1, 0.1)
		dc.Stroke()
	case "CIRCLE":
		dc.DrawCircle(v.x(e.Center[0]), v.y(e.Center[1]), e.Radius*v.scale)
		dc.Stroke()
	case "ARC":
		start, end := e.StartAngle, e.EndAngle
		if end <= start {
			end += 360
		}
		// Y is flipped, so drawing angles negate.
		dc.DrawArc(
			v.x(e.Center[0]), v.y(e.Center[1]), e.Radius*v.scale,
			-start*math.Pi/180, -end*math.Pi/180)
		dc.Stroke()
	case "ELLIPSE":
		mx, my := e.Major[0], e.Major[1]
		nx, ny := -my*e.Ratio, mx*e.Ratio
		for i := 0; i <= 72; i++ {
			t := float64(i) / 72 * 2 * math.Pi
			x := e.Center[0] + mx*math.Cos(t) + nx*math.Sin(t)
			y := e.Center[1] + my*math.Cos(t) + ny*math.Sin(t)
			if i == 0 {
				dc.MoveTo(v.x(x), v.y(y))
			} else {
				dc.LineTo(v.x(x), v.y(y))
			}
		}
		dc.Stroke()
	case "TEXT", "MTEXT":
		if e.Text != "" {
			dc.DrawString(e.Text, v.x(e.Insert[0]), v.y(e.Insert[1]))
		}
	case "INSERT":
		blk := d.BlockNamed(e.Block)
		if blk == nil {
			return
		}
		scale := e.Scale
		if scale == 0 {
			scale = 1
		}
		m := translate(e.Insert[0], e.Insert[1]).
			mul(rotateAbout(0, 0, e.Rotation)).
			mul(scaleAbout(0, 0, scale))
		for _, be := range blk.Entities {
			c := be.clone()
			if c.Type == "ATTDEF" {
				c.Type = "TEXT"
				c.Text = e.Attribs[c.Tag]
				if c.Text == "" {
					c.Text = c.Tag
				}
			}
			c.transform(m)
			drawEntity(dc, d, v, c)
		}
	case "DIMENSION":
		for _, p := range dimPrimitives(e) {
			drawEntity(dc, d, v, p)
		}
	}
}

func pathPoints(dc *gg.Context, v viewport, pts []cad.Point) {
	for i, p := range pts {
		if i == 0 {
			dc.MoveTo(v.x(p[0]), v.y(p[1]))
		} else {
			dc.LineTo(v.x(p[0]), v.y(p[1]))
		}
	}
}
