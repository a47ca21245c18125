// Package memdoc implements the headless drawing backend: an in-memory
// document store that accepts the full verb surface without a running
// AutoCAD session. Geometry is held as simplified entities, transforms are
// real affine math, and the document can be exported as ASCII DXF or
// rendered to a wireframe screenshot.
package memdoc

import (
	"fmt"
	"strings"

	"github.com/drafthaus/drawbridge/internal/cad"
)

// Entity is one drawing object. A single struct with union fields keeps the
// model close to DXF group codes; only the fields for the entity's Type are
// meaningful.
type Entity struct {
	ID    string
	Type  string
	Layer string

	Points []cad.Point
	Closed bool

	Center     cad.Point
	Radius     float64
	StartAngle float64
	EndAngle   float64

	// Major is the ellipse major axis vector, relative to Center.
	Major cad.Point
	Ratio float64

	Insert   cad.Point
	Text     string
	Height   float64
	Width    float64
	Rotation float64

	Block   string
	Scale   float64
	Attribs map[string]string

	Pattern string
	// Dim distinguishes dimension kinds: linear, aligned, angular, radius.
	Dim    string
	Offset float64
	// Tag names an ATTDEF inside a block definition.
	Tag string
}

func (e *Entity) clone() *Entity {
	c := *e
	if e.Points != nil {
		c.Points = append([]cad.Point(nil), e.Points...)
	}
	if e.Attribs != nil {
		c.Attribs = make(map[string]string, len(e.Attribs))
		for k, v := range e.Attribs {
			c.Attribs[k] = v
		}
	}
	return &c
}

// Layer mirrors the DXF layer table record.
type Layer struct {
	Name     string
	Color    int
	Linetype string
	Frozen   bool
	Locked   bool
}

// Block is a reusable entity group referenced by INSERT entities.
type Block struct {
	Name     string
	Entities []*Entity
}

// Document is the in-memory drawing: header variables, layer and block
// tables, and modelspace entities in creation order.
type Document struct {
	Header   map[string]string
	Layers   []*Layer
	Blocks   []*Block
	Entities []*Entity

	byID     map[string]*Entity
	layerIdx map[string]*Layer
	blockIdx map[string]*Block
	counter  int
}

// NewDocument builds an empty drawing with layer 0 current.
func NewDocument() *Document {
	d := &Document{
		Header: map[string]string{
			"$ACADVER":  "AC1027",
			"$CLAYER":   "0",
			"$INSUNITS": "4",
			"$DWGNAME":  "untitled",
		},
		byID:     map[string]*Entity{},
		layerIdx: map[string]*Layer{},
		blockIdx: map[string]*Block{},
	}
	d.EnsureLayer("0")
	return d
}

// NextID hands out the next entity handle.
func (d *Document) NextID() string {
	d.counter++
	return fmt.Sprintf("mem_%d", d.counter)
}

// Add registers e in the modelspace, assigning a handle when missing.
func (d *Document) Add(e *Entity) *Entity {
	if e.ID == "" {
		e.ID = d.NextID()
	}
	d.Entities = append(d.Entities, e)
	d.byID[e.ID] = e
	return e
}

// Entity looks a modelspace entity up by handle.
func (d *Document) Entity(id string) *Entity {
	return d.byID[id]
}

// Remove deletes e from the modelspace.
func (d *Document) Remove(e *Entity) {
	delete(d.byID, e.ID)
	for i, cur := range d.Entities {
		if cur == e {
			d.Entities = append(d.Entities[:i], d.Entities[i+1:]...)
			return
		}
	}
}

// Last returns the most recently added entity, nil when empty.
func (d *Document) Last() *Entity {
	if len(d.Entities) == 0 {
		return nil
	}
	return d.Entities[len(d.Entities)-1]
}

// CurrentLayer reports the $CLAYER header.
func (d *Document) CurrentLayer() string {
	if c := d.Header["$CLAYER"]; c != "" {
		return c
	}
	return "0"
}

// LayerNamed finds a layer case-insensitively, nil when absent. Layer names
// compare case-insensitively everywhere, matching drawing semantics.
func (d *Document) LayerNamed(name string) *Layer {
	return d.layerIdx[strings.ToUpper(name)]
}

// AddLayer registers a new layer table record.
func (d *Document) AddLayer(name string, color int, linetype string) *Layer {
	l := &Layer{Name: name, Color: color, Linetype: linetype}
	d.Layers = append(d.Layers, l)
	d.layerIdx[strings.ToUpper(name)] = l
	return l
}

// EnsureLayer creates the layer with default properties when it does not
// exist yet.
func (d *Document) EnsureLayer(name string) *Layer {
	if l := d.LayerNamed(name); l != nil {
		return l
	}
	return d.AddLayer(name, 7, "Continuous")
}

// placementLayer resolves the target layer of a create: the named one, or
// the current layer when empty. The layer is created on first reference.
func (d *Document) placementLayer(layer string) string {
	if layer == "" {
		layer = d.CurrentLayer()
	}
	if l := d.LayerNamed(layer); l != nil {
		return l.Name
	}
	d.EnsureLayer(layer)
	return layer
}

// BlockNamed finds a block definition case-insensitively, nil when absent.
func (d *Document) BlockNamed(name string) *Block {
	return d.blockIdx[strings.ToUpper(name)]
}

// AddBlock registers a block definition.
func (d *Document) AddBlock(b *Block) {
	d.Blocks = append(d.Blocks, b)
	d.blockIdx[strings.ToUpper(b.Name)] = b
}

// colorToInt maps an ACI number or a well-known color name to an ACI value.
// Unknown names fall back to 7 (white).
func colorToInt(color any) int {
	switch c := color.(type) {
	case int:
		return c
	case int64:
		return int(c)
	case float64:
		return int(c)
	case string:
		names := map[string]int{
			"red": 1, "yellow": 2, "green": 3, "cyan": 4,
			"blue": 5, "magenta": 6, "white": 7, "grey": 8, "gray": 8,
		}
		if v, ok := names[strings.ToLower(c)]; ok {
			return v
		}
		return 7
	default:
		return 7
	}
}
