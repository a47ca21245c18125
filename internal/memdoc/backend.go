package memdoc

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/drafthaus/drawbridge/internal/cad"
	"github.com/drafthaus/drawbridge/internal/catalog"
	"github.com/drafthaus/drawbridge/internal/log"
)

// engineVersion is reported in init and status payloads.
const engineVersion = "1.0"

// Backend is the cad.Backend implementation over an in-memory Document.
// A mutex serializes all document access; verbs that need no document
// (ping, symbol listing) bypass it.
type Backend struct {
	cad.Unsupported

	mu       sync.Mutex
	logger   *slog.Logger
	library  *catalog.Library
	doc      *Document
	savePath string
}

var _ cad.Backend = (*Backend)(nil)

// Option adjusts backend construction.
type Option func(*Backend)

// WithLogger overrides the default backend logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// WithLibrary points symbol lookups at a specific catalog.
func WithLibrary(lib *catalog.Library) Option {
	return func(b *Backend) { b.library = lib }
}

// New builds a memdoc backend. No document is open until Init.
func New(opts ...Option) *Backend {
	b := &Backend{}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.WithBackend("memdoc")
	}
	if b.library == nil {
		b.library = catalog.New("")
	}
	return b
}

func (b *Backend) Name() string { return "memdoc" }

// Capabilities reports what the headless engine can do: everything except
// viewport control, PDF plotting and undo.
func (b *Backend) Capabilities() cad.Capabilities {
	return cad.Capabilities{
		ReadDrawing:    true,
		ModifyEntities: true,
		CreateEntities: true,
		Screenshot:     true,
		Save:           true,
		QueryEntities:  true,
		FileOperations: true,
	}
}

// Init opens a fresh empty document.
func (b *Backend) Init(ctx context.Context) cad.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc = NewDocument()
	b.logger.Info("document opened")
	return cad.OKResult(map[string]any{"backend": "memdoc", "version": engineVersion})
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc = nil
	return nil
}

func (b *Backend) Ping(ctx context.Context) cad.Result {
	return cad.OKResult("pong")
}

func (b *Backend) Status(ctx context.Context) cad.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	if b.doc != nil {
		count = len(b.doc.Entities)
	}
	var save any
	if b.savePath != "" {
		save = b.savePath
	}
	return cad.OKResult(map[string]any{
		"backend":      "memdoc",
		"version":      engineVersion,
		"has_document": b.doc != nil,
		"entity_count": count,
		"save_path":    save,
		"capabilities": b.Capabilities(),
	})
}

// withDoc runs f under the lock with the open document, failing uniformly
// when none is open.
func (b *Backend) withDoc(f func(*Document) cad.Result) cad.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.doc == nil {
		return cad.FailResult("No document open")
	}
	return f(b.doc)
}

func (b *Backend) DrawingInfo(ctx context.Context) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		layers := make([]string, 0, len(d.Layers))
		for _, l := range d.Layers {
			layers = append(layers, l.Name)
		}
		blocks := make([]string, 0, len(d.Blocks))
		for _, blk := range d.Blocks {
			blocks = append(blocks, blk.Name)
		}
		var save any
		if b.savePath != "" {
			save = b.savePath
		}
		return cad.OKResult(map[string]any{
			"entity_count":  len(d.Entities),
			"layers":        layers,
			"blocks":        blocks,
			"dxf_version":   d.Header["$ACADVER"],
			"current_layer": d.CurrentLayer(),
			"save_path":     save,
		})
	})
}

// DrawingSave writes the document as ASCII DXF. An empty path reuses the
// last save location.
func (b *Backend) DrawingSave(ctx context.Context, path string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		target := path
		if target == "" {
			target = b.savePath
		}
		if target == "" {
			return cad.FailResult("No save path specified")
		}
		if err := os.WriteFile(target, encodeDXF(d), 0o644); err != nil {
			return cad.FailResult(err.Error())
		}
		b.savePath = target
		b.logger.Info("document saved", "path", target)
		return cad.OKResult(map[string]any{"path": target})
	})
}

func (b *Backend) DrawingSaveAsDXF(ctx context.Context, path string) cad.Result {
	return b.DrawingSave(ctx, path)
}

// DrawingCreate replaces the document with a fresh one. A non-empty name
// presets the save path to <name>.dxf.
func (b *Backend) DrawingCreate(ctx context.Context, name string) cad.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc = NewDocument()
	if name != "" {
		b.doc.Header["$DWGNAME"] = name
		b.savePath = name + ".dxf"
	} else {
		b.savePath = ""
	}
	display := name
	if display == "" {
		display = "untitled"
	}
	return cad.OKResult(map[string]any{"name": display})
}

// DrawingPurge has nothing to purge in the in-memory model; unreferenced
// table entries are never accumulated.
func (b *Backend) DrawingPurge(ctx context.Context) cad.Result {
	return b.withDoc(func(*Document) cad.Result {
		return cad.OKResult(map[string]any{"purged": true})
	})
}

// DrawingGetVariables serves header variables. Names are accepted with or
// without the $ prefix; unknown names map to null.
func (b *Backend) DrawingGetVariables(ctx context.Context, names []string) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		out := make(map[string]any, len(names))
		for _, n := range names {
			v, ok := d.Header[n]
			if !ok && !strings.HasPrefix(n, "$") {
				v, ok = d.Header["$"+n]
			}
			if ok {
				out[n] = v
			} else {
				out[n] = nil
			}
		}
		return cad.OKResult(out)
	})
}

// Screenshot renders the wireframe view of the document.
func (b *Backend) Screenshot(ctx context.Context) cad.Result {
	return b.withDoc(func(d *Document) cad.Result {
		data, err := renderPNG(d)
		if err != nil || data == "" {
			b.logger.Warn("wireframe render failed", "error", err)
			return cad.FailResult("Screenshot render failed")
		}
		return cad.OKResult(data)
	})
}
