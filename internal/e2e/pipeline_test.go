package e2e

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/drafthaus/drawbridge/internal/cad"
	"github.com/drafthaus/drawbridge/internal/config"
	"github.com/drafthaus/drawbridge/internal/history"
	"github.com/drafthaus/drawbridge/internal/memdoc"
	"github.com/drafthaus/drawbridge/internal/storage"
	"github.com/drafthaus/drawbridge/internal/tools"
)

// TestPipeline_ConfigToJournal drives the headless stack the way the daemon
// does: load a config file, build the in-memory backend, run tool calls
// through the registry, and journal each one to sqlite.
func TestPipeline_ConfigToJournal(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	historyPath := filepath.Join(dir, "history.db")

	configYAML := `
service:
  log_level: error
backend:
  mode: memdoc
history:
  path: ` + historyPath + `
`
	if err := os.WriteFile(configPath, []byte(configYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if cfg.Backend.Mode != "memdoc" {
		t.Fatalf("backend.mode = %q, want memdoc", cfg.Backend.Mode)
	}

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.History.Path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()
	journal := history.New(db)

	backend := memdoc.New()
	if res := backend.Init(ctx); !res.OK {
		t.Fatalf("backend init: %s", res.Err)
	}
	defer backend.Close()

	registry := tools.NewRegistry()

	steps := []struct {
		tool      string
		operation string
		data      cad.Params
		wantOK    bool
	}{
		{"layer", "create", cad.Params{"name": "PLATE", "color": "yellow"}, true},
		{"entity", "create-rectangle", cad.Params{"x1": 0.0, "y1": 0.0, "x2": 120.0, "y2": 80.0, "layer": "PLATE"}, true},
		{"entity", "create-circle", cad.Params{"cx": 60.0, "cy": 40.0, "radius": 15.0, "layer": "PLATE"}, true},
		{"annotation", "create-text", cad.Params{"x": 5.0, "y": 85.0, "text": "PLATE-01"}, true},
		{"drawing", "plot-pdf", cad.Params{"path": filepath.Join(dir, "out.pdf")}, false},
	}

	for _, step := range steps {
		res := registry.Execute(ctx, backend, step.tool, step.operation, step.data)
		if res.OK != step.wantOK {
			t.Fatalf("%s/%s: ok=%v (err=%q), want ok=%v",
				step.tool, step.operation, res.OK, res.Err, step.wantOK)
		}

		var command string
		if raw, err := json.Marshal(step.data); err == nil {
			command = string(raw)
		}
		if _, err := journal.Append(ctx, history.Entry{
			Tool:       step.tool,
			Operation:  step.operation,
			Command:    command,
			OK:         res.OK,
			Error:      res.Err,
			DurationMS: 1,
			Backend:    backend.Name(),
		}); err != nil {
			t.Fatalf("journal append: %v", err)
		}
	}

	// The document reflects the writes.
	res := registry.Execute(ctx, backend, "entity", "count", cad.Params{"layer": "PLATE"})
	if !res.OK {
		t.Fatalf("entity/count: %s", res.Err)
	}
	payload := res.Payload.(map[string]any)
	if got := payload["count"]; got != 2 {
		t.Errorf("entities on PLATE = %v, want 2", got)
	}

	// The journal reflects every step, newest first.
	entries, err := journal.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("journal.Recent: %v", err)
	}
	if len(entries) != len(steps) {
		t.Fatalf("journal entries = %d, want %d", len(entries), len(steps))
	}
	if entries[0].Operation != "plot-pdf" || entries[0].OK {
		t.Errorf("newest entry = %s/%s ok=%v, want failed plot-pdf",
			entries[0].Tool, entries[0].Operation, entries[0].OK)
	}
	if entries[len(entries)-1].Operation != "create" {
		t.Errorf("oldest entry = %s, want layer create", entries[len(entries)-1].Operation)
	}
	for _, e := range entries {
		if e.Backend != "memdoc" {
			t.Errorf("entry %s backend = %q, want memdoc", e.ID, e.Backend)
		}
		if e.At.IsZero() || time.Since(e.At) > time.Minute {
			t.Errorf("entry %s timestamp looks wrong: %v", e.ID, e.At)
		}
	}

	succeeded, failed, err := journal.CountByOutcome(ctx)
	if err != nil {
		t.Fatalf("CountByOutcome: %v", err)
	}
	if succeeded != 4 || failed != 1 {
		t.Errorf("outcome counts = %d/%d, want 4/1", succeeded, failed)
	}
}
