package cad

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestResultMarshalShape(t *testing.T) {
	ok, err := json.Marshal(OKResult(map[string]any{"handle": "1A2"}))
	if err != nil {
		t.Fatalf("marshal ok result: %v", err)
	}
	var okOut map[string]any
	if err := json.Unmarshal(ok, &okOut); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if okOut["ok"] != true {
		t.Errorf("expected ok=true, got %v", okOut["ok"])
	}
	if _, present := okOut["error"]; present {
		t.Errorf("success result must not carry an error field: %s", ok)
	}

	fail, err := json.Marshal(FailResult("boom"))
	if err != nil {
		t.Fatalf("marshal fail result: %v", err)
	}
	var failOut map[string]any
	if err := json.Unmarshal(fail, &failOut); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if failOut["ok"] != false || failOut["error"] != "boom" {
		t.Errorf("unexpected failure shape: %s", fail)
	}
	if _, present := failOut["payload"]; present {
		t.Errorf("failure result must not carry a payload field: %s", fail)
	}
}

func TestParamsStripped(t *testing.T) {
	p := Params{"x1": 0.0, "y1": 0.0, "x2": 10.0, "y2": 10.0, "layer": nil}
	got := p.Stripped()

	if _, present := got["layer"]; present {
		t.Error("nil-valued layer should be absent after stripping")
	}
	if len(got) != 4 {
		t.Errorf("expected 4 params, got %d", len(got))
	}
	if got["x2"] != 10.0 {
		t.Errorf("non-nil values must survive stripping, got %v", got["x2"])
	}
	// original map untouched
	if _, present := p["layer"]; !present {
		t.Error("Stripped must not mutate the receiver")
	}
}

func TestParamsSetOpt(t *testing.T) {
	p := Params{"x": 1.0}
	p.SetOpt("layer", "").SetOpt("pattern", "ANSI31")

	if _, present := p["layer"]; present {
		t.Error("empty optional must be omitted")
	}
	if p["pattern"] != "ANSI31" {
		t.Errorf("non-empty optional must be set, got %v", p["pattern"])
	}
}

func TestUnsupportedBackend(t *testing.T) {
	var b Backend = Unsupported{}

	r := b.CreateLine(t.Context(), 0, 0, 10, 10, "")
	if r.OK {
		t.Fatal("unsupported verb must fail")
	}
	if r.Err != "Not supported on this backend" {
		t.Errorf("unexpected error text: %q", r.Err)
	}
	if caps := b.Capabilities(); caps.CreateEntities {
		t.Error("unsupported backend must advertise no capabilities")
	}
}

func TestHintMapping(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"window", "AutoCAD window not found", "Start AutoCAD"},
		{"timeout", "Timeout waiting for result (request_id=abc123def456)", "Press ESC"},
		{"unsupported", "Not supported on this backend", "current backend"},
		{"dispatcher", "dispatcher verification failed", "Companion script"},
		{"fallback", "something odd", "Unexpected error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := Hint(tt.msg)
			if !strings.Contains(hint, tt.want) {
				t.Errorf("Hint(%q) = %q, want substring %q", tt.msg, hint, tt.want)
			}
		})
	}
}
