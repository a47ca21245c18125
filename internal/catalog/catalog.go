// Package catalog resolves P&ID symbol names against a CTO-style block
// library: a directory tree of .dwg files organized by category, with a
// built-in fallback listing for hosts that do not have the library installed.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// DefaultRoot is the conventional install location of the CTO library.
	DefaultRoot = "C:/PIDv4-CTO"
	// EnvRoot overrides the library root without config changes.
	EnvRoot = "DRAWBRIDGE_CATALOG_PATH"
	// cacheDirName holds DXF conversions of the .dwg sources.
	cacheDirName = "_dxf_cache"
)

// Symbol is one built-in catalog entry.
type Symbol struct {
	Display string
	Stem    string
}

// Resolved locates a symbol on disk.
type Resolved struct {
	Category string
	Display  string
	Stem     string
	Path     string
	DXFPath  string
}

// builtin mirrors the shipped CTO ISA 5.1 catalog subset, used whenever the
// on-disk library or a category directory is absent.
var builtin = map[string][]Symbol{
	"ACTUATORS": {
		{"Bellows Spring", "ACT-BELLOWS_SPRING"},
		{"Motor", "ACT-MOTOR"},
		{"Solenoid", "ACT-SOLENOID"},
		{"Spring Diaphragm", "ACT-SPRING_DIAPHRAGM"},
	},
	"ANNOTATION": {
		{"Equipment Tag", "ANNOT-EQUIP_TAG"},
		{"Equipment Description", "ANNOT-EQUIP_DESCR"},
		{"Flow Arrow", "ANNOT-FLOWARROW"},
		{"Line Number", "ANNOT-LINE_NUMBER"},
	},
	"EQUIPMENT": {
		{"Clarifier", "EQUIP-CLARIFIER"},
		{"Filter", "EQUIP-FILTER"},
		{"Filter Press", "EQUIP-FILTER_PRESS"},
		{"Heat Exchanger", "EQUIP-HEAT_EXCH-GENERIC"},
		{"Motor", "EQUIP-MOTOR"},
		{"Screen Bar", "EQUIP-SCREENBAR"},
	},
	"PUMPS-BLOWERS": {
		{"Centrifugal Pump 1", "PUMP-CENTRIF1"},
		{"Centrifugal Pump 2", "PUMP-CENTRIF2"},
		{"Diaphragm Pump", "PUMP-DIAPHRAGM"},
		{"Metering Pump", "PUMP-METERING"},
		{"Progressive Cavity", "PUMP-PROGRESSIVE_CAVITY"},
		{"Submersible Pump", "PUMP-SUBMERSIBLE"},
	},
	"TANKS": {
		{"Vertical Open", "TANK-VERTICAL_OPEN"},
		{"Vertical Dome", "TANK-VERTICAL_DOME"},
		{"Horizontal", "TANK-HORIZONTAL"},
		{"Cone Bottom", "TANK-CONE_BOTTOM_DOME"},
	},
	"VALVES": {
		{"Gate Valve", "VA-GATE"},
		{"Globe Valve", "VA-GLOBE"},
		{"Check Valve", "VA-CHECK"},
		{"Ball Valve", "VA-BALL"},
		{"Butterfly Valve", "VA-BUTTERFLY"},
		{"Knife Gate", "VA-KNIFEGATE"},
	},
}

// Library answers symbol lookups from the on-disk tree when present, the
// built-in catalog otherwise.
type Library struct {
	root string
}

// New builds a Library rooted at root; empty root falls back to the
// environment override, then the conventional install path.
func New(root string) *Library {
	if root == "" {
		root = os.Getenv(EnvRoot)
	}
	if root == "" {
		root = DefaultRoot
	}
	return &Library{root: root}
}

// Root reports the resolved library location.
func (l *Library) Root() string { return l.root }

// Categories lists available symbol categories: on-disk subdirectories when
// the root exists, the built-in set otherwise. Cache and hidden directories
// are not categories.
func (l *Library) Categories() []string {
	if entries, err := os.ReadDir(l.root); err == nil {
		var out []string
		for _, e := range entries {
			name := e.Name()
			if !e.IsDir() || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
				continue
			}
			out = append(out, name)
		}
		if len(out) > 0 {
			sort.Strings(out)
			return out
		}
	}
	out := make([]string, 0, len(builtin))
	for k := range builtin {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// canonical maps a category given in any case to its on-disk or built-in
// spelling. Second return is false when the category is unknown everywhere.
func (l *Library) canonical(category string) (string, bool) {
	if entries, err := os.ReadDir(l.root); err == nil {
		for _, e := range entries {
			if e.IsDir() && strings.EqualFold(e.Name(), category) {
				return e.Name(), true
			}
		}
	}
	for k := range builtin {
		if strings.EqualFold(k, category) {
			return k, true
		}
	}
	return category, false
}

// Symbols lists the symbol stems of a category, preferring the on-disk
// directory (.dwg/.dxf stems) and falling back to the built-in listing.
func (l *Library) Symbols(category string) []string {
	cat, _ := l.canonical(category)

	dir := filepath.Join(l.root, cat)
	if entries, err := os.ReadDir(dir); err == nil {
		seen := map[string]bool{}
		var out []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if ext != ".dwg" && ext != ".dxf" {
				continue
			}
			stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			if !seen[stem] {
				seen[stem] = true
				out = append(out, stem)
			}
		}
		if len(out) > 0 {
			sort.Strings(out)
			return out
		}
	}

	symbols := builtin[cat]
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, s.Stem)
	}
	return out
}

// Resolve finds a symbol by stem or display name, case-insensitively, and
// returns its disk locations. The .dwg path is computed even when the file
// does not exist yet so callers can report what is missing.
func (l *Library) Resolve(category, symbol string) (Resolved, bool) {
	cat, known := l.canonical(category)
	if !known {
		return Resolved{}, false
	}

	match := func(stem, display string) bool {
		return strings.EqualFold(stem, symbol) || (display != "" && strings.EqualFold(display, symbol))
	}

	for _, s := range builtin[cat] {
		if match(s.Stem, s.Display) {
			return l.resolved(cat, s.Display, s.Stem), true
		}
	}
	for _, stem := range l.Symbols(cat) {
		if match(stem, "") {
			return l.resolved(cat, stem, stem), true
		}
	}
	return Resolved{}, false
}

func (l *Library) resolved(cat, display, stem string) Resolved {
	return Resolved{
		Category: cat,
		Display:  display,
		Stem:     stem,
		Path:     filepath.Join(l.root, cat, stem+".dwg"),
		DXFPath:  filepath.Join(l.root, cacheDirName, cat, stem+".dxf"),
	}
}
