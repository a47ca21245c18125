package tools

import (
	"fmt"
	"strconv"

	"github.com/drafthaus/drawbridge/internal/cad"
)

// args reads typed parameters out of the untyped data object of a tool call.
// The first coercion failure sticks; later reads are no-ops so a runner can
// collect all its parameters and check once.
type args struct {
	d   cad.Params
	err error
}

func newArgs(d cad.Params) *args {
	if d == nil {
		d = cad.Params{}
	}
	return &args{d: d}
}

// fail returns the pending failure, if any.
func (a *args) fail() (cad.Result, bool) {
	if a.err != nil {
		return cad.FailResult(a.err.Error()), true
	}
	return cad.Result{}, false
}

func (a *args) missing(key string) {
	if a.err == nil {
		a.err = fmt.Errorf("Missing required parameter: %s", key)
	}
}

func (a *args) invalid(key string) {
	if a.err == nil {
		a.err = fmt.Errorf("Parameter %s has the wrong type", key)
	}
}

// Num reads a required number. JSON numbers arrive as float64; Go ints are
// accepted for callers constructing data maps directly.
func (a *args) Num(key string) float64 {
	if a.err != nil {
		return 0
	}
	v, ok := a.d[key]
	if !ok || v == nil {
		a.missing(key)
		return 0
	}
	return a.toNum(key, v)
}

func (a *args) NumOr(key string, def float64) float64 {
	if a.err != nil {
		return def
	}
	v, ok := a.d[key]
	if !ok || v == nil {
		return def
	}
	return a.toNum(key, v)
}

func (a *args) toNum(key string, v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		a.invalid(key)
		return 0
	}
}

func (a *args) Int(key string) int {
	return int(a.Num(key))
}

func (a *args) Str(key string) string {
	if a.err != nil {
		return ""
	}
	v, ok := a.d[key]
	if !ok || v == nil {
		a.missing(key)
		return ""
	}
	s, ok := v.(string)
	if !ok {
		a.invalid(key)
		return ""
	}
	return s
}

func (a *args) StrOr(key, def string) string {
	if a.err != nil {
		return def
	}
	v, ok := a.d[key]
	if !ok || v == nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		a.invalid(key)
		return def
	}
	return s
}

func (a *args) BoolOr(key string, def bool) bool {
	if a.err != nil {
		return def
	}
	v, ok := a.d[key]
	if !ok || v == nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		a.invalid(key)
		return def
	}
	return b
}

// AnyOr returns the raw value, for parameters the backend types itself
// (layer colors take names or ACI numbers).
func (a *args) AnyOr(key string, def any) any {
	v, ok := a.d[key]
	if !ok || v == nil {
		return def
	}
	return v
}

// Points reads a required [[x,y],...] list.
func (a *args) Points(key string) []cad.Point {
	if a.err != nil {
		return nil
	}
	v, ok := a.d[key]
	if !ok || v == nil {
		a.missing(key)
		return nil
	}
	return a.toPoints(key, v)
}

// PointsOr reads an optional [[x,y],...] list; missing means none.
func (a *args) PointsOr(key string) []cad.Point {
	if a.err != nil {
		return nil
	}
	v, ok := a.d[key]
	if !ok || v == nil {
		return nil
	}
	return a.toPoints(key, v)
}

func (a *args) toPoints(key string, v any) []cad.Point {
	switch pts := v.(type) {
	case []cad.Point:
		return pts
	case [][]float64:
		out := make([]cad.Point, 0, len(pts))
		for _, p := range pts {
			if len(p) < 2 {
				a.invalid(key)
				return nil
			}
			out = append(out, cad.Point{p[0], p[1]})
		}
		return out
	case []any:
		out := make([]cad.Point, 0, len(pts))
		for _, raw := range pts {
			pair, ok := raw.([]any)
			if !ok || len(pair) < 2 {
				a.invalid(key)
				return nil
			}
			x := a.toNum(key, pair[0])
			y := a.toNum(key, pair[1])
			if a.err != nil {
				return nil
			}
			out = append(out, cad.Point{x, y})
		}
		return out
	default:
		a.invalid(key)
		return nil
	}
}

// Attrs reads an optional {tag: value} map. Scalar values are stringified
// the way they would print in a command.
func (a *args) Attrs(key string) map[string]string {
	if a.err != nil {
		return nil
	}
	v, ok := a.d[key]
	if !ok || v == nil {
		return nil
	}
	switch m := v.(type) {
	case map[string]string:
		return m
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, raw := range m {
			switch val := raw.(type) {
			case string:
				out[k] = val
			case float64:
				out[k] = strconv.FormatFloat(val, 'f', -1, 64)
			case int:
				out[k] = strconv.Itoa(val)
			case bool:
				out[k] = strconv.FormatBool(val)
			default:
				a.invalid(key)
				return nil
			}
		}
		return out
	default:
		a.invalid(key)
		return nil
	}
}

// Entities reads an optional list of entity definition maps (block define).
func (a *args) Entities(key string) []map[string]any {
	if a.err != nil {
		return nil
	}
	v, ok := a.d[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, raw := range list {
			m, ok := raw.(map[string]any)
			if !ok {
				a.invalid(key)
				return nil
			}
			out = append(out, m)
		}
		return out
	default:
		a.invalid(key)
		return nil
	}
}

// Names reads an optional list of strings.
func (a *args) Names(key string) []string {
	if a.err != nil {
		return nil
	}
	v, ok := a.d[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, raw := range list {
			s, ok := raw.(string)
			if !ok {
				a.invalid(key)
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		a.invalid(key)
		return nil
	}
}
