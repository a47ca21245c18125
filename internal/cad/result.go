package cad

import "encoding/json"

// Result is the uniform outcome of a drawing command, on any backend.
// Exactly one of Payload/Err is meaningful, mirroring OK.
type Result struct {
	OK      bool   `json:"ok"`
	Payload any    `json:"payload,omitempty"`
	Err     string `json:"error,omitempty"`
}

// OKResult builds a successful Result carrying payload.
func OKResult(payload any) Result {
	return Result{OK: true, Payload: payload}
}

// FailResult builds a failed Result carrying an error message.
func FailResult(err string) Result {
	return Result{OK: false, Err: err}
}

// NotSupported is the fixed failure returned for verbs a backend does not
// implement. No I/O is attempted and no timeout is incurred.
func NotSupported() Result {
	return FailResult("Not supported on this backend")
}

// MarshalJSON keeps the wire shape asymmetric: payload only when ok,
// error only when not ok.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.OK {
		return json.Marshal(struct {
			OK      bool `json:"ok"`
			Payload any  `json:"payload"`
		}{true, r.Payload})
	}
	return json.Marshal(struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}{false, r.Err})
}

// Params is the parameter mapping attached to a command. Values must be
// JSON-encodable scalars, lists, or nested maps.
type Params map[string]any

// Stripped returns a copy of p without nil-valued entries. The remote parser
// has no null representation, so absence is the only way to express "unset".
func (p Params) Stripped() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

// SetOpt adds key=value only when value is non-empty. Used for optional
// string parameters (layer names, ids) that are omitted rather than nulled.
func (p Params) SetOpt(key, value string) Params {
	if value != "" {
		p[key] = value
	}
	return p
}
