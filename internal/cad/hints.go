package cad

import "strings"

// Hint maps an error message to operator-facing remediation text. The
// matching is substring-based on the lowercased message, mirroring the error
// vocabulary produced by the session manager and the companion script.
func Hint(errMsg string) string {
	lower := strings.ToLower(errMsg)

	switch {
	case strings.Contains(lower, "window not found") || strings.Contains(lower, "no autocad"):
		return "AutoCAD LT is not running or no drawing is open. Start AutoCAD and open a .dwg file."
	case strings.Contains(lower, "timeout"):
		return "Command timed out. AutoCAD may be in a modal dialog. Press ESC in AutoCAD and retry."
	case strings.Contains(lower, "not supported") || strings.Contains(lower, "backend"):
		return "Operation not supported on current backend. Check system status for capabilities."
	case strings.Contains(lower, "dispatcher") || strings.Contains(lower, "drawbridge-dispatch"):
		return "Companion script not loaded. In the AutoCAD command line, type: (load \"drawbridge_dispatch.lsp\")"
	default:
		return "Unexpected error. Check AutoCAD is responsive and retry."
	}
}
