package fileipc

import "strings"

// WindowInfo identifies the live drawing session: the top-level frame and,
// when found, the MDI document container child that receives synthetic input.
type WindowInfo struct {
	Handle        uintptr
	CommandHandle uintptr
	Title         string
}

// Target returns the handle trigger input is posted to: the MDI container
// when discovered, the top-level frame otherwise.
func (w *WindowInfo) Target() uintptr {
	if w.CommandHandle != 0 {
		return w.CommandHandle
	}
	return w.Handle
}

// matchesDrawingTitle reports whether a top-level window title looks like an
// AutoCAD session with a drawing open.
func matchesDrawingTitle(title string) bool {
	t := strings.ToLower(title)
	if !strings.Contains(t, "autocad") {
		return false
	}
	return strings.Contains(t, "drawing") || strings.Contains(t, ".dwg")
}
