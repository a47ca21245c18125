//go:build !windows

package fileipc

import "errors"

// findDrawingWindow requires the Win32 API; on other platforms a live
// session can only be reached through an injected probe.
func findDrawingWindow() (*WindowInfo, error) {
	return nil, errors.New("AutoCAD LT window not found (live session requires windows)")
}
