//go:build !windows

package screenshot

// CaptureWindow needs the Win32 GDI surface; nothing to grab elsewhere.
func CaptureWindow(hwnd uintptr) (string, error) {
	_ = hwnd
	return "", ErrUnavailable
}
