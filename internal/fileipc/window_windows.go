//go:build windows

package fileipc

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows          = user32.NewProc("EnumWindows")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procIsWindowVisible      = user32.NewProc("IsWindowVisible")
	procFindWindowExW        = user32.NewProc("FindWindowExW")
	procPostMessageW         = user32.NewProc("PostMessageW")
)

// findDrawingWindow walks top-level windows looking for a visible AutoCAD
// frame with an open drawing, then locates the MDI document container child.
func findDrawingWindow() (*WindowInfo, error) {
	var found *WindowInfo

	cb := windows.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		visible, _, _ := procIsWindowVisible.Call(hwnd)
		if visible == 0 {
			return 1
		}
		title := windowTitle(hwnd)
		if !matchesDrawingTitle(title) {
			return 1
		}
		found = &WindowInfo{Handle: hwnd, Title: title}
		return 0
	})

	ret, _, err := procEnumWindows.Call(cb, 0)
	if found == nil {
		if ret == 0 && err != syscall.Errno(0) {
			return nil, fmt.Errorf("AutoCAD LT window not found: enumeration failed: %w", err)
		}
		return nil, fmt.Errorf("AutoCAD LT window not found")
	}

	found.CommandHandle = findMDIClient(found.Handle)
	return found, nil
}

func windowTitle(hwnd uintptr) string {
	length, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if length == 0 {
		return ""
	}
	buf := make([]uint16, length+1)
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), length+1)
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

// findMDIClient returns the MDIClient child of the frame, or 0 when absent.
func findMDIClient(parent uintptr) uintptr {
	cls, err := windows.UTF16PtrFromString("MDIClient")
	if err != nil {
		return 0
	}
	h, _, _ := procFindWindowExW.Call(parent, 0, uintptr(unsafe.Pointer(cls)), 0)
	return h
}
