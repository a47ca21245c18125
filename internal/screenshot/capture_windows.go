//go:build windows

package screenshot

import (
	"fmt"
	"image"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                            = windows.NewLazySystemDLL("user32.dll")
	gdi32                             = windows.NewLazySystemDLL("gdi32.dll")
	shcore                            = windows.NewLazySystemDLL("shcore.dll")
	procGetWindowDC                   = user32.NewProc("GetWindowDC")
	procReleaseDC                     = user32.NewProc("ReleaseDC")
	procGetWindowRect                 = user32.NewProc("GetWindowRect")
	procGetWindowPlacement            = user32.NewProc("GetWindowPlacement")
	procIsIconic                      = user32.NewProc("IsIconic")
	procPrintWindow                   = user32.NewProc("PrintWindow")
	procSetProcessDPIAware            = user32.NewProc("SetProcessDPIAware")
	procSetProcessDpiAwarenessContext = user32.NewProc("SetProcessDpiAwarenessContext")
	procSetProcessDpiAwareness        = shcore.NewProc("SetProcessDpiAwareness")
	procCreateCompatibleDC            = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap        = gdi32.NewProc("CreateCompatibleBitmap")
	procSelectObject                  = gdi32.NewProc("SelectObject")
	procDeleteObject                  = gdi32.NewProc("DeleteObject")
	procDeleteDC                      = gdi32.NewProc("DeleteDC")
	procGetDIBits                     = gdi32.NewProc("GetDIBits")
)

const (
	pwRenderFullContent = 0x00000002
	biRGB               = 0
	dibRGBColors        = 0
)

type rect struct {
	Left, Top, Right, Bottom int32
}

type point struct {
	X, Y int32
}

type windowPlacement struct {
	Length  uint32
	Flags   uint32
	ShowCmd uint32
	MinPos  point
	MaxPos  point
	Normal  rect
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

var dpiOnce sync.Once

// ensureDPIAware opts the process into per-monitor DPI awareness so the
// captured bitmap matches the on-screen pixel dimensions. Best effort with
// older fallbacks; failures are ignored.
func ensureDPIAware() {
	dpiOnce.Do(func() {
		if procSetProcessDpiAwarenessContext.Find() == nil {
			// DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2 == -4
			if ok, _, _ := procSetProcessDpiAwarenessContext.Call(^uintptr(3)); ok != 0 {
				return
			}
		}
		if procSetProcessDpiAwareness.Find() == nil {
			const perMonitorDPIAware = 2
			if ret, _, _ := procSetProcessDpiAwareness.Call(perMonitorDPIAware); ret == 0 {
				return
			}
		}
		procSetProcessDPIAware.Call()
	})
}

// captureRect picks the rectangle to grab. A minimized window reports a
// degenerate rect, so fall back to its restored placement when iconic.
func captureRect(hwnd uintptr) (rect, error) {
	if iconic, _, _ := procIsIconic.Call(hwnd); iconic != 0 {
		var wp windowPlacement
		wp.Length = uint32(unsafe.Sizeof(wp))
		if ok, _, _ := procGetWindowPlacement.Call(hwnd, uintptr(unsafe.Pointer(&wp))); ok != 0 {
			if wp.Normal.Right > wp.Normal.Left && wp.Normal.Bottom > wp.Normal.Top {
				return wp.Normal, nil
			}
		}
	}
	var r rect
	if ok, _, err := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r))); ok == 0 {
		return r, fmt.Errorf("GetWindowRect: %w", err)
	}
	return r, nil
}

// CaptureWindow grabs the window contents via PrintWindow and returns a
// base64 PNG. PW_RENDERFULLCONTENT makes DirectX-composited surfaces render,
// which plain BitBlt misses for AutoCAD.
func CaptureWindow(hwnd uintptr) (string, error) {
	if hwnd == 0 {
		return "", ErrUnavailable
	}
	ensureDPIAware()

	r, err := captureRect(hwnd)
	if err != nil {
		return "", err
	}
	width := int(r.Right - r.Left)
	height := int(r.Bottom - r.Top)
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("window has no visible area (%dx%d)", width, height)
	}

	hdc, _, err := procGetWindowDC.Call(hwnd)
	if hdc == 0 {
		return "", fmt.Errorf("GetWindowDC: %w", err)
	}
	defer procReleaseDC.Call(hwnd, hdc)

	memDC, _, err := procCreateCompatibleDC.Call(hdc)
	if memDC == 0 {
		return "", fmt.Errorf("CreateCompatibleDC: %w", err)
	}
	defer procDeleteDC.Call(memDC)

	bmp, _, err := procCreateCompatibleBitmap.Call(hdc, uintptr(width), uintptr(height))
	if bmp == 0 {
		return "", fmt.Errorf("CreateCompatibleBitmap: %w", err)
	}
	defer procDeleteObject.Call(bmp)

	prev, _, _ := procSelectObject.Call(memDC, bmp)
	ok, _, _ := procPrintWindow.Call(hwnd, memDC, pwRenderFullContent)
	procSelectObject.Call(memDC, prev)
	if ok != 1 {
		return "", fmt.Errorf("PrintWindow failed")
	}

	// Top-down 32-bit DIB: negative height, BGRX byte order.
	bi := bitmapInfo{Header: bitmapInfoHeader{
		Width:    int32(width),
		Height:   -int32(height),
		Planes:   1,
		BitCount: 32,
	}}
	bi.Header.Size = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.Compression = biRGB

	pixels := make([]byte, width*height*4)
	lines, _, err := procGetDIBits.Call(
		memDC, bmp, 0, uintptr(height),
		uintptr(unsafe.Pointer(&pixels[0])),
		uintptr(unsafe.Pointer(&bi)),
		dibRGBColors,
	)
	if lines == 0 {
		return "", fmt.Errorf("GetDIBits: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i+3 < len(pixels); i += 4 {
		img.Pix[i+0] = pixels[i+2]
		img.Pix[i+1] = pixels[i+1]
		img.Pix[i+2] = pixels[i+0]
		img.Pix[i+3] = 0xFF
	}
	return EncodeBase64PNG(img)
}
