// Package screenshot produces base64-encoded PNG images of the current
// drawing, either by capturing the live window or by rendering the headless
// document model.
package screenshot

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
)

// ErrUnavailable reports that no capture path exists on this host.
var ErrUnavailable = errors.New("screenshot capture unavailable")

// Provider yields one screenshot per call as a base64 PNG.
type Provider interface {
	Capture() (string, error)
}

// Func adapts a plain function to Provider.
type Func func() (string, error)

func (f Func) Capture() (string, error) { return f() }

// Null always fails; used where no capture path exists.
type Null struct{}

func (Null) Capture() (string, error) { return "", ErrUnavailable }

// EncodeBase64PNG encodes an image as PNG and wraps it in base64, the wire
// form screenshots travel in.
func EncodeBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
