// Package screenshot crops page screenshots to a clipped element's
// bounds. Screenshots arrive as data URLs of the visible tab at device
// resolution; the element rect is in CSS pixels, so cropping scales by
// the device pixel ratio first.
package screenshot

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"strings"
)

// Error codes surfaced to the clipper so it can message the user
// precisely about what went wrong.
const (
	CodeInvalidElement = "INVALID_ELEMENT"
	CodeZeroDimensions = "ZERO_DIMENSIONS"
	CodeCaptureFailed  = "CAPTURE_FAILED"
	CodeCropFailed     = "CROP_FAILED"
	CodeImageLoad      = "IMAGE_LOAD_ERROR"
)

// Error is a screenshot failure with a machine-readable code.
type Error struct {
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("screenshot: %s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("screenshot: %s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Rect is an element's bounding box in CSS pixels, viewport-relative.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CropDataURL crops the screenshot in dataURL to rect, scaled by dpr
// (device pixels per CSS pixel; values <= 0 mean 1). It returns the
// cropped image as a PNG data URL plus its mime type.
func CropDataURL(dataURL string, rect Rect, dpr float64) (string, string, error) {
	if rect.Width <= 0 || rect.Height <= 0 {
		return "", "", &Error{Code: CodeZeroDimensions, Msg: fmt.Sprintf("element rect %gx%g has no area", rect.Width, rect.Height)}
	}
	if dpr <= 0 {
		dpr = 1
	}

	raw, err := decodeDataURL(dataURL)
	if err != nil {
		return "", "", err
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", "", &Error{Code: CodeImageLoad, Msg: "decoding screenshot", Err: err}
	}

	crop := image.Rect(
		int(rect.X*dpr),
		int(rect.Y*dpr),
		int((rect.X+rect.Width)*dpr),
		int((rect.Y+rect.Height)*dpr),
	).Intersect(src.Bounds())
	if crop.Empty() {
		return "", "", &Error{Code: CodeCropFailed, Msg: fmt.Sprintf("rect %+v outside screenshot bounds %v", rect, src.Bounds())}
	}

	sub, ok := src.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return "", "", &Error{Code: CodeCropFailed, Msg: fmt.Sprintf("image type %T does not support cropping", src)}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, sub.SubImage(crop)); err != nil {
		return "", "", &Error{Code: CodeCropFailed, Msg: "encoding cropped image", Err: err}
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), "image/png", nil
}

// decodeDataURL extracts the raw image bytes from a base64 data URL.
func decodeDataURL(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return nil, &Error{Code: CodeCaptureFailed, Msg: "screenshot is not an image data URL"}
	}
	idx := strings.Index(dataURL, ";base64,")
	if idx < 0 {
		return nil, &Error{Code: CodeCaptureFailed, Msg: "screenshot data URL is not base64-encoded"}
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[idx+len(";base64,"):])
	if err != nil {
		return nil, &Error{Code: CodeImageLoad, Msg: "decoding base64 payload", Err: err}
	}
	return raw, nil
}
