package screenshot

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

// testDataURL builds a PNG data URL of the given size with a red pixel
// at (markX, markY).
func testDataURL(t *testing.T, w, h, markX, markY int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(markX, markY, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decode(t *testing.T, dataURL string) image.Image {
	t.Helper()
	idx := strings.Index(dataURL, ";base64,")
	raw, err := base64.StdEncoding.DecodeString(dataURL[idx+len(";base64,"):])
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decoding result image: %v", err)
	}
	return img
}

func TestCropDataURL(t *testing.T) {
	src := testDataURL(t, 100, 80, 15, 25)

	out, mime, err := CropDataURL(src, Rect{X: 10, Y: 20, Width: 30, Height: 40}, 1)
	if err != nil {
		t.Fatalf("CropDataURL: %v", err)
	}
	if mime != "image/png" {
		t.Errorf("unexpected mime: %s", mime)
	}

	img := decode(t, out)
	b := img.Bounds()
	if b.Dx() != 30 || b.Dy() != 40 {
		t.Errorf("expected 30x40 crop, got %dx%d", b.Dx(), b.Dy())
	}
	// The marked pixel sat at (15,25) in the source, (5,5) in the crop.
	r, _, _, _ := img.At(b.Min.X+5, b.Min.Y+5).RGBA()
	if r == 0 {
		t.Error("expected marked pixel inside crop")
	}
}

func TestCropDataURLScalesByDPR(t *testing.T) {
	// A 2x display: the screenshot is 200x160 device pixels for a
	// 100x80 CSS viewport.
	src := testDataURL(t, 200, 160, 0, 0)

	out, _, err := CropDataURL(src, Rect{X: 10, Y: 20, Width: 30, Height: 40}, 2)
	if err != nil {
		t.Fatalf("CropDataURL: %v", err)
	}

	b := decode(t, out).Bounds()
	if b.Dx() != 60 || b.Dy() != 80 {
		t.Errorf("expected 60x80 device-pixel crop, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCropDataURLClampsToBounds(t *testing.T) {
	src := testDataURL(t, 50, 50, 0, 0)

	out, _, err := CropDataURL(src, Rect{X: 40, Y: 40, Width: 30, Height: 30}, 1)
	if err != nil {
		t.Fatalf("CropDataURL: %v", err)
	}
	b := decode(t, out).Bounds()
	if b.Dx() != 10 || b.Dy() != 10 {
		t.Errorf("expected clamped 10x10 crop, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCropDataURLErrors(t *testing.T) {
	src := testDataURL(t, 50, 50, 0, 0)

	cases := []struct {
		name    string
		dataURL string
		rect    Rect
		code    string
	}{
		{"zero dimensions", src, Rect{Width: 0, Height: 10}, CodeZeroDimensions},
		{"not a data url", "http://example.com/x.png", Rect{Width: 10, Height: 10}, CodeCaptureFailed},
		{"not base64", "data:image/png,plain", Rect{Width: 10, Height: 10}, CodeCaptureFailed},
		{"garbage payload", "data:image/png;base64,!!!", Rect{Width: 10, Height: 10}, CodeImageLoad},
		{"rect outside image", src, Rect{X: 100, Y: 100, Width: 10, Height: 10}, CodeCropFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := CropDataURL(tc.dataURL, tc.rect, 1)
			var serr *Error
			if !errors.As(err, &serr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if serr.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, serr.Code)
			}
		})
	}
}
