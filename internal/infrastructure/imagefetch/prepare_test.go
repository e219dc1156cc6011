package imagefetch

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/DRSN-tech/image-search/internal/cfg"
	"github.com/DRSN-tech/image-search/pkg/e"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(&cfg.FetchCfg{Timeout: 0, MaxRetries: 1}, nil, nil, nopLogger{})
}

func opaquePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 200, B: 10, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func transparentPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 10, G: 10, B: 200, A: 128})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestPrepareOpaqueImagePassesThrough(t *testing.T) {
	f := newTestFetcher()
	data := opaquePNG(t, 8, 6)

	img, err := f.Prepare(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(img.Data, data) {
		t.Error("opaque image must not be re-encoded")
	}
	if img.MimeType != "image/png" {
		t.Errorf("expected image/png, got %s", img.MimeType)
	}
	if img.Width != 8 || img.Height != 6 {
		t.Errorf("unexpected dimensions: %dx%d", img.Width, img.Height)
	}
}

func TestPrepareFlattensAlphaChannel(t *testing.T) {
	f := newTestFetcher()

	img, err := f.Prepare(transparentPNG(t, 5, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if img.MimeType != "image/jpeg" {
		t.Errorf("expected re-encode to jpeg, got %s", img.MimeType)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("result is not a valid jpeg: %v", err)
	}
	if decoded.Bounds().Dx() != 5 || decoded.Bounds().Dy() != 5 {
		t.Errorf("dimensions changed: %v", decoded.Bounds())
	}
}

func TestPrepareEmptyData(t *testing.T) {
	f := newTestFetcher()

	if _, err := f.Prepare(nil); !errors.Is(err, e.ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}

func TestPrepareInvalidData(t *testing.T) {
	f := newTestFetcher()

	if _, err := f.Prepare([]byte("this is not an image")); !errors.Is(err, e.ErrDecodeFailed) {
		t.Errorf("expected ErrDecodeFailed, got %v", err)
	}
}
