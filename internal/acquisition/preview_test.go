package acquisition

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"
)

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDataURL_SmallImageUnchanged(t *testing.T) {
	data := testPNG(t, 10, 10)

	url, err := DataURL(&Image{ContentType: "image/png", Data: data}, 100)
	if err != nil {
		t.Fatalf("DataURL failed: %v", err)
	}

	expected := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	if url != expected {
		t.Error("expected small image to be embedded unchanged")
	}
}

func TestDataURL_LargeImageDownscaled(t *testing.T) {
	data := testPNG(t, 200, 100)

	url, err := DataURL(&Image{ContentType: "image/png", Data: data}, 50)
	if err != nil {
		t.Fatalf("DataURL failed: %v", err)
	}

	prefix := "data:image/jpeg;base64,"
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("expected jpeg data URL, got prefix %q", url[:min(len(url), 30)])
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to decode jpeg: %v", err)
	}
	if decoded.Bounds().Dx() != 50 || decoded.Bounds().Dy() != 25 {
		t.Errorf("expected 50x25 preview, got %dx%d", decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
}

func TestDataURL_UndecodableEmbedded(t *testing.T) {
	url, err := DataURL(&Image{ContentType: "image/heic", Data: []byte("heic bytes")}, 100)
	if err != nil {
		t.Fatalf("DataURL failed: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/heic;base64,") {
		t.Errorf("expected raw embed with declared type, got %q", url)
	}
}

func TestDataURL_Empty(t *testing.T) {
	if _, err := DataURL(&Image{ContentType: "image/png"}, 100); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestPreviewAsync(t *testing.T) {
	ch := PreviewAsync(context.Background(), &Image{ContentType: "image/png", Data: testPNG(t, 8, 8)})

	select {
	case res := <-ch:
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if !strings.HasPrefix(res.DataURL, "data:image/png;base64,") {
			t.Errorf("unexpected data URL prefix: %q", res.DataURL[:min(len(res.DataURL), 30)])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("preview did not complete")
	}

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after one result")
	}
}

func TestPreviewAsync_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := <-PreviewAsync(ctx, &Image{ContentType: "image/png", Data: testPNG(t, 8, 8)})
	if res.Err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestEncodeJPEG_NativeSize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))

	data, err := EncodeJPEG(img, 0, 80)
	if err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a jpeg: %v", err)
	}
	if cfg.Width != 320 || cfg.Height != 240 {
		t.Errorf("expected native 320x240, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestEncodeJPEG_Downscales(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 400))

	data, err := EncodeJPEG(img, 100, 85)
	if err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a jpeg: %v", err)
	}
	if cfg.Width != 50 || cfg.Height != 100 {
		t.Errorf("expected 50x100, got %dx%d", cfg.Width, cfg.Height)
	}
}
