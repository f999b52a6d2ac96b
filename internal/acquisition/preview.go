package acquisition

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/facefit/internal/constants"
)

// PreviewResult is the outcome of an asynchronous preview decode.
type PreviewResult struct {
	DataURL string
	Err     error
}

// PreviewAsync decodes img into a displayable data URL on its own goroutine.
// The channel receives exactly one result and is then closed.
func PreviewAsync(ctx context.Context, img *Image) <-chan PreviewResult {
	out := make(chan PreviewResult, 1)
	go func() {
		defer close(out)
		if err := ctx.Err(); err != nil {
			out <- PreviewResult{Err: err}
			return
		}
		dataURL, err := DataURL(img, constants.MaxPreviewSize)
		out <- PreviewResult{DataURL: dataURL, Err: err}
	}()
	return out
}

// DataURL encodes img as a data URL. Images larger than maxSize in either
// dimension are downscaled and re-encoded as JPEG; images that cannot be
// decoded are embedded unchanged so the browser can still try to show them.
func DataURL(img *Image, maxSize int) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", ErrEmpty
	}

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return encodeDataURL(img.ContentType, img.Data), nil
	}

	bounds := decoded.Bounds()
	if bounds.Dx() <= maxSize && bounds.Dy() <= maxSize {
		return encodeDataURL(img.ContentType, img.Data), nil
	}

	scaled, err := EncodeJPEG(decoded, maxSize, constants.PreviewQuality)
	if err != nil {
		return "", err
	}
	return encodeDataURL("image/jpeg", scaled), nil
}

// EncodeJPEG encodes img as JPEG at the given quality. A positive maxSize
// downscales images larger than that in either dimension, keeping aspect ratio.
func EncodeJPEG(img image.Image, maxSize, quality int) ([]byte, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxSize > 0 && (width > maxSize || height > maxSize) {
		var newWidth, newHeight int
		if width > height {
			newWidth = maxSize
			newHeight = max(1, int(float64(height)*float64(maxSize)/float64(width)))
		} else {
			newHeight = maxSize
			newWidth = max(1, int(float64(width)*float64(maxSize)/float64(height)))
		}

		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		img = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeDataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
