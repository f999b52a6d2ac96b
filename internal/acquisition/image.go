// Package acquisition turns user-supplied photos into image payloads for the
// analysis service and tracks which acquisition view is active.
package acquisition

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozaktomas/facefit/internal/constants"
)

// NoticeNotImage is the user-visible notice for rejected files.
const NoticeNotImage = "Please select an image file."

var (
	// ErrNotImage is returned for payloads whose declared type is not an image.
	ErrNotImage = errors.New("not an image")
	// ErrEmpty is returned for zero-length payloads.
	ErrEmpty = errors.New("empty image")
	// ErrTooLarge is returned for payloads above constants.MaxUploadSize.
	ErrTooLarge = errors.New("image too large")
)

// Source identifies where an image came from.
type Source string

const (
	SourceFile   Source = "file"
	SourceDrop   Source = "drop"
	SourceCamera Source = "camera"
)

// ParseSource maps a form value to a Source, defaulting to SourceFile.
func ParseSource(s string) Source {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceDrop:
		return SourceDrop
	case SourceCamera:
		return SourceCamera
	default:
		return SourceFile
	}
}

// Image is one photo ready to be sent for analysis.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
	Source      Source
}

// Validate checks that the payload declares an image type and is not empty.
func Validate(img *Image) error {
	if img == nil || !IsImageType(img.ContentType) {
		return ErrNotImage
	}
	if len(img.Data) == 0 {
		return ErrEmpty
	}
	if len(img.Data) > constants.MaxUploadSize {
		return ErrTooLarge
	}
	return nil
}

// IsImageType reports whether a declared MIME type belongs to the image category.
func IsImageType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// FromMultipart reads an uploaded form file. The declared part type is kept as is
// and only sniffed when the browser sent none; callers run Validate before doing
// anything with the result.
func FromMultipart(fh *multipart.FileHeader, source Source) (*Image, error) {
	if fh.Size > constants.MaxUploadSize {
		return nil, ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := readLimited(f)
	if err != nil {
		return nil, err
	}

	contentType := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = sniffType(data)
	}

	return &Image{
		Name:        filepath.Base(fh.Filename),
		ContentType: contentType,
		Data:        data,
		Source:      source,
	}, nil
}

// FromFile reads a photo from disk. The type is derived from the extension,
// falling back to content sniffing for unknown extensions.
func FromFile(path string) (*Image, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided file path for analysis
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer f.Close()

	data, err := readLimited(f)
	if err != nil {
		return nil, err
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = sniffType(data)
	}

	return &Image{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
		Source:      SourceFile,
	}, nil
}

// sniffType detects a MIME type from content, without parameters.
func sniffType(data []byte) string {
	contentType := http.DetectContentType(data)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return contentType
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, constants.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("could not read image data: %w", err)
	}
	if len(data) > constants.MaxUploadSize {
		return nil, ErrTooLarge
	}
	return data, nil
}
