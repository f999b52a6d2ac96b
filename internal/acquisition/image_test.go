package acquisition

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
)

// formFile builds a parsed multipart file header with the given declared type.
func formFile(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	part.Write(data)
	writer.Close()

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("failed to read form: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })

	files := form.File["image"]
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	return files[0]
}

func TestIsImageType(t *testing.T) {
	tests := []struct {
		contentType string
		expected    bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"IMAGE/WEBP", true},
		{" image/gif", true},
		{"application/pdf", false},
		{"text/plain", false},
		{"", false},
		{"imagex/png", false},
	}

	for _, tc := range tests {
		t.Run(tc.contentType, func(t *testing.T) {
			if got := IsImageType(tc.contentType); got != tc.expected {
				t.Errorf("IsImageType(%q) = %v, expected %v", tc.contentType, got, tc.expected)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(&Image{ContentType: "image/jpeg", Data: []byte("x")}); err != nil {
		t.Errorf("expected valid image, got %v", err)
	}

	if err := Validate(&Image{ContentType: "application/pdf", Data: []byte("x")}); !errors.Is(err, ErrNotImage) {
		t.Errorf("expected ErrNotImage, got %v", err)
	}

	if err := Validate(&Image{ContentType: "image/png"}); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}

	if err := Validate(nil); !errors.Is(err, ErrNotImage) {
		t.Errorf("expected ErrNotImage for nil image, got %v", err)
	}
}

func TestParseSource(t *testing.T) {
	if ParseSource("drop") != SourceDrop {
		t.Error("expected drop source")
	}
	if ParseSource("Camera") != SourceCamera {
		t.Error("expected camera source")
	}
	if ParseSource("") != SourceFile {
		t.Error("expected file source for empty value")
	}
	if ParseSource("clipboard") != SourceFile {
		t.Error("expected file source for unknown value")
	}
}

func TestFromMultipart(t *testing.T) {
	fh := formFile(t, "../../face.png", "image/png", []byte("fake png data"))

	img, err := FromMultipart(fh, SourceDrop)
	if err != nil {
		t.Fatalf("FromMultipart failed: %v", err)
	}

	if img.Name != "face.png" {
		t.Errorf("expected sanitized name 'face.png', got '%s'", img.Name)
	}
	if img.ContentType != "image/png" {
		t.Errorf("expected content type 'image/png', got '%s'", img.ContentType)
	}
	if string(img.Data) != "fake png data" {
		t.Errorf("unexpected data: %q", img.Data)
	}
	if img.Source != SourceDrop {
		t.Errorf("expected source drop, got %s", img.Source)
	}
}

func TestFromMultipart_KeepsDeclaredNonImageType(t *testing.T) {
	fh := formFile(t, "notes.txt", "text/plain", []byte("hello"))

	img, err := FromMultipart(fh, SourceFile)
	if err != nil {
		t.Fatalf("FromMultipart failed: %v", err)
	}

	if err := Validate(img); !errors.Is(err, ErrNotImage) {
		t.Errorf("expected text upload to be rejected, got %v", err)
	}
}

func TestFromMultipart_SniffsMissingType(t *testing.T) {
	fh := formFile(t, "blob", "", testPNG(t, 4, 4))

	img, err := FromMultipart(fh, SourceDrop)
	if err != nil {
		t.Fatalf("FromMultipart failed: %v", err)
	}
	if img.ContentType != "image/png" {
		t.Errorf("expected sniffed 'image/png', got '%s'", img.ContentType)
	}
	if img.Source != SourceDrop {
		t.Errorf("expected drop source, got '%s'", img.Source)
	}
}

func TestFromFile_TypeFromExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portrait.jpg")
	if err := os.WriteFile(path, []byte("not really a jpeg"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	img, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}

	if img.ContentType != "image/jpeg" {
		t.Errorf("expected 'image/jpeg', got '%s'", img.ContentType)
	}
	if img.Name != "portrait.jpg" {
		t.Errorf("expected name 'portrait.jpg', got '%s'", img.Name)
	}
}

func TestFromFile_SniffsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload")
	if err := os.WriteFile(path, testPNG(t, 4, 4), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	img, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}

	if img.ContentType != "image/png" {
		t.Errorf("expected sniffed 'image/png', got '%s'", img.ContentType)
	}
}

func TestFromFile_Missing(t *testing.T) {
	if _, err := FromFile(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}
