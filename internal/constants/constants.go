// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Analysis service constants
const (
	// DefaultAPIURL is the analysis service base URL used when no override is configured
	DefaultAPIURL = "http://localhost:5001"

	// AnalyzeTimeout bounds a single analyze call, leaving room for server-side landmark detection
	AnalyzeTimeout = 30 * time.Second

	// ImageFieldName is the multipart field the analysis service reads the photo from
	ImageFieldName = "image"

	// GenericAnalysisError is shown when a failure carries no usable message
	GenericAnalysisError = "Analysis failed. Please try again."
)

// Image constants
const (
	// MaxPreviewSize is the maximum dimension (width or height) of a rendered preview
	MaxPreviewSize = 1024

	// PreviewQuality is the JPEG quality used when a preview has to be re-encoded
	PreviewQuality = 85

	// CaptureQuality is the JPEG quality of camera stills (0.8 on the browser's 0..1 scale)
	CaptureQuality = 80

	// CaptureFileName is the file name given to camera stills
	CaptureFileName = "camera-photo.jpg"

	// CaptureContentType is the MIME type of camera stills
	CaptureContentType = "image/jpeg"
)
