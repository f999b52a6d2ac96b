// Package constants provides shared constants used across the codebase.
package constants

import "time"

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for state event channels
	EventChannelBuffer = 16
)

// File upload constants
const (
	// MaxUploadSize is the maximum photo upload size in bytes (20MB)
	MaxUploadSize = 20 << 20
)

// Rate limit constants
const (
	// DefaultAnalyzeRPS is the default number of analyze submissions allowed per second per session
	DefaultAnalyzeRPS = 1

	// DefaultAnalyzeBurst is the default analyze submission burst per session
	DefaultAnalyzeBurst = 3
)

// Session constants
const (
	// SessionDuration is how long an idle browser session is kept
	SessionDuration = 24 * time.Hour

	// SessionCleanupInterval is how often expired sessions are swept
	SessionCleanupInterval = 10 * time.Minute
)
