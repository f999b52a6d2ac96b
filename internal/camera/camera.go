// Package camera owns live camera streams and turns single frames into
// image payloads for analysis.
package camera

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
)

// NoticeUnavailable is the user-visible notice for any failure to open the camera.
const NoticeUnavailable = "Could not access camera. Please check permissions."

var (
	// ErrDeviceUnavailable is returned when no camera can be reached.
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	// ErrPermissionDenied is returned when the camera refuses access.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrNoStream is returned when a session is used without a live stream.
	ErrNoStream = errors.New("no active camera stream")
)

// Device opens camera streams.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is a live camera feed. Stop releases every track and must be safe
// to call more than once.
type Stream interface {
	Tracks() []*Track
	Frame(ctx context.Context) (image.Image, error)
	Stop()
}

// Track is one media track of a stream.
type Track struct {
	Kind  string
	Label string

	stopped atomic.Bool
}

// NewTrack returns a live track.
func NewTrack(kind, label string) *Track {
	return &Track{Kind: kind, Label: label}
}

// Stop ends the track.
func (t *Track) Stop() {
	t.stopped.Store(true)
}

// Active reports whether the track has not been stopped.
func (t *Track) Active() bool {
	return !t.stopped.Load()
}

// CountActive returns how many of tracks are still live.
func CountActive(tracks []*Track) int {
	n := 0
	for _, t := range tracks {
		if t.Active() {
			n++
		}
	}
	return n
}
