package camera

import (
	"context"
	"fmt"
	"sync"

	"github.com/kozaktomas/facefit/internal/acquisition"
	"github.com/kozaktomas/facefit/internal/constants"
)

// Session owns at most one stream between Start and Capture or Cancel.
type Session struct {
	device Device

	mu     sync.Mutex
	stream Stream
	tracks []*Track
}

// NewSession creates an idle session for device.
func NewSession(device Device) *Session {
	return &Session{device: device}
}

// Start opens the device. Starting a session that already holds a stream
// keeps the existing stream.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		return nil
	}

	stream, err := s.device.Open(ctx)
	if err != nil {
		return err
	}
	s.stream = stream
	s.tracks = stream.Tracks()
	return nil
}

// Active reports whether the session holds a live stream.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream != nil
}

// Preview returns the current frame as a downscaled JPEG.
func (s *Session) Preview(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()

	if stream == nil {
		return nil, ErrNoStream
	}

	frame, err := stream.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not read frame: %w", err)
	}
	return acquisition.EncodeJPEG(frame, constants.MaxPreviewSize, constants.PreviewQuality)
}

// Capture takes one still frame at native resolution and releases the stream.
// The stream is released even when reading the frame fails.
func (s *Session) Capture(ctx context.Context) (*acquisition.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return nil, ErrNoStream
	}
	defer s.releaseLocked()

	frame, err := s.stream.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not capture frame: %w", err)
	}

	data, err := acquisition.EncodeJPEG(frame, 0, constants.CaptureQuality)
	if err != nil {
		return nil, err
	}

	return &acquisition.Image{
		Name:        constants.CaptureFileName,
		ContentType: constants.CaptureContentType,
		Data:        data,
		Source:      acquisition.SourceCamera,
	}, nil
}

// Cancel releases the stream without capturing. It is a no-op on an idle session.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
	return nil
}

// ActiveTracks returns the number of live tracks of the last opened stream.
func (s *Session) ActiveTracks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CountActive(s.tracks)
}

func (s *Session) releaseLocked() {
	if s.stream == nil {
		return
	}
	s.stream.Stop()
	for _, t := range s.tracks {
		t.Stop()
	}
	s.stream = nil
}
