package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/kozaktomas/facefit/internal/constants"
)

// MJPEGDevice is a network camera that serves a multipart/x-mixed-replace
// stream of JPEG frames over HTTP.
type MJPEGDevice struct {
	URL        string
	httpClient *http.Client
}

// NewMJPEGDevice creates a device for the stream at rawURL.
func NewMJPEGDevice(rawURL string) (*MJPEGDevice, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid camera URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid camera URL %q: scheme must be http or https", rawURL)
	}
	return &MJPEGDevice{URL: parsed.String(), httpClient: &http.Client{}}, nil
}

// Open connects to the camera. ctx bounds the connection attempt only, the
// returned stream lives until Stop.
func (d *MJPEGDevice) Open(ctx context.Context) (Stream, error) {
	streamCtx, cancel := context.WithCancel(context.Background())
	stop := context.AfterFunc(ctx, cancel)

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, d.URL, nil)
	if err != nil {
		stop()
		cancel()
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := d.httpClient.Do(req) //nolint:gosec // URL validated in NewMJPEGDevice
	stop()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: status %d", ErrPermissionDenied, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: status %d", ErrDeviceUnavailable, resp.StatusCode)
	}

	boundary, err := streamBoundary(resp.Header.Get("Content-Type"))
	if err != nil {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	s := &mjpegStream{
		body:   resp.Body,
		cancel: cancel,
		tracks: []*Track{NewTrack("video", d.URL)},
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run(multipart.NewReader(resp.Body, boundary))
	return s, nil
}

func streamBoundary(contentType string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("invalid content type %q: %w", contentType, err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return "", fmt.Errorf("unexpected content type %q", mediaType)
	}
	boundary := strings.TrimPrefix(params["boundary"], "--")
	if boundary == "" {
		return "", errors.New("missing multipart boundary")
	}
	return boundary, nil
}

// mjpegStream keeps the most recent frame read from the feed.
type mjpegStream struct {
	body   io.ReadCloser
	cancel context.CancelFunc
	tracks []*Track

	mu    sync.Mutex
	frame []byte
	err   error

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	stopOnce  sync.Once
}

func (s *mjpegStream) run(mr *multipart.Reader) {
	defer close(s.done)
	for {
		part, err := mr.NextPart()
		if err != nil {
			s.finish(err)
			return
		}
		data, err := io.ReadAll(io.LimitReader(part, constants.MaxUploadSize))
		part.Close()
		if err != nil {
			s.finish(err)
			return
		}
		if len(data) == 0 {
			continue
		}

		s.mu.Lock()
		s.frame = data
		s.mu.Unlock()
		s.readyOnce.Do(func() { close(s.ready) })
	}
}

func (s *mjpegStream) finish(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *mjpegStream) Tracks() []*Track {
	return s.tracks
}

// Frame returns the latest frame, waiting for the first one to arrive.
func (s *mjpegStream) Frame(ctx context.Context) (image.Image, error) {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	frame, streamErr := s.frame, s.err
	s.mu.Unlock()

	if CountActive(s.tracks) == 0 {
		return nil, ErrNoStream
	}
	if frame == nil {
		if streamErr == nil || errors.Is(streamErr, io.EOF) {
			return nil, ErrNoStream
		}
		return nil, fmt.Errorf("camera stream ended: %w", streamErr)
	}

	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("could not decode frame: %w", err)
	}
	return img, nil
}

// Stop closes the feed and waits for the reader to exit.
func (s *mjpegStream) Stop() {
	s.stopOnce.Do(func() {
		for _, t := range s.tracks {
			t.Stop()
		}
		s.cancel()
		s.body.Close()
		<-s.done
	})
}
