// Package faceapi is the client for the external face-shape analysis service.
package faceapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/facefit/internal/constants"
)

// Client talks to the analysis service. It performs no retries; every call
// results in exactly one HTTP request.
type Client struct {
	URL        string
	parsedURL  *url.URL
	httpClient *http.Client
	timeout    time.Duration
	captureDir string
}

// NewClient creates a client for the service at rawURL. A zero timeout
// selects constants.AnalyzeTimeout.
func NewClient(rawURL string, timeout time.Duration) (*Client, error) {
	if rawURL == "" {
		rawURL = constants.DefaultAPIURL
	}
	parsed, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid analysis service URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid analysis service URL %q: scheme must be http or https", rawURL)
	}
	if timeout <= 0 {
		timeout = constants.AnalyzeTimeout
	}
	return &Client{
		URL:        parsed.String(),
		parsedURL:  parsed,
		httpClient: &http.Client{},
		timeout:    timeout,
	}, nil
}

// NewClientWithCapture creates a client that also writes every response body
// to captureDir. Pass an empty captureDir to disable capturing.
func NewClientWithCapture(rawURL string, timeout time.Duration, captureDir string) (*Client, error) {
	c, err := NewClient(rawURL, timeout)
	if err != nil {
		return nil, err
	}
	if err := c.SetCaptureDir(captureDir); err != nil {
		return nil, err
	}
	return c, nil
}

// Timeout returns the bound applied to analyze calls.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// resolveURL builds a full URL from the base URL and the given path segments.
func (c *Client) resolveURL(pathSegments ...string) string {
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// SetCaptureDir enables response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (c *Client) SetCaptureDir(dir string) error {
	if dir == "" {
		c.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	c.captureDir = dir
	return nil
}

// captureResponse saves a response body to a file if capturing is enabled.
func (c *Client) captureResponse(endpoint string, body []byte) {
	if c.captureDir == "" {
		return
	}

	name := strings.Trim(strings.ReplaceAll(endpoint, "/", "_"), "_")
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s_%s.json", name, timestamp, uuid.NewString()[:8])
	path := filepath.Join(c.captureDir, filename)

	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
		body = prettyJSON.Bytes()
	}

	// Capturing is a debugging aid, a failed write must not fail the call
	if err := os.WriteFile(path, body, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to capture response to %s: %v\n", path, err)
	}
}

// readErrorBody reads a bounded snippet of an error response body.
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 2048))
	if err != nil {
		return "(could not read error body)"
	}
	return strings.TrimSpace(string(body))
}
