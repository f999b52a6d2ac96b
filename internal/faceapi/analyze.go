package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/kozaktomas/facefit/internal/acquisition"
	"github.com/kozaktomas/facefit/internal/constants"
)

// AnalyzeImage uploads img for analysis. The call is bounded by the client
// timeout; every failure is returned as *Error.
func (c *Client) AnalyzeImage(ctx context.Context, img *acquisition.Image) (*AnalysisResult, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, &Error{Message: "no image to analyze", Err: acquisition.ErrEmpty}
	}

	body, contentType, err := buildMultipart(img)
	if err != nil {
		return nil, &Error{Message: err.Error(), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL("analyze"), body)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("could not create request: %v", err), Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from validated parsedURL via resolveURL
	if err != nil {
		return nil, transportError(err, c)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err, c)
	}

	c.captureResponse("analyze", data)

	var result AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("invalid response from analysis service: %v", err),
			Err:        err,
		}
	}
	return &result, nil
}

// buildMultipart packs img under the "image" field, keeping its declared type.
func buildMultipart(img *acquisition.Image) (io.Reader, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	name := img.Name
	if name == "" {
		name = "photo"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		constants.ImageFieldName, escapeQuotes(name)))
	header.Set("Content-Type", img.ContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", fmt.Errorf("could not copy file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("could not close writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func transportError(err error, c *Client) *Error {
	if isTimeoutErr(err) {
		return &Error{
			Message: fmt.Sprintf("analysis timed out after %s", c.timeout),
			Timeout: true,
			Err:     err,
		}
	}
	msg := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		msg = "could not reach analysis service: " + urlErr.Err.Error()
	}
	return &Error{Message: msg, Err: err}
}

// statusError prefers the service's own {"error": "..."} message.
func statusError(resp *http.Response) *Error {
	snippet := readErrorBody(resp.Body)

	var payload errorResponse
	if err := json.Unmarshal([]byte(snippet), &payload); err == nil && payload.Error != "" {
		return &Error{StatusCode: resp.StatusCode, Message: payload.Error}
	}

	msg := fmt.Sprintf("request failed with status %d", resp.StatusCode)
	if snippet != "" && !strings.HasPrefix(snippet, "<") {
		msg += ": " + snippet
	}
	return &Error{StatusCode: resp.StatusCode, Message: msg}
}
