// Package zipline wraps the destination upload API (POST /api/upload) for the single
// purpose of relaying chat attachments. The response body is always read in full
// before decoding so a malformed body can be reported verbatim.
package zipline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"golang.org/x/oauth2"
)

// Client uploads files to a Zipline-style storage service. HTTPClient is expected
// to carry the bearer credential (see New).
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New builds a Client whose transport injects the bearer token on every request.
func New(baseURL, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: oauth2.NewClient(context.Background(), ts),
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// DecodeError reports a response body that could not be parsed as the service's
// JSON shape. Body carries the raw text to aid diagnosis.
type DecodeError struct {
	Body string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid response: %s", e.Body)
}

// ServiceError reports a decoded response with success=false. Reason is the
// service-reported error, or "Unknown error" when the service gave none.
type ServiceError struct {
	Reason string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("upload rejected: %s", e.Reason)
}

// UploadRequest describes one file to relay.
type UploadRequest struct {
	Filename string
	MimeType string
	Data     []byte
	Folder   string // empty means no folder field is sent
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Upload POSTs a multipart payload (files part with declared mime type, optional
// folder, isPublic fixed to "true") and returns the public reference
// "<base>/files/<first file id>" on success.
func (c *Client) Upload(ctx context.Context, ur UploadRequest) (string, error) {
	if ur.Filename == "" {
		return "", fmt.Errorf("filename empty")
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(ur.Filename)))
	mime := ur.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	header.Set("Content-Type", mime)
	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create multipart: %w", err)
	}
	if _, err := part.Write(ur.Data); err != nil {
		return "", fmt.Errorf("write multipart: %w", err)
	}
	if ur.Folder != "" {
		if err := w.WriteField("folder", ur.Folder); err != nil {
			return "", fmt.Errorf("write folder field: %w", err)
		}
	}
	if err := w.WriteField("isPublic", "true"); err != nil {
		return "", fmt.Errorf("write isPublic field: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/upload", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := c.http().Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("upload request: read body: %w", err)
	}
	var body struct {
		Success bool `json:"success"`
		Files   []struct {
			ID string `json:"id"`
		} `json:"files"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", &DecodeError{Body: string(raw)}
	}
	if !body.Success {
		reason := body.Error
		if reason == "" {
			reason = "Unknown error"
		}
		return "", &ServiceError{Reason: reason}
	}
	if len(body.Files) == 0 {
		return "", &ServiceError{Reason: "Unknown error"}
	}
	return c.BaseURL + "/files/" + body.Files[0].ID, nil
}
