package zipline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(url string) *Client {
	// Plain transport; auth header injection is covered separately.
	return &Client{BaseURL: url, HTTPClient: http.DefaultClient}
}

func TestUploadMultipartShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 1 {
			t.Fatalf("files parts = %d, want 1", len(files))
		}
		fh := files[0]
		if fh.Filename != "cover.png" {
			t.Errorf("filename = %q", fh.Filename)
		}
		if ct := fh.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("declared mime = %q", ct)
		}
		f, _ := fh.Open()
		data, _ := io.ReadAll(f)
		_ = f.Close()
		if string(data) != "png-bytes" {
			t.Errorf("file content = %q", data)
		}
		if got := r.FormValue("folder"); got != "art" {
			t.Errorf("folder field = %q", got)
		}
		if got := r.FormValue("isPublic"); got != "true" {
			t.Errorf("isPublic field = %q", got)
		}
		_, _ = w.Write([]byte(`{"success":true,"files":[{"id":"abc123"}]}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	url, err := c.Upload(context.Background(), UploadRequest{
		Filename: "cover.png",
		MimeType: "image/png",
		Data:     []byte("png-bytes"),
		Folder:   "art",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != server.URL+"/files/abc123" {
		t.Errorf("url = %q, want %q", url, server.URL+"/files/abc123")
	}
}

func TestUploadOmitsFolderWhenEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, ok := r.MultipartForm.Value["folder"]; ok {
			t.Error("folder field present, want omitted")
		}
		_, _ = w.Write([]byte(`{"success":true,"files":[{"id":"x"}]}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	if _, err := c.Upload(context.Background(), UploadRequest{Filename: "f.bin", Data: []byte{1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUploadDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Upload(context.Background(), UploadRequest{Filename: "f.bin", Data: []byte{1}})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if de.Body != "<html>bad gateway</html>" {
		t.Errorf("raw body = %q", de.Body)
	}
}

func TestUploadServiceError(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantReason string
	}{
		{"service-reported reason", `{"success":false,"error":"disk full"}`, "disk full"},
		{"missing reason falls back", `{"success":false}`, "Unknown error"},
		{"success with no files", `{"success":true,"files":[]}`, "Unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			c := newTestClient(server.URL)
			_, err := c.Upload(context.Background(), UploadRequest{Filename: "f.bin", Data: []byte{1}})
			var se *ServiceError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want *ServiceError", err)
			}
			if se.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", se.Reason, tt.wantReason)
			}
		})
	}
}

func TestNewInjectsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		_, _ = w.Write([]byte(`{"success":true,"files":[{"id":"x"}]}`))
	}))
	defer server.Close()

	c := New(server.URL+"/", "sekrit")
	if c.BaseURL != server.URL {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", c.BaseURL)
	}
	if _, err := c.Upload(context.Background(), UploadRequest{Filename: "f.bin", Data: []byte{1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUploadRequiresFilename(t *testing.T) {
	c := newTestClient("http://example.invalid")
	if _, err := c.Upload(context.Background(), UploadRequest{}); err == nil {
		t.Error("expected error for empty filename")
	}
}
