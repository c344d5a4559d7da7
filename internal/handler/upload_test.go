package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type fakeBlobStore struct {
	kind string
	body []byte
	err  error
}

func (f *fakeBlobStore) Save(kind, filename string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.kind = kind
	f.body, _ = io.ReadAll(r)
	return "/media/" + kind + "/stored.bin", nil
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func multipartUpload(t *testing.T, kind, filename string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("kind", kind); err != nil {
		t.Fatal(err)
	}
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req, httptest.NewRecorder()
}

func TestUploadStoresAllowedFile(t *testing.T) {
	store := &fakeBlobStore{}
	h := NewUploadHandler(store, zap.NewNop())

	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 600)...)
	req, rec := multipartUpload(t, "logo", "logo.png", content)
	if err := h.Upload(echo.New().NewContext(req, rec)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.URL != "/media/logo/stored.bin" {
		t.Fatalf("url = %q", resp.URL)
	}
	if store.kind != "logo" {
		t.Fatalf("stored kind = %q", store.kind)
	}
	if !bytes.Equal(store.body, content) {
		t.Fatalf("stored %d bytes, want %d", len(store.body), len(content))
	}
}

func TestUploadAcceptsPDFForDocumentSlots(t *testing.T) {
	pdf := []byte("%PDF-1.7 minimal")
	for _, kind := range []string{"brochure", "certificate"} {
		store := &fakeBlobStore{}
		h := NewUploadHandler(store, zap.NewNop())
		req, rec := multipartUpload(t, kind, "doc.pdf", pdf)
		if err := h.Upload(echo.New().NewContext(req, rec)); err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("%s status = %d", kind, rec.Code)
		}
	}
}

func TestUploadRejectsWrongContentType(t *testing.T) {
	cases := []struct {
		kind    string
		content []byte
	}{
		{"logo", []byte("plain text pretending to be a logo")},
		{"video", []byte("%PDF-1.7 not a video")},
		{"brochure", pngHeader},
	}
	for _, tc := range cases {
		h := NewUploadHandler(&fakeBlobStore{}, zap.NewNop())
		req, rec := multipartUpload(t, tc.kind, "f.bin", tc.content)
		if err := h.Upload(echo.New().NewContext(req, rec)); err != nil {
			t.Fatalf("%s: %v", tc.kind, err)
		}
		if rec.Code != http.StatusUnsupportedMediaType {
			t.Fatalf("%s status = %d, want 415", tc.kind, rec.Code)
		}
	}
}

func TestUploadRejectsUnknownKind(t *testing.T) {
	h := NewUploadHandler(&fakeBlobStore{}, zap.NewNop())
	req, rec := multipartUpload(t, "avatar", "a.png", pngHeader)
	if err := h.Upload(echo.New().NewContext(req, rec)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unknown upload kind") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
