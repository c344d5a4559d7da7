package handler

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/blob"
)

// Media slots a file can be uploaded for. The slot decides which content
// types are accepted: images for logo and image, MP4 for video, PDF for
// brochure and certificate.
var uploadKinds = map[string]bool{
	"logo":        true,
	"image":       true,
	"video":       true,
	"brochure":    true,
	"certificate": true,
}

const maxUploadBytes = 32 << 20

// UploadHandler accepts multipart media uploads from signed-in users and
// returns the URL the stored file is served from.
type UploadHandler struct {
	Store blob.Store
	Log   *zap.Logger
}

func NewUploadHandler(store blob.Store, log *zap.Logger) *UploadHandler {
	return &UploadHandler{Store: store, Log: log}
}

// Upload handles POST /v1/uploads. The content type is sniffed from the
// first bytes of the file, never trusted from the client headers.
func (h *UploadHandler) Upload(c echo.Context) error {
	kind := strings.ToLower(strings.TrimSpace(c.FormValue("kind")))
	if !uploadKinds[kind] {
		return badRequest(c, "unknown upload kind")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	if fh.Size > maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}

	src, err := fh.Open()
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return writeErr(c, h.Log, err)
	}
	mime := http.DetectContentType(head[:n])
	if !mimeAllowed(kind, mime) {
		return c.JSON(http.StatusUnsupportedMediaType, echo.Map{"error": "unsupported content type"})
	}

	url, err := h.Store.Save(kind, fh.Filename, io.MultiReader(bytes.NewReader(head[:n]), src))
	if err != nil {
		return writeErr(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"url": url})
}

func mimeAllowed(kind, mime string) bool {
	switch kind {
	case "logo", "image":
		return strings.HasPrefix(mime, "image/")
	case "video":
		return mime == "video/mp4"
	case "brochure", "certificate":
		return mime == "application/pdf"
	}
	return false
}
