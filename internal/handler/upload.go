package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avelane/institut-booking/internal/config"
	"github.com/avelane/institut-booking/internal/utils"
)

// maxUploadBytes caps a single uploaded file at 5 MiB.
const maxUploadBytes = 5 << 20

var allowedUploadExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".pdf": true,
}

// UploadHandler stores back-office uploads (service photos, documents) on
// local disk and hands back a public URL.
type UploadHandler struct {
	Cfg config.Config
}

func NewUploadHandler(cfg config.Config) *UploadHandler {
	return &UploadHandler{Cfg: cfg}
}

// Upload accepts one multipart file under the "file" field.
// POST /v1/admin/uploads
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file required"})
	}
	if fh.Size > maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedUploadExt[ext] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported file type"})
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read upload failed"})
	}
	defer src.Close()

	if err := os.MkdirAll(h.Cfg.UploadDir, 0o755); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store upload failed"})
	}

	// Random name: uploads are referenced by URL only, original names are
	// untrusted input.
	token, err := utils.GeneratePassword(20)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store upload failed"})
	}
	name := token + ext
	dstPath := filepath.Join(h.Cfg.UploadDir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store upload failed"})
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dstPath)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store upload failed"})
	}

	url := "/uploads/" + name
	if h.Cfg.BaseURL != "" {
		url = fmt.Sprintf("%s/uploads/%s", strings.TrimRight(h.Cfg.BaseURL, "/"), name)
	}
	return c.JSON(http.StatusCreated, echo.Map{"url": url, "size": fh.Size})
}
