package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"tourdesk/internal/sandbox/services"
	console "tourdesk/internal/utils/logger"
)

const urlTTL = time.Hour

type UploadHandler struct {
	storage services.Storage
	log     *console.Logger
}

func NewUploadHandler(storage services.Storage) *UploadHandler {
	return &UploadHandler{
		storage: storage,
		log:     console.New("UPLOAD-HANDLER"),
	}
}

type UploadResult struct {
	Path string `json:"path"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// UploadFile stores the multipart "file" field
// @Summary Upload a file
// @Description Upload a file to the configured storage
// @Tags files
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param name formData string false "Display name"
// @Success 201 {object} map[string]UploadResult
// @Failure 400 {object} map[string]string "No file provided"
// @Router /api/files/upload [post]
func (h *UploadHandler) UploadFile(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file provided")
	}

	src, err := file.Open()
	if err != nil {
		return h.log.Error("Failed to open upload", err)
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return h.log.Error("Failed to read upload", err)
	}

	contentType := file.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	ctx := c.Request().Context()
	key, err := h.storage.Put(ctx, content, file.Filename, contentType)
	if err != nil {
		return err
	}
	url, err := h.storage.GetSignedURL(ctx, key, urlTTL)
	if err != nil {
		return err
	}

	name := c.FormValue("name")
	if name == "" {
		name = filepath.Base(file.Filename)
	}

	h.log.Success("File uploaded: %s", key)
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"data": UploadResult{
			Path: key,
			URL:  url,
			Name: name,
			Size: int64(len(content)),
			Type: contentType,
		},
		"message": "File uploaded successfully",
	})
}
