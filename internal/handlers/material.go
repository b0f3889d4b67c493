package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/services"
)

// maxMaterialBytes bounds a single upload (20 MiB).
const maxMaterialBytes = 20 << 20

type MaterialHandler struct {
	log         *logger.Logger
	materialSvc services.MaterialService
}

func NewMaterialHandler(log *logger.Logger, materialSvc services.MaterialService) *MaterialHandler {
	return &MaterialHandler{
		log:         log.With("handler", "MaterialHandler"),
		materialSvc: materialSvc,
	}
}

// POST /api/resolutions/:id/materials
// Multipart upload; the file lands in the bucket and its text is indexed
// into the resolution's content store.
func (h *MaterialHandler) Upload(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if fileHeader.Size > maxMaterialBytes {
		RespondError(c, http.StatusBadRequest, "bad_request", errFileTooLarge)
		return
	}
	opened, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(io.LimitReader(opened, maxMaterialBytes+1))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if len(data) > maxMaterialBytes {
		RespondError(c, http.StatusBadRequest, "bad_request", errFileTooLarge)
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	file, err := h.materialSvc.Upload(c.Request.Context(), userID, resolutionID, fileHeader.Filename, contentType, data)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"material": file})
}

// GET /api/resolutions/:id/materials
func (h *MaterialHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resolutionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	materials, err := h.materialSvc.List(c.Request.Context(), userID, resolutionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"materials": materials})
}
