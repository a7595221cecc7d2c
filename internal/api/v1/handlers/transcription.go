package handlers

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"scribe/internal/api/middleware"
	"scribe/internal/api/v1/dto"
	"scribe/internal/api/v1/services"
	"scribe/internal/app/capture"
	apperrors "scribe/internal/app/errors"
	"scribe/internal/app/export"
)

// FallbackHeader is set on a download that was rendered as text because no PDF renderer exists.
const FallbackHeader = "X-Rendering-Fallback"

// TranscriptionHandler handles the recording, upload and download endpoints
type TranscriptionHandler struct {
	service services.TranscriptionService
}

// NewTranscriptionHandler creates a new transcription handler
func NewTranscriptionHandler(service services.TranscriptionService) *TranscriptionHandler {
	return &TranscriptionHandler{
		service: service,
	}
}

// State handles GET /api/v1/state
func (h *TranscriptionHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.state())
}

// StartRecording handles POST /api/v1/recording/start
func (h *TranscriptionHandler) StartRecording(c *gin.Context) {
	if err := h.service.StartRecording(c.Request.Context()); err != nil {
		middleware.HandleError(c, err, h.state())
		return
	}
	c.JSON(http.StatusOK, h.state())
}

// StopRecording handles POST /api/v1/recording/stop. The response is written once the
// recording has been transcribed.
func (h *TranscriptionHandler) StopRecording(c *gin.Context) {
	if _, err := h.service.StopRecording(c.Request.Context()); err != nil {
		middleware.HandleError(c, err, h.state())
		return
	}
	c.JSON(http.StatusOK, h.state())
}

// SelectFile handles POST /api/v1/file
func (h *TranscriptionHandler) SelectFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		middleware.HandleError(c, apperrors.ErrNoFileSelected.With(err), nil)
		return
	}

	file, err := capture.FileFromUpload(header)
	if err != nil {
		middleware.HandleError(c, err, nil)
		return
	}

	if err := h.service.SelectFile(file); err != nil {
		middleware.HandleError(c, err, h.state())
		return
	}
	c.JSON(http.StatusOK, h.state())
}

// ClearFile handles DELETE /api/v1/file
func (h *TranscriptionHandler) ClearFile(c *gin.Context) {
	if err := h.service.SelectFile(nil); err != nil {
		middleware.HandleError(c, err, h.state())
		return
	}
	c.JSON(http.StatusOK, h.state())
}

// Upload handles POST /api/v1/upload
func (h *TranscriptionHandler) Upload(c *gin.Context) {
	if _, err := h.service.TriggerUpload(c.Request.Context()); err != nil {
		middleware.HandleError(c, err, h.state())
		return
	}
	c.JSON(http.StatusOK, h.state())
}

// Download handles GET /api/v1/download
func (h *TranscriptionHandler) Download(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatAuto)))
	if err != nil {
		middleware.HandleError(c, err, nil)
		return
	}

	artifact, err := h.service.Download(format)
	if err != nil {
		middleware.HandleError(c, err, nil)
		return
	}

	if artifact.Fallback {
		c.Header(FallbackHeader, apperrors.ErrRenderingFallback.Message())
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Name}))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

func (h *TranscriptionHandler) state() *dto.StateResponse {
	return dto.NewStateResponse(h.service.Snapshot())
}
