package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"scribe/internal/api/v1/dto"
	"scribe/internal/api/v1/services"
	"scribe/internal/app/export"
)

// BackendHandler reports the available transcription backends
type BackendHandler struct {
	service services.BackendService
}

// NewBackendHandler creates a new backend handler
func NewBackendHandler(service services.BackendService) *BackendHandler {
	return &BackendHandler{service: service}
}

// List handles GET /api/v1/backends
func (h *BackendHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, dto.BackendsResponse{
		Active:    h.service.Active(),
		Available: h.service.Available(),
		Formats: lo.Map(h.service.Formats(), func(f export.Format, _ int) string {
			return string(f)
		}),
	})
}
